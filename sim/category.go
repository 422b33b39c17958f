package sim

import (
	"strings"

	"github.com/akmonengine/tabletop/actor"
)

// Category is a set of flags describing what a geom is, or, used as a
// collide mask, what it is willing to touch.
type Category uint32

const (
	CategoryNone    Category = 0
	CategoryGround  Category = 1 << 0
	CategoryDynamic Category = 1 << 1
	CategoryElement Category = 1 << 2
	// CategoryDispenser geoms hold elements on a vertical slider instead of
	// touching them.
	CategoryDispenser Category = 1 << 3
	CategoryRobot     Category = 1 << 4
	CategoryAll       Category = ^Category(0)
)

var categoryNames = []struct {
	category Category
	name     string
}{
	{CategoryGround, "ground"},
	{CategoryDynamic, "dynamic"},
	{CategoryElement, "element"},
	{CategoryDispenser, "dispenser"},
	{CategoryRobot, "robot"},
}

// Has reports whether every flag of other is set.
func (c Category) Has(other Category) bool {
	return c&other == other
}

// Intersects reports whether at least one flag is shared.
func (c Category) Intersects(other Category) bool {
	return c&other != 0
}

func (c Category) With(other Category) Category {
	return c | other
}

func (c Category) Without(other Category) Category {
	return c &^ other
}

func (c Category) String() string {
	switch c {
	case CategoryNone:
		return "none"
	case CategoryAll:
		return "all"
	}

	var names []string
	for _, n := range categoryNames {
		if c.Has(n.category) {
			names = append(names, n.name)
		}
	}
	if rest := c &^ (CategoryGround | CategoryDynamic | CategoryElement | CategoryDispenser | CategoryRobot); rest != 0 {
		names = append(names, "other")
	}
	return strings.Join(names, "|")
}

func categoryOf(g *actor.Geom) Category {
	return Category(g.Category)
}

func maskOf(g *actor.Geom) Category {
	return Category(g.CollideMask)
}

// ShouldCollide reports whether two geoms interact. Geoms of the same body
// never do; otherwise one of the geoms must accept the other's category.
func ShouldCollide(a, b *actor.Geom) bool {
	if a.Body != nil && a.Body == b.Body {
		return false
	}
	return maskOf(a).Intersects(categoryOf(b)) || maskOf(b).Intersects(categoryOf(a))
}

// IsSliderPair reports whether the pair is a dispenser and an element, in any order.
func IsSliderPair(a, b *actor.Geom) bool {
	return sliderOrder(a, b) != nil
}

// sliderOrder returns the (dispenser, element) geoms of a slider pair, or nil.
func sliderOrder(a, b *actor.Geom) []*actor.Geom {
	switch {
	case categoryOf(a).Has(CategoryDispenser) && categoryOf(b).Has(CategoryElement):
		return []*actor.Geom{a, b}
	case categoryOf(b).Has(CategoryDispenser) && categoryOf(a).Has(CategoryElement):
		return []*actor.Geom{b, a}
	}
	return nil
}
