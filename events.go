package tabletop

import (
	"unsafe"

	"github.com/akmonengine/tabletop/actor"
	"github.com/akmonengine/tabletop/constraint"
)

const (
	COLLISION_ENTER EventType = iota
	COLLISION_STAY
	COLLISION_EXIT
	ON_SLEEP
	ON_WAKE
)

type pairKey struct {
	bodyA *actor.RigidBody
	bodyB *actor.RigidBody
}

// makePairKey orders the bodies so that (A, B) and (B, A) share a key.
func makePairKey(bodyA, bodyB *actor.RigidBody) pairKey {
	if uintptr(unsafe.Pointer(bodyB)) < uintptr(unsafe.Pointer(bodyA)) {
		bodyA, bodyB = bodyB, bodyA
	}
	return pairKey{bodyA: bodyA, bodyB: bodyB}
}

type EventType uint8

func (t EventType) String() string {
	switch t {
	case COLLISION_ENTER:
		return "collision_enter"
	case COLLISION_STAY:
		return "collision_stay"
	case COLLISION_EXIT:
		return "collision_exit"
	case ON_SLEEP:
		return "sleep"
	case ON_WAKE:
		return "wake"
	default:
		return "unknown"
	}
}

type Event interface {
	Type() EventType
}

type CollisionEnterEvent struct {
	BodyA *actor.RigidBody
	BodyB *actor.RigidBody
}

func (e CollisionEnterEvent) Type() EventType { return COLLISION_ENTER }

type CollisionStayEvent struct {
	BodyA *actor.RigidBody
	BodyB *actor.RigidBody
}

func (e CollisionStayEvent) Type() EventType { return COLLISION_STAY }

type CollisionExitEvent struct {
	BodyA *actor.RigidBody
	BodyB *actor.RigidBody
}

func (e CollisionExitEvent) Type() EventType { return COLLISION_EXIT }

type SleepEvent struct {
	Body *actor.RigidBody
}

func (e SleepEvent) Type() EventType { return ON_SLEEP }

type WakeEvent struct {
	Body *actor.RigidBody
}

func (e WakeEvent) Type() EventType { return ON_WAKE }

type EventListener func(event Event)

// Events buffers collision and sleep events during a step and dispatches them
// to listeners at the end of it. Pairs are tracked in discovery order so that
// listeners are called in the same order on every run.
type Events struct {
	listeners map[EventType][]EventListener

	buffer []Event

	previousPairs []pairKey
	previousSet   map[pairKey]bool
	currentPairs  []pairKey
	currentSet    map[pairKey]bool

	sleepStates map[*actor.RigidBody]bool
}

func NewEvents() Events {
	return Events{
		listeners:   make(map[EventType][]EventListener),
		buffer:      make([]Event, 0, 64),
		previousSet: make(map[pairKey]bool),
		currentSet:  make(map[pairKey]bool),
		sleepStates: make(map[*actor.RigidBody]bool),
	}
}

// Subscribe adds a listener for an event type.
func (e *Events) Subscribe(eventType EventType, listener EventListener) {
	e.listeners[eventType] = append(e.listeners[eventType], listener)
}

// recordContacts marks the pairs of the contacts as touching for this step.
// Contacts without points do not count.
func (e *Events) recordContacts(contacts []*constraint.ContactConstraint) {
	for _, c := range contacts {
		if len(c.Points) == 0 {
			continue
		}
		pair := makePairKey(c.BodyA, c.BodyB)
		if e.currentSet[pair] {
			continue
		}
		e.currentSet[pair] = true
		e.currentPairs = append(e.currentPairs, pair)
	}
}

// processCollisionEvents compares the touching pairs with the previous step.
func (e *Events) processCollisionEvents() {
	for _, pair := range e.currentPairs {
		if pair.bodyA.IsSleeping && pair.bodyB.IsSleeping {
			continue
		}

		if e.previousSet[pair] {
			e.buffer = append(e.buffer, CollisionStayEvent{BodyA: pair.bodyA, BodyB: pair.bodyB})
		} else {
			e.buffer = append(e.buffer, CollisionEnterEvent{BodyA: pair.bodyA, BodyB: pair.bodyB})
		}
	}

	for _, pair := range e.previousPairs {
		if !e.currentSet[pair] {
			e.buffer = append(e.buffer, CollisionExitEvent{BodyA: pair.bodyA, BodyB: pair.bodyB})
		}
	}

	e.previousPairs, e.currentPairs = e.currentPairs, e.previousPairs[:0]
	e.previousSet, e.currentSet = e.currentSet, e.previousSet
	clear(e.currentSet)
}

func (e *Events) processSleepEvents(bodies []*actor.RigidBody) {
	for _, body := range bodies {
		trackedState, exists := e.sleepStates[body]
		if !exists {
			e.sleepStates[body] = body.IsSleeping
			continue
		}

		if !trackedState && body.IsSleeping {
			e.buffer = append(e.buffer, SleepEvent{Body: body})
			e.sleepStates[body] = true
		} else if trackedState && !body.IsSleeping {
			e.buffer = append(e.buffer, WakeEvent{Body: body})
			e.sleepStates[body] = false
		}
	}
}

// forget drops every pair and state involving body.
func (e *Events) forget(body *actor.RigidBody) {
	delete(e.sleepStates, body)

	e.previousPairs = removePairsWith(e.previousPairs, e.previousSet, body)
	e.currentPairs = removePairsWith(e.currentPairs, e.currentSet, body)
}

func removePairsWith(pairs []pairKey, set map[pairKey]bool, body *actor.RigidBody) []pairKey {
	n := 0
	for _, pair := range pairs {
		if pair.bodyA == body || pair.bodyB == body {
			delete(set, pair)
			continue
		}
		pairs[n] = pair
		n++
	}
	return pairs[:n]
}

// flush dispatches the buffered events and clears the buffer.
func (e *Events) flush() {
	e.processCollisionEvents()

	for _, event := range e.buffer {
		for _, listener := range e.listeners[event.Type()] {
			listener(event)
		}
	}
	e.buffer = e.buffer[:0]
}
