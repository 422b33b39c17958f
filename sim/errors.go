package sim

import "errors"

var (
	ErrNotInitialized     = errors.New("object not initialized")
	ErrAlreadyInitialized = errors.New("object already initialized")
	ErrMassAndBody        = errors.New("mass and body are mutually exclusive")
	ErrStaticBody         = errors.New("supplied body is static")
	ErrInvalidMass        = errors.New("invalid mass")
	ErrNoGeoms            = errors.New("object has no geom")
	ErrDestroyed          = errors.New("object destroyed")
	ErrInvalidConfig      = errors.New("invalid physics config")
)
