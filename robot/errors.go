package robot

import "errors"

var (
	ErrEmptyTrajectory = errors.New("empty trajectory")
	ErrStaticObject    = errors.New("robot object must be dynamic")
	ErrInvalidParams   = errors.New("invalid robot params")
)
