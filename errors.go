package analytics

import "errors"

var (
	ErrTokenRequired  = errors.New("analytics: token is required")
	ErrInvalidConfig  = errors.New("analytics: invalid config")
	ErrIdenticalAlias = errors.New("analytics: alias and original distinct ids are identical")
	ErrClosed         = errors.New("analytics: client is closed")
)
