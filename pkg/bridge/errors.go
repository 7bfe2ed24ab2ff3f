package bridge

import "errors"

var (
	// ErrUnknownTopic is returned by Handle for a topic the bridge does not serve.
	ErrUnknownTopic = errors.New("bridge: unknown topic")

	// ErrBadPayload is returned by Handle for a payload that does not decode.
	ErrBadPayload = errors.New("bridge: bad payload")

	// ErrInvalidConfig is returned by New for an unusable Config.
	ErrInvalidConfig = errors.New("bridge: invalid config")
)
