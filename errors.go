package goBoard

import "errors"

var (
	// ErrBuilderUsed is returned when Build is called twice on the same Builder.
	ErrBuilderUsed = errors.New("builder already used")
	// ErrInvalidEnv is returned by LoadConfigFromEnv for unparsable variables.
	ErrInvalidEnv = errors.New("invalid environment variable")
	// ErrStorageUnavailable is returned by Build when the configured storage backend
	// cannot be reached or created.
	ErrStorageUnavailable = errors.New("session storage unavailable")
	// ErrThrottleUnavailable is returned by Build when the login throttle is enabled
	// without a Redis client.
	ErrThrottleUnavailable = errors.New("login throttle requires redis")
	// ErrLoginThrottled is returned by CheckLogin while an email or client IP is
	// cooling down after repeated failed sign-ins.
	ErrLoginThrottled = errors.New("too many failed sign-ins")
	// ErrInvalidContextID is returned for browser-context ids that are not UUIDs.
	ErrInvalidContextID = errors.New("invalid browser context id")
)
