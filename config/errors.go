package config

import "errors"

var (
	// ErrParsingConfig is returned when the environment or a config file cannot be parsed
	ErrParsingConfig = errors.New("failed to parse config")

	// ErrReadingFile is returned when a config or .env file cannot be read
	ErrReadingFile = errors.New("failed to read config file")

	// ErrInvalidBackend is returned when the configured backend is neither threaded nor cooperative
	ErrInvalidBackend = errors.New("invalid runtime backend")

	// ErrInvalidLogFormat is returned when the configured log format is neither text nor json
	ErrInvalidLogFormat = errors.New("invalid log format")

	// ErrInvalidShutdownTimeout is returned for a negative shutdown timeout
	ErrInvalidShutdownTimeout = errors.New("invalid shutdown timeout")
)
