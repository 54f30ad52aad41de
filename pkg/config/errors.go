package config

import "errors"

var (
	// ErrParsingConfig is returned when environment variables cannot be
	// parsed into the target struct.
	ErrParsingConfig = errors.New("failed to parse environment variables into config")

	// ErrNilPointer is returned when a nil pointer is passed to Load.
	ErrNilPointer = errors.New("nil pointer provided to config loader")

	// ErrLoadingEnvFile is returned when an explicit .env file cannot be read.
	ErrLoadingEnvFile = errors.New("failed to load env file")
)
