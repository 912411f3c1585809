package config

import "errors"

var (
	// ErrInvalid wraps every configuration validation failure.
	ErrInvalid = errors.New("invalid configuration")

	// ErrNoSession is returned when no login session has been saved.
	ErrNoSession = errors.New("not logged in (run 'staffportal login')")
)
