package domain

import "errors"

var (
	ErrNoLaunchEntry   = errors.New("no launch entry point")
	ErrPackageNotFound = errors.New("package not found")
	ErrNoResolver      = errors.New("no activity found to handle intent")
)
