package database

import "errors"

// ErrNotReady reports that the startup ping failed.
var ErrNotReady = errors.New("database not ready")
