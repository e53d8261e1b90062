package database

import "errors"

// Sentinel errors for database operations.
var (
	ErrConnect  = errors.New("database connection failed")
	ErrMigrate  = errors.New("database migration failed")
	ErrDescribe = errors.New("schema introspection failed")
)
