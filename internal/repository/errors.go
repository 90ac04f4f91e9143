// Package repository implements persistence over PostgreSQL. Sentinel
// errors defined here let the service layer distinguish failure causes
// without inspecting driver-specific error values.
package repository

import "errors"

// ErrDuplicate is returned when an insert violates a uniqueness
// constraint, such as two seats sharing a seat number.
var ErrDuplicate = errors.New("duplicate record")
