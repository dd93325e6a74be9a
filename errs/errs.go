// Package errs defines the closed error taxonomy shared by vfd, ftl, and the
// flashdbsim facade. Every sentinel here corresponds 1:1 to a failure code
// named in spec.md §7; no other error value should cross a package boundary
// from vfd/ftl/facade code.
package errs

import "errors"

// Configuration errors.
var (
	ErrWrongModuleId        = errors.New("flashdbsim: wrong module id")
	ErrModuleInitFailed     = errors.New("flashdbsim: module init failed")
	ErrUnsupportedInterface = errors.New("flashdbsim: unsupported interface")
	ErrUnsupportedObject    = errors.New("flashdbsim: unsupported object")
)

// Addressing errors.
var (
	ErrInvalidLBA        = errors.New("flashdbsim: invalid lba")
	ErrInvalidPageState  = errors.New("flashdbsim: invalid page state")
)

// Capacity / wear errors.
var (
	ErrNoMemory   = errors.New("flashdbsim: no memory")
	ErrNotDirty   = errors.New("flashdbsim: not dirty")
	ErrBlockBroken = errors.New("flashdbsim: block broken")
)

// I/O shape errors.
var (
	ErrIoOverflow = errors.New("flashdbsim: io overflow")
	ErrIoFailed   = errors.New("flashdbsim: io failed") // reserved, per spec.md §7
)
