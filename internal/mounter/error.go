package mounter

import "errors"

var (
	// ErrMountFailed is returned when the operating system mount facility
	// reports an error for one export.
	ErrMountFailed = errors.New("mount command failed")

	// ErrNoMountableExports is returned when no non-root export was
	// available to mount.
	ErrNoMountableExports = errors.New("no mountable exports found")

	// ErrAllMountsFailed is returned under first-success-wins when every
	// candidate failed.
	ErrAllMountsFailed = errors.New("all mount attempts failed")

	// ErrVerifyFailed is returned when a fresh mount point does not carry an
	// NFS filesystem.
	ErrVerifyFailed = errors.New("mount verification failed")

	// ErrProbeMismatch is returned when the write probe marker reads back
	// with different content than written.
	ErrProbeMismatch = errors.New("write probe content mismatch")
)
