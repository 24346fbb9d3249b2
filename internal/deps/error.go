package deps

import "errors"

var (
	// ErrNoPackageManager is returned when no supported package manager is
	// present on the system.
	ErrNoPackageManager = errors.New("no supported package manager found")

	// ErrInstallFailed is returned when a package installation command fails.
	ErrInstallFailed = errors.New("package installation failed")

	// ErrToolMissing is returned when a required tool remains absent.
	ErrToolMissing = errors.New("required tool missing")
)
