// Package schema provides the principal schematics for all other packages. It
// defines the domain structures for discovered NFS servers and their exports,
// and provides implementations for handling operating system and subprocess
// calls. The package serves as a foundational layer for the mounting workflow
// throughout the codebase.
package schema

import (
	"path"
)

// Host is the address of a discovered server with the NFS port open.
type Host string

// Export is a single share path advertised by a [Host].
type Export struct {
	Host Host
	Path string
}

// VolumeName returns the final path segment of the export, used as the last
// element of the local mount point.
func (e Export) VolumeName() string {
	return path.Base(e.Path)
}

// RemoteSpec returns the export in "host:/path" form, as consumed by the
// operating system mount facility.
func (e Export) RemoteSpec() string {
	return string(e.Host) + ":" + e.Path
}

// IsRoot reports whether the export denotes the server root. Root exports are
// never mounted.
func (e Export) IsRoot() bool {
	return e.Path == "/"
}

// MountOutcome records the result of one mount attempt.
type MountOutcome struct {
	Export     Export
	MountPoint string
	Err        error
}

// Succeeded reports whether the mount attempt completed without error.
func (o MountOutcome) Succeeded() bool {
	return o.Err == nil
}
