package mounter

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/zeebo/blake3"
	"golang.org/x/sys/unix"
)

const (
	// nfsSuperMagic is NFS_SUPER_MAGIC, the statfs filesystem type reported
	// for NFS mounts.
	nfsSuperMagic = 0x6969

	probeDirName    = ".nfsup"
	probeMarkerName = "marker"

	probeDirPerm  = 0o777
	probeFilePerm = 0o666
)

// verifyMount confirms that the target now carries an NFS filesystem, so a
// mount command that "succeeded" against a stale or local path is still
// caught.
func (h *Handler) verifyMount(target string) error {
	var buf unix.Statfs_t

	if err := h.unixHandler.Statfs(target, &buf); err != nil {
		return fmt.Errorf("%w: statfs: %w", ErrVerifyFailed, err)
	}

	if buf.Type != nfsSuperMagic {
		return fmt.Errorf("%w: unexpected filesystem type %#x on %s",
			ErrVerifyFailed, buf.Type, target)
	}

	return nil
}

// writeProbe proves the fresh mount accepts writes: a marker file is written
// into a probe directory and read back, compared by BLAKE3 digest.
func (h *Handler) writeProbe(target string) error {
	probeDir := filepath.Join(target, probeDirName)
	if err := h.osHandler.MkdirAll(probeDir, probeDirPerm); err != nil {
		return fmt.Errorf("create probe directory: %w", err)
	}

	payload := fmt.Appendf(nil, "nfsup write probe %s\n", time.Now().Format(time.RFC3339))
	written := blake3.Sum256(payload)

	marker := filepath.Join(probeDir, probeMarkerName)
	if err := h.osHandler.WriteFile(marker, payload, probeFilePerm); err != nil {
		return fmt.Errorf("write probe marker: %w", err)
	}

	readBack, err := h.osHandler.ReadFile(marker)
	if err != nil {
		return fmt.Errorf("read probe marker: %w", err)
	}

	if blake3.Sum256(readBack) != written {
		return fmt.Errorf("%w: %s", ErrProbeMismatch, marker)
	}

	return nil
}
