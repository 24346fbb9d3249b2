// Package mounter attaches discovered exports to deterministic local mount
// points through the operating system mount facility. It implements the two
// mutually exclusive mount policies (mount-all and first-success-wins) and
// the post-mount verification steps.
package mounter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertwitch/nfsup/internal/schema"
	"golang.org/x/sys/unix"
)

const (
	mountBinary = "mount"
	fsType      = "nfs"

	mountPointPerm = 0o755

	// worldWritablePerm is set on mount points when configured: an
	// unprivileged test workload must be able to write into the mount.
	worldWritablePerm = 0o777
)

type osProvider interface {
	MkdirAll(path string, perm os.FileMode) error
	WriteFile(name string, data []byte, perm os.FileMode) error
	ReadFile(name string) ([]byte, error)
}

type unixProvider interface {
	Chmod(path string, mode uint32) error
	Statfs(path string, buf *unix.Statfs_t) error
}

type execProvider interface {
	CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error)
}

type outcomeObserver interface {
	RecordMount(succeeded bool)
}

// Options carries the mounting configuration.
type Options struct {
	Base          string
	MountOptions  string
	WorldWritable bool
	WriteProbe    bool
}

// Handler is the principal implementation for mounting.
type Handler struct {
	osHandler   osProvider
	unixHandler unixProvider
	execHandler execProvider
	observer    outcomeObserver
	opts        Options
}

// NewHandler returns a pointer to a new mounting [Handler]. The observer may
// be nil when no presentation layer is interested in per-mount outcomes.
func NewHandler(osHandler osProvider, unixHandler unixProvider, execHandler execProvider, observer outcomeObserver, opts Options) *Handler {
	return &Handler{
		osHandler:   osHandler,
		unixHandler: unixHandler,
		execHandler: execHandler,
		observer:    observer,
		opts:        opts,
	}
}

// MountPoint derives the deterministic local path for an export:
// <base>/<host>/<volume name>.
func (h *Handler) MountPoint(e schema.Export) string {
	return filepath.Join(h.opts.Base, string(e.Host), e.VolumeName())
}

// Mount attaches one export at its derived mount point and verifies the
// result. The outcome is reported, never panicked or aborted on: policy
// handling of sibling exports stays with the caller.
func (h *Handler) Mount(ctx context.Context, e schema.Export) schema.MountOutcome {
	outcome := schema.MountOutcome{
		Export:     e,
		MountPoint: h.MountPoint(e),
	}

	if err := h.prepareMountPoint(outcome.MountPoint); err != nil {
		outcome.Err = fmt.Errorf("(mounter) %w", err)

		return outcome
	}

	out, err := h.execHandler.CombinedOutput(ctx, mountBinary,
		"-t", fsType, "-o", h.opts.MountOptions, e.RemoteSpec(), outcome.MountPoint)
	if err != nil {
		outcome.Err = fmt.Errorf("(mounter) %w: %s: %s", ErrMountFailed,
			e.RemoteSpec(), strings.TrimSpace(string(out)))

		return outcome
	}

	if err := h.verifyMount(outcome.MountPoint); err != nil {
		outcome.Err = fmt.Errorf("(mounter) %w", err)

		return outcome
	}

	if h.opts.WriteProbe {
		// Probe failure is logged but does not revert an otherwise
		// established mount.
		if err := h.writeProbe(outcome.MountPoint); err != nil {
			slog.Warn("Write probe failed on fresh mount.",
				"target", outcome.MountPoint,
				"err", err,
			)
		}
	}

	return outcome
}

// MountAll mounts every non-root export, continuing past individual
// failures. The run only fails overall when there was nothing mountable to
// begin with: partial success is success.
func (h *Handler) MountAll(ctx context.Context, exports []schema.Export) ([]schema.MountOutcome, error) {
	candidates := h.filterCandidates(exports)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("(mounter) %w", ErrNoMountableExports)
	}

	outcomes := make([]schema.MountOutcome, 0, len(candidates))

	for _, e := range candidates {
		if ctx.Err() != nil {
			return outcomes, fmt.Errorf("(mounter) %w", ctx.Err())
		}

		outcome := h.Mount(ctx, e)
		h.logOutcome(outcome)

		outcomes = append(outcomes, outcome)
	}

	return outcomes, nil
}

// MountFirst tries candidates in order (hosts, then each host's exports) and
// stops the entire run successfully after the first mounted export. Failed
// attempts are logged and the next candidate is tried; the outcomes of all
// attempts are returned.
func (h *Handler) MountFirst(ctx context.Context, exports []schema.Export) ([]schema.MountOutcome, error) {
	candidates := h.filterCandidates(exports)
	if len(candidates) == 0 {
		return nil, fmt.Errorf("(mounter) %w", ErrNoMountableExports)
	}

	var outcomes []schema.MountOutcome

	for _, e := range candidates {
		if ctx.Err() != nil {
			return outcomes, fmt.Errorf("(mounter) %w", ctx.Err())
		}

		outcome := h.Mount(ctx, e)
		h.logOutcome(outcome)

		outcomes = append(outcomes, outcome)

		if outcome.Succeeded() {
			return outcomes, nil
		}
	}

	return outcomes, fmt.Errorf("(mounter) %w", ErrAllMountsFailed)
}

// filterCandidates drops root exports, which denote non-shareable server
// roots in the lister's convention and are never mounted.
func (h *Handler) filterCandidates(exports []schema.Export) []schema.Export {
	candidates := make([]schema.Export, 0, len(exports))

	for _, e := range exports {
		if e.IsRoot() {
			slog.Info("Skipping root export.",
				"host", e.Host,
			)

			continue
		}

		candidates = append(candidates, e)
	}

	return candidates
}

// prepareMountPoint creates the target directory and applies the configured
// permissions.
func (h *Handler) prepareMountPoint(target string) error {
	if err := h.osHandler.MkdirAll(target, mountPointPerm); err != nil {
		return fmt.Errorf("create mount point: %w", err)
	}

	if h.opts.WorldWritable {
		if err := h.unixHandler.Chmod(target, worldWritablePerm); err != nil {
			return fmt.Errorf("chmod mount point: %w", err)
		}
	}

	return nil
}

func (h *Handler) logOutcome(outcome schema.MountOutcome) {
	if h.observer != nil {
		h.observer.RecordMount(outcome.Succeeded())
	}

	if outcome.Succeeded() {
		slog.Info("Mounted export.",
			"remote", outcome.Export.RemoteSpec(),
			"target", outcome.MountPoint,
			"options", h.opts.MountOptions,
		)

		return
	}

	slog.Error("Failed to mount export.",
		"remote", outcome.Export.RemoteSpec(),
		"target", outcome.MountPoint,
		"err", outcome.Err,
	)
}
