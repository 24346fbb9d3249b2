// Package deps guarantees the external tools the workflow glues together are
// present before use, installing them through the first available system
// package manager when missing.
package deps

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// Package manager binaries, in fallback order.
var managerOrder = []string{"apt-get", "dnf", "yum", "zypper"} //nolint:gochecknoglobals

// Tool describes one required external tool and the package providing it per
// package manager.
type Tool struct {
	Binary   string
	Packages map[string]string // map[managerBinary]packageName
}

// RequiredTools returns the tools the workflow cannot run without: the port
// scanner and the NFS export lister.
func RequiredTools() []Tool {
	return []Tool{
		{
			Binary: "nmap",
			Packages: map[string]string{
				"apt-get": "nmap",
				"dnf":     "nmap",
				"yum":     "nmap",
				"zypper":  "nmap",
			},
		},
		{
			Binary: "showmount",
			Packages: map[string]string{
				"apt-get": "nfs-common",
				"dnf":     "nfs-utils",
				"yum":     "nfs-utils",
				"zypper":  "nfs-client",
			},
		},
	}
}

type execProvider interface {
	LookPath(file string) (string, error)
	CombinedOutput(ctx context.Context, name string, args ...string) ([]byte, error)
}

// Handler is the principal implementation for dependency ensuring.
type Handler struct {
	execHandler execProvider
}

// NewHandler returns a pointer to a new dependency [Handler].
func NewHandler(execHandler execProvider) *Handler {
	return &Handler{
		execHandler: execHandler,
	}
}

// EnsureTools checks each tool for presence on the path and installs absent
// ones. Idempotent: when everything is already present, no install command is
// invoked. Installation failure is fatal, so later steps never run against a
// missing tool.
func (h *Handler) EnsureTools(ctx context.Context, tools []Tool) error {
	manager := ""

	for _, tool := range tools {
		if ctx.Err() != nil {
			return fmt.Errorf("(deps) %w", ctx.Err())
		}

		if path, err := h.execHandler.LookPath(tool.Binary); err == nil {
			slog.Debug("Required tool already present.",
				"tool", tool.Binary,
				"path", path,
			)

			continue
		}

		if manager == "" {
			found, err := h.findManager()
			if err != nil {
				return fmt.Errorf("(deps) cannot install %q: %w", tool.Binary, err)
			}
			manager = found
		}

		if err := h.install(ctx, manager, tool); err != nil {
			return fmt.Errorf("(deps) %w", err)
		}
	}

	return nil
}

// findManager returns the first supported package manager present on the
// path.
func (h *Handler) findManager() (string, error) {
	for _, manager := range managerOrder {
		if _, err := h.execHandler.LookPath(manager); err == nil {
			return manager, nil
		}
	}

	return "", ErrNoPackageManager
}

// install installs the package providing the tool and re-checks its presence.
func (h *Handler) install(ctx context.Context, manager string, tool Tool) error {
	pkg, ok := tool.Packages[manager]
	if !ok {
		return fmt.Errorf("%w: no package mapping for %q via %q", ErrToolMissing, tool.Binary, manager)
	}

	slog.Info("Installing required tool.",
		"tool", tool.Binary,
		"package", pkg,
		"manager", manager,
	)

	out, err := h.execHandler.CombinedOutput(ctx, manager, "install", "-y", pkg)
	if err != nil {
		return fmt.Errorf("%w: %q via %q: %s", ErrInstallFailed, pkg, manager,
			strings.TrimSpace(string(out)))
	}

	if _, err := h.execHandler.LookPath(tool.Binary); err != nil {
		return fmt.Errorf("%w: %q still absent after install", ErrToolMissing, tool.Binary)
	}

	return nil
}
