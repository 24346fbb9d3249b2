// Package scan implements host discovery: it runs the external port scanner
// against a subnet and returns the addresses with the NFS port open. The
// readiness wait also lives here, as a bounded poll loop around discovery.
package scan

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/desertwitch/nfsup/internal/schema"
)

// scannerBinary is the external port scanner invoked for discovery.
const scannerBinary = "nmap"

type execProvider interface {
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

// Handler is the principal implementation for host discovery.
type Handler struct {
	execHandler execProvider
}

// NewHandler returns a pointer to a new discovery [Handler].
func NewHandler(execHandler execProvider) *Handler {
	return &Handler{
		execHandler: execHandler,
	}
}

// Discover scans the subnet for hosts with the port open, in scanner-reported
// order. A failing or unparsable scan yields zero hosts, not a hard failure:
// discovery of nothing is a legitimate outcome (tool absence was already
// handled before this point). Only context cancellation is returned as an
// error.
func (h *Handler) Discover(ctx context.Context, subnet string, port int) ([]schema.Host, error) {
	out, err := h.execHandler.Output(ctx, scannerBinary,
		"-p", strconv.Itoa(port), "-oG", "-", subnet)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("(scan) %w", ctx.Err())
		}

		slog.Warn("Scanner invocation failed (treated as zero hosts found).",
			"subnet", subnet,
			"port", port,
			"err", err,
		)

		return nil, nil
	}

	return ParseGrepable(out, port), nil
}

// WaitForHosts polls discovery at the given interval until at least one host
// is found or the timeout elapses. A timeout of zero means "no wait": exactly
// one discovery attempt is made. Elapsing the full wait budget without any
// host is fatal for the whole run.
func (h *Handler) WaitForHosts(ctx context.Context, subnet string, port int, timeout time.Duration, interval time.Duration) ([]schema.Host, error) {
	deadline := time.Now().Add(timeout)

	for attempt := 1; ; attempt++ {
		hosts, err := h.Discover(ctx, subnet, port)
		if err != nil {
			return nil, err
		}

		if len(hosts) > 0 {
			slog.Info("Servers found on subnet.",
				"subnet", subnet,
				"port", port,
				"hosts", len(hosts),
				"attempt", attempt,
			)

			return hosts, nil
		}

		if !time.Now().Before(deadline) {
			break
		}

		slog.Info("No servers found yet, polling again.",
			"subnet", subnet,
			"port", port,
			"attempt", attempt,
			"interval", interval,
		)

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("(scan) %w", ctx.Err())
		case <-time.After(interval):
		}
	}

	return nil, fmt.Errorf("(scan) %w: subnet %s port %d", ErrNoServersFound, subnet, port)
}
