// Package exports implements export enumeration: it asks one discovered host
// for its list of advertised NFS shares through the external export lister.
package exports

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/desertwitch/nfsup/internal/schema"
)

// listerBinary is the external export lister invoked per host.
const listerBinary = "showmount"

type execProvider interface {
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

// Handler is the principal implementation for export enumeration.
type Handler struct {
	execHandler execProvider
}

// NewHandler returns a pointer to a new enumeration [Handler].
func NewHandler(execHandler execProvider) *Handler {
	return &Handler{
		execHandler: execHandler,
	}
}

// List returns the exports advertised by the host. A settle delay greater
// than zero runs first, to avoid racing a server that has only just opened
// its port. A failing or unreachable host yields an empty list, never a hard
// failure: one bad host must not prevent mounting from its siblings. Only
// context cancellation is returned as an error.
func (h *Handler) List(ctx context.Context, host schema.Host, settle time.Duration) ([]schema.Export, error) {
	if settle > 0 {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("(exports) %w", ctx.Err())
		case <-time.After(settle):
		}
	}

	out, err := h.execHandler.Output(ctx, listerBinary, "-e", string(host))
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("(exports) %w", ctx.Err())
		}

		slog.Warn("Export listing failed for host (was skipped).",
			"host", host,
			"err", err,
		)

		return nil, nil
	}

	return ParseExportList(out, host), nil
}

// ParseExportList extracts the export paths from the lister's output. The
// first line is a header ("Export list for <host>:") and is skipped; every
// following line carries the export path as its first whitespace-separated
// field, always beginning with "/".
func ParseExportList(out []byte, host schema.Host) []schema.Export {
	var exports []schema.Export

	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		if !strings.HasPrefix(fields[0], "/") {
			continue
		}

		exports = append(exports, schema.Export{Host: host, Path: fields[0]})
	}

	return exports
}
