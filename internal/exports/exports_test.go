package exports

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/desertwitch/nfsup/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleExportList is a fixed lister output sample with the one-line header,
// a root export and client columns.
const sampleExportList = `Export list for 10.0.0.5:
/data    10.0.0.0/28
/backup  (everyone)
/        (everyone)
`

type fakeExec struct {
	out []byte
	err error
}

func (f *fakeExec) Output(_ context.Context, _ string, _ ...string) ([]byte, error) {
	return f.out, f.err
}

// TestParseExportList verifies header skipping and first-column extraction
// against fixed sample output.
func TestParseExportList(t *testing.T) {
	t.Parallel()

	exports := ParseExportList([]byte(sampleExportList), "10.0.0.5")

	assert.Equal(t, []schema.Export{
		{Host: "10.0.0.5", Path: "/data"},
		{Host: "10.0.0.5", Path: "/backup"},
		{Host: "10.0.0.5", Path: "/"},
	}, exports)
}

// TestParseExportList_Empty verifies that header-only output yields zero
// exports.
func TestParseExportList_Empty(t *testing.T) {
	t.Parallel()

	exports := ParseExportList([]byte("Export list for 10.0.0.5:\n"), "10.0.0.5")
	assert.Empty(t, exports)
}

// TestList_Success verifies enumeration of a reachable host.
func TestList_Success(t *testing.T) {
	t.Parallel()

	handler := NewHandler(&fakeExec{out: []byte(sampleExportList)})

	exports, err := handler.List(t.Context(), "10.0.0.5", 0)
	require.NoError(t, err)
	require.Len(t, exports, 3)
	assert.Equal(t, "/data", exports[0].Path)
}

// TestList_UnreachableHost verifies that a failing lister yields an empty
// list without aborting the run.
func TestList_UnreachableHost(t *testing.T) {
	t.Parallel()

	handler := NewHandler(&fakeExec{err: errors.New("clnt_create: RPC: Port mapper failure")})

	exports, err := handler.List(t.Context(), "10.0.0.9", 0)
	require.NoError(t, err)
	assert.Empty(t, exports)
}

// TestList_SettleCancellation verifies that cancellation during the settle
// delay aborts the enumeration.
func TestList_SettleCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	handler := NewHandler(&fakeExec{out: []byte(sampleExportList)})

	_, err := handler.List(ctx, "10.0.0.5", time.Minute)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
