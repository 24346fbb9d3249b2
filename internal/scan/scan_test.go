package scan

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/desertwitch/nfsup/internal/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sampleGrepable is a fixed scanner output sample covering comments,
// status-only lines, closed ports and duplicate reporting.
const sampleGrepable = `# Nmap 7.80 scan initiated Mon Aug 24 10:00:01 2026 as: nmap -p 2049 -oG - 10.0.0.0/28
Host: 10.0.0.4 ()	Status: Up
Host: 10.0.0.4 ()	Ports: 2049/open/tcp//nfs///
Host: 10.0.0.5 ()	Ports: 2049/closed/tcp//nfs///
Host: 10.0.0.6 ()	Ports: 2049/open/tcp//nfs///
Host: 10.0.0.6 ()	Ports: 2049/open/tcp//nfs///
# Nmap done at Mon Aug 24 10:00:04 2026 -- 16 IP addresses (3 hosts up) scanned in 3.02 seconds
`

type fakeExec struct {
	out   []byte
	err   error
	calls int

	// outs optionally serves per-call outputs, for poll loop tests.
	outs [][]byte
}

func (f *fakeExec) Output(_ context.Context, _ string, _ ...string) ([]byte, error) {
	f.calls++

	if f.outs != nil {
		out := f.outs[0]
		if len(f.outs) > 1 {
			f.outs = f.outs[1:]
		}

		return out, f.err
	}

	return f.out, f.err
}

// TestParseGrepable verifies column-position extraction of open hosts from
// fixed sample output.
func TestParseGrepable(t *testing.T) {
	t.Parallel()

	hosts := ParseGrepable([]byte(sampleGrepable), 2049)
	assert.Equal(t, []schema.Host{"10.0.0.4", "10.0.0.6"}, hosts)
}

// TestParseGrepable_OtherPort verifies that the open marker is bound to the
// requested port.
func TestParseGrepable_OtherPort(t *testing.T) {
	t.Parallel()

	hosts := ParseGrepable([]byte(sampleGrepable), 111)
	assert.Empty(t, hosts)
}

// TestParseGrepable_Garbage verifies that unparsable output yields zero hosts
// instead of failing.
func TestParseGrepable_Garbage(t *testing.T) {
	t.Parallel()

	hosts := ParseGrepable([]byte("total garbage\nHost:\n"), 2049)
	assert.Empty(t, hosts)
}

// TestDiscover_ScannerFailure verifies that a failing scanner is treated as
// zero hosts found, not as a hard failure.
func TestDiscover_ScannerFailure(t *testing.T) {
	t.Parallel()

	handler := NewHandler(&fakeExec{err: errors.New("exit status 1")})

	hosts, err := handler.Discover(t.Context(), "10.0.0.0/28", 2049)
	require.NoError(t, err)
	assert.Empty(t, hosts)
}

// TestWaitForHosts_ZeroTimeout verifies that a zero timeout means exactly one
// discovery attempt and a fatal "no servers found" outcome.
func TestWaitForHosts_ZeroTimeout(t *testing.T) {
	t.Parallel()

	execFake := &fakeExec{out: []byte("")}
	handler := NewHandler(execFake)

	_, err := handler.WaitForHosts(t.Context(), "10.0.0.0/28", 2049, 0, time.Millisecond)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoServersFound))
	assert.Equal(t, 1, execFake.calls, "zero timeout should scan exactly once")
}

// TestWaitForHosts_EventualSuccess verifies that polling continues until a
// host appears within the wait budget.
func TestWaitForHosts_EventualSuccess(t *testing.T) {
	t.Parallel()

	execFake := &fakeExec{outs: [][]byte{
		[]byte(""),
		[]byte(""),
		[]byte("Host: 10.0.0.4 ()\tPorts: 2049/open/tcp//nfs///\n"),
	}}
	handler := NewHandler(execFake)

	hosts, err := handler.WaitForHosts(t.Context(), "10.0.0.0/28", 2049, time.Second, time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, []schema.Host{"10.0.0.4"}, hosts)
	assert.Equal(t, 3, execFake.calls)
}

// TestWaitForHosts_Timeout verifies the fatal outcome when the wait budget
// elapses with no hosts responding.
func TestWaitForHosts_Timeout(t *testing.T) {
	t.Parallel()

	execFake := &fakeExec{out: []byte("")}
	handler := NewHandler(execFake)

	_, err := handler.WaitForHosts(t.Context(), "10.0.0.0/28", 2049, 10*time.Millisecond, 3*time.Millisecond)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoServersFound))
	assert.GreaterOrEqual(t, execFake.calls, 2)
}

// TestWaitForHosts_Cancellation verifies that context cancellation aborts the
// poll loop.
func TestWaitForHosts_Cancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	handler := NewHandler(&fakeExec{out: []byte("")})

	_, err := handler.WaitForHosts(ctx, "10.0.0.0/28", 2049, time.Minute, time.Millisecond)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}
