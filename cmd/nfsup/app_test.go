package main

import (
	"context"
	"os"
	"testing"

	"github.com/desertwitch/nfsup/internal/config"
	"github.com/desertwitch/nfsup/internal/deps"
	"github.com/desertwitch/nfsup/internal/exports"
	"github.com/desertwitch/nfsup/internal/mounter"
	"github.com/desertwitch/nfsup/internal/scan"
	"github.com/desertwitch/nfsup/internal/status"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

const nfsSuperMagic = 0x6969

// fakeRunner stands in for every external program the workflow shells out to:
// the package manager lookups, the scanner and the export lister, and the
// mount command itself.
type fakeRunner struct {
	scanOut    string
	exportOuts map[string]string

	mountCalls []string
}

func (f *fakeRunner) LookPath(file string) (string, error) {
	return "/usr/bin/" + file, nil
}

func (f *fakeRunner) Output(_ context.Context, name string, args ...string) ([]byte, error) {
	if name == "nmap" {
		return []byte(f.scanOut), nil
	}

	// showmount -e <host>
	return []byte(f.exportOuts[args[len(args)-1]]), nil
}

func (f *fakeRunner) CombinedOutput(_ context.Context, name string, args ...string) ([]byte, error) {
	if name == "mount" {
		f.mountCalls = append(f.mountCalls, args[len(args)-2])
	}

	return nil, nil
}

type fakeOS struct{}

func (f *fakeOS) MkdirAll(_ string, _ os.FileMode) error            { return nil }
func (f *fakeOS) WriteFile(_ string, _ []byte, _ os.FileMode) error { return nil }
func (f *fakeOS) ReadFile(_ string) ([]byte, error)                 { return nil, nil }

type fakeUnix struct{}

func (f *fakeUnix) Chmod(_ string, _ uint32) error { return nil }

func (f *fakeUnix) Statfs(_ string, buf *unix.Statfs_t) error {
	buf.Type = nfsSuperMagic

	return nil
}

func newTestApp(runner *fakeRunner, cfg *config.Config) (*App, *status.Tracker) {
	tracker := status.NewTracker()

	mountHandler := mounter.NewHandler(&fakeOS{}, &fakeUnix{}, runner, tracker,
		mounter.Options{
			Base:          cfg.MountBase,
			MountOptions:  cfg.MountOptions,
			WorldWritable: cfg.WorldWritable,
		})

	app := NewApp(cfg,
		deps.NewHandler(runner),
		scan.NewHandler(runner),
		exports.NewHandler(runner),
		mountHandler,
		tracker,
		nil,
	)

	return app, tracker
}

func baseConfig() *config.Config {
	return &config.Config{
		Subnet:       "10.0.0.0/24",
		Port:         2049,
		WaitMode:     config.WaitModePoll,
		PollInterval: config.DefaultPollInterval,
		PollTimeout:  0,
		MountBase:    "/mnt/nfs",
		MountOptions: config.DefaultMountOptions,
		MountPolicy:  config.PolicyAll,
	}
}

// TestLaunch_MountsAllDiscoveredExports runs the complete workflow against
// two discovered hosts and verifies every non-root export gets mounted.
func TestLaunch_MountsAllDiscoveredExports(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{
		scanOut: "# Nmap 7.94 scan initiated\n" +
			"Host: 10.0.0.5 ()\tPorts: 2049/open/tcp//nfs///\n" +
			"Host: 10.0.0.6 ()\tPorts: 2049/open/tcp//nfs///\n",
		exportOuts: map[string]string{
			"10.0.0.5": "Export list for 10.0.0.5:\n/data *\n/ *\n",
			"10.0.0.6": "Export list for 10.0.0.6:\n/backup 10.0.0.0/24\n",
		},
	}

	app, tracker := newTestApp(runner, baseConfig())

	require.NoError(t, app.Launch(t.Context()))

	assert.ElementsMatch(t, []string{"10.0.0.5:/data", "10.0.0.6:/backup"}, runner.mountCalls)

	progress := tracker.Progress()
	assert.Equal(t, status.PhaseDone, progress.Phase)
	assert.Equal(t, 2, progress.Hosts)
	assert.Equal(t, 2, progress.Exports)
	assert.Equal(t, 2, progress.MountsOK)
	assert.Equal(t, 0, progress.MountsFailed)
}

// TestLaunch_FirstPolicyStopsEarly verifies that the first-success policy
// never touches the second host's export.
func TestLaunch_FirstPolicyStopsEarly(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{
		scanOut: "Host: 10.0.0.5 ()\tPorts: 2049/open/tcp//nfs///\n" +
			"Host: 10.0.0.6 ()\tPorts: 2049/open/tcp//nfs///\n",
		exportOuts: map[string]string{
			"10.0.0.5": "Export list for 10.0.0.5:\n/data *\n",
			"10.0.0.6": "Export list for 10.0.0.6:\n/backup *\n",
		},
	}

	cfg := baseConfig()
	cfg.MountPolicy = config.PolicyFirst

	app, _ := newTestApp(runner, cfg)

	require.NoError(t, app.Launch(t.Context()))
	assert.Equal(t, []string{"10.0.0.5:/data"}, runner.mountCalls)
}

// TestLaunch_NoServersFails verifies the run fails overall when the subnet
// holds no reachable NFS servers.
func TestLaunch_NoServersFails(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{scanOut: "# Nmap done: 256 IP addresses scanned\n"}

	app, tracker := newTestApp(runner, baseConfig())

	err := app.Launch(t.Context())
	require.Error(t, err)
	assert.ErrorIs(t, err, scan.ErrNoServersFound)
	assert.Equal(t, status.PhaseFailed, tracker.Progress().Phase)
}

// TestLaunch_OnlyRootExportsFails verifies the run fails overall when the
// discovered servers export nothing mountable.
func TestLaunch_OnlyRootExportsFails(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{
		scanOut: "Host: 10.0.0.5 ()\tPorts: 2049/open/tcp//nfs///\n",
		exportOuts: map[string]string{
			"10.0.0.5": "Export list for 10.0.0.5:\n/ *\n",
		},
	}

	app, _ := newTestApp(runner, baseConfig())

	err := app.Launch(t.Context())
	require.Error(t, err)
	assert.ErrorIs(t, err, mounter.ErrNoMountableExports)
}
