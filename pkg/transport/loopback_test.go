package transport

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetscout/fleetscout/pkg/target"
)

// fixtureLoopback backs every file-sourced command with deterministic
// fixtures so tests do not depend on the host's real configuration.
func fixtureLoopback(t *testing.T) *Loopback {
	t.Helper()
	dir := t.TempDir()

	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		return path
	}

	procRoot := filepath.Join(dir, "proc")
	for pid, comm := range map[string]string{"101": "sshd", "202": "cron"} {
		require.NoError(t, os.MkdirAll(filepath.Join(procRoot, pid), 0o750))
		require.NoError(t, os.WriteFile(filepath.Join(procRoot, pid, "comm"), []byte(comm+"\n"), 0o600))
	}
	// Non-numeric entries must be ignored by the process scan.
	require.NoError(t, os.MkdirAll(filepath.Join(procRoot, "self"), 0o750))

	return &Loopback{
		MemInfoPath:   write("meminfo", "MemTotal:       16000000 kB\nMemAvailable:   8000000 kB\n"),
		LoadAvgPath:   write("loadavg", "0.50 0.40 0.30 1/234 5678\n"),
		OSReleasePath: write("os-release", "NAME=\"Ubuntu\"\nVERSION_ID=\"24.04\"\nID=ubuntu\n"),
		UptimePath:    write("uptime", "12345.67 23456.78\n"),
		KernelPath:    write("osrelease", "6.8.0-test\n"),
		MountsPath:    write("mounts", "rootfs / rootfs rw 0 0\nproc /proc proc rw 0 0\n"),
		ProcRootPath:  procRoot,
	}
}

func query(t *testing.T, l *Loopback, cmd string, args ...string) *Result {
	t.Helper()
	res, err := l.Query(context.Background(), target.Target{ID: "localhost"}, target.AuthContext{},
		Query{Command: cmd, Args: args})
	require.NoError(t, err, cmd)
	return res
}

func TestLoopbackOSCommands(t *testing.T) {
	l := fixtureLoopback(t)

	info := query(t, l, "os.info")
	assert.Equal(t, "Ubuntu", info.Fields["name"])
	assert.Equal(t, "24.04", info.Fields["version_id"])
	assert.Equal(t, "6.8.0-test", info.Fields["kernel"])

	release := query(t, l, "os.release")
	assert.Contains(t, release.Raw, `NAME="Ubuntu"`, "legacy tier gets the raw key-value dump")
	assert.Empty(t, release.Fields)

	kernel := query(t, l, "os.kernel")
	assert.Equal(t, "6.8.0-test", kernel.Raw)
}

func TestLoopbackUptimeCommands(t *testing.T) {
	l := fixtureLoopback(t)

	structured := query(t, l, "system.uptime")
	assert.Equal(t, "12345.67", structured.Fields["uptime_seconds"])
	assert.NotEmpty(t, structured.Fields["boot_time"])

	raw := query(t, l, "system.uptime.raw")
	assert.Equal(t, "12345.67 23456.78", raw.Raw)
}

func TestLoopbackStorageCommands(t *testing.T) {
	l := fixtureLoopback(t)

	vol := query(t, l, "storage.volumes")
	assert.Equal(t, "/", vol.Fields["mount"])
	assert.NotEqual(t, "0", vol.Fields["total_kb"])

	df := query(t, l, "storage.df")
	require.NotEmpty(t, df.Raw)
	cols := strings.Fields(strings.Split(df.Raw, "\n")[0])
	require.Len(t, cols, 3, "df rows are mount total_kb free_kb")
	assert.Equal(t, "/", cols[0])
}

func TestLoopbackServiceCommands(t *testing.T) {
	l := fixtureLoopback(t)

	state := query(t, l, "services.state", "sshd", "cron", "ghost")
	assert.Equal(t, "running", state.Fields["sshd"])
	assert.Equal(t, "running", state.Fields["cron"])
	assert.Equal(t, "stopped", state.Fields["ghost"])

	list := query(t, l, "services.list")
	assert.Contains(t, list.Raw, "sshd running")
	assert.Contains(t, list.Raw, "cron running")
}

func TestLoopbackNetCommands(t *testing.T) {
	l := fixtureLoopback(t)

	ifaces := query(t, l, "net.interfaces")
	assert.NotEmpty(t, ifaces.Fields)

	cfg := query(t, l, "net.config")
	assert.NotEmpty(t, cfg.Raw)
}

// deadlineSpy records whether the wrapped transport saw a context deadline.
type deadlineSpy struct {
	Mock
	resolveDeadline bool
	probeDeadline   bool
	queryDeadline   bool
}

func (s *deadlineSpy) Resolve(ctx context.Context, host string) (string, error) {
	_, s.resolveDeadline = ctx.Deadline()
	return s.Mock.Resolve(ctx, host)
}

func (s *deadlineSpy) Probe(ctx context.Context, addr string) error {
	_, s.probeDeadline = ctx.Deadline()
	return s.Mock.Probe(ctx, addr)
}

func (s *deadlineSpy) Query(ctx context.Context, tgt target.Target, auth target.AuthContext, q Query) (*Result, error) {
	_, s.queryDeadline = ctx.Deadline()
	return s.Mock.Query(ctx, tgt, auth, q)
}

func TestReliabilityWrapperAppliesDefaultDeadlines(t *testing.T) {
	spy := &deadlineSpy{}
	w := NewReliabilityWrapper(spy, DefaultReliabilityOptions())
	ctx := context.Background()

	_, err := w.Resolve(ctx, "host-1")
	require.NoError(t, err)
	_ = w.Probe(ctx, "host-1")
	_, err = w.Query(ctx, target.Target{ID: "host-1"}, target.AuthContext{}, Query{Command: "os.info"})
	require.NoError(t, err)

	assert.True(t, spy.resolveDeadline, "resolve gets a default deadline")
	assert.True(t, spy.probeDeadline, "probe gets a default deadline")
	assert.True(t, spy.queryDeadline, "query gets a default deadline")
}

func TestReliabilityWrapperKeepsCallerDeadline(t *testing.T) {
	spy := &deadlineSpy{}
	w := NewReliabilityWrapper(spy, DefaultReliabilityOptions())

	deadline := time.Now().Add(time.Minute)
	ctx, cancel := context.WithDeadline(context.Background(), deadline)
	defer cancel()

	_, err := w.Query(ctx, target.Target{ID: "host-1"}, target.AuthContext{}, Query{Command: "os.info"})
	require.NoError(t, err)
	assert.True(t, spy.queryDeadline)
}
