package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/telebox/pkg/record"
)

func newSetCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{}
	cmd.Flags().StringVar(&setListType, "list", "", "")
	cmd.Flags().StringVar(&setLabel, "label", "", "")
	cmd.Flags().BoolVar(&setLiked, "liked", false, "")
	require.NoError(t, cmd.Flags().Parse(args))
	return cmd
}

func TestBuildUpdate(t *testing.T) {
	u, err := buildUpdate(newSetCmd(t, "--list", "White", "--liked=false"))
	require.NoError(t, err)
	require.NotNil(t, u.ListType)
	assert.Equal(t, record.ListWhite, *u.ListType)
	require.NotNil(t, u.Liked)
	assert.False(t, *u.Liked)
	assert.Nil(t, u.Label, "unset flags leave fields alone")
}

func TestBuildUpdateErrors(t *testing.T) {
	_, err := buildUpdate(newSetCmd(t))
	assert.Error(t, err, "no flags")

	_, err = buildUpdate(newSetCmd(t, "--list", "white"))
	assert.Error(t, err, "list types are case-sensitive")

	_, err = buildUpdate(newSetCmd(t, "--label", ""))
	assert.Error(t, err, "empty label")
}

func TestRecordTable(t *testing.T) {
	table := recordTable{{
		Handle: "BQAD.png",
		Record: &record.FileRecord{
			ListType:  record.ListBlock,
			Label:     record.LabelAdult,
			TimeStamp: 0,
			FileName:  "cat.png",
			FileSize:  2048,
		},
	}}

	assert.Len(t, table.Headers(), 7)
	require.Len(t, table.Rows(), 1)
	assert.Equal(t, []string{"BQAD.png", "Block", "adult", "false", "2048", "cat.png", "1970-01-01T00:00:00Z"}, table.Rows()[0])
}

func TestStatusPairs(t *testing.T) {
	stopped := GatewayStatus{Port: 8080, Message: "Gateway is not running"}
	assert.Equal(t, [][2]string{
		{"Status", "stopped"},
		{"Port", "8080"},
		{"Message", "Gateway is not running"},
	}, stopped.pairs())

	running := GatewayStatus{Running: true, Healthy: true, Ready: true, PID: 42, Port: 8080, StoreType: "badger", StoreStatus: "healthy", Message: "ok"}
	pairs := running.pairs()
	assert.Equal(t, [2]string{"Status", "running"}, pairs[0])
	assert.Contains(t, pairs, [2]string{"PID", "42"})
	assert.Contains(t, pairs, [2]string{"Store", "badger (healthy)"})

	degraded := GatewayStatus{Running: true, Healthy: true}
	assert.Equal(t, [2]string{"Status", "running (degraded)"}, degraded.pairs()[0])
}

func TestReadPid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "telebox.pid")

	assert.Zero(t, readPid(path), "missing file")

	require.NoError(t, os.WriteFile(path, []byte("1234\n"), 0644))
	assert.Equal(t, 1234, readPid(path))

	require.NoError(t, os.WriteFile(path, []byte("garbage"), 0644))
	assert.Zero(t, readPid(path))
}

func TestDefaultStatePaths(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/var/state")
	assert.Equal(t, "/var/state/telebox", GetDefaultStateDir())
	assert.Equal(t, "/var/state/telebox/telebox.pid", GetDefaultPidFile())
	assert.Equal(t, "/var/state/telebox/telebox.log", GetDefaultLogFile())
}

func TestVersionCommand(t *testing.T) {
	Version, Commit, Date = "1.2.3", "abc", "today"
	t.Cleanup(func() { Version, Commit, Date = "dev", "none", "unknown" })

	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	versionCmd.Run(versionCmd, nil)
	assert.Equal(t, "telebox 1.2.3 (commit: abc, built: today)\n", buf.String())
}
