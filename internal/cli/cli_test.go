package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Ning0612/syncprobe/internal/domain"
	"github.com/Ning0612/syncprobe/internal/state"
	"github.com/Ning0612/syncprobe/internal/testutil"
)

type env struct {
	localRoot  string
	remoteRoot string
	dataDir    string
	configPath string
}

// newEnv writes a dir-provider config with one synced, one local-only and
// one cloud-only file
func newEnv(t *testing.T) *env {
	t.Helper()

	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))

	e := &env{
		localRoot:  t.TempDir(),
		remoteRoot: t.TempDir(),
		dataDir:    t.TempDir(),
	}

	testutil.CreateTestFile(t, e.localRoot, "synced.txt", []byte("same bytes"))
	testutil.CreateTestFile(t, e.remoteRoot, "synced.txt", []byte("same bytes"))
	testutil.CreateTestFile(t, e.localRoot, "draft.txt", []byte("not uploaded yet"))
	testutil.CreateTestFile(t, e.remoteRoot, "cloud-only.txt", []byte("remote"))

	e.configPath = e.writeConfig(t, "dir")
	return e
}

func (e *env) writeConfig(t *testing.T, providerType string) string {
	t.Helper()

	content := fmt.Sprintf(`provider:
  type: %s
  local_root: %q
  remote_root: %q
logging:
  level: error
journal:
  data_dir: %q
`, providerType, e.localRoot, e.remoteRoot, e.dataDir)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func (e *env) path(name string) string {
	return filepath.Join(e.localRoot, name)
}

// execute runs the command tree with args and captures stdout
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(args)

	err := root.Execute()
	return stdout.String(), err
}

func TestStatus_Text(t *testing.T) {
	e := newEnv(t)

	out, err := execute(t, "--config", e.configPath, "status", e.path("synced.txt"), e.path("draft.txt"))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "STATUS"))
	assert.Contains(t, lines[1], "current")
	assert.Contains(t, lines[1], e.path("synced.txt"))
	assert.Contains(t, lines[2], "local_not_uploaded")
}

func TestStatus_JSON(t *testing.T) {
	e := newEnv(t)

	out, err := execute(t, "--config", e.configPath, "status", "-o", "json",
		e.path("synced.txt"), e.path("cloud-only.txt"), e.path("missing.txt"))
	require.NoError(t, err)

	var reports []domain.StatusReport
	require.NoError(t, json.Unmarshal([]byte(out), &reports))
	require.Len(t, reports, 3)

	assert.Equal(t, domain.StatusCurrent, reports[0].Status)
	assert.True(t, reports[0].FullyDownloaded)
	assert.Equal(t, "dir", reports[0].Provider)

	assert.Equal(t, domain.StatusNotDownloaded, reports[1].Status)
	assert.False(t, reports[1].FullyDownloaded)

	assert.Equal(t, domain.StatusNotFound, reports[2].Status)
}

func TestStatus_YAML(t *testing.T) {
	e := newEnv(t)

	out, err := execute(t, "--config", e.configPath, "status", "-o", "yaml", e.path("draft.txt"))
	require.NoError(t, err)

	var reports []map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &reports))
	require.Len(t, reports, 1)
	assert.Equal(t, "local_not_uploaded", reports[0]["status"])
	assert.Equal(t, e.path("draft.txt"), reports[0]["path"])
}

func TestStatus_FlagValidation(t *testing.T) {
	e := newEnv(t)

	tests := []struct {
		name string
		args []string
	}{
		{"bad output", []string{"status", "-o", "xml", e.path("synced.txt")}},
		{"bad parallel", []string{"status", "--parallel", "0", e.path("synced.txt")}},
		{"no paths", []string{"status"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, append([]string{"--config", e.configPath}, tt.args...)...)
			assert.Error(t, err)
		})
	}
}

func TestStatus_FailUndeterminedPassesDefiniteResults(t *testing.T) {
	e := newEnv(t)

	_, err := execute(t, "--config", e.configPath, "status", "--fail-undetermined",
		e.path("synced.txt"), e.path("missing.txt"))
	assert.NoError(t, err)
}

func TestUndeterminedError(t *testing.T) {
	assert.NoError(t, undeterminedError([]domain.StatusReport{
		{Path: "/a", Status: domain.StatusCurrent},
		{Path: "/b", Status: domain.StatusNotFound},
	}))

	err := undeterminedError([]domain.StatusReport{
		{Path: "/a", Status: domain.StatusCurrent},
		{Path: "/b", Status: domain.StatusUnknown},
		{Path: "/c", Status: domain.StatusError},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAmbiguous)
	assert.Equal(t, "/b, /c: sync state undetermined", err.Error())

	err = undeterminedError([]domain.StatusReport{{Path: "/c", Status: domain.StatusError}})
	assert.ErrorIs(t, err, domain.ErrProbeFailure)
	assert.Contains(t, err.Error(), "sync state undetermined")
}

func TestWriteReports_TextFlagsUndetermined(t *testing.T) {
	reports := []domain.StatusReport{
		{Path: "/c/ok.txt", Status: domain.StatusCurrent, FullyDownloaded: true},
		{Path: "/c/odd.txt", Status: domain.StatusUnknown},
		{Path: "/c/bad.txt", Status: domain.StatusError, Error: "permission denied"},
	}

	var buf bytes.Buffer
	require.NoError(t, writeReports(&buf, OutputText, reports))

	out := buf.String()
	assert.Contains(t, out, "/c/odd.txt: sync state undetermined (unknown)\n")
	assert.Contains(t, out, "/c/bad.txt: sync state undetermined (error): permission denied\n")
	assert.NotContains(t, out, "/c/ok.txt: ")
}

func TestStatus_RecordAndHistory(t *testing.T) {
	e := newEnv(t)

	_, err := execute(t, "--config", e.configPath, "status", "--record", e.path("synced.txt"))
	require.NoError(t, err)
	_, err = execute(t, "--config", e.configPath, "status", "--record", e.path("draft.txt"))
	require.NoError(t, err)

	out, err := execute(t, "--config", e.configPath, "history", "-o", "json", e.path("synced.txt"))
	require.NoError(t, err)

	var obs []state.Observation
	require.NoError(t, json.Unmarshal([]byte(out), &obs))
	require.Len(t, obs, 1)
	assert.Equal(t, domain.StatusCurrent, obs[0].Status)
	assert.Equal(t, "dir", obs[0].Provider)
	assert.NotEmpty(t, obs[0].ID)

	out, err = execute(t, "--config", e.configPath, "history", "--limit", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "local_not_uploaded")
	assert.Contains(t, out, "current")
}

func TestHistory_Empty(t *testing.T) {
	e := newEnv(t)

	out, err := execute(t, "--config", e.configPath, "history", e.path("synced.txt"))
	require.NoError(t, err)
	assert.Equal(t, "No observations recorded\n", out)

	out, err = execute(t, "--config", e.configPath, "history", "-o", "json")
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(out))

	_, err = execute(t, "--config", e.configPath, "history", "--limit", "0")
	assert.Error(t, err)
}

func TestDownloaded(t *testing.T) {
	e := newEnv(t)

	out, err := execute(t, "--config", e.configPath, "downloaded", e.path("synced.txt"))
	require.NoError(t, err)
	assert.Equal(t, "true\n", out)

	out, err = execute(t, "--config", e.configPath, "downloaded", e.path("cloud-only.txt"))
	require.NoError(t, err)
	assert.Equal(t, "false\n", out)

	out, err = execute(t, "--config", e.configPath, "downloaded", "--exit-code", e.path("cloud-only.txt"))
	assert.Equal(t, "false\n", out)

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 1, exitErr.Code)
}

func TestAvailable(t *testing.T) {
	e := newEnv(t)

	out, err := execute(t, "--config", e.configPath, "available")
	require.NoError(t, err)
	assert.Equal(t, "dir: true\n", out)

	none := e.writeConfig(t, "none")
	out, err = execute(t, "--config", none, "available", "--exit-code")
	assert.Equal(t, "none: false\n", out)

	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 1, exitErr.Code)
}

func TestContainerPath(t *testing.T) {
	e := newEnv(t)

	out, err := execute(t, "--config", e.configPath, "container-path")
	require.NoError(t, err)
	assert.Equal(t, e.localRoot+"\n", out)

	none := e.writeConfig(t, "none")
	_, err = execute(t, "--config", none, "container-path")
	assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
}

func TestGlobalFlags(t *testing.T) {
	e := newEnv(t)

	_, err := execute(t, "--config", e.configPath, "--log-level", "loud", "available")
	assert.ErrorIs(t, err, domain.ErrConfigInvalid)

	_, err = execute(t, "--config", e.configPath, "--log-format", "xml", "available")
	assert.ErrorIs(t, err, domain.ErrConfigInvalid)

	_, err = execute(t, "--config", filepath.Join(t.TempDir(), "absent.yaml"), "available")
	assert.ErrorIs(t, err, domain.ErrConfigNotFound)

	// debug logs go to stderr, never into the result on stdout
	out, err := execute(t, "--config", e.configPath, "-v", "--log-format", "json", "downloaded", e.path("synced.txt"))
	require.NoError(t, err)
	assert.Equal(t, "true\n", out)
}

func TestAuthGDrive_RequiresCredentials(t *testing.T) {
	e := newEnv(t)

	_, err := execute(t, "--config", e.configPath, "auth", "gdrive")
	assert.ErrorIs(t, err, domain.ErrConfigInvalid)
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, Version+"\n", out)

	out, err = execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "syncprobe "+Version)
	assert.Contains(t, out, "Go version:")
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		size *int64
		want string
	}{
		{nil, "-"},
		{domain.Ptr[int64](0), "0 B"},
		{domain.Ptr[int64](1023), "1023 B"},
		{domain.Ptr[int64](1024), "1.0 KiB"},
		{domain.Ptr[int64](1536), "1.5 KiB"},
		{domain.Ptr[int64](5 * 1024 * 1024), "5.0 MiB"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, formatSize(tt.size))
		})
	}
}
