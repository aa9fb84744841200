package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/grovetools/scribe/cli"
	"github.com/grovetools/scribe/pkg/commands"
	"github.com/grovetools/scribe/pkg/daemon"
	"github.com/grovetools/scribe/pkg/paths"
	"github.com/grovetools/scribe/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestInvokeLocal(t *testing.T) {
	testutil.SetupConfigHome(t)

	_, err := run(t, "", "invoke", "--local", commands.CmdSetCurrentFolderPath, `{"path":"/notes"}`)
	require.NoError(t, err)

	out, err := run(t, "", "invoke", "--local", commands.CmdGetCurrentFolderPath)
	require.NoError(t, err)
	assert.Equal(t, "\"/notes\"\n", out)
}

func TestInvokeReadsStdin(t *testing.T) {
	testutil.SetupConfigHome(t)

	_, err := run(t, `{"settings":{"fontSize":16}}`, "invoke", "--local", commands.CmdSaveSettings)
	require.NoError(t, err)

	out, err := run(t, "", "invoke", "--local", "--json", commands.CmdGetSettings)
	require.NoError(t, err)
	var resp commands.Response
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.JSONEq(t, `{"fontSize":16}`, string(resp.Result))
}

func TestInvokeCommandFailure(t *testing.T) {
	testutil.SetupConfigHome(t)

	_, err := run(t, "", "invoke", "--local", commands.CmdAddRecentFile, `{}`)
	var cmdErr *daemon.CommandError
	require.ErrorAs(t, err, &cmdErr)
	assert.Contains(t, cmdErr.Message, "file")

	_, err = run(t, "", "invoke", "--local", "--json", "nope")
	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.Code)
}

func TestInvokeRejectsInvalidJSON(t *testing.T) {
	testutil.SetupConfigHome(t)

	_, err := run(t, "", "invoke", "--local", commands.CmdSaveSettings, `{not json`)
	require.Error(t, err)
	assert.True(t, cli.IsUsageError(err))
}

func TestCommandsListing(t *testing.T) {
	testutil.SetupConfigHome(t)

	out, err := run(t, "", "commands", "--local", "--json")
	require.NoError(t, err)
	var infos []commands.Info
	require.NoError(t, json.Unmarshal([]byte(out), &infos))
	assert.NotEmpty(t, infos)
}

func TestPaths(t *testing.T) {
	home := testutil.SetupConfigHome(t)

	out, err := run(t, "", "paths")
	require.NoError(t, err)
	var p PathsOutput
	require.NoError(t, json.Unmarshal([]byte(out), &p))
	assert.Equal(t, filepath.Join(home, "config", "scribe"), p.ConfigDir)
	assert.Equal(t, filepath.Join(p.ConfigDir, "settings.json"), p.SettingsFile)
	assert.Equal(t, paths.SocketPath(), p.Socket)
}

func TestConfigFormats(t *testing.T) {
	testutil.SetupConfigHome(t)
	require.NoError(t, os.MkdirAll(paths.ConfigDir(), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(paths.ConfigDir(), "scribe.yml"), []byte("version: \"1.0\"\nfiles:\n  max_depth: 3\n"), 0644))

	out, err := run(t, "", "config")
	require.NoError(t, err)
	assert.Contains(t, out, "# Source: ")
	assert.Contains(t, out, "max_depth: 3")

	out, err = run(t, "", "config", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"max_depth": 3`)

	_, err = run(t, "", "config", "--format", "xml")
	assert.True(t, cli.IsUsageError(err))
}

func TestSchemaSettings(t *testing.T) {
	testutil.SetupConfigHome(t)

	out, err := run(t, "", "schema", "settings")
	require.NoError(t, err)
	assert.Contains(t, out, "fontSize")
}

func TestParseLogFileName(t *testing.T) {
	component, day, ok := parseLogFileName("scribed-2026-10-17.log")
	require.True(t, ok)
	assert.Equal(t, "scribed", component)
	assert.Equal(t, 17, day.Day())

	component, _, ok = parseLogFileName("upload-s3-2026-01-02.log")
	require.True(t, ok)
	assert.Equal(t, "upload-s3", component)

	for _, name := range []string{"scribed.log", "notes.txt", "-2026-10-17.log", "x-2026-13-40.log"} {
		_, _, ok := parseLogFileName(name)
		assert.False(t, ok, name)
	}
}

func TestLatestLogFilesAndTail(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string]string{
		"scribed-2026-10-16.log":  "old\n",
		"scribed-2026-10-17.log":  "a\nb\nc\n",
		"commands-2026-10-15.log": "x\n",
		"README":                  "skip",
	})

	files, err := latestLogFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		"scribed":  filepath.Join(dir, "scribed-2026-10-17.log"),
		"commands": filepath.Join(dir, "commands-2026-10-15.log"),
	}, files)

	lines, err := lastLines(files["scribed"], 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, lines)

	lines, err = lastLines(files["scribed"], -1)
	require.NoError(t, err)
	assert.Len(t, lines, 3)
}

func TestLogFilesFollowMissingComponent(t *testing.T) {
	testutil.SetupConfigHome(t)

	files, err := logFiles(cli.CommandOptions{}, []string{"scribed"}, true)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(paths.LogDir(), "scribed-"+time.Now().Format("2006-01-02")+".log"), files["scribed"])

	files, err = logFiles(cli.CommandOptions{}, []string{"scribed"}, false)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestPrintLogLine(t *testing.T) {
	var buf bytes.Buffer
	printLogLine(&buf, TailedLine{Component: "scribed", Line: `{"level":"info","msg":"Daemon listening","time":"2026-10-17T10:00:00Z","addr":"/tmp/s.sock"}`}, true)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	assert.Equal(t, "scribed", m["component"])
	assert.Equal(t, "Daemon listening", m["msg"])

	buf.Reset()
	printLogLine(&buf, TailedLine{Component: "scribed", Line: "2026-10-17 10:00:00 [INFO] plain"}, true)
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	assert.Equal(t, "2026-10-17 10:00:00 [INFO] plain", m["raw_line"])

	buf.Reset()
	printLogLine(&buf, TailedLine{Component: "scribed", Line: `{"level":"info","msg":"hello","time":"2026-10-17T10:00:00Z"}`}, false)
	assert.Contains(t, buf.String(), "hello")
	assert.Contains(t, buf.String(), "INFO")
}

func TestServeStatusStopped(t *testing.T) {
	testutil.SetupConfigHome(t)

	out, err := run(t, "", "serve", "status")
	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.Code)
	assert.Contains(t, out, "Stopped")

	out, _ = run(t, "", "serve", "status", "--json")
	var status DaemonStatus
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.False(t, status.Running)
	assert.Equal(t, paths.SocketPath(), status.Socket)

	out, err = run(t, "", "serve", "stop")
	require.NoError(t, err)
	assert.Contains(t, out, "not running")
}
