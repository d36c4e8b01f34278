package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "ticketwar", cmd.Use)
	assert.Contains(t, cmd.Long, "reserve")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"dates", "config", "play", "simulate", "journal", "test"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	for _, name := range []string{"config", "variant"} {
		flag := cmd.PersistentFlags().Lookup(name)
		require.NotNil(t, flag, name)
		assert.Equal(t, "", flag.DefValue)
	}
}

func TestSimulateCommandFlags(t *testing.T) {
	cmd := NewRootCommand()
	simCmd, _, err := cmd.Find([]string{"simulate"})
	require.NoError(t, err)

	for flag, def := range map[string]string{
		"sessions":     "100",
		"seats":        "2",
		"max-attempts": "50",
		"seed":         "0",
		"workers":      "1",
		"journal":      "",
	} {
		f := simCmd.Flags().Lookup(flag)
		require.NotNil(t, f, flag)
		assert.Equal(t, def, f.DefValue, flag)
	}
}

func TestJournalCommandRequiresDB(t *testing.T) {
	_, err := execute(t, "journal")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
	assert.Contains(t, err.Error(), "db")
}

func TestInvalidFormat(t *testing.T) {
	_, err := execute(t, "dates", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `invalid format "xml"`)
}

func TestUnknownVariant(t *testing.T) {
	_, err := execute(t, "dates", "--variant", "brutal")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "unknown variant")
}

func TestExecute_Success(t *testing.T) {
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	code := Execute([]string{"dates"}, stdout, stderr)
	assert.Equal(t, ExitSuccess, code)
	assert.Contains(t, stdout.String(), "2025-12-23  23, Dec")
	assert.Empty(t, stderr.String())
}

func TestExecute_TextError(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.db")
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}

	code := Execute([]string{"journal", "--db", missing}, stdout, stderr)
	assert.Equal(t, ExitCommandError, code)
	assert.Empty(t, stdout.String())
	assert.Equal(t, "Error [E_COMMAND]: journal not found: "+missing+"\n", stderr.String())
}

func TestExecute_JSONError(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.db")
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}

	code := Execute([]string{"journal", "--db", missing, "--format", "json"}, stdout, stderr)
	assert.Equal(t, ExitCommandError, code)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(stderr.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeCommand, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, "journal not found")
}

func TestExecute_InvalidFormatFallsBackToText(t *testing.T) {
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	code := Execute([]string{"dates", "--format", "xml"}, stdout, stderr)
	assert.Equal(t, ExitFailure, code)
	assert.Contains(t, stderr.String(), "Error [E_FAILED]: invalid format \"xml\"")
}
