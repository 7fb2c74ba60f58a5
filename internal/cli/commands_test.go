package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCLI executes the root command with args and returns stdout and stderr.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

// seedUsers creates a users table with two rows through the CLI.
func seedUsers(t *testing.T) string {
	t.Helper()
	db := filepath.Join(t.TempDir(), "cli.db")

	_, _, err := runCLI(t, "exec", "--db", db, "CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT, score REAL)")
	require.NoError(t, err)

	out, _, err := runCLI(t, "insert", "--db", db, "INSERT INTO users(name, score) VALUES (?, ?)", "ann", "2.5")
	require.NoError(t, err)
	assert.Equal(t, "1\n", out)

	out, _, err = runCLI(t, "insert", "--db", db, "INSERT INTO users(name, score) VALUES (?, ?)", "bob", "null")
	require.NoError(t, err)
	assert.Equal(t, "2\n", out)

	return db
}

func TestQueryCommand_TextGolden(t *testing.T) {
	db := seedUsers(t)

	out, _, err := runCLI(t, "query", "--db", db, "SELECT id, name, score FROM users ORDER BY id")
	require.NoError(t, err)
	newGoldie(t).Assert(t, "query_text", []byte(out))
}

func TestQueryCommand_JSON(t *testing.T) {
	db := seedUsers(t)

	out, _, err := runCLI(t, "query", "--db", db, "--format", "json", "SELECT name, score FROM users WHERE id = ?", "2")
	require.NoError(t, err)

	var resp struct {
		Status string           `json:"status"`
		OpID   string           `json:"op_id"`
		Data   []map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.NotEmpty(t, resp.OpID)
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "bob", resp.Data[0]["name"])
	assert.Nil(t, resp.Data[0]["score"])
}

func TestQueryCommand_EmptyJSONIsList(t *testing.T) {
	db := seedUsers(t)

	out, _, err := runCLI(t, "query", "--db", db, "--format", "json", "SELECT * FROM users WHERE id < 0")
	require.NoError(t, err)
	assert.Contains(t, out, `"data":[]`)
}

func TestQueryCommand_MissingTableGolden(t *testing.T) {
	db := seedUsers(t)

	out, _, err := runCLI(t, "query", "--db", db, "SELECT * FROM missing")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	newGoldie(t).Assert(t, "query_missing_table", []byte(out))
}

func TestRunCommand(t *testing.T) {
	db := seedUsers(t)

	out, _, err := runCLI(t, "run", "--db", db, "UPDATE users SET score = ?", "1")
	require.NoError(t, err)
	assert.Equal(t, "2\n", out)
}

func TestInsertCommand_BindFailure(t *testing.T) {
	db := seedUsers(t)

	out, _, err := runCLI(t, "insert", "--db", db, "INSERT INTO users(name) VALUES (?)", "a", "b")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "Error [BIND_FAILED]")
}

func TestScalarCommand(t *testing.T) {
	db := seedUsers(t)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"count", []string{"SELECT count(*) FROM users"}, "2\n"},
		{"no row yields -1", []string{"SELECT id FROM users WHERE id = ?", "99"}, "-1\n"},
		{"null yields custom default", []string{"--default", "0", "SELECT score FROM users WHERE id = 2"}, "0\n"},
		{"string", []string{"--type", "string", "SELECT name FROM users WHERE id = 1"}, "ann\n"},
		{"string default", []string{"--type", "string", "--default", "none", "SELECT name FROM users WHERE id = 9"}, "none\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"scalar", "--db", db}, tt.args...)
			out, _, err := runCLI(t, args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestScalarCommand_InvalidType(t *testing.T) {
	db := seedUsers(t)

	_, _, err := runCLI(t, "scalar", "--db", db, "--type", "real", "SELECT 1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestVersionCommand(t *testing.T) {
	db := filepath.Join(t.TempDir(), "versioned.db")

	out, _, err := runCLI(t, "version", "--db", db, "--schema-version", "3")
	require.NoError(t, err)
	assert.Equal(t, "3\n", out)

	// A lower target leaves the persisted version alone.
	out, _, err = runCLI(t, "version", "--db", db)
	require.NoError(t, err)
	assert.Equal(t, "3\n", out)
}

func TestVersionCommand_VerboseLogsUpgrade(t *testing.T) {
	db := filepath.Join(t.TempDir(), "upgrade.db")

	_, _, err := runCLI(t, "version", "--db", db, "--schema-version", "1")
	require.NoError(t, err)

	out, errOut, err := runCLI(t, "version", "--db", db, "--schema-version", "4", "--verbose")
	require.NoError(t, err)
	assert.Equal(t, "4\n", out)
	assert.Contains(t, errOut, "schema version 1 -> 4")
}

func TestConfigFile(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "configured.db")
	cfgPath := filepath.Join(dir, "sqlq.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("path: "+db+"\nschema_version: 7\nformat: json\n"), 0o600))

	out, _, err := runCLI(t, "version", "--config", cfgPath)
	require.NoError(t, err)
	assert.Contains(t, out, `"data":7`)

	// Flags override the file.
	out, _, err = runCLI(t, "version", "--config", cfgPath, "--format", "text")
	require.NoError(t, err)
	assert.Equal(t, "7\n", out)
}

func TestConfigFile_Invalid(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "sqlq.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("path: a.db\nschema_version: -2\n"), 0o600))

	_, _, err := runCLI(t, "version", "--config", cfgPath)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestMissingDatabase(t *testing.T) {
	_, _, err := runCLI(t, "query", "SELECT 1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestInvalidFormat(t *testing.T) {
	_, _, err := runCLI(t, "query", "--db", "x.db", "--format", "xml", "SELECT 1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
}

func TestInvalidBlobArgument(t *testing.T) {
	_, _, err := runCLI(t, "exec", "--db", "x.db", "SELECT ?", "x'zz'")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestDirectoryDatabase_ReportsLifecycleError(t *testing.T) {
	dir := t.TempDir()

	out, errOut, err := runCLI(t, "query", "--db", dir, "--verbose", "SELECT 1")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "Error [OPEN_FAILED]")
	assert.Contains(t, out, "is a directory")
	assert.Contains(t, errOut, "schema lifecycle failed")
}
