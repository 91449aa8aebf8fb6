package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/tabledog/internal/config"
	"github.com/roach88/tabledog/internal/engine"
)

func writeConfig(t *testing.T, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
	return path
}

func TestValidateCommandAcceptsGoodConfig(t *testing.T) {
	path := writeConfig(t, `{
		"fn": "download",
		"args": {
			"from": {"stripe": {"secret_key": "sk_test_x"}},
			"to": {"sqlite": {"file": "/tmp/mirror.sqlite"}}
		}
	}`)

	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs([]string{"validate", "--config", path})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "config ok")
}

func TestValidateCommandRejectsBadConfig(t *testing.T) {
	path := writeConfig(t, `{"fn": "bogus"}`)

	cmd := NewRootCommand()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"validate", "--config", path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, 1, engine.ExitCode(err))
}

func TestDownloadCommandBadConfigIsExitCode1(t *testing.T) {
	path := writeConfig(t, `{"fn": "download", "args": {"from": {}, "to": {}}}`)

	cmd := NewRootCommand()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"download", "--config", path})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, 1, engine.ExitCode(err))
}

func TestOpenStoreRequiresTarget(t *testing.T) {
	_, err := openStore(config.Target{})
	require.Error(t, err)
	assert.Equal(t, 1, engine.ExitCode(err))
}
