package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimal = `{
	"fn": "download",
	"args": {
		"from": {"stripe": {"secret_key": "sk_test_x"}},
		"to": {"sqlite": {"file": "/tmp/mirror.sqlite"}}
	}
}`

func TestParseMinimal(t *testing.T) {
	cmd, err := Parse([]byte(minimal))
	require.NoError(t, err)

	assert.Equal(t, "download", cmd.Fn)
	require.NotNil(t, cmd.Args.From.Stripe)
	assert.Equal(t, "sk_test_x", cmd.Args.From.Stripe.SecretKey)
	require.NotNil(t, cmd.Args.To.SQLite)

	// Defaults.
	assert.False(t, cmd.Args.Options.Watch)
	assert.True(t, cmd.Args.Options.ApplyAfterDL())
	assert.Nil(t, cmd.Args.Options.PollFreqMS)
	assert.False(t, cmd.Args.From.Stripe.ExitOn429)
}

func TestParseFullOptions(t *testing.T) {
	doc := `{
		"fn": "download",
		"args": {
			"from": {"stripe": {
				"secret_key": "sk_test_x",
				"max_requests_per_second": 10,
				"exit_on_429": true,
				"http": {"proxy": {"url": "http://proxy:3128"}}
			}},
			"to": {"mysql": {
				"addr": {"ip": "127.0.0.1", "port": 3306},
				"user": "td", "pass": "s3cret", "db_name": "mirror"
			}},
			"options": {
				"watch": true,
				"apply_events_after_one_shot_dl": false,
				"poll_freq_ms": 1000
			}
		}
	}`
	cmd, err := Parse([]byte(doc))
	require.NoError(t, err)

	require.NotNil(t, cmd.Args.From.Stripe.MaxRequestsPerSecond)
	assert.Equal(t, 10, *cmd.Args.From.Stripe.MaxRequestsPerSecond)
	assert.True(t, cmd.Args.From.Stripe.ExitOn429)
	assert.Equal(t, "http://proxy:3128", cmd.Args.From.Stripe.HTTP.Proxy.URL)
	require.NotNil(t, cmd.Args.To.MySQL)
	assert.Equal(t, 3306, cmd.Args.To.MySQL.Addr.Port)
	assert.True(t, cmd.Args.Options.Watch)
	assert.False(t, cmd.Args.Options.ApplyAfterDL())
	assert.Equal(t, 1000, *cmd.Args.Options.PollFreqMS)
}

func TestParseRejectsUnknownFn(t *testing.T) {
	_, err := Parse([]byte(`{"fn": "upload", "args": {"from": {"stripe": {"secret_key": "x"}}, "to": {"sqlite": {}}}}`))
	assert.Error(t, err)
}

func TestParseRejectsMissingSecretKey(t *testing.T) {
	_, err := Parse([]byte(`{"fn": "download", "args": {"from": {"stripe": {"secret_key": ""}}, "to": {"sqlite": {}}}}`))
	assert.Error(t, err)
}

func TestParseRejectsUnknownOption(t *testing.T) {
	doc := `{
		"fn": "download",
		"args": {
			"from": {"stripe": {"secret_key": "sk_test_x"}},
			"to": {"sqlite": {"file": "/tmp/x.sqlite"}},
			"options": {"watchh": true}
		}
	}`
	_, err := Parse([]byte(doc))
	require.Error(t, err, "typo'd option must fail, not silently default")
	assert.Contains(t, err.Error(), "invalid")
}

func TestParseRejectsMultipleTargets(t *testing.T) {
	doc := `{
		"fn": "download",
		"args": {
			"from": {"stripe": {"secret_key": "sk_test_x"}},
			"to": {
				"sqlite": {"file": "/tmp/x.sqlite"},
				"mysql": {"addr": {"ip": "h", "port": 3306}, "user": "u"}
			}
		}
	}`
	_, err := Parse([]byte(doc))
	assert.ErrorContains(t, err, "exactly one")
}

func TestLoadYAML(t *testing.T) {
	doc := `
fn: download
args:
  from:
    stripe:
      secret_key: sk_test_x
  to:
    sqlite:
      file: /tmp/mirror.sqlite
  options:
    watch: true
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))

	cmd, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sk_test_x", cmd.Args.From.Stripe.SecretKey)
	assert.True(t, cmd.Args.Options.Watch)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

func TestTempSQLiteFile(t *testing.T) {
	path, err := TempSQLiteFile()
	require.NoError(t, err)
	t.Cleanup(func() { os.Remove(path) })

	assert.FileExists(t, path)
	assert.Contains(t, filepath.Base(path), ".sqlite")
}
