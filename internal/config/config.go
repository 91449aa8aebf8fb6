// Package config loads and validates the mirror configuration.
//
// The file shape is a tagged union at each level: `fn` selects the
// command, `from`/`to` select the provider and the target engine. JSON is
// canonical; YAML is accepted and converted. An embedded CUE schema
// validates the decoded document before defaults are applied.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Cmd is the top-level tagged union. `download` is the only variant.
type Cmd struct {
	Fn   string   `json:"fn"`
	Args Download `json:"args"`
}

// Download configures one mirror: provider, target, options.
type Download struct {
	From    From    `json:"from"`
	To      Target  `json:"to"`
	Options Options `json:"options"`
}

// From selects the provider.
type From struct {
	Stripe *Stripe `json:"stripe"`
}

// Stripe is the provider connection config.
type Stripe struct {
	SecretKey            string    `json:"secret_key"`
	MaxRequestsPerSecond *int      `json:"max_requests_per_second"`
	ExitOn429            bool      `json:"exit_on_429"`
	HTTP                 *HTTPOpts `json:"http"`
}

// HTTPOpts carries provider-scoped HTTP settings. Proxy config lives here
// rather than globally so it is clear it affects only provider calls, not
// database connections.
type HTTPOpts struct {
	Proxy *ProxyOpts `json:"proxy"`
}

// ProxyOpts configures an HTTP proxy.
type ProxyOpts struct {
	URL string `json:"url"`
}

// Target selects the store engine.
type Target struct {
	SQLite   *SQLiteTarget   `json:"sqlite"`
	MySQL    *MySQLTarget    `json:"mysql"`
	Postgres *PostgresTarget `json:"postgres"`
}

// SQLiteTarget writes to a database file. An empty file falls back to a
// uuid-named temp file so a bare config still produces a usable mirror.
type SQLiteTarget struct {
	File string `json:"file"`
}

// Addr locates a network database: TCP or unix socket.
type Addr struct {
	IP     string `json:"ip"`
	Port   int    `json:"port"`
	Socket string `json:"socket"`
}

// MySQLTarget writes to a MySQL schema.
type MySQLTarget struct {
	Addr   Addr   `json:"addr"`
	User   string `json:"user"`
	Pass   string `json:"pass"`
	DBName string `json:"db_name"`
}

// PostgresTarget writes to a Postgres database.
type PostgresTarget struct {
	Addr       Addr   `json:"addr"`
	User       string `json:"user"`
	Pass       string `json:"pass"`
	SchemaName string `json:"schema_name"`
	DBName     string `json:"db_name"`
}

// Options are the engine knobs.
type Options struct {
	Watch                     bool  `json:"watch"`
	ApplyEventsAfterOneShotDL *bool `json:"apply_events_after_one_shot_dl"`
	PollFreqMS                *int  `json:"poll_freq_ms"`
}

// ApplyAfterDL resolves the one-shot apply default (true).
func (o Options) ApplyAfterDL() bool {
	if o.ApplyEventsAfterOneShotDL == nil {
		return true
	}
	return *o.ApplyEventsAfterOneShotDL
}

// Load reads, decodes, and validates a config file. YAML files are
// converted to JSON before schema validation so both shapes share one
// schema.
func Load(path string) (*Cmd, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc any
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("config: parse yaml: %w", err)
		}
		raw, err = json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("config: convert yaml: %w", err)
		}
	}

	return Parse(raw)
}

// Parse decodes and validates a JSON config document.
func Parse(raw []byte) (*Cmd, error) {
	if err := ValidateSchema(raw); err != nil {
		return nil, err
	}

	var cmd Cmd
	if err := json.Unmarshal(raw, &cmd); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cmd.check(); err != nil {
		return nil, err
	}
	return &cmd, nil
}

// check enforces the cross-field constraints the schema cannot express.
func (c *Cmd) check() error {
	if c.Fn != "download" {
		return fmt.Errorf("config: unknown fn %q (only \"download\")", c.Fn)
	}
	if c.Args.From.Stripe == nil {
		return fmt.Errorf("config: from.stripe is required")
	}
	if c.Args.From.Stripe.SecretKey == "" {
		return fmt.Errorf("config: from.stripe.secret_key is required")
	}

	targets := 0
	for _, set := range []bool{c.Args.To.SQLite != nil, c.Args.To.MySQL != nil, c.Args.To.Postgres != nil} {
		if set {
			targets++
		}
	}
	if targets != 1 {
		return fmt.Errorf("config: exactly one of to.sqlite, to.mysql, to.postgres is required")
	}
	return nil
}

// TempSQLiteFile allocates a uuid-named sqlite file under the system temp
// directory and verifies it is writable.
func TempSQLiteFile() (string, error) {
	dir := filepath.Join(os.TempDir(), "td-data")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("config: create temp dir: %w", err)
	}
	path := filepath.Join(dir, uuid.NewString()+".sqlite")
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("config: create temp sqlite file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return path, nil
}
