package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/tabledog/internal/config"
	"github.com/roach88/tabledog/internal/engine"
	"github.com/roach88/tabledog/internal/store"
	"github.com/roach88/tabledog/internal/stripe"
)

// NewDownloadCommand creates the download command: one-shot by default,
// continuous with options.watch.
func NewDownloadCommand(root *RootOptions) *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "download",
		Short: "Download the account and optionally watch its event stream",
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			cfg, err := config.Load(configPath)
			if err != nil {
				return &engine.ReplicationError{Code: engine.CodeConfigInvalid, Err: err}
			}
			return runDownload(cmd.Context(), &cfg.Args)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file (json or yaml)")
	cmd.MarkFlagRequired("config")

	return cmd
}

func runDownload(ctx context.Context, dl *config.Download) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	s, err := openStore(dl.To)
	if err != nil {
		return err
	}
	defer s.Close()

	client, err := newClient(dl.From.Stripe)
	if err != nil {
		return &engine.ReplicationError{Code: engine.CodeConfigInvalid, Err: err}
	}

	opts := engine.Options{
		Watch:                     dl.Options.Watch,
		ApplyEventsAfterOneShotDL: dl.Options.ApplyAfterDL(),
	}
	if dl.Options.PollFreqMS != nil {
		opts.PollFreq = time.Duration(*dl.Options.PollFreqMS) * time.Millisecond
	}

	return engine.New(s, client, opts).Run(ctx)
}

func newClient(cfg *config.Stripe) (*stripe.Client, error) {
	c := stripe.Config{
		SecretKey: cfg.SecretKey,
		ExitOn429: cfg.ExitOn429,
	}
	if cfg.MaxRequestsPerSecond != nil {
		c.MaxRequestsPerSecond = *cfg.MaxRequestsPerSecond
	}
	if cfg.HTTP != nil && cfg.HTTP.Proxy != nil {
		c.ProxyURL = cfg.HTTP.Proxy.URL
	}
	return stripe.NewClient(c)
}

// openStore resolves the target union to a dialect and DSN and connects.
func openStore(t config.Target) (*store.Store, error) {
	var (
		d   store.Dialect
		dsn string
	)

	switch {
	case t.SQLite != nil:
		file := t.SQLite.File
		if file == "" {
			var err error
			file, err = config.TempSQLiteFile()
			if err != nil {
				return nil, &engine.ReplicationError{Code: engine.CodeConfigInvalid, Err: err}
			}
			slog.Info("no sqlite file configured, using temp file", "file", file)
		}
		d, dsn = store.SQLite{}, file

	case t.MySQL != nil:
		m := t.MySQL
		addr := fmt.Sprintf("tcp(%s:%d)", m.Addr.IP, m.Addr.Port)
		if m.Addr.Socket != "" {
			addr = fmt.Sprintf("unix(%s)", m.Addr.Socket)
		}
		d = store.MySQL{}
		dsn = fmt.Sprintf("%s:%s@%s/%s", m.User, m.Pass, addr, m.DBName)

	case t.Postgres != nil:
		p := t.Postgres
		host := p.Addr.IP
		if p.Addr.Socket != "" {
			host = p.Addr.Socket
		}
		d = store.Postgres{}
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%d/%s", p.User, p.Pass, host, p.Addr.Port, p.DBName)
		if p.SchemaName != "" {
			dsn += "?search_path=" + p.SchemaName
		}

	default:
		return nil, &engine.ReplicationError{Code: engine.CodeConfigInvalid,
			Err: fmt.Errorf("no target engine configured")}
	}

	s, err := store.Open(d, dsn)
	if err != nil {
		return nil, &engine.ReplicationError{Code: engine.CodeStoreIO, Err: err}
	}
	return s, nil
}
