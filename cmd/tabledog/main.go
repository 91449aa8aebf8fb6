package main

import (
	"log/slog"
	"os"

	"github.com/roach88/tabledog/internal/cli"
	"github.com/roach88/tabledog/internal/engine"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		slog.Error("fatal", "err", err)
		os.Exit(engine.ExitCode(err))
	}
}
