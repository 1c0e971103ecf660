package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rpmtool/rpm-tool/internal/cli"
	"github.com/rpmtool/rpm-tool/internal/models"
)

// version is overridden at build time via -ldflags.
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := cli.NewRootCmd(version)
	rootCmd.SetContext(ctx)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "rpm-tool:", err)

		var toolErr *models.ToolError
		if errors.As(err, &toolErr) {
			os.Exit(toolErr.Kind.ExitCode())
		}
		os.Exit(models.ErrUsage.ExitCode())
	}
}
