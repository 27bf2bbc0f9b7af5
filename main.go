package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dentalscan/scanctl/cmd"
	"github.com/dentalscan/scanctl/internal/buildinfo"
	"github.com/dentalscan/scanctl/internal/cli"
)

// set at build time with -ldflags "-X main.version=... -X main.buildDate=..."
var (
	version   = "dev"
	buildDate string
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cliCtx := cli.NewContext(buildinfo.NewContext(version, buildDate))
	rootCmd := cmd.RootCommand(cliCtx)

	err := rootCmd.ExecuteContext(ctx)
	if closeErr := cliCtx.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
