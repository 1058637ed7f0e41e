package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/NERVsystems/greenroute/pkg/cli"
	ver "github.com/NERVsystems/greenroute/pkg/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCmd(ver.BuildVersion).ExecuteContext(ctx); err != nil {
		if !errors.Is(err, cli.ErrInvalidInput) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		stop()
		os.Exit(1)
	}
}
