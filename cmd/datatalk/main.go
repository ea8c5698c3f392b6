package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/doeshing/datatalk/internal/infrastructure/cli"
)

func main() {
	ctx, stop := signalContext()
	code := run(ctx, os.Stderr)
	stop()
	os.Exit(code)
}

// signalContext is cancelled on Ctrl-C or SIGTERM so commands unwind and
// the container is closed before exit.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func run(ctx context.Context, stderr io.Writer) int {
	root := cli.NewRootCmd(cli.Options{Verbose: isVerbose()})

	err := root.ExecuteContext(ctx)
	_ = root.Close()
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled) && ctx.Err() != nil:
		return 130
	default:
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
}

func isVerbose() bool {
	return strings.EqualFold(os.Getenv("DATATALK_DEBUG"), "1") || strings.EqualFold(os.Getenv("DATATALK_DEBUG"), "true")
}
