package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"

	"github.com/Tyrowin/gorelay/internal/server"
)

// Exit codes reported to the service manager.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

func main() {
	code, err := run(os.Args[1:], os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.New(color.FgRed, color.OpBold).Render("gorelay:"), err)
	}
	os.Exit(code)
}

// run loads the configuration, binds the listeners and serves until SIGINT or SIGTERM.
func run(args []string, out io.Writer) (int, error) {
	if len(args) > 1 {
		return exitConfig, errors.New("usage: server [port]")
	}

	cfg, err := server.LoadConfig()
	if err != nil {
		return exitConfig, err
	}
	if len(args) == 1 {
		if cfg, err = cfg.WithPort(args[0]); err != nil {
			return exitConfig, err
		}
	}

	log := logs.GetLoggerFromString(cfg.LogLevel)

	srv, err := server.NewServer(cfg, log)
	if err != nil {
		return exitRuntime, err
	}

	banner := fmt.Sprintf("  ====== gorelay on %s ======", srv.Addr())
	_, _ = fmt.Fprintln(out, color.New(color.BgBlack, color.FgGreen).Render(banner))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		return exitRuntime, fmt.Errorf("relay stopped: %w", err)
	}
	log.Info("Relay stopped")
	return exitOK, nil
}
