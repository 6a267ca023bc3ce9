package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/eringen/portfoliogate"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version":
			fmt.Printf("portfoliogate %s\n", version)
			return
		case "help", "-h", "--help":
			printUsage()
			return
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
			printUsage()
			os.Exit(1)
		}
	}

	if err := run(); err != nil {
		log.Fatalf("portfoliogate: %v", err)
	}
}

func run() error {
	cfg, err := portfoliogate.LoadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := portfoliogate.New(cfg)
	defer app.Close()

	setupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	err = app.Setup(setupCtx)
	cancel()
	if err != nil {
		return err
	}

	errc := make(chan error, 1)
	go func() {
		app.Echo.Logger.Infof("listening on %s", cfg.Addr)
		errc <- app.Start()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return app.Shutdown(shutdownCtx)
}

func printUsage() {
	fmt.Println(`portfoliogate - visitor-gated portfolio with an admin analytics API

Usage:
  portfoliogate            Start the server (configured from the environment)
  portfoliogate version    Print the version
  portfoliogate help       Show this help message

Required environment:
  ADMIN_PASSWORD    password of the bootstrap admin account
  SESSION_SECRET    at least 32 bytes, signs session tokens`)
}
