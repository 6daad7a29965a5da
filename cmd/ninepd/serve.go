package main

import (
	"context"
	"fmt"
	"net"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/NERVsystems/ninepd/internal/config"
	"github.com/NERVsystems/ninepd/internal/diskfs"
	"github.com/NERVsystems/ninepd/internal/llm"
	"github.com/NERVsystems/ninepd/internal/llmfs"
	"github.com/NERVsystems/ninepd/internal/memfs"
	"github.com/NERVsystems/ninepd/internal/protocol"
	"github.com/NERVsystems/ninepd/internal/serverlog"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start a 9P server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := cfgFromFlags
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runServe(cmd.Context(), cfg)
		},
	}

	cfgFromFlags = config.BindFlags(cmd.Flags())
	return cmd
}

// cfgFromFlags is populated by BindFlags when newServeCmd registers the
// serve command's flags; Cobra parses argv into it before RunE runs.
var cfgFromFlags *config.Config

func runServe(ctx context.Context, cfg *config.Config) error {
	root, err := buildRoot(cfg)
	if err != nil {
		return err
	}

	logger, err := serverlog.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("ninepd: %w", err)
	}
	defer logger.Sync()

	server := protocol.NewServer(root)
	server.SetLogger(logger)

	listener, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("ninepd: listen on %s: %w", cfg.Addr, err)
	}

	logger.Infow("listening", "addr", listener.Addr().String(), "backend", string(cfg.Backend))

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		<-ctx.Done()
		logger.Infow("shutting down")
		listener.Close()
	}()

	if err := server.Serve(ctx, listener); err != nil && ctx.Err() == nil {
		return fmt.Errorf("ninepd: serve: %w", err)
	}
	return nil
}

func buildRoot(cfg *config.Config) (protocol.Dir, error) {
	switch cfg.Backend {
	case config.BackendMem:
		return memfs.New(), nil
	case config.BackendDisk:
		return diskfs.New(cfg.Dir)
	case config.BackendLLM:
		client := llm.NewClient(cfg.AnthropicAPIKey)
		return llmfs.NewRoot(client), nil
	default:
		return nil, fmt.Errorf("ninepd: unknown backend %q", cfg.Backend)
	}
}
