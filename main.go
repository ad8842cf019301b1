package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/CorrelAid/order_mailer/config"
	"github.com/CorrelAid/order_mailer/inits"
	"github.com/CorrelAid/order_mailer/server"
	"github.com/spf13/cobra"
)

// Set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	serve := newServeCommand()
	root := &cobra.Command{
		Use:   "order_mailer",
		Short: "Forward trademark order submissions to the back office by email",
		Long: `order_mailer accepts multipart order and contract submissions over HTTP,
renders them into an email with the uploaded PDF and optional image attached,
and delivers it through a primary SMTP account with a single backup fallback.`,
		SilenceUsage: true,
		RunE:         serve.RunE,
	}
	root.Flags().AddFlagSet(serve.Flags())
	root.AddCommand(serve, newVersionCommand())
	return root
}

func newServeCommand() *cobra.Command {
	var envFiles []string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the submission endpoint",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(envFiles...)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			logger, err := inits.NewLogger(cfg.Log)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Sugar().Infow("Starting order_mailer", "version", version)
			if err := server.Run(ctx, cfg, logger); err != nil {
				logger.Sugar().Errorw("Server stopped", "error", err)
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringSliceVar(&envFiles, "env-file", []string{".env"}, "dotenv files to load before reading the environment")
	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "order_mailer %s\n", version)
		},
	}
}
