package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/erp/paysync/internal/bootstrap"
	"github.com/erp/paysync/internal/infrastructure/config"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "paysyncctl",
		Short:         "Operate the ERP payment-status sync",
		Version:       bootstrap.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(syncOnceCmd())
	cmd.AddCommand(suppliersCmd())
	return cmd
}

// withApp loads configuration, builds the service graph and releases it after fn
func withApp(ctx context.Context, fn func(*bootstrap.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	log, logProvider, err := bootstrap.NewLogger(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = log.Sync()
		if logProvider != nil {
			_ = logProvider.Shutdown(context.WithoutCancel(ctx))
		}
	}()

	app, err := bootstrap.Build(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := app.Shutdown(context.WithoutCancel(ctx)); err != nil {
			log.Warn("Error releasing resources", zap.Error(err))
		}
	}()

	return fn(app)
}
