package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/CorrelAid/order_mailer/config"
	"github.com/CorrelAid/order_mailer/delivery"
	"github.com/CorrelAid/order_mailer/inits"
	"github.com/CorrelAid/order_mailer/routines"
	"go.uber.org/zap"
)

const shutdownTimeout = 15 * time.Second

// Run serves until ctx is cancelled, then drains in-flight requests.
func Run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	log := logger.Sugar()

	ledger, err := inits.DBInit()
	if err != nil {
		return err
	}
	go routines.StartCleanupRoutine(ctx, ledger, cfg.IdempotencySweepInterval, log.Named("ledger"))

	deliverer := delivery.NewDeliverer(
		delivery.NewSMTPTransport(cfg.Primary),
		delivery.NewSMTPTransport(cfg.Backup),
		cfg.SendTimeout,
		cfg.SenderName,
		log.Named("delivery"),
	)

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           NewRouter(cfg, deliverer, ledger, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infow("Listening", "addr", cfg.ListenAddr, "path", cfg.SubmitPath,
			"primaryHost", cfg.Primary.Host, "backupHost", cfg.Backup.Host)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen on %s: %w", cfg.ListenAddr, err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Infow("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
