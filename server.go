package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/saheer07/portfolio/internal/config"
	"github.com/saheer07/portfolio/internal/contact"
	"github.com/saheer07/portfolio/internal/content"
	"github.com/saheer07/portfolio/internal/delivery"
	"github.com/saheer07/portfolio/internal/ledger"
	"github.com/saheer07/portfolio/internal/logging"
	"github.com/saheer07/portfolio/internal/web"
)

const cleanupInterval = time.Hour

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := logging.Initialize(cfg.Log.Level); err != nil {
		return nil, err
	}
	return cfg, nil
}

func serve(ctx context.Context, cfgPath string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}
	defer logging.Sync()

	gin.SetMode(cfg.Server.Mode)

	l, err := ledger.Open(cfg.Ledger.DSN, "")
	if err != nil {
		return err
	}
	defer l.Close()

	sender, err := delivery.New(cfg)
	if err != nil {
		return fmt.Errorf("creating sender: %w", err)
	}
	throttled := &ledger.Throttle{
		Next:   sender,
		Ledger: l,
		Max:    cfg.Contact.MaxPerWindow,
		Window: cfg.Contact.Window,
	}

	portfolio, err := content.Load(cfg.Content.Path)
	if err != nil {
		return err
	}

	site, err := web.New(web.Options{
		Portfolio: portfolio,
		Sender:    throttled,
		Ledger:    l,
		StaticDir: cfg.Server.StaticDir,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           site.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go pruneLedger(ctx, l, cfg.Ledger.Retention)

	errCh := make(chan error, 1)
	go func() {
		logging.Info("Server starting",
			zap.String("version", Version),
			zap.Int("port", cfg.Server.Port),
			zap.String("delivery", cfg.Delivery.Provider),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logging.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// pruneLedger drops ledger rows older than retention until ctx is done.
func pruneLedger(ctx context.Context, l *ledger.Ledger, retention time.Duration) {
	if retention <= 0 {
		return
	}
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := l.Cleanup(ctx, retention)
			if err != nil {
				logging.Warn("Ledger cleanup failed", zap.Error(err))
				continue
			}
			if n > 0 {
				logging.Debug("Ledger cleanup", zap.Int64("removed", n))
			}
		}
	}
}

// printNotifier writes workflow notifications to the terminal.
type printNotifier struct {
	out io.Writer
}

func (p printNotifier) Success(text string) { fmt.Fprintln(p.out, text) }
func (p printNotifier) Error(text string)   { fmt.Fprintln(p.out, "Error: "+text) }

func sendTest(ctx context.Context, cfgPath string, form contact.Form, out io.Writer) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}
	defer logging.Sync()

	sender, err := delivery.New(cfg)
	if err != nil {
		return fmt.Errorf("creating sender: %w", err)
	}

	if ctx == nil {
		ctx = context.Background()
	}
	w := contact.NewWorkflow(sender, printNotifier{out: out}, contact.WithForm(form))
	if o := w.Submit(ctx); !o.OK() {
		return o.Err
	}
	return nil
}
