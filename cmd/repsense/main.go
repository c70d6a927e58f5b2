package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/ayusman/repsense/internal/app"
	"github.com/ayusman/repsense/internal/config"
	"github.com/ayusman/repsense/internal/server"
	"github.com/ayusman/repsense/internal/store"
	"github.com/ayusman/repsense/internal/tray"
	"github.com/ayusman/repsense/pkg/logger"
	"github.com/ayusman/repsense/pkg/metrics"
)

func main() {
	if err := logger.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	log := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, log); err != nil {
		log.Fatal(ctx, "repsense failed", logger.Error(err))
	}
}

func run(ctx context.Context, log logger.Logger) error {
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	st, err := store.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initialize store: %w", err)
	}
	defer st.Close()

	m := metrics.NewManager(metrics.WithMetricsEnabled(cfg.MetricsEnabled))

	src, err := openSource(cfg, log)
	if err != nil {
		return err
	}
	defer src.Close()

	a := app.New(app.Config{
		Store:         st,
		Source:        src.Source,
		SourceName:    cfg.Source,
		Engine:        cfg.PushupConfig(),
		FrameInterval: cfg.FrameInterval(),
		Warmup:        src.Warmup,
		Logger:        log.Named("app"),
		Metrics:       m,
	})
	if !a.Initialize(ctx) {
		log.Warn(ctx, "pose engine unavailable, sessions will be counted manually")
	}
	defer a.Close(context.Background())

	staticDir := cfg.StaticDir
	if staticDir == "" {
		staticDir = findWebDir()
	}
	if staticDir != "" {
		log.Info(ctx, "serving static files", logger.String("dir", staticDir))
	}

	srv := server.New(server.Config{
		StaticDir: staticDir,
		App:       a,
		Store:     st,
		Metrics:   m,
		Logger:    log.Named("server"),
	})

	errCh := make(chan error, 2)
	go func() {
		errCh <- srv.ListenAndServe(cfg.Addr)
	}()

	if cfg.Tray {
		runTray(ctx, a, cfg.Addr, log, stopServerOnQuit(srv, errCh))
	}

	select {
	case <-ctx.Done():
		log.Info(context.Background(), "shutting down")
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}

// runTray blocks in the system tray loop until Quit is chosen or ctx ends.
func runTray(ctx context.Context, a *app.App, addr string, log logger.Logger, onQuit func()) {
	t := tray.New(a, log.Named("tray"))
	t.OnOpen(func() {
		if err := openBrowser(dashboardURL(addr)); err != nil {
			log.Warn(ctx, "failed to open browser", logger.Error(err))
		}
	})
	t.OnQuit(onQuit)

	updates, unsubscribe := a.Subscribe(64)
	defer unsubscribe()
	go t.Watch(updates)

	go func() {
		<-ctx.Done()
		t.Quit()
	}()
	t.Run()
}

// stopServerOnQuit makes the tray's Quit end run().
func stopServerOnQuit(srv *server.Server, errCh chan<- error) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(ctx)
		select {
		case errCh <- nil:
		default:
		}
	}
}

func dashboardURL(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "http://localhost" + addr
	}
	return "http://" + addr
}

func openBrowser(url string) error {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("open", url).Start()
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", url).Start()
	default:
		return exec.Command("xdg-open", url).Start()
	}
}

// findWebDir searches for the web directory in common locations.
// It checks: "web", "../web", "../../web", and ~/.repsense/web.
// Returns the first existing directory or empty string if none found.
func findWebDir() string {
	relativePaths := []string{"web", "../web", "../../web"}
	for _, p := range relativePaths {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			absPath, err := filepath.Abs(p)
			if err == nil {
				return absPath
			}
			return p
		}
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}

	homeWebDir := filepath.Join(homeDir, ".repsense", "web")
	if info, err := os.Stat(homeWebDir); err == nil && info.IsDir() {
		return homeWebDir
	}

	return ""
}
