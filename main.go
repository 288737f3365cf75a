package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"webpMini/internal/blobstore"
	"webpMini/internal/config"
	"webpMini/internal/convert"
	"webpMini/internal/session"
	"webpMini/internal/web"
)

type Options struct {
	ConfigPath string
	Host       string
	Port       int
	Width      int
	Encoder    string
	Verbose    bool
}

var opts Options

func init() {
	flag.StringVar(&opts.ConfigPath, "config", "", "YAML configuration file (optional)")
	flag.StringVar(&opts.Host, "host", "", "listen host (default 127.0.0.1)")
	flag.IntVar(&opts.Port, "port", 0, "listen port (default 8080)")
	flag.IntVar(&opts.Width, "width", 0, "initial max width in pixels (default 800)")
	flag.StringVar(&opts.Encoder, "encoder", "", "WebP encoder: auto, native or ffmpeg")
	flag.BoolVar(&opts.Verbose, "verbose", false, "enable debug logging")
}

// loadConfig merges the config file and command-line flags
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if opts.ConfigPath != "" {
		var err error
		cfg, err = config.Load(opts.ConfigPath)
		if err != nil {
			return nil, err
		}
	}

	if opts.Host != "" {
		cfg.Server.Host = opts.Host
	}
	if opts.Port != 0 {
		cfg.Server.Port = opts.Port
	}
	if opts.Width != 0 {
		cfg.Images.MaxWidth = opts.Width
	}
	if opts.Encoder != "" {
		cfg.Images.Encoder = opts.Encoder
	}
	return cfg, nil
}

func validateConfig(cfg *config.Config) error {
	if opts.Width < 0 {
		return fmt.Errorf("-width must be greater than 0")
	}
	if opts.Port < 0 {
		return fmt.Errorf("-port must be greater than 0")
	}
	return cfg.Validate()
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	enc, err := convert.NewEncoder(cfg.Images.Encoder, cfg.Images.FFmpegPath)
	if err != nil {
		return err
	}

	ctl, err := session.New(convert.NewConverter(enc, logger), blobstore.New(), cfg.Images.MaxWidth, logger)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           web.NewServer(ctx, ctl, cfg.Upload.MaxBytes, logger).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Converter page ready", "url", "http://"+cfg.Addr()+"/", "encoder", fmt.Sprintf("%T", enc), "max_width", cfg.Images.MaxWidth)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	ctl.Wait()
	return nil
}

func main() {
	flag.Parse()

	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	cfg, err := loadConfig()
	if err != nil {
		logger.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if err := validateConfig(cfg); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
