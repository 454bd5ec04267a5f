package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/docbridge/internal/infrastructure/config"
	"github.com/GriffinCanCode/docbridge/internal/infrastructure/logging"
	"github.com/GriffinCanCode/docbridge/internal/infrastructure/server"
)

type flags struct {
	config    string
	port      string
	host      string
	logLevel  string
	logFormat string
	mediaRoot string
	volumes   []string
	noScan    bool
	dev       bool
}

func parseFlags(args []string) (*flags, *pflag.FlagSet, error) {
	f := &flags{}
	fs := pflag.NewFlagSet("docbridge", pflag.ContinueOnError)
	fs.StringVarP(&f.config, "config", "c", "", "overlay config file (yaml, toml or jsonc)")
	fs.StringVarP(&f.port, "port", "p", "", "server port")
	fs.StringVar(&f.host, "host", "", "listen address")
	fs.StringVar(&f.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	fs.StringVar(&f.logFormat, "log-format", "", "log format (json, console)")
	fs.StringVar(&f.mediaRoot, "media-root", "", "shared media root")
	fs.StringArrayVar(&f.volumes, "volume", nil, "document volume as name=dir (repeatable)")
	fs.BoolVar(&f.noScan, "no-scan", false, "skip the media scan on start")
	fs.BoolVar(&f.dev, "dev", false, "development mode (console logs, debug level)")
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return f, fs, nil
}

// apply overrides cfg with flags the user actually set
func (f *flags) apply(fs *pflag.FlagSet, cfg *config.Config) error {
	if fs.Changed("port") {
		cfg.Server.Port = f.port
	}
	if fs.Changed("host") {
		cfg.Server.Host = f.host
	}
	if f.dev {
		cfg.Logging.Level = "debug"
		cfg.Logging.Format = "console"
	}
	if fs.Changed("log-level") {
		cfg.Logging.Level = f.logLevel
	}
	if fs.Changed("log-format") {
		cfg.Logging.Format = f.logFormat
	}
	if fs.Changed("media-root") {
		cfg.Media.Root = f.mediaRoot
	}
	if f.noScan {
		cfg.Media.ScanOnStart = false
	}
	if len(f.volumes) > 0 {
		volumes := make(map[string]string, len(f.volumes))
		for _, v := range f.volumes {
			name, dir, ok := strings.Cut(v, "=")
			if !ok || name == "" || dir == "" {
				return fmt.Errorf("invalid --volume %q: want name=dir", v)
			}
			volumes[name] = dir
		}
		cfg.Storage.Volumes = volumes
	}
	return cfg.Validate()
}

func run(args []string) error {
	f, fs, err := parseFlags(args)
	if err != nil {
		return err
	}
	if f.config != "" {
		if err := os.Setenv(config.FileEnv, f.config); err != nil {
			return err
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := f.apply(fs, cfg); err != nil {
		return err
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stderr"},
	})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv, err := server.NewServer(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	defer func() {
		if err := srv.Close(); err != nil {
			logger.Error("shutdown error", zap.Error(err))
		}
	}()

	logger.Info("docbridge starting",
		zap.String("addr", cfg.Server.Addr()),
		zap.String("authority", cfg.Storage.Authority),
		zap.Int("volumes", len(cfg.Storage.Volumes)),
	)
	return srv.Run(ctx)
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return
		}
		fmt.Fprintln(os.Stderr, "docbridge:", err)
		os.Exit(1)
	}
}
