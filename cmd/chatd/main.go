package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"chatd/internal/config"
	"chatd/internal/httpapi"
	"chatd/internal/registry"
	"chatd/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd(os.Getenv).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "chatd:", err)
		os.Exit(1)
	}
}

// flags holds command line overrides; only flags the user set are applied.
type flags struct {
	configPath   string
	addr         string
	dataDir      string
	backend      string
	backendURL   string
	defaultModel string
	storage      string
	logLevel     string
	logFormat    string
}

func newRootCmd(getenv func(string) string) *cobra.Command {
	f := &flags{}
	root := &cobra.Command{
		Use:           "chatd",
		Short:         "HTTP backend for a chat UI in front of an LLM inference server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, f, getenv)
		},
	}
	bindFlags(root.PersistentFlags(), f)

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, f, getenv)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "models",
		Short: "Print the advertised models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, f, getenv)
			if err != nil {
				return err
			}
			reg, err := registry.Open(cfg.Models.File, cfg.Models.Default, cfg.Models.Static)
			if err != nil {
				return err
			}
			for _, m := range reg.List() {
				marker := " "
				if m == reg.Default() {
					marker = "*"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", marker, m)
			}
			return nil
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "chats",
		Short: "Print stored chat ids, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, f, getenv)
			if err != nil {
				return err
			}
			log, err := newLogger(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			store, err := service.OpenStore(cfg, log)
			if err != nil {
				return err
			}
			defer store.Close()
			chats, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			for _, c := range chats {
				id, _ := c.ID()
				title := ""
				if raw, ok := c["title"]; ok {
					title = strings.Trim(string(raw), `"`)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", id, title)
			}
			return nil
		},
	})
	return root
}

func bindFlags(fs *pflag.FlagSet, f *flags) {
	fs.StringVar(&f.configPath, "config", "", "Path to a config file (.yaml, .yml, .json or .toml)")
	fs.StringVar(&f.addr, "addr", config.DefaultAddr, "HTTP listen address")
	fs.StringVar(&f.dataDir, "data-dir", config.DefaultDataDir, "Directory for chats and the models list")
	fs.StringVar(&f.backend, "backend", config.BackendOpenAI, "Inference protocol: openai (vLLM) or ollama")
	fs.StringVar(&f.backendURL, "backend-url", "", "Inference server base URL (default depends on --backend)")
	fs.StringVar(&f.defaultModel, "default-model", config.DefaultModel, "Model used when a request names none")
	fs.StringVar(&f.storage, "storage", config.DriverFile, "Chat storage driver: file or sqlite")
	fs.StringVar(&f.logLevel, "log-level", "info", "Log level: debug|info|warn|error")
	fs.StringVar(&f.logFormat, "log-format", "console", "Log format: console|json")
}

// resolveConfig applies defaults, then the config file, then environment,
// then explicitly set flags.
func resolveConfig(cmd *cobra.Command, f *flags, getenv func(string) string) (config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		loaded, err := config.Load(f.configPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}
	if err := config.ApplyEnv(&cfg, getenv); err != nil {
		return cfg, err
	}
	set := func(name string, dst *string, v string) {
		if cmd.Flags().Changed(name) {
			*dst = v
		}
	}
	set("addr", &cfg.Addr, f.addr)
	set("data-dir", &cfg.DataDir, f.dataDir)
	set("backend", &cfg.Backend.Kind, f.backend)
	set("backend-url", &cfg.Backend.URL, f.backendURL)
	set("default-model", &cfg.Models.Default, f.defaultModel)
	set("storage", &cfg.Storage.Driver, f.storage)
	set("log-level", &cfg.LogLevel, f.logLevel)
	set("log-format", &cfg.LogFormat, f.logFormat)
	if !cmd.Flags().Changed("backend-url") {
		config.ApplyLegacyURL(&cfg, getenv)
	}
	return cfg.Normalize()
}

func newLogger(level, format string, w io.Writer) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zerolog.Logger{}, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	switch strings.ToLower(format) {
	case "json":
	case "", "console":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	default:
		return zerolog.Logger{}, fmt.Errorf("invalid log format %q (want console or json)", format)
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

// requestLogLevel maps the process log level to the default per-request one.
func requestLogLevel(level string) string {
	switch strings.ToLower(level) {
	case "debug", "trace":
		return "debug"
	case "warn", "error", "fatal", "panic":
		return "error"
	case "disabled":
		return "off"
	default:
		return "info"
	}
}

func runServe(cmd *cobra.Command, f *flags, getenv func(string) string) error {
	cfg, err := resolveConfig(cmd, f, getenv)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg.LogLevel, cfg.LogFormat, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	svc, err := service.Open(cfg, log)
	if err != nil {
		return err
	}
	defer svc.Close()

	httpapi.SetLogger(log)
	httpapi.SetRequestLogLevel(requestLogLevel(cfg.LogLevel))
	httpapi.SetMaxBodyBytes(cfg.HTTP.MaxBodyBytes)
	httpapi.SetCORSOptions(!cfg.HTTP.CORSDisabled, cfg.HTTP.CORSOrigins, nil, nil)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	base, cancelBase := context.WithCancel(ctx)
	defer cancelBase()
	httpapi.SetBaseContext(base)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewMux(svc),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("chatd listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	// cancel in-flight generations before draining
	cancelBase()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSeconds)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown error")
	}
	return nil
}
