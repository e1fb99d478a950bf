package main

import (
	"context"
	"errors"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"TempoRelay/internal/collector"
	"TempoRelay/internal/config"
	"TempoRelay/internal/scheduler"
	"TempoRelay/internal/server"
	"TempoRelay/internal/state"
	"TempoRelay/internal/store"
)

type flags struct {
	configPath string
	host       string
	port       int
	interval   int
	accessLog  bool
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Printf("[WARN] load .env: %v", err)
	}

	if err := newRootCmd(&flags{}).ExecuteContext(context.Background()); err != nil {
		log.Fatalf("[FATAL] %v", err)
	}
}

func newRootCmd(f *flags) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "temporelay",
		Short:         "Serve the EDF Tempo day colors on a local HTTP endpoint",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg, f.accessLog)
		},
	}

	defaultConfig := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultConfig = v
	}
	cmd.Flags().StringVar(&f.configPath, "config", defaultConfig, "path to the YAML config file")
	cmd.Flags().StringVar(&f.host, "host", "", "bind host (overrides config)")
	cmd.Flags().IntVar(&f.port, "port", 0, "bind port (overrides config)")
	cmd.Flags().IntVar(&f.interval, "interval", 0, "refresh interval in seconds, minimum 60 (overrides config)")
	cmd.Flags().BoolVar(&f.accessLog, "access-log", false, "log every HTTP request")
	return cmd
}

// loadConfig layers flags over the file and environment.
func loadConfig(cmd *cobra.Command, f *flags) (*config.Config, error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("host") {
		cfg.Server.Host = f.host
	}
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = f.port
	}
	if cmd.Flags().Changed("interval") {
		cfg.Refresh.IntervalSeconds = f.interval
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(parent context.Context, cfg *config.Config, accessLog bool) error {
	log.Println("[INFO] TempoRelay starting...")

	primary := collector.NewCouleurTempoFetcher(cfg.Sources.PrimaryBaseURL, cfg.Sources.UserAgent, cfg.Proxy)
	fallback := collector.NewEDFFetcher(cfg.Sources.FallbackURL, cfg.Sources.UserAgent, cfg.Proxy)
	log.Printf("[INFO] sources: primary=%s fallback=%s", primary.Name(), fallback.Name())

	st, err := store.Open(cfg.Storage.Backend, cfg.Storage.Path)
	if err != nil {
		log.Printf("[WARN] init %s store failed, persistence disabled: %v", cfg.Storage.Backend, err)
		st = store.NewNoopStore()
	}
	defer st.Close()

	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	mgr := state.NewManager(primary, fallback, st)
	mgr.Load()
	mgr.Refresh(ctx)

	sched := scheduler.NewScheduler(ctx, mgr, cfg.Interval())
	if err := sched.Register(); err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	srv := server.NewServer(mgr, server.ServerOptions{
		Addr:      cfg.Addr(),
		AccessLog: accessLog,
	})
	if err := srv.Start(); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	log.Printf("[INFO] received %v, stopping...", sig)
	if err := srv.Stop(context.Background()); err != nil {
		log.Printf("[WARN] graceful shutdown: %v", err)
	}
	cancel()
	log.Println("[INFO] TempoRelay stopped")
	return nil
}
