package daemon

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/sidequest-app/sidequest/internal/api"
	"github.com/sidequest-app/sidequest/internal/app/engagement"
	"github.com/sidequest-app/sidequest/internal/app/profile"
	"github.com/sidequest-app/sidequest/internal/health"
	_ "github.com/sidequest-app/sidequest/internal/infra/metrics" // Register Prometheus metrics
	"github.com/sidequest-app/sidequest/internal/infra/sqlite"
)

// Daemon is the core SideQuest runtime. It wires together all services.
type Daemon struct {
	Config   Config
	DB       *sqlite.DB
	Engine   *engagement.Engine
	Profiles *profile.Service
	Server   *api.Server
	Health   *health.Checker
	cancel   context.CancelFunc
}

// New creates and initializes a Daemon with all services wired.
func New() (*Daemon, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	return NewWithConfig(cfg)
}

// NewWithConfig creates a Daemon with the given configuration.
func NewWithConfig(cfg Config) (*Daemon, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if err := ConfigureLogging(cfg.Logging); err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	// Open SQLite
	db, err := sqlite.Open(home())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// One locked source backs trust sampling, loot rolls and starter picks.
	rng := engagement.NewRandom(cfg.Seed())
	eng := engagement.NewEngine(cfg.EngineConfig(), rng)
	profiles := profile.NewService(db, eng, rng, profile.Config{
		StarterQuests: cfg.Progression.StarterQuests,
		Location:      loc,
	})

	checker := health.NewChecker(db, home(), parseDuration(cfg.Telemetry.HealthInterval, 60*time.Second))

	srv := api.NewServer(profiles)
	srv.SetHealthChecker(checker)
	srv.SetWriteLimit(cfg.API.RateLimit, cfg.API.Burst)

	// Enable Prometheus /metrics if configured
	if cfg.Telemetry.Metrics {
		srv.EnableMetrics()
	}

	log.WithFields(log.Fields{
		"home":     home(),
		"timezone": loc.String(),
	}).Debug("daemon initialized")

	return &Daemon{
		Config:   cfg,
		DB:       db,
		Engine:   eng,
		Profiles: profiles,
		Server:   srv,
		Health:   checker,
	}, nil
}

// Serve starts the HTTP server and blocks until shutdown.
func (d *Daemon) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	// Health checker (always runs)
	go d.Health.Run(ctx)

	// Weekly trust decay for users who stopped interacting
	go d.decayLoop(ctx, parseDuration(d.Config.Telemetry.DecayInterval, time.Hour))

	addr := fmt.Sprintf("%s:%d", d.Config.API.Host, d.Config.API.Port)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      d.Server.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	// Graceful shutdown on signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigCh:
		case <-ctx.Done():
		}

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		cancel()
		_ = httpServer.Shutdown(shutdownCtx)
		_ = d.DB.Close()
	}()

	fmt.Printf("SideQuest serving on http://%s\n", addr)
	if d.Config.Telemetry.Metrics {
		fmt.Printf("  Metrics: http://%s/metrics\n", addr)
	}

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// decayLoop settles weekly decay for every user on each tick.
func (d *Daemon) decayLoop(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.SettleDecay()
		}
	}
}

// SettleDecay runs one decay pass over all users and logs the outcome.
func (d *Daemon) SettleDecay() int {
	results, err := d.Profiles.ApplyWeeklyDecayAll()
	if err != nil {
		log.WithError(err).Error("weekly decay pass failed")
	}
	decayed := 0
	for _, r := range results {
		if r.Decays > 0 {
			decayed++
		}
	}
	if decayed > 0 {
		log.WithField("users", decayed).Info("weekly decay pass complete")
	}
	return decayed
}

// Close shuts down all daemon resources.
func (d *Daemon) Close() {
	if d.cancel != nil {
		d.cancel()
	}
	if d.DB != nil {
		_ = d.DB.Close()
	}
}
