package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/haukened/tamashii/internal/blocker/common/clock"
	"github.com/haukened/tamashii/internal/blocker/common/log"
	"github.com/haukened/tamashii/internal/blocker/common/task"
	"github.com/haukened/tamashii/internal/blocker/config"
	"github.com/haukened/tamashii/internal/blocker/gateways/bridge"
	"github.com/haukened/tamashii/internal/blocker/gateways/control"
	"github.com/haukened/tamashii/internal/blocker/gateways/notify"
	"github.com/haukened/tamashii/internal/blocker/metrics"
	"github.com/haukened/tamashii/internal/blocker/repos/hostsfile"
	"github.com/haukened/tamashii/internal/blocker/repos/state"
	"github.com/haukened/tamashii/internal/blocker/repos/state/bolt"
	"github.com/haukened/tamashii/internal/blocker/services/commands"
	"github.com/haukened/tamashii/internal/blocker/services/enforcer"
	"github.com/haukened/tamashii/internal/blocker/services/scheduler"
)

const (
	version = "0.1.0-dev"
	appName = "tamashiid"

	defaultClientTimeout = 15 * time.Second
)

var CLI struct {
	Addr string `short:"a" help:"Control API address used by client commands" default:"127.0.0.1:7878" env:"TAMASHII_CONTROL_ADDR"`

	Serve struct{} `cmd:"" help:"Run the blocker daemon"`

	Apply struct {
		Domains []string `arg:"" help:"Domains to block"`
	} `cmd:"" help:"Replace the active blocklist"`

	Remove struct{} `cmd:"" help:"Remove the active blocklist"`

	Status struct{} `cmd:"" help:"Show blocker status"`

	CheckAdmin struct{} `cmd:"" help:"Report whether the daemon can write the hosts file"`

	Lock struct{} `cmd:"" help:"Show the commitment lock"`

	ExtendLock struct {
		Hours uint64 `arg:"" help:"Hours to add to the lock"`
	} `cmd:"" help:"Extend the commitment lock"`

	Streak struct {
		Start  string `help:"Streak start date (YYYY-MM-DD)"`
		Best   uint64 `help:"Best streak in days"`
		Resets uint64 `help:"Total streak resets"`
	} `cmd:"" help:"Compute streak data"`

	Native struct {
		Method  string `arg:"" help:"Mobile plugin method"`
		Payload string `help:"JSON object passed to the method" default:"{}"`
	} `cmd:"" help:"Invoke a mobile plugin method"`
}

// defaultHostsPath is swapped in tests.
var defaultHostsPath = hostsfile.DefaultPath

// Application holds the running daemon components.
type Application struct {
	config    *config.AppConfig
	logger    log.Logger
	state     state.Store
	enforcer  enforcer.Enforcer
	scheduler *scheduler.Scheduler
	server    *control.Server
	tasks     []*task.Handle
}

func main() {
	kctx := kong.Parse(&CLI,
		kong.Name(appName),
		kong.Description("Domain blocker daemon with a daily motivation reminder."),
	)

	ctx, cancel := signalContext()
	defer cancel()

	if kctx.Command() == "serve" {
		if err := runServe(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
			os.Exit(1)
		}
		return
	}

	client, err := control.NewClient(CLI.Addr, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		os.Exit(1)
	}
	ctx, cancelTimeout := context.WithTimeout(ctx, defaultClientTimeout)
	defer cancelTimeout()
	if err := runClient(ctx, kctx.Command(), client, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", appName, err)
		os.Exit(1)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigChan:
			log.Info(map[string]any{"signal": sig.String()}, "shutdown_signal_received")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()
	return ctx, cancel
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if err := log.Configure(cfg.Env, cfg.Log.Level); err != nil {
		return fmt.Errorf("logging configuration error: %w", err)
	}

	log.Info(map[string]any{
		"version":   version,
		"env":       cfg.Env,
		"log_level": cfg.Log.Level,
		"mode":      cfg.Blocker.Mode,
		"listen":    cfg.Control.Listen,
		"state_db":  cfg.State.DB,
	}, "starting_tamashii")

	app, err := buildApplication(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}

	ln, err := net.Listen("tcp", cfg.Control.Listen)
	if err != nil {
		_ = app.Close()
		return fmt.Errorf("control listen %s: %w", cfg.Control.Listen, err)
	}
	if err := app.Run(ctx, ln); err != nil {
		return err
	}
	log.Info(nil, "tamashii_stopped")
	return nil
}

// buildApplication constructs all components and wires them together.
// Background tasks are bound to ctx.
func buildApplication(ctx context.Context, cfg *config.AppConfig) (*Application, error) {
	clk := clock.RealClock{}
	logger := log.GetLogger()

	registry := prom.NewRegistry()
	recorder := metrics.NewPrometheusRecorder(registry)

	store, err := bolt.New(cfg.State.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to open state: %w", err)
	}

	app := &Application{config: cfg, logger: logger, state: store}

	plugin, enf, err := app.buildEnforcer(ctx, recorder)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	app.enforcer = enf

	svc, err := commands.New(commands.Options{
		Enforcer: enf,
		Plugin:   plugin,
		Locks:    store,
		Clock:    clk,
		Logger:   logger,
		Metrics:  recorder,
	})
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("failed to build commands: %w", err)
	}

	app.scheduler, err = scheduler.New(scheduler.Options{
		Notifier: notify.New(cfg.Notify.Command, logger),
		Clock:    clk,
		Fired:    store,
		Hour:     cfg.Scheduler.Hour,
		Minute:   cfg.Scheduler.Minute,
		Title:    cfg.Scheduler.Title,
		Quotes:   cfg.Scheduler.Quotes,
		Cooldown: cfg.Scheduler.Cooldown,
		Logger:   logger,
		Metrics:  recorder,
	})
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("failed to build scheduler: %w", err)
	}

	app.server, err = control.NewServer(control.Options{
		Commands: svc,
		Registry: registry,
		Logger:   logger,
	})
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("failed to build control server: %w", err)
	}

	return app, nil
}

func (a *Application) buildEnforcer(ctx context.Context, rec metrics.Recorder) (*bridge.Plugin, enforcer.Enforcer, error) {
	mode, err := enforcer.ParseMode(a.config.Blocker.Mode)
	if err != nil {
		return nil, nil, err
	}

	switch mode {
	case enforcer.ModeNative:
		inv, err := bridge.NewHTTPInvoker(a.config.Blocker.NativeURL, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to build plugin bridge: %w", err)
		}
		plugin := bridge.NewPlugin(inv)
		return plugin, enforcer.NewNative(plugin, a.logger, rec), nil

	case enforcer.ModeNone:
		return a.noopEnforcer(ctx, rec)
	}

	path := a.config.Blocker.HostsPath
	if path == "" {
		path = defaultHostsPath()
	}
	if path == "" {
		a.logger.Warn(nil, "hosts_file_unsupported_on_platform")
		return a.noopEnforcer(ctx, rec)
	}

	var changes <-chan struct{}
	notifier, err := hostsfile.NewChangeNotifier(path, hostsfile.DefaultDebounce, a.logger)
	if err != nil {
		a.logger.Warn(map[string]any{"hosts_path": path, "error": err}, "hosts_change_watch_unavailable")
	} else {
		changes = notifier.Changes()
		a.tasks = append(a.tasks, task.Go(ctx, "hosts_changes", a.logger, notifier.Run))
	}

	enf, err := enforcer.NewHosts(ctx, enforcer.HostsOptions{
		Repository: hostsfile.NewStore(path, a.logger),
		Interval:   a.config.Blocker.Interval,
		Changes:    changes,
		Logger:     a.logger,
		Metrics:    rec,
	})
	return bridge.NewPlugin(nil), enf, err
}

// noopEnforcer manages no file: every operation succeeds without effect.
func (a *Application) noopEnforcer(ctx context.Context, rec metrics.Recorder) (*bridge.Plugin, enforcer.Enforcer, error) {
	enf, err := enforcer.NewHosts(ctx, enforcer.HostsOptions{
		Repository: hostsfile.NoopStore{},
		Interval:   a.config.Blocker.Interval,
		Logger:     a.logger,
		Metrics:    rec,
	})
	return bridge.NewPlugin(nil), enf, err
}

// Run starts the scheduler and serves the control API on ln until ctx is
// done. Everything is released before it returns.
func (a *Application) Run(ctx context.Context, ln net.Listener) error {
	a.tasks = append(a.tasks, a.scheduler.Start(ctx))

	serveErr := a.server.Serve(ctx, ln)
	if err := a.Close(); err != nil {
		a.logger.Warn(map[string]any{"error": err}, "shutdown_incomplete")
	}
	return serveErr
}

// Close stops background tasks, then the enforcer, then the state store.
func (a *Application) Close() error {
	var errs []error
	for _, h := range a.tasks {
		if err := h.Stop(); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", h.Name(), err))
		}
	}
	a.tasks = nil
	if a.enforcer != nil {
		if err := a.enforcer.Close(); err != nil {
			errs = append(errs, err)
		}
		a.enforcer = nil
	}
	if a.state != nil {
		if err := a.state.Close(); err != nil {
			errs = append(errs, err)
		}
		a.state = nil
	}
	return errors.Join(errs...)
}

// runClient executes one client subcommand and prints its JSON result.
func runClient(ctx context.Context, command string, c *control.Client, out io.Writer) error {
	var result any
	switch command {
	case "apply <domains>":
		return c.ApplyBlocklist(ctx, CLI.Apply.Domains)
	case "remove":
		return c.RemoveBlocklist(ctx)
	case "status":
		st, err := c.GetBlockerStatus(ctx)
		if err != nil {
			return err
		}
		result = st
	case "check-admin":
		ok, err := c.CheckAdmin(ctx)
		if err != nil {
			return err
		}
		result = control.AdminResponse{IsAdmin: ok}
	case "lock":
		lock, err := c.Lock(ctx)
		if err != nil {
			return err
		}
		result = lock
	case "extend-lock <hours>":
		expiry, err := c.ExtendLock(ctx, CLI.ExtendLock.Hours)
		if err != nil {
			return err
		}
		result = control.LockResponse{Expiry: expiry, Locked: true}
	case "streak":
		var start *string
		if CLI.Streak.Start != "" {
			start = &CLI.Streak.Start
		}
		data, err := c.StreakData(ctx, start, CLI.Streak.Best, CLI.Streak.Resets)
		if err != nil {
			return err
		}
		result = data
	case "native <method>":
		var payload map[string]any
		if err := json.Unmarshal([]byte(CLI.Native.Payload), &payload); err != nil {
			return fmt.Errorf("payload must be a JSON object: %w", err)
		}
		raw, err := c.InvokeNative(ctx, CLI.Native.Method, payload)
		if err != nil {
			return err
		}
		result = raw
	default:
		return fmt.Errorf("unknown command %q", command)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
