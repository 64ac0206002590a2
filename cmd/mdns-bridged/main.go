package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/mdnsbridge/mdns-bridged/internal/mdns/bridge"
	"github.com/mdnsbridge/mdns-bridged/internal/mdns/common/clock"
	"github.com/mdnsbridge/mdns-bridged/internal/mdns/common/log"
	"github.com/mdnsbridge/mdns-bridged/internal/mdns/config"
	"github.com/mdnsbridge/mdns-bridged/internal/mdns/domain"
	"github.com/mdnsbridge/mdns-bridged/internal/mdns/gateways/socket"
	"github.com/mdnsbridge/mdns-bridged/internal/mdns/topology"
)

const (
	version = "0.1.0-dev"
	appName = "mdns-bridged"
)

// Application holds every top-level component of the running daemon.
type Application struct {
	config  *config.AppConfig
	workers []*bridge.Worker
	clk     clock.Clock
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	if err := log.Configure(cfg.Env, cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Logging configuration error: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	log.Info(map[string]any{
		"version":    version,
		"env":        cfg.Env,
		"log_level":  cfg.LogLevel,
		"interfaces": len(cfg.Interfaces),
	}, "starting mdns-bridged")

	app, err := buildApplication(cfg)
	if err != nil {
		log.Fatal(map[string]any{"error": err.Error()}, "failed to build application")
	}

	if cfg.PIDFile != "" {
		if err := writePIDFile(cfg.PIDFile); err != nil {
			log.Warn(map[string]any{"error": err.Error(), "path": cfg.PIDFile}, "failed to write pid file")
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		log.Info(map[string]any{"signal": sig.String()}, "shutdown signal received")
		cancel()
	}()

	// No graceful drain: an in-flight worker just stops reading once ctx
	// is canceled. mDNS traffic is soft state that peers keep re-announcing,
	// so a dropped in-flight datagram is harmless.
	if err := app.Run(ctx); err != nil && err != context.Canceled {
		log.Fatal(map[string]any{"error": err.Error()}, "worker failed")
	}

	log.Info(nil, "mdns-bridged stopped")
}

// buildApplication resolves interfaces, opens sockets, builds topology,
// and constructs one Worker per address family with two or more
// enabled interfaces.
func buildApplication(cfg *config.AppConfig) (*Application, error) {
	logger := log.GetLogger()

	globalFilter, err := cfg.GlobalFilter()
	if err != nil {
		return nil, fmt.Errorf("global filter: %w", err)
	}

	specs := make([]topology.Spec, 0, len(cfg.Interfaces))
	for _, ic := range cfg.Interfaces {
		netIfc, err := net.InterfaceByName(ic.Name)
		if err != nil {
			return nil, fmt.Errorf("interface %q: %w", ic.Name, err)
		}

		spec := topology.Spec{
			Name:     ic.Name,
			Index:    netIfc.Index,
			EnableV4: ic.EnableV4,
			EnableV6: ic.EnableV6,
		}
		if spec.InboundFilter, err = ic.InboundFilter(); err != nil {
			return nil, fmt.Errorf("interface %q: inbound filter: %w", ic.Name, err)
		}
		if spec.OutboundFilter, err = ic.OutboundFilter(); err != nil {
			return nil, fmt.Errorf("interface %q: outbound filter: %w", ic.Name, err)
		}
		if ic.EnableV4 {
			ep, err := socket.OpenV4(netIfc)
			if err != nil {
				return nil, fmt.Errorf("interface %q: %w", ic.Name, err)
			}
			spec.EndpointV4 = ep
		}
		if ic.EnableV6 {
			ep, err := socket.OpenV6(netIfc)
			if err != nil {
				return nil, fmt.Errorf("interface %q: %w", ic.Name, err)
			}
			spec.EndpointV6 = ep
		}
		specs = append(specs, spec)
	}

	ifaces, err := topology.Build(specs, globalFilter)
	if err != nil {
		return nil, fmt.Errorf("topology: %w", err)
	}

	var workers []*bridge.Worker
	for _, fam := range []domain.Family{domain.FamilyIPv4, domain.FamilyIPv6} {
		var enabled []*domain.Interface
		for _, ifc := range ifaces {
			if ifc.Enabled(fam) {
				enabled = append(enabled, ifc)
			}
		}
		if len(enabled) < 2 {
			continue
		}
		w, err := bridge.New(fam, enabled, logger, cfg.WarnUnsupportedTypes, cfg.FilteringEnabled)
		if err != nil {
			return nil, fmt.Errorf("building %s worker: %w", fam, err)
		}
		workers = append(workers, w)
		log.Info(map[string]any{
			"family":     fam.String(),
			"interfaces": len(enabled),
		}, "bridge worker configured")
	}

	if len(workers) == 0 {
		return nil, fmt.Errorf("no address family has two or more enabled interfaces")
	}

	return &Application{config: cfg, workers: workers, clk: clock.RealClock{}}, nil
}

// Run starts every worker and the heartbeat loop, and blocks until ctx
// is canceled.
func (app *Application) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	errs := make(chan error, len(app.workers))

	for _, w := range app.workers {
		wg.Add(1)
		go func(w *bridge.Worker) {
			defer wg.Done()
			if err := w.Run(ctx); err != nil && err != context.Canceled {
				errs <- fmt.Errorf("%s worker: %w", w.Family, err)
			}
		}(w)
	}

	if app.config.HeartbeatSeconds > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.heartbeat(ctx, time.Duration(app.config.HeartbeatSeconds)*time.Second)
		}()
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		return err
	}
	return ctx.Err()
}

// heartbeat logs a periodic uptime line until ctx is canceled.
func (app *Application) heartbeat(ctx context.Context, interval time.Duration) {
	start := app.clk.Now()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			log.Info(heartbeatFields(app.clk, start), "mdns-bridged heartbeat")
		}
	}
}

// heartbeatFields computes the log fields for one heartbeat line,
// factored out so the uptime computation is testable without a real
// ticker.
func heartbeatFields(clk clock.Clock, start time.Time) map[string]any {
	return map[string]any{
		"uptime": clk.Now().Sub(start).Round(time.Second).String(),
	}
}

// writePIDFile writes the current process id to path.
func writePIDFile(path string) error {
	return os.WriteFile(path, []byte(strconv.Itoa(os.Getpid())), 0o644)
}
