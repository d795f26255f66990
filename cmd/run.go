package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"stagelights/internal/api"
	"stagelights/internal/artnet"
	"stagelights/internal/clientmqtt"
	"stagelights/internal/config"
	"stagelights/internal/engine"
	"stagelights/internal/logger"
	"stagelights/internal/osc"
	"stagelights/internal/render"
	"stagelights/internal/rig"
)

const shutdownTimeout = 10 * time.Second

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the lighting daemon",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, err := logger.NewLogger(cfg.Logger)
		if err != nil {
			return fmt.Errorf("failed to create a logger: %w", err)
		}

		ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		return run(ctx, cfg, log)
	},
}

// transport is the output chosen by the configuration plus what it takes
// to shut it down.
type transport struct {
	output rig.Output
	mqtt   *clientmqtt.ClientMQTT
	nodes  func() []artnet.Node
	stop   []func()
}

func (t *transport) close() {
	for i := len(t.stop) - 1; i >= 0; i-- {
		t.stop[i]()
	}
}

func openTransport(ctx context.Context, cfg *config.Config, log *logger.Log) (*transport, error) {
	t := &transport{output: rig.Output{Universe: cfg.Engine.Universe}}

	switch cfg.Transport.Kind {
	case config.TransportArtNet:
		ctrl, err := artnet.NewController(log, cfg.ArtNet)
		if err != nil {
			return nil, fmt.Errorf("error while creating a new controller art-net: %w", err)
		}
		if err := ctrl.Start(ctx); err != nil {
			return nil, fmt.Errorf("failed to start art-net service: %w", err)
		}
		t.output.Frame = ctrl
		t.nodes = ctrl.Nodes
		t.stop = append(t.stop, ctrl.Stop)

	case config.TransportUnicast:
		sender, err := artnet.DialUnicast(log, cfg.ArtNet.Target, cfg.ArtNet.Port)
		if err != nil {
			return nil, err
		}
		t.output.Frame = sender
		t.stop = append(t.stop, func() { _ = sender.Close() })

	case config.TransportOSC:
		t.output.Change = osc.NewSender(log, cfg.OSC, cfg.Engine.Universe)

	case config.TransportMQTT:
		t.mqtt = clientmqtt.NewClient(log, cfg.MQTT, cfg.Engine.Universe)
		t.output.Change = t.mqtt
	}

	if t.mqtt == nil && cfg.MQTT.Control {
		t.mqtt = clientmqtt.NewClient(log, cfg.MQTT, cfg.Engine.Universe)
	}
	return t, nil
}

func run(ctx context.Context, cfg *config.Config, log *logger.Log) error {
	log.Module("main").Infof("stagelights %s starting, transport %s", Version, cfg.Transport.Kind)

	out, err := openTransport(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer out.close()

	manager := rig.NewManager(log, out.output)

	rigPath, err := homedir.Expand(cfg.Rig.Path)
	if err != nil {
		return fmt.Errorf("rig path: %w", err)
	}
	if err := loadRig(manager, log, rigPath); err != nil {
		return err
	}

	eng := engine.New(log, manager, cfg.Engine.FrameRate, cfg.Engine.Universe)

	if out.mqtt != nil {
		if err := out.mqtt.Start(ctx, eng); err != nil {
			return fmt.Errorf("failed to start MQTT service: %w", err)
		}
		defer func() {
			if err := out.mqtt.Stop(); err != nil {
				log.Errorf("failed to stop MQTT service: %v", err)
			}
		}()
	}

	if cfg.Rig.Watch && rigPath != "" {
		reload := func() { _ = rig.Reload(manager, log, rigPath) }
		if err := rig.Watch(ctx, log, rigPath, reload); err != nil {
			log.Module("rig").Warnf("rig file is not watched: %v", err)
		}
	}

	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-hup:
				_ = rig.Reload(manager, log, rigPath)
			}
		}
	}()

	eng.Start()

	var srv *http.Server
	if cfg.HTTP.Enabled {
		lights := render.NewBuilder(log)
		lights.Shading, _ = render.ParseShading(cfg.Render.Shading)

		handler := api.New(log, manager, eng, lights, api.Options{
			Version:     Version,
			CORSOrigins: cfg.HTTP.CORSOrigins,
			Nodes:       out.nodes,
		}).Router()

		srv = &http.Server{
			Addr:              cfg.HTTP.Addr,
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
			IdleTimeout:       60 * time.Second,
		}
		go func() {
			log.Module("api").Infof("listening on %s", cfg.HTTP.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Module("api").Errorf("server error: %v", err)
			}
		}()
	}

	<-ctx.Done()
	log.Module("main").Info("shutting down")

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Module("api").Errorf("server shutdown error: %v", err)
		}
	}

	if err := eng.Stop(); err != nil {
		log.Module("engine").Errorf("frame loop: %v", err)
	}
	report := manager.Blackout()
	if report.Failed > 0 {
		log.Module("rig").Warn("blackout could not be sent")
	}

	log.Info("shutdown complete")
	return nil
}

// loadRig loads the rig file if there is one. A missing file starts an
// empty rig so fixtures can be patched in later by writing it.
func loadRig(m *rig.Manager, log *logger.Log, path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		log.Module("rig").Warnf("rig file %s does not exist, starting empty", path)
		return nil
	}
	return rig.Reload(m, log, path)
}
