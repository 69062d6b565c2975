package main

import (
	"context"
	"flag"
	"image"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/example/dxlight/internal/capture"
	"github.com/example/dxlight/internal/config"
	"github.com/example/dxlight/internal/led"
	"github.com/example/dxlight/internal/mode"
	"github.com/example/dxlight/internal/pipeline"
	"github.com/example/dxlight/internal/telemetry"
	"github.com/example/dxlight/internal/ws"
)

func main() {
	// ---- Flags (config.yaml overrides most) ----
	var (
		configPath = flag.String("config", "config.yaml", "path to config.yaml")
		driver     = flag.String("driver", "", "driver: hid | spi | sim (overrides config)")
		addr       = flag.String("addr", "", "HTTP listen address (overrides config)")
		modeFlag   = flag.String("mode", "", "startup mode (overrides config)")
		debug      = flag.Bool("debug", false, "debug logging")
	)
	flag.Parse()

	// ---- Logging ----
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen})
	if *debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	// ---- Load config.yaml (optional) ----
	cfg := config.Default()
	if c, err := config.Load(*configPath); err != nil {
		log.Warn().Err(err).Str("path", *configPath).Msg("config load failed; using defaults")
	} else {
		cfg = *c
	}
	if *driver != "" {
		cfg.Driver = *driver
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *modeFlag != "" {
		cfg.Mode = *modeFlag
	} else if !cfg.ResumeLastMode {
		cfg.Mode = string(mode.Ambilight)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("configuration rejected")
	}
	store := config.NewStore(cfg)

	// ---- Driver selection, falling back to SIM on hardware trouble ----
	var drv led.Driver
	switch cfg.Driver {
	case "hid":
		h, err := led.NewHID(cfg.Device.VID, cfg.Device.PID, cfg.ZoneCount)
		if err != nil {
			log.Fatal().Err(err).Msg("hid channel rejected zone count")
		}
		if err := h.Connect(); err != nil {
			// Not fatal; the channel reconnects from the render loop.
			log.Warn().Err(err).Msg("device not available yet; will keep retrying")
		}
		drv = h

	case "spi":
		spiDev := cfg.SPI.Dev
		if spiDev == "" {
			spiDev = "/dev/spidev0.0"
		}
		s, err := led.NewSPIStrip(spiDev, cfg.ZoneCount, cfg.SPI.SpeedHz)
		if err != nil {
			log.Warn().Err(err).Str("dev", spiDev).Msg("SPI init failed; falling back to SIM")
			drv = led.NewSim(cfg.ZoneCount)
		} else {
			drv = s
		}

	default:
		drv = led.NewSim(cfg.ZoneCount)
	}

	// ---- Capture source ----
	timeout := capture.DefaultTimeout
	if cfg.Capture.TimeoutMS > 0 {
		timeout = time.Duration(cfg.Capture.TimeoutMS) * time.Millisecond
	}
	var region image.Rectangle
	if r := cfg.Capture.Region; r.W > 0 && r.H > 0 {
		region = image.Rect(r.X, r.Y, r.X+r.W, r.Y+r.H)
	}
	src := capture.NewScreen(cfg.Capture.Display, region, timeout)

	// ---- Pipeline ----
	pipe, err := pipeline.New(store, src, drv)
	if err != nil {
		log.Fatal().Err(err).Msg("pipeline rejected configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pipeDone := make(chan error, 1)
	go func() { pipeDone <- pipe.Run(ctx) }()

	// ---- HTTP routes ----
	hub := ws.NewHub(store, pipe, *configPath)
	go hub.Run(ctx)

	mux := http.NewServeMux()
	hub.Routes(mux)
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      withCORS(mux),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Info().Str("addr", cfg.Addr).Str("driver", cfg.Driver).Str("mode", cfg.Mode).Msg("HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server crashed")
		}
	}()

	// ---- Telemetry (optional) ----
	if cfg.MQTT.Enabled {
		go telemetry.NewPublisher(cfg.MQTT, pipe).Run(ctx)
	}

	// ---- Graceful shutdown ----
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-ch:
		log.Info().Str("signal", s.String()).Msg("shutting down")
	case err := <-pipeDone:
		if err != nil {
			log.Error().Err(err).Msg("pipeline halted")
		}
	}

	cancel()
	_ = srv.Close()

	// The pipeline blanks the strip and closes the driver on exit.
	select {
	case <-pipeDone:
	case <-time.After(2 * time.Second):
	}
}

func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(200)
			return
		}
		h.ServeHTTP(w, r)
	})
}
