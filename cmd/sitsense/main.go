// sitsense: posture monitoring daemon
// Ingests pose keypoints, scores posture, fires haptic alerts, and
// reports windowed scores to the SitSense backend.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sitsense/go-sitsense/internal/config"
	"github.com/sitsense/go-sitsense/internal/log"
	"github.com/sitsense/go-sitsense/pkg/backend"
	"github.com/sitsense/go-sitsense/pkg/haptic"
	"github.com/sitsense/go-sitsense/pkg/posture"
	"github.com/sitsense/go-sitsense/pkg/web"
)

var version = "1.0.0"

var (
	port       = flag.String("port", config.DefaultDashboardPort, "Dashboard HTTP port")
	configPath = flag.String("config", "", "Path to a YAML config file (optional)")
	pigpioAddr = flag.String("pigpio", "localhost:8888", "pigpiod address for the vibration motor")
	motorPin   = flag.Int("motor-pin", 18, "BCM pin driving the vibration motor")
	noHaptics  = flag.Bool("no-haptics", false, "Disable the vibration motor")
)

func main() {
	flag.Parse()
	log.Init(config.LogLevel())

	fmt.Println()
	fmt.Println("🪑 SitSense v" + version)
	fmt.Println("   Posture monitoring daemon")
	fmt.Println()

	cfg := posture.DefaultConfig()
	if *configPath != "" {
		loaded, err := posture.LoadFile(*configPath)
		if err != nil {
			log.Error("Config load failed", "path", *configPath, "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Settings default to an active session so the device works offline.
	store := backend.NewStore(posture.Settings{
		Sensitivity:        cfg.DefaultSensitivity,
		VibrationIntensity: 100,
		HasActiveSession:   true,
	})

	// Backend wiring is optional: without an API key the daemon runs
	// standalone with local defaults and no telemetry.
	var sink posture.TelemetrySink
	apiKey := config.APIKey()
	if apiKey == "" {
		log.Warn("API_KEY not set, running offline")
	} else {
		baseURL := config.BaseURL(config.DefaultBaseURL)
		deviceID := config.DeviceID()
		client := backend.NewClient(baseURL, apiKey, deviceID)

		if config.TelemetryDisabled() {
			log.Info("Telemetry disabled")
		} else {
			sink = client
		}

		go backend.NewPoller(client, store).Run(ctx)
		go backend.NewSocketClient(socketURL(baseURL), apiKey, deviceID, store).Run(ctx)
	}

	actuator := buildActuator(ctx)

	server := web.NewServer(*port, nil)
	pipeline := posture.New(cfg, server, actuator, sink)
	pipeline.SetSettingsSource(store)
	pipeline.SetStatePublisher(server)
	server.SetStatsProvider(pipeline)

	go pipeline.Run(ctx)
	go func() {
		log.Info("Dashboard", "url", "http://localhost:"+*port)
		if err := server.Start(ctx); err != nil {
			log.Error("Web server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("Shutdown error", "error", err)
	}
	server.Close()

	log.Info("Goodbye")
}

// buildActuator connects to pigpiod, falling back to a no-op actuator
// when haptics are disabled or the daemon is unreachable.
func buildActuator(ctx context.Context) posture.Actuator {
	if *noHaptics {
		return haptic.NopActuator{}
	}

	act, err := haptic.NewPigpioActuator(*pigpioAddr, *motorPin)
	if err != nil {
		log.Warn("pigpiod unavailable, haptics disabled", "error", err)
		return haptic.NopActuator{}
	}
	go func() {
		act.Run(ctx)
		act.Close()
	}()
	return act
}

// socketURL derives the settings websocket endpoint from the API base URL.
func socketURL(baseURL string) string {
	return "ws" + strings.TrimPrefix(baseURL, "http") + "/ws/device"
}
