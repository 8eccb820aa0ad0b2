// Command pyrod runs the firing console: it transmits igniter codes
// over a 433 MHz OOK link, gates firing behind an operator
// authorization code received over the same link, and serves the
// operator web console.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rkorell/pyrod/internal/auth"
	"github.com/rkorell/pyrod/internal/config"
	"github.com/rkorell/pyrod/internal/events"
	"github.com/rkorell/pyrod/internal/fire"
	"github.com/rkorell/pyrod/internal/inventory"
	"github.com/rkorell/pyrod/internal/radio"
	"github.com/rkorell/pyrod/internal/weather"
	"github.com/rkorell/pyrod/internal/web"
)

func main() {
	configPath := flag.String("config", "config.json", "Console configuration file")
	httpAddr := flag.String("http", ":8080", "Console HTTP address")
	broker := flag.String("broker", "", "MQTT broker for audit events (overrides mqtt.broker from the config)")
	secretsPath := flag.String("secrets", "secrets.json", "Weather API secrets file (missing disables weather)")
	igniterPath := flag.String("igniters", "igniters.json", "Standalone igniter availability store")

	flag.Parse()

	if err := run(*configPath, *httpAddr, *broker, *secretsPath, *igniterPath); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(configPath, httpAddr, broker, secretsPath, igniterPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	platform := radio.Detect()
	log.Printf("receive platform: %s", platform)
	if platform == radio.PlatformSerial && cfg.Serial.Port == "" && cfg.AuthRequired() {
		log.Printf("warning: serial.port not configured; authorization will fail on this platform")
	}

	// Transmitter
	var tx radio.Transmitter
	switch cfg.TxMode() {
	case config.TxModeCodesend:
		tx, err = radio.NewCodesendTransmitter(cfg.Sender.CodesendPath, cfg.Params())
	default:
		tx, err = radio.NewGPIOTransmitter("", cfg.Params())
	}
	if err != nil {
		return fmt.Errorf("init transmitter: %w", err)
	}
	defer tx.Close()

	// Authorization receiver, opened per session so the line is free
	// between attempts.
	factory := func() (radio.Receiver, error) {
		if platform == radio.PlatformGPIO {
			rx, err := radio.NewGPIOReceiver(radio.GPIOReceiverConfig{
				Pin:      *cfg.Receiver.GPIO,
				Glitch:   time.Duration(cfg.Receiver.GlitchUs) * time.Microsecond,
				Watchdog: time.Duration(cfg.Receiver.WatchdogMs) * time.Millisecond,
			})
			if err != nil {
				return nil, err
			}
			return rx, nil
		}
		rx, err := radio.NewSerialReceiver(cfg.Serial.Port)
		if err != nil {
			return nil, err
		}
		return rx, nil
	}
	authorizer := auth.New(cfg.AuthCode(), cfg.AuthRequired(), cfg.AuthTimeout(), factory)

	// Standalone igniter availability
	var store *inventory.Store
	var avail fire.Availability
	if cfg.DirectCount() > 0 {
		store, err = inventory.Open(igniterPath, cfg.DirectCount())
		if err != nil {
			return fmt.Errorf("open igniter store: %w", err)
		}
		avail = store
	}

	ctrl := fire.NewController(fire.NewState(), tx, avail,
		cfg.GroupBases(), cfg.DirectFirstBox(), cfg.DirectCount())

	// Audit publishing is best-effort; the console runs without it.
	broker = resolveBroker(broker, cfg.Broker())
	var audit events.Publisher = events.NopPublisher{}
	if broker != "" {
		pub, err := events.NewRealPublisher(broker)
		if err != nil {
			log.Printf("mqtt connect %s failed: %v (audit disabled)", broker, err)
		} else {
			audit = pub
			defer pub.Close()
		}
	}

	var wx *weather.Client
	if secrets, err := weather.LoadSecrets(secretsPath); err != nil {
		log.Printf("weather disabled: %v", err)
	} else {
		wx = weather.NewClient(secrets)
	}

	startup := events.SystemEvent{
		Timestamp: time.Now(),
		Event:     "STARTUP",
		Retained:  true,
	}
	if err := audit.PublishSystem(startup); err != nil {
		log.Printf("publish startup event: %v", err)
	}

	srv := web.New(web.Options{
		Addr:       httpAddr,
		Controller: ctrl,
		Authorizer: authorizer,
		Store:      store,
		Weather:    wx,
		Audit:      audit,
		Groups:     cfg.EnabledGroups(),
	})
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("http server error: %v", err)
		}
	}()
	log.Printf("console listening on %s, groups=%d, igniters=%d",
		httpAddr, len(cfg.EnabledGroups()), cfg.DirectCount())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	s := <-sigCh
	log.Printf("received %v, shutting down", s)

	shutdown := events.SystemEvent{
		Timestamp: time.Now(),
		Event:     "SHUTDOWN",
		Reason:    signalName(s),
		Retained:  true,
	}
	if err := audit.PublishSystem(shutdown); err != nil {
		log.Printf("publish shutdown event: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// resolveBroker picks the audit broker: the -broker flag when given,
// otherwise mqtt.broker from the config. Empty means no audit trail.
func resolveBroker(flagValue, configured string) string {
	if flagValue != "" {
		return flagValue
	}
	return configured
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}
