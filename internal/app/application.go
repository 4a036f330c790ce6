package app

import (
	"bufio"
	"context"
	"encoding/hex"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"goadsb/internal/adsb"
	"goadsb/internal/events"
	"goadsb/internal/listener"
	"goadsb/internal/logging"
	natsclient "goadsb/internal/nats"
	"goadsb/internal/tracker"
)

// Application wires the listener, decode pipeline, and output sinks.
type Application struct {
	config  Config
	logger  *logrus.Logger
	decoder *adsb.Decoder
	udp     *listener.UDP
	rotator *logging.Rotator
	events  *events.Logger
	nats    *natsclient.Client
	tracker *tracker.Tracker
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewApplication creates a new application instance
func NewApplication(config Config) *Application {
	ctx, cancel := context.WithCancel(context.Background())

	logger := logrus.New()
	if config.Verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	return &Application{
		config: config,
		logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start runs the application until a shutdown signal arrives, or until
// the replay file is exhausted when replay mode is active.
func (app *Application) Start() error {
	app.logger.WithFields(logrus.Fields{
		"version":    Version,
		"build_time": BuildTime,
		"git_commit": GitCommit,
	}).Info("Starting extended squitter decoder")

	if err := app.initializeComponents(); err != nil {
		return fmt.Errorf("failed to initialize components: %w", err)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if app.config.ReplayFile != "" {
		err := app.replay(app.config.ReplayFile)
		app.shutdown()
		return err
	}

	if err := app.run(); err != nil {
		app.logger.WithError(err).Error("Application error")
		return err
	}

	<-sigChan
	app.logger.Info("Received shutdown signal")
	app.shutdown()

	return nil
}

// initializeComponents initializes all application components
func (app *Application) initializeComponents() error {
	var err error

	app.decoder = adsb.NewDecoder(app.config.Decoder, app.logger)
	app.tracker = tracker.New(tracker.DefaultTTL)

	app.rotator, err = logging.NewRotator(app.config.LogDir, "adsb_events", app.config.UseUTC, app.logger)
	if err != nil {
		return fmt.Errorf("failed to initialize log rotator: %w", err)
	}
	app.events = events.NewLogger(app.rotator, app.logger)

	if app.config.NATSURL != "" {
		app.nats, err = natsclient.New(app.config.NATSURL)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		app.logger.WithField("url", app.config.NATSURL).Info("Connected to NATS")
	}

	if app.config.ReplayFile == "" {
		app.udp = listener.NewUDP(app.config.UDPHost, app.config.UDPPort, app.handleDatagram, app.logger)
	}

	return nil
}

// run starts the long-running goroutines for live UDP decoding.
func (app *Application) run() error {
	if err := app.udp.Start(app.ctx); err != nil {
		return err
	}

	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		app.rotator.Start(app.ctx)
	}()

	app.wg.Add(1)
	go func() {
		defer app.wg.Done()
		app.reportStatistics()
	}()

	app.logger.Info("All components started successfully")
	return nil
}

// handleDatagram runs on the listener goroutine for every datagram.
func (app *Application) handleDatagram(data []byte, addr net.Addr) {
	record := app.decoder.Decode(data)
	if record == nil {
		return
	}
	app.emit(record, addr.String())
}

// replay feeds hex-encoded frames from a file through the pipeline,
// one frame per line. Blank lines and # comments are skipped.
func (app *Application) replay(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open replay file: %w", err)
	}
	defer f.Close()

	app.logger.WithField("file", path).Info("Replaying frames from file")

	lines := 0
	decoded := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines++

		raw, err := hex.DecodeString(line)
		if err != nil {
			// Not hex, feed the line bytes as-is so wrapped text
			// records still reach the parser.
			raw = []byte(scanner.Text())
		}

		if record := app.decoder.Decode(raw); record != nil {
			decoded++
			app.emit(record, "replay")
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read replay file: %w", err)
	}

	app.logger.WithFields(logrus.Fields{
		"lines":   lines,
		"decoded": decoded,
	}).Info("Replay finished")
	app.logStatistics()
	return nil
}

// emit fans one decoded record out to every configured sink.
func (app *Application) emit(record *adsb.Record, source string) {
	app.events.LogRecord(record, source)
	app.tracker.Update(record)

	if app.nats != nil {
		if err := app.nats.PublishRecord(record); err != nil {
			app.logger.WithError(err).Debug("Failed to publish record to NATS")
		}
	}

	if app.config.Verbose {
		app.logger.WithFields(logrus.Fields{
			"icao":      record.ICAO,
			"type_code": record.TypeCode,
		}).Debug("Decoded record")
	}
}

// reportStatistics reports processing statistics periodically
func (app *Application) reportStatistics() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-app.ctx.Done():
			return
		case <-ticker.C:
			app.logStatistics()
		}
	}
}

func (app *Application) logStatistics() {
	fields := logrus.Fields{
		"aircraft_tracked": app.tracker.Count(),
	}
	for name, value := range app.decoder.Stats() {
		fields[name] = value
	}
	if app.udp != nil {
		for name, value := range app.udp.Stats() {
			fields[name] = value
		}
	}
	for name, value := range app.events.Stats() {
		fields[name] = value
	}
	app.logger.WithFields(fields).Info("Processing statistics")
}

// shutdown gracefully shuts down the application
func (app *Application) shutdown() {
	app.logger.Info("Shutting down application")
	app.cancel()

	if app.udp != nil {
		app.udp.Stop()
	}

	done := make(chan struct{})
	go func() {
		app.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		app.logger.Info("All goroutines finished")
	case <-time.After(5 * time.Second):
		app.logger.Warn("Shutdown timeout, forcing exit")
	}

	if app.nats != nil {
		app.nats.Close()
	}
	if app.rotator != nil {
		app.rotator.Close()
	}

	app.logger.Info("Shutdown completed")
}
