package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/roman-kulish/adc-capture/internal/acquire"
	"github.com/roman-kulish/adc-capture/internal/adc"
	"github.com/roman-kulish/adc-capture/internal/record"
	"github.com/roman-kulish/adc-capture/internal/serial"
	"github.com/roman-kulish/adc-capture/internal/storage"
)

const storageDir = "data"

// Run wires the acquisition pipeline from the configuration and drives it
// until ctx is cancelled.
func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	settings := adc.NewSettings()
	settings.SetActiveChannels(config.Capture.channelSet())
	settings.ConfigureTrigger(config.Capture.Trigger.toPolicy())

	display, err := adc.NewDisplayBuffer(config.Capture.DisplayCapacity)
	if err != nil {
		return fmt.Errorf("creating display buffer: %w", err)
	}

	recorder := record.New()
	if config.Recording.Enabled {
		if err = recorder.Start(config.Recording.Path); err != nil {
			return fmt.Errorf("starting recording: %w", err)
		}
		defer func() {
			if err := recorder.Stop(); err != nil {
				logger.Error(err.Error())
			}
		}()
	}

	options := []func(*acquire.Loop){acquire.WithLogger(logger)}

	if config.Storage.Enabled {
		store, err := createStorage(&config.Storage)
		if err != nil {
			return fmt.Errorf("creating storage: %w", err)
		}
		defer store.Close()

		sessionID, err := store.CreateSession(ctx, config.Serial.Device, config)
		if err != nil {
			return fmt.Errorf("creating session: %w", err)
		}

		options = append(options, acquire.WithArchiver(&sessionArchive{
			store:        store,
			sessionID:    sessionID,
			maxBatchSize: config.Storage.MaxBatchSize,
		}))
	}

	opener := func() (acquire.Source, error) {
		return serial.Open(serial.Config{
			Device:      config.Serial.Device,
			BaudRate:    config.Serial.BaudRate,
			ReadTimeout: time.Duration(config.Serial.ReadTimeout),
		})
	}

	loop := acquire.New(opener, settings, display, recorder, options...)

	go pollDisplay(ctx, display, time.Duration(config.Capture.PollInterval))

	err = loop.Run(ctx)

	logger.Info("capture finished",
		slog.String("samples", humanize.Comma(int64(loop.SamplesAccepted()))),
		slog.String("bytes", humanize.Bytes(loop.BytesRead())))

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// pollDisplay stands in for the UI surface: it drains the display buffer at
// the configured cadence and writes the records to stdout.
func pollDisplay(ctx context.Context, display *adc.DisplayBuffer, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, rec := range display.Drain() {
				fmt.Println(rec)
			}
		}
	}
}

// sessionArchive adapts the sqlite store to the loop's Archiver, chunking
// large passes into bounded transactions.
type sessionArchive struct {
	store        *storage.Store
	sessionID    int64
	maxBatchSize int
}

func (a *sessionArchive) StoreSamples(samples []adc.Sample) error {
	for chunk := range slices.Chunk(samples, a.maxBatchSize) {
		if err := a.store.StoreSamples(context.Background(), a.sessionID, chunk); err != nil {
			return fmt.Errorf("storing samples: %w", err)
		}
	}
	return nil
}

func createStorage(config *StorageConfig) (*storage.Store, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get current working directory: %w", err)
	}

	var dbPath string
	if config.DataDirectory != "" {
		dbPath = filepath.Join(wd, config.DataDirectory)
	} else {
		dbPath = filepath.Join(wd, storageDir)
	}

	stat, err := os.Stat(dbPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("storage directory '%s' does not exist: %w", dbPath, err)
		}
		return nil, fmt.Errorf("invalid storage directory '%s': %w", dbPath, err)
	}
	if !stat.IsDir() {
		return nil, fmt.Errorf("invalid storage directory '%s'", dbPath)
	}

	dbPath = filepath.Join(dbPath, fmt.Sprintf("adc_capture_%s.sqlite", time.Now().UTC().Format("20060102_150405")))
	return storage.New(dbPath), nil
}
