package app

import (
	"context"
	"fmt"
	"image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"time"

	"github.com/roman-kulish/adc-capture/internal/storage"
)

// Run renders one archived capture session to an image file.
func Run(ctx context.Context, config *Config, logger *slog.Logger) error {
	if _, err := os.Stat(config.DBPath); err != nil && os.IsNotExist(err) {
		return fmt.Errorf("database file '%s' does not exist: %w", config.DBPath, err)
	}

	store := storage.New(config.DBPath)
	defer store.Close()

	session, err := store.Session(ctx, config.SessionID)
	if err != nil {
		return fmt.Errorf("reading session: %w", err)
	}

	samples, err := store.Samples(ctx, config.SessionID)
	if err != nil {
		return fmt.Errorf("reading samples: %w", err)
	}

	waveform, err := NewWaveformData(samples)
	if err != nil {
		return err
	}

	logger.Info("finished reading samples",
		slog.Group("stats",
			slog.String("device", session.Device),
			slog.String("start", waveform.TimestampStart.Local().Format(time.DateTime)),
			slog.String("duration", waveform.Duration().String()),
			slog.Int("samples", waveform.NumSamples),
			slog.Int("triggers", waveform.NumTriggers),
		))

	renderer := NewWaveformRenderer(RenderConfig{
		Width:    config.Width,
		Height:   config.Height,
		FontPath: config.FontPath,
		Annotate: !config.NoAnnotations,
	})

	logger.Info("rendering waveform",
		slog.Group("image",
			slog.String("destination", config.OutputFile),
			slog.String("format", string(config.Format)),
			slog.Int("width", config.Width),
			slog.Int("height", config.Height),
		))

	img, err := renderer.Render(waveform)
	if err != nil {
		return fmt.Errorf("rendering waveform: %w", err)
	}

	out, err := os.Create(config.OutputFile)
	if err != nil {
		return err
	}
	defer out.Close()

	switch config.Format {
	case ImagePNG:
		err = png.Encode(out, img)

	case ImageJPEG:
		err = jpeg.Encode(out, img, &jpeg.Options{
			Quality: 98,
		})
	}
	return err
}
