package app

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/golang/freetype"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"

	"github.com/roman-kulish/adc-capture/internal/adc"
)

const (
	dpi          = 72.0
	fontSize     = 12.0
	tickMarkSize = 5

	// Border sizes in pixels
	topBorder    = 20
	leftBorder   = 70
	bottomBorder = 50
	rightBorder  = 20
)

var (
	backgroundColor = color.RGBA{R: 0x10, G: 0x10, B: 0x18, A: 0xff}
	gridColor       = color.RGBA{R: 0x30, G: 0x30, B: 0x40, A: 0xff}
	triggerColor    = color.RGBA{R: 0xff, G: 0x40, B: 0x40, A: 0xff}

	// Scope-style trace palette, one entry per channel
	traceColors = [adc.NumChannels]color.RGBA{
		{R: 0xff, G: 0xe0, B: 0x20, A: 0xff}, // CH1 yellow
		{R: 0x20, G: 0xe0, B: 0xff, A: 0xff}, // CH2 cyan
		{R: 0xff, G: 0x40, B: 0xff, A: 0xff}, // CH3 magenta
		{R: 0x40, G: 0xff, B: 0x60, A: 0xff}, // CH4 green
	}
)

// RenderConfig holds the waveform visualization options.
type RenderConfig struct {
	Width    int
	Height   int
	FontPath string
	Annotate bool
}

// WaveformRenderer draws archived channel traces into an image.
type WaveformRenderer struct {
	config RenderConfig
}

// NewWaveformRenderer creates a renderer with the given configuration.
func NewWaveformRenderer(config RenderConfig) *WaveformRenderer {
	return &WaveformRenderer{config: config}
}

// Render creates an image of the session traces with optional annotations.
func (r *WaveformRenderer) Render(w *WaveformData) (*image.RGBA, error) {
	fullWidth := r.config.Width + leftBorder + rightBorder
	fullHeight := r.config.Height + topBorder + bottomBorder
	img := image.NewRGBA(image.Rect(0, 0, fullWidth, fullHeight))

	draw.Draw(img, img.Bounds(), image.NewUniform(backgroundColor), image.Point{}, draw.Src)

	area := image.Rect(leftBorder, topBorder, leftBorder+r.config.Width, topBorder+r.config.Height)

	r.drawGrid(img, area, w)
	r.drawTraces(img, area, w)

	if r.config.Annotate {
		ann, err := newAnnotator(r.config.FontPath)
		if err != nil {
			return nil, fmt.Errorf("creating annotator: %w", err)
		}
		defer ann.Close()

		if err = ann.annotate(img, area, w); err != nil {
			return nil, fmt.Errorf("drawing annotations: %w", err)
		}
	}

	return img, nil
}

func (r *WaveformRenderer) drawGrid(img *image.RGBA, area image.Rectangle, w *WaveformData) {
	step := niceVoltageStep(w.VoltageMax - w.VoltageMin)

	for v := math.Ceil(w.VoltageMin/step) * step; v <= w.VoltageMax; v += step {
		y := voltageToY(v, area, w)
		for x := area.Min.X; x < area.Max.X; x++ {
			img.Set(x, y, gridColor)
		}
	}
}

func (r *WaveformRenderer) drawTraces(img *image.RGBA, area image.Rectangle, w *WaveformData) {
	for ch, samples := range w.Channels {
		if len(samples) == 0 {
			continue
		}

		trace := traceColors[ch]

		var prevX, prevY int
		for i, s := range samples {
			x := timeToX(s.Timestamp, area, w)
			y := voltageToY(s.Voltage, area, w)

			if i > 0 {
				drawLine(img, prevX, prevY, x, y, trace)
			}
			prevX, prevY = x, y

			if s.Trigger {
				drawTriggerMark(img, area, x)
			}
		}
	}
}

// drawTriggerMark draws a short vertical tick at the top of the plot where a
// trigger sample was captured.
func drawTriggerMark(img *image.RGBA, area image.Rectangle, x int) {
	for y := area.Min.Y; y < area.Min.Y+2*tickMarkSize; y++ {
		img.Set(x, y, triggerColor)
	}
}

// drawLine draws a straight segment using integer Bresenham stepping.
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, c color.Color) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}

	err := dx + dy
	for {
		img.Set(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		if e2 := 2 * err; e2 >= dy {
			err += dy
			x0 += sx
		} else {
			err += dx
			y0 += sy
		}
	}
}

func timeToX(ts time.Time, area image.Rectangle, w *WaveformData) int {
	span := w.Duration()
	if span <= 0 {
		return area.Min.X
	}
	ratio := float64(ts.Sub(w.TimestampStart)) / float64(span)
	return area.Min.X + int(ratio*float64(area.Dx()-1))
}

func voltageToY(v float64, area image.Rectangle, w *WaveformData) int {
	ratio := (w.VoltageMax - v) / (w.VoltageMax - w.VoltageMin)
	return area.Min.Y + int(ratio*float64(area.Dy()-1))
}

// Internal annotator implementation

type annotator struct {
	context  *freetype.Context
	fontFace font.Face
}

func newAnnotator(fontPath string) (*annotator, error) {
	fontBytes, err := os.ReadFile(fontPath)
	if err != nil {
		return nil, fmt.Errorf("reading font: %w", err)
	}

	parsedFont, err := freetype.ParseFont(fontBytes)
	if err != nil {
		return nil, fmt.Errorf("parsing font: %w", err)
	}

	ctx := freetype.NewContext()
	ctx.SetDPI(dpi)
	ctx.SetFont(parsedFont)
	ctx.SetFontSize(fontSize)
	ctx.SetHinting(font.HintingNone)
	ctx.SetSrc(image.White)

	return &annotator{
		context: ctx,
		fontFace: truetype.NewFace(parsedFont, &truetype.Options{
			Size:    fontSize,
			DPI:     dpi,
			Hinting: font.HintingNone,
		}),
	}, nil
}

func (a *annotator) Close() error {
	if a.fontFace != nil {
		return a.fontFace.Close()
	}
	return nil
}

func (a *annotator) annotate(img *image.RGBA, area image.Rectangle, w *WaveformData) error {
	a.context.SetClip(img.Bounds())
	a.context.SetDst(img)

	if err := a.drawVoltageScale(img, area, w); err != nil {
		return fmt.Errorf("drawing voltage scale: %w", err)
	}
	if err := a.drawTimeScale(img, area, w); err != nil {
		return fmt.Errorf("drawing time scale: %w", err)
	}
	if err := a.drawInfoBar(img, area, w); err != nil {
		return fmt.Errorf("drawing info bar: %w", err)
	}
	return nil
}

func (a *annotator) drawVoltageScale(img *image.RGBA, area image.Rectangle, w *WaveformData) error {
	step := niceVoltageStep(w.VoltageMax - w.VoltageMin)

	metrics := a.fontFace.Metrics()
	fontHeight := (metrics.Ascent + metrics.Descent).Round()

	for v := math.Ceil(w.VoltageMin/step) * step; v <= w.VoltageMax; v += step {
		y := voltageToY(v, area, w)

		for x := area.Min.X - tickMarkSize; x < area.Min.X; x++ {
			img.Set(x, y, color.White)
		}

		label := fmt.Sprintf("%.1f V", v)
		pt := freetype.Pt(5, y+fontHeight/2-metrics.Descent.Round())
		if _, err := a.context.DrawString(label, pt); err != nil {
			return fmt.Errorf("drawing voltage label: %w", err)
		}
	}
	return nil
}

func (a *annotator) drawTimeScale(img *image.RGBA, area image.Rectangle, w *WaveformData) error {
	const labels = 6

	for i := 0; i <= labels; i++ {
		ratio := float64(i) / labels
		x := area.Min.X + int(ratio*float64(area.Dx()-1))

		for y := area.Max.Y; y < area.Max.Y+tickMarkSize; y++ {
			img.Set(x, y, color.White)
		}

		offset := time.Duration(ratio * float64(w.Duration()))
		seconds, suffix := humanize.ComputeSI(offset.Seconds())
		label := fmt.Sprintf("+%.1f %ss", seconds, suffix)

		width := font.MeasureString(a.fontFace, label)
		pt := freetype.Pt(x-width.Round()/2, area.Max.Y+tickMarkSize+a.fontFace.Metrics().Ascent.Round())
		if _, err := a.context.DrawString(label, pt); err != nil {
			return fmt.Errorf("drawing time label: %w", err)
		}
	}
	return nil
}

func (a *annotator) drawInfoBar(img *image.RGBA, area image.Rectangle, w *WaveformData) error {
	info := fmt.Sprintf("Start: %s; Duration: %s; Samples: %s; Triggers: %s",
		w.TimestampStart.Local().Format(time.DateTime),
		w.Duration().Round(time.Millisecond),
		humanize.Comma(int64(w.NumSamples)),
		humanize.Comma(int64(w.NumTriggers)))

	metrics := a.fontFace.Metrics()
	textY := img.Bounds().Max.Y - metrics.Descent.Round() - 5

	pt := freetype.Pt(area.Min.X, textY)
	if _, err := a.context.DrawString(info, pt); err != nil {
		return fmt.Errorf("drawing info text: %w", err)
	}
	return nil
}

// Helper functions

func niceVoltageStep(span float64) float64 {
	steps := []float64{0.1, 0.2, 0.5, 1, 2, 5, 10}

	target := span / 8 // aim for about 8 grid lines
	for _, step := range steps {
		if step >= target {
			return step
		}
	}
	return 10
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
