// Package pipeline runs the viewfinder loop: capture a camera frame, crop a
// window of it into the display, and periodically report timing.
package pipeline

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/ironsheep/viewfinder/internal/capture"
	"github.com/ironsheep/viewfinder/internal/imaging"
)

// ErrorPolicy selects what Run does when a frame fails.
type ErrorPolicy string

const (
	// Skip logs the failure and moves on to the next frame.
	Skip ErrorPolicy = "skip"
	// Halt stops the loop and returns the failure.
	Halt ErrorPolicy = "halt"
)

// ParsePolicy accepts "skip" or "halt"; empty selects Skip.
func ParsePolicy(s string) (ErrorPolicy, error) {
	switch ErrorPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", Skip:
		return Skip, nil
	case Halt:
		return Halt, nil
	default:
		return "", errors.Errorf("unknown error policy %q", s)
	}
}

// DefaultReportInterval is used when Options.ReportInterval is zero.
const DefaultReportInterval = time.Second

// Options tunes a Pipeline. The zero value is usable.
type Options struct {
	// Window is the camera region shown on the display. Its size must match
	// the display. The zero Rect selects a display-sized window centered on
	// the camera frame.
	Window imaging.Rect

	// ReportInterval is the minimum time between timing reports.
	ReportInterval time.Duration

	// FrameInterval paces the loop. Zero runs frames back to back.
	FrameInterval time.Duration

	// MaxFrames stops Run after that many frame attempts. Zero runs until
	// the context is done.
	MaxFrames int

	OnError ErrorPolicy

	// Logger receives reports and skipped-frame errors. Nil uses log.Default().
	Logger *log.Logger
}

// Stats accumulates loop timings.
type Stats struct {
	Frames          int           `json:"frames"`
	Errors          int           `json:"errors"`
	CaptureTime     time.Duration `json:"capture_time"`
	CropTime        time.Duration `json:"crop_time"`
	LastCapture     time.Duration `json:"last_capture"`
	LastCrop        time.Duration `json:"last_crop"`
	FramesPerSecond float64       `json:"frames_per_second"`
}

// Pipeline moves frames from a capture source to a display image.
type Pipeline struct {
	src     capture.Source
	frame   *imaging.Image
	sink    *imaging.Image
	cropper *imaging.Cropper
	opts    Options
	log     *log.Logger

	mu    sync.Mutex
	stats Stats
}

// New builds a pipeline that captures into frame and crops into sink.
//
// frame holds the camera geometry and format; sink is the display. Both must
// be valid and share a format, and the window must lie inside frame and
// match the size of sink. Crops are written densely, so sink rows must not
// carry padding (Pitch == Width).
func New(src capture.Source, frame, sink *imaging.Image, cropper *imaging.Cropper, opts Options) (*Pipeline, error) {
	if src == nil {
		return nil, errors.New("nil capture source")
	}
	if err := frame.Validate(); err != nil {
		return nil, errors.Wrap(err, "camera frame")
	}
	if err := sink.Validate(); err != nil {
		return nil, errors.Wrap(err, "display")
	}
	if frame.Format != sink.Format {
		return nil, errors.Wrapf(imaging.ErrFormatMismatch, "camera %s, display %s", frame.Format, sink.Format)
	}
	if sink.Pitch != sink.Width {
		return nil, errors.Wrapf(imaging.ErrInvalidBuffer, "display pitch %d must equal width %d",
			sink.Pitch, sink.Width)
	}

	if opts.Window == (imaging.Rect{}) {
		w, err := imaging.CenterRect(frame.Width, frame.Height, sink.Width, sink.Height)
		if err != nil {
			return nil, errors.Wrap(err, "display larger than camera frame")
		}
		opts.Window = w
	}
	if !opts.Window.In(frame.Width, frame.Height) {
		return nil, errors.Wrapf(imaging.ErrOutOfRange, "window %s of %dx%d camera frame",
			opts.Window, frame.Width, frame.Height)
	}
	if opts.Window.Dx() != sink.Width || opts.Window.Dy() != sink.Height {
		return nil, errors.Wrapf(imaging.ErrSizeMismatch, "window %s, display %dx%d",
			opts.Window, sink.Width, sink.Height)
	}

	policy, err := ParsePolicy(string(opts.OnError))
	if err != nil {
		return nil, err
	}
	opts.OnError = policy
	if opts.ReportInterval <= 0 {
		opts.ReportInterval = DefaultReportInterval
	}
	if cropper == nil {
		cropper = imaging.NewCropper(nil)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	return &Pipeline{
		src:     src,
		frame:   frame,
		sink:    sink,
		cropper: cropper,
		opts:    opts,
		log:     logger,
	}, nil
}

// Window returns the camera region being displayed.
func (p *Pipeline) Window() imaging.Rect {
	return p.opts.Window
}

// Stats returns a snapshot of the accumulated timings.
func (p *Pipeline) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}

// Run loops until ctx is done, MaxFrames attempts have been made, or a frame
// fails under the Halt policy.
func (p *Pipeline) Run(ctx context.Context) error {
	var tick <-chan time.Time
	if p.opts.FrameInterval > 0 {
		t := time.NewTicker(p.opts.FrameInterval)
		defer t.Stop()
		tick = t.C
	}

	lastReport := time.Now()
	fpsStart, fpsFrames := lastReport, 0

	for n := 0; p.opts.MaxFrames == 0 || n < p.opts.MaxFrames; n++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if tick != nil && n > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-tick:
			}
		}

		captureTime, cropTime, err := p.step(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.mu.Lock()
			p.stats.Errors++
			p.mu.Unlock()
			if p.opts.OnError == Halt {
				return err
			}
			p.log.Printf("Frame %d skipped: %v", n, err)
			continue
		}

		fpsFrames++
		now := time.Now()
		p.mu.Lock()
		p.stats.Frames++
		p.stats.CaptureTime += captureTime
		p.stats.CropTime += cropTime
		p.stats.LastCapture = captureTime
		p.stats.LastCrop = cropTime
		if elapsed := now.Sub(fpsStart).Seconds(); elapsed >= 1.0 {
			p.stats.FramesPerSecond = float64(fpsFrames) / elapsed
			fpsStart, fpsFrames = now, 0
		}
		p.mu.Unlock()

		if now.Sub(lastReport) >= p.opts.ReportInterval {
			lastReport = now
			p.report(captureTime, cropTime)
		}
	}
	return nil
}

func (p *Pipeline) step(ctx context.Context) (captureTime, cropTime time.Duration, err error) {
	start := time.Now()
	if err := p.src.Capture(ctx, p.frame); err != nil {
		return 0, 0, errors.Wrap(err, "capture")
	}
	captureTime = time.Since(start)

	start = time.Now()
	if err := p.cropper.CropImage(p.frame, p.sink, p.opts.Window); err != nil {
		return 0, 0, errors.Wrap(err, "crop to display")
	}
	cropTime = time.Since(start)
	return captureTime, cropTime, nil
}

// report logs the last frame's timings. Throughput is camera pixels per
// second of crop time.
func (p *Pipeline) report(captureTime, cropTime time.Duration) {
	p.log.Printf("Frame capture took %.3fms", ms(captureTime))

	var mpix float64
	if s := cropTime.Seconds(); s > 0 {
		mpix = float64(p.frame.Width*p.frame.Height) / 1e6 / s
	}
	p.log.Printf("Crop to display %.3fms (throughput=%.2fMpix/s)", ms(cropTime), mpix)
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
