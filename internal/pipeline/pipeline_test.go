package pipeline

import (
	"bytes"
	"context"
	"log"
	"strings"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/viewfinder/internal/capture"
	"github.com/ironsheep/viewfinder/internal/imaging"
)

// countingSource fills every byte of the frame with the capture number.
func countingSource(calls *int) capture.Source {
	return capture.SourceFunc(func(_ context.Context, dst *imaging.Image) error {
		*calls++
		for i := range dst.Data {
			dst.Data[i] = byte(*calls)
		}
		return nil
	})
}

func newFrames(t *testing.T) (frame, sink *imaging.Image) {
	t.Helper()
	frame, err := imaging.NewImage(0, 8, 6, imaging.RGB565)
	require.NoError(t, err)
	sink, err = imaging.NewImage(0, 4, 2, imaging.RGB565)
	require.NoError(t, err)
	return frame, sink
}

func quietLogger(buf *bytes.Buffer) *log.Logger {
	return log.New(buf, "", 0)
}

func TestParsePolicy(t *testing.T) {
	for in, want := range map[string]ErrorPolicy{"": Skip, "skip": Skip, " HALT ": Halt} {
		got, err := ParsePolicy(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParsePolicy("retry")
	assert.Error(t, err)
}

func TestNew_DefaultWindow(t *testing.T) {
	var calls int
	frame, sink := newFrames(t)

	p, err := New(countingSource(&calls), frame, sink, nil, Options{})
	require.NoError(t, err)
	assert.Equal(t, imaging.Rect{Left: 2, Top: 2, Right: 6, Bottom: 4}, p.Window())
	assert.Equal(t, Skip, p.opts.OnError)
	assert.Equal(t, DefaultReportInterval, p.opts.ReportInterval)
}

func TestNew_Errors(t *testing.T) {
	var calls int
	src := countingSource(&calls)
	frame, sink := newFrames(t)

	_, err := New(nil, frame, sink, nil, Options{})
	assert.Error(t, err)

	_, err = New(src, nil, sink, nil, Options{})
	assert.ErrorIs(t, err, imaging.ErrInvalidBuffer)

	_, err = New(src, frame, sink, nil, Options{Window: imaging.Rect{Left: 6, Top: 0, Right: 10, Bottom: 2}})
	assert.ErrorIs(t, err, imaging.ErrOutOfRange)

	_, err = New(src, frame, sink, nil, Options{Window: imaging.Rect{Left: 0, Top: 0, Right: 3, Bottom: 2}})
	assert.ErrorIs(t, err, imaging.ErrSizeMismatch)

	_, err = New(src, frame, sink, nil, Options{OnError: "retry"})
	assert.Error(t, err)

	// Display bigger than the camera cannot be centered.
	_, err = New(src, sink, frame, nil, Options{})
	assert.ErrorIs(t, err, imaging.ErrOutOfRange)

	rgb, err := imaging.NewImage(0, 4, 2, imaging.RGB888)
	require.NoError(t, err)
	_, err = New(src, frame, rgb, nil, Options{})
	assert.ErrorIs(t, err, imaging.ErrFormatMismatch)
}

func TestNew_PaddedDisplay(t *testing.T) {
	frame, err := imaging.NewImage(0, 4, 4, imaging.I400)
	require.NoError(t, err)
	for i := range frame.Data {
		frame.Data[i] = byte(i + 1)
	}
	padded, err := imaging.NewImage(4, 2, 2, imaging.I400)
	require.NoError(t, err)

	var calls int
	_, err = New(countingSource(&calls), frame, padded, nil, Options{MaxFrames: 1})
	assert.ErrorIs(t, err, imaging.ErrInvalidBuffer)
	assert.Equal(t, make([]byte, 8), padded.Data)

	dense, err := imaging.NewImage(0, 2, 2, imaging.I400)
	require.NoError(t, err)
	src := capture.SourceFunc(func(context.Context, *imaging.Image) error { return nil })
	var buf bytes.Buffer
	p, err := New(src, frame, dense, nil, Options{MaxFrames: 1, Logger: quietLogger(&buf)})
	require.NoError(t, err)
	require.NoError(t, p.Run(context.Background()))
	assert.Equal(t, []byte{6, 7, 10, 11}, dense.Data)
	assert.Equal(t, uint8(10), dense.At(0, 1).R)
}

func TestRun_MaxFrames(t *testing.T) {
	var calls, flushes int
	frame, sink := newFrames(t)
	cropper := imaging.NewCropper(imaging.CacheFunc(func(b []byte) error {
		flushes++
		assert.Len(t, b, sink.Size())
		return nil
	}))

	var buf bytes.Buffer
	p, err := New(countingSource(&calls), frame, sink, cropper, Options{
		MaxFrames:      3,
		ReportInterval: time.Nanosecond,
		Logger:         quietLogger(&buf),
	})
	require.NoError(t, err)
	require.NoError(t, p.Run(context.Background()))

	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, flushes)
	assert.Equal(t, bytes.Repeat([]byte{3}, sink.Size()), sink.Data)

	stats := p.Stats()
	assert.Equal(t, 3, stats.Frames)
	assert.Zero(t, stats.Errors)
	assert.GreaterOrEqual(t, stats.CaptureTime, stats.LastCapture)
	assert.GreaterOrEqual(t, stats.CropTime, stats.LastCrop)

	out := buf.String()
	assert.Contains(t, out, "Frame capture took ")
	assert.Contains(t, out, "Crop to display ")
	assert.Contains(t, out, "Mpix/s)")
}

func TestRun_ReportInterval(t *testing.T) {
	var calls int
	frame, sink := newFrames(t)

	var buf bytes.Buffer
	p, err := New(countingSource(&calls), frame, sink, nil, Options{
		MaxFrames:      5,
		ReportInterval: time.Hour,
		Logger:         quietLogger(&buf),
	})
	require.NoError(t, err)
	require.NoError(t, p.Run(context.Background()))
	assert.Empty(t, buf.String())
}

func TestRun_SkipErrors(t *testing.T) {
	var calls int
	src := capture.SourceFunc(func(_ context.Context, dst *imaging.Image) error {
		calls++
		if calls%2 == 0 {
			return errors.New("sensor timeout")
		}
		return nil
	})
	frame, sink := newFrames(t)

	var buf bytes.Buffer
	p, err := New(src, frame, sink, nil, Options{
		MaxFrames:      4,
		ReportInterval: time.Hour,
		Logger:         quietLogger(&buf),
	})
	require.NoError(t, err)
	require.NoError(t, p.Run(context.Background()))

	stats := p.Stats()
	assert.Equal(t, 2, stats.Frames)
	assert.Equal(t, 2, stats.Errors)
	assert.Equal(t, 2, strings.Count(buf.String(), "sensor timeout"))
}

func TestRun_HaltOnError(t *testing.T) {
	boom := errors.New("sensor timeout")
	src := capture.SourceFunc(func(context.Context, *imaging.Image) error { return boom })
	frame, sink := newFrames(t)

	var flushed bool
	cropper := imaging.NewCropper(imaging.CacheFunc(func([]byte) error {
		flushed = true
		return nil
	}))

	p, err := New(src, frame, sink, cropper, Options{OnError: Halt, Logger: quietLogger(&bytes.Buffer{})})
	require.NoError(t, err)

	err = p.Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.False(t, flushed, "display must not be touched when capture fails")
	assert.Equal(t, 1, p.Stats().Errors)
}

func TestRun_CacheErrorHalts(t *testing.T) {
	var calls int
	flushErr := errors.New("flush failed")
	frame, sink := newFrames(t)
	cropper := imaging.NewCropper(imaging.CacheFunc(func([]byte) error { return flushErr }))

	p, err := New(countingSource(&calls), frame, sink, cropper, Options{OnError: Halt})
	require.NoError(t, err)
	assert.ErrorIs(t, p.Run(context.Background()), flushErr)
}

func TestRun_Canceled(t *testing.T) {
	var calls int
	frame, sink := newFrames(t)

	ctx, cancel := context.WithCancel(context.Background())
	src := capture.SourceFunc(func(ctx context.Context, dst *imaging.Image) error {
		calls++
		if calls == 2 {
			cancel()
			return ctx.Err()
		}
		return nil
	})

	p, err := New(src, frame, sink, nil, Options{Logger: quietLogger(&bytes.Buffer{})})
	require.NoError(t, err)
	assert.ErrorIs(t, p.Run(ctx), context.Canceled)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, p.Stats().Frames)
	assert.Zero(t, p.Stats().Errors)
}

func TestRun_FrameInterval(t *testing.T) {
	var calls int
	frame, sink := newFrames(t)

	p, err := New(countingSource(&calls), frame, sink, nil, Options{
		MaxFrames:     3,
		FrameInterval: 5 * time.Millisecond,
		Logger:        quietLogger(&bytes.Buffer{}),
	})
	require.NoError(t, err)

	start := time.Now()
	require.NoError(t, p.Run(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
	assert.Equal(t, 3, calls)
}
