// Package capture takes screenshots for a check, normalises their scale and
// waits for the page to stop changing before handing the image on.
package capture

import (
	"context"
	"image"
	"time"

	"github.com/corona10/goimagehash"
	"google.golang.org/grpc/status"

	apperrors "github.com/GriffinCanCode/eyes-go/internal/errors"
	"github.com/GriffinCanCode/eyes-go/internal/fluent"
	"github.com/GriffinCanCode/eyes-go/internal/geometry"
	"github.com/GriffinCanCode/eyes-go/internal/imageutil"
	"github.com/GriffinCanCode/eyes-go/internal/resilience"
	"github.com/GriffinCanCode/eyes-go/internal/scale"
	"github.com/GriffinCanCode/eyes-go/internal/trace"
)

// Screenshotter is the browser driver side: it returns encoded screenshot bytes.
type Screenshotter interface {
	Screenshot(ctx context.Context) ([]byte, error)
}

// ScreenshotterFunc adapts a function to Screenshotter.
type ScreenshotterFunc func(ctx context.Context) ([]byte, error)

func (f ScreenshotterFunc) Screenshot(ctx context.Context) ([]byte, error) { return f(ctx) }

// Options tune retakes and retries.
type Options struct {
	Retry           resilience.RetryConfig
	RetakeInterval  time.Duration
	MaxHashDistance int
}

// DefaultOptions returns the settings used when none are given.
func DefaultOptions() Options {
	return Options{
		Retry:           resilience.CaptureRetryConfig(),
		RetakeInterval:  DefaultRetakeInterval,
		MaxHashDistance: MaxHashDistance,
	}
}

// Screenshot is a decoded, scaled capture ready for submission.
type Screenshot struct {
	Image      image.Image
	Format     string
	Hash       *goimagehash.ImageHash
	ScaleRatio float64
	Attempts   int
	Stable     bool
}

// Pipeline captures screenshots for one browser session. Not safe for
// concurrent use, like the scale provider it drives.
type Pipeline struct {
	shooter    Screenshotter
	provider   scale.Provider
	opts       Options
	ratioKnown bool
}

// New creates a pipeline. A nil provider never scales.
func New(shooter Screenshotter, provider scale.Provider, opts Options) *Pipeline {
	if provider == nil {
		provider = scale.Null{}
	}
	if opts.RetakeInterval <= 0 {
		opts.RetakeInterval = DefaultRetakeInterval
	}
	if opts.MaxHashDistance < 0 {
		opts.MaxHashDistance = MaxHashDistance
	}
	return &Pipeline{shooter: shooter, provider: provider, opts: opts}
}

// Capture takes a screenshot for settings. With a timeout set, screenshots
// are retaken until two consecutive ones look the same or the timeout
// elapses; the last one is returned either way.
func (p *Pipeline) Capture(ctx context.Context, settings *fluent.CheckSettings) (*Screenshot, error) {
	if settings == nil {
		settings = fluent.NewCheckSettings()
	}
	ctx, span := trace.StartSpan(ctx, "capture")
	defer span.Finish()
	log := trace.Logger(ctx)

	if settings.HasDeferredTarget() {
		log.Debug("resolving deferred check target")
	}
	if err := settings.ResolveTarget(ctx); err != nil {
		return nil, err
	}

	shot, err := p.take(ctx, settings.TargetRegion())
	if err != nil {
		return nil, err
	}
	shot.Attempts = 1
	span.Set("ratio", shot.ScaleRatio)

	timeout, ok := settings.TimeoutSeconds()
	if !ok || timeout <= 0 {
		return shot, nil
	}
	deadline := time.Now().Add(time.Duration(timeout * float64(time.Second)))

	for time.Now().Before(deadline) {
		if err := sleepCtx(ctx, min(p.opts.RetakeInterval, time.Until(deadline))); err != nil {
			return nil, apperrors.Wrap(err, apperrors.Cancelled, "capture cancelled")
		}

		next, err := p.take(ctx, settings.TargetRegion())
		if err != nil {
			return nil, err
		}
		next.Attempts = shot.Attempts + 1

		if p.similar(shot, next) {
			next.Stable = true
			span.Set("attempts", next.Attempts)
			log.Debug("screenshot stable", "attempts", next.Attempts)
			return next, nil
		}
		shot = next
	}

	span.Set("attempts", shot.Attempts)
	log.Warn("screenshot did not stabilize before timeout", "timeout_s", timeout, "attempts", shot.Attempts)
	return shot, nil
}

// take grabs one screenshot, decodes it, scales it and crops it to target.
func (p *Pipeline) take(ctx context.Context, target *geometry.Region) (*Screenshot, error) {
	var data []byte
	err := resilience.Retry(ctx, p.opts.Retry, func() error {
		var err error
		data, err = p.shooter.Screenshot(ctx)
		if err != nil {
			return driverError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	img, format, err := imageutil.Decode(data)
	if err != nil {
		return nil, err
	}

	if updater, ok := p.provider.(scale.RatioUpdater); ok && !p.ratioKnown {
		updater.UpdateScaleRatio(float64(img.Bounds().Dx()))
		p.ratioKnown = true
	}
	ratio, err := p.provider.ScaleRatio()
	if err != nil {
		return nil, err
	}
	scaled, err := p.provider.ScaleImage(img)
	if err != nil {
		return nil, err
	}

	if target != nil {
		scaled, err = crop(scaled, *target)
		if err != nil {
			return nil, err
		}
	}

	hash, err := goimagehash.PerceptionHash(scaled)
	if err != nil {
		trace.Logger(ctx).Debug("perceptual hash failed", "error", err)
		hash = nil
	}

	return &Screenshot{Image: scaled, Format: format, Hash: hash, ScaleRatio: ratio}, nil
}

// driverError classifies a Screenshotter failure so that only transient
// ones are retried. AppErrors keep their code, gRPC statuses from remote
// drivers are decoded, and anything else counts as a failed capture.
func driverError(err error) error {
	if appErr, ok := err.(*apperrors.AppError); ok {
		return appErr
	}
	if _, ok := status.FromError(err); ok {
		return apperrors.FromGRPCError(err)
	}
	return apperrors.Wrap(err, apperrors.CaptureFailed, "take screenshot")
}

// similar reports whether two consecutive captures are within the hash distance.
func (p *Pipeline) similar(prev, next *Screenshot) bool {
	if prev.Hash == nil || next.Hash == nil {
		return false
	}
	dist, err := prev.Hash.Distance(next.Hash)
	if err != nil {
		return false
	}
	return dist <= p.opts.MaxHashDistance
}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

func crop(img image.Image, target geometry.Region) (image.Image, error) {
	if target.IsEmpty() {
		return nil, apperrors.Newf(apperrors.InvalidArgument, "target region %v is empty", target)
	}
	b := img.Bounds()
	e := target.Edges()
	rect := image.Rect(e.Left, e.Top, e.Right, e.Bottom).Add(b.Min).Intersect(b)
	if rect.Empty() {
		return nil, apperrors.Newf(apperrors.InvalidArgument, "target region %v is outside the %dx%d screenshot", target, b.Dx(), b.Dy())
	}
	si, ok := img.(subImager)
	if !ok {
		return nil, apperrors.Newf(apperrors.Internal, "image type %T cannot be cropped", img)
	}
	return si.SubImage(rect), nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
