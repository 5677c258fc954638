package main

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/eyes-go/internal/capture"
	"github.com/GriffinCanCode/eyes-go/internal/config"
	apperrors "github.com/GriffinCanCode/eyes-go/internal/errors"
	"github.com/GriffinCanCode/eyes-go/internal/fluent"
	"github.com/GriffinCanCode/eyes-go/internal/geometry"
	"github.com/GriffinCanCode/eyes-go/internal/imagematch"
	"github.com/GriffinCanCode/eyes-go/internal/imageutil"
	"github.com/GriffinCanCode/eyes-go/internal/match"
	"github.com/GriffinCanCode/eyes-go/internal/resilience"
	"github.com/GriffinCanCode/eyes-go/internal/scale"
	"github.com/GriffinCanCode/eyes-go/internal/trace"
)

type checkOptions struct {
	image       string
	out         string
	viewport    string
	page        string
	dpr         float64
	fixedRatio  float64
	target      string
	matchLevel  string
	timeoutMs   int
	fully       bool
	ignoreCaret bool
	ignore      []string
	layout      []string
	strict      []string
	content     []string
	exact       []string
	floating    []string
}

var checkFlags checkOptions

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Scale a screenshot and print its match request",
	Long: `Scale a screenshot for device pixel ratio and print the match request as JSON.

Regions are given as left,top,width,height. Floating regions take an offset
prefix: --floating 10:0,0,200,40 or --floating 1/2/3/4:0,0,200,40 for
up/down/left/right.

Examples:
  eyescheck check --image shot.png --viewport 1280x800 --page 1280x4000 --dpr 2
  eyescheck check --image shot.png --ignore 0,0,1280,60 --layout 0,700,1280,100`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		opts := checkFlags
		if !cmd.Flags().Changed("ignore-caret") {
			opts.ignoreCaret = cfg.IgnoreCaret
		}
		return runCheck(cmd.Context(), opts, cfg, cmd.OutOrStdout())
	},
}

func init() {
	f := checkCmd.Flags()
	f.StringVar(&checkFlags.image, "image", "", "Screenshot file (png, jpeg or webp)")
	f.StringVar(&checkFlags.out, "out", "", "Write the scaled screenshot as PNG to this file")
	f.StringVar(&checkFlags.viewport, "viewport", "", "Viewport size, e.g. 1280x800")
	f.StringVar(&checkFlags.page, "page", "", "Full page size, defaults to the viewport")
	f.Float64Var(&checkFlags.dpr, "dpr", 0, "Device pixel ratio (default EYES_DEVICE_PIXEL_RATIO or 1)")
	f.Float64Var(&checkFlags.fixedRatio, "scale-ratio", 0, "Use a fixed scale ratio instead of detecting one")
	f.StringVar(&checkFlags.target, "target", "", "Region to check instead of the whole window")
	f.StringVar(&checkFlags.matchLevel, "match-level", "", "Layout, Content, Strict or Exact")
	f.IntVar(&checkFlags.timeoutMs, "timeout-ms", -1, "Retake screenshots until stable for up to this long")
	f.BoolVar(&checkFlags.fully, "fully", false, "Request a full page (stitched) screenshot")
	f.BoolVar(&checkFlags.ignoreCaret, "ignore-caret", true, "Ignore a blinking caret")
	f.StringArrayVar(&checkFlags.ignore, "ignore", nil, "Region to ignore (repeatable)")
	f.StringArrayVar(&checkFlags.layout, "layout", nil, "Region compared at Layout level (repeatable)")
	f.StringArrayVar(&checkFlags.strict, "strict", nil, "Region compared at Strict level (repeatable)")
	f.StringArrayVar(&checkFlags.content, "content", nil, "Region compared at Content level (repeatable)")
	f.StringArrayVar(&checkFlags.exact, "exact", nil, "Region compared at Exact level (repeatable)")
	f.StringArrayVar(&checkFlags.floating, "floating", nil, "Floating region with offsets (repeatable)")
	_ = checkCmd.MarkFlagRequired("image")
}

type checkOutput struct {
	AppName    string                   `json:"appName"`
	TraceID    string                   `json:"traceId"`
	ScaleRatio float64                  `json:"scaleRatio"`
	Width      int                      `json:"width"`
	Height     int                      `json:"height"`
	Attempts   int                      `json:"attempts"`
	Stable     bool                     `json:"stable"`
	Request    *imagematch.CheckRequest `json:"request"`
}

func runCheck(ctx context.Context, opts checkOptions, cfg *config.Config, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, tc := trace.EnsureContext(ctx)
	log := trace.Logger(ctx)
	settings, err := buildSettings(opts)
	if err != nil {
		return err
	}
	provider, err := buildProvider(opts, cfg)
	if err != nil {
		return err
	}

	shooter := capture.ScreenshotterFunc(func(context.Context) ([]byte, error) {
		data, err := os.ReadFile(opts.image)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.NotFound, "read screenshot").WithMetadata("path", opts.image)
		}
		return data, nil
	})
	retry := resilience.CaptureRetryConfig()
	retry.MaxRetries = cfg.CaptureRetries
	if cfg.CaptureRetries == 0 {
		retry.MaxRetries = resilience.NoRetries
	}
	pipeline := capture.New(shooter, provider, capture.Options{
		Retry:           retry,
		RetakeInterval:  time.Duration(cfg.RetakeIntervalMs) * time.Millisecond,
		MaxHashDistance: capture.MaxHashDistance,
	})

	shot, err := pipeline.Capture(ctx, settings)
	if err != nil {
		return err
	}
	log.Info("screenshot captured", "image", opts.image, "ratio", shot.ScaleRatio,
		"width", shot.Image.Bounds().Dx(), "height", shot.Image.Bounds().Dy(), "attempts", shot.Attempts)

	req, err := imagematch.Build(ctx, settings, imagematch.Defaults{
		MatchLevel:   cfg.Level(),
		IgnoreCaret:  cfg.IgnoreCaret,
		Stitch:       cfg.ForceFullPage,
		MatchTimeout: float64(cfg.MatchTimeoutMs) / 1000,
	})
	if err != nil {
		return err
	}

	if opts.out != "" {
		data, err := imageutil.EncodePNG(shot.Image)
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.out, data, 0o644); err != nil {
			return apperrors.Wrap(err, apperrors.Internal, "write scaled screenshot").WithMetadata("path", opts.out)
		}
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(checkOutput{
		AppName:    cfg.AppName,
		TraceID:    tc.TraceID,
		ScaleRatio: shot.ScaleRatio,
		Width:      shot.Image.Bounds().Dx(),
		Height:     shot.Image.Bounds().Dy(),
		Attempts:   shot.Attempts,
		Stable:     shot.Stable,
		Request:    req,
	})
}

func buildSettings(opts checkOptions) (*fluent.CheckSettings, error) {
	settings := fluent.NewCheckSettings()
	if opts.target != "" {
		r, err := parseRegion(opts.target)
		if err != nil {
			return nil, err
		}
		settings = fluent.Region(r)
	}

	if opts.matchLevel != "" {
		l, err := match.Parse(opts.matchLevel)
		if err != nil {
			return nil, err
		}
		settings.MatchLevel(l)
	}
	if opts.fully {
		settings.Fully()
	}
	if opts.timeoutMs >= 0 {
		settings.Timeout(opts.timeoutMs)
	}
	settings.IgnoreCaret(opts.ignoreCaret)

	categories := []struct {
		values []string
		add    func(...geometry.Region) *fluent.CheckSettings
	}{
		{opts.ignore, settings.Ignore},
		{opts.layout, settings.AddLayoutRegion},
		{opts.strict, settings.AddStrictRegion},
		{opts.content, settings.AddContentRegion},
		{opts.exact, settings.AddExactRegion},
	}
	for _, c := range categories {
		for _, v := range c.values {
			r, err := parseRegion(v)
			if err != nil {
				return nil, err
			}
			c.add(r)
		}
	}

	for _, v := range opts.floating {
		offsets, region, ok := strings.Cut(v, ":")
		if !ok {
			return nil, apperrors.Newf(apperrors.InvalidArgument, "floating region %q needs an offset prefix", v)
		}
		r, err := parseRegion(region)
		if err != nil {
			return nil, err
		}
		parts := strings.Split(offsets, "/")
		nums := make([]int, len(parts))
		for i, p := range parts {
			if nums[i], err = strconv.Atoi(strings.TrimSpace(p)); err != nil {
				return nil, apperrors.Wrapf(err, apperrors.InvalidArgument, "bad floating offset %q", p)
			}
		}
		switch len(nums) {
		case 1:
			settings.Floating(nums[0], r)
		case 4:
			settings.AddFloatingRegion(r, nums[0], nums[1], nums[2], nums[3])
		default:
			return nil, apperrors.Newf(apperrors.InvalidArgument, "floating region %q needs 1 or 4 offsets", v)
		}
	}
	return settings, nil
}

func buildProvider(opts checkOptions, cfg *config.Config) (scale.Provider, error) {
	if opts.fixedRatio > 0 {
		p, err := scale.NewFixed(opts.fixedRatio, cfg.Method())
		if err != nil {
			return nil, err
		}
		return p, nil
	}
	if opts.viewport == "" {
		return scale.Null{}, nil
	}

	viewport, err := parseSize(opts.viewport)
	if err != nil {
		return nil, err
	}
	page := viewport
	if opts.page != "" {
		if page, err = parseSize(opts.page); err != nil {
			return nil, err
		}
	}
	dpr := opts.dpr
	if dpr == 0 {
		dpr = cfg.DevicePixelRatio
	}
	if dpr == 0 {
		dpr = 1
	}
	p, err := scale.NewContextBased(page, viewport, cfg.Method(), dpr)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// parseRegion parses "left,top,width,height".
func parseRegion(s string) (geometry.Region, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return geometry.Region{}, apperrors.Newf(apperrors.InvalidArgument, "region %q must be left,top,width,height", s)
	}
	var n [4]int
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return geometry.Region{}, apperrors.Wrapf(err, apperrors.InvalidArgument, "region %q", s)
		}
		n[i] = v
	}
	return geometry.NewRegion(n[0], n[1], n[2], n[3]), nil
}

// parseSize parses "WIDTHxHEIGHT".
func parseSize(s string) (geometry.RectangleSize, error) {
	w, h, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return geometry.RectangleSize{}, apperrors.Newf(apperrors.InvalidArgument, "size %q must be WIDTHxHEIGHT", s)
	}
	width, err := strconv.Atoi(strings.TrimSpace(w))
	if err != nil {
		return geometry.RectangleSize{}, apperrors.Wrapf(err, apperrors.InvalidArgument, "size %q", s)
	}
	height, err := strconv.Atoi(strings.TrimSpace(h))
	if err != nil {
		return geometry.RectangleSize{}, apperrors.Wrapf(err, apperrors.InvalidArgument, "size %q", s)
	}
	return geometry.RectangleSize{Width: width, Height: height}, nil
}
