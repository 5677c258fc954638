// Package imagematch turns populated check settings into the match request
// payload the comparison service expects.
package imagematch

import (
	"context"
	"encoding/json"

	apperrors "github.com/GriffinCanCode/eyes-go/internal/errors"
	"github.com/GriffinCanCode/eyes-go/internal/fluent"
	"github.com/GriffinCanCode/eyes-go/internal/geometry"
	"github.com/GriffinCanCode/eyes-go/internal/match"
)

// Defaults fill in settings the check left unset.
type Defaults struct {
	MatchLevel   match.Level
	IgnoreCaret  bool
	Stitch       bool
	MatchTimeout float64 // seconds, 0 for none
}

// ImageMatchSettings describes how the service compares one image.
type ImageMatchSettings struct {
	MatchLevel  match.Level                    `json:"matchLevel"`
	IgnoreCaret bool                           `json:"ignoreCaret"`
	Ignore      []geometry.Region              `json:"ignore"`
	Layout      []geometry.Region              `json:"layout"`
	Strict      []geometry.Region              `json:"strict"`
	Content     []geometry.Region              `json:"content"`
	Exact       []geometry.Region              `json:"exact"`
	Floating    []fluent.FloatingMatchSettings `json:"floating"`
}

// CheckRequest is everything the submission pipeline needs besides the image.
type CheckRequest struct {
	Target         *geometry.Region   `json:"target,omitempty"`
	Stitch         bool               `json:"stitchContent"`
	TimeoutSeconds *float64           `json:"timeout,omitempty"` // nil when neither settings nor defaults set one
	Settings       ImageMatchSettings `json:"imageMatchSettings"`
}

// JSON encodes the request.
func (r *CheckRequest) JSON() ([]byte, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.Internal, "encode check request")
	}
	return data, nil
}

// Build reads every accessor of settings and produces a request. The
// deferred target, if any, is resolved first.
func Build(ctx context.Context, settings *fluent.CheckSettings, defaults Defaults) (*CheckRequest, error) {
	if settings == nil {
		return nil, apperrors.New(apperrors.InvalidArgument, "check settings are nil")
	}
	if err := settings.ResolveTarget(ctx); err != nil {
		return nil, err
	}

	req := &CheckRequest{
		Target: settings.TargetRegion(),
		Stitch: settings.StitchContent() || defaults.Stitch,
	}
	if t, ok := settings.TimeoutSeconds(); ok {
		req.TimeoutSeconds = &t
	} else if defaults.MatchTimeout > 0 {
		t := defaults.MatchTimeout
		req.TimeoutSeconds = &t
	}

	ims := &req.Settings
	ims.MatchLevel = defaults.MatchLevel
	if l, ok := settings.MatchLevelValue(); ok {
		ims.MatchLevel = l
	}
	if !ims.MatchLevel.Valid() {
		ims.MatchLevel = match.Strict
	}
	ims.IgnoreCaret = defaults.IgnoreCaret
	if v, ok := settings.IgnoreCaretValue(); ok {
		ims.IgnoreCaret = v
	}

	categories := []struct {
		name      string
		selectors []fluent.GetRegions
		dst       *[]geometry.Region
	}{
		{"ignore", settings.IgnoreRegions(), &ims.Ignore},
		{"layout", settings.LayoutRegions(), &ims.Layout},
		{"strict", settings.StrictRegions(), &ims.Strict},
		{"content", settings.ContentRegions(), &ims.Content},
		{"exact", settings.ExactRegions(), &ims.Exact},
	}
	for _, c := range categories {
		regions, err := collectRegions(ctx, c.selectors)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.Internal, "resolve regions").WithMetadata("category", c.name)
		}
		*c.dst = regions
	}

	ims.Floating = []fluent.FloatingMatchSettings{}
	for _, sel := range settings.FloatingRegions() {
		floating, err := sel.FloatingRegions(ctx)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.Internal, "resolve regions").WithMetadata("category", "floating")
		}
		ims.Floating = append(ims.Floating, floating...)
	}

	return req, nil
}

func collectRegions(ctx context.Context, selectors []fluent.GetRegions) ([]geometry.Region, error) {
	out := []geometry.Region{}
	for _, sel := range selectors {
		regions, err := sel.Regions(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, regions...)
	}
	return out, nil
}
