// Package fluent provides the chainable settings object describing one screenshot check.
//
// A CheckSettings is built by test code, then read once by the submission
// pipeline. It performs no locking; callers sharing one across goroutines must
// synchronise themselves.
package fluent

import (
	"context"
	"fmt"
	"strconv"

	apperrors "github.com/GriffinCanCode/eyes-go/internal/errors"
	"github.com/GriffinCanCode/eyes-go/internal/geometry"
	"github.com/GriffinCanCode/eyes-go/internal/match"
)

// TargetResolver computes the target region lazily, e.g. from an element's bounds.
type TargetResolver func(ctx context.Context) (geometry.Region, error)

// CheckSettings accumulates the parameters of one screenshot comparison.
type CheckSettings struct {
	targetRegion *geometry.Region
	resolver     TargetResolver
	resolved     bool

	matchLevel    match.Level
	hasMatchLevel bool

	ignoreCaret    bool
	hasIgnoreCaret bool

	stitchContent bool

	timeoutSeconds float64
	hasTimeout     bool

	ignoreRegions   []GetRegions
	floatingRegions []GetFloatingRegions
	layoutRegions   []GetRegions
	contentRegions  []GetRegions
	exactRegions    []GetRegions
	strictRegions   []GetRegions
}

// NewCheckSettings creates settings targeting the whole window.
func NewCheckSettings() *CheckSettings {
	return &CheckSettings{}
}

// Region creates settings targeting a literal rectangle.
func Region(region geometry.Region) *CheckSettings {
	s := &CheckSettings{}
	s.updateTargetRegion(region)
	return s
}

// Deferred creates settings whose target region is computed by resolver
// on the first call to ResolveTarget.
func Deferred(resolver TargetResolver) *CheckSettings {
	return &CheckSettings{resolver: resolver}
}

// Ignore adds one or more regions to ignore when validating the screenshot.
func (s *CheckSettings) Ignore(regions ...geometry.Region) *CheckSettings {
	s.ignoreRegions = appendRectangles(s.ignoreRegions, regions)
	return s
}

// Fully defines whether the screenshot must contain the entire element or
// region, even if it is outside the view. Called without arguments it enables stitching.
func (s *CheckSettings) Fully(stitch ...bool) *CheckSettings {
	s.stitchContent = len(stitch) == 0 || stitch[0]
	return s
}

// Floating adds regions that may each move by up to maxOffset in any direction.
func (s *CheckSettings) Floating(maxOffset int, regions ...geometry.Region) *CheckSettings {
	for _, r := range regions {
		s.AddFloatingRegion(r, maxOffset, maxOffset, maxOffset, maxOffset)
	}
	return s
}

// AddFloatingRegion adds a floating region with independent directional tolerances.
func (s *CheckSettings) AddFloatingRegion(region geometry.Region, maxUp, maxDown, maxLeft, maxRight int) *CheckSettings {
	s.floatingRegions = append(s.floatingRegions, FloatingRegionsByRectangle{
		Bounds:         region.Edges(),
		MaxUpOffset:    maxUp,
		MaxDownOffset:  maxDown,
		MaxLeftOffset:  maxLeft,
		MaxRightOffset: maxRight,
	})
	return s
}

// Timeout sets the time allowed to acquire and compare the screenshot.
// A negative value clears it.
func (s *CheckSettings) Timeout(ms int) *CheckSettings {
	if ms < 0 {
		s.timeoutSeconds, s.hasTimeout = 0, false
		return s
	}
	s.timeoutSeconds = float64(ms) / 1000.0
	s.hasTimeout = true
	return s
}

// Layout sets the match level to match.Layout.
func (s *CheckSettings) Layout() *CheckSettings { return s.MatchLevel(match.Layout) }

// Exact sets the match level to match.Exact.
func (s *CheckSettings) Exact() *CheckSettings { return s.MatchLevel(match.Exact) }

// Strict sets the match level to match.Strict.
func (s *CheckSettings) Strict() *CheckSettings { return s.MatchLevel(match.Strict) }

// Content sets the match level to match.Content.
func (s *CheckSettings) Content() *CheckSettings { return s.MatchLevel(match.Content) }

// MatchLevel sets the match level used to compare the screenshot.
func (s *CheckSettings) MatchLevel(level match.Level) *CheckSettings {
	s.matchLevel = level
	s.hasMatchLevel = true
	return s
}

// AddLayoutRegion adds regions matched using the Layout level.
func (s *CheckSettings) AddLayoutRegion(regions ...geometry.Region) *CheckSettings {
	s.layoutRegions = appendRectangles(s.layoutRegions, regions)
	return s
}

// AddExactRegion adds regions matched using the Exact level.
func (s *CheckSettings) AddExactRegion(regions ...geometry.Region) *CheckSettings {
	s.exactRegions = appendRectangles(s.exactRegions, regions)
	return s
}

// AddContentRegion adds regions matched using the Content level.
func (s *CheckSettings) AddContentRegion(regions ...geometry.Region) *CheckSettings {
	s.contentRegions = appendRectangles(s.contentRegions, regions)
	return s
}

// AddStrictRegion adds regions matched using the Strict level.
func (s *CheckSettings) AddStrictRegion(regions ...geometry.Region) *CheckSettings {
	s.strictRegions = appendRectangles(s.strictRegions, regions)
	return s
}

// IgnoreCaret defines whether to detect and ignore a blinking caret.
func (s *CheckSettings) IgnoreCaret(ignore bool) *CheckSettings {
	s.ignoreCaret = ignore
	s.hasIgnoreCaret = true
	return s
}

func appendRectangles(dst []GetRegions, regions []geometry.Region) []GetRegions {
	for _, r := range regions {
		dst = append(dst, RegionsByRectangle{Rect: r})
	}
	return dst
}

// ResolveTarget runs the deferred target resolver, if any. It runs at most
// once; later calls are no-ops.
func (s *CheckSettings) ResolveTarget(ctx context.Context) error {
	if s.resolver == nil || s.resolved {
		return nil
	}
	region, err := s.resolver(ctx)
	if err != nil {
		return apperrors.Wrap(err, apperrors.NotFound, "resolve check target")
	}
	s.updateTargetRegion(region)
	s.resolved = true
	return nil
}

func (s *CheckSettings) updateTargetRegion(region geometry.Region) {
	s.targetRegion = &region
}

// TargetRegion returns the region to check, or nil for the whole window.
// Deferred targets are nil until ResolveTarget succeeds.
func (s *CheckSettings) TargetRegion() *geometry.Region {
	if s.targetRegion == nil {
		return nil
	}
	r := *s.targetRegion
	return &r
}

// HasDeferredTarget reports whether a resolver still has to run.
func (s *CheckSettings) HasDeferredTarget() bool {
	return s.resolver != nil && !s.resolved
}

// MatchLevelValue returns the match level and whether one was set.
func (s *CheckSettings) MatchLevelValue() (match.Level, bool) {
	return s.matchLevel, s.hasMatchLevel
}

// IgnoreCaretValue returns the caret setting and whether one was set.
func (s *CheckSettings) IgnoreCaretValue() (bool, bool) {
	return s.ignoreCaret, s.hasIgnoreCaret
}

// StitchContent reports whether full-page stitching was requested.
func (s *CheckSettings) StitchContent() bool { return s.stitchContent }

// TimeoutSeconds returns the timeout in seconds and whether one was set.
func (s *CheckSettings) TimeoutSeconds() (float64, bool) {
	return s.timeoutSeconds, s.hasTimeout
}

// IgnoreRegions returns a copy of the regions to ignore, in insertion order.
func (s *CheckSettings) IgnoreRegions() []GetRegions {
	return append([]GetRegions(nil), s.ignoreRegions...)
}

// FloatingRegions returns a copy of the floating region selectors, in insertion order.
func (s *CheckSettings) FloatingRegions() []GetFloatingRegions {
	return append([]GetFloatingRegions(nil), s.floatingRegions...)
}

// LayoutRegions returns a copy of the regions compared at Layout level, in insertion order.
func (s *CheckSettings) LayoutRegions() []GetRegions {
	return append([]GetRegions(nil), s.layoutRegions...)
}

// ContentRegions returns a copy of the regions compared at Content level, in insertion order.
func (s *CheckSettings) ContentRegions() []GetRegions {
	return append([]GetRegions(nil), s.contentRegions...)
}

// ExactRegions returns a copy of the regions compared at Exact level, in insertion order.
func (s *CheckSettings) ExactRegions() []GetRegions {
	return append([]GetRegions(nil), s.exactRegions...)
}

// StrictRegions returns a copy of the regions compared at Strict level, in insertion order.
func (s *CheckSettings) StrictRegions() []GetRegions {
	return append([]GetRegions(nil), s.strictRegions...)
}

// String summarises the settings for logs.
func (s *CheckSettings) String() string {
	timeout := "unset"
	if s.hasTimeout {
		timeout = strconv.FormatFloat(s.timeoutSeconds, 'g', -1, 64)
	}
	level := "default"
	if s.hasMatchLevel {
		level = s.matchLevel.String()
	}
	return fmt.Sprintf("CheckSettings - timeout: %s, match level: %s, ignore: %d, floating: %d, layout: %d, content: %d, exact: %d, strict: %d",
		timeout, level, len(s.ignoreRegions), len(s.floatingRegions), len(s.layoutRegions),
		len(s.contentRegions), len(s.exactRegions), len(s.strictRegions))
}
