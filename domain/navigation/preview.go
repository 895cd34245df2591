package navigation

import (
	"fmt"
	"time"
)

// PreviewMode controls whether a routing call may mutate live session state.
type PreviewMode string

const (
	// PreviewOff routes against the live history and repeat filter.
	PreviewOff PreviewMode = "off"
	// PreviewReadOnly evaluates routing without persisting session state.
	PreviewReadOnly PreviewMode = "read_only"
	// PreviewDryRun is a caller-driven what-if evaluation.
	PreviewDryRun PreviewMode = "dry_run"
	// PreviewShadow mirrors production traffic for comparison.
	PreviewShadow PreviewMode = "shadow"
)

// ParsePreviewMode validates a wire-format preview mode. The empty string
// parses as PreviewOff.
func ParsePreviewMode(s string) (PreviewMode, error) {
	switch PreviewMode(s) {
	case "", PreviewOff:
		return PreviewOff, nil
	case PreviewReadOnly, PreviewDryRun, PreviewShadow:
		return PreviewMode(s), nil
	default:
		return "", fmt.Errorf("unknown preview mode %q", s)
	}
}

// Preview is the request-scoped evaluation context. Only Mode and Seed
// affect the router itself; Now is consumed by collaborators such as the
// access policy's premium-expiry check.
type Preview struct {
	Mode PreviewMode
	Seed *int64
	Now  *time.Time
}

// Live reports whether routing should mutate the real session state.
func (p Preview) Live() bool {
	return p.Mode == "" || p.Mode == PreviewOff
}

// Clock returns the evaluation instant, defaulting to wall time.
func (p Preview) Clock() time.Time {
	if p.Now != nil {
		return *p.Now
	}
	return time.Now()
}
