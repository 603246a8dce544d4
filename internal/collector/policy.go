package collector

import (
	"time"

	"github.com/amishk599/insightd/internal/model"
)

// DefaultStalenessWindow is how long an insight stays fresh.
const DefaultStalenessWindow = 30 * 24 * time.Hour

// Decision is what to do with one fetched link.
type Decision int

const (
	// DecisionCreate: no insight exists for the source URL.
	DecisionCreate Decision = iota
	// DecisionSkip: the insight is fresh; no model call is made.
	DecisionSkip
	// DecisionRefresh: the insight is stale; regenerate content in place.
	DecisionRefresh
)

func (d Decision) String() string {
	switch d {
	case DecisionCreate:
		return "create"
	case DecisionSkip:
		return "skip"
	case DecisionRefresh:
		return "refresh"
	}
	return "unknown"
}

// Policy decides between create, skip and refresh from the stored row's age.
type Policy struct {
	Window time.Duration
	Now    func() time.Time
}

// NewPolicy returns a policy with the given window (DefaultStalenessWindow if zero).
func NewPolicy(window time.Duration) Policy {
	if window <= 0 {
		window = DefaultStalenessWindow
	}
	return Policy{Window: window, Now: time.Now}
}

// Evaluate classifies existing (nil when absent). An insight is stale once
// now - updated_at reaches the window.
func (p Policy) Evaluate(existing *model.Insight) Decision {
	if existing == nil {
		return DecisionCreate
	}
	if p.now().Sub(existing.UpdatedAt) >= p.Window {
		return DecisionRefresh
	}
	return DecisionSkip
}

func (p Policy) now() time.Time {
	if p.Now == nil {
		return time.Now().UTC()
	}
	return p.Now().UTC()
}
