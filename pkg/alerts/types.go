package alerts

import (
	"context"
	"time"

	"github.com/ogulcanaydogan/budget-tripwire/pkg/model"
)

// Priority values follow Pushover's scale.
const (
	PriorityLow  = -1 // warning
	PriorityHigh = 1  // urgent
)

// Alert is a rendered notification for one firing.
type Alert struct {
	Title    string         `json:"title"`
	Message  string         `json:"message"`
	Priority int            `json:"priority"`
	Severity model.Severity `json:"severity"`
	Category string         `json:"category"`
	Trigger  string         `json:"trigger"`
	FiredAt  time.Time      `json:"fired_at"`
}

// Notifier sends alerts to external systems.
type Notifier interface {
	// Name returns the notifier identifier.
	Name() string

	// Send delivers an alert. Implementations must be safe for concurrent use.
	Send(ctx context.Context, alert Alert) error
}
