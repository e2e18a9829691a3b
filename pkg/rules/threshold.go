package rules

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// ErrInvalidExpression is returned when a threshold expression matches no grammar rule.
	ErrInvalidExpression = errors.New("invalid threshold expression")

	// ErrWrongExpressionKind is returned when an expression is attached to a rule kind that cannot evaluate it.
	ErrWrongExpressionKind = errors.New("wrong expression kind for rule")
)

// ThresholdKind identifies the form of a parsed threshold expression.
type ThresholdKind int

const (
	PercentSpent     ThresholdKind = iota + 1 // "75%"
	DollarsRemaining                          // "$200 remaining"
	PercentOver                               // "5% over"
)

func (k ThresholdKind) String() string {
	switch k {
	case PercentSpent:
		return "percent_spent"
	case DollarsRemaining:
		return "dollars_remaining"
	case PercentOver:
		return "percent_over"
	default:
		return "unknown"
	}
}

// Threshold is a parsed trigger expression.
type Threshold struct {
	Kind  ThresholdKind
	Value float64
}

var (
	percentSpentPattern     = regexp.MustCompile(`(?i)^([0-9]+(?:\.[0-9]+)?)\s*%$`)
	percentOverPattern      = regexp.MustCompile(`(?i)^([0-9]+(?:\.[0-9]+)?)\s*%\s*over$`)
	dollarsRemainingPattern = regexp.MustCompile(`(?i)^\$([0-9]+(?:\.[0-9]+)?)\s*remaining$`)
)

// ParseThreshold converts a trigger expression into a Threshold.
func ParseThreshold(expr string) (Threshold, error) {
	at := strings.TrimSpace(expr)

	grammar := []struct {
		pattern *regexp.Regexp
		kind    ThresholdKind
	}{
		{dollarsRemainingPattern, DollarsRemaining},
		{percentOverPattern, PercentOver},
		{percentSpentPattern, PercentSpent},
	}

	for _, g := range grammar {
		m := g.pattern.FindStringSubmatch(at)
		if m == nil {
			continue
		}
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return Threshold{}, fmt.Errorf("%w: %q: %v", ErrInvalidExpression, expr, err)
		}
		return Threshold{Kind: g.kind, Value: v}, nil
	}

	return Threshold{}, fmt.Errorf("%w: %q", ErrInvalidExpression, expr)
}

func wrongKind(expr string, kind ThresholdKind, rule string) error {
	return fmt.Errorf("%w: %q is a %s expression, not valid for %s", ErrWrongExpressionKind, expr, kind, rule)
}
