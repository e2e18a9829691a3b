// Package cooldown tracks when each (category, trigger) pair last fired,
// scoped by calendar month.
package cooldown

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/ogulcanaydogan/budget-tripwire/pkg/model"
)

// State maps period keys to the last firing time of each trigger key.
type State struct {
	Fired map[string]map[string]time.Time `json:"fired"`
}

// New returns an empty state.
func New() *State {
	return &State{Fired: make(map[string]map[string]time.Time)}
}

// Key returns the bucket key for a trigger on a category.
func Key(category, expression string) string {
	return category + ":" + expression
}

// LastFired returns the last firing time of the trigger in now's period.
func (s *State) LastFired(category, expression string, now time.Time) (time.Time, bool) {
	bucket, ok := s.Fired[model.PeriodKey(now)]
	if !ok {
		return time.Time{}, false
	}
	t, ok := bucket[Key(category, expression)]
	return t, ok
}

// ShouldAlert reports whether the trigger may fire at now: it has not fired
// this period, or at least cooldownHours have passed since it last did.
func (s *State) ShouldAlert(category, expression string, cooldownHours int, now time.Time) bool {
	last, ok := s.LastFired(category, expression, now)
	if !ok {
		return true
	}
	return now.Sub(last) >= time.Duration(cooldownHours)*time.Hour
}

// RecordFiring sets the trigger's last firing time in now's period.
func (s *State) RecordFiring(category, expression string, now time.Time) {
	if s.Fired == nil {
		s.Fired = make(map[string]map[string]time.Time)
	}
	period := model.PeriodKey(now)
	bucket := s.Fired[period]
	if bucket == nil {
		bucket = make(map[string]time.Time)
		s.Fired[period] = bucket
	}
	bucket[Key(category, expression)] = now.UTC()
}

// Prune deletes every period bucket older than now's period and returns
// the removed keys in order.
func (s *State) Prune(now time.Time) []string {
	current := model.PeriodKey(now)
	var removed []string
	for period := range s.Fired {
		if period < current {
			removed = append(removed, period)
		}
	}
	sort.Strings(removed)
	for _, period := range removed {
		delete(s.Fired, period)
	}
	return removed
}

// Len returns the number of recorded firings across all periods.
func (s *State) Len() int {
	n := 0
	for _, bucket := range s.Fired {
		n += len(bucket)
	}
	return n
}

// Encode serializes the state as indented JSON.
func (s *State) Encode() ([]byte, error) {
	out := s
	if out.Fired == nil {
		out = New()
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode cooldown state: %w", err)
	}
	return data, nil
}

// Decode parses serialized state. Empty input yields an empty state. A
// period stored as a plain list of trigger keys is read as having fired at
// the start of that period.
func Decode(data []byte) (*State, error) {
	s := New()
	if len(bytes.TrimSpace(data)) == 0 {
		return s, nil
	}

	var raw struct {
		Fired map[string]json.RawMessage `json:"fired"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode cooldown state: %w", err)
	}

	for period, msg := range raw.Fired {
		var stamps map[string]time.Time
		if err := json.Unmarshal(msg, &stamps); err == nil {
			s.Fired[period] = stamps
			continue
		}

		var keys []string
		if err := json.Unmarshal(msg, &keys); err != nil {
			return nil, fmt.Errorf("decode cooldown period %q: %w", period, err)
		}
		start, err := time.Parse(model.PeriodKeyLayout, period)
		if err != nil {
			return nil, fmt.Errorf("decode cooldown period %q: %w", period, err)
		}
		bucket := make(map[string]time.Time, len(keys))
		for _, k := range keys {
			bucket[k] = start.UTC()
		}
		s.Fired[period] = bucket
	}

	return s, nil
}
