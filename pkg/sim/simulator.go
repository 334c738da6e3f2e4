// Package sim fires the place/transition net derived from a diagram. The
// simulator owns a mutable marking; the net itself is never modified, so
// several simulators can share one net.
package sim

import (
	"errors"
	"fmt"
	"sort"

	"github.com/opmstudio/engine/pkg/metrics"
	"github.com/opmstudio/engine/pkg/petri"
)

var (
	// ErrNotEnabled is returned when firing a transition whose input
	// places lack tokens.
	ErrNotEnabled = errors.New("sim: transition not enabled")
	// ErrUnknownTransition is returned for a transition id the net does
	// not contain.
	ErrUnknownTransition = errors.New("sim: unknown transition")
	// ErrDeadlocked is returned by Step when no transition is enabled.
	ErrDeadlocked = errors.New("sim: no enabled transition")
	// ErrStepLimitExceeded is returned when RunToFixpoint hits its step
	// budget before reaching a dead marking.
	ErrStepLimitExceeded = errors.New("sim: step limit exceeded")
)

// Policy picks the transition to fire from the enabled set. The set is
// sorted by id and never empty.
type Policy func(enabled []string) string

// LowestID is the deterministic default policy.
func LowestID(enabled []string) string {
	return enabled[0]
}

// Explicit fires one specific transition, ignoring the rest of the enabled
// set; Step reports ErrNotEnabled if it is not in the set.
func Explicit(transitionID string) Policy {
	return func(enabled []string) string {
		for _, tid := range enabled {
			if tid == transitionID {
				return tid
			}
		}
		return ""
	}
}

// Simulator advances a marking over a fixed net.
type Simulator struct {
	net     *petri.Net
	marking petri.Marking
	history []string
	metrics *metrics.Registry
}

// New starts a simulator at the net's initial marking.
func New(net *petri.Net) *Simulator {
	return &Simulator{net: net, marking: net.Initial.Clone()}
}

// SetMetrics attaches a metrics registry; nil disables instrumentation.
func (s *Simulator) SetMetrics(m *metrics.Registry) {
	s.metrics = m
}

// Marking returns a copy of the current marking.
func (s *Simulator) Marking() petri.Marking {
	return s.marking.Clone()
}

// History returns the ids of fired transitions, oldest first.
func (s *Simulator) History() []string {
	return append([]string(nil), s.history...)
}

// Enabled reports whether the transition can fire: every consuming and test
// input holds a token. A transition with no inputs is never enabled, which
// keeps source-less processes from firing forever.
func (s *Simulator) Enabled(transitionID string) (bool, error) {
	t, ok := s.net.Transitions[transitionID]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownTransition, transitionID)
	}
	return enabledIn(t, s.marking), nil
}

func enabledIn(t *petri.Transition, m petri.Marking) bool {
	if len(t.Inputs) == 0 {
		return false
	}
	need := make(map[string]int)
	for _, a := range t.Inputs {
		if a.Kind == petri.ArcConsume {
			need[a.PlaceID]++
		} else if need[a.PlaceID] < 1 {
			need[a.PlaceID] = 1
		}
	}
	for pid, n := range need {
		if m.Tokens(pid) < n {
			return false
		}
	}
	return true
}

// EnabledSet returns the ids of all enabled transitions, sorted.
func (s *Simulator) EnabledSet() []string {
	return enabledSet(s.net, s.marking)
}

func enabledSet(net *petri.Net, m petri.Marking) []string {
	var out []string
	for tid, t := range net.Transitions {
		if enabledIn(t, m) {
			out = append(out, tid)
		}
	}
	sort.Strings(out)
	return out
}

// Fire fires one transition atomically: either the marking moves in full or
// it does not change at all.
func (s *Simulator) Fire(transitionID string) error {
	t, ok := s.net.Transitions[transitionID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTransition, transitionID)
	}
	if !enabledIn(t, s.marking) {
		return fmt.Errorf("%w: %s", ErrNotEnabled, transitionID)
	}
	s.marking = fire(t, s.marking)
	s.history = append(s.history, transitionID)
	if s.metrics != nil {
		s.metrics.TransitionsFired.Inc()
	}
	return nil
}

// fire assumes t is enabled in m and returns the successor marking.
func fire(t *petri.Transition, m petri.Marking) petri.Marking {
	next := m.Clone()
	for _, a := range t.Inputs {
		if a.Kind == petri.ArcConsume {
			if next[a.PlaceID]--; next[a.PlaceID] == 0 {
				delete(next, a.PlaceID)
			}
		}
	}
	for _, a := range t.Outputs {
		next[a.PlaceID]++
	}
	return next
}

// Step fires exactly one transition chosen by the policy. ErrDeadlocked
// means nothing was enabled; ErrNotEnabled means the policy declined the
// enabled set.
func (s *Simulator) Step(pick Policy) (string, error) {
	enabled := s.EnabledSet()
	if len(enabled) == 0 {
		return "", ErrDeadlocked
	}
	tid := pick(enabled)
	if tid == "" {
		return "", ErrNotEnabled
	}
	if err := s.Fire(tid); err != nil {
		return "", err
	}
	if s.metrics != nil {
		s.metrics.SimulationSteps.Inc()
	}
	return tid, nil
}

// RunToFixpoint steps with the lowest-id policy until the net deadlocks,
// returning the fired sequence. ErrStepLimitExceeded carries the partial
// sequence after maxSteps firings without reaching a dead marking.
func (s *Simulator) RunToFixpoint(maxSteps int) ([]string, error) {
	var fired []string
	for i := 0; i < maxSteps; i++ {
		tid, err := s.Step(LowestID)
		if errors.Is(err, ErrDeadlocked) {
			return fired, nil
		}
		if err != nil {
			return fired, err
		}
		fired = append(fired, tid)
	}
	if len(s.EnabledSet()) == 0 {
		return fired, nil
	}
	return fired, fmt.Errorf("%w: %d steps", ErrStepLimitExceeded, maxSteps)
}

// Reset rewinds to the initial marking and clears the history.
func (s *Simulator) Reset() {
	s.marking = s.net.Initial.Clone()
	s.history = nil
}
