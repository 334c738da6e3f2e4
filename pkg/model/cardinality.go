package model

import (
	"fmt"
	"strconv"
	"strings"
)

// Cardinality is a participation constraint on one side of a structural
// link: either an exact count ("3") or an open range with a finite lower
// bound ("0..*").
type Cardinality struct {
	Min  int
	Open bool
}

// String renders the cardinality in wire format.
func (c Cardinality) String() string {
	if c.Open {
		return fmt.Sprintf("%d..*", c.Min)
	}
	return strconv.Itoa(c.Min)
}

// ParseCardinality parses the wire format. The empty string means "no
// constraint" and yields a nil cardinality.
func ParseCardinality(s string) (*Cardinality, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if lower, ok := strings.CutSuffix(s, "..*"); ok {
		n, err := strconv.Atoi(lower)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid cardinality %q", s)
		}
		return &Cardinality{Min: n, Open: true}, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("invalid cardinality %q", s)
	}
	return &Cardinality{Min: n}, nil
}

// CardinalityString renders a possibly-nil cardinality ("" when absent).
func CardinalityString(c *Cardinality) string {
	if c == nil {
		return ""
	}
	return c.String()
}
