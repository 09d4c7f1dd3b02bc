package drift

import (
	"fmt"
	"strings"
)

// MissingPolicy decides what a comparison does with items that produced no
// embedding.
type MissingPolicy int

const (
	// AbortOnMissing fails the comparison if any item is missing.
	AbortOnMissing MissingPolicy = iota

	// DropMissing excludes missing items and reports them.
	DropMissing
)

func (p MissingPolicy) String() string {
	switch p {
	case AbortOnMissing:
		return "abort"
	case DropMissing:
		return "drop"
	default:
		return fmt.Sprintf("MissingPolicy(%d)", int(p))
	}
}

// ParseMissingPolicy parses "abort" or "drop".
func ParseMissingPolicy(s string) (MissingPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "abort":
		return AbortOnMissing, nil
	case "drop":
		return DropMissing, nil
	default:
		return 0, fmt.Errorf("unknown missing policy %q: expected \"abort\" or \"drop\"", s)
	}
}
