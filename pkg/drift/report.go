package drift

import (
	"fmt"
	"strings"
)

// Markdown renders the report as a markdown summary.
func (r *Report) Markdown() string {
	var sb strings.Builder

	sb.WriteString("# Drift report\n\n")
	fmt.Fprintf(&sb, "**MMD (RBF, biased):** `%.6f`\n\n", r.Divergence)

	sb.WriteString("| Set | Inputs | Embedded | Missing |\n")
	sb.WriteString("|-----|-------:|---------:|--------:|\n")
	fmt.Fprintf(&sb, "| A | %d | %d | %d |\n", r.SizeA, r.UsedA, len(r.MissingA))
	fmt.Fprintf(&sb, "| B | %d | %d | %d |\n", r.SizeB, r.UsedB, len(r.MissingB))

	if len(r.MissingA)+len(r.MissingB) > 0 {
		fmt.Fprintf(&sb, "\nMissing items were dropped (policy `%s`).\n\n", r.Policy)
		if len(r.MissingA) > 0 {
			fmt.Fprintf(&sb, "- set A positions: %s\n", joinInts(r.MissingA))
		}
		if len(r.MissingB) > 0 {
			fmt.Fprintf(&sb, "- set B positions: %s\n", joinInts(r.MissingB))
		}
	}

	return sb.String()
}

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = fmt.Sprint(x)
	}
	return strings.Join(parts, ", ")
}
