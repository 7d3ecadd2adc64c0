package pipeline

import (
	"fmt"
	"strings"

	"github.com/wonny/chartsignal/internal/contracts"
	"github.com/wonny/chartsignal/internal/narrative"
)

// Summary renders a batch overview: a header, counts per label and one line
// per instrument in input order
func Summary(r *Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "📊 Signal report %s | %d symbols\n", r.Started.Format("2006-01-02"), len(r.Results))

	counts := make(map[contracts.Label]int)
	for _, res := range r.Results {
		if res.Signal != nil {
			counts[res.Signal.Overall]++
		}
	}
	parts := make([]string, 0, len(contracts.Labels())+1)
	for _, l := range contracts.Labels() {
		if counts[l] > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", narrative.LabelText(l), counts[l]))
		}
	}
	if failed := r.Failed(); failed > 0 {
		parts = append(parts, fmt.Sprintf("FAILED %d", failed))
	}
	if len(parts) > 0 {
		b.WriteString(strings.Join(parts, " · "))
		b.WriteString("\n")
	}

	for _, res := range r.Results {
		b.WriteString("\n")
		if res.Signal == nil {
			fmt.Fprintf(&b, "⚠️ %s: %s", res.Symbol, res.Reason)
			continue
		}
		s := res.Signal
		fmt.Fprintf(&b, "%s %s %s %+.2f (%.2f, %+.2f%%)",
			narrative.LabelMarker(s.Overall), s.Symbol, narrative.LabelText(s.Overall),
			s.Strength, s.Price, s.ChangePct)
	}
	return b.String()
}
