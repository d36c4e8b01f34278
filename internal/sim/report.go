package sim

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/roach88/ticketwar/internal/engine"
)

// Report aggregates the outcomes of a run.
type Report struct {
	Variant   string `json:"variant" yaml:"variant"`
	Sessions  int    `json:"sessions" yaml:"sessions"`
	Confirmed int    `json:"confirmed" yaml:"confirmed"`
	Exhausted int    `json:"exhausted" yaml:"exhausted"`
	GaveUp    int    `json:"gave_up" yaml:"gave_up"`
	SoldOut   int    `json:"sold_out" yaml:"sold_out"`

	Attempts       int `json:"attempts" yaml:"attempts"`
	SeatsStolen    int `json:"seats_stolen" yaml:"seats_stolen"`
	SeatsConfirmed int `json:"seats_confirmed" yaml:"seats_confirmed"`

	// ByKind and ByReason count every final result, not just the last one.
	ByKind   map[engine.Kind]int   `json:"by_kind" yaml:"by_kind"`
	ByReason map[engine.Reason]int `json:"by_reason" yaml:"by_reason"`

	SuccessRate        float64       `json:"success_rate" yaml:"success_rate"`
	AttemptsPerSuccess float64       `json:"attempts_per_success" yaml:"attempts_per_success"`
	MeanElapsed        time.Duration `json:"mean_elapsed" yaml:"mean_elapsed"`

	Outcomes []Outcome `json:"outcomes,omitempty" yaml:"outcomes,omitempty"`
}

func summarize(variant string, outcomes []Outcome) Report {
	r := Report{
		Variant:  variant,
		Sessions: len(outcomes),
		ByKind:   map[engine.Kind]int{},
		ByReason: map[engine.Reason]int{},
		Outcomes: outcomes,
	}

	var elapsed time.Duration
	for _, o := range outcomes {
		switch {
		case o.Kind == engine.KindConfirmed:
			r.Confirmed++
			r.SeatsConfirmed += len(o.Seats)
		case o.Kind == engine.KindExhausted:
			r.Exhausted++
		case o.SoldOut:
			r.SoldOut++
		default:
			r.GaveUp++
		}
		r.Attempts += o.Attempts
		r.SeatsStolen += o.Stolen
		elapsed += o.Elapsed

		for _, res := range o.results {
			r.ByKind[res.Kind]++
			if res.Reason != "" {
				r.ByReason[res.Reason]++
			}
		}
	}

	if r.Sessions > 0 {
		r.SuccessRate = float64(r.Confirmed) / float64(r.Sessions)
		r.MeanElapsed = elapsed / time.Duration(r.Sessions)
	}
	if r.Confirmed > 0 {
		r.AttemptsPerSuccess = float64(r.Attempts) / float64(r.Confirmed)
	}
	return r
}

// Text renders the report for a terminal. Numbers are grouped for tag.
func (r Report) Text(tag language.Tag) string {
	p := message.NewPrinter(tag)
	var b strings.Builder

	p.Fprintf(&b, "Variant:              %s\n", r.Variant)
	p.Fprintf(&b, "Sessions:             %d\n", r.Sessions)
	p.Fprintf(&b, "Confirmed:            %d (%.1f%%)\n", r.Confirmed, r.SuccessRate*100)
	p.Fprintf(&b, "Exhausted:            %d\n", r.Exhausted)
	p.Fprintf(&b, "Gave up:              %d\n", r.GaveUp)
	p.Fprintf(&b, "Sold out:             %d\n", r.SoldOut)
	p.Fprintf(&b, "Attempts:             %d\n", r.Attempts)
	p.Fprintf(&b, "Attempts per success: %.2f\n", r.AttemptsPerSuccess)
	p.Fprintf(&b, "Seats confirmed:      %d\n", r.SeatsConfirmed)
	p.Fprintf(&b, "Seats stolen:         %d\n", r.SeatsStolen)
	p.Fprintf(&b, "Mean session time:    %s\n", r.MeanElapsed.Round(time.Second))

	if len(r.ByKind) > 0 {
		b.WriteString("Results:\n")
		for _, k := range sortedKeys(r.ByKind) {
			p.Fprintf(&b, "  %-14s %d\n", k, r.ByKind[k])
		}
	}
	if len(r.ByReason) > 0 {
		b.WriteString("Reasons:\n")
		for _, k := range sortedKeys(r.ByReason) {
			p.Fprintf(&b, "  %-14s %d\n", k, r.ByReason[k])
		}
	}
	return b.String()
}

func sortedKeys[K ~string](m map[K]int) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}
