package master

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/roach88/seedbank/internal/seed"
)

// Column widths of the summary table.
const (
	confSeedWidth = 18
	lastSeedWidth = 18
)

// Print writes the end-of-job summary: one row per known engine with its
// configured and most recent seed, plus markers for per-event seeding,
// global scope, overrides and inconsistencies.
func (m *Master) Print(w io.Writer) {
	fmt.Fprint(w, "Summary of the seeds served to the job's random engines\n")

	var desc strings.Builder
	m.pol.Describe(&desc)
	if desc.Len() > 0 {
		fmt.Fprintf(w, "%s\n", desc.String())
	}

	if len(m.current) == 0 {
		fmt.Fprintln(w)
		return
	}

	fmt.Fprintf(w, "\n %*s  %*s   %s",
		confSeedWidth, "Configured value",
		lastSeedWidth, "Last value",
		"ModuleLabel.InstanceName")

	ids := make([]seed.EngineID, 0, len(m.current))
	for id := range m.current {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].Less(ids[j]) })

	for _, id := range ids {
		configured := m.configured[id]
		current := m.current[id]

		var confCol, lastCol, flag string
		switch {
		case !seed.IsValid(configured) && !seed.IsValid(current):
			confCol, lastCol = "INVALID!!!", ""
		case !seed.IsValid(configured):
			confCol, lastCol = "(per event)", fmt.Sprint(current)
		case configured == current:
			confCol, lastCol = fmt.Sprint(configured), "(same)"
		default:
			// A configured seed should have stuck for the whole job.
			confCol, lastCol = fmt.Sprint(configured), fmt.Sprint(current)
			flag = "  [[ERROR!!!]]"
		}

		fmt.Fprintf(w, "\n %*s  %*s   %s%s", confSeedWidth, confCol, lastSeedWidth, lastCol, id, flag)
		if id.IsGlobal() {
			fmt.Fprint(w, " (global)")
		}
		if m.IsFrozen(id) {
			fmt.Fprint(w, " [overridden]")
		}
	}
	fmt.Fprint(w, "\n\n")
}
