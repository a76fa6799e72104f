// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// merge.go consolidates surviving sub-task results into writer-ready
// notes. A refinement result supersedes the initial result for its topic
// entirely; citations are renumbered into a single global scheme; topics
// with no surviving result still emit a note so no report section is ever
// silently dropped. Implements: prd006-reporting (R1-R3).
package supervisor

import (
	"fmt"
	"regexp"
	"strconv"

	"go.uber.org/zap"

	"github.com/pdiddy/company-research/pkg/types"
)

// citeMarkerRe matches inline numeric citation markers like [1], [12].
var citeMarkerRe = regexp.MustCompile(`\[(\d+)\]`)

// unavailableContent is the placeholder body for topics whose every
// attempt failed. The writer renders it instead of omitting the section.
const unavailableContent = "Information on this topic is not disclosed in the researched sources."

// merge walks topics in their original order, picks each topic's
// surviving result (refinement supersedes initial), assigns global
// citation indices to sources in first-encounter order, and rewrites
// inline markers from result-local numbering to the global one.
func (s *Supervisor) merge(state *runState) types.MergedNotes {
	globalIndex := make(map[string]int) // source ID → 1-based global index
	var citations []string

	assign := func(sourceID string) int {
		if idx, ok := globalIndex[sourceID]; ok {
			return idx
		}
		citations = append(citations, sourceID)
		globalIndex[sourceID] = len(citations)
		return len(citations)
	}

	var notes []types.Note
	for _, t := range state.topics {
		result, ok := state.results[t.taskID]
		if !ok {
			s.log.Warn("topic unavailable in final notes",
				zap.String("task_id", t.taskID),
				zap.NamedError("cause", state.failures[t.taskID]))
			notes = append(notes, types.Note{
				TopicID:     t.taskID,
				Topic:       t.topic,
				Content:     unavailableContent,
				Unavailable: true,
			})
			continue
		}

		// Every source of the result gets a global index, cited or not,
		// so the note's source list round-trips through the table.
		local := make([]int, len(result.Sources))
		for i, src := range result.Sources {
			local[i] = assign(src)
		}

		notes = append(notes, types.Note{
			TopicID: t.taskID,
			Topic:   t.topic,
			Content: renumber(result.Findings, local),
			Sources: result.Sources,
		})
	}

	return types.MergedNotes{Notes: notes, Citations: citations}
}

// renumber rewrites inline [n] markers from result-local numbering
// (1-based into the result's own sources) to the global numbering given
// by local. Markers outside the local range are dangling — they cannot
// map to any source — and are removed rather than carried into the
// report.
func renumber(findings string, local []int) string {
	return citeMarkerRe.ReplaceAllStringFunc(findings, func(marker string) string {
		n, err := strconv.Atoi(marker[1 : len(marker)-1])
		if err != nil || n < 1 || n > len(local) {
			return ""
		}
		return fmt.Sprintf("[%d]", local[n-1])
	})
}
