// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package supervisor

import (
	"regexp"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/company-research/internal/patterns"
	"github.com/pdiddy/company-research/internal/rank"
	"github.com/pdiddy/company-research/pkg/types"
)

func mergeSupervisor() *Supervisor {
	return New(types.ResearchConfig{}, nil, nil, testPages(),
		rank.DefaultTable(), patterns.NewIndex(), "Acme Capital", nil)
}

func TestMergeRenumbersSharedSources(t *testing.T) {
	s := mergeSupervisor()

	// Topic 1 cites A and B; topic 2 cites B and C; topic 3 reuses A.
	state := &runState{
		topics: []topicEntry{
			{taskID: "q_0", topic: "first"},
			{taskID: "q_1", topic: "second"},
			{taskID: "q_2", topic: "third"},
		},
		results: map[string]types.SubTaskResult{
			"q_0": {Findings: "fact one [1], fact two [2]", Sources: []string{"A", "B"}},
			"q_1": {Findings: "fact three [1] and [2]", Sources: []string{"B", "C"}},
			"q_2": {Findings: "fact four [1]", Sources: []string{"A"}},
		},
		failures: map[string]error{},
	}

	merged := s.merge(state)

	// Global order is first-encounter walking topics in order: A, B, C.
	assert.Equal(t, []string{"A", "B", "C"}, merged.Citations)

	require.Len(t, merged.Notes, 3)
	assert.Equal(t, "fact one [1], fact two [2]", merged.Notes[0].Content)
	// Topic 2's local [1] is B (global 2), local [2] is C (global 3).
	assert.Equal(t, "fact three [2] and [3]", merged.Notes[1].Content)
	// Topic 3 reuses A, which keeps global index 1.
	assert.Equal(t, "fact four [1]", merged.Notes[2].Content)
}

func TestMergeNoDanglingCitations(t *testing.T) {
	s := mergeSupervisor()

	state := &runState{
		topics: []topicEntry{{taskID: "q_0", topic: "only"}},
		results: map[string]types.SubTaskResult{
			// [3] has no backing source: the model hallucinated a marker.
			"q_0": {Findings: "real [1] and phantom [3] and [0]", Sources: []string{"A"}},
		},
		failures: map[string]error{},
	}

	merged := s.merge(state)
	require.Len(t, merged.Notes, 1)
	assert.Equal(t, "real [1] and phantom  and ", merged.Notes[0].Content)

	// Property: every surviving marker resolves inside the citation table.
	markerRe := regexp.MustCompile(`\[(\d+)\]`)
	for _, m := range markerRe.FindAllStringSubmatch(merged.Notes[0].Content, -1) {
		n, err := strconv.Atoi(m[1])
		require.NoError(t, err)
		assert.GreaterOrEqual(t, n, 1)
		assert.LessOrEqual(t, n, len(merged.Citations))
	}
}

func TestMergeUnavailableTopic(t *testing.T) {
	s := mergeSupervisor()

	state := &runState{
		topics: []topicEntry{
			{taskID: "q_0", topic: "answered"},
			{taskID: "q_1", topic: "failed everywhere"},
		},
		results: map[string]types.SubTaskResult{
			"q_0": {Findings: "fine [1]", Sources: []string{"A"}},
		},
		failures: map[string]error{"q_1": assert.AnError},
	}

	merged := s.merge(state)
	require.Len(t, merged.Notes, 2)

	note := merged.Notes[1]
	assert.True(t, note.Unavailable)
	assert.Equal(t, "q_1", note.TopicID)
	assert.Equal(t, "failed everywhere", note.Topic)
	assert.NotEmpty(t, note.Content)
	assert.Empty(t, note.Sources)

	// Failed topics contribute nothing to the citation table.
	assert.Equal(t, []string{"A"}, merged.Citations)
}

func TestMergeUncitedSourcesStillIndexed(t *testing.T) {
	s := mergeSupervisor()

	state := &runState{
		topics: []topicEntry{{taskID: "q_0", topic: "only"}},
		results: map[string]types.SubTaskResult{
			// B provided context but was never cited inline; it still gets
			// a global index so the note's source list round-trips.
			"q_0": {Findings: "cites only [1]", Sources: []string{"A", "B"}},
		},
		failures: map[string]error{},
	}

	merged := s.merge(state)
	assert.Equal(t, []string{"A", "B"}, merged.Citations)
	assert.Equal(t, []string{"A", "B"}, merged.Notes[0].Sources)
}

func TestRenumber(t *testing.T) {
	tests := []struct {
		name     string
		findings string
		local    []int
		want     string
	}{
		{
			name:     "remaps in one pass without collisions",
			findings: "[1] [2]",
			local:    []int{2, 1},
			want:     "[2] [1]",
		},
		{
			name:     "out of range removed",
			findings: "ok [1] gone [9]",
			local:    []int{4},
			want:     "ok [4] gone ",
		},
		{
			name:     "no markers untouched",
			findings: "plain text",
			local:    []int{1},
			want:     "plain text",
		},
		{
			name:     "multi-digit markers",
			findings: "deep [12]",
			local:    []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 42},
			want:     "deep [42]",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, renumber(tt.findings, tt.local))
		})
	}
}
