// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package supervisor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/company-research/internal/agent"
	"github.com/pdiddy/company-research/internal/patterns"
	"github.com/pdiddy/company-research/internal/rank"
	"github.com/pdiddy/company-research/pkg/types"
)

// scriptedBackend fakes both executor call contracts. Research calls
// return findings derived from the prompt; reflection is canned.
type scriptedBackend struct {
	mu         sync.Mutex
	researched int
	findings   func(system, user string) (string, error)
	reflection types.Reflection
}

func (b *scriptedBackend) Call(ctx context.Context, system, user string) (string, error) {
	b.mu.Lock()
	b.researched++
	b.mu.Unlock()
	if b.findings != nil {
		return b.findings(system, user)
	}
	return "findings [1]", nil
}

func (b *scriptedBackend) CallReflection(ctx context.Context, system, user string) (types.Reflection, error) {
	return b.reflection, nil
}

func (b *scriptedBackend) CallReview(ctx context.Context, system, user string) (types.GapReport, error) {
	return types.GapReport{}, errors.New("backend is not the reviewer")
}

// scriptedReviewer returns one GapReport per review call, repeating the
// last entry when calls outnumber the script.
type scriptedReviewer struct {
	mu      sync.Mutex
	calls   int
	reports []types.GapReport
	err     error
}

func (r *scriptedReviewer) CallReflection(ctx context.Context, system, user string) (types.Reflection, error) {
	return types.Reflection{}, errors.New("reviewer is not the reflection backend")
}

func (r *scriptedReviewer) CallReview(ctx context.Context, system, user string) (types.GapReport, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.err != nil {
		return types.GapReport{}, r.err
	}
	i := r.calls - 1
	if i >= len(r.reports) {
		i = len(r.reports) - 1
	}
	return r.reports[i], nil
}

func testPages() []types.Page {
	return []types.Page{
		{SourceID: "https://x.test/team", Title: "Leadership Team", Text: "Jane Doe, CEO leads the executive team."},
		{SourceID: "https://x.test/news", Title: "News", Text: "Announced Fund II on 2024-03-01."},
		{SourceID: "https://x.test/about", Title: "About", Text: "Acme invests in early stage companies."},
	}
}

func newTestSupervisor(t *testing.T, cfg types.ResearchConfig, backend *scriptedBackend, reviewer *scriptedReviewer, pages []types.Page) *Supervisor {
	t.Helper()
	executor := agent.NewExecutor(backend, backend, agent.DefaultChecklists(), "Acme Capital", "", nil)
	return New(cfg, executor, reviewer, pages, rank.DefaultTable(), patterns.NewIndex(), "Acme Capital", nil)
}

func doneReport() types.GapReport {
	return types.GapReport{OverallCompleteness: "good", ReadyForMerge: true}
}

func TestRunEmptyCorpus(t *testing.T) {
	backend := &scriptedBackend{reflection: types.Reflection{Confidence: types.ConfidenceHigh, IsComplete: true}}
	reviewer := &scriptedReviewer{reports: []types.GapReport{doneReport()}}
	s := newTestSupervisor(t, types.ResearchConfig{}, backend, reviewer, nil)

	_, err := s.Run(context.Background(), []string{"topic"})
	assert.ErrorIs(t, err, ErrNoPages)
}

func TestRunNoTopics(t *testing.T) {
	backend := &scriptedBackend{}
	reviewer := &scriptedReviewer{reports: []types.GapReport{doneReport()}}
	s := newTestSupervisor(t, types.ResearchConfig{}, backend, reviewer, testPages())

	_, err := s.Run(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no research topics")
}

func TestRunHappyPathNoRefinement(t *testing.T) {
	backend := &scriptedBackend{reflection: types.Reflection{Confidence: types.ConfidenceHigh, IsComplete: true}}
	reviewer := &scriptedReviewer{reports: []types.GapReport{doneReport()}}
	s := newTestSupervisor(t, types.ResearchConfig{}, backend, reviewer, testPages())

	topics := []string{"Who leads the firm?", "What recent news exists?"}
	merged, err := s.Run(context.Background(), topics)
	require.NoError(t, err)

	require.Len(t, merged.Notes, 2)
	assert.Equal(t, "q_0", merged.Notes[0].TopicID)
	assert.Equal(t, "Who leads the firm?", merged.Notes[0].Topic)
	assert.Equal(t, "q_1", merged.Notes[1].TopicID)

	// One research call per topic, one review, no refinement.
	assert.Equal(t, 2, backend.researched)
	assert.Equal(t, 1, reviewer.calls)
}

func TestRunTerminatesAtMaxIterations(t *testing.T) {
	// The reviewer always asks for refinement; the cap must stop the loop
	// after max iterations, i.e. max+1 reviews.
	backend := &scriptedBackend{reflection: types.Reflection{Confidence: types.ConfidenceHigh, IsComplete: true}}
	insist := types.GapReport{
		OverallCompleteness: "gaps remain",
		RefinementNeeded:    true,
		Gaps:                []types.Gap{{TaskID: "q_0", Description: "missing news dates"}},
	}
	reviewer := &scriptedReviewer{reports: []types.GapReport{insist}}

	cfg := types.ResearchConfig{MaxRefinementIterations: 2}
	s := newTestSupervisor(t, cfg, backend, reviewer, testPages())

	merged, err := s.Run(context.Background(), []string{"Recent news about the firm"})
	require.NoError(t, err)
	require.Len(t, merged.Notes, 1)

	assert.Equal(t, 3, reviewer.calls, "2 iterations means 3 review visits")
	// 1 initial + 2 refinement research calls.
	assert.Equal(t, 3, backend.researched)
}

func TestRunRefinementSupersedesInitial(t *testing.T) {
	backend := &scriptedBackend{
		reflection: types.Reflection{Confidence: types.ConfidenceHigh, IsComplete: true},
		findings: func(system, user string) (string, error) {
			if strings.Contains(system, "second pass") {
				return "refined findings [1]", nil
			}
			return "initial findings [1]", nil
		},
	}
	reviewer := &scriptedReviewer{reports: []types.GapReport{
		{RefinementNeeded: true, Gaps: []types.Gap{{TaskID: "q_0", Description: "missing news dates"}}},
		doneReport(),
	}}

	s := newTestSupervisor(t, types.ResearchConfig{MaxRefinementIterations: 2}, backend, reviewer, testPages())

	merged, err := s.Run(context.Background(), []string{"Recent news about the firm"})
	require.NoError(t, err)
	require.Len(t, merged.Notes, 1)

	assert.Contains(t, merged.Notes[0].Content, "refined findings")
	assert.NotContains(t, merged.Notes[0].Content, "initial findings")
	assert.Equal(t, 2, reviewer.calls)
}

func TestRunFailedRefinementKeepsInitial(t *testing.T) {
	backend := &scriptedBackend{
		reflection: types.Reflection{Confidence: types.ConfidenceHigh, IsComplete: true},
		findings: func(system, user string) (string, error) {
			if strings.Contains(system, "second pass") {
				return "", errors.New("model unavailable")
			}
			return "initial findings [1]", nil
		},
	}
	reviewer := &scriptedReviewer{reports: []types.GapReport{
		{RefinementNeeded: true, Gaps: []types.Gap{{TaskID: "q_0", Description: "missing news dates"}}},
		doneReport(),
	}}

	s := newTestSupervisor(t, types.ResearchConfig{MaxRefinementIterations: 2}, backend, reviewer, testPages())

	merged, err := s.Run(context.Background(), []string{"Recent news about the firm"})
	require.NoError(t, err)
	require.Len(t, merged.Notes, 1)

	// The surviving initial result still backs the note.
	assert.False(t, merged.Notes[0].Unavailable)
	assert.Contains(t, merged.Notes[0].Content, "initial findings")
}

func TestRunReviewFailureFallsBackToMerge(t *testing.T) {
	backend := &scriptedBackend{reflection: types.Reflection{Confidence: types.ConfidenceHigh, IsComplete: true}}
	reviewer := &scriptedReviewer{err: errors.New("review model down")}

	s := newTestSupervisor(t, types.ResearchConfig{}, backend, reviewer, testPages())

	merged, err := s.Run(context.Background(), []string{"Who leads the firm?"})
	require.NoError(t, err)
	require.Len(t, merged.Notes, 1)
	assert.False(t, merged.Notes[0].Unavailable)
	assert.Equal(t, 1, reviewer.calls)
}

func TestRunFailedTopicEmitsUnavailableNote(t *testing.T) {
	backend := &scriptedBackend{
		reflection: types.Reflection{Confidence: types.ConfidenceHigh, IsComplete: true},
		findings: func(system, user string) (string, error) {
			if strings.Contains(user, "doomed") {
				return "", errors.New("persistent failure")
			}
			return "fine [1]", nil
		},
	}
	reviewer := &scriptedReviewer{reports: []types.GapReport{doneReport()}}

	s := newTestSupervisor(t, types.ResearchConfig{}, backend, reviewer, testPages())

	merged, err := s.Run(context.Background(), []string{"Who leads the firm?", "doomed topic"})
	require.NoError(t, err)
	require.Len(t, merged.Notes, 2)

	assert.False(t, merged.Notes[0].Unavailable)
	assert.True(t, merged.Notes[1].Unavailable)
	assert.Equal(t, "doomed topic", merged.Notes[1].Topic)
	assert.NotEmpty(t, merged.Notes[1].Content)
}

func TestRunSynthesizesGapsFromReflections(t *testing.T) {
	backend := &scriptedBackend{
		reflection: types.Reflection{
			IsComplete:     false,
			Confidence:     types.ConfidenceLow,
			MissingAspects: []string{"exact announcement dates"},
		},
	}
	// Reviewer wants refinement but names no gaps; the supervisor must
	// synthesize them from the low-confidence reflections.
	reviewer := &scriptedReviewer{reports: []types.GapReport{
		{RefinementNeeded: true},
		doneReport(),
	}}

	s := newTestSupervisor(t, types.ResearchConfig{MaxRefinementIterations: 2}, backend, reviewer, testPages())

	_, err := s.Run(context.Background(), []string{"Recent news about the firm"})
	require.NoError(t, err)

	// A refinement pass actually ran: 1 initial + 1 refinement.
	assert.Equal(t, 2, backend.researched)
	assert.Equal(t, 2, reviewer.calls)
}

func TestCoreTopics(t *testing.T) {
	topics := CoreTopics("Acme Capital")
	require.Len(t, topics, 6)
	for _, topic := range topics {
		assert.Contains(t, topic, "Acme Capital")
	}
}

func TestOriginOf(t *testing.T) {
	state := &runState{topics: []topicEntry{
		{taskID: "q_0"}, {taskID: "q_1"}, {taskID: "q_10"},
	}}

	assert.Equal(t, "q_1", originOf("q_1", state))
	assert.Equal(t, "q_1", originOf("q_1_refinement_2", state))
	assert.Equal(t, "q_10", originOf("q_10_refinement_1", state))
	assert.Equal(t, "unknown", originOf("unknown", state))
}

func TestReviewPromptNamesFailures(t *testing.T) {
	backend := &scriptedBackend{}
	reviewer := &scriptedReviewer{reports: []types.GapReport{doneReport()}}
	s := newTestSupervisor(t, types.ResearchConfig{}, backend, reviewer, testPages())

	state := &runState{
		topics: []topicEntry{
			{taskID: "q_0", topic: "good topic"},
			{taskID: "q_1", topic: "bad topic"},
		},
		results: map[string]types.SubTaskResult{
			"q_0": {TaskID: "q_0", OriginID: "q_0", Findings: "solid findings",
				Reflection: types.Reflection{IsComplete: true, Confidence: types.ConfidenceHigh}},
		},
		failures: map[string]error{"q_1": fmt.Errorf("boom")},
	}

	prompt := s.reviewPrompt(state)
	assert.Contains(t, prompt, "solid findings")
	assert.Contains(t, prompt, "FAILED: no findings available")
	assert.Contains(t, prompt, "bad topic")
}
