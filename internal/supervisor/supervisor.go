// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package supervisor orchestrates the research run: it decomposes topics
// into sub-tasks, dispatches them to a bounded worker pool, reviews the
// aggregate results for coverage gaps, drives targeted refinement passes
// over pattern-matched snippets, and merges everything into writer-ready
// notes with globally consistent citations.
//
// The phase machine is fixed-shape:
//
//	INIT → INITIAL_DISPATCH → REVIEW → (REFINEMENT_DISPATCH → REVIEW)* → MERGE → DONE
//
// Implements: prd004-supervision (R1-R5), prd006-reporting (R1-R3).
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/company-research/internal/agent"
	"github.com/pdiddy/company-research/internal/dispatch"
	"github.com/pdiddy/company-research/internal/patterns"
	"github.com/pdiddy/company-research/internal/rank"
	"github.com/pdiddy/company-research/pkg/types"
)

// ErrNoPages is returned when the page store is empty at INIT. An empty
// corpus is the only fatal condition: there is nothing to research.
var ErrNoPages = errors.New("page store is empty: nothing to research")

// Phase names a state of the supervisor's phase machine.
type Phase string

const (
	PhaseInit               Phase = "INIT"
	PhaseInitialDispatch    Phase = "INITIAL_DISPATCH"
	PhaseReview             Phase = "REVIEW"
	PhaseRefinementDispatch Phase = "REFINEMENT_DISPATCH"
	PhaseMerge              Phase = "MERGE"
	PhaseDone               Phase = "DONE"
)

const (
	defaultInitialWorkers    = 4
	defaultRefinementWorkers = 2
	defaultMaxRefinements    = 2

	// findingsPreviewLimit bounds the first-pass preview embedded in a
	// refinement prompt and the per-task summary in the review prompt.
	findingsPreviewLimit = 500
)

const reviewSystem = `You are a research supervisor reviewing findings from multiple specialized
sub-agents researching a company's private-investing activity. Assess overall
completeness, identify per-task gaps, and decide whether a targeted
refinement pass is needed or the findings are ready for report writing.`

// Supervisor coordinates one research run over a fixed page corpus.
type Supervisor struct {
	cfg      types.ResearchConfig
	executor *agent.Executor
	reviewer agent.StructuredCaller
	pages    []types.Page
	table    rank.Table
	index    *patterns.Index
	company  string
	log      *zap.Logger
}

// topicEntry pins a topic's identity and creation-time classification for
// the whole run; categories are never re-derived after this point.
type topicEntry struct {
	taskID     string
	topic      string
	categories []types.TopicCategory
}

// runState is the evolving research state threaded through the phases.
// Each phase reads and writes it explicitly; there is no ambient state.
type runState struct {
	topics    []topicEntry
	results   map[string]types.SubTaskResult // origin task ID → surviving result
	failures  map[string]error               // origin task ID → last error, if never succeeded
	report    types.GapReport                // latest review; superseded each iteration
	iteration int
}

// New returns a supervisor for one run. pages is the read-only corpus
// snapshot; table and index are the creation-time configuration tables.
func New(cfg types.ResearchConfig, executor *agent.Executor, reviewer agent.StructuredCaller, pages []types.Page, table rank.Table, index *patterns.Index, company string, log *zap.Logger) *Supervisor {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.InitialWorkers <= 0 {
		cfg.InitialWorkers = defaultInitialWorkers
	}
	if cfg.RefinementWorkers <= 0 {
		cfg.RefinementWorkers = defaultRefinementWorkers
	}
	if cfg.MaxRefinementIterations < 0 {
		cfg.MaxRefinementIterations = defaultMaxRefinements
	}
	return &Supervisor{
		cfg:      cfg,
		executor: executor,
		reviewer: reviewer,
		pages:    pages,
		table:    table,
		index:    index,
		company:  company,
		log:      log,
	}
}

// Run executes the full phase machine for the given topic list and
// returns the merged notes plus the global citation table. Topics arrive
// as plain strings; topic generation is the caller's concern.
func (s *Supervisor) Run(ctx context.Context, topics []string) (types.MergedNotes, error) {
	state, err := s.initPhase(topics)
	if err != nil {
		return types.MergedNotes{}, err
	}

	s.initialDispatch(ctx, state)

	for {
		s.reviewPhase(ctx, state)

		if !state.report.RefinementNeeded || state.iteration >= s.cfg.MaxRefinementIterations {
			break
		}

		s.refinementDispatch(ctx, state)
		state.iteration++
	}

	s.log.Info("phase", zap.String("phase", string(PhaseMerge)))
	merged := s.merge(state)
	s.log.Info("phase", zap.String("phase", string(PhaseDone)),
		zap.Int("notes", len(merged.Notes)),
		zap.Int("citations", len(merged.Citations)))
	return merged, nil
}

// initPhase validates the corpus and builds one first-pass task per topic
// with target_sources covering every known source.
func (s *Supervisor) initPhase(topics []string) (*runState, error) {
	s.log.Info("phase", zap.String("phase", string(PhaseInit)), zap.Int("topics", len(topics)))

	if len(s.pages) == 0 {
		return nil, ErrNoPages
	}
	if len(topics) == 0 {
		return nil, errors.New("no research topics supplied")
	}

	state := &runState{
		results:  make(map[string]types.SubTaskResult),
		failures: make(map[string]error),
	}
	for i, topic := range topics {
		state.topics = append(state.topics, topicEntry{
			taskID:     fmt.Sprintf("q_%d", i),
			topic:      topic,
			categories: rank.Classify(topic, s.table),
		})
	}
	return state, nil
}

// initialDispatch runs every first-pass task against ranked full-page
// context with the wide worker pool.
func (s *Supervisor) initialDispatch(ctx context.Context, state *runState) {
	s.log.Info("phase", zap.String("phase", string(PhaseInitialDispatch)),
		zap.Int("tasks", len(state.topics)),
		zap.Int("workers", s.cfg.InitialWorkers))

	allSources := make([]string, 0, len(s.pages))
	for _, p := range s.pages {
		allSources = append(allSources, p.SourceID)
	}

	tasks := make([]types.SubTask, 0, len(state.topics))
	for _, t := range state.topics {
		tasks = append(tasks, types.SubTask{
			TaskID:        t.taskID,
			OriginID:      t.taskID,
			Topic:         t.topic,
			Categories:    t.categories,
			TargetSources: allSources,
		})
	}

	outcomes := dispatch.Dispatch(ctx, tasks, s.cfg.InitialWorkers, s.runInitialTask, s.log)
	s.collect(state, outcomes)
}

// runInitialTask prepares ranked context for a first-pass task and
// executes it.
func (s *Supervisor) runInitialTask(ctx context.Context, task types.SubTask) (types.SubTaskResult, error) {
	ranked := rank.Rank(s.pages, task.Categories, s.table)
	researchContext, sources := rank.BuildContext(ranked, s.cfg.ContextByteBudget)
	return s.executor.Execute(ctx, task, researchContext, sources)
}

// collect folds dispatch outcomes into the run state. Successful results
// supersede any earlier result for the same origin; failures are recorded
// only when the origin has no surviving result.
func (s *Supervisor) collect(state *runState, outcomes map[string]dispatch.Outcome) {
	for _, o := range outcomes {
		if o.Failed() {
			continue
		}
		state.results[o.Result.OriginID] = *o.Result
		delete(state.failures, o.Result.OriginID)
	}
	for taskID, o := range outcomes {
		if !o.Failed() {
			continue
		}
		origin := originOf(taskID, state)
		if _, ok := state.results[origin]; !ok {
			state.failures[origin] = o.Err
		}
	}
}

// originOf resolves a task ID from an outcome map back to its origin
// topic. Refinement IDs carry the origin as a prefix.
func originOf(taskID string, state *runState) string {
	for _, t := range state.topics {
		if taskID == t.taskID || strings.HasPrefix(taskID, t.taskID+"_refinement") {
			return t.taskID
		}
	}
	return taskID
}

// reviewPhase aggregates the surviving results and asks the reviewer for
// a gap report. A review failure is fatal to the iteration, not the run:
// the supervisor proceeds to merge with whatever results exist.
func (s *Supervisor) reviewPhase(ctx context.Context, state *runState) {
	s.log.Info("phase", zap.String("phase", string(PhaseReview)),
		zap.Int("iteration", state.iteration),
		zap.Int("results", len(state.results)),
		zap.Int("failures", len(state.failures)))

	report, err := s.reviewer.CallReview(ctx, reviewSystem, s.reviewPrompt(state))
	if err != nil {
		s.log.Warn("review call failed, proceeding to merge", zap.Error(err))
		state.report = types.GapReport{
			OverallCompleteness: "review unavailable",
			RefinementNeeded:    false,
			ReadyForMerge:       true,
		}
		return
	}

	if report.RefinementNeeded && len(report.Gaps) == 0 {
		report.Gaps = s.gapsFromReflections(state)
		if len(report.Gaps) == 0 {
			report.RefinementNeeded = false
		}
	}
	state.report = report
}

// reviewPrompt summarizes every surviving finding and reflection for the
// reviewer. Failed tasks are named so the reviewer does not mistake
// absence for completeness.
func (s *Supervisor) reviewPrompt(state *runState) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Company: %s\nRefinement iteration: %d\n\nFindings:\n", s.company, state.iteration)

	for _, t := range state.topics {
		result, ok := state.results[t.taskID]
		if !ok {
			fmt.Fprintf(&b, "\n### %s (%s)\nFAILED: no findings available\n", t.taskID, t.topic)
			continue
		}
		fmt.Fprintf(&b, "\n### %s (%s)\n%s\n", t.taskID, t.topic, preview(result.Findings, findingsPreviewLimit))
		r := result.Reflection
		fmt.Fprintf(&b, "Reflection: complete=%t confidence=%s", r.IsComplete, r.Confidence)
		if len(r.MissingAspects) > 0 {
			fmt.Fprintf(&b, " missing=%s", strings.Join(r.MissingAspects, "; "))
		}
		b.WriteString("\n")
	}

	b.WriteString("\nAssess completeness, list per-task gaps, and decide whether refinement is needed or the findings are ready for merge.\n")
	return b.String()
}

// gapsFromReflections synthesizes gap entries from low-confidence or
// incomplete reflections when the reviewer asked for refinement without
// naming gaps. Mirrors the first-pass self-critique so the phase machine
// never dispatches an empty refinement batch.
func (s *Supervisor) gapsFromReflections(state *runState) []types.Gap {
	var gaps []types.Gap
	for _, t := range state.topics {
		result, ok := state.results[t.taskID]
		if !ok {
			continue
		}
		r := result.Reflection
		if r.IsComplete && r.Confidence == types.ConfidenceHigh && len(r.MissingAspects) == 0 {
			continue
		}
		desc := strings.Join(r.MissingAspects, "; ")
		if desc == "" {
			desc = "low-confidence findings; verify and deepen coverage"
		}
		if r.NextSteps != "" {
			desc += " | next steps: " + r.NextSteps
		}
		gaps = append(gaps, types.Gap{TaskID: t.taskID, Description: desc})
	}
	return gaps
}

// refinementDispatch builds one targeted task per gap and runs the batch
// on the narrow pool. Refinement context is the pattern-search snippet
// set for the gap, never the full ranked corpus; when no pattern matches
// anything the task falls back to ranked context so the pass still runs.
func (s *Supervisor) refinementDispatch(ctx context.Context, state *runState) {
	iteration := state.iteration + 1
	s.log.Info("phase", zap.String("phase", string(PhaseRefinementDispatch)),
		zap.Int("iteration", iteration),
		zap.Int("gaps", len(state.report.Gaps)),
		zap.Int("workers", s.cfg.RefinementWorkers))

	var tasks []types.SubTask
	for _, gap := range state.report.Gaps {
		entry, ok := s.topicFor(state, gap.TaskID)
		if !ok {
			s.log.Warn("gap names unknown task", zap.String("task_id", gap.TaskID))
			continue
		}

		task := types.SubTask{
			TaskID:     fmt.Sprintf("%s_refinement_%d", entry.taskID, iteration),
			OriginID:   entry.taskID,
			Topic:      entry.topic,
			Categories: entry.categories,
			Refinement: true,
			Gap:        gap.Description,
		}
		if prev, ok := state.results[entry.taskID]; ok {
			task.PreviousFindings = preview(prev.Findings, 1000)
		}
		tasks = append(tasks, task)
	}

	outcomes := dispatch.Dispatch(ctx, tasks, s.cfg.RefinementWorkers, s.runRefinementTask, s.log)
	s.collect(state, outcomes)
}

// runRefinementTask prepares snippet context for a refinement task and
// executes it.
func (s *Supervisor) runRefinementTask(ctx context.Context, task types.SubTask) (types.SubTaskResult, error) {
	names := patterns.ForGap(task.Gap, task.Topic)
	matches := s.index.Search(names, s.pages)

	if len(matches) == 0 {
		s.log.Debug("no pattern matches, using ranked context",
			zap.String("task_id", task.TaskID),
			zap.Strings("patterns", names))
		ranked := rank.Rank(s.pages, task.Categories, s.table)
		researchContext, sources := rank.BuildContext(ranked, s.cfg.ContextByteBudget)
		return s.executor.Execute(ctx, task, researchContext, sources)
	}

	snippetContext, used := patterns.BuildSnippetContext(matches, 0)
	sources := patterns.SourcesOf(matches)
	s.log.Debug("pattern search context built",
		zap.String("task_id", task.TaskID),
		zap.Strings("patterns", used),
		zap.Int("matches", len(matches)),
		zap.Int("sources", len(sources)))

	// Snippet citations refer to sources in first-appearance order; give
	// the call an explicit numbering so markers line up.
	var b strings.Builder
	for i, id := range sources {
		fmt.Fprintf(&b, "SOURCE [%d]: %s\n", i+1, id)
	}
	b.WriteString("\n")
	b.WriteString(snippetContext)

	return s.executor.Execute(ctx, task, b.String(), sources)
}

func (s *Supervisor) topicFor(state *runState, taskID string) (topicEntry, bool) {
	origin := originOf(taskID, state)
	for _, t := range state.topics {
		if t.taskID == origin {
			return t, true
		}
	}
	return topicEntry{}, false
}

// preview truncates s for prompt embedding.
func preview(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
