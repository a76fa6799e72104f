// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// TopicCategory tags a research topic with the kind of information it asks
// for. The category is assigned once, when the supervisor creates the task,
// and drives both context ranking and the reflection checklist — it is never
// re-derived downstream. Per prd003-sub-agents R1.2.
type TopicCategory string

const (
	CategoryPeople     TopicCategory = "people"
	CategoryNews       TopicCategory = "news"
	CategoryFinancials TopicCategory = "financials"
	CategoryPortfolio  TopicCategory = "portfolio"
	CategoryStrategy   TopicCategory = "strategy"
	CategoryGeography  TopicCategory = "geography"
	CategoryGeneral    TopicCategory = "general"
)

// Confidence is a sub-agent's self-assessed confidence level.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// SubTask is one specialized research question assigned to a single
// executor invocation. Tasks are created by the supervisor and consumed
// exactly once; a refinement pass issues a new task with a derived ID.
// Per prd003-sub-agents R1.1, prd004-supervision R3.2.
type SubTask struct {
	// TaskID is unique within a dispatch batch. Refinement task IDs are
	// derived as "<original>_refinement_<iteration>" for traceability.
	TaskID string

	// OriginID is the original topic's task ID. Equal to TaskID for
	// first-pass tasks; set to the initial task's ID on refinement tasks.
	OriginID string

	// Topic is the research question text.
	Topic string

	// Categories tag the topic, assigned at creation time.
	Categories []TopicCategory

	// TargetSources lists the source IDs the task should prioritize.
	TargetSources []string

	// Refinement marks a second-pass task built from a coverage gap.
	Refinement bool

	// Gap describes what the first pass missed. Refinement tasks only.
	Gap string

	// PreviousFindings is a truncated preview of the first-pass findings,
	// given to the refinement call for continuity. Refinement tasks only.
	PreviousFindings string
}

// Reflection is a sub-agent's structured self-critique, produced by the
// reflection call immediately after the research call. Attached to exactly
// one SubTaskResult and never mutated afterward. Per prd003-sub-agents R2.
type Reflection struct {
	// IsComplete reports whether the findings fully answer the question.
	IsComplete bool `json:"is_complete" yaml:"is_complete"`

	// MissingAspects lists what is missing or needs more detail, in order
	// of importance.
	MissingAspects []string `json:"missing_aspects" yaml:"missing_aspects"`

	// Confidence is the self-assessed confidence: high, medium, or low.
	Confidence Confidence `json:"confidence" yaml:"confidence"`

	// NextSteps optionally suggests how to improve the findings.
	NextSteps string `json:"next_steps,omitempty" yaml:"next_steps,omitempty"`
}

// SubTaskResult is the immutable outcome of one executor invocation.
type SubTaskResult struct {
	// TaskID matches the SubTask that produced this result.
	TaskID string `json:"task_id" yaml:"task_id"`

	// OriginID is the original topic's task ID (see SubTask.OriginID).
	OriginID string `json:"origin_id" yaml:"origin_id"`

	// Findings is the research prose. Inline markers [1], [2], ... index
	// 1-based into Sources; they are only locally valid until the merge
	// phase renumbers them globally. Per prd006-reporting R1.1.
	Findings string `json:"findings" yaml:"findings"`

	// Reflection is the self-critique for these findings.
	Reflection Reflection `json:"reflection" yaml:"reflection"`

	// Sources lists the source IDs backing the findings, in citation order.
	Sources []string `json:"sources" yaml:"sources"`
}

// Gap is one coverage gap identified by the supervisor review.
type Gap struct {
	// TaskID names the task whose findings are incomplete.
	TaskID string `json:"task_id" yaml:"task_id"`

	// Description says what is missing, in the reviewer's words. Gap
	// keywords here drive pattern selection for the second pass.
	Description string `json:"description" yaml:"description"`
}

// GapReport is the supervisor's aggregate review of one iteration. Each
// review supersedes the previous one; reports are never merged.
// Per prd004-supervision R2.
type GapReport struct {
	// OverallCompleteness is a free-text assessment of the whole batch.
	OverallCompleteness string `json:"overall_completeness" yaml:"overall_completeness"`

	// Gaps lists per-task coverage gaps.
	Gaps []Gap `json:"gaps" yaml:"gaps"`

	// RefinementNeeded requests another targeted pass.
	RefinementNeeded bool `json:"refinement_needed" yaml:"refinement_needed"`

	// ReadyForMerge reports whether the findings can go to the writer.
	ReadyForMerge bool `json:"ready_for_merge" yaml:"ready_for_merge"`
}

// Note is one writer-ready unit: the surviving findings for one original
// topic. If a refinement result exists for the topic it supersedes the
// initial result entirely. Per prd006-reporting R2.
type Note struct {
	// TopicID is the original task ID for the topic.
	TopicID string `json:"topic_id" yaml:"topic_id"`

	// Topic is the research question the note answers.
	Topic string `json:"topic" yaml:"topic"`

	// Content is the findings text with globally renumbered citations.
	Content string `json:"content" yaml:"content"`

	// Sources lists the source IDs the note cites.
	Sources []string `json:"sources" yaml:"sources"`

	// Unavailable marks a topic whose every attempt failed. The writer
	// renders a "not disclosed" section instead of omitting it.
	Unavailable bool `json:"unavailable,omitempty" yaml:"unavailable,omitempty"`
}

// MergedNotes is the supervisor's final output: one note per topic plus the
// global citation table. Citation index i refers to Citations[i-1].
type MergedNotes struct {
	// Notes holds one entry per original topic, in topic order.
	Notes []Note `json:"notes" yaml:"notes"`

	// Citations is the global source table. Indices are assigned in the
	// order sources are first encountered walking topics in order.
	Citations []string `json:"citations" yaml:"citations"`
}
