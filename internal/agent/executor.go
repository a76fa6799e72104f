// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package agent runs one specialized research question against prepared
// context: a research call, then a reflection call that self-critiques
// the findings against the topic's checklist. Exactly one of each per
// invocation — refinement is just another invocation with snippet context
// and second-pass framing. Failures are never retried here; they
// propagate to the dispatcher. Implements: prd003-sub-agents (R1-R4).
package agent

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/company-research/pkg/types"
)

// Caller is the plain-text research call contract. Implementations make a
// single synchronous model call and may fail; the executor does not retry.
type Caller interface {
	Call(ctx context.Context, system, user string) (string, error)
}

// StructuredCaller is the structured-output call contract used for
// reflections and supervisor reviews.
type StructuredCaller interface {
	CallReflection(ctx context.Context, system, user string) (types.Reflection, error)
	CallReview(ctx context.Context, system, user string) (types.GapReport, error)
}

const researchSystem = `You are a specialized research sub-agent in a multi-agent research system.
You have been assigned ONE specific research question about a company's
private-investing activity. Extract every relevant detail from the provided
content: names with full titles, company and fund names, amounts, exact
dates. Do not summarize. Place an inline citation [1], [2], ... after every
fact, where the number refers to the SOURCE headers in the context.`

const refinementSystem = `You are a research sub-agent on a targeted second pass.
A first pass already produced findings; a reviewer identified a specific gap.
The context below is a set of pattern-matched snippets selected for that gap,
not full pages. Extract only what addresses the gap, with inline citations
[1], [2], ... referring to the SOURCE headers in the context.`

const reflectionSystem = `You are a critical reviewer analyzing research findings for completeness.
Judge the findings against the checklist. Be honest: catching a gap now is
cheaper than shipping an incomplete report.`

// Executor runs sub-tasks against a pair of call backends.
type Executor struct {
	research Caller
	reflect  StructuredCaller
	lists    Checklists
	company  string
	cutoff   string
	log      *zap.Logger
}

// NewExecutor returns an executor for one research run.
func NewExecutor(research Caller, reflect StructuredCaller, lists Checklists, company, dateCutoff string, log *zap.Logger) *Executor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Executor{
		research: research,
		reflect:  reflect,
		lists:    lists,
		company:  company,
		cutoff:   dateCutoff,
		log:      log,
	}
}

// Execute runs the research call and then the reflection call for one
// task. researchContext is the ranked page context (first pass) or the
// pattern snippet context (refinement); sources is the ordered source ID
// list that context's citation numbers refer to.
func (e *Executor) Execute(ctx context.Context, task types.SubTask, researchContext string, sources []string) (types.SubTaskResult, error) {
	e.log.Debug("executing sub-task",
		zap.String("task_id", task.TaskID),
		zap.Bool("refinement", task.Refinement))

	findings, err := e.research.Call(ctx, e.systemFor(task), e.researchPrompt(task, researchContext))
	if err != nil {
		return types.SubTaskResult{}, fmt.Errorf("research call for %s: %w", task.TaskID, err)
	}

	reflection, err := e.reflect.CallReflection(ctx, reflectionSystem, e.reflectionPrompt(task, findings, researchContext))
	if err != nil {
		return types.SubTaskResult{}, fmt.Errorf("reflection call for %s: %w", task.TaskID, err)
	}

	e.log.Debug("sub-task complete",
		zap.String("task_id", task.TaskID),
		zap.String("confidence", string(reflection.Confidence)),
		zap.Bool("complete", reflection.IsComplete))

	return types.SubTaskResult{
		TaskID:     task.TaskID,
		OriginID:   task.OriginID,
		Findings:   findings,
		Reflection: reflection,
		Sources:    sources,
	}, nil
}

func (e *Executor) systemFor(task types.SubTask) string {
	if task.Refinement {
		return refinementSystem
	}
	return researchSystem
}

func (e *Executor) researchPrompt(task types.SubTask, researchContext string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Research question:\n%s\n\nCompany: %s\n\n", task.Topic, e.company)

	if task.Refinement {
		fmt.Fprintf(&b, "Gap to address:\n%s\n\n", task.Gap)
		if task.PreviousFindings != "" {
			fmt.Fprintf(&b, "First-pass findings (preview):\n%s\n\n", task.PreviousFindings)
		}
		b.WriteString("Targeted snippets:\n")
	} else {
		b.WriteString("Context from all available sources:\n")
	}
	b.WriteString(researchContext)
	return b.String()
}

// reflectionContextSample bounds how much raw context the reflection call
// sees; the reflection judges the findings, not the corpus.
const reflectionContextSample = 2000

func (e *Executor) reflectionPrompt(task types.SubTask, findings, researchContext string) string {
	sample := researchContext
	if len(sample) > reflectionContextSample {
		sample = sample[:reflectionContextSample]
	}
	return fmt.Sprintf(
		"Research question:\n%s\n\nFindings:\n%s\n\nChecklist:\n%s\nContext sample:\n%s\n",
		task.Topic, findings, e.lists.For(task.Categories, e.cutoff), sample)
}
