// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dispatch runs a bounded-concurrency pool of sub-task executions
// and collects outcomes as they complete. One task's failure is recorded
// and never cancels or blocks its siblings; the dispatcher returns only
// after every submitted task has settled. Implements: prd003-sub-agents
// (R3), prd004-supervision (R1.3).
package dispatch

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/company-research/pkg/types"
)

// Runner executes one sub-task. The supervisor binds context preparation
// (ranking or pattern search) into the closure before dispatch.
type Runner func(ctx context.Context, task types.SubTask) (types.SubTaskResult, error)

// Outcome is the terminal state of one task: a result or an error, never
// both. Failed tasks stay in the map so no task is ever lost.
type Outcome struct {
	Result *types.SubTaskResult
	Err    error
}

// Failed reports whether the task ended in failure.
func (o Outcome) Failed() bool {
	return o.Err != nil
}

// Dispatch runs tasks through run with at most limit concurrent workers
// and returns one outcome per task ID. Completion order is irrelevant to
// callers: the returned map is keyed by task ID and insertion is
// mutex-guarded. A limit below one runs tasks one at a time.
func Dispatch(ctx context.Context, tasks []types.SubTask, limit int, run Runner, log *zap.Logger) map[string]Outcome {
	if log == nil {
		log = zap.NewNop()
	}
	if limit < 1 {
		limit = 1
	}

	outcomes := make(map[string]Outcome, len(tasks))
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(limit)

	for _, task := range tasks {
		task := task
		g.Go(func() error {
			result, err := runGuarded(ctx, task, run)

			mu.Lock()
			if err != nil {
				outcomes[task.TaskID] = Outcome{Err: err}
			} else {
				outcomes[task.TaskID] = Outcome{Result: &result}
			}
			mu.Unlock()

			if err != nil {
				log.Warn("sub-task failed",
					zap.String("task_id", task.TaskID),
					zap.Error(err))
			} else {
				log.Info("sub-task complete",
					zap.String("task_id", task.TaskID))
			}
			// Failures are recorded per task; never fail the group, so
			// sibling tasks keep running and nothing short-circuits.
			return nil
		})
	}

	g.Wait()
	return outcomes
}

// runGuarded invokes run and converts a panic inside a task into an
// ordinary task failure.
func runGuarded(ctx context.Context, task types.SubTask, run Runner) (result types.SubTaskResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task %s panicked: %v", task.TaskID, r)
		}
	}()
	return run(ctx, task)
}
