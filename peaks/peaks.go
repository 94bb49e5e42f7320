// Package peaks orchestrates peak calling for ChIP/ATAC signal samples:
// pairing each "chip" sample with its batch-matched "input" control,
// dispatching one task per sample/caller pairing to a parallel runner, and
// merging successful results back into the sample collection.
package peaks

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/grailbio/base/traverse"
	"github.com/grailbio/chipseq/sample"
	"github.com/grailbio/chipseq/util"
	"v.io/x/lib/vlog"
)

// Caller invokes one peak caller for a sample and returns the primary peak
// file it produced.
type Caller func(ctx context.Context, name, chipBAM, inputBAM, genomeBuild, outDir string, cfg sample.Config) (string, error)

// CallResult is the outcome of one peak-calling task.
type CallResult struct {
	PeaksFile string
	Err       error
}

// OK reports whether the task produced a usable peak file.
func (r CallResult) OK() bool {
	return r.Err == nil && r.PeaksFile != ""
}

// Task is the unit of dispatch: a shallow copy of the sample tagged with the
// caller to run and the paired control BAM. It exists only between
// Preparation and the merge.
type Task struct {
	Sample       sample.Sample
	PeakFn       string
	WorkBAMInput string
	Result       CallResult
}

// RunParallel dispatches a batch of independent tasks under a stage name and
// returns the processed tasks. The surrounding pipeline supplies this; tasks
// carry no dependencies on each other, so any execution order is fine.
type RunParallel func(ctx context.Context, stage string, tasks []*Task) ([]*Task, error)

// Orchestrator holds the peak-calling capabilities: an explicit caller
// registry (no global state, stub callers plug in for tests) and the
// dispatch function.
type Orchestrator struct {
	callers map[string]Caller
	run     RunParallel
}

// New returns an Orchestrator using the given caller registry. A nil run
// falls back to in-process parallel dispatch.
func New(callers map[string]Caller, run RunParallel) *Orchestrator {
	o := &Orchestrator{callers: callers, run: run}
	if o.run == nil {
		o.run = o.runTraverse
	}
	return o
}

// Preparation is the peak-calling entry point. groups is the pipeline's
// collection of one-element sample groups; it is returned with successful
// peak files merged in. Chip samples with no paired input sample are logged
// and skipped.
func (o *Orchestrator) Preparation(ctx context.Context, groups [][]*sample.Sample) ([][]*sample.Sample, error) {
	var toProcess []*Task
	for _, group := range groups {
		if len(group) == 0 || group[0].Phenotype != "chip" {
			continue
		}
		s := group[0]
		for _, caller := range s.Config.Callers() {
			if _, ok := o.callers[caller]; !ok {
				continue
			}
			input := pairedInput(s, groups)
			if input == nil {
				vlog.Infof("No input sample for %s", s.Name)
				continue
			}
			toProcess = append(toProcess, &Task{
				Sample:       *s,
				PeakFn:       caller,
				WorkBAMInput: input.WorkBAM,
			})
		}
	}
	if len(toProcess) == 0 {
		return groups, nil
	}
	processed, err := o.run(ctx, "peakcalling", toProcess)
	if err != nil {
		return groups, err
	}
	merge(groups, processed)
	return groups, nil
}

// Calling executes one prepared task. The nested return shape is the
// contract of the parallel-dispatch framework, which flattens one level per
// stage.
func (o *Orchestrator) Calling(ctx context.Context, t *Task) ([][]*Task, error) {
	callerFn, ok := o.callers[t.PeakFn]
	if !ok {
		return nil, fmt.Errorf("unknown peak caller %q for sample %s", t.PeakFn, t.Sample.Name)
	}
	outDir, err := util.SafeMkdir(filepath.Join(t.Sample.WorkDir, t.PeakFn, t.Sample.Name))
	if err != nil {
		return nil, err
	}
	peaksFile, callErr := callerFn(ctx, t.Sample.Name, t.Sample.WorkBAM, t.WorkBAMInput,
		t.Sample.GenomeBuild, outDir, t.Sample.Config)
	if callErr != nil {
		vlog.Errorf("peak calling failed for %s with %s: %v", t.Sample.Name, t.PeakFn, callErr)
	}
	t.Result = CallResult{PeaksFile: peaksFile, Err: callErr}
	return [][]*Task{{t}}, nil
}

// runTraverse is the default dispatch: all tasks in parallel, in process.
func (o *Orchestrator) runTraverse(ctx context.Context, stage string, tasks []*Task) ([]*Task, error) {
	out := make([]*Task, len(tasks))
	err := traverse.Each(len(tasks), func(i int) error {
		nested, err := o.Calling(ctx, tasks[i])
		if err != nil {
			return err
		}
		out[i] = nested[0][0]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// pairedInput finds the control sample for a chip sample: the first
// "input"-phenotype group whose batch list contains the chip sample's batch.
func pairedInput(s *sample.Sample, groups [][]*sample.Sample) *sample.Sample {
	for _, group := range groups {
		if len(group) == 0 {
			continue
		}
		candidate := group[0]
		if candidate.Phenotype == "input" && candidate.HasBatch(s.Batch()) {
			return candidate
		}
	}
	return nil
}

// merge copies successful peak files back onto the original samples by
// name. Failed tasks leave the originals untouched.
func merge(groups [][]*sample.Sample, processed []*Task) {
	for _, group := range groups {
		if len(group) == 0 {
			continue
		}
		for _, t := range processed {
			if t == nil || t.Sample.Name != group[0].Name {
				continue
			}
			if t.Result.OK() {
				group[0].PeaksFile = t.Result.PeaksFile
			}
		}
	}
}
