package simplify

import (
	"context"
	"runtime"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"go.viam.com/collisionsimplify/logging"
	"go.viam.com/collisionsimplify/spatialmath"
)

// Job is one mesh to simplify.
type Job struct {
	// Name identifies the job in logs and errors, typically the mesh file name.
	Name   string
	Mesh   *spatialmath.Mesh
	Policy Policy
}

// Outcome is the result of one Job. Exactly one of Result and Err is set.
type Outcome struct {
	Job    Job
	Result *Result
	Err    error
}

// Outcomes are the results of a batch, in job order.
type Outcomes []Outcome

// Err combines the errors of every failed job, or returns nil if all succeeded.
func (o Outcomes) Err() error {
	var errs error
	for _, out := range o {
		if out.Err != nil {
			errs = multierr.Append(errs, errors.Wrap(out.Err, out.Job.Name))
		}
	}
	return errs
}

// Succeeded returns the outcomes that produced a result.
func (o Outcomes) Succeeded() Outcomes {
	var ok Outcomes
	for _, out := range o {
		if out.Err == nil {
			ok = append(ok, out)
		}
	}
	return ok
}

// Batch simplifies many meshes concurrently.
type Batch struct {
	// Workers bounds the number of meshes simplified at once. Zero or less means one per CPU.
	Workers int
	Logger  logging.Logger
}

// Run simplifies every job and returns their outcomes in job order. A job failing does not stop the others.
// Cancellation is observed between jobs: jobs not yet started when ctx is done fail with ctx.Err().
func (b *Batch) Run(ctx context.Context, jobs []Job) Outcomes {
	workers := b.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	logger := b.Logger
	if logger == nil {
		logger = logging.NewBlankLogger("simplify")
	}

	outcomes := make(Outcomes, len(jobs))
	var group errgroup.Group
	group.SetLimit(workers)
	for i, job := range jobs {
		i, job := i, job
		group.Go(func() error {
			outcomes[i] = runJob(ctx, logger, job)
			return nil
		})
	}
	//nolint:errcheck
	group.Wait()
	return outcomes
}

func runJob(ctx context.Context, logger logging.Logger, job Job) Outcome {
	if err := ctx.Err(); err != nil {
		return Outcome{Job: job, Err: err}
	}
	logger = logger.WithFields("mesh", job.Name, "policy", job.Policy.String())
	res, err := Simplify(job.Mesh, job.Policy)
	if err != nil {
		logger.Debugw("simplification failed", "error", err)
		return Outcome{Job: job, Err: err}
	}
	for _, w := range res.Diagnostics.Warnings {
		logger.Warnw("simplification warning", "code", string(w.Code), "detail", w.Message)
	}
	logger.Debugw("simplified mesh",
		"kind", res.Geometry.Kind.String(),
		"volume", res.Geometry.Volume(),
		"volume_ratio", res.Diagnostics.VolumeRatio,
	)
	return Outcome{Job: job, Result: res}
}
