// Package executor runs one command across many clusters.
//
// Pool is a generic bounded worker pool. Results come back in submission
// order; once the context ends, workers stop taking new tasks and the tasks
// that never started are returned marked as not started:
//
//	pool := executor.NewPool[string](8, logger)
//	pool.Submit(executor.Task[string]{
//	    ClusterName: "prod-a-001",
//	    Execute: func(ctx context.Context) (string, error) { ... },
//	})
//	results := pool.Execute(ctx)
//
// Dispatcher builds on Pool to launch the same argument vector once per
// target through a Runner, giving each cluster its own kubeconfig through
// the environment and its own timeout:
//
//	d := executor.NewDispatcher(executor.NewExecRunner("kubectl"), store, logger,
//	    executor.WithWorkers(cfg.Parallel),
//	    executor.WithTimeout(20*time.Second),
//	    executor.WithRetries(cfg.Retries, 2*time.Second),
//	)
//	results := d.Dispatch(ctx, targets, []string{"get", "pods"})
//
// A cluster's failure never affects another cluster. Every target gets
// exactly one ExecutionResult: Succeeded, Failed (non-zero exit), Timeout,
// Cancelled, or Error (the process could not be launched or its kubeconfig
// could not be produced). Only Failed invocations are retried.
package executor
