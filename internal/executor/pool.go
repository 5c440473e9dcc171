package executor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aryankumar/multikube/internal/util"
)

// Task is a unit of work bound to one cluster
type Task[T any] struct {
	// ClusterName identifies which cluster this task targets
	ClusterName string

	// Execute runs the work. A returned error marks the result failed.
	Execute func(ctx context.Context) (T, error)
}

// Result is the outcome of one task
type Result[T any] struct {
	// ClusterName identifies which cluster this result is from
	ClusterName string

	// Data is whatever Execute returned, kept even when Error is set
	Data T

	// Error is set when the task failed or never ran
	Error error

	// Duration is how long the task took to execute
	Duration time.Duration

	// Started is false for tasks skipped because the context ended first
	Started bool
}

// Pool runs tasks on a bounded number of workers. Results come back in
// submission order regardless of completion order.
type Pool[T any] struct {
	workers int

	// mu protects tasks
	mu    sync.Mutex
	tasks []Task[T]

	logger *slog.Logger

	running atomic.Bool
}

// NewPool creates a pool with the given number of workers (minimum 1)
func NewPool[T any](workers int, logger *slog.Logger) *Pool[T] {
	if workers <= 0 {
		workers = 1
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Pool[T]{
		workers: workers,
		tasks:   make([]Task[T], 0),
		logger:  logger,
	}
}

// Submit queues a task. It fails once the pool is running.
func (p *Pool[T]) Submit(task Task[T]) error {
	if p.running.Load() {
		return fmt.Errorf("pool is running, cannot submit new tasks")
	}

	if task.ClusterName == "" {
		return fmt.Errorf("task must have a cluster name")
	}

	if task.Execute == nil {
		return fmt.Errorf("task must have an execute function")
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.tasks = append(p.tasks, task)
	p.logger.Debug("task submitted", "cluster", task.ClusterName, "total_tasks", len(p.tasks))

	return nil
}

// Execute runs all submitted tasks and returns one result per task. Once ctx
// ends, workers stop picking up new tasks; tasks already running are left to
// observe ctx themselves and their results are kept. Tasks that never started
// come back with Started false and ErrCancelled.
func (p *Pool[T]) Execute(ctx context.Context) []Result[T] {
	if !p.running.CompareAndSwap(false, true) {
		p.logger.Error("pool is already running")
		return []Result[T]{}
	}
	defer p.running.Store(false)

	p.mu.Lock()
	taskCount := len(p.tasks)
	if taskCount == 0 {
		p.mu.Unlock()
		p.logger.Debug("no tasks to execute")
		return []Result[T]{}
	}

	tasks := make([]Task[T], taskCount)
	copy(tasks, p.tasks)
	p.mu.Unlock()

	p.logger.Debug("starting task execution",
		"workers", p.workers,
		"tasks", taskCount)

	startTime := time.Now()

	// Both channels are sized to the task count so neither side ever blocks
	taskChan := make(chan indexedTask[T], taskCount)
	resultChan := make(chan indexedResult[T], taskCount)
	for i, task := range tasks {
		taskChan <- indexedTask[T]{task: task, index: i}
	}
	close(taskChan)

	var completed atomic.Int32

	var wg sync.WaitGroup
	workerCount := min(p.workers, taskCount)

	for i := 0; i < workerCount; i++ {
		wg.Add(1)
		go p.worker(ctx, i, taskChan, resultChan, &wg, &completed, taskCount)
	}

	wg.Wait()
	close(resultChan)

	results := make([]Result[T], taskCount)
	for res := range resultChan {
		results[res.index] = res.result
	}

	for i := range results {
		if !results[i].Started {
			results[i] = Result[T]{
				ClusterName: tasks[i].ClusterName,
				Error:       fmt.Errorf("%w: task not executed: %v", util.ErrCancelled, context.Cause(ctx)),
			}
		}
	}

	successCount := CountSuccessful(results)

	p.logger.Debug("task execution completed",
		"total", taskCount,
		"successful", successCount,
		"failed", taskCount-successCount,
		"duration", time.Since(startTime))

	return results
}

func (p *Pool[T]) worker(
	ctx context.Context,
	workerID int,
	taskChan <-chan indexedTask[T],
	resultChan chan<- indexedResult[T],
	wg *sync.WaitGroup,
	completed *atomic.Int32,
	total int,
) {
	defer wg.Done()

	for item := range taskChan {
		if ctx.Err() != nil {
			p.logger.Debug("worker stopping due to context cancellation", "worker_id", workerID)
			return
		}

		result := p.executeTask(ctx, item.task)
		resultChan <- indexedResult[T]{result: result, index: item.index}

		completedCount := completed.Add(1)
		p.logger.Debug("task completed",
			"worker_id", workerID,
			"cluster", item.task.ClusterName,
			"success", result.Error == nil,
			"duration", result.Duration,
			"progress", fmt.Sprintf("%d/%d", completedCount, total))
	}
}

func (p *Pool[T]) executeTask(ctx context.Context, task Task[T]) Result[T] {
	startTime := time.Now()

	data, err := task.Execute(ctx)
	duration := time.Since(startTime)

	if err != nil {
		p.logger.Warn("task failed",
			"cluster", task.ClusterName,
			"error", err,
			"duration", duration)
	}

	return Result[T]{
		ClusterName: task.ClusterName,
		Data:        data,
		Error:       err,
		Duration:    duration,
		Started:     true,
	}
}

// WorkerCount returns the number of workers in the pool
func (p *Pool[T]) WorkerCount() int {
	return p.workers
}

type indexedTask[T any] struct {
	task  Task[T]
	index int
}

type indexedResult[T any] struct {
	result Result[T]
	index  int
}
