package background

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is a deferred unit of work. It receives its own context and must open
// its own transaction-scoped resources; it never shares state with the
// request that enqueued it.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

// Dispatcher runs fire-and-forget tasks on a bounded worker pool. Enqueue is
// non-blocking: when the queue is full the task is dropped and logged, never
// propagated back to the caller.
type Dispatcher struct {
	queue       chan Task
	workers     int
	taskTimeout time.Duration
	log         *zap.Logger

	wg       sync.WaitGroup
	stopOnce sync.Once
}

func NewDispatcher(queueSize, workers int, taskTimeout time.Duration, log *zap.Logger) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 64
	}
	if workers <= 0 {
		workers = 1
	}
	return &Dispatcher{
		queue:       make(chan Task, queueSize),
		workers:     workers,
		taskTimeout: taskTimeout,
		log:         log,
	}
}

func (d *Dispatcher) Start(ctx context.Context) {
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx)
	}
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()
	for task := range d.queue {
		d.runOne(ctx, task)
	}
}

func (d *Dispatcher) runOne(ctx context.Context, task Task) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("background task panicked",
				zap.String("task", task.Name), zap.Any("panic", r))
		}
	}()

	taskCtx := ctx
	var cancel context.CancelFunc
	if d.taskTimeout > 0 {
		// Detach from the request lifecycle: the HTTP response has already
		// been sent when the task runs.
		taskCtx, cancel = context.WithTimeout(context.WithoutCancel(ctx), d.taskTimeout)
		defer cancel()
	}

	start := time.Now()
	if err := task.Run(taskCtx); err != nil {
		d.log.Error("background task failed",
			zap.String("task", task.Name),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return
	}
	d.log.Debug("background task done",
		zap.String("task", task.Name),
		zap.Duration("elapsed", time.Since(start)))
}

// Enqueue hands a task to the pool. Returns false when the queue is full or
// the dispatcher is already stopped.
func (d *Dispatcher) Enqueue(task Task) bool {
	defer func() {
		// Enqueue after Stop would panic on the closed channel; a dropped
		// task is the correct best-effort outcome during shutdown.
		if r := recover(); r != nil {
			d.log.Warn("task enqueued after dispatcher stop", zap.String("task", task.Name))
		}
	}()

	select {
	case d.queue <- task:
		return true
	default:
		d.log.Warn("background queue full, dropping task", zap.String("task", task.Name))
		return false
	}
}

// Stop closes the queue and waits for in-flight tasks to finish.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		close(d.queue)
	})
	d.wg.Wait()
}
