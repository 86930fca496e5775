package server

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/ceyewan/routemetrics/clog"
	"github.com/ceyewan/routemetrics/metrics"
	"github.com/ceyewan/routemetrics/trace"
	"github.com/ceyewan/routemetrics/xerrors"
)

// TaskStatus 任务状态
type TaskStatus string

const (
	TaskEnqueued   TaskStatus = "enqueued"
	TaskProcessing TaskStatus = "processing"
	TaskSucceeded  TaskStatus = "succeeded"
	TaskFailed     TaskStatus = "failed"
)

// TaskTypeDocumentAdditionOrUpdate 文档写入任务
const TaskTypeDocumentAdditionOrUpdate = "documentAdditionOrUpdate"

const (
	metricTaskDuration = "task_processing_seconds"
	metricTaskQueued   = "task_queue_size"
)

// TaskDetails 任务详情
type TaskDetails struct {
	ReceivedDocuments int `json:"receivedDocuments"`
	IndexedDocuments  int `json:"indexedDocuments"`
}

// Task 一个异步任务
type Task struct {
	UID        uint64         `json:"uid"`
	IndexUID   string         `json:"indexUid"`
	Status     TaskStatus     `json:"status"`
	Type       string         `json:"type"`
	Details    TaskDetails    `json:"details"`
	Error      *ResponseError `json:"error"`
	EnqueuedAt time.Time      `json:"enqueuedAt"`
	StartedAt  *time.Time     `json:"startedAt"`
	FinishedAt *time.Time     `json:"finishedAt"`

	// carrier 入队请求的链路信息，处理时恢复
	carrier map[string]string
}

// SummarizedTask 入队接口的响应
type SummarizedTask struct {
	TaskUID    uint64     `json:"taskUid"`
	IndexUID   string     `json:"indexUid"`
	Status     TaskStatus `json:"status"`
	Type       string     `json:"type"`
	EnqueuedAt time.Time  `json:"enqueuedAt"`
}

// Summary 返回任务摘要
func (t Task) Summary() SummarizedTask {
	return SummarizedTask{
		TaskUID:    t.UID,
		IndexUID:   t.IndexUID,
		Status:     t.Status,
		Type:       t.Type,
		EnqueuedAt: t.EnqueuedAt,
	}
}

// TaskQueue 内存任务队列，单 worker 顺序执行
type TaskQueue struct {
	mu      sync.RWMutex
	nextUID uint64
	tasks   map[uint64]*Task
	docs    map[string]int

	pending chan uint64

	logger   clog.Logger
	tracer   oteltrace.Tracer
	duration metrics.Histogram
	queued   metrics.Gauge
	now      func() time.Time
}

// NewTaskQueue 创建任务队列，capacity 为待处理任务上限
func NewTaskQueue(logger clog.Logger, meter metrics.Meter, capacity int) (*TaskQueue, error) {
	if logger == nil {
		logger = clog.Discard()
	}
	if meter == nil {
		meter = metrics.Discard()
	}
	if capacity <= 0 {
		capacity = 1024
	}

	duration, err := meter.Histogram(metricTaskDuration, "Task processing time", metrics.WithUnit("s"))
	if err != nil {
		return nil, xerrors.Wrap(err, "create task duration histogram")
	}
	queued, err := meter.Gauge(metricTaskQueued, "Tasks waiting to be processed")
	if err != nil {
		return nil, xerrors.Wrap(err, "create task queue gauge")
	}

	return &TaskQueue{
		tasks:    make(map[uint64]*Task),
		docs:     make(map[string]int),
		pending:  make(chan uint64, capacity),
		logger:   logger.WithNamespace("tasks"),
		tracer:   otel.Tracer("routemetrics.tasks"),
		duration: duration,
		queued:   queued,
		now:      time.Now,
	}, nil
}

// Enqueue 登记一个文档写入任务，队列已满时返回 ErrUnavailable
func (q *TaskQueue) Enqueue(ctx context.Context, indexUID string, documents int) (Task, error) {
	q.mu.Lock()
	task := &Task{
		UID:        q.nextUID,
		IndexUID:   indexUID,
		Status:     TaskEnqueued,
		Type:       TaskTypeDocumentAdditionOrUpdate,
		Details:    TaskDetails{ReceivedDocuments: documents},
		EnqueuedAt: q.now().UTC(),
	}

	_, span, carrier := trace.StartEnqueueSpan(ctx, q.tracer, q.meta(task))
	defer span.End()
	task.carrier = carrier

	select {
	case q.pending <- task.UID:
	default:
		q.mu.Unlock()
		err := xerrors.Wrap(xerrors.ErrUnavailable, "task queue is full")
		trace.MarkSpanError(span, err)
		return Task{}, err
	}
	q.tasks[task.UID] = task
	q.nextUID++
	snapshot := *task
	q.mu.Unlock()

	q.queued.Inc(ctx)
	q.logger.DebugContext(ctx, "task enqueued",
		clog.Int64("task_uid", int64(snapshot.UID)),
		clog.String("index_uid", indexUID),
		clog.Int("documents", documents),
	)
	return snapshot, nil
}

// Get 按 uid 查询任务
func (q *TaskQueue) Get(uid uint64) (Task, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	task, ok := q.tasks[uid]
	if !ok {
		return Task{}, xerrors.Wrapf(xerrors.ErrNotFound, "task `%d` not found", uid)
	}
	return *task, nil
}

// List 按 uid 倒序返回最多 limit 个任务，limit <= 0 返回空页
func (q *TaskQueue) List(limit int) []Task {
	if limit <= 0 {
		return []Task{}
	}
	q.mu.RLock()
	out := make([]Task, 0, len(q.tasks))
	for _, t := range q.tasks {
		out = append(out, *t)
	}
	q.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].UID > out[j].UID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Len 返回已登记的任务总数
func (q *TaskQueue) Len() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return len(q.tasks)
}

// Documents 返回索引中已写入的文档数
func (q *TaskQueue) Documents(indexUID string) int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.docs[indexUID]
}

// Run 顺序处理任务直到 ctx 结束
func (q *TaskQueue) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case uid := <-q.pending:
			q.process(ctx, uid)
		}
	}
}

func (q *TaskQueue) process(ctx context.Context, uid uint64) {
	q.queued.Dec(ctx)

	q.mu.Lock()
	task, ok := q.tasks[uid]
	if !ok {
		q.mu.Unlock()
		return
	}
	started := q.now().UTC()
	task.Status = TaskProcessing
	task.StartedAt = &started
	meta := q.meta(task)
	carrier := task.carrier
	q.mu.Unlock()

	spanCtx, span := trace.StartProcessSpan(ctx, q.tracer, carrier, meta)
	defer span.End()

	timer := metrics.NewTimer(q.duration, metrics.L("type", meta.Type))
	defer timer.ObserveDuration(spanCtx)

	q.mu.Lock()
	q.docs[task.IndexUID] += task.Details.ReceivedDocuments
	task.Details.IndexedDocuments = task.Details.ReceivedDocuments
	finished := q.now().UTC()
	task.Status = TaskSucceeded
	task.FinishedAt = &finished
	task.carrier = nil
	q.mu.Unlock()

	q.logger.InfoContext(spanCtx, "task processed",
		clog.Int64("task_uid", int64(uid)),
		clog.String("index_uid", meta.IndexUID),
		clog.Duration("duration", finished.Sub(started)),
	)
}

func (q *TaskQueue) meta(t *Task) trace.TaskMeta {
	return trace.TaskMeta{UID: t.UID, Type: t.Type, IndexUID: t.IndexUID}
}
