package trace

import (
	"context"
	"strconv"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// 异步任务的语义属性键
const (
	AttrTaskUID   = "task.uid"
	AttrTaskType  = "task.type"
	AttrIndexUID  = "index.uid"
	AttrOperation = "task.operation"
)

// 任务操作
const (
	TaskOperationEnqueue = "enqueue"
	TaskOperationProcess = "process"
)

// TaskRelation 处理端 Span 与入队 Span 的关系建模方式
type TaskRelation string

const (
	// TaskRelationLink 使用 Span Link 关联入队请求（默认，任务可能在请求结束很久之后才执行）
	TaskRelationLink TaskRelation = "link"
	// TaskRelationChildOf 使用 parent/child 关系串成单条 Trace
	TaskRelationChildOf TaskRelation = "child_of"
)

// TaskMeta 描述一个异步任务
type TaskMeta struct {
	UID      uint64
	Type     string
	IndexUID string
	Relation TaskRelation
}

// SpanNameTaskEnqueue 入队 Span 名称
func SpanNameTaskEnqueue(taskType string) string {
	if taskType == "" {
		return "task.enqueue"
	}
	return "task.enqueue " + taskType
}

// SpanNameTaskProcess 执行 Span 名称
func SpanNameTaskProcess(taskType string) string {
	if taskType == "" {
		return "task.process"
	}
	return "task.process " + taskType
}

func normalizeTracer(tracer oteltrace.Tracer) oteltrace.Tracer {
	if tracer == nil {
		return otel.Tracer("routemetrics.trace")
	}
	return tracer
}

func taskAttributes(meta TaskMeta, operation string) []attribute.KeyValue {
	out := []attribute.KeyValue{
		attribute.String(AttrTaskUID, strconv.FormatUint(meta.UID, 10)),
		attribute.String(AttrOperation, operation),
	}
	if meta.Type != "" {
		out = append(out, attribute.String(AttrTaskType, meta.Type))
	}
	if meta.IndexUID != "" {
		out = append(out, attribute.String(AttrIndexUID, meta.IndexUID))
	}
	return out
}

// StartEnqueueSpan 启动入队 Span，返回的 carrier 随任务一起保存
func StartEnqueueSpan(ctx context.Context, tracer oteltrace.Tracer, meta TaskMeta) (context.Context, oteltrace.Span, map[string]string) {
	ctx = normalizeContext(ctx)
	tracer = normalizeTracer(tracer)

	spanCtx, span := tracer.Start(ctx, SpanNameTaskEnqueue(meta.Type),
		oteltrace.WithSpanKind(oteltrace.SpanKindProducer))
	span.SetAttributes(taskAttributes(meta, TaskOperationEnqueue)...)

	carrier := map[string]string{}
	Inject(spanCtx, carrier)
	return spanCtx, span, carrier
}

// StartProcessSpan 从 carrier 启动执行 Span
// 关系默认是 link，可通过 TaskMeta.Relation 切换为 child_of
func StartProcessSpan(ctx context.Context, tracer oteltrace.Tracer, carrier map[string]string, meta TaskMeta) (context.Context, oteltrace.Span) {
	ctx = normalizeContext(ctx)
	tracer = normalizeTracer(tracer)

	extracted := Extract(ctx, carrier)

	startCtx := ctx
	startOpts := []oteltrace.SpanStartOption{oteltrace.WithSpanKind(oteltrace.SpanKindConsumer)}
	if remote := oteltrace.SpanContextFromContext(extracted); remote.IsValid() {
		if meta.Relation == TaskRelationChildOf {
			startCtx = extracted
		} else {
			startOpts = append(startOpts, oteltrace.WithLinks(oteltrace.Link{SpanContext: remote}))
		}
	}

	spanCtx, span := tracer.Start(startCtx, SpanNameTaskProcess(meta.Type), startOpts...)
	span.SetAttributes(taskAttributes(meta, TaskOperationProcess)...)
	return spanCtx, span
}

// MarkSpanError 记录并将 Span 标记为错误，当 err 不为 nil 时
func MarkSpanError(span oteltrace.Span, err error) {
	if span == nil || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
