package trace

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.20.0"

	"github.com/ceyewan/routemetrics/xerrors"
)

// Discard 安装一个不导出的 TracerProvider
//
// Span 照常创建，TraceID 仍会出现在日志与任务 carrier 中，只是不发送到 Collector。
func Discard(serviceName string) (func(context.Context) error, error) {
	var attrs []resource.Option
	if serviceName != "" {
		attrs = append(attrs, resource.WithAttributes(semconv.ServiceNameKey.String(serviceName)))
	}
	res, err := resource.New(context.Background(), attrs...)
	if err != nil {
		return nil, xerrors.Wrap(err, "create resource")
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	)
	otel.SetTracerProvider(tp)
	setPropagator()
	return tp.Shutdown, nil
}
