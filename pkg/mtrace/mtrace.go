// Package mtrace wraps go.opentelemetry.io/otel the way the teacher's
// pkg/mopentelemetry wraps it: a Start helper that opens a span from a
// named tracer, a HandleSpanError helper that records+sets error
// status in one call, and an attribute-from-struct helper. No other
// package in this module calls these helpers.
package mtrace

import (
	"context"
	"fmt"
	"reflect"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Start opens a span named spanName under the tracer named
// tracerName, mirroring the teacher's Start(ctx, tracerName, spanName).
func Start(ctx context.Context, tracerName, spanName string) (context.Context, trace.Span) {
	tracer := otel.Tracer(tracerName)
	return tracer.Start(ctx, spanName)
}

// HandleSpanError records err on span and marks it as an error status,
// returning err unchanged for inline use: `return mtrace.HandleSpanError(span, err)`.
func HandleSpanError(span trace.Span, err error) error {
	if err == nil {
		return nil
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// SetSpanAttributesFromStruct flattens the exported fields of v into
// span attributes prefixed by prefix, the way the teacher logs
// request/response DTOs onto a span without hand-listing every field.
func SetSpanAttributesFromStruct(span trace.Span, prefix string, v any) {
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Ptr {
		if rv.IsNil() {
			return
		}
		rv = rv.Elem()
	}
	if rv.Kind() != reflect.Struct {
		return
	}
	rt := rv.Type()
	attrs := make([]attribute.KeyValue, 0, rt.NumField())
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		key := fmt.Sprintf("%s.%s", prefix, field.Name)
		attrs = append(attrs, attribute.String(key, fmt.Sprintf("%v", rv.Field(i).Interface())))
	}
	span.SetAttributes(attrs...)
}
