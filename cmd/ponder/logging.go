package main

import (
	"context"

	"github.com/zoobzio/capitan"
	"github.com/zoobzio/ponder"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// signalRoute maps a ponder signal to a log line.
type signalRoute struct {
	signal  capitan.Signal
	message string
	level   zapcore.Level
}

var signalRoutes = []signalRoute{
	{ponder.RunStarted, "run started", zapcore.InfoLevel},
	{ponder.RunCompleted, "run completed", zapcore.InfoLevel},
	{ponder.RunExhausted, "run exhausted step budget", zapcore.WarnLevel},
	{ponder.RunFailed, "run failed", zapcore.ErrorLevel},
	{ponder.StepStarted, "step started", zapcore.DebugLevel},
	{ponder.StepCompleted, "step completed", zapcore.DebugLevel},
	{ponder.StepFailed, "step failed", zapcore.WarnLevel},
	{ponder.CommandRejected, "controller output rejected", zapcore.WarnLevel},
	{ponder.ContextMutated, "working memory changed", zapcore.DebugLevel},
	{ponder.PeekCompleted, "peek completed", zapcore.DebugLevel},
	{ponder.RecordDropped, "retrieval record dropped", zapcore.WarnLevel},
	{ponder.ReduceStarted, "reduce started", zapcore.DebugLevel},
	{ponder.ChunkFailed, "chunk summarization failed", zapcore.WarnLevel},
	{ponder.ReduceCompleted, "reduce completed", zapcore.DebugLevel},
	{ponder.SessionLoaded, "session loaded", zapcore.DebugLevel},
	{ponder.SessionSaved, "session saved", zapcore.DebugLevel},
}

// bridgeSignals logs ponder signals through logger. The returned function
// detaches the listeners.
func bridgeSignals(logger *zap.Logger) func() {
	listeners := make([]*capitan.Listener, 0, len(signalRoutes))
	for _, route := range signalRoutes {
		route := route
		listeners = append(listeners, capitan.Hook(route.signal, func(_ context.Context, e *capitan.Event) {
			if ce := logger.Check(route.level, route.message); ce != nil {
				ce.Write(eventFields(e)...)
			}
		}))
	}
	return func() {
		for _, l := range listeners {
			l.Close()
		}
	}
}

// eventFields converts the known ponder fields of an event to zap fields.
func eventFields(e *capitan.Event) []zap.Field {
	var fields []zap.Field

	if v, ok := ponder.FieldRunID.From(e); ok {
		fields = append(fields, zap.String("run_id", v))
	}
	if v, ok := ponder.FieldSessionID.From(e); ok {
		fields = append(fields, zap.String("session_id", v))
	}
	if v, ok := ponder.FieldQuery.From(e); ok {
		fields = append(fields, zap.String("query", v))
	}
	if v, ok := ponder.FieldState.From(e); ok {
		fields = append(fields, zap.String("state", v))
	}
	if v, ok := ponder.FieldStep.From(e); ok {
		fields = append(fields, zap.Int("step", v))
	}
	if v, ok := ponder.FieldStepCount.From(e); ok {
		fields = append(fields, zap.Int("steps", v))
	}
	if v, ok := ponder.FieldPeekCount.From(e); ok {
		fields = append(fields, zap.Int("peeks", v))
	}
	if v, ok := ponder.FieldMaxSteps.From(e); ok {
		fields = append(fields, zap.Int("max_steps", v))
	}
	if v, ok := ponder.FieldFailures.From(e); ok {
		fields = append(fields, zap.Int("failures", v))
	}
	if v, ok := ponder.FieldCommand.From(e); ok {
		fields = append(fields, zap.String("command", v))
	}
	if v, ok := ponder.FieldOutput.From(e); ok {
		fields = append(fields, zap.String("output", v))
	}
	if v, ok := ponder.FieldKey.From(e); ok {
		fields = append(fields, zap.String("key", v))
	}
	if v, ok := ponder.FieldOperation.From(e); ok {
		fields = append(fields, zap.String("operation", v))
	}
	if v, ok := ponder.FieldEntryCount.From(e); ok {
		fields = append(fields, zap.Int("entries", v))
	}
	if v, ok := ponder.FieldResultCount.From(e); ok {
		fields = append(fields, zap.Int("results", v))
	}
	if v, ok := ponder.FieldRecordIndex.From(e); ok {
		fields = append(fields, zap.Int("record", v))
	}
	if v, ok := ponder.FieldTask.From(e); ok {
		fields = append(fields, zap.String("task", v))
	}
	if v, ok := ponder.FieldChunkCount.From(e); ok {
		fields = append(fields, zap.Int("chunks", v))
	}
	if v, ok := ponder.FieldChunkIndex.From(e); ok {
		fields = append(fields, zap.Int("chunk", v))
	}
	if v, ok := ponder.FieldContentSize.From(e); ok {
		fields = append(fields, zap.Int("content_size", v))
	}
	if v, ok := ponder.FieldDuration.From(e); ok {
		fields = append(fields, zap.Duration("duration", v))
	}
	if v, ok := ponder.FieldError.From(e); ok && v != nil {
		fields = append(fields, zap.Error(v))
	}

	return fields
}
