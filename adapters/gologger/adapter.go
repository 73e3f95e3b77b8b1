package gologger

import (
	"context"
	"strings"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue/worker"
	glog "github.com/goliatone/go-logger/glog"
)

const DefaultLoggerName = "paybridge"

// Resolve uses deterministic precedence provider > logger > nop. An empty
// name resolves the paybridge logger.
func Resolve(name string, provider glog.LoggerProvider, logger glog.Logger) (glog.LoggerProvider, glog.Logger) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultLoggerName
	}
	return glog.Resolve(name, provider, logger)
}

func ToJobProvider(provider glog.LoggerProvider) job.LoggerProvider {
	if provider == nil {
		return nil
	}
	return job.GoLoggerProvider(provider)
}

func ToJobLogger(logger glog.Logger) job.Logger {
	if logger == nil {
		return nil
	}
	return job.GoLogger(logger)
}

// ResolveForJob resolves glog logger/provider then returns equivalent go-job adapters.
func ResolveForJob(
	name string,
	provider glog.LoggerProvider,
	logger glog.Logger,
) (glog.LoggerProvider, glog.Logger, job.LoggerProvider, job.Logger) {
	resolvedProvider, resolvedLogger := Resolve(name, provider, logger)
	return resolvedProvider, resolvedLogger, ToJobProvider(resolvedProvider), ToJobLogger(resolvedLogger)
}

// WorkerHook logs queue worker lifecycle events on the bridge logger.
type WorkerHook struct {
	logger glog.Logger
}

func NewWorkerHook(logger glog.Logger) *WorkerHook {
	return &WorkerHook{logger: glog.Ensure(logger)}
}

func (h *WorkerHook) OnStart(_ context.Context, event worker.Event) {
	h.log("debug", "queue job started", event)
}

func (h *WorkerHook) OnSuccess(_ context.Context, event worker.Event) {
	h.log("info", "queue job succeeded", event)
}

func (h *WorkerHook) OnFailure(_ context.Context, event worker.Event) {
	h.log("error", "queue job failed", event)
}

func (h *WorkerHook) OnRetry(_ context.Context, event worker.Event) {
	h.log("warn", "queue job retrying", event)
}

func (h *WorkerHook) log(level string, message string, event worker.Event) {
	if h == nil || h.logger == nil {
		return
	}
	args := eventArgs(event)
	switch level {
	case "error":
		h.logger.Error(message, args...)
	case "warn":
		h.logger.Warn(message, args...)
	case "debug":
		h.logger.Debug(message, args...)
	default:
		h.logger.Info(message, args...)
	}
}

func eventArgs(event worker.Event) []any {
	args := []any{"attempt", event.Attempt}
	if event.Message != nil {
		args = append(args, "job_id", event.Message.JobID)
		if key := strings.TrimSpace(event.Message.IdempotencyKey); key != "" {
			args = append(args, "idempotency_key", key)
		}
	}
	if event.Duration > 0 {
		args = append(args, "duration_ms", event.Duration.Milliseconds())
	}
	if event.Delay > 0 {
		args = append(args, "delay", event.Delay.String())
	}
	if event.Err != nil {
		args = append(args, "error", event.Err.Error())
	}
	return args
}

var _ worker.Hook = (*WorkerHook)(nil)
