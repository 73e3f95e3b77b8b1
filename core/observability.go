package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// observer fans one operation out to the logger, the metrics recorder, and
// the activity sink. It is shared by the manager and its relays.
type observer struct {
	logger          Logger
	metricsRecorder MetricsRecorder
	activitySink    ActivitySink
	identity        func() string
}

func (o *observer) observeOperation(
	ctx context.Context,
	startedAt time.Time,
	operation string,
	err error,
	fields map[string]any,
) {
	if o == nil {
		return
	}
	operation = normalizeOperation(operation)
	if operation == "" {
		operation = "unknown"
	}
	status := "success"
	if err != nil {
		status = "failure"
	}

	contextFields := cloneFields(fields)
	contextFields["event_type"] = operation
	contextFields["status"] = status
	contextFields["duration_ms"] = time.Since(startedAt).Milliseconds()
	if err != nil {
		contextFields["error"] = err.Error()
	}

	tags := map[string]string{
		"operation": operation,
		"status":    status,
	}
	for _, key := range []string{"channel", "outcome"} {
		if value := strings.TrimSpace(fmt.Sprint(contextFields[key])); value != "" && value != "<nil>" {
			tags[key] = value
		}
	}

	o.recordCounter(ctx, "paybridge."+operation+".total", 1, tags)
	o.recordHistogram(ctx, "paybridge."+operation+".duration_ms", float64(time.Since(startedAt).Milliseconds()), tags)

	if err != nil {
		o.logError(ctx, operation+" failed", contextFields)
		return
	}
	o.logInfo(ctx, operation+" succeeded", contextFields)
}

// recordActivity never fails the caller; sink errors are logged.
func (o *observer) recordActivity(ctx context.Context, entry ActivityEntry) {
	if o == nil || o.activitySink == nil {
		return
	}
	if strings.TrimSpace(entry.ID) == "" {
		entry.ID = uuid.NewString()
	}
	if entry.IdentityKey == "" && o.identity != nil {
		entry.IdentityKey = o.identity()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if entry.Status == "" {
		entry.Status = ActivityStatusOK
	}
	if err := o.activitySink.Record(ctx, entry); err != nil {
		o.logError(ctx, "activity record failed", map[string]any{
			"action":     entry.Action,
			"request_id": entry.RequestID,
			"error":      err.Error(),
		})
	}
}

func (o *observer) logDebug(ctx context.Context, message string, fields map[string]any) {
	o.logWithLevel(ctx, "debug", message, fields)
}

func (o *observer) logInfo(ctx context.Context, message string, fields map[string]any) {
	o.logWithLevel(ctx, "info", message, fields)
}

func (o *observer) logWarn(ctx context.Context, message string, fields map[string]any) {
	o.logWithLevel(ctx, "warn", message, fields)
}

func (o *observer) logError(ctx context.Context, message string, fields map[string]any) {
	o.logWithLevel(ctx, "error", message, fields)
}

func (o *observer) logWithLevel(ctx context.Context, level string, message string, fields map[string]any) {
	if o == nil || o.logger == nil {
		return
	}
	logger := o.logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	if fieldsLogger, ok := logger.(FieldsLogger); ok {
		logger = fieldsLogger.WithFields(cloneFields(fields))
	}
	args := flattenFields(fields)
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "error":
		logger.Error(message, args...)
	case "warn":
		logger.Warn(message, args...)
	case "debug":
		logger.Debug(message, args...)
	default:
		logger.Info(message, args...)
	}
}

func (o *observer) recordCounter(ctx context.Context, name string, value int64, tags map[string]string) {
	if o == nil || o.metricsRecorder == nil {
		return
	}
	o.metricsRecorder.IncCounter(ctx, strings.TrimSpace(name), value, cloneTags(tags))
}

func (o *observer) recordHistogram(ctx context.Context, name string, value float64, tags map[string]string) {
	if o == nil || o.metricsRecorder == nil {
		return
	}
	o.metricsRecorder.ObserveHistogram(ctx, strings.TrimSpace(name), value, cloneTags(tags))
}

func cloneFields(fields map[string]any) map[string]any {
	if len(fields) == 0 {
		return map[string]any{}
	}
	copied := make(map[string]any, len(fields))
	for key, value := range fields {
		copied[key] = value
	}
	return copied
}

func flattenFields(fields map[string]any) []any {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	args := make([]any, 0, len(keys)*2)
	for _, key := range keys {
		args = append(args, key, fields[key])
	}
	return args
}

func normalizeOperation(operation string) string {
	operation = strings.TrimSpace(strings.ToLower(operation))
	operation = strings.ReplaceAll(operation, " ", "_")
	operation = strings.ReplaceAll(operation, "-", "_")
	return operation
}
