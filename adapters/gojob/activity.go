package gojob

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-paybridge/core"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
	"github.com/goliatone/go-job/queue/worker"
)

const JobIDActivityRecord = "paybridge.activity.record"

// RetryPolicy bounds how often a failed activity write is requeued.
type RetryPolicy struct {
	MaxAttempts     int
	MaxDelay        time.Duration
	DeadLetterOnMax bool
}

// NormalizeAttempt applies the policy bounds to a nack for the given attempt.
func (p RetryPolicy) NormalizeAttempt(opts queue.NackOptions, attempt int) queue.NackOptions {
	out := opts
	out.Reason = strings.TrimSpace(out.Reason)
	if out.Delay < 0 {
		out.Delay = 0
	}
	if p.MaxDelay > 0 && out.Delay > p.MaxDelay {
		out.Delay = p.MaxDelay
	}
	if out.DeadLetter {
		out.Requeue = false
	}
	if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
		out.Requeue = false
		if p.DeadLetterOnMax || out.DeadLetter {
			out.DeadLetter = true
		}
	}
	if !out.Requeue && !out.DeadLetter {
		out.Requeue = true
	}
	return out
}

// ToExecutionMessage encodes an activity entry as a go-job message. The entry
// id doubles as the idempotency key so redelivery cannot duplicate a row.
func ToExecutionMessage(entry core.ActivityEntry) *job.ExecutionMessage {
	params := map[string]any{
		"id":           entry.ID,
		"identity_key": entry.IdentityKey,
		"action":       entry.Action,
		"channel":      entry.Channel,
		"request_id":   entry.RequestID,
		"status":       string(entry.Status),
		"metadata":     copyAnyMap(entry.Metadata),
	}
	if !entry.CreatedAt.IsZero() {
		params["created_at"] = entry.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	return &job.ExecutionMessage{
		JobID:          JobIDActivityRecord,
		ScriptPath:     JobIDActivityRecord,
		Parameters:     params,
		IdempotencyKey: strings.TrimSpace(entry.ID),
		DedupPolicy:    job.DeduplicationPolicy("drop"),
	}
}

// FromExecutionMessage decodes a message produced by ToExecutionMessage.
func FromExecutionMessage(msg *job.ExecutionMessage) (core.ActivityEntry, error) {
	if msg == nil {
		return core.ActivityEntry{}, fmt.Errorf("gojob: execution message is required")
	}
	if strings.TrimSpace(msg.JobID) != JobIDActivityRecord {
		return core.ActivityEntry{}, fmt.Errorf("gojob: unexpected job id %q", msg.JobID)
	}
	params := msg.Parameters
	entry := core.ActivityEntry{
		ID:          stringParam(params, "id"),
		IdentityKey: stringParam(params, "identity_key"),
		Action:      stringParam(params, "action"),
		Channel:     stringParam(params, "channel"),
		RequestID:   stringParam(params, "request_id"),
		Status:      core.ActivityStatus(stringParam(params, "status")),
	}
	if metadata, ok := params["metadata"].(map[string]any); ok {
		entry.Metadata = copyAnyMap(metadata)
	}
	if raw := stringParam(params, "created_at"); raw != "" {
		createdAt, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			return core.ActivityEntry{}, fmt.Errorf("gojob: invalid created_at: %w", err)
		}
		entry.CreatedAt = createdAt
	}
	if entry.Action == "" {
		return core.ActivityEntry{}, fmt.Errorf("gojob: activity action is required")
	}
	return entry, nil
}

// QueuedActivitySink hands activity entries to a go-job queue instead of
// writing them on the relay goroutine.
type QueuedActivitySink struct {
	enqueuer queue.Enqueuer
}

func NewQueuedActivitySink(enqueuer queue.Enqueuer) *QueuedActivitySink {
	return &QueuedActivitySink{enqueuer: enqueuer}
}

func (s *QueuedActivitySink) Record(ctx context.Context, entry core.ActivityEntry) error {
	if s == nil || s.enqueuer == nil {
		return fmt.Errorf("gojob: enqueuer is not configured")
	}
	return s.enqueuer.Enqueue(ctx, ToExecutionMessage(entry))
}

// ActivityDrainer moves queued activity entries into a durable sink.
type ActivityDrainer struct {
	dequeuer queue.Dequeuer
	sink     core.ActivitySink
	policy   RetryPolicy
	hook     worker.Hook

	mu       sync.Mutex
	attempts map[string]int
}

type DrainerOption func(*ActivityDrainer)

func WithRetryPolicy(policy RetryPolicy) DrainerOption {
	return func(d *ActivityDrainer) {
		d.policy = policy
	}
}

func WithWorkerHook(hook worker.Hook) DrainerOption {
	return func(d *ActivityDrainer) {
		d.hook = hook
	}
}

func NewActivityDrainer(dequeuer queue.Dequeuer, sink core.ActivitySink, opts ...DrainerOption) *ActivityDrainer {
	drainer := &ActivityDrainer{
		dequeuer: dequeuer,
		sink:     sink,
		attempts: map[string]int{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(drainer)
		}
	}
	return drainer
}

// DrainOne processes a single delivery. Sink failures are nacked per the
// retry policy and returned; malformed messages are dead-lettered.
func (d *ActivityDrainer) DrainOne(ctx context.Context) error {
	if d == nil || d.dequeuer == nil || d.sink == nil {
		return fmt.Errorf("gojob: activity drainer is not configured")
	}
	delivery, err := d.dequeuer.Dequeue(ctx)
	if err != nil {
		return err
	}
	msg := delivery.Message()
	startedAt := time.Now().UTC()
	key := deliveryKey(msg)
	attempt := d.nextAttempt(key)
	event := worker.Event{
		Message:   msg,
		Delivery:  delivery,
		Attempt:   attempt,
		StartedAt: startedAt,
	}
	d.onStart(ctx, event)

	entry, err := FromExecutionMessage(msg)
	if err != nil {
		event.Err = err
		event.Duration = time.Since(startedAt)
		d.onFailure(ctx, event)
		d.forget(key)
		return delivery.Nack(ctx, queue.NackOptions{DeadLetter: true, Reason: err.Error()})
	}

	if err := d.sink.Record(ctx, entry); err != nil {
		opts := d.policy.NormalizeAttempt(queue.NackOptions{
			Delay:   time.Duration(attempt) * time.Second,
			Requeue: true,
			Reason:  err.Error(),
		}, attempt)
		event.Err = err
		event.Delay = opts.Delay
		event.Duration = time.Since(startedAt)
		if opts.Requeue {
			d.onRetry(ctx, event)
		} else {
			d.onFailure(ctx, event)
			d.forget(key)
		}
		if nackErr := delivery.Nack(ctx, opts); nackErr != nil {
			return nackErr
		}
		return err
	}

	event.Duration = time.Since(startedAt)
	d.forget(key)
	if err := delivery.Ack(ctx); err != nil {
		return err
	}
	d.onSuccess(ctx, event)
	return nil
}

func (d *ActivityDrainer) nextAttempt(key string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.attempts[key]++
	return d.attempts[key]
}

func (d *ActivityDrainer) forget(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.attempts, key)
}

func (d *ActivityDrainer) onStart(ctx context.Context, event worker.Event) {
	if d.hook != nil {
		d.hook.OnStart(ctx, event)
	}
}

func (d *ActivityDrainer) onSuccess(ctx context.Context, event worker.Event) {
	if d.hook != nil {
		d.hook.OnSuccess(ctx, event)
	}
}

func (d *ActivityDrainer) onFailure(ctx context.Context, event worker.Event) {
	if d.hook != nil {
		d.hook.OnFailure(ctx, event)
	}
}

func (d *ActivityDrainer) onRetry(ctx context.Context, event worker.Event) {
	if d.hook != nil {
		d.hook.OnRetry(ctx, event)
	}
}

func deliveryKey(msg *job.ExecutionMessage) string {
	if msg == nil {
		return ""
	}
	if key := strings.TrimSpace(msg.IdempotencyKey); key != "" {
		return key
	}
	return stringParam(msg.Parameters, "request_id")
}

func stringParam(params map[string]any, key string) string {
	value, ok := params[key].(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(value)
}

func copyAnyMap(in map[string]any) map[string]any {
	if len(in) == 0 {
		return map[string]any{}
	}
	out := make(map[string]any, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

var _ core.ActivitySink = (*QueuedActivitySink)(nil)
