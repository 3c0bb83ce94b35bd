// Package metrics emits the standard counters and timings for publishing and delivery.
package metrics

import (
	"time"

	obserrors "github.com/target/newsletter-api/internal/observability/errors"
	"github.com/target/newsletter-api/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultNoop    = "noop"
	ResultReplay  = "replay"
)

// DeliveryMetric describes one delivery worker iteration.
type DeliveryMetric struct {
	// Outcome is the delivery outcome, empty when the iteration failed.
	Outcome  string
	Result   string
	Duration time.Duration
	Err      error
	// Sent is false when the task was dropped without a successful send.
	Sent bool
}

// EmitDelivery emits delivery.task and delivery.duration.
func EmitDelivery(sink statsd.Sink, in DeliveryMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"result": in.Result,
	}
	if in.Outcome != "" {
		tags["outcome"] = in.Outcome
	}
	addErrorClass(tags, in.Result, in.Err)

	sink.Count("delivery.task", 1, tags)
	if in.Outcome == "task_completed" && in.Err == nil {
		sent := "false"
		if in.Sent {
			sent = "true"
		}
		sink.Count("delivery.email", 1, map[string]string{"sent": sent})
	}
	if in.Duration > 0 {
		sink.Timing("delivery.duration", in.Duration, CloneTags(tags))
	}
}

// PublishMetric describes one publish request.
type PublishMetric struct {
	Result    string
	TaskCount int64
	Duration  time.Duration
	Err       error
}

// EmitPublish emits newsletter.publish and, for fresh publishes, the fan-out size.
func EmitPublish(sink statsd.Sink, in PublishMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{"result": in.Result}
	addErrorClass(tags, in.Result, in.Err)

	sink.Count("newsletter.publish", 1, tags)
	if in.Result == ResultSuccess {
		sink.Count("newsletter.tasks_enqueued", in.TaskCount, nil)
	}
	if in.Duration > 0 {
		sink.Timing("newsletter.publish_duration", in.Duration, CloneTags(tags))
	}
}

func addErrorClass(tags map[string]string, result string, err error) {
	if err == nil || result != ResultError {
		return
	}
	if class := obserrors.Classify(err); class != "" {
		tags["error_class"] = class
	}
}

// CloneTags creates a shallow copy of a tag map, filtering out empty keys.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	out := make(map[string]string, len(src))
	for k, v := range src {
		if k != "" {
			out[k] = v
		}
	}
	return out
}
