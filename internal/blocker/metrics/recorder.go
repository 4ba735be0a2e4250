// Package metrics defines the observability hooks of the blocker daemon.
//
// Components receive a Recorder and default to NoopRecorder, so metrics are
// optional everywhere. PrometheusRecorder is the real implementation served
// on the control API under /metrics.
package metrics

import "time"

// ResultLabel enumerates outcome categories for counters.
type ResultLabel string

const (
	ResultSuccess ResultLabel = "success"
	ResultFailed  ResultLabel = "failed"
	ResultSkipped ResultLabel = "skipped"
)

// TriggerLabel says what caused the Watcher to re-apply the blocklist.
type TriggerLabel string

const (
	TriggerTick   TriggerLabel = "tick"
	TriggerChange TriggerLabel = "change"
)

// Recorder is implemented by every metrics backend.
type Recorder interface {
	IncReapply(trigger TriggerLabel, result ResultLabel)
	IncTamper()
	IncNotification(result ResultLabel)
	SetBlockedDomains(n int)
	ObserveCommand(command string, d time.Duration, result ResultLabel)
}

// Result maps an error to the success/failed label.
func Result(err error) ResultLabel {
	if err != nil {
		return ResultFailed
	}
	return ResultSuccess
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) IncReapply(TriggerLabel, ResultLabel)              {}
func (NoopRecorder) IncTamper()                                        {}
func (NoopRecorder) IncNotification(ResultLabel)                       {}
func (NoopRecorder) SetBlockedDomains(int)                             {}
func (NoopRecorder) ObserveCommand(string, time.Duration, ResultLabel) {}

var _ Recorder = NoopRecorder{}
