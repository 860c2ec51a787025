package model

import "time"

// SyncSummary captures metrics from a single sync run.
type SyncSummary struct {
	RunID     string
	Messages  int64
	Succeeded int64
	Skipped   int64
	Failed    int64
	Errored   int64
	Duration  time.Duration
}

// Record tallies one processing outcome.
func (s *SyncSummary) Record(status LogStatus) {
	switch status {
	case LogSuccess:
		s.Succeeded++
	case LogSkipped:
		s.Skipped++
	case LogFailed:
		s.Failed++
	case LogError:
		s.Errored++
	}
}
