package services

import (
	"sync"
	"time"

	"github.com/brandrank/audit-backend/shared"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	elapsedTickInterval  = 1 * time.Second
	progressTickInterval = 2500 * time.Millisecond
	progressStep         = 5
	progressCeiling      = 95
)

// loadingMessages are shown in order as simulated progress advances; the
// 0-100 range is split into equal bands, one per message.
var loadingMessages = []string{
	"Initiating real-time search...",
	"Analyzing unbranded prompts...",
	"Evaluating competitor landscape...",
	"Compiling content readiness scores...",
	"Finalizing brand analysis...",
	"Almost there, generating report...",
}

// ProgressState is the lifecycle state of a generation progress run.
type ProgressState string

const (
	ProgressIdle     ProgressState = "idle"
	ProgressRunning  ProgressState = "running"
	ProgressComplete ProgressState = "complete"
)

// ProgressSnapshot is a point-in-time view of a run for the polling endpoint.
type ProgressSnapshot struct {
	RunID          string        `json:"run_id"`
	CompanyName    string        `json:"company_name"`
	State          ProgressState `json:"state"`
	Progress       int           `json:"progress"`
	Message        string        `json:"message"`
	ElapsedSeconds int           `json:"elapsed_seconds"`
	AuditID        string        `json:"audit_id,omitempty"`
	ErrorMessage   string        `json:"error_message,omitempty"`
}

// ProgressService simulates audit-generation progress while the external
// generation call is in flight. The simulation never reaches 100 on its own;
// only the external call resolving forces completion. Runs are addressable by
// ID so the dashboard can poll while generation runs in the background.
type ProgressService struct {
	clock shared.Clock

	mutex sync.RWMutex
	runs  map[string]*progressRun
}

// NewProgressService creates a progress run registry driven by the given
// clock.
func NewProgressService(clock shared.Clock) *ProgressService {
	return &ProgressService{
		clock: clock,
		runs:  make(map[string]*progressRun),
	}
}

type progressRun struct {
	id      string
	company string

	mutex          sync.Mutex
	state          ProgressState
	progress       int
	message        string
	elapsedSeconds int
	auditID        string
	errorMessage   string
	finished       bool

	stop           chan struct{}
	elapsedTicker  shared.Ticker
	progressTicker shared.Ticker
}

// Begin starts a new run: the elapsed counter resets to zero and ticks every
// second, and the simulated progress advances by progressStep every
// progressTickInterval, capped at progressCeiling.
func (s *ProgressService) Begin(companyName string) string {
	run := &progressRun{
		id:             uuid.NewString(),
		company:        companyName,
		state:          ProgressRunning,
		message:        loadingMessages[0],
		stop:           make(chan struct{}),
		elapsedTicker:  s.clock.NewTicker(elapsedTickInterval),
		progressTicker: s.clock.NewTicker(progressTickInterval),
	}

	s.mutex.Lock()
	s.runs[run.id] = run
	s.mutex.Unlock()

	go run.loop()

	logrus.WithFields(logrus.Fields{
		"component": "ProgressService",
		"run_id":    run.id,
		"company":   companyName,
	}).Debug("Progress run started")

	return run.id
}

// Snapshot returns the current state of a run.
func (s *ProgressService) Snapshot(runID string) (ProgressSnapshot, bool) {
	s.mutex.RLock()
	run, ok := s.runs[runID]
	s.mutex.RUnlock()
	if !ok {
		return ProgressSnapshot{}, false
	}

	run.mutex.Lock()
	defer run.mutex.Unlock()

	return ProgressSnapshot{
		RunID:          run.id,
		CompanyName:    run.company,
		State:          run.state,
		Progress:       run.progress,
		Message:        run.message,
		ElapsedSeconds: run.elapsedSeconds,
		AuditID:        run.auditID,
		ErrorMessage:   run.errorMessage,
	}, true
}

// Complete marks a run finished by the external call succeeding: timers stop,
// progress is forced to 100 and the state moves to complete. Calling it on an
// unknown or already-finished run is a no-op, which guards against a stale
// resolution arriving after the run was torn down.
func (s *ProgressService) Complete(runID, auditID string) {
	s.finish(runID, func(run *progressRun) {
		run.state = ProgressComplete
		run.progress = 100
		run.message = "Done"
		run.auditID = auditID
	})
}

// Fail resets a run to idle after the external call failed. The error message
// is kept on the run for the next poll.
func (s *ProgressService) Fail(runID, errorMessage string) {
	s.finish(runID, func(run *progressRun) {
		run.state = ProgressIdle
		run.progress = 0
		run.message = ""
		run.errorMessage = errorMessage
	})
}

// Abort tears a run down (view dismissed before resolution): timers stop and
// the run is removed so no orphaned callbacks keep firing.
func (s *ProgressService) Abort(runID string) {
	s.finish(runID, func(run *progressRun) {
		run.state = ProgressIdle
		run.progress = 0
		run.message = ""
	})

	s.mutex.Lock()
	delete(s.runs, runID)
	s.mutex.Unlock()
}

func (s *ProgressService) finish(runID string, apply func(*progressRun)) {
	s.mutex.RLock()
	run, ok := s.runs[runID]
	s.mutex.RUnlock()
	if !ok {
		return
	}

	run.mutex.Lock()
	defer run.mutex.Unlock()
	if run.finished {
		return
	}

	run.finished = true
	close(run.stop)
	run.elapsedTicker.Stop()
	run.progressTicker.Stop()
	apply(run)
}

func (r *progressRun) loop() {
	for {
		select {
		case <-r.elapsedTicker.C():
			r.mutex.Lock()
			if !r.finished {
				r.elapsedSeconds++
			}
			r.mutex.Unlock()
		case <-r.progressTicker.C():
			r.mutex.Lock()
			if !r.finished {
				r.progress += progressStep
				if r.progress > progressCeiling {
					r.progress = progressCeiling
				}
				r.message = messageForProgress(r.progress)
			}
			r.mutex.Unlock()
		case <-r.stop:
			return
		}
	}
}

func messageForProgress(progress int) string {
	index := progress * len(loadingMessages) / 100
	if index >= len(loadingMessages) {
		index = len(loadingMessages) - 1
	}
	return loadingMessages[index]
}
