// Package scheduler serializes print jobs through the single printer.
// At most one job occupies the connection at a time; everything else
// waits in a FIFO backlog.
package scheduler

import (
	"sync"

	"go.uber.org/zap"

	"github.com/hermesworks/receiptd/internal/printererr"
	"github.com/hermesworks/receiptd/internal/receipt"
	"github.com/hermesworks/receiptd/internal/shared/logger"
)

// Target identifies the currently selected printer.
type Target struct {
	ProductID uint16
	ModelName string
	MaxChars  int
}

// Job is one unit of print work. AwaitsImage marks jobs whose image is
// still downloading; they are held back until the image arrives or its
// download is reported, but any later dispatch trigger prints them as-is.
type Job struct {
	ID          string
	Source      string
	Blocks      []receipt.Block
	Image       []byte
	AwaitsImage bool
}

// DispatchFunc executes one job against the printer hardware.
type DispatchFunc func(target Target, job Job) error

// CompleteFunc observes every finished job, success or failure.
type CompleteFunc func(job Job, err error)

// Scheduler gates dispatch on a single printing flag. Jobs complete in
// submission order; no two jobs ever interleave commands on the wire.
type Scheduler struct {
	mu         sync.Mutex
	dispatch   DispatchFunc
	onComplete CompleteFunc
	backlog    []Job
	printing   bool
	target     *Target
}

func New(dispatch DispatchFunc, onComplete CompleteFunc) *Scheduler {
	return &Scheduler{dispatch: dispatch, onComplete: onComplete}
}

// SetPrinter selects the printer for subsequent jobs. nil deselects.
// Selecting a printer kicks the backlog in case jobs piled up without one.
func (s *Scheduler) SetPrinter(t *Target) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.target = t
	if t != nil {
		s.tryDispatchLocked()
	}
}

// Submit appends a job to the backlog and attempts dispatch. A job still
// waiting on its image does not trigger dispatch itself; the image
// arrival (or any other trigger) will.
func (s *Scheduler) Submit(job Job) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.backlog = append(s.backlog, job)
	logger.Debug("Job queued",
		zap.String("id", job.ID), zap.String("source", job.Source),
		zap.Int("backlog", len(s.backlog)))

	if !job.AwaitsImage {
		s.tryDispatchLocked()
	}
}

// AttachImage delivers a downloaded image to a queued job. image may be
// nil when the download failed; the job then prints text-only. Images
// arriving after dispatch are dropped with a warning.
func (s *Scheduler) AttachImage(jobID string, image []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	found := false
	for i := range s.backlog {
		if s.backlog[i].ID == jobID {
			s.backlog[i].Image = image
			s.backlog[i].AwaitsImage = false
			found = true
			break
		}
	}
	if !found && image != nil {
		logger.Warn("Image arrived after job dispatch, dropping",
			zap.String("id", jobID))
	}
	s.tryDispatchLocked()
}

// QueueLen reports the backlog depth.
func (s *Scheduler) QueueLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.backlog)
}

// Printing reports whether a job is currently in flight.
func (s *Scheduler) Printing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.printing
}

// tryDispatchLocked pops backlog entries while the printer is idle.
// Jobs submitted without a selected printer fail immediately instead of
// blocking the queue. Callers hold s.mu.
func (s *Scheduler) tryDispatchLocked() {
	for !s.printing && len(s.backlog) > 0 {
		job := s.backlog[0]
		s.backlog = s.backlog[1:]

		if s.target == nil {
			logger.Warn("No printer selected, job failed",
				zap.String("id", job.ID))
			if s.onComplete != nil {
				go s.onComplete(job, printererr.ErrDeviceNotFound)
			}
			continue
		}

		s.printing = true
		go s.run(*s.target, job)
	}
}

func (s *Scheduler) run(target Target, job Job) {
	err := s.dispatch(target, job)
	if err != nil {
		logger.Error("Print job failed",
			zap.String("id", job.ID),
			zap.String("reason", printererr.Describe(err)))
	} else {
		logger.Info("Print job done", zap.String("id", job.ID))
	}

	if s.onComplete != nil {
		s.onComplete(job, err)
	}

	s.mu.Lock()
	s.printing = false
	s.tryDispatchLocked()
	s.mu.Unlock()
}
