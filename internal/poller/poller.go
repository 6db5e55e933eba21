// Package poller periodically fetches pending receipt messages from the
// website API, queues them for printing and reports outcomes back.
package poller

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/hermesworks/receiptd/internal/history"
	"github.com/hermesworks/receiptd/internal/scheduler"
	"github.com/hermesworks/receiptd/internal/shared/logger"
)

// jobIDPrefix marks scheduler jobs that came from the website.
const jobIDPrefix = "web-"

// Poller drives the fetch loop. One message becomes one scheduler job;
// duplicates are suppressed because a message can be re-polled before
// its printed mark lands on the API.
type Poller struct {
	client   *Client
	interval time.Duration
	sched    *scheduler.Scheduler

	mu   sync.Mutex
	seen map[int64]struct{}

	cancel context.CancelFunc
	done   chan struct{}
}

func New(client *Client, interval time.Duration, sched *scheduler.Scheduler) *Poller {
	return &Poller{
		client:   client,
		interval: interval,
		sched:    sched,
		seen:     make(map[int64]struct{}),
	}
}

// Start launches the poll loop.
func (p *Poller) Start() {
	ctx, cancel := context.WithCancel(context.Background())
	p.cancel = cancel
	p.done = make(chan struct{})

	go func() {
		defer close(p.done)
		logger.Info("Website poller started",
			zap.Duration("interval", p.interval))

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.poll(ctx)
			}
		}
	}()
}

// Stop halts the loop and waits for it to exit.
func (p *Poller) Stop() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	<-p.done
}

func (p *Poller) poll(ctx context.Context) {
	messages, err := p.client.FetchPending(ctx)
	if err != nil {
		logger.Warn("Poll error", zap.Error(err))
		return
	}
	if len(messages) == 0 {
		return
	}
	logger.Info("Polled pending messages", zap.Int("count", len(messages)))

	for _, msg := range messages {
		p.enqueue(ctx, msg)
	}
}

func (p *Poller) enqueue(ctx context.Context, msg Message) {
	p.mu.Lock()
	if _, dup := p.seen[msg.ID]; dup {
		p.mu.Unlock()
		logger.Debug("Skipping duplicate message", zap.Int64("id", msg.ID))
		return
	}
	p.seen[msg.ID] = struct{}{}
	p.mu.Unlock()

	jobID := fmt.Sprintf("%s%d", jobIDPrefix, msg.ID)
	hasImage := msg.ImageURL != ""

	if err := history.RecordJob(history.JobRow{
		ID:       jobID,
		Source:   "website",
		Content:  msg.Content,
		HasImage: hasImage,
	}); err != nil {
		logger.Warn("Failed to record job history", zap.Error(err))
	}

	p.sched.Submit(scheduler.Job{
		ID:          jobID,
		Source:      "website",
		Blocks:      FormatMessage(msg),
		AwaitsImage: hasImage,
	})

	if hasImage {
		go p.downloadImage(ctx, jobID, msg)
	}
}

func (p *Poller) downloadImage(ctx context.Context, jobID string, msg Message) {
	bytes, err := p.client.DownloadImage(ctx, msg.ImageURL)
	if err != nil {
		logger.Warn("Image download failed",
			zap.Int64("id", msg.ID), zap.Error(err))
		// Deliver nil so the job prints text-only instead of stalling.
		p.sched.AttachImage(jobID, nil)
		return
	}
	logger.Info("Downloaded message image",
		zap.Int64("id", msg.ID), zap.Int("bytes", len(bytes)))
	p.sched.AttachImage(jobID, bytes)
}

// HandleCompletion reports a finished website job back to the API. Jobs
// from other sources are ignored.
func (p *Poller) HandleCompletion(jobID string, jobErr error) {
	if !strings.HasPrefix(jobID, jobIDPrefix) {
		return
	}
	messageID, err := strconv.ParseInt(strings.TrimPrefix(jobID, jobIDPrefix), 10, 64)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if jobErr == nil {
		if err := p.client.MarkPrinted(ctx, messageID); err != nil {
			logger.Warn("Failed to mark message printed", zap.Error(err))
		}
		return
	}
	if err := p.client.MarkFailed(ctx, messageID); err != nil {
		logger.Warn("Failed to mark message failed", zap.Error(err))
	}
}
