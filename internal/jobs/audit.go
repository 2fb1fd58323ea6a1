package jobs

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Ananth-NQI/lineflow-backend/internal/logger"
	"github.com/Ananth-NQI/lineflow-backend/internal/models"
	"github.com/Ananth-NQI/lineflow-backend/internal/services"
)

// AccountLister lists every account regardless of owner.
type AccountLister interface {
	ListAll(ctx context.Context) ([]*models.Account, error)
}

// AuditJob periodically audits every account's conversation graph and logs
// the problems it finds.
type AuditJob struct {
	accounts AccountLister
	auditor  *services.GraphAuditor
	interval time.Duration

	mu      sync.Mutex
	running bool
	stop    chan struct{}
	done    chan struct{}
}

// NewAuditJob creates a new graph audit job
func NewAuditJob(accounts AccountLister, auditor *services.GraphAuditor, interval time.Duration) *AuditJob {
	return &AuditJob{
		accounts: accounts,
		auditor:  auditor,
		interval: interval,
	}
}

// Start runs the audit every interval until Stop. A non-positive interval
// disables the job.
func (j *AuditJob) Start() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.running {
		logger.Log.Warn("graph audit job already running")
		return
	}
	if j.interval <= 0 {
		logger.Log.Info("graph audit job disabled")
		return
	}

	j.running = true
	j.stop = make(chan struct{})
	j.done = make(chan struct{})
	go j.loop(j.stop, j.done)

	logger.Log.Info("graph audit job started", zap.Duration("interval", j.interval))
}

// Stop halts the job and waits for an in-flight run to finish.
func (j *AuditJob) Stop() {
	j.mu.Lock()
	if !j.running {
		j.mu.Unlock()
		return
	}
	j.running = false
	close(j.stop)
	done := j.done
	j.mu.Unlock()

	<-done
	logger.Log.Info("graph audit job stopped")
}

func (j *AuditJob) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), j.interval)
			j.RunOnce(ctx)
			cancel()
		}
	}
}

// RunOnce audits all accounts and returns the reports that are not healthy.
func (j *AuditJob) RunOnce(ctx context.Context) []*services.GraphReport {
	accounts, err := j.accounts.ListAll(ctx)
	if err != nil {
		logger.Log.Error("graph audit: list accounts failed", zap.Error(err))
		return nil
	}

	var unhealthy []*services.GraphReport
	for _, account := range accounts {
		report, err := j.auditor.Audit(ctx, account.ID)
		if err != nil {
			logger.Log.Error("graph audit failed",
				zap.String("account_id", account.ID), zap.Error(err))
			continue
		}
		if report.Healthy() {
			continue
		}

		unhealthy = append(unhealthy, report)
		logger.Log.Warn("conversation graph needs attention",
			zap.String("account_id", account.ID),
			zap.String("account_name", account.Name),
			zap.Int("messages", report.MessageCount),
			zap.Int("initial_messages", len(report.InitialMessageIDs)),
			zap.Int("dangling_next_refs", len(report.DanglingNextRefs)),
			zap.Int("dangling_image_refs", len(report.DanglingImageRefs)),
			zap.Int("empty_carousels", len(report.EmptyCarousels)))
	}

	logger.Log.Info("graph audit finished",
		zap.Int("accounts", len(accounts)),
		zap.Int("unhealthy", len(unhealthy)))
	return unhealthy
}
