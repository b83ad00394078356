package projects

import (
	"context"
	"sync"
	"time"

	"github.com/dataviz-jp/account-api/internal/storage"
	"github.com/dataviz-jp/account-api/internal/utils"
	"go.uber.org/zap"
)

// CleanupJob names storage objects that no longer have a metadata row:
// leftovers from a failed create, or payloads of a deleted project.
type CleanupJob struct {
	ProjectID string
	Keys      []string
}

// Cleaner drains cleanup jobs against the object store. Removal is best
// effort; a failed job is logged and dropped, never retried.
type Cleaner struct {
	jobs       chan CleanupJob
	quit       chan struct{}
	started    bool
	wg         sync.WaitGroup
	numWorkers int
	objects    storage.ObjectStore
}

func NewCleaner(numWorkers int, queueCapacity int, objects storage.ObjectStore) *Cleaner {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	if queueCapacity <= 0 {
		queueCapacity = 100
	}
	return &Cleaner{
		jobs:       make(chan CleanupJob, queueCapacity),
		quit:       make(chan struct{}),
		numWorkers: numWorkers,
		objects:    objects,
	}
}

func (cl *Cleaner) Start() {
	if cl.started {
		return
	}
	cl.started = true
	for i := 0; i < cl.numWorkers; i++ {
		cl.wg.Add(1)
		go func(workerID int) {
			defer cl.wg.Done()
			utils.Zlog.Info("Cleanup worker started", zap.Int("workerId", workerID))
			for {
				select {
				case <-cl.quit:
					utils.Zlog.Info("Cleanup worker stopping", zap.Int("workerId", workerID))
					return
				case job := <-cl.jobs:
					cl.processJob(workerID, job)
				}
			}
		}(i + 1)
	}
}

func (cl *Cleaner) Stop(ctx context.Context) {
	if !cl.started {
		return
	}
	close(cl.quit)
	done := make(chan struct{})
	go func() {
		cl.wg.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		utils.Zlog.Warn("Timeout waiting for cleanup workers to stop")
	case <-done:
		utils.Zlog.Info("All cleanup workers stopped")
	}
}

// Enqueue is non-blocking. A full queue or a stopped pool returns false
// and the objects stay behind as orphans.
func (cl *Cleaner) Enqueue(job CleanupJob) bool {
	select {
	case <-cl.quit:
		return false
	default:
	}
	select {
	case cl.jobs <- job:
		return true
	default:
		return false
	}
}

func (cl *Cleaner) processJob(workerID int, job CleanupJob) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := cl.objects.Remove(ctx, job.Keys); err != nil {
		utils.Zlog.Warn("Failed to remove project objects, leaving orphans",
			zap.Int("workerId", workerID),
			zap.String("projectId", job.ProjectID),
			zap.Strings("keys", job.Keys),
			zap.Error(err))
		return
	}

	utils.Zlog.Debug("Removed project objects",
		zap.Int("workerId", workerID),
		zap.String("projectId", job.ProjectID),
		zap.Int("keys", len(job.Keys)))
}
