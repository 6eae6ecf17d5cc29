package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mathschool/sync-core/internal/cache"
	"github.com/mathschool/sync-core/internal/guard"
	"github.com/mathschool/sync-core/internal/models"
	"github.com/mathschool/sync-core/internal/remote"
	"github.com/mathschool/sync-core/internal/store"
	appErrors "github.com/mathschool/sync-core/pkg/errors"
	"github.com/mathschool/sync-core/pkg/jobs"
	"github.com/mathschool/sync-core/pkg/metrics"
)

// MaterialService synchronizes the learning-materials catalog with the remote
// store: network-first reads with cache fallback, optimistic writes with a
// reconciliation queue for offline mutations.
type MaterialService struct {
	store     *store.Store
	snapshots cache.Snapshots
	api       remote.MaterialsAPI
	guard     guard.Guard
	bus       *store.Bus
	metrics   *metrics.Metrics
	logger    *zap.Logger

	queue  *jobs.Queue
	online atomic.Bool
	mu     sync.Mutex
}

// MaterialQueueConfig tunes the reconciliation worker.
type MaterialQueueConfig struct {
	Workers    int
	MaxRetries int
	RetryDelay time.Duration
}

// NewMaterialService constructs the service. Start must be called before
// offline writes can be reconciled in the background.
func NewMaterialService(st *store.Store, snapshots cache.Snapshots, api remote.MaterialsAPI, g guard.Guard, bus *store.Bus, m *metrics.Metrics, logger *zap.Logger, qcfg MaterialQueueConfig) *MaterialService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &MaterialService{
		store:     st,
		snapshots: snapshots,
		api:       api,
		guard:     g,
		bus:       bus,
		metrics:   m,
		logger:    logger,
	}
	s.queue = jobs.NewQueue("material-resync", s.handleResyncJob, jobs.QueueConfig{
		Workers:    qcfg.Workers,
		MaxRetries: qcfg.MaxRetries,
		RetryDelay: qcfg.RetryDelay,
		Logger:     logger,
	})
	return s
}

// Start launches the reconciliation worker.
func (s *MaterialService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the reconciliation worker.
func (s *MaterialService) Stop() {
	s.queue.Stop()
}

// Online reports the last observed connectivity to the materials API.
func (s *MaterialService) Online() bool {
	return s.online.Load()
}

// Load restores the cached material set and the pending-write queue.
func (s *MaterialService) Load(ctx context.Context) {
	var materials []models.LearningMaterial
	hit, err := s.snapshots.Restore(ctx, models.CollectionMaterials, &materials)
	if err != nil {
		s.metrics.RecordSnapshotFailure()
		s.logger.Warn("materials snapshot restore failed", zap.Error(err))
	}
	s.metrics.RecordCacheRestore(hit)
	if hit {
		s.store.ReplaceMaterials(materials)
	}

	var ops []models.PendingOp
	if hit, err := s.snapshots.Restore(ctx, models.CollectionPendingSync, &ops); err == nil && hit {
		s.store.LoadPendingOps(ops)
		s.metrics.SetPendingOps(len(ops))
	}
}

// List returns materials matching the filter. The remote set is fetched
// first; on success it replaces the local cache wholesale. On network
// failure the same filter runs against the last known cache and the caller
// cannot tell the difference from the return value alone.
func (s *MaterialService) List(ctx context.Context, filter models.MaterialFilter) []models.LearningMaterial {
	fetched, err := s.api.Fetch(ctx)
	if err != nil {
		s.online.Store(false)
		s.metrics.RecordSyncFallback()
		s.logger.Warn("materials fetch failed, serving cache", zap.Error(err))
		return applyMaterialFilter(s.store.Materials(), filter)
	}

	s.online.Store(true)
	s.mu.Lock()
	s.store.ReplaceMaterials(fetched)
	// Locally applied writes awaiting reconciliation survive the refresh;
	// dropping them here would silently lose offline edits.
	for _, op := range s.store.PendingOps() {
		switch op.Kind {
		case models.OpDelete:
			s.store.RemoveMaterial(op.MaterialID)
		default:
			s.store.UpsertMaterial(op.Material)
		}
	}
	s.persist(ctx)
	s.mu.Unlock()

	return applyMaterialFilter(s.store.Materials(), filter)
}

// Create adds a material, remote first. When the remote store is unreachable
// the material is applied locally with a pending-sync marker and queued for
// reconciliation.
func (s *MaterialService) Create(ctx context.Context, material models.LearningMaterial) (models.LearningMaterial, error) {
	if !s.guard.HasCapability(models.CapMaterialsManage) {
		return models.LearningMaterial{}, appErrors.ErrForbidden
	}

	canonical, err := s.createLocked(ctx, material)
	if err != nil {
		return models.LearningMaterial{}, err
	}
	s.bus.Notify()
	return canonical, nil
}

func (s *MaterialService) createLocked(ctx context.Context, material models.LearningMaterial) (models.LearningMaterial, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if material.ID == "" {
		material.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	material.CreatedAt = now
	material.UpdatedAt = now

	canonical, err := s.api.Create(ctx, material)
	switch {
	case err == nil:
		s.online.Store(true)
		canonical.PendingSync = false
		s.store.UpsertMaterial(canonical)
	case appErrors.Is(err, appErrors.ErrNetworkUnavailable):
		s.applyOffline(models.OpCreate, material)
		canonical = material
		canonical.PendingSync = true
	default:
		return models.LearningMaterial{}, err
	}

	s.persist(ctx)
	return canonical, nil
}

// Update replaces a material, remote first, with the same offline fallback.
func (s *MaterialService) Update(ctx context.Context, material models.LearningMaterial) (models.LearningMaterial, error) {
	if !s.guard.HasCapability(models.CapMaterialsManage) {
		return models.LearningMaterial{}, appErrors.ErrForbidden
	}

	canonical, err := s.updateLocked(ctx, material)
	if err != nil {
		return models.LearningMaterial{}, err
	}
	s.bus.Notify()
	return canonical, nil
}

func (s *MaterialService) updateLocked(ctx context.Context, material models.LearningMaterial) (models.LearningMaterial, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.store.Material(material.ID); !ok {
		return models.LearningMaterial{}, appErrors.Clone(appErrors.ErrNotFound, "material not found")
	}
	material.UpdatedAt = time.Now().UTC()

	canonical, err := s.api.Update(ctx, material)
	switch {
	case err == nil:
		s.online.Store(true)
		canonical.PendingSync = false
		s.store.UpsertMaterial(canonical)
	case appErrors.Is(err, appErrors.ErrNetworkUnavailable):
		s.applyOffline(models.OpUpdate, material)
		canonical = material
		canonical.PendingSync = true
	default:
		return models.LearningMaterial{}, err
	}

	s.persist(ctx)
	return canonical, nil
}

// Delete removes a material, remote first, with the same offline fallback.
func (s *MaterialService) Delete(ctx context.Context, id string) (bool, error) {
	if !s.guard.HasCapability(models.CapMaterialsManage) {
		return false, appErrors.ErrForbidden
	}

	if err := s.deleteLocked(ctx, id); err != nil {
		return false, err
	}
	s.bus.Notify()
	return true, nil
}

func (s *MaterialService) deleteLocked(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	material, ok := s.store.Material(id)
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "material not found")
	}

	err := s.api.Delete(ctx, id)
	switch {
	case err == nil || appErrors.Is(err, appErrors.ErrNotFound):
		s.online.Store(true)
		s.store.RemoveMaterial(id)
	case appErrors.Is(err, appErrors.ErrNetworkUnavailable):
		s.store.RemoveMaterial(id)
		s.applyOffline(models.OpDelete, material)
	default:
		return err
	}

	s.persist(ctx)
	return nil
}

// Resync synchronously drains the pending-write queue, typically called when
// a connectivity signal reports the network is back. It stops at the first
// network failure and leaves the remaining ops queued.
func (s *MaterialService) Resync(ctx context.Context) error {
	for _, op := range s.store.PendingOps() {
		if err := s.reconcile(ctx, op); err != nil {
			return err
		}
	}
	return nil
}

// applyOffline records a locally applied write for later reconciliation.
// Caller holds the mutation lock.
func (s *MaterialService) applyOffline(kind models.PendingOpKind, material models.LearningMaterial) {
	s.online.Store(false)
	s.metrics.RecordSyncFallback()

	if kind != models.OpDelete {
		material.PendingSync = true
		s.store.UpsertMaterial(material)
	}
	op := models.PendingOp{
		ID:         uuid.NewString(),
		Kind:       kind,
		MaterialID: material.ID,
		Material:   material,
		QueuedAt:   time.Now().UTC(),
	}
	s.store.AppendPendingOp(op)
	s.metrics.SetPendingOps(len(s.store.PendingOps()))

	if err := s.queue.Enqueue(jobs.Job{ID: op.ID, Payload: op.ID}); err != nil {
		s.logger.Warn("could not queue resync job", zap.String("op_id", op.ID), zap.Error(err))
	}
}

func (s *MaterialService) handleResyncJob(ctx context.Context, job jobs.Job) error {
	opID, _ := job.Payload.(string)
	for _, op := range s.store.PendingOps() {
		if op.ID == opID {
			return s.reconcile(ctx, op)
		}
	}
	// Already reconciled elsewhere.
	return nil
}

// reconcile replays one queued offline write against the remote store.
// Conflicts resolve last-writer-wins with the server outcome kept: an update
// whose target was deleted server-side is dropped, not resurrected.
func (s *MaterialService) reconcile(ctx context.Context, op models.PendingOp) error {
	reconciled, err := s.reconcileLocked(ctx, op)
	if err != nil {
		return err
	}
	if reconciled {
		s.bus.Notify()
	}
	return nil
}

func (s *MaterialService) reconcileLocked(ctx context.Context, op models.PendingOp) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// The background worker and an explicit Resync can both pick up the same
	// op before either takes the lock; whoever loses the race finds it gone.
	if !s.store.HasPendingOp(op.ID) {
		return false, nil
	}

	var (
		canonical models.LearningMaterial
		err       error
	)
	switch op.Kind {
	case models.OpCreate:
		canonical, err = s.api.Create(ctx, op.Material)
	case models.OpUpdate:
		canonical, err = s.api.Update(ctx, op.Material)
	case models.OpDelete:
		err = s.api.Delete(ctx, op.MaterialID)
	}

	switch {
	case err == nil:
		s.online.Store(true)
		if op.Kind != models.OpDelete {
			canonical.PendingSync = false
			s.store.UpsertMaterial(canonical)
		}
	case appErrors.Is(err, appErrors.ErrNotFound):
		s.online.Store(true)
		if op.Kind == models.OpUpdate {
			s.store.RemoveMaterial(op.MaterialID)
			s.logger.Warn("resync conflict: material deleted remotely, dropping local edit",
				zap.String("material_id", op.MaterialID))
		}
	case appErrors.Is(err, appErrors.ErrNetworkUnavailable):
		s.online.Store(false)
		return false, err
	default:
		s.logger.Warn("resync rejected by remote, dropping op",
			zap.String("op_id", op.ID), zap.Error(err))
	}

	s.store.RemovePendingOp(op.ID)
	s.metrics.SetPendingOps(len(s.store.PendingOps()))
	s.persist(ctx)
	return true, nil
}

// persist writes the material set and pending queue snapshots. Best effort.
func (s *MaterialService) persist(ctx context.Context) {
	start := time.Now()
	materials := sortedMaterials(s.store.Materials())
	err := s.snapshots.Backup(ctx, models.CollectionMaterials, materials)
	if err2 := s.snapshots.Backup(ctx, models.CollectionPendingSync, s.store.PendingOps()); err == nil {
		err = err2
	}
	s.metrics.ObserveSnapshotWrite(time.Since(start))
	if err != nil {
		s.metrics.RecordSnapshotFailure()
		s.logger.Warn("materials snapshot write failed", zap.Error(err))
	}
}

// applyMaterialFilter filters then orders the set deterministically, so the
// same filter on an unchanged set yields identical membership and order.
func applyMaterialFilter(materials []models.LearningMaterial, filter models.MaterialFilter) []models.LearningMaterial {
	out := materials[:0]
	search := strings.ToLower(strings.TrimSpace(filter.Search))
	for _, m := range materials {
		if filter.Type != "" && !strings.EqualFold(m.Type, filter.Type) {
			continue
		}
		if filter.Subject != "" && !strings.EqualFold(m.Subject, filter.Subject) {
			continue
		}
		if filter.GradeLevel != 0 && m.GradeLevel != filter.GradeLevel {
			continue
		}
		if filter.Difficulty != "" && !strings.EqualFold(m.Difficulty, filter.Difficulty) {
			continue
		}
		if filter.IsPublic != nil && m.IsPublic != *filter.IsPublic {
			continue
		}
		if search != "" && !materialMatches(m, search) {
			continue
		}
		out = append(out, m)
	}
	return sortedMaterials(out)
}

func materialMatches(m models.LearningMaterial, search string) bool {
	if strings.Contains(strings.ToLower(m.Title), search) {
		return true
	}
	if strings.Contains(strings.ToLower(m.Description), search) {
		return true
	}
	for _, tag := range m.Tags {
		if strings.Contains(strings.ToLower(tag), search) {
			return true
		}
	}
	return false
}

func sortedMaterials(materials []models.LearningMaterial) []models.LearningMaterial {
	sort.SliceStable(materials, func(i, j int) bool {
		if !materials[i].UpdatedAt.Equal(materials[j].UpdatedAt) {
			return materials[i].UpdatedAt.After(materials[j].UpdatedAt)
		}
		return materials[i].ID < materials[j].ID
	})
	return materials
}
