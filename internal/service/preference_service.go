package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/mathschool/sync-core/internal/cache"
	"github.com/mathschool/sync-core/internal/models"
	"github.com/mathschool/sync-core/internal/store"
)

// TeacherFilters are the saved search settings for the teacher screens.
type TeacherFilters struct {
	Subject    string `json:"subject,omitempty"`
	GradeLevel int    `json:"grade_level,omitempty"`
	Search     string `json:"search,omitempty"`
}

// Preferences are free-form per-user UI settings persisted verbatim.
type Preferences map[string]string

// PreferenceService persists the small auxiliary collections: teacher
// filters, the offline-mode flag, and user preferences.
type PreferenceService struct {
	snapshots cache.Snapshots
	bus       *store.Bus
	logger    *zap.Logger
}

// NewPreferenceService constructs the service.
func NewPreferenceService(snapshots cache.Snapshots, bus *store.Bus, logger *zap.Logger) *PreferenceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PreferenceService{snapshots: snapshots, bus: bus, logger: logger}
}

// SaveTeacherFilters overwrites the saved filter snapshot.
func (s *PreferenceService) SaveTeacherFilters(ctx context.Context, filters TeacherFilters) {
	if err := s.snapshots.Backup(ctx, models.CollectionTeacherFilters, filters); err != nil {
		s.logger.Warn("teacher filters write failed", zap.Error(err))
	}
	s.bus.Notify()
}

// TeacherFilters restores the saved filters, zero value when absent.
func (s *PreferenceService) TeacherFilters(ctx context.Context) TeacherFilters {
	var filters TeacherFilters
	if _, err := s.snapshots.Restore(ctx, models.CollectionTeacherFilters, &filters); err != nil {
		s.logger.Warn("teacher filters restore failed", zap.Error(err))
	}
	return filters
}

// SetOfflineMode persists the user-chosen offline flag.
func (s *PreferenceService) SetOfflineMode(ctx context.Context, offline bool) {
	if err := s.snapshots.Backup(ctx, models.CollectionOfflineMode, offline); err != nil {
		s.logger.Warn("offline mode write failed", zap.Error(err))
	}
	s.bus.Notify()
}

// OfflineMode restores the flag, false when absent.
func (s *PreferenceService) OfflineMode(ctx context.Context) bool {
	var offline bool
	if _, err := s.snapshots.Restore(ctx, models.CollectionOfflineMode, &offline); err != nil {
		s.logger.Warn("offline mode restore failed", zap.Error(err))
	}
	return offline
}

// SavePreferences overwrites the preference snapshot.
func (s *PreferenceService) SavePreferences(ctx context.Context, prefs Preferences) {
	if err := s.snapshots.Backup(ctx, models.CollectionPreferences, prefs); err != nil {
		s.logger.Warn("preferences write failed", zap.Error(err))
	}
	s.bus.Notify()
}

// Preferences restores saved preferences, empty when absent.
func (s *PreferenceService) Preferences(ctx context.Context) Preferences {
	prefs := Preferences{}
	if _, err := s.snapshots.Restore(ctx, models.CollectionPreferences, &prefs); err != nil {
		s.logger.Warn("preferences restore failed", zap.Error(err))
	}
	return prefs
}
