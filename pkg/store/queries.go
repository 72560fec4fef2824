package store

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
)

func (s *Store) ListDevices(ctx context.Context, tenantID string) ([]Device, error) {
	if tenantID == "" {
		return nil, ErrMissingTenant
	}
	var devices []Device
	err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("name asc").
		Find(&devices).Error
	return devices, err
}

func (s *Store) GetDevice(ctx context.Context, tenantID, deviceID string) (*Device, error) {
	if tenantID == "" {
		return nil, ErrMissingTenant
	}
	var device Device
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, deviceID).
		First(&device).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &device, nil
}

func (s *Store) ListAlerts(ctx context.Context, tenantID string) ([]Alert, error) {
	if tenantID == "" {
		return nil, ErrMissingTenant
	}
	var alerts []Alert
	err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("timestamp desc").
		Find(&alerts).Error
	return alerts, err
}

func (s *Store) GetAlert(ctx context.Context, tenantID, alertID string) (*Alert, error) {
	if tenantID == "" {
		return nil, ErrMissingTenant
	}
	var alert Alert
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, alertID).
		First(&alert).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &alert, nil
}

func (s *Store) ListPolicies(ctx context.Context, tenantID string) ([]SecurityPolicy, error) {
	if tenantID == "" {
		return nil, ErrMissingTenant
	}
	var policies []SecurityPolicy
	err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("name asc").
		Find(&policies).Error
	return policies, err
}

func (s *Store) GetPolicy(ctx context.Context, tenantID string, name PolicyName) (*SecurityPolicy, error) {
	if tenantID == "" {
		return nil, ErrMissingTenant
	}
	var policy SecurityPolicy
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND name = ?", tenantID, name).
		First(&policy).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &policy, nil
}

// ListAuditLog returns the tenant's trail, newest first, capped at limit
// (default 100).
func (s *Store) ListAuditLog(ctx context.Context, tenantID string, limit int) ([]AuditLogEntry, error) {
	if tenantID == "" {
		return nil, ErrMissingTenant
	}
	if limit <= 0 {
		limit = 100
	}
	var entries []AuditLogEntry
	err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at desc").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

// DashboardStats are the headline counters on the overview page.
type DashboardStats struct {
	ActiveThreats     int64 `json:"activeThreats"`
	ResolvedIncidents int64 `json:"resolvedIncidents"`
	DevicesOnline     int64 `json:"devicesOnline"`
	DevicesOffline    int64 `json:"devicesOffline"`
	DevicesIsolated   int64 `json:"devicesIsolated"`
}

func (s *Store) Stats(ctx context.Context, tenantID string) (DashboardStats, error) {
	var stats DashboardStats
	if tenantID == "" {
		return stats, ErrMissingTenant
	}
	db := s.db.WithContext(ctx)
	counts := []struct {
		dest  *int64
		model any
		query string
		arg   any
	}{
		{&stats.ActiveThreats, &Alert{}, "status = ?", AlertActive},
		{&stats.ResolvedIncidents, &Alert{}, "status = ?", AlertResolved},
		{&stats.DevicesOnline, &Device{}, "status = ?", DeviceOnline},
		{&stats.DevicesOffline, &Device{}, "status = ?", DeviceOffline},
		{&stats.DevicesIsolated, &Device{}, "status = ?", DeviceIsolated},
	}
	for _, c := range counts {
		if err := db.Model(c.model).
			Where("tenant_id = ?", tenantID).
			Where(c.query, c.arg).
			Count(c.dest).Error; err != nil {
			return stats, err
		}
	}
	return stats, nil
}

func (s *Store) GetUserProfile(ctx context.Context, userID string) (*UserProfile, error) {
	if userID == "" {
		return nil, ErrMissingUser
	}
	var profile UserProfile
	err := s.db.WithContext(ctx).
		Where("user_id = ?", userID).
		First(&profile).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// PutUserProfile creates or replaces the user's tenant binding.
func (s *Store) PutUserProfile(ctx context.Context, profile UserProfile) error {
	if profile.UserID == "" {
		return ErrMissingUser
	}
	if profile.TenantID == "" {
		return ErrMissingTenant
	}
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = time.Now().UTC()
	}
	return s.db.WithContext(ctx).Save(&profile).Error
}
