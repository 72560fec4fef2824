// Package store implements the tenant-scoped data-access layer for the
// dashboard: device lifecycle, alert lifecycle, policy settings, enrollment
// tokens and the audit trail. Every operation takes the owning tenant and the
// acting user explicitly; there is no ambient client state.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/xid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Store owns all reads and writes against the backing database. Construct it
// once at the composition root and pass it into handlers.
type Store struct {
	db       *gorm.DB
	log      zerolog.Logger
	notifier Notifier
}

func New(db *gorm.DB, log zerolog.Logger, notifier Notifier) *Store {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Store{db: db, log: log, notifier: notifier}
}

// Migrate creates or updates the schema for all entities.
func (s *Store) Migrate() error {
	return s.db.AutoMigrate(AllModels()...)
}

// CommitResult reports the outcome of a mutation whose primary write
// committed. AuditPending lists target ids whose audit append failed; the
// primary state change is retained regardless.
type CommitResult struct {
	AuditPending []string `json:"audit_pending,omitempty"`
}

// FullyCommitted reports whether every audit append landed.
func (r CommitResult) FullyCommitted() bool { return len(r.AuditPending) == 0 }

// WriteAuditLog appends one immutable record to the tenant's audit trail.
// Callers inside this package treat failures as non-fatal; the primary
// mutation is never rolled back because its audit entry could not be written.
func (s *Store) WriteAuditLog(ctx context.Context, tenantID, userID, action, targetID string, metadata map[string]any) error {
	if tenantID == "" {
		return ErrMissingTenant
	}
	meta := "{}"
	if len(metadata) > 0 {
		raw, err := json.Marshal(metadata)
		if err != nil {
			return err
		}
		meta = string(raw)
	}
	entry := AuditLogEntry{
		ID:        xid.New().String(),
		TenantID:  tenantID,
		Action:    action,
		TargetID:  targetID,
		UserID:    userID,
		Metadata:  meta,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return err
	}
	s.notify(tenantID, CollectionAudit, entry.ID, OpCreate)
	return nil
}

// audit appends a trail entry and records the failure on the result instead
// of propagating it.
func (s *Store) audit(ctx context.Context, res *CommitResult, tenantID, userID, action, targetID string, metadata map[string]any) {
	if err := s.WriteAuditLog(ctx, tenantID, userID, action, targetID, metadata); err != nil {
		s.log.Warn().Err(err).
			Str("tenant_id", tenantID).
			Str("action", action).
			Str("target_id", targetID).
			Msg("audit append failed, primary write retained")
		res.AuditPending = append(res.AuditPending, targetID)
	}
}

// isolationFields is the multi-field update applied by every isolate path.
// The three state fields are always set together.
func isolationFields(now time.Time) map[string]any {
	return map[string]any{
		"status":      DeviceIsolated,
		"isolated":    true,
		"risk_level":  RiskHigh,
		"isolated_at": now,
	}
}

// IsolateDevices marks the given devices as network-isolated. The device
// updates are applied in one transaction, all or nothing; the per-device
// audit appends happen after commit and may fail independently. Devices that
// are already isolated are dropped from the target set before the write.
func (s *Store) IsolateDevices(ctx context.Context, tenantID string, deviceIDs []string, userID string) (CommitResult, error) {
	var res CommitResult
	if tenantID == "" {
		return res, ErrMissingTenant
	}
	if userID == "" {
		return res, ErrMissingUser
	}
	if len(deviceIDs) == 0 {
		return res, nil
	}

	var targets []string
	err := s.db.WithContext(ctx).Model(&Device{}).
		Where("tenant_id = ? AND id IN ? AND status <> ?", tenantID, deviceIDs, DeviceIsolated).
		Pluck("id", &targets).Error
	if err != nil {
		return res, err
	}
	if len(targets) == 0 {
		return res, nil
	}

	now := time.Now().UTC()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Model(&Device{}).
			Where("tenant_id = ? AND id IN ?", tenantID, targets).
			Updates(isolationFields(now)).Error
	})
	if err != nil {
		return res, err
	}

	for _, id := range targets {
		s.audit(ctx, &res, tenantID, userID, "DEVICE_ISOLATED", id, nil)
		s.notify(tenantID, CollectionDevices, id, OpUpdate)
	}
	return res, nil
}

// ChangeDevicePolicy assigns one of the fixed named policies to a device. The
// update itself is the existence check: a missing device surfaces as
// ErrNotFound.
func (s *Store) ChangeDevicePolicy(ctx context.Context, tenantID, deviceID string, policy PolicyName, userID string) (CommitResult, error) {
	var res CommitResult
	if tenantID == "" {
		return res, ErrMissingTenant
	}
	if userID == "" {
		return res, ErrMissingUser
	}
	if !policy.Valid() {
		return res, ErrInvalidPolicy
	}

	tx := s.db.WithContext(ctx).Model(&Device{}).
		Where("tenant_id = ? AND id = ?", tenantID, deviceID).
		Updates(map[string]any{
			"policy":            policy,
			"policy_updated_at": time.Now().UTC(),
		})
	if tx.Error != nil {
		return res, tx.Error
	}
	if tx.RowsAffected == 0 {
		return res, ErrNotFound
	}

	s.audit(ctx, &res, tenantID, userID, "POLICY_CHANGED", deviceID, map[string]any{"newPolicy": policy})
	s.notify(tenantID, CollectionDevices, deviceID, OpUpdate)
	return res, nil
}

// PolicySettings is the editable portion of a named policy document,
// validated before any write is attempted.
type PolicySettings struct {
	ScanLevel         ScanLevel `json:"scanLevel"`
	AutoQuarantine    bool      `json:"autoQuarantine"`
	OfflineProtection bool      `json:"offlineProtection"`
}

func (p PolicySettings) Validate() error {
	if !p.ScanLevel.Valid() {
		return ErrInvalidScanLevel
	}
	return nil
}

// SaveSecurityPolicy updates the settings of a named policy document shared
// by all devices carrying that name. Update-only: an absent document is
// ErrNotFound, never created here. Last write wins; there is no conflict
// detection between concurrent editors.
func (s *Store) SaveSecurityPolicy(ctx context.Context, tenantID string, name PolicyName, settings PolicySettings, userID string) (CommitResult, error) {
	var res CommitResult
	if tenantID == "" {
		return res, ErrMissingTenant
	}
	if userID == "" {
		return res, ErrMissingUser
	}
	if !name.Valid() {
		return res, ErrInvalidPolicy
	}
	if err := settings.Validate(); err != nil {
		return res, err
	}

	tx := s.db.WithContext(ctx).Model(&SecurityPolicy{}).
		Where("tenant_id = ? AND name = ?", tenantID, name).
		Updates(map[string]any{
			"scan_level":         settings.ScanLevel,
			"auto_quarantine":    settings.AutoQuarantine,
			"offline_protection": settings.OfflineProtection,
			"updated_at":         time.Now().UTC(),
			"updated_by":         userID,
		})
	if tx.Error != nil {
		return res, tx.Error
	}
	if tx.RowsAffected == 0 {
		return res, ErrNotFound
	}

	s.audit(ctx, &res, tenantID, userID, "POLICY_UPDATED", string(name), map[string]any{
		"scanLevel":         settings.ScanLevel,
		"autoQuarantine":    settings.AutoQuarantine,
		"offlineProtection": settings.OfflineProtection,
	})
	s.notify(tenantID, CollectionPolicies, string(name), OpUpdate)
	return res, nil
}

// UpdateAlertStatus transitions an alert to Quarantined or Resolved and
// stamps the matching timestamp. The data layer does not enforce transition
// direction; callers disable invalid transitions in their own surface.
func (s *Store) UpdateAlertStatus(ctx context.Context, tenantID, alertID string, status AlertStatus, userID string) (CommitResult, error) {
	var res CommitResult
	if tenantID == "" {
		return res, ErrMissingTenant
	}
	if userID == "" {
		return res, ErrMissingUser
	}

	now := time.Now().UTC()
	updates := map[string]any{"status": status}
	var action string
	switch status {
	case AlertQuarantined:
		updates["quarantined_at"] = now
		action = "THREAT_QUARANTINED"
	case AlertResolved:
		updates["resolved_at"] = now
		action = "THREAT_RESOLVED"
	default:
		return res, ErrInvalidStatus
	}

	tx := s.db.WithContext(ctx).Model(&Alert{}).
		Where("tenant_id = ? AND id = ?", tenantID, alertID).
		Updates(updates)
	if tx.Error != nil {
		return res, tx.Error
	}
	if tx.RowsAffected == 0 {
		return res, ErrNotFound
	}

	s.audit(ctx, &res, tenantID, userID, action, alertID, nil)
	s.notify(tenantID, CollectionAlerts, alertID, OpUpdate)
	return res, nil
}

// IsolationOutcome reports which halves of an isolate-from-alert composition
// committed. The two steps are independent writes with no compensation: the
// device may end up isolated while the alert stays Active.
type IsolationOutcome struct {
	CommitResult
	DeviceID         string `json:"device_id"`
	DeviceIsolated   bool   `json:"device_isolated"`
	AlertQuarantined bool   `json:"alert_quarantined"`
}

// IsolateDeviceFromAlert isolates the device named by an alert, then
// quarantines the alert. The device is resolved by its denormalized name;
// alerts do not carry a durable device key.
func (s *Store) IsolateDeviceFromAlert(ctx context.Context, tenantID, deviceName, alertID, userID string) (IsolationOutcome, error) {
	var out IsolationOutcome
	if tenantID == "" {
		return out, ErrMissingTenant
	}
	if userID == "" {
		return out, ErrMissingUser
	}

	var device Device
	err := s.db.WithContext(ctx).
		Where("tenant_id = ? AND name = ?", tenantID, deviceName).
		First(&device).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return out, ErrNotFound
		}
		return out, err
	}
	out.DeviceID = device.ID

	err = s.db.WithContext(ctx).Model(&Device{}).
		Where("tenant_id = ? AND id = ?", tenantID, device.ID).
		Updates(isolationFields(time.Now().UTC())).Error
	if err != nil {
		return out, err
	}
	out.DeviceIsolated = true
	s.audit(ctx, &out.CommitResult, tenantID, userID, "DEVICE_ISOLATED", device.ID, map[string]any{"fromAlert": alertID})
	s.notify(tenantID, CollectionDevices, device.ID, OpUpdate)

	alertRes, err := s.UpdateAlertStatus(ctx, tenantID, alertID, AlertQuarantined, userID)
	out.AuditPending = append(out.AuditPending, alertRes.AuditPending...)
	if err != nil {
		return out, err
	}
	out.AlertQuarantined = true
	return out, nil
}

// AttachExplanation overwrites the alert's AI explanation and stamps the
// generation time. Calling again replaces the previous text; explanations are
// not versioned.
func (s *Store) AttachExplanation(ctx context.Context, tenantID, alertID, explanation string) error {
	if tenantID == "" {
		return ErrMissingTenant
	}

	tx := s.db.WithContext(ctx).Model(&Alert{}).
		Where("tenant_id = ? AND id = ?", tenantID, alertID).
		Updates(map[string]any{
			"ai_explanation":           explanation,
			"explanation_generated_at": time.Now().UTC(),
		})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return ErrNotFound
	}
	s.notify(tenantID, CollectionAlerts, alertID, OpUpdate)
	return nil
}

// EnrollDeviceInput is the operator-supplied portion of a new device record.
type EnrollDeviceInput struct {
	Name      string     `json:"deviceName"`
	IPAddress string     `json:"ipAddress"`
	OS        string     `json:"os"`
	Policy    PolicyName `json:"policy"`
}

// EnrollDevice registers a new device under the tenant with the standard
// starting state: Online, not isolated, Low risk.
func (s *Store) EnrollDevice(ctx context.Context, tenantID string, in EnrollDeviceInput, userID string) (*Device, CommitResult, error) {
	var res CommitResult
	if tenantID == "" {
		return nil, res, ErrMissingTenant
	}
	if userID == "" {
		return nil, res, ErrMissingUser
	}
	if !in.Policy.Valid() {
		return nil, res, ErrInvalidPolicy
	}

	now := time.Now().UTC()
	device := Device{
		ID:        xid.New().String(),
		TenantID:  tenantID,
		Name:      in.Name,
		IPAddress: in.IPAddress,
		OS:        in.OS,
		Status:    DeviceOnline,
		Policy:    in.Policy,
		RiskLevel: RiskLow,
		Isolated:  false,
		LastSeen:  now,
		CreatedAt: now,
	}
	if err := s.db.WithContext(ctx).Create(&device).Error; err != nil {
		return nil, res, err
	}

	s.audit(ctx, &res, tenantID, userID, "DEVICE_ENROLLED", device.ID, map[string]any{"deviceName": in.Name})
	s.notify(tenantID, CollectionDevices, device.ID, OpCreate)
	return &device, res, nil
}
