package store

import "time"

// PolicyName is one of the three fixed tenant policy configurations. There is
// no mechanism for adding a fourth.
type PolicyName string

const (
	PolicyStrict   PolicyName = "Strict"
	PolicyBalanced PolicyName = "Balanced"
	PolicyLenient  PolicyName = "Lenient"
)

// Valid reports whether the name is one of the fixed policy names.
func (p PolicyName) Valid() bool {
	switch p {
	case PolicyStrict, PolicyBalanced, PolicyLenient:
		return true
	}
	return false
}

type DeviceStatus string

const (
	DeviceOnline   DeviceStatus = "Online"
	DeviceOffline  DeviceStatus = "Offline"
	DeviceIsolated DeviceStatus = "Isolated"
)

type AlertStatus string

const (
	AlertActive      AlertStatus = "Active"
	AlertResolved    AlertStatus = "Resolved"
	AlertQuarantined AlertStatus = "Quarantined"
)

type RiskLevel string

const (
	RiskHigh   RiskLevel = "High"
	RiskMedium RiskLevel = "Medium"
	RiskLow    RiskLevel = "Low"
)

type ScanLevel string

const (
	ScanQuick ScanLevel = "quick"
	ScanFull  ScanLevel = "full"
	ScanDeep  ScanLevel = "deep"
)

func (s ScanLevel) Valid() bool {
	switch s {
	case ScanQuick, ScanFull, ScanDeep:
		return true
	}
	return false
}

// Device is an enrolled endpoint, keyed by tenant and id together to mirror
// the per-tenant document paths of the backing collections.
//
// Invariant: Status == Isolated implies Isolated == true and RiskLevel == High.
// The isolate paths set all three together; nothing mutates them independently.
type Device struct {
	TenantID        string `gorm:"primaryKey;index:idx_device_tenant_name,unique"`
	ID              string `gorm:"primaryKey"`
	Name            string `gorm:"index:idx_device_tenant_name,unique"`
	IPAddress       string
	OS              string
	Status          DeviceStatus
	Policy          PolicyName
	RiskLevel       RiskLevel
	Isolated        bool
	LastSeen        time.Time
	IsolatedAt      *time.Time
	PolicyUpdatedAt *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Alert is a detected threat. Device is a denormalized device name, not a
// foreign key; the owning device is looked up by name at use time.
type Alert struct {
	TenantID               string `gorm:"primaryKey"`
	ID                     string `gorm:"primaryKey"`
	Type                   string
	Severity               RiskLevel
	Device                 string
	Status                 AlertStatus
	DetectionMethod        string
	RiskScore              int
	DetailFile             string
	DetailProcess          string
	RawTelemetry           string `gorm:"type:text"`
	AIExplanation          string `gorm:"type:text"`
	ExplanationGeneratedAt *time.Time
	QuarantinedAt          *time.Time
	ResolvedAt             *time.Time
	Timestamp              time.Time
	CreatedAt              time.Time
}

// SecurityPolicy is one settings document per fixed policy name per tenant.
// Policies are seeded at tenant creation and only ever updated.
type SecurityPolicy struct {
	ID                uint       `gorm:"primaryKey"`
	TenantID          string     `gorm:"index:idx_policy_tenant_name,unique"`
	Name              PolicyName `gorm:"index:idx_policy_tenant_name,unique"`
	Description       string
	ScanLevel         ScanLevel
	AutoQuarantine    bool
	OfflineProtection bool
	UpdatedAt         time.Time
	UpdatedBy         string
}

// AuditLogEntry is an append-only record of a state change. Entries are never
// updated or deleted.
type AuditLogEntry struct {
	ID        string `gorm:"primaryKey"`
	TenantID  string `gorm:"index"`
	Action    string `gorm:"index"`
	TargetID  string
	UserID    string
	Metadata  string `gorm:"type:text"`
	CreatedAt time.Time `gorm:"index:,sort:desc"`
}

// EnrollmentToken is a single-use, time-boxed credential for out-of-band
// device registration. Only issuance and listing exist; the redeeming
// counterpart lives with the (out of scope) agent.
type EnrollmentToken struct {
	ID        string `gorm:"primaryKey"`
	TenantID  string `gorm:"index"`
	Token     string `gorm:"uniqueIndex"`
	Used      bool
	ExpiresAt time.Time
	CreatedBy string
	CreatedAt time.Time
}

// UserProfile maps an authenticated user id to its tenant. Authentication
// itself is handled by the external identity provider.
type UserProfile struct {
	UserID      string `gorm:"primaryKey"`
	TenantID    string `gorm:"index"`
	DisplayName string
	Email       string
	CreatedAt   time.Time
}

// AllModels lists every entity for schema migration.
func AllModels() []any {
	return []any{
		&Device{},
		&Alert{},
		&SecurityPolicy{},
		&AuditLogEntry{},
		&EnrollmentToken{},
		&UserProfile{},
	}
}
