package store

import (
	"context"
	"time"

	"gorm.io/gorm"
)

func mustTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		panic(err)
	}
	return t
}

func seedPolicies(tenantID string) []SecurityPolicy {
	return []SecurityPolicy{
		{
			TenantID:          tenantID,
			Name:              PolicyStrict,
			Description:       "Maximum security for critical assets. May impact performance.",
			ScanLevel:         ScanDeep,
			AutoQuarantine:    true,
			OfflineProtection: true,
		},
		{
			TenantID:          tenantID,
			Name:              PolicyBalanced,
			Description:       "Recommended for most devices. Good balance of security and performance.",
			ScanLevel:         ScanFull,
			AutoQuarantine:    true,
			OfflineProtection: true,
		},
		{
			TenantID:          tenantID,
			Name:              PolicyLenient,
			Description:       "Basic protection for low-risk devices. Minimal performance impact.",
			ScanLevel:         ScanQuick,
			AutoQuarantine:    false,
			OfflineProtection: false,
		},
	}
}

func seedDevices(tenantID string) []Device {
	return []Device{
		{ID: "DEV001", TenantID: tenantID, Name: "finance-laptop-01", IPAddress: "192.168.1.10", Status: DeviceOnline, Policy: PolicyStrict, RiskLevel: RiskHigh, OS: "Windows", LastSeen: mustTime("2026-01-18T12:34:56Z")},
		{ID: "DEV002", TenantID: tenantID, Name: "hr-desktop-05", IPAddress: "192.168.1.15", Status: DeviceOnline, Policy: PolicyBalanced, RiskLevel: RiskMedium, OS: "Windows", LastSeen: mustTime("2026-01-18T11:20:00Z")},
		{ID: "DEV003", TenantID: tenantID, Name: "marketing-vm-02", IPAddress: "192.168.2.22", Status: DeviceOffline, Policy: PolicyLenient, RiskLevel: RiskLow, OS: "VM", LastSeen: mustTime("2026-01-16T09:00:00Z")},
		{ID: "DEV004", TenantID: tenantID, Name: "ceo-macbook-pro", IPAddress: "192.168.1.5", Status: DeviceOnline, Policy: PolicyStrict, RiskLevel: RiskMedium, OS: "macOS", LastSeen: mustTime("2026-01-18T12:30:00Z")},
		{ID: "DEV005", TenantID: tenantID, Name: "dev-server-01", IPAddress: "10.0.0.50", Status: DeviceOnline, Policy: PolicyStrict, RiskLevel: RiskHigh, OS: "Linux", LastSeen: mustTime("2026-01-18T12:00:00Z")},
		{ID: "DEV006", TenantID: tenantID, Name: "sales-tablet-08", IPAddress: "192.168.3.12", Status: DeviceOffline, Policy: PolicyLenient, RiskLevel: RiskLow, OS: "Tablet", LastSeen: mustTime("2026-01-13T14:00:00Z")},
		{ID: "DEV007", TenantID: tenantID, Name: "support-pc-11", IPAddress: "192.168.1.30", Status: DeviceOnline, Policy: PolicyBalanced, RiskLevel: RiskLow, OS: "Windows", LastSeen: mustTime("2026-01-18T11:45:00Z")},
	}
}

func seedAlerts(tenantID string) []Alert {
	return []Alert{
		{
			ID: "TH001", TenantID: tenantID, Type: "Malware Detected", Severity: RiskHigh,
			Device: "finance-laptop-01", Status: AlertActive, DetectionMethod: "Signature Matching",
			RiskScore: 95, DetailFile: `C:\Users\Finance\Downloads\invoice.exe`, DetailProcess: "invoice.exe",
			RawTelemetry: `{"event":"file_create","path":"C:\\Users\\Finance\\Downloads\\invoice.exe","hash":"a1b2c3d4...","signature":"Win.Trojan.Generic/A"}`,
			Timestamp:    mustTime("2026-01-18T11:34:56Z"),
		},
		{
			ID: "TH002", TenantID: tenantID, Type: "Phishing Attempt", Severity: RiskMedium,
			Device: "hr-desktop-05", Status: AlertResolved, DetectionMethod: "Behavioral Analysis",
			RiskScore: 65, DetailFile: "N/A", DetailProcess: "chrome.exe",
			RawTelemetry: `{"event":"network_outbound","process":"chrome.exe","destination":"phishingsite.com","port":443}`,
			Timestamp:    mustTime("2026-01-17T12:34:56Z"),
		},
		{
			ID: "TH003", TenantID: tenantID, Type: "Unusual Network Traffic", Severity: RiskLow,
			Device: "dev-server-01", Status: AlertActive, DetectionMethod: "Anomaly Detection",
			RiskScore: 40, DetailFile: "N/A", DetailProcess: "sshd",
			RawTelemetry: `{"event":"network_anomaly","bytes_out":50000000,"protocol":"ssh","destination":"123.45.67.89"}`,
			Timestamp:    mustTime("2026-01-16T12:34:56Z"),
		},
		{
			ID: "TH004", TenantID: tenantID, Type: "Ransomware Behavior", Severity: RiskHigh,
			Device: "marketing-vm-02", Status: AlertQuarantined, DetectionMethod: "Behavioral Analysis",
			RiskScore: 98, DetailFile: `D:\Marketing\Assets\project.docx.locked`, DetailProcess: "crypt.exe",
			RawTelemetry: `{"event":"mass_file_rename","pattern":"*.locked","count":582,"process":"crypt.exe"}`,
			Timestamp:    mustTime("2026-01-15T12:34:56Z"),
		},
	}
}

// Seed installs the three policy documents and demo fleet data for a tenant.
// Safe to call repeatedly: existing tenants are left untouched.
func (s *Store) Seed(ctx context.Context, tenantID string) error {
	if tenantID == "" {
		return ErrMissingTenant
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&SecurityPolicy{}).
		Where("tenant_id = ?", tenantID).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	now := time.Now().UTC()
	policies := seedPolicies(tenantID)
	for i := range policies {
		policies[i].UpdatedAt = now
	}
	devices := seedDevices(tenantID)
	for i := range devices {
		devices[i].CreatedAt = now
	}
	alerts := seedAlerts(tenantID)
	for i := range alerts {
		alerts[i].CreatedAt = now
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&policies).Error; err != nil {
			return err
		}
		if err := tx.Create(&devices).Error; err != nil {
			return err
		}
		return tx.Create(&alerts).Error
	})
}
