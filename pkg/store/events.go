package store

// ChangeEvent describes one committed mutation, published so that subscribed
// dashboard views can refresh without polling.
type ChangeEvent struct {
	TenantID   string `json:"tenant_id"`
	Collection string `json:"collection"`
	ID         string `json:"id"`
	Op         string `json:"op"`
}

const (
	OpCreate = "create"
	OpUpdate = "update"
)

const (
	CollectionDevices  = "devices"
	CollectionAlerts   = "alerts"
	CollectionPolicies = "policies"
	CollectionTokens   = "enrollmentTokens"
	CollectionAudit    = "auditLogs"
)

// Notifier receives change events after the corresponding write has
// committed. Implementations must not block.
type Notifier interface {
	Notify(ChangeEvent)
}

// NopNotifier discards all events.
type NopNotifier struct{}

func (NopNotifier) Notify(ChangeEvent) {}

func (s *Store) notify(tenantID, collection, id, op string) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ChangeEvent{
		TenantID:   tenantID,
		Collection: collection,
		ID:         id,
		Op:         op,
	})
}
