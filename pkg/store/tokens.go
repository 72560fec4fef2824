package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/xid"
)

// TokenTTL is the absolute lifetime of an enrollment token.
const TokenTTL = 15 * time.Minute

// IssueEnrollmentToken creates a single-use enrollment token for out-of-band
// device registration, valid for TokenTTL from issuance. The redeeming side
// of the protocol belongs to the device agent and is not part of this
// service; tokens expire unused unless consumed externally.
func (s *Store) IssueEnrollmentToken(ctx context.Context, tenantID, userID string) (*EnrollmentToken, error) {
	if tenantID == "" {
		return nil, ErrMissingTenant
	}
	if userID == "" {
		return nil, ErrMissingUser
	}

	now := time.Now().UTC()
	token := EnrollmentToken{
		ID:        xid.New().String(),
		TenantID:  tenantID,
		Token:     uuid.NewString(),
		Used:      false,
		ExpiresAt: now.Add(TokenTTL),
		CreatedBy: userID,
		CreatedAt: now,
	}
	if err := s.db.WithContext(ctx).Create(&token).Error; err != nil {
		return nil, err
	}
	s.notify(tenantID, CollectionTokens, token.ID, OpCreate)
	return &token, nil
}

// ListEnrollmentTokens returns the tenant's tokens, newest first.
func (s *Store) ListEnrollmentTokens(ctx context.Context, tenantID string) ([]EnrollmentToken, error) {
	if tenantID == "" {
		return nil, ErrMissingTenant
	}
	var tokens []EnrollmentToken
	err := s.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at desc").
		Find(&tokens).Error
	return tokens, err
}
