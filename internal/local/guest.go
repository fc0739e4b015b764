package local

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/glowlog/internal/common"
	"github.com/dmitrijs2005/glowlog/internal/models"
)

const (
	guestIDKey           = "guest_user_id"
	everAuthenticatedKey = "has_ever_authenticated"
	sessionTokenKey      = "session_token"
)

// GuestManager owns the device's guest identity and the small persisted auth
// flags. A device is in one of three states: no identity, guest identity, or
// authenticated; the manager covers the first two and caches the access
// token for the third.
type GuestManager struct {
	kv KV
}

func NewGuestManager(kv KV) *GuestManager {
	return &GuestManager{kv: kv}
}

// EnsureGuestID returns the persisted guest identity, minting and persisting
// a fresh one if the device has none.
func (m *GuestManager) EnsureGuestID(ctx context.Context) (string, error) {
	stored, err := m.kv.Get(ctx, guestIDKey)
	if err == nil {
		return string(stored), nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return "", fmt.Errorf("%w: %v", common.ErrStorageRead, err)
	}

	suffix, err := common.MakeRandHexString(12)
	if err != nil {
		return "", err
	}
	guestID := models.GuestIDPrefix + suffix

	if err := m.kv.Set(ctx, guestIDKey, []byte(guestID)); err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrStorageWrite, err)
	}
	return guestID, nil
}

// ClearGuestID forgets the guest identity, typically after its records have
// been migrated into an account.
func (m *GuestManager) ClearGuestID(ctx context.Context) error {
	return m.kv.Delete(ctx, guestIDKey)
}

// MarkEverAuthenticated records that this device has completed a sign-in at
// least once. The flag survives sign-out.
func (m *GuestManager) MarkEverAuthenticated(ctx context.Context) error {
	return m.kv.Set(ctx, everAuthenticatedKey, []byte("true"))
}

func (m *GuestManager) HasEverAuthenticated(ctx context.Context) bool {
	v, err := m.kv.Get(ctx, everAuthenticatedKey)
	return err == nil && string(v) == "true"
}

// SaveSessionToken caches the hosted backend's access token so the session
// survives app restarts.
func (m *GuestManager) SaveSessionToken(ctx context.Context, token string) error {
	return m.kv.Set(ctx, sessionTokenKey, []byte(token))
}

// SessionToken returns the cached access token, or "" when none is stored.
func (m *GuestManager) SessionToken(ctx context.Context) string {
	v, err := m.kv.Get(ctx, sessionTokenKey)
	if err != nil {
		return ""
	}
	return string(v)
}

func (m *GuestManager) ClearSessionToken(ctx context.Context) error {
	return m.kv.Delete(ctx, sessionTokenKey)
}
