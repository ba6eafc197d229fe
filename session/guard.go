// Package session tracks the single signed-in user of the clinic desk.
package session

import (
	"context"
	"sync"

	"clinic-management/models"
)

// CredentialStore is where the two role credentials live.
type CredentialStore interface {
	Users() models.Users
	UpdateUserPassword(ctx context.Context, role models.Role, password string) (bool, error)
}

type Identity struct {
	Username string      `json:"username"`
	Role     models.Role `json:"role"`
}

// Guard is either logged out or holds exactly one identity. There is no
// expiry; a new login replaces the previous identity.
type Guard struct {
	mu      sync.RWMutex
	creds   CredentialStore
	current *Identity
}

func NewGuard(creds CredentialStore) *Guard {
	return &Guard{creds: creds}
}

// Login compares username and password with the pair stored for role. A
// mismatch leaves the guard unchanged.
func (g *Guard) Login(username, password string, role models.Role) bool {
	stored, ok := g.creds.Users().For(role)
	if !ok || stored.Username != username || stored.Password != password {
		return false
	}

	g.mu.Lock()
	g.current = &Identity{Username: username, Role: role}
	g.mu.Unlock()
	return true
}

func (g *Guard) Logout() {
	g.mu.Lock()
	g.current = nil
	g.mu.Unlock()
}

func (g *Guard) Current() (Identity, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.current == nil {
		return Identity{}, false
	}
	return *g.current, true
}

func (g *Guard) IsLoggedIn() bool {
	_, ok := g.Current()
	return ok
}

func (g *Guard) HasRole(role models.Role) bool {
	id, ok := g.Current()
	return ok && id.Role == role
}

func (g *Guard) IsDoctor() bool    { return g.HasRole(models.RoleDoctor) }
func (g *Guard) IsSecretary() bool { return g.HasRole(models.RoleSecretary) }

func (g *Guard) ChangePassword(ctx context.Context, role models.Role, password string) (bool, error) {
	return g.creds.UpdateUserPassword(ctx, role, password)
}
