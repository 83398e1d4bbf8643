package runtime

import (
	"dm-relay/domain"
	"dm-relay/errors"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"
)

// Registry is the presence directory of connected users.
// The coordinator is its only writer; the mutex only guards reads coming from the stats endpoint.
type Registry struct {
	mu           sync.RWMutex
	order        []domain.ConnectionID               // registration order
	byConnection map[domain.ConnectionID]domain.User // map connection -> user
	byUsername   map[string]domain.ConnectionID      // map username -> connection
	now          func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		byConnection: make(map[domain.ConnectionID]domain.User),
		byUsername:   make(map[string]domain.ConnectionID),
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// Register binds username to connID.
// A blank username fails with ErrEmptyUsername, a username held by a live connection
// fails with ErrDuplicateUsername. Matching is exact and case-sensitive.
func (r *Registry) Register(connID domain.ConnectionID, username string) (domain.User, error) {
	if strings.TrimSpace(username) == "" {
		return domain.User{}, errors.ErrEmptyUsername
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byUsername[username]; taken {
		return domain.User{}, errors.ErrDuplicateUsername
	}

	user := domain.User{
		ConnectionID: connID,
		Username:     username,
		ConnectedAt:  r.now(),
	}
	r.byConnection[connID] = user
	r.byUsername[username] = connID
	r.order = append(r.order, connID)
	return user, nil
}

func (r *Registry) LookupByUsername(username string) (domain.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	connID, ok := r.byUsername[username]
	if !ok {
		return domain.User{}, false
	}
	return r.byConnection[connID], true
}

func (r *Registry) LookupByConnection(connID domain.ConnectionID) (domain.User, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.byConnection[connID]
	return user, ok
}

// Remove drops the user bound to connID, if any, and returns it.
func (r *Registry) Remove(connID domain.ConnectionID) (domain.User, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.byConnection[connID]
	if !ok {
		return domain.User{}, false
	}
	delete(r.byConnection, connID)
	delete(r.byUsername, user.Username)
	r.order = lo.Without(r.order, connID)
	return user, true
}

// ListOthers returns a snapshot of connected users in registration order, without excluding.
// The result is never nil so it serializes as an empty list.
func (r *Registry) ListOthers(excluding string) []domain.User {
	r.mu.RLock()
	defer r.mu.RUnlock()

	others := make([]domain.User, 0, len(r.order))
	for _, connID := range r.order {
		user := r.byConnection[connID]
		if user.Username == excluding {
			continue
		}
		others = append(others, user)
	}
	return others
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byConnection)
}
