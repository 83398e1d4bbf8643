package runtime

import (
	"dm-relay/domain"
	"dm-relay/errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRegistry_Register(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	// Given no user is connected
	req.Zero(registry.Len())

	// When alice registers
	user, err := registry.Register("c1", "alice")

	// Then she can be found from both sides
	req.NoError(err)
	req.Equal(domain.ConnectionID("c1"), user.ConnectionID)
	req.Equal("alice", user.Username)
	req.False(user.ConnectedAt.IsZero())

	byName, ok := registry.LookupByUsername("alice")
	req.True(ok)
	req.Equal(user, byName)

	byConnection, ok := registry.LookupByConnection("c1")
	req.True(ok)
	req.Equal(user, byConnection)
	req.Equal(1, registry.Len())
}

func TestRegistry_Register_Rejects(t *testing.T) {
	testCases := []struct {
		name     string
		username string
		expected error
	}{
		{name: "empty username", username: "", expected: errors.ErrEmptyUsername},
		{name: "whitespace username", username: "   ", expected: errors.ErrEmptyUsername},
		{name: "username in use", username: "alice", expected: errors.ErrDuplicateUsername},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := require.New(t)
			registry := NewRegistry()
			original, err := registry.Register("c1", "alice")
			req.NoError(err)

			_, err = registry.Register("c2", tc.username)

			req.ErrorIs(err, tc.expected)
			req.Equal(1, registry.Len())
			current, ok := registry.LookupByUsername("alice")
			req.True(ok)
			req.Equal(original, current)
			_, ok = registry.LookupByConnection("c2")
			req.False(ok)
		})
	}
}

func TestRegistry_Register_IsCaseSensitive(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	_, err := registry.Register("c1", "alice")
	req.NoError(err)
	_, err = registry.Register("c2", "Alice")
	req.NoError(err)

	req.Equal(2, registry.Len())
}

func TestRegistry_Remove(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()
	_, err := registry.Register("c1", "alice")
	req.NoError(err)

	// When alice's connection is removed
	user, ok := registry.Remove("c1")

	// Then the username is free again
	req.True(ok)
	req.Equal("alice", user.Username)
	_, ok = registry.LookupByUsername("alice")
	req.False(ok)
	_, err = registry.Register("c2", "alice")
	req.NoError(err)

	// And removing an unknown connection is a no-op
	_, ok = registry.Remove("unknown")
	req.False(ok)
	req.Equal(1, registry.Len())
}

func TestRegistry_ListOthers_KeepsRegistrationOrder(t *testing.T) {
	req := require.New(t)
	registry := NewRegistry()

	// Given no other user
	req.NotNil(registry.ListOthers("alice"))
	req.Empty(registry.ListOthers("alice"))

	for _, user := range []domain.User{
		{ConnectionID: "c1", Username: "carol"},
		{ConnectionID: "c2", Username: "alice"},
		{ConnectionID: "c3", Username: "bob"},
		{ConnectionID: "c4", Username: "dave"},
	} {
		_, err := registry.Register(user.ConnectionID, user.Username)
		req.NoError(err)
	}
	_, ok := registry.Remove("c4")
	req.True(ok)

	// When alice lists the others
	others := registry.ListOthers("alice")

	// Then she gets everyone but herself, in registration order
	req.Len(others, 2)
	req.Equal("carol", others[0].Username)
	req.Equal("bob", others[1].Username)
}
