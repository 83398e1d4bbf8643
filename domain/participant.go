// Package domain contains core concepts of the direct-messaging system.
// This file defines connected User entities and related invariants.
// No runtime, network, or UI logic should be added here.
package domain

import "time"

// ConnectionID is the opaque, process-unique handle the transport assigns to a socket.
type ConnectionID string

// User is the presence record of a live connection.
// At most one User exists per Username at any time.
type User struct {
	ConnectionID ConnectionID `json:"id"`
	Username     string       `json:"username"`
	ConnectedAt  time.Time    `json:"timestamp"`
}
