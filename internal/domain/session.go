package domain

import "time"

// SessionState is the lifecycle position of a session.
type SessionState int

const (
	StateUninitialized SessionState = iota
	StateAwaitingInit
	StateEstablished
	StateActive
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateAwaitingInit:
		return "awaiting_init"
	case StateEstablished:
		return "established"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session is a live encrypted session held by the node.
//
// Inbound counts client messages accepted, Outbound counts final responses
// sealed and Chunks counts streamed chunks sealed. Each is the index the next
// frame in that direction must carry in its AAD.
type Session struct {
	ID            string
	JobID         string
	ModelName     string
	PricePerToken uint64
	ClientAddress Address
	ChainID       uint64
	Key           SessionKey
	State         SessionState
	CreatedAt     time.Time
	LastSeen      time.Time
	Inbound       uint64
	Outbound      uint64
	Chunks        uint64
}
