// Package domain defines the core data models and contracts shared across the
// node: encrypted session payloads, decoded session-init data, live session
// records and the store/service interfaces that operate on them.
//
// It contains plain types and interfaces only. Cryptographic operations live
// in internal/crypto and internal/protocol.
package domain
