// Package session establishes and tears down encrypted sessions on the node.
//
// Establish opens a client's session-init payload with the node key, records
// the resulting session in the SessionStore and reports who the client is.
// Concurrent establishment is bounded; callers beyond the bound wait until a
// slot frees or their context ends. A background sweeper removes sessions
// whose TTL has passed.
package session
