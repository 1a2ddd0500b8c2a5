// Package wire defines the JSON frames exchanged over the node's WebSocket
// and converts between them and domain values.
//
// Binary fields travel as hex strings with an optional "0x" prefix. Inbound
// decoding reports problems as *Error values carrying the protocol error code
// the client sees; CodeFor maps any other error (crypto kinds, session store
// sentinels) onto the same code space.
package wire
