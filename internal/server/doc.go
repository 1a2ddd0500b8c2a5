// Package server exposes the node over HTTP and WebSocket.
//
// Routes
//
//	GET /health    liveness and the number of live sessions
//	GET /v1/node   the node's compressed public key, address and fingerprint
//	GET /v1/ws     WebSocket upgrade carrying the encrypted session protocol
//
// A WebSocket connection may open several sessions. Frames are handled in
// order per connection; protocol errors are reported as error frames and never
// close the connection. Each encrypted_message is answered by encrypted_chunk
// frames, then encrypted_response and stream_end, or by one error frame.
// Messages are accepted only for sessions the same connection opened. When a
// connection ends, every session it opened is closed and its key wiped.
// Server.Shutdown ends all connections with a going-away close frame.
package server
