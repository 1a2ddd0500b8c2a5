// Package client is the client side of the node protocol.
//
// HTTP fetches the node's public description. Conn speaks the WebSocket
// protocol: it seals a session-init payload for the node, then sends prompts
// as encrypted messages and opens the streamed chunks and final response,
// checking each frame's index against its own counters.
//
// Non-2xx HTTP statuses are returned as errors with the method, URL and
// status. Error frames from the node are returned as *RemoteError.
package client
