// Package app wires the node's dependencies and runs it.
//
// Config is built from defaults, then LLMNODE_* and HOST_PRIVATE_KEY
// environment variables, then command-line flags. NewWire builds the session
// store, services and HTTP server around a resolved node key, and Wire.Run
// serves until its context ends, sweeping expired sessions in the background.
package app
