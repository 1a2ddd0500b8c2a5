// Package commands defines the llmnode CLI.
//
// Commands
//
//   - serve     Run the node's HTTP and WebSocket endpoints
//   - keygen    Create the encrypted node key file, or import HOST_PRIVATE_KEY into it
//   - address   Print the node's address, public key and fingerprint
//
// # Configuration
//
// The root command builds an app.Config from defaults, then LLMNODE_*
// environment variables and HOST_PRIVATE_KEY, then any flags set on the
// command line, and configures logging before a subcommand runs.
//
// # HTTP API (serve)
//
//	GET /health    {"status":"ok","sessions":N}
//	GET /v1/node   {"publicKeyHex","address","fingerprint"}
//	GET /v1/ws     WebSocket upgrade for encrypted sessions
package commands
