// Package commands defines the llmclient CLI, a reference client for llmnode.
//
// Commands
//
//   - init      Create the encrypted wallet key used to sign session inits
//   - address   Print the wallet address
//   - chat      Open a session with a node, send one prompt and stream the reply
package commands
