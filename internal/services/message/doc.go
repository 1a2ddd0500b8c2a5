// Package message opens client frames and seals node frames for established
// sessions.
//
// Each operation runs under the session's lock in the SessionStore, reads the
// direction's counter, derives the frame's AAD from it and advances the
// counter only when the cryptographic operation succeeds. A replayed or
// reordered client frame therefore fails authentication, and a failed attempt
// leaves the session exactly as it was.
package message
