// Package channel seals and opens the frames of an established session.
//
// Every frame is XChaCha20-Poly1305 under the session key with a fresh random
// nonce. The associated data names the frame's direction and its index in
// that direction's stream:
//
//	message_{n}   client to node
//	chunk_{n}     node to client, streamed partial output
//	response_{n}  node to client, end of a response
//
// The receiver computes the AAD from its own counter rather than trusting the
// sender's, so a frame captured at index n fails to open at any other index.
// That is the whole replay defence; there is no separate sequence check.
//
// Concurrency: functions here are pure. Counters live with the caller, which
// must serialise Open and Seal per session and direction.
package channel
