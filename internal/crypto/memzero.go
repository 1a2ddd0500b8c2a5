package crypto

import (
	"runtime"

	"llmnode/internal/domain"
)

// Wipe zeroes b in place. Best-effort: Go may have copied the bytes elsewhere.
//
//go:noinline
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
	runtime.KeepAlive(&b)
}

// WipeSessionKey zeroes a session key held by value in a struct.
func WipeSessionKey(k *domain.SessionKey) {
	Wipe(k[:])
}

// WipeNodeKey zeroes a node private key.
func WipeNodeKey(k *domain.NodePrivateKey) {
	Wipe(k[:])
}
