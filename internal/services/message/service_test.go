package message_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llmnode/internal/crypto"
	"llmnode/internal/domain"
	"llmnode/internal/protocol/channel"
	"llmnode/internal/services/message"
	"llmnode/internal/store"
)

var sessionKey = domain.SessionKey{0x10, 0x20, 0x30, 0x40}

func newService(t *testing.T) (*message.Service, *store.MemorySessionStore) {
	t.Helper()
	st := store.NewMemorySessionStore(0)
	require.NoError(t, st.Insert(domain.Session{
		ID:        "s",
		Key:       sessionKey,
		State:     domain.StateEstablished,
		CreatedAt: time.Now(),
	}))
	return message.New(st), st
}

func TestOpen_InOrder(t *testing.T) {
	svc, st := newService(t)

	for i := uint64(0); i < 3; i++ {
		msg, err := channel.Seal(sessionKey, channel.Message, i, []byte("prompt"))
		require.NoError(t, err)
		pt, err := svc.Open("s", msg)
		require.NoError(t, err)
		assert.Equal(t, "prompt", string(pt))
	}

	sess, _ := st.Get("s")
	assert.Equal(t, uint64(3), sess.Inbound)
	assert.Equal(t, domain.StateActive, sess.State)
}

func TestOpen_ReplayRejectedAndCounterUnchanged(t *testing.T) {
	svc, st := newService(t)

	first, err := channel.Seal(sessionKey, channel.Message, 0, []byte("one"))
	require.NoError(t, err)
	_, err = svc.Open("s", first)
	require.NoError(t, err)

	_, err = svc.Open("s", first)
	assert.ErrorIs(t, err, crypto.ErrAuthenticationFailed)

	sess, _ := st.Get("s")
	assert.Equal(t, uint64(1), sess.Inbound)

	next, err := channel.Seal(sessionKey, channel.Message, 1, []byte("two"))
	require.NoError(t, err)
	pt, err := svc.Open("s", next)
	require.NoError(t, err)
	assert.Equal(t, "two", string(pt))
}

func TestOpen_UnknownSession(t *testing.T) {
	svc, _ := newService(t)
	_, err := svc.Open("nope", domain.EncryptedMessage{})
	assert.ErrorIs(t, err, message.ErrNoSession)
}

func TestSealChunkAndResponse_Counters(t *testing.T) {
	svc, st := newService(t)

	for want := uint64(0); want < 3; want++ {
		msg, idx, err := svc.SealChunk("s", []byte("tok"))
		require.NoError(t, err)
		assert.Equal(t, want, idx)
		pt, err := channel.Open(sessionKey, channel.Chunk, idx, msg)
		require.NoError(t, err)
		assert.Equal(t, "tok", string(pt))
	}

	resp, err := svc.SealResponse("s", []byte("stop"))
	require.NoError(t, err)
	pt, err := channel.Open(sessionKey, channel.Response, 0, resp)
	require.NoError(t, err)
	assert.Equal(t, "stop", string(pt))

	sess, _ := st.Get("s")
	assert.Equal(t, uint64(3), sess.Chunks)
	assert.Equal(t, uint64(1), sess.Outbound)
}

func TestSeal_AfterCloseFails(t *testing.T) {
	svc, st := newService(t)
	require.True(t, st.Remove("s"))

	_, _, err := svc.SealChunk("s", []byte("x"))
	assert.ErrorIs(t, err, message.ErrNoSession)
	_, err = svc.SealResponse("s", []byte("x"))
	assert.ErrorIs(t, err, message.ErrNoSession)
}
