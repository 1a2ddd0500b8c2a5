package client_test

import (
	"context"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"llmnode/internal/client"
	"llmnode/internal/crypto"
	"llmnode/internal/domain"
	"llmnode/internal/protocol/channel"
	"llmnode/internal/protocol/sessioninit"
	"llmnode/internal/server"
	"llmnode/internal/services/identity"
	"llmnode/internal/services/message"
	"llmnode/internal/services/session"
	"llmnode/internal/store"
	"llmnode/internal/wire"
)

func startNode(t *testing.T) (*httptest.Server, *store.MemorySessionStore) {
	t.Helper()
	key, err := crypto.GenerateNodeKey()
	require.NoError(t, err)
	id, err := identity.Describe(key)
	require.NoError(t, err)

	st := store.NewMemorySessionStore(time.Hour)
	sessions := session.New(st, key, 2)
	t.Cleanup(sessions.Shutdown)
	srv := server.New(sessions, message.New(st), st, server.EchoResponder{}, domain.NodeInfo{
		PublicKeyHex: hex.EncodeToString(id.PublicKey[:]),
		Address:      id.Address,
		Fingerprint:  id.Fingerprint,
	}, server.Options{DefaultChainID: 8453})
	hs := httptest.NewServer(srv.Handler())
	t.Cleanup(hs.Close)
	return hs, st
}

func TestChatAgainstNode(t *testing.T) {
	hs, st := startNode(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	info, err := client.NewHTTP(hs.URL, nil).NodeInfo(ctx)
	require.NoError(t, err)
	nodePub, err := hex.DecodeString(info.PublicKeyHex)
	require.NoError(t, err)

	wallet, err := ethcrypto.GenerateKey()
	require.NoError(t, err)

	c, err := client.Dial(ctx, hs.URL)
	require.NoError(t, err)
	defer c.Close()

	s, err := c.Init(ctx, nodePub, wallet, client.InitRequest{JobID: "42", ModelName: "m", PricePerToken: 5})
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, "42", s.JobID)
	assert.Equal(t, domain.Address(strings.ToLower(ethcrypto.PubkeyToAddress(wallet.PublicKey).Hex())), s.ClientAddress)

	for _, prompt := range []string{"the quick brown fox", "jumps"} {
		var got strings.Builder
		finish, err := c.Prompt(ctx, s, []byte(prompt), func(b []byte) { got.Write(b) })
		require.NoError(t, err)
		assert.Equal(t, "stop", finish)
		assert.Equal(t, prompt, got.String())
	}

	_, n, err := client.NewHTTP(hs.URL, nil).Health(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, c.End(ctx, s))
	assert.Equal(t, 0, st.Count())
}

func TestInitWithWrongNodeKey(t *testing.T) {
	hs, _ := startNode(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	other, err := crypto.GenerateNodeKey()
	require.NoError(t, err)
	otherPub, err := crypto.PublicKeyOf(other)
	require.NoError(t, err)
	wallet, err := ethcrypto.GenerateKey()
	require.NoError(t, err)

	c, err := client.Dial(ctx, hs.URL)
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Init(ctx, otherPub[:], wallet, client.InitRequest{JobID: "1", ModelName: "m"})
	require.Error(t, err)
	assert.True(t, client.IsRemote(err, wire.CodeDecryptionFailed), err.Error())
}

func TestHTTPErrorStatus(t *testing.T) {
	hs := httptest.NewServer(http.NotFoundHandler())
	defer hs.Close()
	_, err := client.NewHTTP(hs.URL, nil).NodeInfo(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

// rejectingNode answers the first encrypted_message with an
// INVALID_NONCE_SIZE error without opening it, then serves later messages
// only if they are sealed under index 0.
func rejectingNode(t *testing.T, key domain.NodePrivateKey) *httptest.Server {
	t.Helper()
	up := websocket.Upgrader{}
	hs := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()

		var (
			sk       domain.SessionKey
			messages int
		)
		for {
			var in wire.Inbound
			if err := ws.ReadJSON(&in); err != nil {
				return
			}
			switch in.Type {
			case wire.TypeEncryptedSessionInit:
				p, err := wire.DecodeSessionInit(in.Payload)
				if err != nil {
					return
				}
				data, err := sessioninit.Decrypt(p, key[:])
				if err != nil {
					return
				}
				sk = data.SessionKey
				_ = ws.WriteJSON(wire.Outbound{Type: wire.TypeSessionInitAck, ID: in.ID, SessionID: in.Session(), Status: "success"})
			case wire.TypeEncryptedMessage:
				messages++
				if messages == 1 {
					_ = ws.WriteJSON(wire.ErrorFrame(in.ID, in.Session(), &wire.Error{Code: wire.CodeInvalidNonceSize, Message: "nonce must be 24 bytes"}))
					continue
				}
				msg, err := wire.DecodeMessage(in.Payload)
				if err != nil {
					return
				}
				if _, err := channel.Open(sk, channel.Message, 0, msg); err != nil {
					_ = ws.WriteJSON(wire.ErrorFrame(in.ID, in.Session(), err))
					continue
				}
				resp, err := channel.Seal(sk, channel.Response, 0, []byte("stop"))
				if err != nil {
					return
				}
				_ = ws.WriteJSON(wire.Outbound{Type: wire.TypeEncryptedResponse, ID: in.ID, SessionID: in.Session(), Payload: wire.EncodeSealed(resp)})
				_ = ws.WriteJSON(wire.Outbound{Type: wire.TypeStreamEnd, ID: in.ID, SessionID: in.Session()})
			}
		}
	}))
	t.Cleanup(hs.Close)
	return hs
}

func TestPromptReusesIndexAfterRejection(t *testing.T) {
	key, err := crypto.GenerateNodeKey()
	require.NoError(t, err)
	pub, err := crypto.PublicKeyOf(key)
	require.NoError(t, err)
	hs := rejectingNode(t, key)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	wallet, err := ethcrypto.GenerateKey()
	require.NoError(t, err)

	c, err := client.Dial(ctx, hs.URL)
	require.NoError(t, err)
	defer c.Close()

	s, err := c.Init(ctx, pub[:], wallet, client.InitRequest{JobID: "1", ModelName: "m"})
	require.NoError(t, err)

	_, err = c.Prompt(ctx, s, []byte("rejected"), nil)
	require.Error(t, err)
	assert.True(t, client.IsRemote(err, wire.CodeInvalidNonceSize), err.Error())

	finish, err := c.Prompt(ctx, s, []byte("accepted"), nil)
	require.NoError(t, err)
	assert.Equal(t, "stop", finish)
}
