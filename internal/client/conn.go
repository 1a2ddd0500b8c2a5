package client

import (
	"context"
	"crypto/ecdsa"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"llmnode/internal/crypto"
	"llmnode/internal/domain"
	"llmnode/internal/protocol/channel"
	"llmnode/internal/protocol/sessioninit"
	"llmnode/internal/wire"
)

// RemoteError is an error frame returned by the node.
type RemoteError struct {
	Code    wire.Code
	Message string
}

func (e *RemoteError) Error() string { return fmt.Sprintf("node error %s: %s", e.Code, e.Message) }

// Session is the client's view of an established session.
type Session struct {
	ID            string
	JobID         string
	ClientAddress domain.Address

	key      domain.SessionKey
	sent     uint64
	chunks   uint64
	received uint64
}

// Conn is a WebSocket connection to a node. It is not safe for concurrent
// use; one request is in flight at a time.
type Conn struct {
	ws       *websocket.Conn
	mu       sync.Mutex
	sessions map[string]*Session
}

// Dial opens the node's WebSocket endpoint. base is the node's HTTP base URL.
func Dial(ctx context.Context, base string) (*Conn, error) {
	u := strings.TrimRight(base, "/") + "/v1/ws"
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	ws, resp, err := websocket.DefaultDialer.DialContext(ctx, u, http.Header{})
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %s: %w", u, resp.Status, err)
		}
		return nil, fmt.Errorf("dial %s: %w", u, err)
	}
	return &Conn{ws: ws, sessions: make(map[string]*Session)}, nil
}

// Close ends the connection. The node closes every session it opened.
func (c *Conn) Close() error {
	c.mu.Lock()
	for _, s := range c.sessions {
		crypto.WipeSessionKey(&s.key)
	}
	c.sessions = map[string]*Session{}
	c.mu.Unlock()
	return c.ws.Close()
}

// InitRequest describes the session to open.
type InitRequest struct {
	SessionID     string
	ChainID       uint64
	JobID         string
	ModelName     string
	PricePerToken uint64
}

// Init opens a session with the node whose compressed public key is
// nodePublic, authenticating as wallet. A fresh random session key is chosen.
func (c *Conn) Init(ctx context.Context, nodePublic []byte, wallet *ecdsa.PrivateKey, r InitRequest) (*Session, error) {
	var sk domain.SessionKey
	if _, err := rand.Read(sk[:]); err != nil {
		return nil, fmt.Errorf("session key: %w", err)
	}

	payload, err := sessioninit.Seal(nodePublic, wallet, sessioninit.Request{
		JobID:         r.JobID,
		ModelName:     r.ModelName,
		SessionKey:    sk,
		PricePerToken: r.PricePerToken,
	}, []byte(sessioninit.AAD))
	if err != nil {
		crypto.WipeSessionKey(&sk)
		return nil, err
	}
	if r.SessionID == "" {
		r.SessionID = uuid.NewString()
	}
	reqID := newRequestID()
	if err := c.write(ctx, map[string]any{
		"type":       wire.TypeEncryptedSessionInit,
		"id":         reqID,
		"session_id": r.SessionID,
		"chain_id":   r.ChainID,
		"payload":    wire.EncodeSessionInit(payload),
	}); err != nil {
		crypto.WipeSessionKey(&sk)
		return nil, err
	}

	reply, err := c.read(ctx)
	if err != nil {
		crypto.WipeSessionKey(&sk)
		return nil, err
	}
	if reply.Type != wire.TypeSessionInitAck {
		crypto.WipeSessionKey(&sk)
		return nil, unexpected(reply)
	}

	s := &Session{
		ID:            reply.SessionID,
		JobID:         reply.JobID,
		ClientAddress: reply.ClientAddress,
		key:           sk,
	}
	c.mu.Lock()
	c.sessions[s.ID] = s
	c.mu.Unlock()
	return s, nil
}

// Prompt sends prompt on session s and streams the decrypted reply to
// onChunk. It returns the finish reason from the final response.
//
// The node advances its inbound counter only once it has opened the message.
// An error frame that arrives before any output and is not INTERNAL_ERROR is
// a rejection of the frame itself, so the message index is reused next time.
func (c *Conn) Prompt(ctx context.Context, s *Session, prompt []byte, onChunk func([]byte)) (string, error) {
	msg, err := channel.Seal(s.key, channel.Message, s.sent, prompt)
	if err != nil {
		return "", err
	}
	reqID := newRequestID()
	if err := c.write(ctx, map[string]any{
		"type":       wire.TypeEncryptedMessage,
		"id":         reqID,
		"session_id": s.ID,
		"payload":    wire.EncodeSealed(msg),
	}); err != nil {
		return "", err
	}
	s.sent++

	var (
		finish   string
		accepted bool
	)
	for {
		reply, err := c.read(ctx)
		if err != nil {
			return "", err
		}
		switch reply.Type {
		case wire.TypeEncryptedChunk:
			accepted = true
			pt, err := c.openReply(s, channel.Chunk, s.chunks, reply)
			if err != nil {
				return "", err
			}
			s.chunks++
			if onChunk != nil {
				onChunk(pt)
			}
		case wire.TypeEncryptedResponse:
			accepted = true
			pt, err := c.openReply(s, channel.Response, s.received, reply)
			if err != nil {
				return "", err
			}
			s.received++
			finish = string(pt)
		case wire.TypeStreamEnd:
			return finish, nil
		case wire.TypeError:
			if !accepted && reply.Code != wire.CodeInternal {
				s.sent--
			}
			return "", unexpected(reply)
		default:
			return "", unexpected(reply)
		}
	}
}

// End asks the node to close session s.
func (c *Conn) End(ctx context.Context, s *Session) error {
	if err := c.write(ctx, map[string]any{
		"type":       wire.TypeSessionEnd,
		"id":         newRequestID(),
		"session_id": s.ID,
	}); err != nil {
		return err
	}
	reply, err := c.read(ctx)
	if err != nil {
		return err
	}
	c.mu.Lock()
	delete(c.sessions, s.ID)
	c.mu.Unlock()
	crypto.WipeSessionKey(&s.key)
	if reply.Type != wire.TypeSessionEndAck {
		return unexpected(reply)
	}
	return nil
}

func (c *Conn) openReply(s *Session, d channel.Direction, n uint64, reply wire.Reply) ([]byte, error) {
	var p wire.SealedPayload
	if err := json.Unmarshal(reply.Payload, &p); err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", reply.Type, err)
	}
	if p.Index != nil && *p.Index != n {
		return nil, fmt.Errorf("%s index %d, expected %d", reply.Type, *p.Index, n)
	}
	msg, err := wire.DecodeSealed(p)
	if err != nil {
		return nil, err
	}
	return channel.Open(s.key, d, n, msg)
}

func (c *Conn) write(ctx context.Context, v any) error {
	if dl, ok := ctx.Deadline(); ok {
		_ = c.ws.SetWriteDeadline(dl)
	} else {
		_ = c.ws.SetWriteDeadline(time.Time{})
	}
	return c.ws.WriteJSON(v)
}

func (c *Conn) read(ctx context.Context) (wire.Reply, error) {
	if dl, ok := ctx.Deadline(); ok {
		_ = c.ws.SetReadDeadline(dl)
	} else {
		_ = c.ws.SetReadDeadline(time.Time{})
	}
	var r wire.Reply
	if err := c.ws.ReadJSON(&r); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return wire.Reply{}, ctxErr
		}
		return wire.Reply{}, err
	}
	return r, nil
}

func unexpected(r wire.Reply) error {
	if r.Type == wire.TypeError {
		return &RemoteError{Code: r.Code, Message: r.Message}
	}
	return fmt.Errorf("unexpected frame %q", r.Type)
}

func newRequestID() string { return uuid.NewString() }

// IsRemote reports whether err is an error frame with the given code.
func IsRemote(err error, code wire.Code) bool {
	var re *RemoteError
	return errors.As(err, &re) && re.Code == code
}
