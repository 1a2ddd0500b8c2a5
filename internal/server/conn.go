package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"llmnode/internal/crypto"
	"llmnode/internal/domain"
	"llmnode/internal/wire"
)

const writeWait = 10 * time.Second

// conn is one client WebSocket. Frames are read and handled on a single
// goroutine; only pings are written from another.
type conn struct {
	srv *Server
	ws  *websocket.Conn
	log *logrus.Entry

	mu    sync.Mutex
	owned map[string]struct{}
}

func newConn(s *Server, ws *websocket.Conn, requestID string) *conn {
	return &conn{
		srv: s,
		ws:  ws,
		log: logrus.WithFields(logrus.Fields{
			"remote":     ws.RemoteAddr().String(),
			"request_id": requestID,
		}),
		owned: make(map[string]struct{}),
	}
}

func (c *conn) serve(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	defer c.teardown()

	c.ws.SetReadLimit(c.srv.opts.ReadLimit)
	if iv := c.srv.opts.PingInterval; iv > 0 {
		c.extendDeadline()
		c.ws.SetPongHandler(func(string) error {
			c.extendDeadline()
			return nil
		})
		go c.pingLoop(ctx, iv)
	}
	c.log.Info("WebSocket connected")

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.WithField("error", err.Error()).Warn("WebSocket read failed")
			}
			return
		}
		c.extendDeadline()
		if err := c.handle(ctx, data); err != nil {
			c.log.WithField("error", err.Error()).Warn("WebSocket write failed")
			return
		}
	}
}

// handle dispatches one frame. It returns an error only when the connection
// can no longer be written to.
func (c *conn) handle(ctx context.Context, data []byte) error {
	in, err := wire.DecodeFrame(data)
	if err != nil {
		return c.send(wire.ErrorFrame(nil, "", err))
	}

	switch in.Type {
	case wire.TypeEncryptedSessionInit:
		return c.handleSessionInit(ctx, in)
	case wire.TypeEncryptedMessage:
		return c.handleMessage(ctx, in)
	case wire.TypeSessionEnd:
		return c.handleSessionEnd(in)
	default:
		return c.send(wire.ErrorFrame(in.ID, in.Session(), &wire.Error{
			Code:    wire.CodeUnknownMessageType,
			Message: "unsupported frame type " + in.Type,
		}))
	}
}

func (c *conn) handleSessionInit(ctx context.Context, in wire.Inbound) error {
	payload, err := wire.DecodeSessionInit(in.Payload)
	if err != nil {
		return c.send(wire.ErrorFrame(in.ID, in.Session(), err))
	}
	sess, err := c.srv.sessions.Establish(ctx, in.Session(), in.Chain(c.srv.opts.DefaultChainID), payload)
	if err != nil {
		return c.send(wire.ErrorFrame(in.ID, in.Session(), err))
	}
	c.mu.Lock()
	c.owned[sess.ID] = struct{}{}
	c.mu.Unlock()
	return c.send(wire.InitAck(in.ID, sess))
}

// handleMessage answers one prompt. A request ends with either stream_end or
// a single error frame, even if chunks were already sent.
func (c *conn) handleMessage(ctx context.Context, in wire.Inbound) error {
	sid := in.Session()
	if !c.owns(sid) {
		return c.send(wire.ErrorFrame(in.ID, sid, domain.ErrSessionNotFound))
	}
	msg, err := wire.DecodeMessage(in.Payload)
	if err != nil {
		return c.send(wire.ErrorFrame(in.ID, sid, err))
	}
	prompt, err := c.srv.messages.Open(sid, msg)
	if err != nil {
		return c.send(wire.ErrorFrame(in.ID, sid, err))
	}
	defer crypto.Wipe(prompt)

	sess, ok := c.srv.store.Get(sid)
	if !ok {
		return c.send(wire.ErrorFrame(in.ID, sid, domain.ErrSessionNotFound))
	}
	crypto.WipeSessionKey(&sess.Key)

	var writeErr error
	emit := func(chunk []byte) error {
		// No frames are read while streaming, so pongs go unprocessed.
		c.extendDeadline()
		sealed, idx, err := c.srv.messages.SealChunk(sid, chunk)
		if err != nil {
			return err
		}
		p := wire.EncodeSealed(sealed)
		p.Index = &idx
		if err := c.send(wire.Outbound{
			Type:      wire.TypeEncryptedChunk,
			ID:        in.ID,
			SessionID: sid,
			Payload:   p,
		}); err != nil {
			writeErr = err
			return err
		}
		return nil
	}

	finish, err := c.srv.responder.Respond(ctx, sess, prompt, emit)
	if writeErr != nil {
		return writeErr
	}
	if err != nil {
		return c.send(wire.ErrorFrame(in.ID, sid, err))
	}

	sealed, err := c.srv.messages.SealResponse(sid, []byte(finish))
	if err != nil {
		return c.send(wire.ErrorFrame(in.ID, sid, err))
	}
	if err := c.send(wire.Outbound{
		Type:      wire.TypeEncryptedResponse,
		ID:        in.ID,
		SessionID: sid,
		Payload:   wire.EncodeSealed(sealed),
		Final:     true,
	}); err != nil {
		return err
	}
	return c.send(wire.Outbound{Type: wire.TypeStreamEnd, ID: in.ID, SessionID: sid})
}

func (c *conn) handleSessionEnd(in wire.Inbound) error {
	sid := in.Session()
	c.mu.Lock()
	_, mine := c.owned[sid]
	delete(c.owned, sid)
	c.mu.Unlock()

	if !mine || !c.srv.sessions.Close(sid) {
		return c.send(wire.ErrorFrame(in.ID, sid, domain.ErrSessionNotFound))
	}
	return c.send(wire.Outbound{Type: wire.TypeSessionEndAck, ID: in.ID, SessionID: sid, Status: "closed"})
}

func (c *conn) owns(sid string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.owned[sid]
	return ok
}

// extendDeadline pushes the read deadline out by two ping intervals. It must
// be called from the reading goroutine.
func (c *conn) extendDeadline() {
	if iv := c.srv.opts.PingInterval; iv > 0 {
		_ = c.ws.SetReadDeadline(time.Now().Add(2 * iv))
	}
}

// close sends a going-away close frame and closes the socket, unblocking the
// reader. Safe to call from any goroutine.
func (c *conn) close() {
	_ = c.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
		time.Now().Add(time.Second))
	_ = c.ws.Close()
}

func (c *conn) send(v wire.Outbound) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	return c.ws.WriteMessage(websocket.TextMessage, b)
}

func (c *conn) pingLoop(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := c.ws.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

// teardown closes every session this connection opened.
func (c *conn) teardown() {
	c.mu.Lock()
	ids := make([]string, 0, len(c.owned))
	for id := range c.owned {
		ids = append(ids, id)
	}
	c.owned = map[string]struct{}{}
	c.mu.Unlock()

	for _, id := range ids {
		c.srv.sessions.Close(id)
	}
	_ = c.ws.Close()
	c.log.WithField("sessions_closed", len(ids)).Info("WebSocket disconnected")
}
