package app

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"llmnode/internal/crypto"
	"llmnode/internal/domain"
	"llmnode/internal/server"
	"llmnode/internal/services/identity"
	messagesvc "llmnode/internal/services/message"
	sessionsvc "llmnode/internal/services/session"
	"llmnode/internal/store"
)

const shutdownGrace = 10 * time.Second

// Wire bundles the store, services and server of a running node.
type Wire struct {
	Config   Config
	Store    *store.MemorySessionStore
	Sessions *sessionsvc.Service
	Messages *messagesvc.Service
	Server   *server.Server
	Info     domain.NodeInfo
}

// ResolveNodeKey returns the node key from HOST_PRIVATE_KEY if set, otherwise
// from the encrypted key file under cfg.Home. Without either the node cannot
// accept encrypted sessions and domain.ErrNodeKeyMissing is returned.
func ResolveNodeKey(cfg Config) (domain.NodePrivateKey, error) {
	if cfg.PrivateKeyHex != "" {
		k, err := crypto.ParseNodePrivateKeyHex(cfg.PrivateKeyHex)
		if err != nil {
			return domain.NodePrivateKey{}, fmt.Errorf("%s: %w", crypto.NodeKeyEnv, err)
		}
		return k, nil
	}
	if cfg.Home != "" {
		ks := store.NewNodeKeyStore(cfg.Home)
		if ks.Exists() {
			return identity.New(ks).Load(cfg.Passphrase)
		}
	}
	return domain.NodePrivateKey{}, domain.ErrNodeKeyMissing
}

// NewWire constructs the dependency graph from cfg around nodeKey. The key is
// copied into the session service and wiped there on Close.
func NewWire(cfg Config, nodeKey domain.NodePrivateKey, responder domain.Responder) (*Wire, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	id, err := identity.Describe(nodeKey)
	if err != nil {
		return nil, err
	}
	if responder == nil {
		responder = server.EchoResponder{}
	}

	sessionStore := store.NewMemorySessionStore(cfg.SessionTTL)
	sessions := sessionsvc.New(sessionStore, nodeKey, cfg.MaxConcurrentInits)
	messages := messagesvc.New(sessionStore)
	info := domain.NodeInfo{
		PublicKeyHex: hex.EncodeToString(id.PublicKey[:]),
		Address:      id.Address,
		Fingerprint:  id.Fingerprint,
	}
	srv := server.New(sessions, messages, sessionStore, responder, info, server.Options{
		ReadLimit:      cfg.ReadLimit,
		PingInterval:   cfg.PingInterval,
		DefaultChainID: cfg.DefaultChainID,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	return &Wire{
		Config:   cfg,
		Store:    sessionStore,
		Sessions: sessions,
		Messages: messages,
		Server:   srv,
		Info:     info,
	}, nil
}

// Run serves on ln until ctx ends. It then stops the HTTP server, closes every
// WebSocket connection and waits for them before wiping every session key and
// the node key.
func (w *Wire) Run(ctx context.Context, ln net.Listener) error {
	hs := &http.Server{
		Handler:           w.Server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logrus.WithFields(logrus.Fields{
			"function":    "Run",
			"addr":        ln.Addr().String(),
			"address":     w.Info.Address,
			"fingerprint": w.Info.Fingerprint,
		}).Info("Node listening")
		if err := hs.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return w.Sessions.RunSweeper(gctx, w.Config.SweepInterval)
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		// Hijacked WebSocket connections are invisible to hs.Shutdown.
		err := hs.Shutdown(sctx)
		if werr := w.Server.Shutdown(sctx); err == nil {
			err = werr
		}
		return err
	})

	err := g.Wait()
	w.Close()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close drops all sessions and wipes the node key.
func (w *Wire) Close() {
	w.Sessions.Shutdown()
}

// ListenAndRun listens on cfg.ListenAddr and calls Run.
func (w *Wire) ListenAndRun(ctx context.Context) error {
	ln, err := net.Listen("tcp", w.Config.ListenAddr)
	if err != nil {
		return err
	}
	return w.Run(ctx, ln)
}
