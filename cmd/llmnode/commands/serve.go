package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"llmnode/internal/app"
	"llmnode/internal/crypto"
	"llmnode/internal/domain"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Accept encrypted sessions over WebSocket",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := app.ResolveNodeKey(cfg)
			if errors.Is(err, domain.ErrNodeKeyMissing) {
				return fmt.Errorf("no node key: set %s or run keygen", crypto.NodeKeyEnv)
			}
			if err != nil {
				return err
			}
			w, err := app.NewWire(cfg, key, nil)
			crypto.WipeNodeKey(&key)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return w.ListenAndRun(ctx)
		},
	}
}
