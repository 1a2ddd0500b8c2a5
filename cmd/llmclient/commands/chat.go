package commands

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"llmnode/internal/client"
	"llmnode/internal/crypto"
)

// chat <prompt>: open a session, send one encrypted prompt and print the
// decrypted stream as it arrives.
func chatCmd() *cobra.Command {
	var (
		req     client.InitRequest
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "chat <prompt>",
		Short: "Send an encrypted prompt to a node",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			raw, err := wallet.Load(passphrase)
			if err != nil {
				return err
			}
			priv, err := crypto.ParsePrivateKey(raw[:])
			crypto.WipeNodeKey(&raw)
			if err != nil {
				return err
			}

			info, err := client.NewHTTP(nodeURL, nil).NodeInfo(ctx)
			if err != nil {
				return fmt.Errorf("fetching node info: %w", err)
			}
			nodePub, err := hex.DecodeString(strings.TrimPrefix(info.PublicKeyHex, "0x"))
			if err != nil {
				return fmt.Errorf("node public key: %w", err)
			}

			conn, err := client.Dial(ctx, nodeURL)
			if err != nil {
				return err
			}
			defer conn.Close()

			sess, err := conn.Init(ctx, nodePub, priv, req)
			if err != nil {
				return fmt.Errorf("opening session with %s: %w", info.Address, err)
			}
			fmt.Fprintf(os.Stderr, "session %s with node %s (%s)\n", sess.ID, info.Address, info.Fingerprint)

			finish, err := conn.Prompt(ctx, sess, []byte(strings.Join(args, " ")), func(b []byte) {
				_, _ = os.Stdout.Write(b)
			})
			if err != nil {
				return err
			}
			fmt.Printf("\n[%s]\n", finish)
			return conn.End(ctx, sess)
		},
	}
	cmd.Flags().StringVar(&req.JobID, "job", "0", "job id the session is billed to")
	cmd.Flags().StringVar(&req.ModelName, "model", "default", "model name")
	cmd.Flags().Uint64Var(&req.PricePerToken, "price", 0, "agreed price per token")
	cmd.Flags().Uint64Var(&req.ChainID, "chain", 84532, "chain id")
	cmd.Flags().StringVar(&req.SessionID, "session", "", "session id (default random)")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Minute, "overall timeout")
	return cmd
}
