package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"llmnode/internal/app"
	"llmnode/internal/crypto"
	"llmnode/internal/services/identity"
)

func addressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "address",
		Short: "Print node address, public key and fingerprint",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := app.ResolveNodeKey(cfg)
			if err != nil {
				return err
			}
			defer crypto.WipeNodeKey(&key)
			id, err := identity.Describe(key)
			if err != nil {
				return err
			}
			fmt.Printf("Address: %s\nPublic key: %x\nFingerprint: %s\n", id.Address, id.PublicKey[:], id.Fingerprint)
			return nil
		},
	}
}
