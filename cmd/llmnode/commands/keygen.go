package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"llmnode/internal/crypto"
	"llmnode/internal/services/identity"
	"llmnode/internal/store"
)

func keygenCmd() *cobra.Command {
	var (
		fromEnv bool
		force   bool
	)
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Create the encrypted node key file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if cfg.Passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			ks := store.NewNodeKeyStore(cfg.Home)
			if ks.Exists() && !force {
				return fmt.Errorf("%s exists; use --force to replace it", ks.Path())
			}
			ids := identity.New(ks)

			var (
				id  identity.Identity
				err error
			)
			if fromEnv {
				key, perr := crypto.NodeKeyFromEnv()
				if perr != nil {
					return perr
				}
				id, err = ids.Import(cfg.Passphrase, key)
				crypto.WipeNodeKey(&key)
			} else {
				id, err = ids.Generate(cfg.Passphrase)
			}
			if err != nil {
				return err
			}
			fmt.Printf("Node key written to %s\nAddress: %s\nFingerprint: %s\n", ks.Path(), id.Address, id.Fingerprint)
			return nil
		},
	}
	cmd.Flags().BoolVar(&fromEnv, "from-env", false, "import the key from "+crypto.NodeKeyEnv)
	cmd.Flags().BoolVar(&force, "force", false, "replace an existing key file")
	return cmd
}
