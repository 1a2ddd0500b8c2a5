package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Generate a wallet key and store it encrypted",
		RunE: func(cmd *cobra.Command, args []string) error {
			if passphrase == "" {
				return fmt.Errorf("passphrase required (-p)")
			}
			if keys.Exists() {
				return fmt.Errorf("wallet already exists at %s", keys.Path())
			}
			id, err := wallet.Generate(passphrase)
			if err != nil {
				return err
			}
			fmt.Printf("Wallet created.\nAddress: %s\n", id.Address)
			return nil
		},
	}
}
