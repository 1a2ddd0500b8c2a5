package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func addressCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "address",
		Short: "Print the wallet address",
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := keys.Address()
			if err != nil {
				return err
			}
			fmt.Println(addr)
			return nil
		},
	}
}
