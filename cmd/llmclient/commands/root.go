package commands

import (
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"llmnode/internal/services/identity"
	"llmnode/internal/store"
)

var (
	home       string
	passphrase string
	nodeURL    string
	verbose    bool

	wallet *identity.Service
	keys   *store.KeyFileStore
)

func Execute() error {
	root := &cobra.Command{
		Use:          "llmclient",
		Short:        "Encrypted chat client for llmnode",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if home == "" {
				dir, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				home = filepath.Join(dir, ".llmclient")
			}
			if err := os.MkdirAll(home, 0o700); err != nil {
				return err
			}
			if verbose {
				logrus.SetLevel(logrus.DebugLevel)
			} else {
				logrus.SetLevel(logrus.WarnLevel)
			}
			keys = store.NewWalletStore(home)
			wallet = identity.New(keys)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&home, "home", "", "config dir (default ~/.llmclient)")
	root.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase protecting the wallet key")
	root.PersistentFlags().StringVar(&nodeURL, "node", "http://127.0.0.1:8080", "node base URL")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(initCmd(), addressCmd(), chatCmd())
	return root.Execute()
}
