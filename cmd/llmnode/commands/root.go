package commands

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"llmnode/internal/app"
)

var (
	home       string
	passphrase string
	listenAddr string
	logLevel   string
	logFormat  string

	cfg app.Config
)

func Execute() error {
	root := &cobra.Command{
		Use:          "llmnode",
		Short:        "Inference node with encrypted client sessions",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.ConfigFromEnv(app.DefaultConfig())
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("home") {
				c.Home = home
			}
			if flags.Changed("passphrase") {
				c.Passphrase = passphrase
			}
			if flags.Changed("listen") {
				c.ListenAddr = listenAddr
			}
			if flags.Changed("log-level") {
				c.LogLevel = logLevel
			}
			if flags.Changed("log-format") {
				c.LogFormat = logFormat
			}
			if c.Home == "" {
				dir, err := os.UserHomeDir()
				if err != nil {
					return err
				}
				c.Home = filepath.Join(dir, ".llmnode")
			}
			if err := c.Validate(); err != nil {
				return err
			}
			cfg = c
			return app.ConfigureLogging(c.LogLevel, c.LogFormat)
		},
	}

	root.PersistentFlags().StringVar(&home, "home", "", "key directory (default ~/.llmnode, env LLMNODE_HOME)")
	root.PersistentFlags().StringVarP(&passphrase, "passphrase", "p", "", "passphrase protecting the node key file")
	root.PersistentFlags().StringVar(&listenAddr, "listen", "", "listen address (default :8080, env LLMNODE_LISTEN)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (default info)")
	root.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text or json")

	root.AddCommand(serveCmd(), keygenCmd(), addressCmd())
	return root.Execute()
}
