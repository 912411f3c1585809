package cli

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile    string
	appVersion string // set in Execute, reported by serve, mcp and openapi
)

// Execute creates the root command tree and runs it.
func Execute(version, commit, date string) error {
	appVersion = version
	rootCmd := newRootCmd(version, commit, date)
	return rootCmd.Execute()
}

func newRootCmd(version, commit, date string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "staffportal",
		Short: "Staff moderation portal for bans, playtime and the audit log",
		Long: `staffportal: the staff moderation portal.

It talks to the moderation backend with your staff session to manage bans,
track staff playtime and read the audit log, from the terminal, from the
bundled web dashboard, or through an MCP server for AI agents.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./staffportal.yaml)")
	cmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "data directory for the saved session (default: ~/.staffportal)")
	cmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print results as JSON")
	cmd.PersistentFlags().BoolVar(&devMode, "dev", false, "verbose logging")

	cobra.OnInitialize(initConfig)

	cmd.AddCommand(newVersionCmd(version, commit, date))
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newLoginCmd())
	cmd.AddCommand(newLogoutCmd())
	cmd.AddCommand(newWhoamiCmd())
	cmd.AddCommand(newBansCmd())
	cmd.AddCommand(newPlaytimeCmd())
	cmd.AddCommand(newAuditCmd())
	cmd.AddCommand(newExpiryCmd())
	cmd.AddCommand(newBrowseCmd())
	cmd.AddCommand(newServeCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newStopCmd())
	cmd.AddCommand(newMCPCmd())
	cmd.AddCommand(newOpenAPICmd())

	return cmd
}

func initConfig() {
	// A .env next to the binary is optional.
	_ = godotenv.Load()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("staffportal")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.staffportal")
	}

	viper.SetEnvPrefix("STAFFPORTAL")
	viper.AutomaticEnv()
	viper.ReadInConfig() // Ignore error - config file is optional
}
