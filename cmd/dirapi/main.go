package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fivetwenty-io/dirapi/cmd/dirapi/commands"
	"github.com/fivetwenty-io/dirapi/internal/config"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "dirapi",
	Short: "Directory API CLI",
	Long: `A command-line interface for a directory and identity REST API.

Every request is rate limited, retried on throttling and server errors, and
list commands follow pagination links to the end.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.dirapi/config.yaml)")
	rootCmd.PersistentFlags().StringP("output", "o", "", "output format (table, json, yaml; default table on a terminal, json otherwise)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log requests and retries to stderr")

	// Bind flags to viper
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
	_ = viper.BindPFlag("output", rootCmd.PersistentFlags().Lookup("output"))
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))

	// Add commands
	rootCmd.AddCommand(commands.NewVersionCommand(version, commit, date))
	rootCmd.AddCommand(commands.NewConfigCommand())
	rootCmd.AddCommand(commands.NewSecretCommand())
	rootCmd.AddCommand(commands.NewUsersCommand())
	rootCmd.AddCommand(commands.NewGroupsCommand())
	rootCmd.AddCommand(commands.NewAuditCommand())
	rootCmd.AddCommand(commands.NewRequestCommand())
}

func initConfig() {
	cfgFile := viper.GetString("config")

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		path, err := commands.DefaultConfigPath()
		if err == nil {
			// Search config in ~/.dirapi/config.yaml
			viper.AddConfigPath(filepath.Dir(path))
			viper.SetConfigType("yaml")
			viper.SetConfigName("config")
		}
	}

	// Read in environment variables that match
	viper.SetEnvPrefix(config.EnvPrefix)
	viper.AutomaticEnv()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
