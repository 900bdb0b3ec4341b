package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/dirapi/internal/constants"
	"github.com/fivetwenty-io/dirapi/pkg/dirapi"
)

// Static errors for err113 compliance.
var (
	ErrConfigFileExists = errors.New("config file already exists (use --force to overwrite)")
)

// DefaultConfigPath returns ~/.dirapi/config.yaml.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}

	return filepath.Join(home, ".dirapi", "config.yaml"), nil
}

// NewConfigCommand creates the config command group.
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and manage configuration",
		Long:  "Show the effective configuration, validate it, or write a starter file",
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigValidateCommand())
	cmd.AddCommand(newConfigInitCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration",
		Long:  "Show the configuration after defaults and DIRAPI_* overrides, with secrets masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			masked := cfg.Masked()

			return render(cmd, masked, func(out io.Writer) error {
				if used := viper.ConfigFileUsed(); used != "" {
					_, _ = fmt.Fprintf(out, "Config file: %s\n", used)
				}

				return renderTable(out, []string{"Key", "Value"}, configRows(&masked))
			})
		},
	}
}

func newConfigValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration",
		Long:  "Load the configuration and report every invalid field at once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := loadConfig()
			if err != nil {
				return err
			}

			source := viper.ConfigFileUsed()
			if source == "" {
				source = "defaults and environment"
			}

			printMessage(cmd, "Configuration is valid (%s)", source)

			return nil
		},
	}
}

func newConfigInitCommand() *cobra.Command {
	var (
		baseURL string
		force   bool
	)

	cmd := &cobra.Command{
		Use:   "init [PATH]",
		Short: "Write a starter config file",
		Long:  "Write a starter config file, by default to ~/.dirapi/config.yaml. No secret is written.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := DefaultConfigPath()
			if err != nil {
				return err
			}

			if len(args) == 1 {
				path = args[0]
			}

			err = writeStarterConfig(path, baseURL, force)
			if err != nil {
				return err
			}

			printMessage(cmd, "Wrote %s", path)
			printMessage(cmd, "Export %s to authenticate", constants.EnvAPIToken)

			return nil
		},
	}

	cmd.Flags().StringVar(&baseURL, "base-url", "https://example.okta.com/api", "service root")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	return cmd
}

func writeStarterConfig(path, baseURL string, force bool) error {
	if !force {
		_, err := os.Stat(path)
		if err == nil {
			return fmt.Errorf("%w: %s", ErrConfigFileExists, path)
		}
	}

	cfg := dirapi.Config{BaseURL: baseURL}
	cfg.ApplyDefaults()
	cfg.Auth.TokenPrefix = constants.DefaultTokenPrefix
	cfg.Endpoints = nil

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	err = os.MkdirAll(filepath.Dir(path), constants.ConfigDirPerm)
	if err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	err = os.WriteFile(path, data, constants.ConfigFilePerm)
	if err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

func configRows(cfg *dirapi.Config) [][]string {
	storeArgs := strings.Join(cfg.Auth.StoreArgs, " ")

	rows := [][]string{
		{"baseUrl", cfg.BaseURL},
		{"apiVersion", cfg.APIVersion},
		{"userAgent", cfg.UserAgent},
		{"auth.tokenHeader", cfg.Auth.TokenHeader},
		{"auth.tokenPrefix", valueOrNA(cfg.Auth.TokenPrefix)},
		{"auth.tokenEnv", cfg.Auth.TokenEnv},
		{"auth.token", valueOrNA(cfg.Auth.Token)},
		{"auth.secureStorage", cfg.Auth.SecureStorage},
		{"auth.keyVaultName", valueOrNA(cfg.Auth.KeyVaultName)},
		{"auth.secretName", cfg.Auth.SecretName},
		{"auth.storeUrl", valueOrNA(cfg.Auth.StoreURL)},
		{"auth.storeCommand", valueOrNA(strings.TrimSpace(cfg.Auth.StoreCommand + " " + storeArgs))},
		{"auth.storeTimeout", cfg.Auth.StoreTimeout.String()},
		{"auth.retryOn401", strconv.FormatBool(cfg.Auth.RetryOn401)},
		{"maxRetries", strconv.Itoa(cfg.MaxRetries)},
		{"rateLimitPerMinute", strconv.Itoa(cfg.RateLimitPerMinute)},
		{"timeouts.readTimeoutSeconds", strconv.Itoa(cfg.Timeouts.ReadTimeoutSeconds)},
		{"pagination.maxPages", strconv.Itoa(cfg.Pagination.MaxPages)},
		{"logging.enabled", strconv.FormatBool(cfg.Logging.Enabled)},
		{"logging.logLevel", cfg.Logging.LogLevel},
		{"logging.logFile", valueOrNA(cfg.Logging.LogFile)},
	}

	names := make([]string, 0, len(cfg.Endpoints))
	for name := range cfg.Endpoints {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		rows = append(rows, []string{"endpoints." + name, cfg.Endpoints[name]})
	}

	return rows
}
