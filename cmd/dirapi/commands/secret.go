package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/dirapi/internal/auth"
	"github.com/fivetwenty-io/dirapi/internal/logging"
)

// SecretCheck reports where the API secret was found.
type SecretCheck struct {
	Source string `json:"source" yaml:"source"`
	Detail string `json:"detail" yaml:"detail"`
	Secret string `json:"secret" yaml:"secret"`
}

// NewSecretCommand creates the secret command group.
func NewSecretCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Inspect API secret resolution",
	}

	cmd.AddCommand(newSecretCheckCommand())

	return cmd
}

func newSecretCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Show which source supplies the API secret",
		Long: `Resolve the API secret the way the client does, without calling the API.

The environment is consulted first, then the configured secret store, then
auth.token in the config file. The secret itself is masked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			logger, err := logging.New(cfg.Logging)
			if err != nil {
				return fmt.Errorf("creating logger: %w", err)
			}

			defer func() { _ = logger.Sync() }()

			resolution, err := auth.NewResolver(cfg.Auth, auth.WithLogger(logger)).Resolve(cmd.Context())
			if err != nil {
				return err
			}

			check := SecretCheck{
				Source: resolution.Source,
				Detail: resolution.Detail,
				Secret: auth.Mask(resolution.Secret),
			}

			return render(cmd, check, func(out io.Writer) error {
				return renderTable(out, []string{"Property", "Value"}, [][]string{
					{"Source", check.Source},
					{"Detail", check.Detail},
					{"Secret", check.Secret},
				})
			})
		},
	}
}
