package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/dirapi/internal/config"
	"github.com/fivetwenty-io/dirapi/internal/constants"
	"github.com/fivetwenty-io/dirapi/pkg/dirapi"
	"github.com/fivetwenty-io/dirapi/pkg/dirclient"
)

// Common static errors used throughout the commands package.
var (
	ErrInvalidTimeFlag = errors.New("time must be RFC3339 or a duration such as 24h")
	ErrMissingUserFlag = errors.New("--login and --email are required")
)

const defaultJSONIndent = 2

// loadConfig loads configuration through the global viper instance the root
// command prepared. --verbose turns on debug logging.
func loadConfig() (*dirapi.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}

	if viper.GetBool("verbose") {
		cfg.Logging.Enabled = true
		cfg.Logging.LogLevel = constants.LogLevelDebug
	}

	return cfg, nil
}

// CreateClient builds a directory client from the loaded configuration.
func CreateClient(cmd *cobra.Command) (dirapi.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	client, err := dirclient.New(cmd.Context(), cfg)
	if err != nil {
		return nil, fmt.Errorf("creating client: %w", err)
	}

	return client, nil
}

// outputFormat returns the requested format. When none is set it is table
// on a terminal and json otherwise.
func outputFormat(out io.Writer) (string, error) {
	format := strings.ToLower(strings.TrimSpace(viper.GetString("output")))

	switch format {
	case constants.FormatTable, constants.FormatJSON, constants.FormatYAML:
		return format, nil
	case "":
		if isTerminal(out) {
			return constants.FormatTable, nil
		}

		return constants.FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: got %q", constants.ErrInvalidOutputFormat, format)
	}
}

func isTerminal(out io.Writer) bool {
	file, ok := out.(*os.File)
	if !ok {
		return false
	}

	return term.IsTerminal(int(file.Fd()))
}

// render writes value as json or yaml, or calls table for table output.
func render(cmd *cobra.Command, value interface{}, table func(io.Writer) error) error {
	out := cmd.OutOrStdout()

	format, err := outputFormat(out)
	if err != nil {
		return err
	}

	switch format {
	case constants.FormatJSON:
		return writeJSON(out, value)
	case constants.FormatYAML:
		return writeYAML(out, value)
	default:
		return table(out)
	}
}

func writeJSON(out io.Writer, value interface{}) error {
	encoder := json.NewEncoder(out)
	encoder.SetIndent("", strings.Repeat(" ", defaultJSONIndent))

	err := encoder.Encode(value)
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	return nil
}

func writeYAML(out io.Writer, value interface{}) error {
	encoder := yaml.NewEncoder(out)
	encoder.SetIndent(defaultJSONIndent)

	err := encoder.Encode(value)
	if err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return encoder.Close()
}

func renderTable(out io.Writer, header []string, rows [][]string) error {
	table := tablewriter.NewWriter(out)
	table.Header(toAny(header)...)

	for _, row := range rows {
		_ = table.Append(toAny(row)...)
	}

	err := table.Render()
	if err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}

	return nil
}

func toAny(values []string) []any {
	out := make([]any, len(values))
	for i, value := range values {
		out[i] = value
	}

	return out
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return constants.NotAvailable
	}

	return t.Local().Format(constants.TimestampFormat)
}

func valueOrNA(value string) string {
	if value == "" {
		return constants.NotAvailable
	}

	return value
}

// parseTimeFlag accepts an RFC3339 timestamp or a duration meaning that long
// before now.
func parseTimeFlag(value string, now time.Time) (*time.Time, error) {
	if value == "" {
		return nil, nil //nolint:nilnil
	}

	parsed, err := time.Parse(time.RFC3339, value)
	if err == nil {
		return &parsed, nil
	}

	ago, err := time.ParseDuration(value)
	if err != nil || ago < 0 {
		return nil, fmt.Errorf("%w: got %q", ErrInvalidTimeFlag, value)
	}

	since := now.Add(-ago)

	return &since, nil
}

func printMessage(cmd *cobra.Command, format string, args ...interface{}) {
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), format+"\n", args...)
}
