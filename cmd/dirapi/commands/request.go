package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/dirapi/internal/constants"
	"github.com/fivetwenty-io/dirapi/pkg/dirapi"
)

// Static errors for err113 compliance.
var (
	ErrInvalidRequestBody = errors.New("--data must be valid JSON")
	ErrInvalidHeader      = errors.New("header must be Name:value")
)

type requestFlags struct {
	query    []string
	headers  []string
	data     string
	paginate bool
	maxPages int
}

// NewRequestCommand creates the raw request command.
func NewRequestCommand() *cobra.Command {
	flags := &requestFlags{}

	cmd := &cobra.Command{
		Use:   "request METHOD PATH",
		Short: "Send a request to any endpoint",
		Long: `Send a request through the rate-limited, retrying client.

PATH is relative to the versioned base URL, for example /apps, or an absolute
URL on the service host. --data takes inline JSON, @file, or - for stdin.`,
		Example: `  dirapi request GET /apps --paginate --max-pages 3
  dirapi request GET /users --query search='profile.department eq "Finance"'
  dirapi request POST /groups --data '{"profile":{"name":"Auditors"}}'`,
		Args: cobra.ExactArgs(2), //nolint:mnd
		RunE: func(cmd *cobra.Command, args []string) error {
			request, err := buildRawRequest(cmd, args[0], args[1], flags)
			if err != nil {
				return err
			}

			client, err := CreateClient(cmd)
			if err != nil {
				return err
			}

			if flags.paginate {
				collection, err := client.Raw().Collect(cmd.Context(), request)
				if err != nil {
					return fmt.Errorf("request failed: %w", err)
				}

				if collection.Truncated {
					_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Stopped after %d page(s); more results are available\n", collection.Pages)
				}

				items := collection.Items
				if items == nil {
					items = []json.RawMessage{}
				}

				return renderRaw(cmd, items)
			}

			resp, err := client.Raw().Do(cmd.Context(), request)
			if err != nil {
				return fmt.Errorf("request failed: %w", err)
			}

			if len(strings.TrimSpace(string(resp.Body))) == 0 {
				printMessage(cmd, "%d %s", resp.StatusCode, strings.TrimSpace(resp.Header.Get("Content-Type")))

				return nil
			}

			return renderRaw(cmd, json.RawMessage(resp.Body))
		},
	}

	cmd.Flags().StringArrayVar(&flags.query, "query", nil, "query parameter as key=value (repeatable)")
	cmd.Flags().StringArrayVarP(&flags.headers, "header", "H", nil, "extra header as Name:value (repeatable)")
	cmd.Flags().StringVarP(&flags.data, "data", "d", "", "JSON body, @file, or - for stdin")
	cmd.Flags().BoolVar(&flags.paginate, "paginate", false, "follow next links and concatenate the items")
	cmd.Flags().IntVar(&flags.maxPages, "max-pages", 0, "maximum pages to fetch with --paginate (0 uses the configured cap)")

	return cmd
}

func buildRawRequest(cmd *cobra.Command, method, target string, flags *requestFlags) (*dirapi.Request, error) {
	request := &dirapi.Request{
		Method:   strings.ToUpper(method),
		Paginate: flags.paginate,
		MaxPages: flags.maxPages,
	}

	if strings.HasPrefix(target, "http://") || strings.HasPrefix(target, "https://") {
		request.URL = target
	} else {
		request.Path = target
	}

	query, err := parseQueryPairs(flags.query)
	if err != nil {
		return nil, err
	}

	request.Query = query

	for _, header := range flags.headers {
		name, value, ok := strings.Cut(header, ":")
		if !ok || strings.TrimSpace(name) == "" {
			return nil, fmt.Errorf("%w: got %q", ErrInvalidHeader, header)
		}

		if request.Headers == nil {
			request.Headers = map[string]string{}
		}

		request.Headers[strings.TrimSpace(name)] = strings.TrimSpace(value)
	}

	body, err := readRequestBody(cmd.InOrStdin(), flags.data)
	if err != nil {
		return nil, err
	}

	if body != nil {
		request.Body = body
	}

	return request, nil
}

// parseQueryPairs turns key=value pairs into query values. Repeated keys
// accumulate.
func parseQueryPairs(pairs []string) (url.Values, error) {
	if len(pairs) == 0 {
		return nil, nil
	}

	values := url.Values{}

	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: got %q", constants.ErrInvalidQueryParam, pair)
		}

		values.Add(key, value)
	}

	return values, nil
}

func readRequestBody(stdin io.Reader, data string) (json.RawMessage, error) {
	var (
		raw []byte
		err error
	)

	switch {
	case data == "":
		return nil, nil
	case data == "-":
		raw, err = io.ReadAll(stdin)
	case strings.HasPrefix(data, "@"):
		raw, err = os.ReadFile(strings.TrimPrefix(data, "@"))
	default:
		raw = []byte(data)
	}

	if err != nil {
		return nil, fmt.Errorf("reading request body: %w", err)
	}

	if !json.Valid(raw) {
		return nil, ErrInvalidRequestBody
	}

	return json.RawMessage(raw), nil
}

func renderRaw(cmd *cobra.Command, value interface{}) error {
	out := cmd.OutOrStdout()

	format, err := outputFormat(out)
	if err != nil {
		return err
	}

	if format != constants.FormatYAML {
		return writeJSON(out, value)
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}

	var decoded interface{}

	err = json.Unmarshal(data, &decoded)
	if err != nil {
		return fmt.Errorf("failed to decode JSON: %w", err)
	}

	return writeYAML(out, decoded)
}
