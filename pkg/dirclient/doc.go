// Package dirclient provides the entry point for constructing a directory API
// client that implements the dirapi.Client interface.
//
// New validates the configuration, resolves the API secret once, and wires
// the rate limiter, the retrying executor, and the paginator underneath the
// resource clients.
//
// Quick start
//
//	import (
//	  "context"
//	  "log"
//
//	  "github.com/fivetwenty-io/dirapi/pkg/dirapi"
//	  "github.com/fivetwenty-io/dirapi/pkg/dirclient"
//	)
//
//	func example() {
//	  ctx := context.Background()
//
//	  // The secret is read from DIRAPI_API_TOKEN.
//	  cli, err := dirclient.New(ctx, &dirapi.Config{BaseURL: "https://example.okta.com/api"})
//	  if err != nil { log.Fatal(err) }
//
//	  users, err := cli.Users().List(ctx, &dirapi.UserListOptions{Search: `status eq "ACTIVE"`})
//	  if err != nil { log.Fatal(err) }
//	  _ = users
//	}
//
// # Configuration files
//
// NewFromFile loads a YAML or JSON file through the same loader the CLI uses,
// so DIRAPI_* environment variables override file values.
package dirclient
