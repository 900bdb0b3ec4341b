// Package dirapi provides types, interfaces, and helpers for working with a
// directory-style REST API (principals, groups, and audit events).
//
// # Overview
//
// The dirapi package defines the configuration, the request and response
// values exchanged with the client core, the error taxonomy, the directory
// resource models, and the resource client interfaces. A concrete client is
// built by the dirclient package, which validates configuration, resolves the
// API secret, and wires the rate limiter, the retrying executor, and the
// paginator. Most consumers import dirclient to construct a client and then
// use the interfaces declared here.
//
// Getting a client
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
//	  cli, err := dirclient.New(ctx, &dirapi.Config{BaseURL: "https://example.okta.com/api"})
//	  if err != nil { log.Fatal(err) }
//
//	  users, err := cli.Users().List(ctx, &dirapi.UserListOptions{Search: `status eq "ACTIVE"`})
//	  if err != nil { log.Fatal(err) }
//	  _ = users
//	}
//
// # Pagination
//
// List calls follow the Link response header (rel="next") until the service
// stops returning one. A page cap (Request.MaxPages or the client default)
// returns a truncated Collection instead of an error.
//
// # Errors
//
// Failed calls surface as *RequestError carrying the HTTP status, the number
// of physical attempts, and the last classified cause. Use errors.Is with
// ErrAuthHTTP, ErrTransientHTTP, ErrFatalHTTP, or ErrCanceled, or the
// IsAuthFailure, IsTransient, IsFatal, IsCanceled, and IsNotFound helpers.
// Construction failures are ErrConfig and ErrAuthResolution.
package dirapi
