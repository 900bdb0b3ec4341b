package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/dirapi/pkg/dirapi"
)

// NewUsersCommand creates the users command group.
func NewUsersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "users",
		Aliases: []string{"user", "u"},
		Short:   "Manage directory users",
		Long:    "List, inspect, create, activate, and deactivate directory users",
	}

	cmd.AddCommand(newUsersListCommand())
	cmd.AddCommand(newUsersGetCommand())
	cmd.AddCommand(newUsersCreateCommand())
	cmd.AddCommand(newUsersLifecycleCommand("activate", "Activate a user"))
	cmd.AddCommand(newUsersLifecycleCommand("deactivate", "Deactivate a user"))

	return cmd
}

func newUsersListCommand() *cobra.Command {
	opts := &dirapi.UserListOptions{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		Long:  "List users across every page, optionally filtered",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient(cmd)
			if err != nil {
				return err
			}

			users, err := client.Users().List(cmd.Context(), opts)
			if err != nil {
				return fmt.Errorf("failed to list users: %w", err)
			}

			return render(cmd, users, func(out io.Writer) error {
				if len(users) == 0 {
					_, _ = io.WriteString(out, "No users found\n")

					return nil
				}

				return renderUsersTable(out, users)
			})
		},
	}

	cmd.Flags().StringVar(&opts.Search, "search", "", `search expression, e.g. 'status eq "ACTIVE"'`)
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter expression")
	cmd.Flags().StringVarP(&opts.Q, "query", "q", "", "match the start of login, name, or email")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "page size requested from the service")
	cmd.Flags().IntVar(&opts.MaxPages, "max-pages", 0, "maximum pages to fetch (0 uses the configured cap)")

	return cmd
}

func newUsersGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get USER_ID_OR_LOGIN",
		Short: "Get user details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient(cmd)
			if err != nil {
				return err
			}

			user, err := client.Users().Get(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to get user: %w", err)
			}

			return render(cmd, user, func(out io.Writer) error {
				return renderTable(out, []string{"Property", "Value"}, [][]string{
					{"ID", user.ID},
					{"Status", user.Status},
					{"Login", user.Profile.Login},
					{"Email", user.Profile.Email},
					{"Name", valueOrNA(displayName(user.Profile))},
					{"Department", valueOrNA(user.Profile.Department)},
					{"Created", formatTime(user.Created)},
					{"Activated", formatTime(user.Activated)},
					{"Last Login", formatTime(user.LastLogin)},
					{"Last Updated", formatTime(user.LastUpdated)},
				})
			})
		},
	}
}

func newUsersCreateCommand() *cobra.Command {
	var (
		request  dirapi.UserCreateRequest
		activate bool
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if request.Profile.Login == "" || request.Profile.Email == "" {
				return ErrMissingUserFlag
			}

			client, err := CreateClient(cmd)
			if err != nil {
				return err
			}

			user, err := client.Users().Create(cmd.Context(), &request, activate)
			if err != nil {
				return fmt.Errorf("failed to create user: %w", err)
			}

			return render(cmd, user, func(out io.Writer) error {
				_, _ = fmt.Fprintf(out, "Created user %s (%s), status %s\n", user.Profile.Login, user.ID, user.Status)

				return nil
			})
		},
	}

	cmd.Flags().StringVar(&request.Profile.Login, "login", "", "login (required)")
	cmd.Flags().StringVar(&request.Profile.Email, "email", "", "email (required)")
	cmd.Flags().StringVar(&request.Profile.FirstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&request.Profile.LastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&request.Profile.Department, "department", "", "department")
	cmd.Flags().StringSliceVar(&request.GroupIDs, "group", nil, "group IDs to join (repeatable)")
	cmd.Flags().BoolVar(&activate, "activate", false, "activate the user immediately")

	return cmd
}

func newUsersLifecycleCommand(action, short string) *cobra.Command {
	return &cobra.Command{
		Use:   action + " USER_ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient(cmd)
			if err != nil {
				return err
			}

			users := client.Users()

			run := users.Activate
			if action == "deactivate" {
				run = users.Deactivate
			}

			err = run(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to %s user: %w", action, err)
			}

			printMessage(cmd, "User %s: %s requested", args[0], action)

			return nil
		},
	}
}

func renderUsersTable(out io.Writer, users []dirapi.User) error {
	rows := make([][]string, 0, len(users))
	for _, user := range users {
		rows = append(rows, []string{
			user.ID,
			user.Profile.Login,
			valueOrNA(displayName(user.Profile)),
			user.Status,
			formatTime(user.LastLogin),
		})
	}

	return renderTable(out, []string{"ID", "Login", "Name", "Status", "Last Login"}, rows)
}

func displayName(profile dirapi.UserProfile) string {
	if profile.DisplayName != "" {
		return profile.DisplayName
	}

	switch {
	case profile.FirstName != "" && profile.LastName != "":
		return profile.FirstName + " " + profile.LastName
	case profile.FirstName != "":
		return profile.FirstName
	default:
		return profile.LastName
	}
}
