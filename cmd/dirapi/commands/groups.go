package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/fivetwenty-io/dirapi/pkg/dirapi"
)

// NewGroupsCommand creates the groups command group.
func NewGroupsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "groups",
		Aliases: []string{"group", "g"},
		Short:   "Manage directory groups",
		Long:    "List groups and manage group membership",
	}

	cmd.AddCommand(newGroupsListCommand())
	cmd.AddCommand(newGroupsMembersCommand())
	cmd.AddCommand(newGroupsMembershipCommand("add-member", "Add a user to a group"))
	cmd.AddCommand(newGroupsMembershipCommand("remove-member", "Remove a user from a group"))

	return cmd
}

func newGroupsListCommand() *cobra.Command {
	var query string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List groups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient(cmd)
			if err != nil {
				return err
			}

			groups, err := client.Groups().List(cmd.Context(), query)
			if err != nil {
				return fmt.Errorf("failed to list groups: %w", err)
			}

			return render(cmd, groups, func(out io.Writer) error {
				if len(groups) == 0 {
					_, _ = io.WriteString(out, "No groups found\n")

					return nil
				}

				return renderGroupsTable(out, groups)
			})
		},
	}

	cmd.Flags().StringVarP(&query, "query", "q", "", "match the start of the group name")

	return cmd
}

func newGroupsMembersCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "members GROUP_ID",
		Short: "List the users in a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient(cmd)
			if err != nil {
				return err
			}

			members, err := client.Groups().ListMembers(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to list group members: %w", err)
			}

			return render(cmd, members, func(out io.Writer) error {
				if len(members) == 0 {
					_, _ = fmt.Fprintf(out, "Group %s has no members\n", args[0])

					return nil
				}

				return renderUsersTable(out, members)
			})
		},
	}
}

func newGroupsMembershipCommand(use, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " GROUP_ID USER_ID",
		Short: short,
		Args:  cobra.ExactArgs(2), //nolint:mnd
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := CreateClient(cmd)
			if err != nil {
				return err
			}

			groupID, userID := args[0], args[1]

			if use == "remove-member" {
				err = client.Groups().RemoveMember(cmd.Context(), groupID, userID)
				if err != nil {
					return fmt.Errorf("failed to remove member: %w", err)
				}

				printMessage(cmd, "Removed user %s from group %s", userID, groupID)

				return nil
			}

			err = client.Groups().AddMember(cmd.Context(), groupID, userID)
			if err != nil {
				return fmt.Errorf("failed to add member: %w", err)
			}

			printMessage(cmd, "Added user %s to group %s", userID, groupID)

			return nil
		},
	}
}

func renderGroupsTable(out io.Writer, groups []dirapi.Group) error {
	rows := make([][]string, 0, len(groups))
	for _, group := range groups {
		rows = append(rows, []string{
			group.ID,
			group.Profile.Name,
			group.Type,
			valueOrNA(group.Profile.Description),
			formatTime(group.LastMembershipUpdated),
		})
	}

	return renderTable(out, []string{"ID", "Name", "Type", "Description", "Membership Updated"}, rows)
}
