package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"opline/internal/config"
	"opline/internal/openproject"
)

func projectCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "project", Short: "Work with projects"}
	cmd.AddCommand(projectListCmd())
	return cmd
}

func projectListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List visible projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, c *openproject.Client, _ config.Settings) error {
				projects, err := c.Projects(ctx, 0)
				if err != nil {
					return err
				}
				if jsonMode() {
					return printJSON(cmd.OutOrStdout(), projects)
				}
				printProjects(cmd.OutOrStdout(), projects)
				return nil
			})
		},
	}
}

func statusCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "status", Short: "Work with work package statuses"}
	cmd.AddCommand(statusListCmd())
	return cmd
}

func statusListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available statuses",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, c *openproject.Client, _ config.Settings) error {
				statuses, err := c.Statuses(ctx)
				if err != nil {
					return err
				}
				if jsonMode() {
					return printJSON(cmd.OutOrStdout(), statuses)
				}
				printStatuses(cmd.OutOrStdout(), statuses)
				return nil
			})
		},
	}
}

func typeCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "type", Short: "Work with work package types"}
	cmd.AddCommand(typeListCmd())
	return cmd
}

func typeListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List types, project-scoped when --project is given",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, c *openproject.Client, _ config.Settings) error {
				// Scoped only when --project is given explicitly; the
				// configured default project does not narrow this list.
				projectID := 0
				if ref := viper.GetString("project"); ref != "" {
					project, err := c.ResolveProject(ctx, ref)
					if err != nil {
						return err
					}
					projectID = project.ID
					if !jsonMode() {
						fmt.Fprintf(cmd.OutOrStdout(), "Project: %s\n", project.Label())
					}
				}
				types, err := c.Types(ctx, projectID)
				if err != nil {
					return err
				}
				if jsonMode() {
					return printJSON(cmd.OutOrStdout(), types)
				}
				printTypes(cmd.OutOrStdout(), types)
				return nil
			})
		},
	}
}

func priorityCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "priority", Short: "Work with work package priorities"}
	cmd.AddCommand(priorityListCmd())
	return cmd
}

func priorityListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available priorities",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, c *openproject.Client, _ config.Settings) error {
				priorities, err := c.Priorities(ctx)
				if err != nil {
					return err
				}
				if jsonMode() {
					return printJSON(cmd.OutOrStdout(), priorities)
				}
				printPriorities(cmd.OutOrStdout(), priorities)
				return nil
			})
		},
	}
}

func userCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "user", Short: "Work with users"}
	cmd.AddCommand(userListCmd())
	return cmd
}

func userListCmd() *cobra.Command {
	var (
		query string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List visible users",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ensurePositiveLimit(limit); err != nil {
				return err
			}
			return withClient(cmd, func(ctx context.Context, c *openproject.Client, _ config.Settings) error {
				users, err := c.Users(ctx, limit)
				if err != nil {
					var auth *openproject.AuthError
					if errors.As(err, &auth) && auth.StatusCode == http.StatusForbidden {
						return fmt.Errorf("listing users is forbidden for this token or role: use an account with user-list permission or assign by numeric user id: %w", err)
					}
					return err
				}
				filtered := openproject.FilterUsers(users, query)
				if jsonMode() {
					return printJSON(cmd.OutOrStdout(), filtered)
				}
				printUsers(cmd.OutOrStdout(), filtered)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&query, "query", "", "case-insensitive substring filter (name, login or id)")
	cmd.Flags().IntVar(&limit, "limit", 200, "maximum number of users to fetch")
	return cmd
}
