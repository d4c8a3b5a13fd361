package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"opline/internal/config"
	"opline/internal/exitcode"
	"opline/internal/openproject"
	"opline/internal/ui"
)

func wpCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "wp", Short: "Work with work packages"}
	cmd.AddCommand(wpListCmd())
	cmd.AddCommand(wpGetCmd())
	cmd.AddCommand(wpCreateCmd())
	cmd.AddCommand(wpUpdateCmd())
	cmd.AddCommand(wpStatusCmd())
	cmd.AddCommand(wpCommentCmd())
	return cmd
}

func wpListCmd() *cobra.Command {
	var opts openproject.WorkPackageListOptions
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List work packages for a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := ensurePositiveLimit(opts.Limit); err != nil {
				return err
			}
			return withClient(cmd, func(ctx context.Context, c *openproject.Client, s config.Settings) error {
				ref, err := requireProject(s)
				if err != nil {
					return err
				}
				project, err := c.ResolveProject(ctx, ref)
				if err != nil {
					return err
				}
				wps, err := c.WorkPackages(ctx, project.ID, opts)
				if err != nil {
					return err
				}
				filtered := openproject.FilterWorkPackages(wps, opts.Status, opts.Assignee)
				if jsonMode() {
					return printJSON(cmd.OutOrStdout(), filtered)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Project: %s\n", project.Label())
				printWorkPackages(cmd.OutOrStdout(), filtered)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&opts.Status, "status", "", "status filter (case-insensitive substring)")
	cmd.Flags().StringVar(&opts.Assignee, "assignee", "", "assignee filter (case-insensitive substring)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 50, "maximum number of work packages to fetch")
	return cmd
}

func wpGetCmd() *cobra.Command {
	var id int
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Show one work package",
		RunE: func(cmd *cobra.Command, args []string) error {
			if id <= 0 {
				return exitcode.Usagef("--id is required.")
			}
			return withClient(cmd, func(ctx context.Context, c *openproject.Client, _ config.Settings) error {
				wp, err := c.GetWorkPackage(ctx, id)
				if err != nil {
					return err
				}
				if jsonMode() {
					return printJSON(cmd.OutOrStdout(), wp)
				}
				printWorkPackageDetail(cmd.OutOrStdout(), wp)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&id, "id", 0, "work package id")
	return cmd
}

func wpCreateCmd() *cobra.Command {
	var opts openproject.WorkPackageCreateOptions
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a work package",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Subject == "" {
				return exitcode.Usagef("--subject is required.")
			}
			return withClient(cmd, func(ctx context.Context, c *openproject.Client, s config.Settings) error {
				ref, err := requireProject(s)
				if err != nil {
					return err
				}
				project, err := c.ResolveProject(ctx, ref)
				if err != nil {
					return err
				}
				created, err := c.CreateWorkPackage(ctx, project, opts)
				if err != nil {
					return err
				}
				if jsonMode() {
					return printJSON(cmd.OutOrStdout(), created)
				}
				fmt.Fprintln(cmd.OutOrStdout(), ui.Successf("Created work package #%d: %s", created.ID, created.Subject))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&opts.Subject, "subject", "", "work package subject")
	cmd.Flags().StringVar(&opts.Type, "type", "Task", "work package type name")
	cmd.Flags().StringVar(&opts.Description, "description", "", "work package description")
	return cmd
}

func wpUpdateCmd() *cobra.Command {
	var (
		id          int
		subject     string
		description string
		startDate   string
		dueDate     string
		opts        openproject.WorkPackageUpdateOptions
	)
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update work package fields in one call",
		RunE: func(cmd *cobra.Command, args []string) error {
			if id <= 0 {
				return exitcode.Usagef("--id is required.")
			}

			changed := false
			for _, name := range []string{"subject", "description", "status", "assignee", "priority", "type", "start-date", "due-date"} {
				if cmd.Flags().Changed(name) {
					changed = true
					break
				}
			}
			if !changed {
				return exitcode.Usagef("Provide at least one field to update.")
			}

			if cmd.Flags().Changed("subject") {
				opts.Subject = &subject
			}
			if cmd.Flags().Changed("description") {
				opts.Description = &description
			}
			if cmd.Flags().Changed("start-date") {
				v, err := ensureISODate(startDate, "--start-date")
				if err != nil {
					return err
				}
				opts.StartDate = &v
			}
			if cmd.Flags().Changed("due-date") {
				v, err := ensureISODate(dueDate, "--due-date")
				if err != nil {
					return err
				}
				opts.DueDate = &v
			}

			return withClient(cmd, func(ctx context.Context, c *openproject.Client, _ config.Settings) error {
				updated, err := c.UpdateWorkPackage(ctx, id, opts)
				if err != nil {
					return err
				}
				if jsonMode() {
					return printJSON(cmd.OutOrStdout(), updated)
				}
				fmt.Fprintln(cmd.OutOrStdout(), ui.Successf("Updated work package #%d.", updated.ID))
				printWorkPackageDetail(cmd.OutOrStdout(), updated)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&id, "id", 0, "work package id")
	cmd.Flags().StringVar(&subject, "subject", "", "new subject")
	cmd.Flags().StringVar(&description, "description", "", "new description text")
	cmd.Flags().StringVar(&opts.Status, "status", "", "new status name (transition-aware)")
	cmd.Flags().StringVar(&opts.Assignee, "assignee", "", "assignee user id, login or display name")
	cmd.Flags().StringVar(&opts.Priority, "priority", "", "priority name")
	cmd.Flags().StringVar(&opts.Type, "type", "", "work package type name")
	cmd.Flags().StringVar(&startDate, "start-date", "", "start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&dueDate, "due-date", "", "due date (YYYY-MM-DD)")
	return cmd
}

func wpStatusCmd() *cobra.Command {
	var (
		id     int
		status string
	)
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Update work package status by name",
		RunE: func(cmd *cobra.Command, args []string) error {
			if id <= 0 {
				return exitcode.Usagef("--id is required.")
			}
			if status == "" {
				return exitcode.Usagef("--status is required.")
			}
			return withClient(cmd, func(ctx context.Context, c *openproject.Client, _ config.Settings) error {
				updated, err := c.UpdateWorkPackageStatus(ctx, id, status)
				if err != nil {
					return err
				}
				if jsonMode() {
					return printJSON(cmd.OutOrStdout(), updated)
				}
				name := updated.Links.TitleOr("status", status)
				fmt.Fprintln(cmd.OutOrStdout(), ui.Successf("Updated work package #%d to status '%s'.", updated.ID, name))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&id, "id", 0, "work package id")
	cmd.Flags().StringVar(&status, "status", "", "target status name (case-insensitive)")
	return cmd
}

func wpCommentCmd() *cobra.Command {
	var (
		id      int
		comment string
	)
	cmd := &cobra.Command{
		Use:   "comment",
		Short: "Add a comment to a work package",
		RunE: func(cmd *cobra.Command, args []string) error {
			if id <= 0 {
				return exitcode.Usagef("--id is required.")
			}
			if comment == "" {
				return exitcode.Usagef("--comment is required.")
			}
			return withClient(cmd, func(ctx context.Context, c *openproject.Client, _ config.Settings) error {
				if err := c.AddComment(ctx, id, comment); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), ui.Successf("Added comment to work package #%d.", id))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&id, "id", 0, "work package id")
	cmd.Flags().StringVar(&comment, "comment", "", "comment text")
	return cmd
}
