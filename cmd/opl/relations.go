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

func relationCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "relation", Short: "Inspect and create work package relations"}
	cmd.AddCommand(relationListCmd())
	cmd.AddCommand(relationCreateCmd())
	return cmd
}

func relationListCmd() *cobra.Command {
	var (
		id    int
		limit int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List relations of a work package",
		RunE: func(cmd *cobra.Command, args []string) error {
			if id <= 0 {
				return exitcode.Usagef("--id is required.")
			}
			if err := ensurePositiveLimit(limit); err != nil {
				return err
			}
			return withClient(cmd, func(ctx context.Context, c *openproject.Client, _ config.Settings) error {
				rels, err := c.Relations(ctx, id, limit)
				if err != nil {
					return err
				}
				if jsonMode() {
					return printJSON(cmd.OutOrStdout(), rels)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Work package #%d\n", id)
				printRelations(cmd.OutOrStdout(), rels)
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&id, "id", 0, "work package id")
	cmd.Flags().IntVar(&limit, "limit", 100, "maximum number of relations to fetch")
	return cmd
}

func relationCreateCmd() *cobra.Command {
	var (
		opts openproject.RelationCreateOptions
		lag  int
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a relation between two work packages",
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.From <= 0 {
				return exitcode.Usagef("--from is required.")
			}
			if opts.To <= 0 {
				return exitcode.Usagef("--to is required.")
			}
			if cmd.Flags().Changed("lag") {
				if lag < 0 {
					return exitcode.Usagef("--lag must be zero or greater.")
				}
				opts.Lag = &lag
			}
			return withClient(cmd, func(ctx context.Context, c *openproject.Client, _ config.Settings) error {
				rel, err := c.CreateRelation(ctx, opts)
				if err != nil {
					return err
				}
				if jsonMode() {
					return printJSON(cmd.OutOrStdout(), rel)
				}
				relType := rel.Type
				if relType == "" {
					relType = opts.Type
				}
				fmt.Fprintln(cmd.OutOrStdout(), ui.Successf("Created relation #%d: #%d %s #%d.", rel.ID, opts.From, relType, opts.To))
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&opts.From, "from", 0, "id of the work package the relation starts from")
	cmd.Flags().IntVar(&opts.To, "to", 0, "id of the work package the relation points to")
	cmd.Flags().StringVar(&opts.Type, "type", "relates", "relation type")
	cmd.Flags().StringVar(&opts.Description, "description", "", "relation description")
	cmd.Flags().IntVar(&lag, "lag", 0, "lag in working days (follows relations)")
	return cmd
}
