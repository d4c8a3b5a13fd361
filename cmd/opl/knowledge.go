package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"opline/internal/config"
	"opline/internal/exitcode"
	"opline/internal/knowledge"
	"opline/internal/openproject"
	"opline/internal/ui"
)

// weeklyFetchLimit bounds the snapshot used for the summary.
const weeklyFetchLimit = 200

func weeklyCmd() *cobra.Command {
	var output string
	cmd := &cobra.Command{
		Use:   "weekly",
		Short: "Generate a weekly status summary markdown file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withClient(cmd, func(ctx context.Context, c *openproject.Client, s config.Settings) error {
				ref, err := requireProject(s)
				if err != nil {
					return err
				}
				project, err := c.ResolveProject(ctx, ref)
				if err != nil {
					return err
				}
				wps, err := c.WorkPackages(ctx, project.ID, openproject.WorkPackageListOptions{Limit: weeklyFetchLimit})
				if err != nil {
					return err
				}

				items := make([]knowledge.Item, 0, len(wps))
				for _, wp := range wps {
					items = append(items, knowledge.Item{
						ID:       wp.ID,
						Subject:  wp.Subject,
						Status:   wp.StatusName(),
						Assignee: wp.AssigneeName(),
					})
				}

				now := time.Now()
				summary := knowledge.BuildWeeklySummary(project.DisplayName(), now, items)
				fmt.Fprintln(cmd.OutOrStdout(), summary)

				path := output
				if path == "" {
					path = knowledge.WeeklyPath(s.StatusDir(), now)
				}
				if err := knowledge.WriteFile(path, summary); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), ui.Successf("Saved weekly summary to %s", path))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&output, "output", "", "write the summary to this file instead of the status directory")
	return cmd
}

func decisionCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "decision", Short: "Record project decisions as markdown files"}
	cmd.AddCommand(decisionNewCmd())
	return cmd
}

func decisionNewCmd() *cobra.Command {
	var (
		title       string
		decision    string
		contextText string
		impact      string
		followup    string
		interactive bool
	)
	cmd := &cobra.Command{
		Use:   "new",
		Short: "Create a decision log entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Pure file operation, no API access required.
			s, err := loadSettings()
			if err != nil {
				return err
			}
			ref, err := requireProject(s)
			if err != nil {
				return err
			}

			if interactive {
				if !ui.ShouldPrompt() {
					return exitcode.Usagef("--interactive needs a terminal. Pass --title and --decision instead.")
				}
				if title == "" {
					if title, err = ui.Input("Decision title", "Switch staging to weekly deploys", true); err != nil {
						return err
					}
				}
				if decision == "" {
					if decision, err = ui.Input("What was decided?", "", true); err != nil {
						return err
					}
				}
				if contextText == "" {
					if contextText, err = ui.Text("Context (optional)"); err != nil {
						return err
					}
				}
				if impact == "" {
					if impact, err = ui.Text("Impact (optional)"); err != nil {
						return err
					}
				}
				if followup == "" {
					if followup, err = ui.Text("Follow-up (optional)"); err != nil {
						return err
					}
				}
			}
			if title == "" {
				return exitcode.Usagef("--title is required.")
			}
			if decision == "" {
				return exitcode.Usagef("--decision is required.")
			}

			day := time.Now()
			path := knowledge.DecisionPath(s.DecisionDir(), title, day)
			markdown := knowledge.BuildDecisionMarkdown(knowledge.Decision{
				Title:    title,
				Project:  ref,
				Decision: decision,
				Context:  contextText,
				Impact:   impact,
				Followup: followup,
			}, day)
			if err := knowledge.WriteFile(path, markdown); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ui.Successf("Created decision log: %s", path))
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "short decision title")
	cmd.Flags().StringVar(&decision, "decision", "", "what was decided")
	cmd.Flags().StringVar(&contextText, "context", "", "why the decision came up")
	cmd.Flags().StringVar(&impact, "impact", "", "expected impact")
	cmd.Flags().StringVar(&followup, "followup", "", "follow-up actions")
	cmd.Flags().BoolVar(&interactive, "interactive", false, "prompt for missing fields")
	return cmd
}
