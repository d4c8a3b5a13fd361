package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"opline/internal/openproject"
	"opline/internal/ui"
)

func printProjects(w io.Writer, projects []openproject.Project) {
	if len(projects) == 0 {
		fmt.Fprintln(w, "No projects found.")
		return
	}
	if tableMode() {
		tw := table.NewWriter()
		tw.SetOutputMirror(w)
		tw.AppendHeader(table.Row{"ID", "Identifier", "Name"})
		for _, p := range projects {
			tw.AppendRow(table.Row{p.ID, p.Identifier, p.Name})
		}
		tw.Render()
		return
	}
	fmt.Fprintln(w, "ID   Identifier            Name")
	fmt.Fprintln(w, "---  --------------------  ------------------------------")
	for _, p := range projects {
		fmt.Fprintf(w, "%-3d  %-20s  %s\n", p.ID, truncate(orDash(p.Identifier), 20), truncate(orDash(p.Name), 30))
	}
}

func printWorkPackages(w io.Writer, wps []openproject.WorkPackage) {
	if len(wps) == 0 {
		fmt.Fprintln(w, "No matching work packages found.")
		return
	}
	if tableMode() {
		tw := table.NewWriter()
		tw.SetOutputMirror(w)
		tw.AppendHeader(table.Row{"ID", "Subject", "Status", "Assignee", "Updated"})
		for _, wp := range wps {
			tw.AppendRow(table.Row{wp.ID, wp.Subject, wp.StatusName(), wp.AssigneeName(), formatDate(wp.UpdatedAt)})
		}
		tw.Render()
		return
	}
	fmt.Fprintln(w, "WP ID   Subject                              Status         Assignee        Updated")
	fmt.Fprintln(w, "-----   -----------------------------------  -------------  --------------  ----------")
	for _, wp := range wps {
		subject := wp.Subject
		if subject == "" {
			subject = "(no subject)"
		}
		fmt.Fprintf(w, "%-5d   %-35s  %-13s  %-14s  %s\n",
			wp.ID,
			truncate(subject, 35),
			truncate(wp.StatusName(), 13),
			truncate(wp.AssigneeName(), 14),
			formatDate(wp.UpdatedAt))
	}
}

func printWorkPackageDetail(w io.Writer, wp openproject.WorkPackage) {
	subject := wp.Subject
	if subject == "" {
		subject = "(no subject)"
	}
	lockVersion := "-"
	if wp.LockVersion != nil {
		lockVersion = strconv.Itoa(*wp.LockVersion)
	}

	fmt.Fprintln(w, ui.Emph(fmt.Sprintf("Work package #%d", wp.ID)))
	fmt.Fprintf(w, "Subject: %s\n", subject)
	fmt.Fprintf(w, "Status: %s\n", wp.StatusName())
	fmt.Fprintf(w, "Type: %s\n", wp.TypeName())
	fmt.Fprintf(w, "Priority: %s\n", wp.PriorityName())
	fmt.Fprintf(w, "Assignee: %s\n", wp.AssigneeName())
	fmt.Fprintf(w, "Author: %s\n", wp.AuthorName())
	fmt.Fprintf(w, "Start date: %s\n", orDash(wp.StartDate))
	fmt.Fprintf(w, "Due date: %s\n", orDash(wp.DueDate))
	fmt.Fprintf(w, "Created: %s\n", formatDate(wp.CreatedAt))
	fmt.Fprintf(w, "Updated: %s\n", formatDate(wp.UpdatedAt))
	fmt.Fprintf(w, "Lock version: %s\n", lockVersion)

	if desc := strings.TrimSpace(wp.DescriptionText()); desc != "" {
		fmt.Fprintf(w, "\nDescription:\n\n%s\n", desc)
	}
}

func printStatuses(w io.Writer, statuses []openproject.Status) {
	if len(statuses) == 0 {
		fmt.Fprintln(w, "No statuses returned.")
		return
	}
	if tableMode() {
		tw := table.NewWriter()
		tw.SetOutputMirror(w)
		tw.AppendHeader(table.Row{"ID", "Name", "Closed"})
		for _, s := range statuses {
			tw.AppendRow(table.Row{s.ID, s.Name, s.IsClosed})
		}
		tw.Render()
		return
	}
	fmt.Fprintln(w, "ID   Name                       Closed")
	fmt.Fprintln(w, "---  -------------------------  ------")
	for _, s := range statuses {
		fmt.Fprintf(w, "%-3d  %-25s  %t\n", s.ID, truncate(orDash(s.Name), 25), s.IsClosed)
	}
}

func printTypes(w io.Writer, types []openproject.Type) {
	if len(types) == 0 {
		fmt.Fprintln(w, "No types returned.")
		return
	}
	if tableMode() {
		tw := table.NewWriter()
		tw.SetOutputMirror(w)
		tw.AppendHeader(table.Row{"ID", "Name", "Milestone"})
		for _, t := range types {
			tw.AppendRow(table.Row{t.ID, t.Name, t.IsMilestone})
		}
		tw.Render()
		return
	}
	fmt.Fprintln(w, "ID   Name                       Milestone")
	fmt.Fprintln(w, "---  -------------------------  ---------")
	for _, t := range types {
		fmt.Fprintf(w, "%-3d  %-25s  %t\n", t.ID, truncate(orDash(t.Name), 25), t.IsMilestone)
	}
}

func printPriorities(w io.Writer, priorities []openproject.Priority) {
	if len(priorities) == 0 {
		fmt.Fprintln(w, "No priorities returned.")
		return
	}
	if tableMode() {
		tw := table.NewWriter()
		tw.SetOutputMirror(w)
		tw.AppendHeader(table.Row{"ID", "Name", "Position"})
		for _, p := range priorities {
			tw.AppendRow(table.Row{p.ID, p.Name, p.Position})
		}
		tw.Render()
		return
	}
	fmt.Fprintln(w, "ID   Name                       Position")
	fmt.Fprintln(w, "---  -------------------------  --------")
	for _, p := range priorities {
		fmt.Fprintf(w, "%-3d  %-25s  %d\n", p.ID, truncate(orDash(p.Name), 25), p.Position)
	}
}

func printUsers(w io.Writer, users []openproject.User) {
	if len(users) == 0 {
		fmt.Fprintln(w, "No users returned.")
		return
	}
	if tableMode() {
		tw := table.NewWriter()
		tw.SetOutputMirror(w)
		tw.AppendHeader(table.Row{"ID", "Name", "Login"})
		for _, u := range users {
			tw.AppendRow(table.Row{u.ID, u.DisplayName(), u.Login})
		}
		tw.Render()
		return
	}
	fmt.Fprintln(w, "ID   Name                              Login")
	fmt.Fprintln(w, "---  --------------------------------  ----------------------")
	for _, u := range users {
		fmt.Fprintf(w, "%-3d  %-32s  %s\n", u.ID, truncate(u.DisplayName(), 32), truncate(orDash(u.Login), 22))
	}
}

func printRelations(w io.Writer, rels []openproject.Relation) {
	if len(rels) == 0 {
		fmt.Fprintln(w, "No relations returned.")
		return
	}
	if tableMode() {
		tw := table.NewWriter()
		tw.SetOutputMirror(w)
		tw.AppendHeader(table.Row{"ID", "Type", "From", "To", "Lag"})
		for _, r := range rels {
			tw.AppendRow(table.Row{r.ID, r.Type, r.FromLabel(), r.ToLabel(), r.LagLabel()})
		}
		tw.Render()
		return
	}
	fmt.Fprintln(w, "ID    Type        From           To             Lag")
	fmt.Fprintln(w, "----  ----------  -------------  -------------  ----")
	for _, r := range rels {
		fmt.Fprintf(w, "%-4d  %-10s  %-13s  %-13s  %s\n",
			r.ID,
			truncate(orDash(r.Type), 10),
			truncate(r.FromLabel(), 13),
			truncate(r.ToLabel(), 13),
			r.LagLabel())
	}
}

func printWikiPages(w io.Writer, identifier string, pages []openproject.WikiPage) {
	fmt.Fprintf(w, "Project wiki: %s\n", identifier)
	if len(pages) == 0 {
		fmt.Fprintln(w, "No wiki pages found.")
		return
	}
	if tableMode() {
		tw := table.NewWriter()
		tw.SetOutputMirror(w)
		tw.AppendHeader(table.Row{"Title", "Version", "Updated"})
		for _, p := range pages {
			tw.AppendRow(table.Row{p.Title, p.VersionLabel(), formatDate(p.UpdatedLabel())})
		}
		tw.Render()
		return
	}
	fmt.Fprintln(w, "Title                              Version   Updated")
	fmt.Fprintln(w, "---------------------------------  --------  ----------")
	for _, p := range pages {
		title := p.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Fprintf(w, "%-33s  %-8s  %s\n", truncate(title, 33), p.VersionLabel(), formatDate(p.UpdatedLabel()))
	}
}
