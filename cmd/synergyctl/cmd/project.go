package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var projectID string

// projectCmd represents the project command group
var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Project inspection commands",
	Long: `Commands for inspecting Synergy projects.

These commands operate directly on the database file.

Examples:
  # List all projects
  synergyctl project list

  # List project members
  synergyctl project members --id <project-id>`,
}

// projectListCmd lists all projects
var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all projects",
	Long: `List all projects in the database.

Displays project ID, name, status, creator, task and member counts.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openDatabase(dbPath)
		if err != nil {
			return err
		}
		defer store.Close()

		projects, err := store.Projects().List(cmd.Context())
		if err != nil {
			return fmt.Errorf("list projects: %w", err)
		}

		w := cmd.OutOrStdout()
		if GetOutput() == "json" {
			return printJSON(w, projects)
		}
		if len(projects) == 0 {
			fmt.Fprintln(w, "No projects found.")
			return nil
		}

		fmt.Fprintf(w, "\n%-36s  %-24s  %-10s  %-24s  %5s  %7s\n",
			"ID", "NAME", "STATUS", "CREATOR", "TASKS", "MEMBERS")
		fmt.Fprintln(w, strings.Repeat("-", 116))
		for _, p := range projects {
			fmt.Fprintf(w, "%-36s  %-24s  %-10s  %-24s  %5d  %7d\n",
				p.ID,
				truncate(p.Name, 24),
				p.Status,
				truncate(p.CreatorName, 24),
				p.TaskCount,
				p.MemberCount,
			)
		}
		fmt.Fprintf(w, "\nTotal: %d project(s)\n", len(projects))

		return nil
	},
}

// projectMembersCmd lists members of a project
var projectMembersCmd = &cobra.Command{
	Use:   "members",
	Short: "List project members",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openDatabase(dbPath)
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := cmd.Context()
		project, err := store.Projects().GetByID(ctx, projectID)
		if err != nil {
			return fmt.Errorf("get project: %w", err)
		}
		if project == nil {
			return fmt.Errorf("project '%s' not found", projectID)
		}

		members, err := store.Members().List(ctx, projectID)
		if err != nil {
			return fmt.Errorf("list members: %w", err)
		}

		w := cmd.OutOrStdout()
		if GetOutput() == "json" {
			return printJSON(w, members)
		}

		fmt.Fprintf(w, "\nMembers of %s:\n\n", project.Name)
		fmt.Fprintf(w, "%-36s  %-32s  %-8s  %s\n", "USER ID", "EMAIL", "ROLE", "JOINED")
		fmt.Fprintln(w, strings.Repeat("-", 100))
		for _, m := range members {
			role := string(m.Role)
			if project.IsCreator(m.UserID) {
				role += "*"
			}
			fmt.Fprintf(w, "%-36s  %-32s  %-8s  %s\n",
				m.UserID,
				m.Email,
				role,
				m.JoinedAt.Format("2006-01-02 15:04:05"),
			)
		}
		fmt.Fprintln(w, "\n* project creator")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(projectCmd)
	projectCmd.AddCommand(projectListCmd)
	projectCmd.AddCommand(projectMembersCmd)

	projectMembersCmd.Flags().StringVar(&projectID, "id", "", "project ID (required)")
	projectMembersCmd.MarkFlagRequired("id")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
