package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sensei/dashboard/internal/sensei"
)

func projectsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "projects",
		Short: "Manage projects",
	}
	cmd.AddCommand(projectsListCmd())
	cmd.AddCommand(projectsCreateCmd())
	cmd.AddCommand(projectsSelectCmd())
	cmd.AddCommand(projectsReportCmd())
	return cmd
}

func projectsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all projects",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, sessions, err := newAPI()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			projects, err := api.GetProjects(ctx)
			if err != nil {
				return err
			}

			selected := 0
			if serialized, ok := sessions.CurrentProject(); ok {
				var p sensei.Project
				if json.Unmarshal([]byte(serialized), &p) == nil {
					selected = p.ID
				}
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION\t")
			for _, p := range projects {
				marker := ""
				if p.ID == selected {
					marker = " *"
				}
				fmt.Fprintf(w, "%d%s\t%s\t%s\t\n", p.ID, marker, p.Name, p.Description)
			}
			return w.Flush()
		},
	}
}

func projectsCreateCmd() *cobra.Command {
	var description string
	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, _, err := newAPI()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			project, err := api.CreateProject(ctx, sensei.Project{Name: args[0], Description: description})
			if err != nil {
				return err
			}
			fmt.Printf("created project %d (%s)\n", project.ID, project.Name)
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "Project description")
	return cmd
}

func projectsSelectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "select <id>",
		Short: "Make a project the current one for subsequent commands",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid project id %q", args[0])
			}

			api, sessions, err := newAPI()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			project, err := api.GetProject(ctx, id)
			if err != nil {
				return err
			}
			serialized, err := json.Marshal(project)
			if err != nil {
				return err
			}
			sessions.SetCurrentProject(string(serialized))
			fmt.Printf("selected project %d (%s)\n", project.ID, project.Name)
			return nil
		},
	}
}

func projectsReportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "report <id>",
		Short: "Show the aggregated report of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid project id %q", args[0])
			}

			api, _, err := newAPI()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			report, err := api.GetGlobalReport(ctx, id)
			if err != nil {
				return err
			}
			fmt.Printf("test cases: %d\npassed:     %d\nfailed:     %d\navg latency: %.0fms\n",
				report.TotalCases, report.Passed, report.Failed, report.AvgLatencyMs)
			return nil
		},
	}
}
