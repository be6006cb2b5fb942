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

func testcasesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "testcases",
		Aliases: []string{"tc"},
		Short:   "Manage test cases",
	}
	cmd.AddCommand(testcasesListCmd())
	cmd.AddCommand(testcasesRunCmd())
	cmd.AddCommand(testcasesStopCmd())
	cmd.AddCommand(testcasesShowCmd())
	return cmd
}

// currentProjectID resolves the selected project from the session, 0 when
// nothing is selected.
func currentProjectID(sessions interface{ CurrentProject() (string, bool) }) int {
	serialized, ok := sessions.CurrentProject()
	if !ok {
		return 0
	}
	var p sensei.Project
	if json.Unmarshal([]byte(serialized), &p) != nil {
		return 0
	}
	return p.ID
}

func testcasesListCmd() *cobra.Command {
	var project int
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List test cases of the current project",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, sessions, err := newAPI()
			if err != nil {
				return err
			}
			if project == 0 {
				project = currentProjectID(sessions)
			}
			if project == 0 {
				return fmt.Errorf("no project selected, run `senseictl projects select <id>` or pass --project")
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			cases, err := api.GetTestCases(ctx, sensei.ListOptions{Project: project, Status: status})
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tSTATUS\tSTARTED\t")
			for _, tc := range cases {
				started := ""
				if !tc.StartedAt.IsZero() {
					started = tc.StartedAt.Format("2006-01-02 15:04")
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t\n", tc.ID, tc.Name, tc.Status, started)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&project, "project", 0, "Project id (defaults to the selected project)")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status")
	return cmd
}

func testcasesRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <id>",
		Short: "Start a test case execution",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid test case id %q", args[0])
			}

			api, _, err := newAPI()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			tc, err := api.ExecuteTestCase(ctx, id)
			if err != nil {
				return err
			}
			fmt.Printf("test case %d is %s\n", tc.ID, tc.Status)
			return nil
		},
	}
}

func testcasesStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop <id>",
		Short: "Stop a running test case",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid test case id %q", args[0])
			}

			api, _, err := newAPI()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := api.StopTestCase(ctx, id); err != nil {
				return err
			}
			fmt.Printf("stop requested for test case %d\n", id)
			return nil
		},
	}
}

func testcasesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a test case with its report and error aggregates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid test case id %q", args[0])
			}

			api, _, err := newAPI()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			tc, err := api.GetTestCase(ctx, id)
			if err != nil {
				return err
			}
			fmt.Printf("%s (id %d)\nstatus: %s\n", tc.Name, tc.ID, tc.Status)
			if tc.ErrorMessage != "" {
				fmt.Printf("error:  %s\n", tc.ErrorMessage)
			}

			if !sensei.IsTerminal(tc.Status) {
				return nil
			}

			if report, err := api.GetReport(ctx, id); err == nil {
				fmt.Printf("checks: %d passed, %d failed of %d (avg %.0fms)\n",
					report.Passed, report.Failed, report.Total, report.AvgLatencyMs)
			}
			if aggregates, err := api.GetTestErrors(ctx, id); err == nil && len(aggregates) > 0 {
				fmt.Println("errors:")
				for _, agg := range aggregates {
					fmt.Printf("  %s x%d %s\n", agg.ErrorType, agg.Count, agg.Message)
				}
			}
			return nil
		},
	}
}
