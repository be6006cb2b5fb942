package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func connectorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "connectors",
		Short: "Manage chatbot connectors",
	}
	cmd.AddCommand(connectorsListCmd())
	cmd.AddCommand(connectorsTechnologiesCmd())
	cmd.AddCommand(connectorsValidateCmd())
	return cmd
}

func connectorsTechnologiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "technologies",
		Short: "List supported connector technologies and their parameters",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, _, err := newAPI()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			techs, err := api.GetConnectorTechnologies(ctx)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "TECHNOLOGY\tPARAMETERS\t")
			for _, tech := range techs {
				fmt.Fprintf(w, "%s\t%s\t\n", tech.Name, strings.Join(tech.Parameters, ", "))
			}
			return w.Flush()
		},
	}
}

func connectorsListCmd() *cobra.Command {
	var project int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List connectors of the current project",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, sessions, err := newAPI()
			if err != nil {
				return err
			}
			if project == 0 {
				project = currentProjectID(sessions)
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			connectors, err := api.GetConnectors(ctx, project)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tTECHNOLOGY\tPROJECT\t")
			for _, c := range connectors {
				fmt.Fprintf(w, "%d\t%s\t%s\t%d\t\n", c.ID, c.Name, c.Technology, c.Project)
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&project, "project", 0, "Project id (defaults to the selected project)")
	return cmd
}

func connectorsValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <id>",
		Short: "Check that a connector can reach its chatbot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid connector id %q", args[0])
			}

			api, _, err := newAPI()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()

			result, err := api.ValidateConnector(ctx, id)
			if err != nil {
				return err
			}
			if result.OK {
				fmt.Println("connector ok")
				return nil
			}
			return fmt.Errorf("connector validation failed: %s", result.Message)
		},
	}
}
