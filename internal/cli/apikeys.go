package cli

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func apikeysCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apikeys",
		Short: "Manage API keys",
	}
	cmd.AddCommand(apikeysListCmd())
	cmd.AddCommand(apikeysCreateCmd())
	cmd.AddCommand(apikeysDeleteCmd())
	return cmd
}

func apikeysListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			api, _, err := newAPI()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			keys, err := api.GetAPIKeys(ctx)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCREATED\t")
			for _, k := range keys {
				fmt.Fprintf(w, "%d\t%s\t%s\t\n", k.ID, k.Name, k.CreatedAt.Format("2006-01-02"))
			}
			return w.Flush()
		},
	}
}

func apikeysCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <name>",
		Short: "Create an API key and print its secret once",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			api, _, err := newAPI()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			key, err := api.CreateAPIKey(ctx, args[0])
			if err != nil {
				return err
			}
			// The secret is never listed again.
			fmt.Printf("created key %d (%s)\nsecret: %s\n", key.ID, key.Name, key.Key)
			return nil
		},
	}
}

func apikeysDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Revoke an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid key id %q", args[0])
			}

			api, _, err := newAPI()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			if err := api.DeleteAPIKey(ctx, id); err != nil {
				return err
			}
			fmt.Printf("deleted key %d\n", id)
			return nil
		},
	}
}
