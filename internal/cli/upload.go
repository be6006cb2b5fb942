package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/sensei/dashboard/internal/sensei"
)

func uploadCmd() *cobra.Command {
	var project int
	var ignoreValidation bool
	cmd := &cobra.Command{
		Use:   "upload <file>...",
		Short: "Upload YAML profile files to a project",
		Args:  cobra.MinimumNArgs(1),
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

			files := make(map[string][]byte, len(args))
			for _, path := range args {
				content, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read %s: %w", path, err)
				}
				files[filepath.Base(path)] = content
			}

			ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
			defer cancel()

			result, err := api.UploadProfile(ctx, sensei.UploadRequest{
				ProjectID:              project,
				Files:                  files,
				IgnoreValidationErrors: ignoreValidation,
			})
			if err != nil {
				return err
			}

			for _, name := range result.Uploaded {
				fmt.Printf("uploaded %s\n", name)
			}
			for _, warning := range result.Warnings {
				fmt.Fprintf(os.Stderr, "warning: %s\n", warning)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&project, "project", 0, "Project id (defaults to the selected project)")
	cmd.Flags().BoolVar(&ignoreValidation, "ignore-validation-errors", false, "Upload even when the backend flags validation issues")
	return cmd
}
