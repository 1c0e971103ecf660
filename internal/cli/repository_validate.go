package cli

import (
	"fmt"

	"github.com/rpmtool/rpm-tool/internal/models"
	"github.com/rpmtool/rpm-tool/internal/reconciler"
	"github.com/spf13/cobra"
)

func newRepositoryValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <root>",
		Short: "Check an existing repodata/ index against the files on disk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := args[0]

			report, err := reconciler.Validate(root)
			if err != nil {
				return classifyValidateErr(root, err)
			}

			out := cmd.OutOrStdout()
			for _, issue := range report.Issues {
				fmt.Fprintf(out, "%s: %s: %s\n", issue.Kind, issue.Path, issue.Message)
			}

			if len(report.Issues) > 0 {
				return models.NewFileError(models.ErrIntegrity, root,
					fmt.Errorf("%d issue(s) found", len(report.Issues)))
			}

			fmt.Fprintln(out, "repository index is consistent")
			return nil
		},
	}

	return cmd
}
