package cli

import (
	"github.com/rpmtool/rpm-tool/internal/reconciler"
	"github.com/spf13/cobra"
)

func newRepositoryAddFilesCmd() *cobra.Command {
	var filelists bool
	var repoPath string

	cmd := &cobra.Command{
		Use:   "add-files [--filelists] [--sign] --repository-path <root> <file.rpm>...",
		Short: "Incrementally add RPM files to an existing repodata/ index",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, sink, err := loadConfigAndSink(cmd)
			if err != nil {
				return err
			}
			sig, err := buildSigner(cmd, cfg)
			if err != nil {
				return err
			}

			sink.Info("adding packages to repository", map[string]any{"root": repoPath, "count": len(args)})

			opts := reconciler.Options{
				Root:              repoPath,
				Concurrency:       cfg.Repodata.Concurrency,
				UsefulFiles:       usefulFilesMatcher(cfg),
				ParallelGzip:      cfg.Repodata.ParallelGzip,
				GenerateFilelists: filelists,
				Signer:            sig,
				Sink:              sink,
			}

			if err := reconciler.AddFiles(cmd.Context(), opts, args); err != nil {
				return classifyReconcileErr(repoPath, err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&filelists, "filelists", false, "also generate filelists.xml(.gz)")
	cmd.Flags().StringVar(&repoPath, "repository-path", "", "repository root whose index is updated")
	cmd.MarkFlagRequired("repository-path")
	addSigningFlags(cmd)

	return cmd
}
