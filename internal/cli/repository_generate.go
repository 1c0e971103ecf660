package cli

import (
	"github.com/rpmtool/rpm-tool/internal/reconciler"
	"github.com/spf13/cobra"
)

func newRepositoryGenerateCmd() *cobra.Command {
	var filelists bool

	cmd := &cobra.Command{
		Use:   "generate [--filelists] [--sign] <root>",
		Short: "Full (re)build of a repository's repodata/ index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, sink, err := loadConfigAndSink(cmd)
			if err != nil {
				return err
			}
			sig, err := buildSigner(cmd, cfg)
			if err != nil {
				return err
			}

			root := args[0]
			sink.Info("generating repository index", map[string]any{"root": root})

			opts := reconciler.Options{
				Root:              root,
				Concurrency:       cfg.Repodata.Concurrency,
				UsefulFiles:       usefulFilesMatcher(cfg),
				ParallelGzip:      cfg.Repodata.ParallelGzip,
				GenerateFilelists: filelists,
				Signer:            sig,
				Sink:              sink,
			}

			if err := reconciler.Generate(cmd.Context(), opts); err != nil {
				return classifyReconcileErr(root, err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&filelists, "filelists", false, "also generate filelists.xml(.gz)")
	addSigningFlags(cmd)

	return cmd
}
