package cli

import (
	"errors"
	"fmt"

	"github.com/rpmtool/rpm-tool/internal/dump"
	"github.com/rpmtool/rpm-tool/internal/models"
	"github.com/rpmtool/rpm-tool/internal/rpmpkg"
	"github.com/spf13/cobra"
)

func newRPMCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rpm",
		Short: "Inspect individual RPM package files",
	}
	cmd.AddCommand(newRPMDumpCmd())
	return cmd
}

func newRPMDumpCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "dump <file.rpm>",
		Short: "Parse an RPM file and print its metadata to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := dump.ParseFormat(format)
			if err != nil {
				return models.NewToolError(models.ErrUsage, err)
			}

			path := args[0]
			pkg, err := rpmpkg.ParsePackage(path)
			if err != nil {
				if errors.Is(err, rpmpkg.ErrIO) {
					return models.NewFileError(models.ErrIo, path, err)
				}
				return models.NewFileError(models.ErrParseRpm, path, err)
			}

			text, err := dump.Dump(pkg, f)
			if err != nil {
				return models.NewFileError(models.ErrParseRpm, path, err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: json, yaml, or xml (default yaml)")

	return cmd
}
