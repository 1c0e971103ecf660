package cli

import "github.com/spf13/cobra"

func newRepositoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "repository",
		Short: "Build and maintain a repodata/ index",
	}
	cmd.AddCommand(newRepositoryGenerateCmd())
	cmd.AddCommand(newRepositoryAddFilesCmd())
	cmd.AddCommand(newRepositoryValidateCmd())
	return cmd
}

func addSigningFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("sign", false, "write a detached GPG signature, repodata/repomd.xml.asc")
	cmd.Flags().String("gpg-key", "", "path to the GPG private key used with --sign")
	cmd.Flags().String("gpg-passphrase", "", "passphrase for the GPG private key")
}
