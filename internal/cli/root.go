// Package cli wires rpm-tool's subcommands (rpm dump, repository
// generate/add-files/validate) to the config loader, the structured
// logging sink, and the index reconciler.
package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/rpmtool/rpm-tool/internal/config"
	"github.com/rpmtool/rpm-tool/internal/logging"
	"github.com/rpmtool/rpm-tool/internal/models"
	"github.com/rpmtool/rpm-tool/internal/rpmpkg"
	"github.com/rpmtool/rpm-tool/internal/signer"
	"github.com/spf13/cobra"
)

// defaultConfigPath matches original_source's CONFIG_DEFAULT_PATH.
const defaultConfigPath = "/etc/rpm-tool.yaml"

// NewRootCmd creates the root command.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "rpm-tool",
		Short: "Parse RPM packages and maintain a yum/dnf repository index",
		Long: `rpm-tool parses individual RPM package files into structured
metadata and generates and incrementally maintains the repodata/ index of
an RPM repository, reusing a pre-existing index to skip checksum
computation and header reads for files that have not changed.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().String("config", defaultConfigPath, "path to the YAML configuration file")

	rootCmd.AddCommand(newRPMCmd())
	rootCmd.AddCommand(newRepositoryCmd())

	return rootCmd
}

// loadConfigAndSink reads the --config file inherited from the root
// command. A missing file at the default path is not an error: rpm-tool
// runs with config.Default(). A missing file at an explicitly-given path
// is reported as ErrConfig.
func loadConfigAndSink(cmd *cobra.Command) (*config.Config, logging.Sink, error) {
	path, _ := cmd.Flags().GetString("config")
	explicit := cmd.Flags().Changed("config")

	cfg, err := config.Read(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			cfg = config.Default()
		} else {
			return nil, nil, models.NewToolError(models.ErrConfig, err)
		}
	}

	return cfg, logging.New(cfg.Log.Target, cfg.Log.Level), nil
}

// usefulFilesMatcher adapts cfg's useful-files regex to rpmpkg.Matcher,
// returning a true nil interface (not a nil *config.Regexp boxed in one)
// when no pattern is configured.
func usefulFilesMatcher(cfg *config.Config) rpmpkg.Matcher {
	if cfg.Repodata.UsefulFiles == nil {
		return nil
	}
	return cfg.Repodata.UsefulFiles
}

// buildSigner constructs a repomd signer from the --sign/--gpg-key/
// --gpg-passphrase flags, falling back to cfg.Sign for whichever of
// keyPath/passphrase the flags left unset. It returns a nil Signer when
// --sign was not given.
func buildSigner(cmd *cobra.Command, cfg *config.Config) (signer.Signer, error) {
	sign, _ := cmd.Flags().GetBool("sign")
	if !sign {
		return nil, nil
	}

	keyPath, _ := cmd.Flags().GetString("gpg-key")
	passphrase, _ := cmd.Flags().GetString("gpg-passphrase")
	if keyPath == "" && cfg.Sign.KeyPath == "" {
		return nil, models.NewToolError(models.ErrUsage, fmt.Errorf("--sign requires --gpg-key or a sign.gpg_key config entry"))
	}

	s, err := signer.NewGPGSignerFromConfig(cfg.Sign, keyPath, passphrase)
	if err != nil {
		return nil, models.NewToolError(models.ErrConfig, err)
	}
	return s, nil
}
