package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/molgrid/pkg/buildinfo"
)

// RootCommand creates the root cobra command with all subcommands registered.
//
// The defaults file is loaded in PersistentPreRunE, so every subcommand sees
// c.Config. Wrappers installed by main must chain to it.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Molgrid draws chemical structures as grid images",
		Long: `Molgrid reads a stream of chemical structures and draws them into raster
images, either one structure per image or many structures arranged in a
table of rows and columns.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := c.loadConfig(); err != nil {
				return err
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: "+appName+" config dir)")

	root.AddCommand(c.renderCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.configCommand())

	return root
}
