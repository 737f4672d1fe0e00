package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/molgrid/pkg/config"
)

// configCommand creates the config inspection command.
func (c *CLI) configCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the defaults file",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the default config file location",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := config.Dir()
			if err != nil {
				return fmt.Errorf("get config dir: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), filepath.Join(dir, "config.toml"))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := c.settings()
			set, err := c.defaultOptions()
			if err != nil {
				return err
			}
			opts := set.String()
			if opts == "" {
				opts = StyleDim.Render("(none)")
			}
			printKeyValue("options", opts)
			printKeyValue("format", orDefault(cfg.Render.Format, "png"))
			coords := "graphviz"
			if cfg.Render.NoCoordinates {
				coords = "off"
			}
			printKeyValue("coords", coords)
			printKeyValue("cache", orDefault(cfg.Cache.Location, "file"))
			printKeyValue("listen", orDefault(cfg.Server.Addr, defaultAddr))
			printKeyValue("log level", orDefault(strings.ToLower(cfg.Log.Level), "info"))
			return nil
		},
	})

	return cmd
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
