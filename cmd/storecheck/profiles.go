package main

import (
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/hazyhaar/storecheck/storecheck"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "Print the effective selector catalog as YAML",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		c, err := storecheck.New(cfg, nil)
		if err != nil {
			return err
		}
		catalog := c.Catalog()

		out := make(map[string]any)
		for _, p := range catalog.Platforms() {
			prof, _ := catalog.Get(p)
			out[p] = prof.Elements
		}
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(out)
	},
}
