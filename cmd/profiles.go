package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/gridsim/bevflow/core/model"
)

var exportKind string

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "Inspect the profile database",
}

var profilesListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List stored profiles",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		defer svc.Close()
		for _, name := range svc.DB.Names() {
			p, err := svc.DB.Get(name)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s\n", p.Kind, name)
		}
		return nil
	},
}

var profilesInfoCmd = &cobra.Command{
	Use:   "info <name>",
	Short: "Show one profile in detail",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		defer svc.Close()
		p, err := svc.DB.Get(args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "name:    %s\nkind:    %s\ngroup:   %s\nsource:  %s\ncreated: %s\n",
			p.Name, p.Kind, p.Group, p.Source, p.CreatedAt.Format("2006-01-02 15:04:05"))
		keys := make([]string, 0, len(p.Series))
		for k := range p.Series {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			ts := p.Series[k]
			fmt.Fprintf(out, "series %s: %d steps, sum %.2f\n", k, ts.Len(), ts.Sum())
		}
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write stored profiles as CSV tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		defer svc.Close()
		return svc.ExportProfiles(model.ProfileKind(exportKind))
	},
}

func init() {
	profilesCmd.AddCommand(profilesListCmd, profilesInfoCmd)
	exportCmd.Flags().StringVar(&exportKind, "kind", "", "restrict to one profile kind")
	rootCmd.AddCommand(profilesCmd, exportCmd)
}
