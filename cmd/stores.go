// =============================================================================
// costco-tk - Stores Command
// =============================================================================
//
// COMMAND USAGE:
//   costco-tk stores list              - Print every store key and name
//   costco-tk stores find <term>       - Fuzzy search by name or key
//   costco-tk stores resolve <ref>...  - Show how invoice references resolve
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/chaotic-justice/costco-tk/internal/config"
	"github.com/chaotic-justice/costco-tk/internal/directory"
	"github.com/chaotic-justice/costco-tk/internal/resolver"
	"github.com/chaotic-justice/costco-tk/internal/types"
)

var findLimit int

var storesCmd = &cobra.Command{
	Use:   "stores",
	Short: "Inspect the store directory",
}

var storesListCmd = &cobra.Command{
	Use:   "list",
	Short: "Print every store key and name",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, dir, err := loadDirectory()
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "KEY\tSTORE")
		for _, e := range dir.Entries() {
			fmt.Fprintf(tw, "%s\t%s\n", e.ShortKey, e.CanonicalName)
		}
		if err := tw.Flush(); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "\n%d store(s) from %s, %d record(s) without a valid key\n",
			dir.Len(), dir.Source(), dir.Dropped())
		return nil
	},
}

var storesFindCmd = &cobra.Command{
	Use:   "find <term>",
	Short: "Search stores by name or short key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, dir, err := loadDirectory()
		if err != nil {
			return err
		}

		matches := dir.Find(args[0], findLimit)
		if len(matches) == 0 {
			fmt.Fprintf(cmd.OutOrStdout(), "No store matches %q\n", args[0])
			return nil
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "KEY\tSTORE\tDISTANCE")
		for _, m := range matches {
			fmt.Fprintf(tw, "%s\t%s\t%d\n", m.ShortKey, m.CanonicalName, m.Distance)
		}
		return tw.Flush()
	},
}

var storesResolveCmd = &cobra.Command{
	Use:   "resolve <reference>...",
	Short: "Show which store each invoice reference resolves to",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, dir, err := loadDirectory()
		if err != nil {
			return err
		}

		log := logrus.New()
		log.SetLevel(logrus.PanicLevel)
		res := resolver.New(dir, cfg.Resolution, log)

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "REFERENCE\tKEY\tSTORE\tOUTCOME")

		var failed int
		for _, ref := range args {
			// the amount is irrelevant here
			t := types.LogicalTable{
				Columns: []string{types.ColumnInvoiceNumber, types.ColumnAmount},
				Rows:    []types.RawRow{{ref, "0"}},
			}

			resolved, err := res.Resolve(t)
			var resErr *types.ResolutionError
			switch {
			case errors.As(err, &resErr):
				failed++
				u := resErr.Rows[0]
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", ref, u.Key, red("unresolved"), u.Outcome)
			case err != nil:
				return err
			default:
				r := resolved.Rows[0]
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s (pass %d)\n", ref, r.StoreKey, r.StoreName, r.Outcome, r.Pass)
			}
		}
		if err := tw.Flush(); err != nil {
			return err
		}

		if failed > 0 {
			return fmt.Errorf("%w: %d of %d reference(s)", types.ErrUnresolvedKey, failed, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(storesCmd)
	storesCmd.AddCommand(storesListCmd, storesFindCmd, storesResolveCmd)

	storesFindCmd.Flags().IntVarP(&findLimit, "limit", "n", 10, "Maximum number of matches, 0 for all")
}

func loadDirectory() (*config.MainConfig, *directory.Directory, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	dir, err := directory.Load(cfg.Directory.File, cfg.Directory.Overrides)
	if err != nil {
		return nil, nil, err
	}
	return cfg, dir, nil
}
