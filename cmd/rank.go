package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sells-group/mission-control/internal/ranker"
)

var rankCmd = &cobra.Command{
	Use:   "rank <query>",
	Short: "Rank directory clubs against a query",
	Long:  "Scores every club against the query with the same heuristic the chat endpoint uses for recommendations. No model call is made.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}

		dir, err := loadDirectory(cmd.Context(), cfg.Directory)
		if err != nil {
			return err
		}

		all, _ := cmd.Flags().GetBool("all")
		asJSON, _ := cmd.Flags().GetBool("json")

		n := ranker.TopN
		if all {
			n = 0
		}
		results := ranker.Scored(dir.Clubs(), strings.Join(args, " "), n)

		if asJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(results)
		}
		formatRankResults(cmd.OutOrStdout(), results)
		return nil
	},
}

func init() {
	rankCmd.Flags().Bool("all", false, "score every club instead of the top recommendations")
	rankCmd.Flags().Bool("json", false, "print results as JSON")
	rootCmd.AddCommand(rankCmd)
}

func formatRankResults(w io.Writer, results []ranker.Result) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No clubs loaded.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tSCORE\tNAME\tCATEGORY")
	for i, r := range results {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\n", i+1, r.Score, r.Club.Name, r.Club.Category)
	}
	_ = tw.Flush()
}
