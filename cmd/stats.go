package cmd

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/mergestat/timediff"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show database statistics",
	Long:  `Display statistics about users, content and recorded votes.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, engine, err := loadEngine()
		if err != nil {
			return err
		}
		defer engine.Close() //nolint: errcheck

		stats, err := engine.Stats(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get database stats: %w", err)
		}

		fmt.Println("Database Statistics:")
		fmt.Printf("Users: %s\n", humanize.Comma(stats.TotalUsers))
		fmt.Printf("Contents: %s\n", humanize.Comma(stats.TotalContents))
		fmt.Printf("Votes: %s\n", humanize.Comma(stats.TotalVotes))
		fmt.Printf("Anonymous Votes: %s\n", humanize.Comma(stats.AnonymousVotes))

		if stats.LastVoteAt != nil {
			fmt.Printf("Last Vote: %s\n", timediff.TimeDiff(*stats.LastVoteAt))
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
