package cmd

import (
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var resetCmdFlags struct {
	ContentID string
	All       bool
}

var resetCmd = &cobra.Command{
	Use:   "reset-votes",
	Short: "Delete recorded votes",
	Long:  `Delete the votes of a single content item, or of every content item when --all is given.`,
	Example: `humanorai reset-votes --content 6f1c...
humanorai reset-votes --all`,
	RunE: reset,
}

func init() {
	resetCmd.Flags().StringVar(&resetCmdFlags.ContentID, "content", "", "ID of the content whose votes should be deleted")
	resetCmd.Flags().BoolVar(&resetCmdFlags.All, "all", false, "Delete the votes of all content")
	resetCmd.MarkFlagsMutuallyExclusive("content", "all")
	resetCmd.MarkFlagsOneRequired("content", "all")

	rootCmd.AddCommand(resetCmd)
}

func reset(cmd *cobra.Command, _ []string) error {
	_, engine, err := loadEngine()
	if err != nil {
		return err
	}
	defer engine.Close() //nolint:errcheck

	if resetCmdFlags.ContentID != "" {
		if _, err := engine.GetContent(cmd.Context(), resetCmdFlags.ContentID); err != nil {
			return err
		}
	}

	deleted, err := engine.ResetVotes(cmd.Context(), resetCmdFlags.ContentID)
	if err != nil {
		return fmt.Errorf("failed to reset votes: %w", err)
	}

	log.Info("votes deleted", "count", deleted, "content", resetCmdFlags.ContentID)
	return nil
}
