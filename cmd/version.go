package cmd

import (
	"fmt"

	"golang-switchport/internal/pkg/version"

	"github.com/spf13/cobra"
)

var versionJSONFlag bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version and git info",
	RunE: func(cmd *cobra.Command, args []string) error {
		info := version.GetGitInfo()
		if versionJSONFlag {
			return writeJSON(cmd.OutOrStdout(), info)
		}
		_, err := fmt.Fprintf(cmd.OutOrStdout(), "Tag: %s\nBranch: %s\nCommit: %s\nDirty: %v\n", info.Tag, info.Branch, info.Commit, info.Dirty)
		return err
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionJSONFlag, "json", false, "Print version info as JSON")
	rootCmd.AddCommand(versionCmd)
}
