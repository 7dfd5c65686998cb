package cli

import (
	"fmt"

	"github.com/questdeck/questdeck/internal/version"

	"github.com/spf13/cobra"
)

func NewVersionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.Get()

			fmt.Printf("QuestDeck %s\n", info.Version)
			if info.GitCommit != "" {
				fmt.Printf("   Commit: %s\n", info.GitCommit)
			}
			if info.BuildDate != "" {
				fmt.Printf("   Built: %s\n", info.BuildDate)
			}
			fmt.Printf("   Go: %s (%s)\n", info.GoVersion, info.Platform)

			return nil
		},
	}

	return cmd
}
