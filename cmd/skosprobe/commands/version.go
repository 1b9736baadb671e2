package commands

import (
	"github.com/spf13/cobra"

	"github.com/teranos/skosprobe/display"
	"github.com/teranos/skosprobe/version"
)

// VersionCmd represents the version command
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show skosprobe version information",
	Long:  `Display version, build time, commit hash, and platform information for the skosprobe binary.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOutput, _ := cmd.Flags().GetBool("json")
		info := version.Get()
		if jsonOutput {
			return display.Write(cmd.OutOrStdout(), display.FormatJSON, info)
		}
		printf(cmd, "%s\n", info.String())
		printf(cmd, "User-Agent: %s\n", info.UserAgent())
		return nil
	},
}

func init() {
	VersionCmd.Flags().BoolP("json", "j", false, "Output version info as JSON")
}
