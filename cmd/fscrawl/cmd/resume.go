package cmd

import (
	"github.com/spf13/cobra"
)

var resumeFlags crawlFlags

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume a previously started crawl",
	Long: `Resume continues a crawl from its persisted checkpoint. It accepts the
same flags as run but skips reseeding the frontier when the store already
holds queued or processed state.

Example:
  fscrawl resume --username jdoe --outdir ./data --basename myrun`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCrawl(cmd, &resumeFlags, true)
	},
}

func init() {
	addCrawlFlags(resumeCmd, &resumeFlags)
	rootCmd.AddCommand(resumeCmd)
}
