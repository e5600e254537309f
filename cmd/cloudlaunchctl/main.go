package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cloudlaunchctl",
	Short: "Run and administer the CloudLaunch API server",
	Long: `cloudlaunchctl runs the CloudLaunch API server and its launch worker, and
manages the database schema, data key, configuration and users.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}
