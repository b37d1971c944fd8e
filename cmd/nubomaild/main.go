// Command nubomaild runs the Nubo Mail synchronization daemon and its
// operational tooling.
//
// The daemon polls every active IMAP and POP3 connection on a fixed
// interval, stores message metadata in the database and raw bodies in
// object storage, and relays outbound mail through the upstream SMTP
// server. One-shot subcommands manage migrations, connections, domains,
// and test deliveries.
//
// Configuration comes from an optional YAML file plus NUBO_-prefixed
// environment variables (NUBO_DATABASE_URL, NUBO_SECURITY_DATA_KEY,
// NUBO_STORAGE_BUCKET, ...). A .env file in the working directory is
// loaded first.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

// version is stamped by the release build.
var version = "dev"

var configFile string

var rootCmd = &cobra.Command{
	Use:     "nubomaild",
	Short:   "Nubo Mail mailbox synchronization service",
	Long:    `nubomaild keeps workspace mailboxes synchronized and relays outbound mail.`,
	Version: version,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func main() {
	Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "path to config file")
}
