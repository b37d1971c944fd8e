package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/internal/crypto"
)

// dataKeyCmd represents the data-key command
var dataKeyCmd = &cobra.Command{
	Use:   "data-key",
	Short: "Manage the credential data key",
	Long:  `Manage the data key that seals mailbox credentials at rest.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'data-key' requires a subcommand (generate)")
		fmt.Println()
		_ = cmd.Help()
	},
}

var dataKeyGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new data key",
	Long: `Generate a new base64-encoded 256-bit data key.

Store it as NUBO_SECURITY_DATA_KEY. Losing the key makes every stored
mailbox password unreadable.`,
	Run: func(cmd *cobra.Command, args []string) {
		key, err := crypto.NewKey()
		if err != nil {
			fatal(err)
		}
		fmt.Println(key)
	},
}

func init() {
	rootCmd.AddCommand(dataKeyCmd)
	dataKeyCmd.AddCommand(dataKeyGenerateCmd)
}
