package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/internal/domains"
	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/internal/model"
)

// domainsCmd represents the domains command
var domainsCmd = &cobra.Command{
	Use:   "domains",
	Short: "Manage customer mail domains",
	Long:  `Manage customer mail domains and their DNS verification.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'domains' requires a subcommand (add, verify, list)")
		fmt.Println()
		_ = cmd.Help()
	},
}

var domainsAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Register a mail domain",
	Long: `Register a mail domain and print its verification token.

The customer publishes the token as a TXT record on the domain; verify
checks for it along with the MX, SPF, DKIM, and DMARC records.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		st := mustOpenStore(mustLoadConfig())
		defer st.Close()

		workspace, _ := cmd.Flags().GetString("workspace")
		d := &model.Domain{
			WorkspaceID: workspace,
			Name:        args[0],
		}

		if err := st.CreateDomain(context.Background(), d); err != nil {
			fatal(err)
		}

		fmt.Printf("Domain %s registered\n", d.Name)
		fmt.Printf("Publish this TXT record on %s before verifying:\n", d.Name)
		fmt.Printf("  nubo-mail-verification=%s\n", d.VerificationToken)
	},
}

var domainsVerifyCmd = &cobra.Command{
	Use:   "verify <name>",
	Short: "Run the DNS checks for a domain",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()
		log := mustLogger(cfg)
		st := mustOpenStore(cfg)
		defer st.Close()

		ctx := context.Background()
		d, err := st.GetDomainByName(ctx, args[0])
		if err != nil {
			fatal(err)
		}

		verifier := domains.New(cfg.Domains, st, log)
		checks, err := verifier.Verify(ctx, d)
		if err != nil {
			fatal(err)
		}

		allRequired := true
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "CHECK\tRESULT\tDETAIL")
		for _, c := range checks {
			result := "ok"
			detail := c.Found
			if !c.OK {
				result = "FAILED"
				detail = c.Detail
				if detail == "" {
					detail = "expected " + c.Expected
				}
				switch c.Check {
				case model.CheckOwnership, model.CheckMX, model.CheckSPF:
					allRequired = false
				}
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", c.Check, result, detail)
		}
		w.Flush()

		if !allRequired {
			fmt.Printf("\nDomain %s is NOT verified\n", d.Name)
			os.Exit(1)
		}
		fmt.Printf("\nDomain %s is verified\n", d.Name)
	},
}

var domainsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered domains",
	Run: func(cmd *cobra.Command, args []string) {
		st := mustOpenStore(mustLoadConfig())
		defer st.Close()

		list, err := st.ListDomains(context.Background())
		if err != nil {
			fatal(err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "DOMAIN\tSTATUS\tLAST CHECKED")
		for _, d := range list {
			checked := "never"
			if d.LastCheckedAt != nil {
				checked = d.LastCheckedAt.Format("2006-01-02 15:04:05")
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", d.Name, d.Status, checked)
		}
		w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(domainsCmd)
	domainsCmd.AddCommand(domainsAddCmd)
	domainsCmd.AddCommand(domainsVerifyCmd)
	domainsCmd.AddCommand(domainsListCmd)

	domainsAddCmd.Flags().String("workspace", "", "workspace the domain belongs to")
	_ = domainsAddCmd.MarkFlagRequired("workspace")
}
