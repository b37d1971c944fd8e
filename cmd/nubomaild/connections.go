package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/internal/config"
	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/internal/mailbox"
	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/internal/mailbox/imap"
	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/internal/mailbox/pop3"
	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/internal/model"
	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/internal/relay"
	"github.com/Chandorkar-Technologies/Nubo-Mail-sub002/internal/store"
)

// connectionsCmd represents the connections command
var connectionsCmd = &cobra.Command{
	Use:   "connections",
	Short: "Manage mailbox connections",
	Long:  `Manage the mailbox connections the daemon synchronizes.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("error: Command 'connections' requires a subcommand (add, list, test, enable, disable)")
		fmt.Println()
		_ = cmd.Help()
	},
}

var connectionsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Register a mailbox connection",
	Long: `Register a mailbox connection for syncing.

The password is sealed with the configured data key before it is stored.

Example:
  nubomaild connections add --workspace ws-1 --address pat@example.com \
    --host imap.example.com --port 993 \
    --smtp-host smtp.example.com --smtp-port 465 \
    --username pat@example.com --password secret`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()
		encryptor := mustEncryptor(cfg)
		st := mustOpenStore(cfg)
		defer st.Close()

		flags := cmd.Flags()
		password, _ := flags.GetString("password")
		if password == "" {
			fatal(fmt.Errorf("--password is required"))
		}
		sealed, err := encryptor.Encrypt([]byte(password))
		if err != nil {
			fatal(fmt.Errorf("sealing password: %w", err))
		}

		protocol, _ := flags.GetString("protocol")
		if protocol != string(model.ProtocolIMAP) && protocol != string(model.ProtocolPOP3) {
			fatal(fmt.Errorf("unsupported protocol %q (imap or pop3)", protocol))
		}

		workspace, _ := flags.GetString("workspace")
		address, _ := flags.GetString("address")
		host, _ := flags.GetString("host")
		port, _ := flags.GetInt("port")
		smtpHost, _ := flags.GetString("smtp-host")
		smtpPort, _ := flags.GetInt("smtp-port")
		username, _ := flags.GetString("username")
		useTLS, _ := flags.GetBool("tls")
		folders, _ := flags.GetStringSlice("folders")

		conn := &model.Connection{
			WorkspaceID: workspace,
			Address:     address,
			Protocol:    model.Protocol(protocol),
			Host:        host,
			Port:        port,
			SMTPHost:    smtpHost,
			SMTPPort:    smtpPort,
			Username:    username,
			PasswordEnc: sealed,
			UseTLS:      useTLS,
			Folders:     folders,
		}

		if err := st.CreateConnection(context.Background(), conn); err != nil {
			fatal(err)
		}
		fmt.Printf("Connection %s registered for %s\n", conn.ID, conn.Address)
	},
}

var connectionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered connections",
	Run: func(cmd *cobra.Command, args []string) {
		st := mustOpenStore(mustLoadConfig())
		defer st.Close()

		ctx := context.Background()
		connections, err := st.ListConnections(ctx)
		if err != nil {
			fatal(err)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ADDRESS\tPROTOCOL\tSTATUS\tMESSAGES\tLAST SYNC\tLAST ERROR")
		for _, conn := range connections {
			count, err := st.CountEmails(ctx, conn.ID)
			if err != nil {
				fatal(err)
			}

			lastSync := "never"
			if conn.LastSyncedAt != nil {
				lastSync = conn.LastSyncedAt.Format("2006-01-02 15:04:05")
			}

			fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%s\t%s\n",
				conn.Address, conn.Protocol, conn.Status, count, lastSync, conn.LastError)
		}
		w.Flush()
	},
}

var connectionsTestCmd = &cobra.Command{
	Use:   "test <address-or-id>",
	Short: "Probe a connection's mailbox and SMTP servers",
	Long: `Probe a connection's servers and print a result per probe.

The mailbox probe logs in and opens INBOX; the SMTP probe dials the
connection's submission server and authenticates.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()
		encryptor := mustEncryptor(cfg)
		st := mustOpenStore(cfg)
		defer st.Close()

		ctx := context.Background()
		conn := mustFindConnection(ctx, st, args[0])

		password, err := encryptor.Decrypt(conn.PasswordEnc)
		if err != nil {
			fatal(fmt.Errorf("unsealing password: %w", err))
		}

		acct := mailbox.Account{
			ID:       conn.ID,
			Address:  conn.Address,
			Protocol: conn.Protocol,
			Host:     conn.Host,
			Port:     conn.Port,
			Username: conn.Username,
			Password: string(password),
			UseTLS:   conn.UseTLS,
			Folders:  conn.Folders,
		}

		failed := false

		var mailboxErr error
		switch conn.Protocol {
		case model.ProtocolPOP3:
			mailboxErr = pop3.TestConnection(acct)
		default:
			mailboxErr = imap.TestConnection(acct)
		}
		failed = printProbe(string(conn.Protocol), mailboxErr) || failed

		if conn.SMTPHost != "" {
			smtpErr := relay.Probe(config.RelayConfig{
				Host:     conn.SMTPHost,
				Port:     conn.SMTPPort,
				Username: conn.Username,
				Password: string(password),
				StartTLS: !conn.UseTLS,
			})
			failed = printProbe("smtp", smtpErr) || failed
		}

		if failed {
			os.Exit(1)
		}
	},
}

var connectionsEnableCmd = &cobra.Command{
	Use:   "enable <address-or-id>",
	Short: "Resume syncing a connection",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		setConnectionStatus(args[0], model.ConnectionActive)
	},
}

var connectionsDisableCmd = &cobra.Command{
	Use:   "disable <address-or-id>",
	Short: "Stop syncing a connection",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		setConnectionStatus(args[0], model.ConnectionDisabled)
	},
}

func setConnectionStatus(ref, status string) {
	st := mustOpenStore(mustLoadConfig())
	defer st.Close()

	ctx := context.Background()
	conn := mustFindConnection(ctx, st, ref)

	if err := st.SetConnectionStatus(ctx, conn.ID, status); err != nil {
		fatal(err)
	}
	fmt.Printf("Connection %s is now %s\n", conn.Address, status)
}

// mustFindConnection resolves a connection by id or mailbox address.
func mustFindConnection(ctx context.Context, st *store.SQLStore, ref string) *model.Connection {
	if conn, err := st.GetConnection(ctx, ref); err == nil {
		return conn
	}

	connections, err := st.ListConnections(ctx)
	if err != nil {
		fatal(err)
	}
	for i := range connections {
		if strings.EqualFold(connections[i].Address, ref) {
			return &connections[i]
		}
	}

	fatal(fmt.Errorf("no connection matches %q", ref))
	return nil
}

// printProbe reports one probe outcome and returns whether it failed.
func printProbe(name string, err error) bool {
	if err != nil {
		fmt.Printf("%-6s FAILED: %v\n", name, err)
		return true
	}
	fmt.Printf("%-6s ok\n", name)
	return false
}

func init() {
	rootCmd.AddCommand(connectionsCmd)
	connectionsCmd.AddCommand(connectionsAddCmd)
	connectionsCmd.AddCommand(connectionsListCmd)
	connectionsCmd.AddCommand(connectionsTestCmd)
	connectionsCmd.AddCommand(connectionsEnableCmd)
	connectionsCmd.AddCommand(connectionsDisableCmd)

	flags := connectionsAddCmd.Flags()
	flags.String("workspace", "", "workspace the mailbox belongs to")
	flags.String("address", "", "mailbox address, e.g. pat@example.com")
	flags.String("protocol", "imap", "mailbox protocol (imap or pop3)")
	flags.String("host", "", "mailbox server host")
	flags.Int("port", 993, "mailbox server port")
	flags.String("smtp-host", "", "submission server host")
	flags.Int("smtp-port", 465, "submission server port")
	flags.String("username", "", "login username")
	flags.String("password", "", "login password (sealed before storage)")
	flags.Bool("tls", true, "connect over implicit TLS")
	flags.StringSlice("folders", nil, "folders to sync (default: all selectable)")

	_ = connectionsAddCmd.MarkFlagRequired("workspace")
	_ = connectionsAddCmd.MarkFlagRequired("address")
	_ = connectionsAddCmd.MarkFlagRequired("host")
	_ = connectionsAddCmd.MarkFlagRequired("username")
}
