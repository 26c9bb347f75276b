package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/inboxfw/inboxfw"
)

var serviceURL string
var credDir string
var debug bool

func main() {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

// NewRootCmd constructs the root CLI command; exposed for unit testing.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "inboxfw",
		Short: "CLI for the inboxfw mailbox sync engine",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Local overrides (service URL, debug) may live in a .env file.
			_ = godotenv.Load()

			log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
			if debug {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
				os.Setenv("INBOXFW_DEBUG", "true")
				log.Debug().Msg("debug logging enabled")
			} else {
				zerolog.SetGlobalLevel(zerolog.InfoLevel)
			}
		},
	}

	defaultURL := getEnv("INBOXFW_SERVICE_URL", "http://localhost:8000")
	rootCmd.PersistentFlags().StringVar(&serviceURL, "service-url", defaultURL, "Base URL of the mailbox backend")
	rootCmd.PersistentFlags().StringVar(&credDir, "cred-dir", "", "Directory for file-based credential storage (default: system keyring)")
	rootCmd.PersistentFlags().BoolVarP(&debug, "debug", "d", false, "Enable verbose debug output")

	rootCmd.AddCommand(newRegisterCmd())
	rootCmd.AddCommand(newLoginCmd())
	rootCmd.AddCommand(newLogoutCmd())
	rootCmd.AddCommand(newSendCmd())
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newActionsCmd())
	rootCmd.AddCommand(newToggleCmd())
	rootCmd.AddCommand(newWatchCmd())

	return rootCmd
}

func newClient() *inboxfw.Client {
	opts := []inboxfw.Option{}
	if credDir != "" {
		opts = append(opts, inboxfw.WithFileCredentials(credDir))
	}
	return inboxfw.New(serviceURL, opts...)
}

func newRegisterCmd() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()
			defer func() { _ = c.Close() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()

			if err := c.Register(ctx, username, password); err != nil {
				return err
			}
			fmt.Printf("Registered and logged in as %s\n", username)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Account username (required)")
	cmd.Flags().StringVar(&password, "password", "", "Account password (required)")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLoginCmd() *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Exchange credentials for a session token and persist it",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()
			defer func() { _ = c.Close() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()

			if err := c.Login(ctx, username, password); err != nil {
				return err
			}
			fmt.Printf("Logged in as %s\n", username)
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "Account username (required)")
	cmd.Flags().StringVar(&password, "password", "", "Account password (required)")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Erase the persisted session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()
			defer func() { _ = c.Close() }()

			if err := c.Logout(); err != nil {
				return err
			}
			fmt.Println("Logged out")
			return nil
		},
	}
}

func newSendCmd() *cobra.Command {
	var to, subject, body string

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send an email to another user",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()
			defer func() { _ = c.Close() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()

			if err := c.SendEmail(ctx, to, subject, body); err != nil {
				return err
			}
			fmt.Printf("Sent to %s\n", to)
			return nil
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "Recipient username (required)")
	cmd.Flags().StringVar(&subject, "subject", "", "Subject line (required)")
	cmd.Flags().StringVar(&body, "body", "", "Message body (required)")
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("subject")
	_ = cmd.MarkFlagRequired("body")
	return cmd
}

func newListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the inbox with enrichment annotations",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()
			defer func() { _ = c.Close() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()

			if err := c.Refresh(ctx); err != nil {
				return err
			}

			emails := c.Inbox()
			for _, e := range emails {
				fmt.Printf("%s\t%s\t%s%s\n", e.ID, e.SenderUsername, e.Subject, annotations(e))
			}
			fmt.Printf("Total: %d\n", len(emails))
			return nil
		},
	}
	return cmd
}

// annotations renders the enrichment fields the backend has filled in so far.
func annotations(e inboxfw.EmailRecord) string {
	var tags []string
	if e.SpamLabel != nil && *e.SpamLabel == "spam" {
		tags = append(tags, "spam")
	}
	if e.Priority != nil {
		tags = append(tags, "priority:"+*e.Priority)
	}
	if e.ToneEmotion != nil {
		tags = append(tags, "tone:"+*e.ToneEmotion)
	}
	if e.URLScanVerdict != nil {
		tags = append(tags, "urls:"+*e.URLScanVerdict)
	}
	if n := len(e.ActionItems); n > 0 {
		tags = append(tags, fmt.Sprintf("items:%d", n))
	}
	if len(tags) == 0 {
		return ""
	}
	return "\t[" + strings.Join(tags, " ") + "]"
}

func newActionsCmd() *cobra.Command {
	var pending bool

	cmd := &cobra.Command{
		Use:   "actions",
		Short: "List action items across all emails",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()
			defer func() { _ = c.Close() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()

			if err := c.Refresh(ctx); err != nil {
				return err
			}

			items := c.ActionItems()
			shown := 0
			for _, it := range items {
				if pending && it.Done {
					continue
				}
				mark := " "
				if it.Done {
					mark = "x"
				}
				fmt.Printf("[%s] %s/%d\t%s\t(%s: %s)\n", mark, it.EmailID, it.Index, it.Text, it.SenderUsername, it.EmailSubject)
				shown++
			}
			fmt.Printf("Total: %d\n", shown)
			return nil
		},
	}

	cmd.Flags().BoolVar(&pending, "pending", false, "Show only items not yet done")
	return cmd
}

func newToggleCmd() *cobra.Command {
	var emailID string
	var index int

	cmd := &cobra.Command{
		Use:   "toggle",
		Short: "Toggle an action item's done flag",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()
			defer func() { _ = c.Close() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
			defer cancel()

			if err := c.ToggleActionItem(ctx, emailID, index); err != nil {
				return err
			}
			fmt.Println("OK")
			return nil
		},
	}

	cmd.Flags().StringVar(&emailID, "email-id", "", "Owning email ID (required)")
	cmd.Flags().IntVar(&index, "index", 0, "Item index within the email")
	_ = cmd.MarkFlagRequired("email-id")
	return cmd
}

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow the push stream and print activity until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newClient()
			defer func() { _ = c.Close() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := c.Refresh(ctx); err != nil {
				return err
			}
			fmt.Printf("Watching %s (Ctrl-C to stop)\n", serviceURL)

			// The engine keeps syncing in the background; surface its
			// notification queue as a console feed.
			seen := map[string]bool{}
			ticker := time.NewTicker(500 * time.Millisecond)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					fmt.Println("Stopped")
					return nil
				case <-ticker.C:
					for _, n := range c.Notifications() {
						if seen[n.ID] {
							continue
						}
						seen[n.ID] = true
						fmt.Printf("%s  %-8s %s  %s\n", n.CreatedAt.Format("15:04:05"), n.Kind, n.Title, n.Message)
					}
				}
			}
		},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
