package main

import (
	"fmt"
	"os"

	_ "github.com/joho/godotenv/autoload"

	"github.com/spf13/cobra"

	"github.com/saheer07/portfolio/internal/contact"
)

// Version is set via ldflags at build time.
var Version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "Single-page portfolio server",
	Long: `Serves the portfolio page with HTMX-driven navigation and a contact
form that relays messages through EmailJS, SMTP, or the log.`,
	SilenceUsage: true,
	// Running without a subcommand starts the server.
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context(), cfgFile)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return serve(cmd.Context(), cfgFile)
	},
}

var testForm contact.Form

var sendTestCmd = &cobra.Command{
	Use:   "send-test",
	Short: "Send one message through the configured delivery provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		return sendTest(cmd.Context(), cfgFile, testForm, cmd.OutOrStdout())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "portfolio %s\n", Version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "portfolio.yml", "config file path")

	sendTestCmd.Flags().StringVar(&testForm.Name, "name", "Portfolio Test", "sender name")
	sendTestCmd.Flags().StringVar(&testForm.Email, "email", "test@example.com", "sender email")
	sendTestCmd.Flags().StringVar(&testForm.Message, "message", "Test message from the portfolio CLI.", "message body")

	rootCmd.AddCommand(serveCmd, sendTestCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
