package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"barchive/pkg/auth"
	"barchive/pkg/ui"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// authCmd represents the auth command
var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Manage Broadcastify credentials",
	Long: `Manage stored Broadcastify credentials.

Credentials are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - Environment variables (read only)`,
}

var loginCmd = &cobra.Command{
	Use:   "login [username]",
	Short: "Store Broadcastify credentials securely",
	Example: `  # Interactive login
  barchive auth login

  # Login with username
  barchive auth login scanner`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout <username>",
	Short: "Remove stored credentials",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogout,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored accounts",
	RunE:  runList,
}

func init() {
	rootCmd.AddCommand(authCmd)
	authCmd.AddCommand(loginCmd)
	authCmd.AddCommand(logoutCmd)
	authCmd.AddCommand(listCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	auth.ShowLoginGuide(ui.Output)
	reader := bufio.NewReader(os.Stdin)

	var username string
	if len(args) > 0 {
		username = strings.TrimSpace(args[0])
	}
	if username == "" {
		fmt.Fprint(ui.Output, "Broadcastify username: ")
		input, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("failed to read username: %w", err)
		}
		username = strings.TrimSpace(input)
	}
	if username == "" {
		return auth.ErrMissingCredentials
	}

	if existing, _ := manager.Retrieve(username); existing != nil {
		fmt.Fprintf(ui.Output, "Account '%s' already exists. Update password? (y/N): ", username)
		input, _ := reader.ReadString('\n')
		if !strings.HasPrefix(strings.ToLower(strings.TrimSpace(input)), "y") {
			return nil
		}
	}

	fmt.Fprint(ui.Output, "Password: ")
	password, err := readPassword(reader)
	fmt.Fprintln(ui.Output)
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	if password == "" {
		return auth.ErrMissingCredentials
	}

	if err := manager.Store(&auth.Account{Username: username, Password: password}); err != nil {
		return err
	}

	ui.PrintSuccess("Account saved: %s", username)
	fmt.Fprintln(ui.Output, "\nDownload a built feed with:")
	fmt.Fprintln(ui.Output, "  $ barchive download <feed-id> --all")
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	if err := manager.Delete(args[0]); err != nil {
		return err
	}
	ui.PrintSuccess("Account removed: %s", args[0])
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	manager, err := auth.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize credential manager: %w", err)
	}

	accounts, err := manager.List()
	if err != nil {
		return fmt.Errorf("failed to list accounts: %w", err)
	}
	if len(accounts) == 0 {
		ui.PrintInfo("No stored accounts", "use 'barchive auth login' to add one")
		return nil
	}

	table := ui.NewTable(ui.Output, "Username", "Password", "Last Modified")
	for i, account := range accounts {
		sanitized := auth.SanitizeAccount(account)
		name := sanitized.Username
		if i == 0 {
			name += " (default)"
		}
		lastModified := "-"
		if !sanitized.LastModified.IsZero() {
			lastModified = sanitized.LastModified.Format("2006-01-02 15:04:05")
		}
		table.AddRow(name, sanitized.Password, lastModified)
	}
	return table.Render()
}

// readPassword reads a line without echo when stdin is a terminal
func readPassword(reader *bufio.Reader) (string, error) {
	fd := int(syscall.Stdin)
	if !term.IsTerminal(fd) {
		line, err := reader.ReadString('\n')
		return strings.TrimSpace(line), err
	}
	data, err := term.ReadPassword(fd)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
