// ABOUTME: Login and logout commands for eonctl
// ABOUTME: Exchanges credentials for an API token and stores it in the session file

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/eondash/eon-dashboard/cli/internal/sessionfile"
	"github.com/eondash/eon-dashboard/services"
)

// promptFunc fills in whichever credentials are still empty.
type promptFunc func(email, password *string) error

var (
	loginEmail    string
	loginPassword string

	// prompt is replaced in tests.
	prompt promptFunc = promptCredentials
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the REST API",
	Long:  `Sign in with an email and password. The password is prompted for when not given.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runLogin(ctx, os.Stdout, loginEmail, loginPassword)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored login",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		exitCode := runLogout(os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Account password (prompted when omitted)")
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
}

// runLogin signs in and returns the exit code
func runLogin(ctx context.Context, w io.Writer, email, password string) int {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		if err := prompt(&email, &password); err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return exitUsage
		}
		email = strings.TrimSpace(email)
	}
	if email == "" || password == "" {
		fmt.Fprintln(w, "Error: email and password are required")
		return exitUsage
	}

	sf, err := openSessionFile()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitUsage
	}
	c, err := newAPIClient(sf)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitUsage
	}

	login, err := c.Login(ctx, email, password)
	if err != nil {
		var apiErr *services.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode < 500 {
			fmt.Fprintf(w, "Error: %s\n", services.UserMessage(err, "Invalid email or password"))
			return exitAPI
		}
		return reportAPIError(w, err, "Login failed")
	}

	s, err := sf.Save(GetAPIURL(), login)
	if errors.Is(err, sessionfile.ErrIncompleteLogin) {
		fmt.Fprintln(w, "Error: login failed, the server returned an incomplete response")
		return exitAPI
	}
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitUsage
	}

	if IsJSONOutput() {
		data, _ := json.MarshalIndent(map[string]any{
			"username":   s.Username,
			"user_id":    s.UserID,
			"role_id":    s.RoleID,
			"expires_at": s.ExpiresAt,
		}, "", "  ")
		fmt.Fprintln(w, string(data))
	} else {
		fmt.Fprintf(w, "%s %s\n", okStyle.Render("Logged in as"), s.Username)
	}
	return exitOK
}

// runLogout removes the stored login and returns the exit code
func runLogout(w io.Writer) int {
	sf, err := openSessionFile()
	if err == nil {
		err = sf.Clear()
	}
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitUsage
	}
	fmt.Fprintln(w, "Logged out")
	return exitOK
}

func promptCredentials(email, password *string) error {
	var fields []huh.Field
	if *email == "" {
		fields = append(fields, huh.NewInput().
			Title("Email").
			Value(email).
			Validate(required("email")))
	}
	if *password == "" {
		fields = append(fields, huh.NewInput().
			Title("Password").
			EchoMode(huh.EchoModePassword).
			Value(password).
			Validate(required("password")))
	}
	if len(fields) == 0 {
		return nil
	}
	return huh.NewForm(huh.NewGroup(fields...)).Run()
}

func required(name string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}
