// ABOUTME: Root command for the eonctl CLI
// ABOUTME: Handles global flags, the stored session and the shared API client

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/eondash/eon-dashboard/cli/internal/sessionfile"
	"github.com/eondash/eon-dashboard/models"
	"github.com/eondash/eon-dashboard/services"
)

var (
	apiURL      string
	jsonOutput  bool
	sessionPath string
)

const (
	defaultAPIURL = "http://localhost:5000/api"
	clientTimeout = 30 * time.Second
)

// Exit codes
const (
	exitOK    = 0
	exitUsage = 1
	exitAPI   = 2
)

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "eonctl",
	Short: "CLI for the EON dashboard",
	Long: `eonctl reads and manages EON dashboard pages from a terminal.

It signs in against the same REST API as the web dashboard and honors the
same per-page permissions.

Environment Variables:
  EON_API_URL       REST API base URL (default: http://localhost:5000/api)
  EON_SESSION_FILE  Where the login is stored (default: <config dir>/eonctl/session.json)`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "REST API base URL (overrides EON_API_URL)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output JSON instead of human-readable text")
	rootCmd.PersistentFlags().StringVar(&sessionPath, "session-file", "", "Session file path (overrides EON_SESSION_FILE)")
}

// GetAPIURL returns the API URL from flag, env, or default (in priority order)
func GetAPIURL() string {
	url := defaultAPIURL
	if apiURL != "" {
		url = apiURL
	} else if envURL := os.Getenv("EON_API_URL"); envURL != "" {
		url = envURL
	}
	return strings.TrimRight(url, "/")
}

// IsJSONOutput returns whether JSON output is requested
func IsJSONOutput() bool {
	return jsonOutput
}

func openSessionFile() (*sessionfile.File, error) {
	if sessionPath != "" {
		return sessionfile.New(sessionPath), nil
	}
	if envPath := os.Getenv("EON_SESSION_FILE"); envPath != "" {
		return sessionfile.New(envPath), nil
	}
	path, err := sessionfile.DefaultPath()
	if err != nil {
		return nil, err
	}
	return sessionfile.New(path), nil
}

// newAPIClient builds a client whose 401 handling forgets the stored login.
func newAPIClient(sf *sessionfile.File) (*services.APIClient, error) {
	c, err := services.NewAPIClient(services.ClientOptions{
		BaseURL: GetAPIURL(),
		Timeout: clientTimeout,
	})
	if err != nil {
		return nil, err
	}
	c.OnUnauthorized(func(_ context.Context, _ *models.Session) {
		if err := sf.Clear(); err != nil {
			slog.Warn("Failed to clear session file", "error", err)
		}
	})
	return c, nil
}

// signedIn opens the session file, loads the login and builds a client.
// On failure it reports to w and returns the exit code.
func signedIn(w io.Writer) (*models.Session, *services.APIClient, int) {
	sf, err := openSessionFile()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return nil, nil, exitUsage
	}
	s, err := sf.Load(GetAPIURL())
	if errors.Is(err, sessionfile.ErrNoSession) {
		fmt.Fprintln(w, "Not logged in. Run 'eonctl login' first.")
		return nil, nil, exitUsage
	}
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return nil, nil, exitUsage
	}
	c, err := newAPIClient(sf)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return nil, nil, exitUsage
	}
	return s, c, exitOK
}

// reportAPIError prints err for the user and returns the exit code.
func reportAPIError(w io.Writer, err error, fallback string) int {
	if errors.Is(err, services.ErrUnauthorized) {
		fmt.Fprintln(w, "Session expired. Run 'eonctl login' again.")
		return exitAPI
	}
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		fmt.Fprintf(w, "Error: %s\n", verr.Message)
		return exitUsage
	}
	msg := services.UserMessage(err, "")
	if msg == "" {
		msg = fmt.Sprintf("%s: %v", fallback, err)
	}
	fmt.Fprintf(w, "Error: %s\n", msg)
	return exitAPI
}
