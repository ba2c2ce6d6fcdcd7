// ABOUTME: Pages command for eonctl
// ABOUTME: Lists the pages the signed-in role may open with their action flags

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/eondash/eon-dashboard/models"
	"github.com/eondash/eon-dashboard/services"
)

var pagesCmd = &cobra.Command{
	Use:   "pages",
	Short: "List accessible pages",
	Long:  `List the pages your role may open, with the create, update and delete actions granted on each.`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runPages(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(pagesCmd)
}

// pageJSON is the --json shape of one accessible page
type pageJSON struct {
	Name    string         `json:"name"`
	Key     string         `json:"key"`
	URL     string         `json:"url"`
	Actions models.Actions `json:"actions"`
}

// runPages lists accessible pages and returns the exit code
func runPages(ctx context.Context, w io.Writer) int {
	s, c, code := signedIn(w)
	if code != exitOK {
		return code
	}

	pages, err := services.NewPermissionResolver(c).Accessible(ctx, s)
	if err != nil {
		return reportAPIError(w, err, "Failed to load pages")
	}

	if IsJSONOutput() {
		fmt.Fprintln(w, formatPagesJSON(pages))
	} else {
		fmt.Fprintln(w, formatPagesHuman(pages))
	}
	return exitOK
}

func formatPagesHuman(pages []models.PageAccess) string {
	if len(pages) == 0 {
		return mutedStyle.Render("No pages available for your role.")
	}
	rows := make([][]string, 0, len(pages))
	for _, p := range pages {
		rows = append(rows, []string{
			p.Name,
			pageKey(p),
			flag(p.Actions.Create),
			flag(p.Actions.Update),
			flag(p.Actions.Delete),
		})
	}
	return renderTable([]string{"Page", "Key", "Create", "Update", "Delete"}, rows)
}

func formatPagesJSON(pages []models.PageAccess) string {
	out := make([]pageJSON, 0, len(pages))
	for _, p := range pages {
		out = append(out, pageJSON{
			Name:    p.Name,
			Key:     pageKey(p),
			URL:     p.URL,
			Actions: p.Actions,
		})
	}
	data, _ := json.MarshalIndent(out, "", "  ")
	return string(data)
}

// pageKey is the argument that opens p with the records command.
func pageKey(p models.PageAccess) string {
	if key := strings.TrimPrefix(p.URL, "/"); key != "" {
		return key
	}
	return services.NormalizePageKey(p.Name)
}
