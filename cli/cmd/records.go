// ABOUTME: Records commands for eonctl
// ABOUTME: Prints a page's schema-driven table and deletes records by id

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

	"github.com/spf13/cobra"

	"github.com/eondash/eon-dashboard/crud"
	"github.com/eondash/eon-dashboard/models"
	"github.com/eondash/eon-dashboard/services"
)

var recordsCmd = &cobra.Command{
	Use:   "records <page>",
	Short: "Show a page's records",
	Long:  `Show the records of a page as a table laid out by the page's field schema.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runRecords(ctx, os.Stdout, args[0])
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var recordsDeleteCmd = &cobra.Command{
	Use:   "delete <page> <id>",
	Short: "Delete a record",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runRecordsDelete(ctx, os.Stdout, args[0], args[1])
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	recordsCmd.AddCommand(recordsDeleteCmd)
	rootCmd.AddCommand(recordsCmd)
}

// recordsJSON is the --json shape of a loaded page
type recordsJSON struct {
	Page    string           `json:"page"`
	Actions models.Actions   `json:"actions"`
	Fields  []models.Field   `json:"fields"`
	Records []map[string]any `json:"records"`
}

// loadPage resolves permission then fetches the page. A view that is not
// ready is reported to w with its exit code.
func loadPage(ctx context.Context, w io.Writer, c *services.APIClient, s *models.Session, page string) (*crud.PageView, int) {
	controller := crud.NewController(c, services.NewPermissionResolver(c))
	v := controller.Load(ctx, s, page)

	switch v.State {
	case crud.StateReady:
		return v, exitOK
	case crud.StateDenied:
		fmt.Fprintf(w, "%s %s\n", deniedStyle.Render("Access denied:"), "you do not have permission to view "+page)
		return nil, exitAPI
	default:
		if errors.Is(v.Err, services.ErrUnauthorized) {
			return nil, reportAPIError(w, v.Err, "")
		}
		fmt.Fprintln(w, v.ErrorMessage())
		return nil, exitAPI
	}
}

// runRecords prints one page and returns the exit code
func runRecords(ctx context.Context, w io.Writer, page string) int {
	s, c, code := signedIn(w)
	if code != exitOK {
		return code
	}

	v, code := loadPage(ctx, w, c, s, page)
	if code != exitOK {
		return code
	}

	if IsJSONOutput() {
		fmt.Fprintln(w, formatRecordsJSON(v))
	} else {
		fmt.Fprintln(w, formatRecordsHuman(v, c.FileURL))
	}
	return exitOK
}

// runRecordsDelete removes one record and returns the exit code
func runRecordsDelete(ctx context.Context, w io.Writer, page, id string) int {
	if strings.TrimSpace(id) == "" {
		fmt.Fprintln(w, "Error: record id is required")
		return exitUsage
	}

	s, c, code := signedIn(w)
	if code != exitOK {
		return code
	}

	v, code := loadPage(ctx, w, c, s, page)
	if code != exitOK {
		return code
	}

	controller := crud.NewController(c, services.NewPermissionResolver(c))
	if err := controller.Delete(ctx, s, v, id); err != nil {
		if errors.Is(err, services.ErrActionNotPermitted) {
			fmt.Fprintf(w, "%s %s\n", deniedStyle.Render("Access denied:"), "you may not delete records in "+v.Title)
			return exitAPI
		}
		return reportAPIError(w, err, "Failed to delete data")
	}

	if IsJSONOutput() {
		data, _ := json.MarshalIndent(map[string]string{"page": v.Key, "deleted": id}, "", "  ")
		fmt.Fprintln(w, string(data))
	} else {
		fmt.Fprintf(w, "%s %s from %s\n", okStyle.Render("Deleted"), id, v.Title)
	}
	return exitOK
}

func formatRecordsHuman(v *crud.PageView, fileURL func(string) string) string {
	t := v.Table()
	title := titleStyle.Render(v.Title)
	if t.Empty() {
		return title + "\n" + mutedStyle.Render("No data available")
	}

	headers := append([]string{"ID"}, t.Headers...)
	rows := make([][]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		row := make([]string, 0, len(r.Cells)+1)
		row = append(row, r.ID)
		for _, cell := range r.Cells {
			if cell.IsFile() {
				row = append(row, fileURL(cell.FilePath))
			} else {
				row = append(row, cell.Text)
			}
		}
		rows = append(rows, row)
	}
	return title + "\n" + renderTable(headers, rows)
}

func formatRecordsJSON(v *crud.PageView) string {
	out := recordsJSON{
		Page:    v.Key,
		Actions: v.Actions,
		Fields:  v.Fields,
		Records: make([]map[string]any, 0, len(v.Records)),
	}
	for _, r := range v.Records {
		rec := make(map[string]any, len(r.Values)+1)
		for k, val := range r.Values {
			rec[k] = val
		}
		rec["_id"] = r.ID
		out.Records = append(out.Records, rec)
	}
	data, _ := json.MarshalIndent(out, "", "  ")
	return string(data)
}
