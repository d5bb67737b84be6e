package main

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"regexp"
	"text/tabwriter"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/noah-isme/jury-scheduler-api/internal/dto"
	"github.com/noah-isme/jury-scheduler-api/pkg/export"
)

const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
	formatCSV  = "csv"
)

func writeSummary(w io.Writer, resp *dto.ScheduleJuriesResponse, format string) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(resp); err != nil {
			return err
		}
		return enc.Close()
	case formatCSV:
		return export.WriteCSV(w, juryTable(resp))
	case formatText, "":
		return writeText(w, resp)
	default:
		return fmt.Errorf("unsupported output format %q", format)
	}
}

func writeText(w io.Writer, resp *dto.ScheduleJuriesResponse) error {
	mode := "committed"
	if resp.DryRun {
		mode = "dry run"
	}
	fmt.Fprintf(w, "Department: %s\n", resp.DepartmentID)
	fmt.Fprintf(w, "Start date: %s (%s)\n", resp.StartDate, mode)
	if resp.NoWork {
		fmt.Fprintln(w, "No pending projects.")
		return nil
	}
	fmt.Fprintf(w, "Scheduled %d of %d, %d failed\n\n", resp.Scheduled, resp.Total, resp.Failed)

	if len(resp.Juries) > 0 {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "DATE\tTIME\tROOM\tPROJECT\tSUPERVISOR\tPRESIDENT\tREPORTER")
		for _, j := range resp.Juries {
			fmt.Fprintf(tw, "%s\t%s-%s\t%s\t%s\t%s\t%s\t%s\n",
				j.Date, j.StartTime, j.EndTime, j.Location, j.ProjectTitle, j.SupervisorID, j.PresidentID, j.ReporterID)
		}
		if err := tw.Flush(); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}

	for _, msg := range resp.Errors {
		fmt.Fprintf(w, "unscheduled: %s\n", msg)
	}
	for _, msg := range resp.PersistenceErrors {
		fmt.Fprintf(w, "not saved: %s\n", msg)
	}
	return nil
}

func juryTable(resp *dto.ScheduleJuriesResponse) export.Table {
	table := export.Table{
		Columns: []string{"jury_id", "date", "start", "end", "room", "project_id", "project_title", "supervisor_id", "president_id", "reporter_id"},
		Rows:    make([][]string, 0, len(resp.Juries)),
	}
	for _, j := range resp.Juries {
		table.Rows = append(table.Rows, []string{
			j.JuryID, j.Date, j.StartTime, j.EndTime, j.Location, j.ProjectID, j.ProjectTitle, j.SupervisorID, j.PresidentID, j.ReporterID,
		})
	}
	return table
}

var runFilePattern = regexp.MustCompile(`^[^/]+/\d{4}-\d{2}-\d{2}-\d{8}T\d{6}Z\.(txt|json|yaml|csv)$`)

// isRunFile reports whether rel, relative to the save directory, was named by runFileName.
func isRunFile(rel string) bool {
	return runFilePattern.MatchString(filepath.ToSlash(rel))
}

func runFileName(resp *dto.ScheduleJuriesResponse, format string, at time.Time) string {
	ext := format
	if ext == "" {
		ext = formatText
	}
	if ext == formatText {
		ext = "txt"
	}
	return filepath.Join(resp.DepartmentID, fmt.Sprintf("%s-%s.%s", resp.StartDate, at.UTC().Format("20060102T150405Z"), ext))
}
