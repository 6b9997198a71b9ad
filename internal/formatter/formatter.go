// package formatter renders job events, job listings and queue snapshots as text tables, CSV or JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/desertthunder/nzbwatch/internal/models"
	"github.com/desertthunder/nzbwatch/internal/shared"
)

// Format selects an output encoding.
type Format string

const (
	FormatText Format = "text"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat validates a format name. An empty name selects [FormatText].
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(name)); f {
	case "":
		return FormatText, nil
	case FormatText, FormatCSV, FormatJSON:
		return f, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q (want text, csv or json)", shared.ErrInvalidArgument, name)
	}
}

const timeLayout = time.DateTime

var eventHeaders = []string{"Seq", "Time", "Job", "Kind", "Status", "Name", "Message"}

func eventRow(e *models.JobEvent) []string {
	return []string{
		strconv.Itoa(e.Sequence),
		e.CreatedAt.Local().Format(timeLayout),
		e.JobID,
		string(e.Kind),
		string(e.Status),
		e.Name,
		e.Message,
	}
}

var jobHeaders = []string{"Job", "Status", "Name", "Size", "Category", "Uploaded", "Checked", "Failed", "Registered"}

func jobRow(j models.JobView) []string {
	return []string{
		j.ID,
		string(j.Status),
		j.Name,
		j.Size,
		j.Category,
		strconv.FormatBool(j.Uploaded),
		strconv.FormatBool(j.StopDupCheck),
		strconv.FormatBool(j.FailureDispatched),
		j.RegisteredAt.Local().Format(timeLayout),
	}
}

var queueHeaders = []string{"Job", "Status", "Filename", "Category", "Size", "Left", "%"}

func queueRow(s models.QueueSlot) []string {
	return []string{s.ID, s.Status, s.Filename, s.Category, s.Size, s.SizeLeft, s.Percentage}
}

var historyHeaders = []string{"Job", "Status", "Name", "Category", "Size", "Message"}

func historyRow(s models.HistorySlot) []string {
	return []string{s.ID, s.Status, s.Name, s.Category, shared.FormatSize(s.Bytes), s.FailMessage}
}

// Events renders journal entries.
func Events(events []*models.JobEvent, format Format) ([]byte, error) {
	return render(events, format, eventHeaders, eventRow)
}

// Jobs renders a job listing.
func Jobs(jobs []models.JobView, format Format) ([]byte, error) {
	return render(jobs, format, jobHeaders, jobRow)
}

// Queue renders the active download queue.
func Queue(slots []models.QueueSlot, format Format) ([]byte, error) {
	return render(slots, format, queueHeaders, queueRow)
}

// History renders the download history.
func History(slots []models.HistorySlot, format Format) ([]byte, error) {
	return render(slots, format, historyHeaders, historyRow)
}

func render[T any](items []T, format Format, headers []string, row func(T) []string) ([]byte, error) {
	switch format {
	case FormatJSON:
		if items == nil {
			items = []T{}
		}
		return shared.MarshalJSON(items, true)
	case FormatCSV:
		rows := make([][]string, len(items))
		for i, item := range items {
			rows[i] = row(item)
		}
		return toCSV(headers, rows)
	case FormatText, "":
		rows := make([][]string, len(items))
		for i, item := range items {
			rows[i] = row(item)
		}
		return toTable(headers, rows), nil
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
}

func toCSV(headers []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}
	for _, record := range rows {
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}
	return buf.Bytes(), nil
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func toTable(headers []string, rows [][]string) []byte {
	if len(rows) == 0 {
		return []byte("No entries.\n")
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	return []byte(t.Render() + "\n")
}
