package ui

import (
	"fmt"
	"io"
	"time"

	"barchive/pkg/models"
	"barchive/pkg/report"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// Table renders rows without borders, left aligned
type Table struct {
	table  *tablewriter.Table
	header []string
	rows   [][]string
}

// NewTable creates a table writing to w
func NewTable(w io.Writer, headers ...string) *Table {
	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoFormat: tw.On},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{ShowHeader: tw.Off},
			},
		}),
	)
	return &Table{table: table, header: headers}
}

// AddRow adds a row to the table
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Render writes the table
func (t *Table) Render() error {
	t.table.Header(t.header)
	if err := t.table.Bulk(t.rows); err != nil {
		return fmt.Errorf("failed to add table rows: %w", err)
	}
	return t.table.Render()
}

// RenderEntries lists archive entries with their output file names
func RenderEntries(w io.Writer, feedID string, entries []models.Entry, fileName func(feedID string, end time.Time) string) error {
	t := NewTable(w, "Start", "End", "URI", "File")
	for _, e := range entries {
		t.AddRow(
			e.Start.Format("2006-01-02 15:04"),
			e.End.Format("2006-01-02 15:04"),
			e.URI,
			fileName(feedID, e.End),
		)
	}
	return t.Render()
}

// RenderFailures lists the failed items of a report
func RenderFailures(w io.Writer, items []report.Item) error {
	t := NewTable(w, "URI", "Kind", "Status", "Error")
	for _, item := range items {
		status := "-"
		if item.StatusCode != 0 {
			status = fmt.Sprint(item.StatusCode)
		}
		t.AddRow(item.URI, string(item.ErrorType), status, item.Error)
	}
	return t.Render()
}
