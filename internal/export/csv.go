// Package export renders leads as a spreadsheet-friendly CSV document.
package export

import (
	"bufio"
	"io"
	"strings"

	"github.com/angelmondragon/pipeline-crm/internal/crm"
)

const (
	ContentType = "text/csv; charset=utf-8"
	FileName    = "leads.csv"
	DateLayout  = "2006-01-02"
)

// Header lists the export columns in order.
var Header = []string{"Name", "Company", "Email", "Phone", "Source", "Stage", "Created", "Latest Note"}

// LeadRows returns the header followed by one row per lead, in input order.
func LeadRows(leads []crm.Lead) [][]string {
	rows := make([][]string, 0, len(leads)+1)
	rows = append(rows, append([]string(nil), Header...))
	for _, lead := range leads {
		latest := ""
		if note, ok := lead.LatestNote(); ok {
			latest = note.Text
		}
		rows = append(rows, []string{
			lead.Name,
			lead.DisplayCompany(),
			lead.Email,
			deref(lead.Phone),
			deref(lead.Source),
			lead.Stage.Label(),
			lead.CreatedAt.UTC().Format(DateLayout),
			latest,
		})
	}
	return rows
}

// WriteCSV writes LeadRows to w. Every cell is double-quoted and embedded
// quotes are doubled.
func WriteCSV(w io.Writer, leads []crm.Lead) error {
	bw := bufio.NewWriter(w)
	for i, row := range LeadRows(leads) {
		if i > 0 {
			if err := bw.WriteByte('\n'); err != nil {
				return err
			}
		}
		for j, cell := range row {
			if j > 0 {
				if err := bw.WriteByte(','); err != nil {
					return err
				}
			}
			if _, err := bw.WriteString(quote(cell)); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

func quote(cell string) string {
	return `"` + strings.ReplaceAll(cell, `"`, `""`) + `"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
