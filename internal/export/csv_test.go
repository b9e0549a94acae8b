package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/pipeline-crm/internal/crm"
	"github.com/angelmondragon/pipeline-crm/pkg/enums"
)

func strPtr(s string) *string { return &s }

func sampleLeads() []crm.Lead {
	return []crm.Lead{
		{
			Name: "Ada Lovelace", Company: strPtr("Analytical, Ltd"), Email: "ada@example.com",
			Phone: strPtr("555-0100"), Source: strPtr("referral"),
			Stage:     enums.PipelineStageClosedWon,
			CreatedAt: time.Date(2026, time.January, 2, 15, 4, 5, 0, time.UTC),
			Notes: []crm.Note{
				{Text: `said "yes"`},
				{Text: "first call"},
			},
		},
		{
			Name: "Grace", Email: "grace@navy.mil",
			Stage:     enums.PipelineStageNew,
			CreatedAt: time.Date(2026, time.February, 28, 0, 0, 0, 0, time.UTC),
		},
	}
}

func TestLeadRows(t *testing.T) {
	rows := LeadRows(sampleLeads())
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	if !reflect.DeepEqual(rows[0], Header) {
		t.Fatalf("unexpected header: %v", rows[0])
	}
	want := []string{"Ada Lovelace", "Analytical, Ltd", "ada@example.com", "555-0100", "referral", "Closed Won", "2026-01-02", `said "yes"`}
	if !reflect.DeepEqual(rows[1], want) {
		t.Fatalf("expected %v, got %v", want, rows[1])
	}
	want = []string{"Grace", "", "grace@navy.mil", "", "", "New Lead", "2026-02-28", ""}
	if !reflect.DeepEqual(rows[2], want) {
		t.Fatalf("expected %v, got %v", want, rows[2])
	}
}

func TestLeadRowsEmpty(t *testing.T) {
	rows := LeadRows(nil)
	if len(rows) != 1 {
		t.Fatalf("expected header only, got %d rows", len(rows))
	}
}

func TestWriteCSVQuotesEveryCell(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleLeads()[1:]); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `"Name","Company","Email","Phone","Source","Stage","Created","Latest Note"` + "\n" +
		`"Grace","","grace@navy.mil","","","New Lead","2026-02-28",""`
	if buf.String() != want {
		t.Fatalf("unexpected output:\n%s", buf.String())
	}
}

func TestWriteCSVIsParseable(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, sampleLeads()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	records, err := csv.NewReader(strings.NewReader(buf.String())).ReadAll()
	if err != nil {
		t.Fatalf("output not parseable: %v", err)
	}
	if !reflect.DeepEqual(records, LeadRows(sampleLeads())) {
		t.Fatalf("round trip mismatch: %v", records)
	}
}

type failingWriter struct{}

func (failingWriter) Write(p []byte) (int, error) { return 0, errors.New("broken pipe") }

func TestWriteCSVPropagatesWriterErrors(t *testing.T) {
	if err := WriteCSV(failingWriter{}, sampleLeads()); err == nil {
		t.Fatal("expected write error")
	}
}
