package output

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/opensource-telco/lyrebird/internal/domain"
)

func testPopulation() *domain.Population {
	start := time.Date(2026, 1, 5, 9, 30, 0, 0, time.UTC)

	sub := domain.NewSubscriber()
	sub.PhoneNumber = "02012345678"
	sub.NumCalls = 2
	sub.Calls = []*domain.Call{
		{
			ID:          "call-1",
			Cell:        domain.Cell{ID: "C0"},
			Line:        0,
			Type:        "Local",
			Destination: "02087654321",
			Time:        domain.Interval{Start: start, End: start.Add(5 * time.Minute)},
			Cost:        0.75,
			Fraud:       domain.FraudNone,
		},
		{
			ID:          "call-2",
			Cell:        domain.Cell{ID: "C1"},
			Line:        1,
			Type:        "International",
			Destination: "00441234567",
			Time:        domain.Interval{Start: start.Add(time.Hour), End: start.Add(time.Hour + 90*time.Second)},
			Cost:        2.5,
			Fraud:       domain.FraudFar,
		},
	}

	return &domain.Population{Subscribers: []*domain.Subscriber{sub}}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, testPopulation()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("expected header + 2 rows, got %d records", len(records))
	}
	if len(records[0]) != len(Header) {
		t.Errorf("expected %d columns, got %d", len(Header), len(records[0]))
	}

	first := records[1]
	if first[0] != "call-1" || first[1] != "02012345678" || first[4] != "05/01/2026" || first[6] != "09:30:00" {
		t.Errorf("unexpected first row: %v", first)
	}
	if first[10] != "NONE" {
		t.Errorf("expected NONE fraud class, got %q", first[10])
	}
	if records[2][10] != "FAR" {
		t.Errorf("expected FAR fraud class, got %q", records[2][10])
	}
}

func TestWriteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	path, err := WriteFile(dir, "cdr-test.csv", testPopulation())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}
	if len(data) == 0 {
		t.Error("output file is empty")
	}
}
