// Package output serializes generated populations into CDR files.
package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/opensource-telco/lyrebird/internal/domain"
)

const (
	dateLayout = "02/01/2006"
	timeLayout = "15:04:05"
)

// Header is the column list of one CDR row.
var Header = []string{
	"id", "subscriber", "line", "destination",
	"start_date", "end_date", "start_time", "end_time",
	"type", "cost", "fraud",
}

// WriteCSV streams every call of the population as one CSV row per call,
// subscribers in generation order.
func WriteCSV(w io.Writer, pop *domain.Population) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(Header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for _, sub := range pop.Subscribers {
		for _, call := range sub.Calls {
			record := []string{
				call.ID,
				sub.PhoneNumber,
				strconv.Itoa(call.Line),
				call.Destination,
				call.Time.Start.Format(dateLayout),
				call.Time.End.Format(dateLayout),
				call.Time.Start.Format(timeLayout),
				call.Time.End.Format(timeLayout),
				call.Type,
				strconv.FormatFloat(call.Cost, 'f', 2, 64),
				string(call.Fraud),
			}
			if err := writer.Write(record); err != nil {
				return fmt.Errorf("failed to write call %s: %w", call.ID, err)
			}
		}
	}

	writer.Flush()
	return writer.Error()
}

// WriteFile writes the population to a CSV file, creating the directory if
// needed, and returns the path written.
func WriteFile(dir, name string, pop *domain.Population) (string, error) {
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	if err := WriteCSV(f, pop); err != nil {
		return "", err
	}
	return path, nil
}
