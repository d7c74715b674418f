package geo

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/opensource-telco/lyrebird/internal/domain"
)

// ReadCells parses cell records from CSV input with a header row followed by
// id,lat,lon rows.
func ReadCells(r io.Reader) ([]domain.Cell, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	// Skip header
	if _, err := reader.Read(); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cell header: %w", err)
	}

	var cells []domain.Cell
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read cell record: %w", err)
		}
		if len(record) < 3 {
			return nil, fmt.Errorf("cell record %v: expected id,lat,lon", record)
		}

		lat, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, fmt.Errorf("cell %q: invalid latitude %q: %w", record[0], record[1], err)
		}
		lon, err := strconv.ParseFloat(record[2], 64)
		if err != nil {
			return nil, fmt.Errorf("cell %q: invalid longitude %q: %w", record[0], record[2], err)
		}

		cells = append(cells, domain.Cell{ID: record[0], Lat: lat, Lon: lon})
	}

	return cells, nil
}

// LoadRegistry reads a cell CSV file and builds a registry from it.
func LoadRegistry(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cell file %q: %w", path, err)
	}
	defer f.Close()

	cells, err := ReadCells(f)
	if err != nil {
		return nil, err
	}

	return NewRegistry(cells), nil
}
