// Package geo provides the immutable cell tower registry used by the
// generation engine for cell assignment and distance-constrained relocation.
package geo

import (
	"fmt"
	"math/rand/v2"

	"github.com/opensource-telco/lyrebird/internal/domain"
)

// Registry is a read-only set of named cell locations. It is built once at
// startup and safe for concurrent reads from parallel generation runs;
// callers supply their own per-run rand source.
type Registry struct {
	cells []domain.Cell
	byID  map[string]int
}

// NewRegistry builds a registry from a list of cell records. The input is
// copied; the registry never observes later mutations of the slice.
func NewRegistry(cells []domain.Cell) *Registry {
	r := &Registry{
		cells: make([]domain.Cell, len(cells)),
		byID:  make(map[string]int, len(cells)),
	}
	copy(r.cells, cells)
	for i, c := range r.cells {
		r.byID[c.ID] = i
	}
	return r
}

// Size returns the number of cells loaded.
func (r *Registry) Size() int {
	return len(r.cells)
}

// Cells returns a copy of the registry contents in load order.
func (r *Registry) Cells() []domain.Cell {
	out := make([]domain.Cell, len(r.cells))
	copy(out, r.cells)
	return out
}

// RandomCell picks a cell uniformly over the full registry.
func (r *Registry) RandomCell(rng *rand.Rand) (domain.Cell, error) {
	if len(r.cells) == 0 {
		return domain.Cell{}, fmt.Errorf("registry is empty: %w", domain.ErrNotFound)
	}
	return r.cells[rng.IntN(len(r.cells))], nil
}

// CellByID returns the cell with the given id.
func (r *Registry) CellByID(id string) (domain.Cell, error) {
	i, ok := r.byID[id]
	if !ok {
		return domain.Cell{}, fmt.Errorf("no cell with id %q: %w", id, domain.ErrNotFound)
	}
	return r.cells[i], nil
}

// RandomCellAtLeast picks a cell at least minDistanceMeters away from the
// referenced cell, uniformly over the qualifying subset. It filters the
// candidates first and draws one index, so every qualifying cell is equally
// likely regardless of load order.
func (r *Registry) RandomCellAtLeast(fromID string, minDistanceMeters float64, rng *rand.Rand) (domain.Cell, error) {
	from, err := r.CellByID(fromID)
	if err != nil {
		return domain.Cell{}, err
	}

	var candidates []domain.Cell
	for _, c := range r.cells {
		if from.DistanceMeters(c) >= minDistanceMeters {
			candidates = append(candidates, c)
		}
	}

	if len(candidates) == 0 {
		return domain.Cell{}, fmt.Errorf("no cell at least %.0fm from %q: %w", minDistanceMeters, fromID, domain.ErrNotFound)
	}

	return candidates[rng.IntN(len(candidates))], nil
}
