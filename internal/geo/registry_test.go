package geo

import (
	"errors"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opensource-telco/lyrebird/internal/domain"
)

func testRand() *rand.Rand {
	return rand.New(rand.NewPCG(42, 1))
}

func testCells() []domain.Cell {
	return []domain.Cell{
		{ID: "C0", Lat: 0, Lon: 0},
		{ID: "C1", Lat: 0, Lon: 10},
		{ID: "C2", Lat: 45, Lon: 45},
	}
}

func TestDistanceSymmetry(t *testing.T) {
	a := domain.Cell{ID: "a", Lat: 51.5074, Lon: -0.1278}
	b := domain.Cell{ID: "b", Lat: 48.8566, Lon: 2.3522}

	require.InDelta(t, a.DistanceMeters(b), b.DistanceMeters(a), 1e-6)
	require.Zero(t, a.DistanceMeters(a))

	// London-Paris is roughly 344km.
	assert.InDelta(t, 344_000, a.DistanceMeters(b), 5_000)
}

func TestDistanceMonotonic(t *testing.T) {
	origin := domain.Cell{ID: "o", Lat: 0, Lon: 0}

	prev := 0.0
	for lon := 1.0; lon <= 90; lon += 1 {
		d := origin.DistanceMeters(domain.Cell{Lat: 0, Lon: lon})
		require.Greater(t, d, prev, "distance must grow with separation at lon=%v", lon)
		prev = d
	}
}

func TestCellByID(t *testing.T) {
	r := NewRegistry(testCells())

	cell, err := r.CellByID("C1")
	require.NoError(t, err)
	assert.Equal(t, "C1", cell.ID)

	_, err = r.CellByID("missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestRandomCellEmptyRegistry(t *testing.T) {
	r := NewRegistry(nil)

	_, err := r.RandomCell(testRand())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestRandomCellAtLeastOnlyFarCellQualifies(t *testing.T) {
	r := NewRegistry(testCells())
	rng := testRand()

	c0, err := r.CellByID("C0")
	require.NoError(t, err)
	c1, err := r.CellByID("C1")
	require.NoError(t, err)

	// A threshold above the C0-C1 separation leaves C2 as the only
	// qualifying cell.
	minDist := c0.DistanceMeters(c1) + 1

	for i := 0; i < 100; i++ {
		cell, err := r.RandomCellAtLeast("C0", minDist, rng)
		require.NoError(t, err)
		assert.Equal(t, "C2", cell.ID)
	}
}

func TestRandomCellAtLeastNoCandidate(t *testing.T) {
	r := NewRegistry(testCells())

	_, err := r.RandomCellAtLeast("C0", 1e12, testRand())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))

	_, err = r.RandomCellAtLeast("missing", 1, testRand())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestRandomCellAtLeastUniformOverQualifying(t *testing.T) {
	// C1 and C2 both qualify from C0; draws must spread over both roughly
	// evenly and never return C0 itself.
	r := NewRegistry(testCells())
	rng := testRand()

	const draws = 10_000
	counts := make(map[string]int)
	for i := 0; i < draws; i++ {
		cell, err := r.RandomCellAtLeast("C0", 100_000, rng)
		require.NoError(t, err)
		counts[cell.ID]++
	}

	assert.Zero(t, counts["C0"])
	assert.InDelta(t, draws/2, counts["C1"], draws/10)
	assert.InDelta(t, draws/2, counts["C2"], draws/10)
}

func TestRandomCellUniform(t *testing.T) {
	r := NewRegistry(testCells())
	rng := testRand()

	const draws = 9_000
	counts := make(map[string]int)
	for i := 0; i < draws; i++ {
		cell, err := r.RandomCell(rng)
		require.NoError(t, err)
		counts[cell.ID]++
	}

	for _, id := range []string{"C0", "C1", "C2"} {
		assert.InDelta(t, draws/3, counts[id], draws/10, "cell %s", id)
	}
}

func TestReadCells(t *testing.T) {
	input := "id,lat,lon\nCell_0,51.5,-0.12\nCell_1,48.85,2.35\n"

	cells, err := ReadCells(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, cells, 2)
	assert.Equal(t, "Cell_0", cells[0].ID)
	assert.InDelta(t, 48.85, cells[1].Lat, 1e-9)
}

func TestReadCellsBadRecord(t *testing.T) {
	_, err := ReadCells(strings.NewReader("id,lat,lon\nCell_0,not-a-number,0\n"))
	require.Error(t, err)
}
