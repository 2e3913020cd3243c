// Package memory implements an in-memory TableStore for development and
// testing. It emulates the slice of A1-notation semantics the services rely
// on: trailing empty cells and rows are trimmed from reads, and appends land
// after the last non-empty row.
package memory

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"weightmate/internal/domain"
)

type Store struct {
	mu     sync.Mutex
	sheets map[string][][]string
}

var _ domain.TableStore = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{sheets: make(map[string][][]string)}
}

// Seed replaces the contents of a sheet, for test setup.
func (s *Store) Seed(sheet string, rows [][]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	grid := make([][]string, len(rows))
	for i, row := range rows {
		grid[i] = append([]string(nil), row...)
	}
	s.sheets[sheet] = grid
}

// Get returns the cells of a range, with trailing empty cells and rows
// trimmed the way the Sheets API trims them.
func (s *Store) Get(ctx context.Context, rng string) ([][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref, err := parseRange(rng)
	if err != nil {
		return nil, err
	}
	grid := s.sheets[ref.sheet]

	endRow := ref.endRow
	if endRow < 0 || endRow >= len(grid) {
		endRow = len(grid) - 1
	}

	var rows [][]string
	for r := ref.startRow; r <= endRow; r++ {
		row := grid[r]
		endCol := ref.endCol
		if endCol < 0 || endCol >= len(row) {
			endCol = len(row) - 1
		}
		var cells []string
		for c := ref.startCol; c <= endCol; c++ {
			cells = append(cells, row[c])
		}
		for len(cells) > 0 && cells[len(cells)-1] == "" {
			cells = cells[:len(cells)-1]
		}
		rows = append(rows, cells)
	}
	for len(rows) > 0 && len(rows[len(rows)-1]) == 0 {
		rows = rows[:len(rows)-1]
	}
	return rows, nil
}

// Update writes values into the cells starting at the range's top-left
// corner, growing the sheet as needed.
func (s *Store) Update(ctx context.Context, rng string, values [][]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref, err := parseRange(rng)
	if err != nil {
		return err
	}
	grid := s.sheets[ref.sheet]
	for i, row := range values {
		r := ref.startRow + i
		for len(grid) <= r {
			grid = append(grid, nil)
		}
		for j, cell := range row {
			c := ref.startCol + j
			for len(grid[r]) <= c {
				grid[r] = append(grid[r], "")
			}
			grid[r][c] = cell
		}
	}
	s.sheets[ref.sheet] = grid
	return nil
}

// Append adds a row after the last non-empty row of the sheet, starting at
// the range's first column.
func (s *Store) Append(ctx context.Context, rng string, row []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref, err := parseRange(rng)
	if err != nil {
		return err
	}
	grid := s.sheets[ref.sheet]

	last := -1
	for i, r := range grid {
		for _, cell := range r {
			if cell != "" {
				last = i
				break
			}
		}
	}
	target := last + 1
	for len(grid) <= target {
		grid = append(grid, nil)
	}
	cells := make([]string, ref.startCol+len(row))
	copy(cells[ref.startCol:], row)
	grid[target] = cells
	s.sheets[ref.sheet] = grid
	return nil
}

type rangeRef struct {
	sheet    string
	startCol int
	startRow int // 0-based; endRow/endCol are -1 when unbounded
	endCol   int
	endRow   int
}

var cellRe = regexp.MustCompile(`^([A-Z]+)([0-9]*)$`)

func parseRange(rng string) (rangeRef, error) {
	sheet, cells, ok := strings.Cut(rng, "!")
	if !ok {
		return rangeRef{}, fmt.Errorf("range %q has no sheet name", rng)
	}
	start, end, hasEnd := strings.Cut(cells, ":")

	sc, sr, err := parseCell(start)
	if err != nil {
		return rangeRef{}, fmt.Errorf("range %q: %w", rng, err)
	}
	ref := rangeRef{sheet: sheet, startCol: sc, startRow: sr, endCol: sc, endRow: sr}
	if sr < 0 {
		ref.startRow = 0
	}
	if hasEnd {
		ec, er, err := parseCell(end)
		if err != nil {
			return rangeRef{}, fmt.Errorf("range %q: %w", rng, err)
		}
		ref.endCol, ref.endRow = ec, er
	}
	return ref, nil
}

func parseCell(cell string) (col, row int, err error) {
	m := cellRe.FindStringSubmatch(cell)
	if m == nil {
		return 0, 0, fmt.Errorf("bad cell ref %q", cell)
	}
	col = 0
	for _, ch := range m[1] {
		col = col*26 + int(ch-'A') + 1
	}
	col--
	row = -1
	if m[2] != "" {
		n, err := strconv.Atoi(m[2])
		if err != nil || n < 1 {
			return 0, 0, fmt.Errorf("bad row in cell ref %q", cell)
		}
		row = n - 1
	}
	return col, row, nil
}
