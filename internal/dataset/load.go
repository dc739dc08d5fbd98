package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"
)

// ColumnMapping names the input headers that hold each required column.
// Headers already using the internal names are always accepted.
type ColumnMapping struct {
	Agent string
	Game  string
	Wins  string
	Time  string
	Turns string
}

// DefaultColumns returns the headers written by the UNO simulator.
func DefaultColumns() ColumnMapping {
	return ColumnMapping{
		Agent: "Agente",
		Game:  "Partida",
		Wins:  "Victoria",
		Time:  "Tiempo_Jugada_ms",
		Turns: "Turnos_Totales",
	}
}

func (m ColumnMapping) withDefaults() ColumnMapping {
	d := DefaultColumns()
	if m.Agent == "" {
		m.Agent = d.Agent
	}
	if m.Game == "" {
		m.Game = d.Game
	}
	if m.Wins == "" {
		m.Wins = d.Wins
	}
	if m.Time == "" {
		m.Time = d.Time
	}
	if m.Turns == "" {
		m.Turns = d.Turns
	}
	return m
}

// Load reads the CSV file at path. A missing file is reported as
// ErrInputNotFound.
func Load(path string, mapping ColumnMapping) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrInputNotFound, path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	ds, err := LoadReader(f, mapping)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return ds, nil
}

// LoadReader parses CSV from r. The header row is required; column order does
// not matter. Empty numeric cells become NaN.
func LoadReader(r io.Reader, mapping ColumnMapping) (*Dataset, error) {
	mapping = mapping.withDefaults()

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	// Short records are padded with empty cells below.
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyDataset
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	required := [5]struct {
		internal string
		source   string
	}{
		{ColAgent, mapping.Agent},
		{ColGame, mapping.Game},
		{ColWins, mapping.Wins},
		{ColTime, mapping.Time},
		{ColTurns, mapping.Turns},
	}

	var idx [5]int
	used := make(map[int]bool, len(required))
	var missing []string
	for i, col := range required {
		idx[i] = -1
		for j, h := range header {
			if h == col.source || h == col.internal {
				idx[i] = j
				used[j] = true
				break
			}
		}
		if idx[i] < 0 {
			missing = append(missing, col.source)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnError{Columns: missing, Header: header}
	}

	var extra []Column
	var extraIdx []int
	for j, h := range header {
		if !used[j] {
			extra = append(extra, Column{Name: h})
			extraIdx = append(extraIdx, j)
		}
	}

	var matches []Match
	var raw [][5]string
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		for len(record) < len(header) {
			record = append(record, "")
		}

		var cells [5]string
		for i, j := range idx {
			cells[i] = strings.TrimSpace(record[j])
		}

		m, err := parseMatch(cells)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		matches = append(matches, m)
		raw = append(raw, cells)
		for k, j := range extraIdx {
			extra[k].Values = append(extra[k].Values, record[j])
		}
	}

	if len(matches) == 0 {
		return nil, ErrEmptyDataset
	}
	return newDataset(matches, raw, extra), nil
}

func parseMatch(cells [5]string) (Match, error) {
	m := Match{AgentName: cells[0]}

	var err error
	if m.GameID, err = parseGameID(cells[1]); err != nil {
		return Match{}, err
	}
	if err := parseMeasures(&m, cells); err != nil {
		return Match{}, err
	}
	return m, nil
}

// parseGameID parses an integer id. An empty cell yields NoGameID.
func parseGameID(cell string) (int, error) {
	if cell == "" {
		return NoGameID, nil
	}
	game, err := strconv.Atoi(cell)
	if err != nil {
		// Some exports write integer ids as floats.
		f, ferr := strconv.ParseFloat(cell, 64)
		if ferr != nil || f != math.Trunc(f) {
			return 0, fmt.Errorf("%w: %s=%q", ErrInvalidValue, ColGame, cell)
		}
		game = int(f)
	}
	return game, nil
}

func parseMeasures(m *Match, cells [5]string) error {
	var err error
	if m.Wins, err = parseWins(cells[2]); err != nil {
		return err
	}
	if m.ExecutionTimeMs, err = parseNumber(ColTime, cells[3]); err != nil {
		return err
	}
	if m.TotalTurns, err = parseNumber(ColTurns, cells[4]); err != nil {
		return err
	}
	return nil
}

func parseNumber(column, cell string) (float64, error) {
	if cell == "" {
		return math.NaN(), nil
	}
	v, err := strconv.ParseFloat(cell, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidValue, column, cell)
	}
	return v, nil
}

func parseWins(cell string) (float64, error) {
	if b, err := strconv.ParseBool(cell); err == nil && cell != "1" && cell != "0" {
		if b {
			return 1, nil
		}
		return 0, nil
	}
	return parseNumber(ColWins, cell)
}
