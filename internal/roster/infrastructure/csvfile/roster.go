package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	roster "subsidy-reporter/internal/roster/domain"
)

// Column headers of the participant info export. Aliases are accepted for
// rosters produced by other tooling.
var columnAliases = map[string][]string{
	"id":        {"id", "account_id", "account number"},
	"name":      {"name"},
	"address_1": {"address_1", "address"},
	"address_2": {"address_2"},
	"email":     {"email"},
	"phone":     {"phone"},
	"filename":  {"filename"},
	"primary":   {"meter_label_1", "meter_channel_primary"},
	"secondary": {"meter_label_2", "meter_channel_secondary"},
}

var requiredColumns = []string{"id", "name", "filename", "primary"}

// Loader reads the roster from a CSV file.
type Loader struct {
	path string
}

// NewLoader constructs a loader for path.
func NewLoader(path string) (*Loader, error) {
	if path == "" {
		return nil, errors.New("roster loader: empty path")
	}
	return &Loader{path: path}, nil
}

// LoadRoster reads and validates the roster file.
func (l *Loader) LoadRoster(ctx context.Context) (roster.Roster, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open roster: %w", err)
	}
	defer f.Close()

	participants, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse roster %s: %w", l.path, err)
	}
	return participants, nil
}

// Parse reads a roster table with a header row.
func Parse(r io.Reader) (roster.Roster, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, roster.ErrEmptyRoster
		}
		return nil, err
	}
	index := resolveColumns(header)
	for _, column := range requiredColumns {
		if _, ok := index[column]; !ok {
			return nil, fmt.Errorf("%w: %s", roster.ErrMissingColumn, column)
		}
	}

	var result roster.Roster
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, err
		}
		if blank(record) {
			continue
		}
		field := func(column string) string {
			pos, ok := index[column]
			if !ok || pos >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[pos])
		}
		p := roster.Participant{
			ID:               field("id"),
			Name:             field("name"),
			AddressLine1:     field("address_1"),
			AddressLine2:     field("address_2"),
			Email:            field("email"),
			Phone:            field("phone"),
			Filename:         field("filename"),
			PrimaryChannel:   field("primary"),
			SecondaryChannel: roster.NormalizeSecondaryChannel(field("secondary")),
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		result = append(result, p)
	}

	if err := result.Validate(); err != nil {
		return nil, err
	}
	return result, nil
}

func resolveColumns(header []string) map[string]int {
	positions := make(map[string]int, len(header))
	for i, name := range header {
		positions[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	index := make(map[string]int, len(columnAliases))
	for column, aliases := range columnAliases {
		for _, alias := range aliases {
			if pos, ok := positions[alias]; ok {
				index[column] = pos
				break
			}
		}
	}
	return index
}

func blank(record []string) bool {
	for _, value := range record {
		if strings.TrimSpace(value) != "" {
			return false
		}
	}
	return true
}
