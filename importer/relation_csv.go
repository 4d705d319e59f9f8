package importer

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/slakttrad/slakttradbackend/catalog"
	"github.com/slakttrad/slakttradbackend/models"
)

// ErrMissingRelationColumns is returned when the relation CSV lacks the
// person-A / relation / person-B columns in either accepted header format.
var ErrMissingRelationColumns = errors.New("CSV-filen saknar kolumner för person A, relation och person B")

// RelationRow is one parsed row of a relation import. The CSV references
// people by display name; FromPersonID/ToPersonID are filled in by the name
// matcher or by the user's manual mapping, and stay nil while unresolved.
type RelationRow struct {
	Line     int    `json:"line"`
	FromName string `json:"fromName"`
	RawType  string `json:"rawType"`
	Type     string `json:"type"`
	ToName   string `json:"toName"`

	FromPersonID   *uint  `json:"fromPersonId,omitempty"`
	ToPersonID     *uint  `json:"toPersonId,omitempty"`
	FromCandidates []uint `json:"fromCandidates,omitempty"`
	ToCandidates   []uint `json:"toCandidates,omitempty"`

	Duplicate bool `json:"duplicate"`
}

// dedupKey identifies a row for in-batch de-duplication: lowercased names
// around the normalized type.
func (r *RelationRow) dedupKey() string {
	return strings.ToLower(r.FromName) + "\x00" + r.Type + "\x00" + strings.ToLower(r.ToName)
}

// RelationPreview is the parse+match result shown to the user before commit.
type RelationPreview struct {
	BatchID        string        `json:"batchId"`
	Rows           []RelationRow `json:"rows"`
	Warnings       []Warning     `json:"warnings"`
	DuplicateCount int           `json:"duplicateCount"`
	UnmatchedNames []string      `json:"unmatchedNames"`
}

// ParseRelationsCSV parses a semicolon-delimited relation CSV. It accepts
// the export header format (person_a_namn, relationstyp, person_b_namn) or
// simplified headers (person a, relation, person b). Type labels are
// normalized through the relation catalog; rows identical under
// (lowercased name, normalized type, lowercased name) are marked as
// duplicates and excluded from commit.
func ParseRelationsCSV(r io.Reader) (*RelationPreview, error) {
	t, err := readTable(r)
	if err != nil {
		return nil, err
	}

	fromIdx := t.columnIndex("person_a_namn", "person a", "person_a", "från", "fran")
	typeIdx := t.columnIndex("relationstyp", "relation", "typ", "type")
	toIdx := t.columnIndex("person_b_namn", "person b", "person_b", "till")
	if fromIdx < 0 || typeIdx < 0 || toIdx < 0 {
		return nil, ErrMissingRelationColumns
	}

	preview := &RelationPreview{
		BatchID:  uuid.NewString(),
		Rows:     []RelationRow{},
		Warnings: []Warning{},
	}

	seen := make(map[string]bool)
	for i, record := range t.rows {
		line := i + 2
		row := RelationRow{
			Line:     line,
			FromName: cell(record, fromIdx),
			RawType:  cell(record, typeIdx),
			ToName:   cell(record, toIdx),
		}
		if row.FromName == "" && row.ToName == "" {
			continue
		}
		if row.FromName == "" || row.ToName == "" {
			preview.Warnings = append(preview.Warnings, Warning{
				Line:    line,
				Message: "raden saknar namn för person A eller person B och hoppas över",
			})
			continue
		}
		row.Type = catalog.Normalize(row.RawType)

		key := row.dedupKey()
		if seen[key] {
			row.Duplicate = true
			preview.DuplicateCount++
			preview.Warnings = append(preview.Warnings, Warning{
				Line:    line,
				Message: fmt.Sprintf("dubblett av relationen %s – %s – %s", row.FromName, row.Type, row.ToName),
			})
		}
		seen[key] = true
		preview.Rows = append(preview.Rows, row)
	}

	return preview, nil
}

// MatchNames resolves row names against the tree's people by exact
// case-insensitive full-name match. A name matching exactly one person gets
// its id filled in; zero or multiple matches leave the id nil (with the
// candidate ids surfaced on ambiguity) for manual mapping.
func MatchNames(rows []RelationRow, people []models.Person) []RelationRow {
	index := NameIndex(people)
	for i := range rows {
		rows[i].FromPersonID, rows[i].FromCandidates = resolveName(index, rows[i].FromName)
		rows[i].ToPersonID, rows[i].ToCandidates = resolveName(index, rows[i].ToName)
	}
	return rows
}

// NameIndex maps lowercased full names to the ids of every person carrying
// that name.
func NameIndex(people []models.Person) map[string][]uint {
	index := make(map[string][]uint, len(people))
	for i := range people {
		name := strings.ToLower(people[i].FullName())
		if name == "" {
			continue
		}
		index[name] = append(index[name], people[i].ID)
	}
	return index
}

func resolveName(index map[string][]uint, name string) (*uint, []uint) {
	ids := index[strings.ToLower(strings.TrimSpace(name))]
	if len(ids) == 1 {
		id := ids[0]
		return &id, nil
	}
	if len(ids) > 1 {
		return nil, ids
	}
	return nil, nil
}

// UnmatchedNames collects the distinct names that stayed unresolved after
// matching, preserving first-seen order.
func UnmatchedNames(rows []RelationRow) []string {
	seen := make(map[string]bool)
	var names []string
	record := func(name string, id *uint) {
		key := strings.ToLower(name)
		if id == nil && !seen[key] {
			seen[key] = true
			names = append(names, name)
		}
	}
	for i := range rows {
		if rows[i].Duplicate {
			continue
		}
		record(rows[i].FromName, rows[i].FromPersonID)
		record(rows[i].ToName, rows[i].ToPersonID)
	}
	return names
}
