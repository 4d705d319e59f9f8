package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/slakttrad/slakttradbackend/models"
)

// Export column headers. The relation headers double as the accepted input
// format when re-importing an exported file.
var (
	peopleExportHeader    = []string{"id", "förnamn", "efternamn", "kön", "födelseår", "dödsår", "plats", "lat", "lng"}
	relationsExportHeader = []string{"id", "person_a_id", "person_a_namn", "relationstyp", "person_b_id", "person_b_namn"}
)

// WritePeopleCSV writes a tree's people as semicolon-delimited CSV with a
// UTF-8 BOM, one row per person.
func WritePeopleCSV(w io.Writer, people []models.Person) error {
	cw, err := newExportWriter(w)
	if err != nil {
		return err
	}
	if err := cw.Write(peopleExportHeader); err != nil {
		return err
	}
	for i := range people {
		p := &people[i]
		row := []string{
			strconv.FormatUint(uint64(p.ID), 10),
			p.FirstName,
			p.LastName,
			derefString(p.Gender),
			formatYear(p.BirthYear),
			formatYear(p.DeathYear),
			derefString(p.PlaceName),
			formatCoord(p.Latitude),
			formatCoord(p.Longitude),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("kunde inte skriva person %d: %w", p.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteRelationsCSV writes a tree's relations as semicolon-delimited CSV
// with a UTF-8 BOM. Endpoint names are looked up in the given people slice;
// a missing person leaves the name column empty rather than failing the
// export.
func WriteRelationsCSV(w io.Writer, relations []models.Relation, people []models.Person) error {
	names := make(map[uint]string, len(people))
	for i := range people {
		names[people[i].ID] = people[i].FullName()
	}

	cw, err := newExportWriter(w)
	if err != nil {
		return err
	}
	if err := cw.Write(relationsExportHeader); err != nil {
		return err
	}
	for i := range relations {
		rel := &relations[i]
		row := []string{
			strconv.FormatUint(uint64(rel.ID), 10),
			strconv.FormatUint(uint64(rel.FromPersonID), 10),
			names[rel.FromPersonID],
			rel.Type,
			strconv.FormatUint(uint64(rel.ToPersonID), 10),
			names[rel.ToPersonID],
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("kunde inte skriva relation %d: %w", rel.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func newExportWriter(w io.Writer) (*csv.Writer, error) {
	if _, err := w.Write(utf8BOM); err != nil {
		return nil, err
	}
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	cw.UseCRLF = true
	return cw, nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatYear(y *int) string {
	if y == nil {
		return ""
	}
	return strconv.Itoa(*y)
}

func formatCoord(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}
