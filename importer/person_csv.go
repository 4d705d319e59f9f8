package importer

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/google/uuid"
)

// ErrMissingNameColumns is returned when the person CSV lacks the required
// förnamn/efternamn columns.
var ErrMissingNameColumns = errors.New("CSV-filen saknar kolumnerna förnamn och efternamn")

// PersonRow is one accepted row of a person import.
type PersonRow struct {
	Line      int      `json:"line"`
	FirstName string   `json:"firstName"`
	LastName  string   `json:"lastName"`
	Gender    *string  `json:"gender,omitempty"`
	BirthYear *int     `json:"birthYear,omitempty"`
	DeathYear *int     `json:"deathYear,omitempty"`
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`
	PlaceName *string  `json:"placeName,omitempty"`
}

// PersonPreview is the result of parsing a person CSV before anything is
// persisted: the accepted rows plus the warnings the user should review.
type PersonPreview struct {
	BatchID      string      `json:"batchId"`
	Accepted     []PersonRow `json:"accepted"`
	Warnings     []Warning   `json:"warnings"`
	SkippedCount int         `json:"skippedCount"`
}

// ParsePeopleCSV parses a semicolon-delimited person CSV into a preview.
// Required columns are förnamn and efternamn (English synonyms accepted).
// Rows where both names are blank are skipped silently; rows missing one
// name are skipped with a warning. Invalid years null the field with a
// warning, and a partially specified lat/lng pair drops the whole location
// triple with a warning.
func ParsePeopleCSV(r io.Reader) (*PersonPreview, error) {
	t, err := readTable(r)
	if err != nil {
		return nil, err
	}

	firstIdx := t.columnIndex("förnamn", "fornamn", "first name", "firstname")
	lastIdx := t.columnIndex("efternamn", "last name", "lastname")
	if firstIdx < 0 || lastIdx < 0 {
		return nil, ErrMissingNameColumns
	}
	genderIdx := t.columnIndex("kön", "kon", "gender")
	birthIdx := t.columnIndex("födelseår", "fodelsear", "född", "birth year", "birthyear", "born")
	deathIdx := t.columnIndex("dödsår", "dodsar", "död", "death year", "deathyear", "died")
	placeIdx := t.columnIndex("plats", "ort", "place")
	latIdx := t.columnIndex("lat", "latitud", "latitude")
	lngIdx := t.columnIndex("lng", "lon", "longitud", "longitude")

	preview := &PersonPreview{
		BatchID:  uuid.NewString(),
		Accepted: []PersonRow{},
		Warnings: []Warning{},
	}

	for i, record := range t.rows {
		line := i + 2 // header is line 1
		first := cell(record, firstIdx)
		last := cell(record, lastIdx)

		if first == "" && last == "" {
			preview.SkippedCount++
			continue
		}
		if first == "" || last == "" {
			preview.SkippedCount++
			preview.Warnings = append(preview.Warnings, Warning{
				Line:    line,
				Message: "raden saknar förnamn eller efternamn och hoppas över",
			})
			continue
		}

		row := PersonRow{Line: line, FirstName: first, LastName: last}

		if g := cell(record, genderIdx); g != "" {
			row.Gender = &g
		}
		row.BirthYear = parseYear(cell(record, birthIdx), line, "födelseår", &preview.Warnings)
		row.DeathYear = parseYear(cell(record, deathIdx), line, "dödsår", &preview.Warnings)

		applyLocation(&row, cell(record, latIdx), cell(record, lngIdx), cell(record, placeIdx), line, &preview.Warnings)

		preview.Accepted = append(preview.Accepted, row)
	}

	return preview, nil
}

func parseYear(raw string, line int, field string, warnings *[]Warning) *int {
	if raw == "" {
		return nil
	}
	year, err := strconv.Atoi(raw)
	if err != nil {
		*warnings = append(*warnings, Warning{
			Line:    line,
			Message: fmt.Sprintf("ogiltigt %s '%s' ignoreras", field, raw),
		})
		return nil
	}
	return &year
}

// applyLocation enforces the all-or-nothing location triple. Both
// coordinates must be present and numeric for the location to be kept; the
// place label rides along with them.
func applyLocation(row *PersonRow, rawLat, rawLng, place string, line int, warnings *[]Warning) {
	if rawLat == "" && rawLng == "" {
		if place != "" {
			*warnings = append(*warnings, Warning{
				Line:    line,
				Message: "plats utan koordinater ignoreras",
			})
		}
		return
	}
	lat, latErr := strconv.ParseFloat(rawLat, 64)
	lng, lngErr := strconv.ParseFloat(rawLng, 64)
	if rawLat == "" || rawLng == "" || latErr != nil || lngErr != nil {
		*warnings = append(*warnings, Warning{
			Line:    line,
			Message: "ofullständiga koordinater, platsen ignoreras",
		})
		return
	}
	row.Latitude = &lat
	row.Longitude = &lng
	row.PlaceName = &place
}
