package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// SeasonDocument is the persisted shape of a season timeline:
//
//	{"metadata": {"201": {"name": "...", "teams": [...]}},
//	 "opening_day": "2021/03/31",
//	 "standings": [{"201": [[0, 0], ...]}, ...]}
//
// Standings are positional: entry i is opening_day + i days. Team order inside
// a division matches the metadata team list. A missing record is null.
type SeasonDocument struct {
	Metadata   map[string]DivisionDocument `json:"metadata"`
	OpeningDay string                      `json:"opening_day"`
	Standings  []map[string][]*WinLoss     `json:"standings"`
}

// DivisionDocument is the persisted division metadata
type DivisionDocument struct {
	Name  string   `json:"name"`
	Teams []string `json:"teams"`
}

// WinLoss encodes as a two element array [wins, losses]
type WinLoss struct {
	Wins   int
	Losses int
}

// MarshalJSON implements json.Marshaler
func (wl WinLoss) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{wl.Wins, wl.Losses})
}

// UnmarshalJSON implements json.Unmarshaler
func (wl *WinLoss) UnmarshalJSON(data []byte) error {
	var pair []int
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("expected [wins, losses], got %d values", len(pair))
	}
	wl.Wins, wl.Losses = pair[0], pair[1]
	return nil
}

// DocumentKey renders a division id as a document key
func DocumentKey(id DivisionID) string {
	return strconv.Itoa(int(id))
}

// ParseDocumentKey parses a document key back into a division id
func ParseDocumentKey(key string) (DivisionID, error) {
	n, err := strconv.Atoi(key)
	if err != nil {
		return 0, fmt.Errorf("invalid division key %q: %w", key, err)
	}
	return DivisionID(n), nil
}

// MetadataFromDocument rebuilds season metadata from a document
func (d *SeasonDocument) MetadataFromDocument(year int) (*Metadata, error) {
	if len(d.Metadata) == 0 {
		return nil, fmt.Errorf("season document has no metadata")
	}
	m := NewMetadata(year)
	for key, div := range d.Metadata {
		id, err := ParseDocumentKey(key)
		if err != nil {
			return nil, err
		}
		m.Divisions[id] = NewDivisionInfo(id, div.Name, div.Teams)
	}
	return m, nil
}

// Encode renders the document as compact JSON
func (d *SeasonDocument) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(d); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// DecodeSeasonDocument parses and sanity-checks a document
func DecodeSeasonDocument(data []byte) (*SeasonDocument, error) {
	var doc SeasonDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if len(doc.Metadata) == 0 {
		return nil, fmt.Errorf("missing metadata")
	}
	if _, err := ParseDate(FileDateLayout, doc.OpeningDay); err != nil {
		return nil, err
	}
	return &doc, nil
}
