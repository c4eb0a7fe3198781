package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// EntryTypeText marks entries that carry scripture text. Only these are downloaded.
const EntryTypeText = "text"

// Entry is one record of the remote library listing. Raw keeps the record exactly as
// the service returned it; the typed fields are read from it.
type Entry struct {
	ID           string
	LanguageCode string
	ParatextName string
	EntryType    string
	DisplayName  string
	Raw          map[string]any
}

// Key returns the snapshot key for an entry filed under lang.
func Key(lang, id string) string {
	return lang + "_" + id
}

// ArchiveName returns the local archive file name for an entry filed under lang.
func ArchiveName(lang, id string) string {
	return Key(lang, id) + ".zip"
}

func (e *Entry) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("decode entry: %w", err)
	}
	if raw == nil {
		return fmt.Errorf("decode entry: not an object")
	}

	*e = Entry{
		ID:           stringField(raw, "id"),
		LanguageCode: stringField(raw, "languageCode"),
		ParatextName: stringField(raw, "idParatextName"),
		EntryType:    stringField(raw, "entrytype"),
		DisplayName:  stringField(raw, "nameCommon"),
		Raw:          raw,
	}
	if e.DisplayName == "" {
		e.DisplayName = stringField(raw, "name")
	}
	return nil
}

// MarshalJSON writes the raw remote record. Entries built in code without a raw
// record are written from their typed fields.
func (e Entry) MarshalJSON() ([]byte, error) {
	if e.Raw != nil {
		return json.Marshal(e.Raw)
	}
	return json.Marshal(map[string]string{
		"id":             e.ID,
		"languageCode":   e.LanguageCode,
		"idParatextName": e.ParatextName,
		"entrytype":      e.EntryType,
		"nameCommon":     e.DisplayName,
	})
}

func stringField(raw map[string]any, key string) string {
	switch v := raw[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}
