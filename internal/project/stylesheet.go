package project

import (
	"encoding/xml"
	"fmt"
	"path"
	"sort"
)

type style struct {
	ID          string `xml:"id,attr"`
	Publishable string `xml:"publishable,attr"`
}

type stylesheet struct {
	Styles []style `xml:"style"`
}

// ReadStylesheet loads the publishable style ids from every styles.xml in the archive.
// Text calls it on first use.
func (r *Reader) ReadStylesheet() error {
	if r.zr == nil {
		return ErrNotOpen
	}

	found := false
	ids := map[string]struct{}{}
	for _, f := range r.zr.File {
		if path.Base(f.Name) != stylesheetName {
			continue
		}
		found = true

		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("open %s: %w", f.Name, err)
		}
		var sheet stylesheet
		err = xml.NewDecoder(rc).Decode(&sheet)
		rc.Close()
		if err != nil {
			return fmt.Errorf("parse %s: %w", f.Name, err)
		}

		for _, s := range sheet.Styles {
			if s.Publishable == "true" {
				ids[s.ID] = struct{}{}
			}
		}
	}
	if !found {
		return fmt.Errorf("%s: %w", r.path, ErrStylesheetNotFound)
	}

	r.publishable = latinize(ids)
	r.logger.Debug("stylesheet loaded", "project", r.path, "publishable", len(r.publishable))
	return nil
}

// Publishable returns the sorted publishable style ids after remapping.
func (r *Reader) Publishable() []string {
	ids := make([]string, 0, len(r.publishable))
	for id := range r.publishable {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
