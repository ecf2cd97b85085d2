package ingest

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ManifestEntry describes one source file and its document metadata as
// supplied by the operator alongside a batch input directory.
type ManifestEntry struct {
	File      string `json:"file"`
	DocID     string `json:"doc_id"`
	Title     string `json:"title"`
	Year      int    `json:"year,omitempty"`
	Specialty string `json:"specialty,omitempty"`
	SourceURL string `json:"source_url,omitempty"`
}

// LoadManifest reads a CSV or JSON manifest. Malformed rows are skipped,
// each reported in the returned warnings; only a manifest that cannot be
// read at all is an error.
func LoadManifest(path string) ([]ManifestEntry, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open manifest: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return parseCSVManifest(f)
	case ".json":
		return parseJSONManifest(f)
	default:
		return nil, nil, fmt.Errorf("unsupported manifest format: %s", filepath.Ext(path))
	}
}

// parseCSVManifest expects a header row naming at least file and doc_id;
// title, year, specialty and source_url columns are optional.
func parseCSVManifest(r io.Reader) ([]ManifestEntry, []string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read manifest header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := col["file"]; !ok {
		return nil, nil, fmt.Errorf("manifest header missing file column")
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var entries []ManifestEntry
	var warnings []string
	for line := 2; ; line++ {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("manifest line %d: %v", line, err))
			continue
		}
		entry := ManifestEntry{
			File:      field(row, "file"),
			DocID:     field(row, "doc_id"),
			Title:     field(row, "title"),
			Specialty: field(row, "specialty"),
			SourceURL: field(row, "source_url"),
		}
		if y := field(row, "year"); y != "" {
			year, err := strconv.Atoi(y)
			if err != nil {
				warnings = append(warnings, fmt.Sprintf("manifest line %d: bad year %q", line, y))
				continue
			}
			entry.Year = year
		}
		if entry.File == "" {
			warnings = append(warnings, fmt.Sprintf("manifest line %d: missing file", line))
			continue
		}
		entries = append(entries, normalizeEntry(entry))
	}
	return entries, warnings, nil
}

// parseJSONManifest accepts three shapes: a top-level array of entries, an
// object with a documents array, or a map of file name to entry.
func parseJSONManifest(r io.Reader) ([]ManifestEntry, []string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("read manifest: %w", err)
	}

	var list []ManifestEntry
	if err := json.Unmarshal(data, &list); err == nil {
		return filterEntries(list)
	}

	var wrapped struct {
		Documents []ManifestEntry `json:"documents"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && len(wrapped.Documents) > 0 {
		return filterEntries(wrapped.Documents)
	}

	var byFile map[string]ManifestEntry
	if err := json.Unmarshal(data, &byFile); err == nil {
		entries := make([]ManifestEntry, 0, len(byFile))
		for file, entry := range byFile {
			if entry.File == "" {
				entry.File = file
			}
			entries = append(entries, entry)
		}
		return filterEntries(entries)
	}

	return nil, nil, fmt.Errorf("manifest JSON: unrecognized structure")
}

func filterEntries(entries []ManifestEntry) ([]ManifestEntry, []string, error) {
	var out []ManifestEntry
	var warnings []string
	for i, entry := range entries {
		if entry.File == "" {
			warnings = append(warnings, fmt.Sprintf("manifest entry %d: missing file", i))
			continue
		}
		out = append(out, normalizeEntry(entry))
	}
	return out, warnings, nil
}

// normalizeEntry fills a default doc id derived from the file name.
func normalizeEntry(e ManifestEntry) ManifestEntry {
	if e.DocID == "" {
		base := filepath.Base(e.File)
		e.DocID = strings.TrimSuffix(base, filepath.Ext(base))
	}
	return e
}
