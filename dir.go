package vfat32

import (
	"unicode/utf8"

	"github.com/student/vfat32/vfaterr"
)

// Dir is a read-only handle onto a directory (spec §4.8).
type Dir struct {
	engine       *chainEngine
	firstCluster Cluster
}

// asciiFold folds only the ASCII letters in s, leaving every other code
// point untouched. Find's comparator is ASCII case-insensitive equality
// (spec §4.7), not full Unicode case folding: an LFN name is free to carry
// non-ASCII code points (spec §3's UCS-2 fragments), and two such names that
// differ only outside the ASCII range must still compare distinct.
func asciiFold(s string) string {
	b := []byte(s)
	for i := 0; i < len(b); i++ {
		if b[i] >= 'A' && b[i] <= 'Z' {
			b[i] += 'a' - 'A'
		}
	}
	return string(b)
}

// Entries returns every live entry in the directory, in on-disk order
// (spec §4.7).
func (d *Dir) Entries() ([]Entry, error) {
	data, err := d.engine.readChain(d.firstCluster)
	if err != nil {
		return nil, err
	}

	records := parseDirectory(data)
	entries := make([]Entry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, entryFromRecord(d.engine, rec))
	}
	return entries, nil
}

// Find looks up a single entry by name, ASCII case-insensitively, and fails
// with vfaterr.NotFound if no live entry matches (spec §4.8). A query that
// does not decode as UTF-8 is rejected with vfaterr.InvalidInput (spec §4.7).
func (d *Dir) Find(name string) (Entry, error) {
	if !utf8.ValidString(name) {
		return Entry{}, vfaterr.InvalidInput
	}

	entries, err := d.Entries()
	if err != nil {
		return Entry{}, err
	}

	target := asciiFold(name)
	for _, e := range entries {
		if asciiFold(e.Name()) == target {
			return e, nil
		}
	}
	return Entry{}, vfaterr.NotFound
}
