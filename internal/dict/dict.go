// Package dict provides the static Chinese lexicon: pronunciation and
// translations keyed by simplified and traditional forms.
package dict

import (
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Definition is one dictionary entry. Entries are immutable after load.
type Definition struct {
	Simplified   string   `json:"simplified"`
	Traditional  string   `json:"traditional"`
	Pinyin       []Pinyin `json:"pinyin"`
	Translations []string `json:"translations"`
}

// sourceEntry mirrors the CC-CEDICT JSON export, where pinyin is a
// single numbered string ("zao3 shang5 hao3").
type sourceEntry struct {
	Simplified   string   `json:"simplified"`
	Traditional  string   `json:"traditional"`
	Pinyin       string   `json:"pinyin"`
	Translations []string `json:"translations"`
}

// Dictionary owns the lexicon for the process lifetime. Lookups never
// fail: unknown text yields an empty result.
type Dictionary struct {
	entries map[string][]Definition
	maxKey  int // longest key in runes, bounds prefix search
}

// Load parses a CC-CEDICT JSON export. When cacheDir is non-empty a gob
// snapshot keyed by the source file's size and mtime is used to skip
// reparsing on subsequent startups.
func Load(path, cacheDir string) (*Dictionary, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat lexicon: %w", err)
	}

	var cachePath string
	if cacheDir != "" {
		cachePath = filepath.Join(cacheDir, cacheName)
		if defs, err := readCache(cachePath, info); err == nil {
			return index(defs), nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read lexicon: %w", err)
	}
	var raw []sourceEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse lexicon: %w", err)
	}

	defs := make([]Definition, 0, len(raw))
	for _, e := range raw {
		defs = append(defs, Definition{
			Simplified:   e.Simplified,
			Traditional:  e.Traditional,
			Pinyin:       ParsePinyin(e.Pinyin),
			Translations: e.Translations,
		})
	}

	if cachePath != "" {
		// Cache failures only cost the next startup a reparse.
		_ = writeCache(cachePath, info, defs)
	}
	return index(defs), nil
}

// Empty returns a dictionary with no entries. Every lookup comes back
// empty, which lets the rest of the app run without a lexicon file.
func Empty() *Dictionary {
	return index(nil)
}

// index builds the lookup table keyed by both written forms. Entry order
// within a key follows the lexicon file.
func index(defs []Definition) *Dictionary {
	d := &Dictionary{entries: make(map[string][]Definition, len(defs)*2)}
	for _, def := range defs {
		d.add(def.Simplified, def)
		if def.Traditional != "" && def.Traditional != def.Simplified {
			d.add(def.Traditional, def)
		}
	}
	return d
}

func (d *Dictionary) add(key string, def Definition) {
	if key == "" {
		return
	}
	d.entries[key] = append(d.entries[key], def)
	if n := len([]rune(key)); n > d.maxKey {
		d.maxKey = n
	}
}

// Len returns the number of distinct keys.
func (d *Dictionary) Len() int {
	return len(d.entries)
}

// Lookup resolves text against the lexicon. Single words match exactly;
// longer input is segmented longest-match-first with single-character
// fallback, preserving input order. Unknown text returns an empty slice.
// OCR noise routinely produces unknown text, so absence is not an error.
func (d *Dictionary) Lookup(text string) []Definition {
	runes := []rune(text)
	var out []Definition
	for i := 0; i < len(runes); {
		limit := min(len(runes)-i, d.maxKey)
		advance := 1
		for l := limit; l >= 1; l-- {
			if entries, ok := d.entries[string(runes[i:i+l])]; ok {
				out = append(out, entries...)
				advance = l
				break
			}
		}
		i += advance
	}
	return out
}

// cacheName is the single cache file; the revision key lives inside the
// file, so a lexicon update overwrites the snapshot instead of leaving
// stale siblings behind.
const cacheName = "cedict.gob"

// cacheFile is the gob snapshot with the source revision it was built
// from.
type cacheFile struct {
	Size    int64
	ModTime int64
	Defs    []Definition
}

func readCache(path string, info os.FileInfo) ([]Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var c cacheFile
	if err := gob.NewDecoder(f).Decode(&c); err != nil {
		return nil, err
	}
	if c.Size != info.Size() || c.ModTime != info.ModTime().UnixNano() {
		return nil, errors.New("cache is for another lexicon revision")
	}
	return c.Defs, nil
}

func writeCache(path string, info os.FileInfo, defs []Definition) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(path), "cedict-*.tmp")
	if err != nil {
		return err
	}
	c := cacheFile{
		Size:    info.Size(),
		ModTime: info.ModTime().UnixNano(),
		Defs:    defs,
	}
	if err := gob.NewEncoder(f).Encode(c); err != nil {
		f.Close()
		os.Remove(f.Name())
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return err
	}
	return os.Rename(f.Name(), path)
}
