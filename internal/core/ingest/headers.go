// Package ingest holds the pure transforms of the spreadsheet pipeline: header
// translation, column type inference and cell formatting.
package ingest

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/kirillkom/court-docket/internal/core/domain"
)

// Dictionary maps known source headers to canonical field names.
type Dictionary struct {
	known map[string]string
}

type DictionaryEntry struct {
	Header    string
	Canonical string
}

// NewDictionary builds a dictionary from canonical name -> header synonyms.
// A synonym claimed by two canonical names is rejected.
func NewDictionary(synonyms map[string][]string) (*Dictionary, error) {
	known := make(map[string]string)
	for canonical, headers := range synonyms {
		canonical = strings.TrimSpace(canonical)
		if canonical == "" {
			return nil, fmt.Errorf("empty canonical field name")
		}
		for _, header := range headers {
			header = strings.TrimSpace(header)
			if header == "" {
				continue
			}
			if prev, ok := known[header]; ok && prev != canonical {
				return nil, fmt.Errorf("header %q mapped to both %q and %q", header, prev, canonical)
			}
			known[header] = canonical
		}
	}
	return &Dictionary{known: known}, nil
}

func (d *Dictionary) Lookup(header string) (string, bool) {
	if d == nil {
		return "", false
	}
	canonical, ok := d.known[strings.TrimSpace(header)]
	return canonical, ok
}

func (d *Dictionary) Entries() []DictionaryEntry {
	if d == nil {
		return nil
	}
	out := make([]DictionaryEntry, 0, len(d.known))
	for header, canonical := range d.known {
		out = append(out, DictionaryEntry{Header: header, Canonical: canonical})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Canonical != out[j].Canonical {
			return out[i].Canonical < out[j].Canonical
		}
		return out[i].Header < out[j].Header
	})
	return out
}

type Translation struct {
	// Originals are the trimmed source headers, Canonical the assigned field
	// names, both in column order.
	Originals  []string
	Canonical  []string
	Unknown    []string
	Collisions []domain.HeaderCollision
}

// Mapping returns original header -> assigned field name.
func (t Translation) Mapping() map[string]string {
	out := make(map[string]string, len(t.Originals))
	for i, original := range t.Originals {
		out[original] = t.Canonical[i]
	}
	return out
}

// Translate never fails: unknown headers fall back to Slug, and a name that is
// already taken gets a numeric suffix.
func (d *Dictionary) Translate(headers []string) Translation {
	tr := Translation{
		Originals: make([]string, 0, len(headers)),
		Canonical: make([]string, 0, len(headers)),
	}
	used := make(map[string]bool, len(headers))
	seenUnknown := make(map[string]bool)
	seenOriginal := make(map[string]int, len(headers))

	for idx, raw := range headers {
		header := strings.TrimSpace(raw)
		if header == "" {
			header = fmt.Sprintf("Unnamed: %d", idx)
		}
		// A repeated source header is keyed "<header>.<n>" so original names stay unique.
		original := header
		if n := seenOriginal[header]; n > 0 {
			original = fmt.Sprintf("%s.%d", header, n)
		}
		seenOriginal[header]++

		canonical, ok := d.Lookup(header)
		if !ok {
			canonical = Slug(header)
			if canonical == "" {
				canonical = fmt.Sprintf("unnamed_%d", idx)
			}
			if !seenUnknown[header] {
				seenUnknown[header] = true
				tr.Unknown = append(tr.Unknown, header)
			}
		}

		assigned := canonical
		for n := 2; used[assigned]; n++ {
			assigned = fmt.Sprintf("%s_%d", canonical, n)
		}
		if assigned != canonical {
			tr.Collisions = append(tr.Collisions, domain.HeaderCollision{
				Original:  original,
				Canonical: canonical,
				Assigned:  assigned,
			})
		}
		used[assigned] = true

		tr.Originals = append(tr.Originals, original)
		tr.Canonical = append(tr.Canonical, assigned)
	}
	return tr
}

// Slug lowercases, turns every non-alphanumeric rune into "_", collapses runs
// of "_" and trims them from both ends.
func Slug(header string) string {
	var b strings.Builder
	b.Grow(len(header))
	lastUnderscore := true
	for _, r := range header {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
			lastUnderscore = false
			continue
		}
		if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
