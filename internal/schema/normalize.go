package schema

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"greenroute/internal/records"
)

// utf8BOM is stripped from header cells if present.
const utf8BOM = "\uFEFF"

// Normalized is the result of normalizing one source table.
type Normalized struct {
	Source Source
	Table  records.Table

	// Renamed maps each raw header to the canonical name it was given, for
	// headers whose name changed beyond lowercasing and trimming.
	Renamed map[string]string

	// Collisions lists raw headers that resolved to a canonical name already
	// taken by an earlier column. They keep their lowercased/trimmed name.
	Collisions []string

	// Missing lists required columns (Source.RequiredColumns) absent after
	// normalization, in required order.
	Missing []string
}

// Normalize returns a copy of t whose column names are lowercased, trimmed
// and mapped through the alias table for src. extra holds additional
// raw -> canonical aliases (matched on the folded raw spelling) that take
// precedence over the built-in table. Unrecognized columns keep their
// lowercased, trimmed name. t is not modified and Normalize never fails:
// missing required columns are reported in Normalized.Missing.
func Normalize(src Source, t records.Table, extra map[string]string) Normalized {
	extraFolded := make(map[string]string, len(extra))
	for raw, canon := range extra {
		extraFolded[foldKey(raw)] = strings.ToLower(strings.TrimSpace(canon))
	}

	res := Normalized{Source: src, Renamed: map[string]string{}}
	names := make(map[string]string, len(t.Columns))
	taken := make(map[string]bool, len(t.Columns))

	for _, raw := range t.Columns {
		plain := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(raw, utf8BOM)))
		name := plain
		if canon, ok := lookupAlias(src, foldKey(plain), extraFolded); ok {
			name = canon
		}
		if taken[name] {
			res.Collisions = append(res.Collisions, raw)
			name = plain
			for i := 2; taken[name]; i++ {
				name = plain + "_" + strconv.Itoa(i)
			}
		}
		taken[name] = true
		names[raw] = name
		if name != plain {
			res.Renamed[raw] = name
		}
	}

	res.Table = t.Rename(names)
	for _, col := range src.RequiredColumns() {
		if !res.Table.HasColumn(col) {
			res.Missing = append(res.Missing, col)
		}
	}
	return res
}

// CanonicalName returns the canonical column for a single raw header as
// Normalize would resolve it for src (ignoring collisions).
func CanonicalName(src Source, raw string) string {
	plain := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(raw, utf8BOM)))
	if canon, ok := lookupAlias(src, foldKey(plain), nil); ok {
		return canon
	}
	return plain
}

func lookupAlias(src Source, key string, extra map[string]string) (string, bool) {
	if key == "" {
		return "", false
	}
	if c, ok := extra[key]; ok && c != "" {
		return c, true
	}
	if c, ok := sourceAliases[src][key]; ok {
		return c, true
	}
	if c, ok := commonAliases[key]; ok {
		return c, true
	}
	for _, c := range canonicalColumns {
		if c == key {
			return c, true
		}
	}
	return "", false
}

// foldKey reduces a header to the form used for alias lookup: diacritics
// removed, lowercase ASCII letters and digits, every other run of characters
// collapsed to a single underscore, no leading or trailing underscore.
//
//	"Order Date" -> "order_date"   "CO2 (kg/km)" -> "co2_kg_km"   "Přípojné" -> "pripojne"
func foldKey(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)

	var b strings.Builder
	b.Grow(len(folded))
	pendingSep := false
	for _, r := range folded {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return b.String()
}
