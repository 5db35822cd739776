// Package ordinance defines saved ordinances and the repository logic that
// works on a whole grimoire: canonical-key lookup, id sequencing, querying
// and export.
package ordinance

import (
	"bytes"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/louisbranch/arcana/internal/services/arcana/catalog"
	"github.com/louisbranch/arcana/internal/services/arcana/rules"
)

// IDPrefix starts every ordinance id.
const IDPrefix = "ORD_"

// Mechanical holds the free text attached to an ordinance.
type Mechanical struct {
	Narrative string `json:"narrative"`
	Notes     string `json:"notes"`
}

// Cost records the complexity and tier an ordinance was saved with.
type Cost struct {
	Complexity int `json:"complexity"`
	Tier       int `json:"tier"`
}

// UnmarshalJSON also accepts the legacy complexity_points key.
func (c *Cost) UnmarshalJSON(data []byte) error {
	var raw struct {
		Complexity       *int `json:"complexity"`
		ComplexityPoints *int `json:"complexity_points"`
		Tier             int  `json:"tier"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = Cost{Tier: raw.Tier}
	switch {
	case raw.Complexity != nil:
		c.Complexity = *raw.Complexity
	case raw.ComplexityPoints != nil:
		c.Complexity = *raw.ComplexityPoints
	}
	return nil
}

// Meta records who created an ordinance and where.
type Meta struct {
	CreatedBy string `json:"created_by"`
	Source    string `json:"source"`
}

// Ordinance is a named, saved composition.
type Ordinance struct {
	ID           string            `json:"id"`
	CanonicalKey string            `json:"canonical_key"`
	Name         string            `json:"name"`
	PreceptID    string            `json:"precept_id"`
	NumenIDs     []string          `json:"numen_ids"`
	Modifiers    []rules.Selection `json:"modifiers"`
	Mechanical   Mechanical        `json:"mechanical"`
	Cost         Cost              `json:"cost"`
	Tier         int               `json:"tier"`
	Meta         Meta              `json:"meta"`
}

// Composition returns the selection the ordinance was built from. The long
// duration flag is not stored, so it is inferred from DURACION_PERSISTENTE.
func (o Ordinance) Composition() rules.Composition {
	long := slices.ContainsFunc(o.Modifiers, func(sel rules.Selection) bool {
		return sel.ModifierID == catalog.DuracionPersistente
	})
	return rules.Composition{
		PreceptID:    o.PreceptID,
		NumenIDs:     slices.Clone(o.NumenIDs),
		Modifiers:    slices.Clone(o.Modifiers),
		LongDuration: long,
	}
}

// Clone returns a deep copy of o.
func (o Ordinance) Clone() Ordinance {
	o.NumenIDs = slices.Clone(o.NumenIDs)
	o.Modifiers = slices.Clone(o.Modifiers)
	return o
}

// Database maps ordinance id to ordinance.
type Database map[string]Ordinance

// Sorted returns the ordinances ordered by id.
func (db Database) Sorted() []Ordinance {
	ids := slices.Sorted(maps.Keys(db))
	out := make([]Ordinance, 0, len(ids))
	for _, id := range ids {
		out = append(out, db[id].Clone())
	}
	return out
}

// FindByCanonicalKey returns the ordinance with the given canonical key.
func FindByCanonicalKey(db Database, canonicalKey string) (Ordinance, bool) {
	for _, id := range slices.Sorted(maps.Keys(db)) {
		if db[id].CanonicalKey == canonicalKey {
			return db[id].Clone(), true
		}
	}
	return Ordinance{}, false
}

// NextOrdinanceID returns the id after the highest numeric ORD_ suffix in db.
// Ids without the prefix or with a non-numeric suffix are ignored.
func NextOrdinanceID(db Database) string {
	highest := 0
	for _, o := range db {
		if n, ok := ParseID(o.ID); ok && n > highest {
			highest = n
		}
	}
	return FormatID(highest + 1)
}

// FormatID formats a sequence number as an ordinance id.
func FormatID(n int) string {
	return fmt.Sprintf("%s%06d", IDPrefix, n)
}

// ParseID returns the sequence number of an ordinance id.
func ParseID(id string) (int, bool) {
	suffix, ok := strings.CutPrefix(id, IDPrefix)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(suffix)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Export serializes db as indented UTF-8 JSON keyed by id. Non-ASCII text is
// written as is.
func Export(db Database) ([]byte, error) {
	if db == nil {
		db = Database{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(db); err != nil {
		return nil, fmt.Errorf("encode ordinances: %w", err)
	}
	return buf.Bytes(), nil
}

// Decode parses the JSON produced by Export.
func Decode(data []byte) (Database, error) {
	db := Database{}
	if len(bytes.TrimSpace(data)) == 0 {
		return db, nil
	}
	if err := json.Unmarshal(data, &db); err != nil {
		return nil, err
	}
	if db == nil {
		db = Database{}
	}
	return db, nil
}
