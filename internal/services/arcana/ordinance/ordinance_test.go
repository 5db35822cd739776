package ordinance

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/louisbranch/arcana/internal/services/arcana/catalog"
	"github.com/louisbranch/arcana/internal/services/arcana/rules"
)

func sampleOrdinance(id, name string) Ordinance {
	mods := []rules.Selection{rules.Select(catalog.FormaCono)}
	return Ordinance{
		ID:           id,
		CanonicalKey: rules.BuildCanonicalKey("ENCENDER", []string{"IGNIS"}, mods),
		Name:         name,
		PreceptID:    "ENCENDER",
		NumenIDs:     []string{"IGNIS"},
		Modifiers:    mods,
		Mechanical:   Mechanical{Narrative: "Un abanico de llamas.", Notes: "2d6 fuego"},
		Cost:         Cost{Complexity: 3, Tier: 2},
		Tier:         2,
		Meta:         Meta{CreatedBy: "Manu", Source: "Sesión 1"},
	}
}

func TestFindByCanonicalKey(t *testing.T) {
	t.Parallel()

	db := Database{}
	key := rules.BuildCanonicalKey("ENCENDER", []string{"IGNIS"}, []rules.Selection{rules.Select(catalog.FormaCono)})
	if _, ok := FindByCanonicalKey(db, key); ok {
		t.Fatal("expected no match in empty database")
	}

	saved := sampleOrdinance("ORD_000001", "Abanico")
	db[saved.ID] = saved
	got, ok := FindByCanonicalKey(db, key)
	if !ok {
		t.Fatal("expected match")
	}
	if diff := cmp.Diff(saved, got); diff != "" {
		t.Fatalf("ordinance mismatch (-want +got):\n%s", diff)
	}

	got.NumenIDs[0] = "AQUA"
	if db[saved.ID].NumenIDs[0] != "IGNIS" {
		t.Fatal("FindByCanonicalKey returned shared slices")
	}

	if _, ok := FindByCanonicalKey(db, "ENCENDER|IGNIS|[]"); ok {
		t.Fatal("unexpected match for a different key")
	}
}

func TestNextOrdinanceID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ids  []string
		want string
	}{
		{name: "empty", want: "ORD_000001"},
		{name: "single", ids: []string{"ORD_000001"}, want: "ORD_000002"},
		{name: "gap uses max", ids: []string{"ORD_000003", "ORD_000010", "ORD_000004"}, want: "ORD_000011"},
		{name: "foreign ids ignored", ids: []string{"custom", "ORD_abc"}, want: "ORD_000001"},
		{name: "mixed", ids: []string{"custom", "ORD_000041"}, want: "ORD_000042"},
		{name: "wide suffix", ids: []string{"ORD_1234567"}, want: "ORD_1234568"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			db := Database{}
			for _, id := range tc.ids {
				db[id] = Ordinance{ID: id}
			}
			if got := NextOrdinanceID(db); got != tc.want {
				t.Fatalf("NextOrdinanceID() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestParseID(t *testing.T) {
	t.Parallel()

	if n, ok := ParseID("ORD_000123"); !ok || n != 123 {
		t.Fatalf("ParseID() = %d, %v; want 123, true", n, ok)
	}
	for _, id := range []string{"", "ORD_", "ORD_-1", "ord_000001", "X_000001"} {
		if _, ok := ParseID(id); ok {
			t.Fatalf("ParseID(%q) should fail", id)
		}
	}
}

func TestExportRoundTrip(t *testing.T) {
	t.Parallel()

	db := Database{
		"ORD_000001": sampleOrdinance("ORD_000001", "Abanico de Ceniza"),
		"ORD_000002": sampleOrdinance("ORD_000002", "Lanza <Ígnea>"),
	}
	data, err := Export(db)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if !bytes.Contains(data, []byte("Sesión 1")) || !bytes.Contains(data, []byte("<Ígnea>")) {
		t.Fatalf("export escaped non-ASCII or HTML text:\n%s", data)
	}
	if !bytes.Contains(data, []byte("\n  \"ORD_000001\": {")) {
		t.Fatalf("export is not indented by two spaces:\n%s", data)
	}

	got, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if diff := cmp.Diff(db, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestExportEmpty(t *testing.T) {
	t.Parallel()

	data, err := Export(nil)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if string(data) != "{}\n" {
		t.Fatalf("Export(nil) = %q, want %q", data, "{}\n")
	}
}

func TestDecodeLegacyCost(t *testing.T) {
	t.Parallel()

	raw := `{"ORD_000001": {"id": "ORD_000001", "canonical_key": "CURAR|VITALIS|[]", "name": "Alivio",
		"precept_id": "CURAR", "numen_ids": ["VITALIS"], "modifiers": [],
		"mechanical": {"narrative": "", "notes": ""},
		"cost": {"complexity_points": 1, "tier": 1}, "tier": 1,
		"meta": {"created_by": "Manu", "source": ""}}}`
	db, err := Decode([]byte(raw))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got := db["ORD_000001"].Cost; got != (Cost{Complexity: 1, Tier: 1}) {
		t.Fatalf("cost = %+v, want complexity 1 tier 1", got)
	}

	out, err := json.Marshal(db["ORD_000001"].Cost)
	if err != nil {
		t.Fatalf("marshal cost: %v", err)
	}
	if string(out) != `{"complexity":1,"tier":1}` {
		t.Fatalf("cost json = %s", out)
	}
}

func TestDecodeEmptyAndInvalid(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"", "  \n", "null"} {
		db, err := Decode([]byte(input))
		if err != nil {
			t.Fatalf("Decode(%q): %v", input, err)
		}
		if db == nil || len(db) != 0 {
			t.Fatalf("Decode(%q) = %v, want empty database", input, db)
		}
	}
	if _, err := Decode([]byte("{not json")); err == nil {
		t.Fatal("expected error for invalid json")
	}
}

func TestCompositionInfersLongDuration(t *testing.T) {
	t.Parallel()

	o := sampleOrdinance("ORD_000001", "Abanico")
	if o.Composition().LongDuration {
		t.Fatal("long duration without DURACION_PERSISTENTE")
	}
	o.Modifiers = append(o.Modifiers, rules.Selection{ModifierID: catalog.DuracionPersistente, Rank: 2})
	if !o.Composition().LongDuration {
		t.Fatal("expected long duration with DURACION_PERSISTENTE")
	}
}
