package app

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	apperrors "github.com/louisbranch/arcana/internal/platform/errors"
	"github.com/louisbranch/arcana/internal/services/arcana/catalog"
	"github.com/louisbranch/arcana/internal/services/arcana/ordinance"
	"github.com/louisbranch/arcana/internal/services/arcana/rules"
	"github.com/louisbranch/arcana/internal/services/arcana/storage"
	"github.com/louisbranch/arcana/internal/services/arcana/storage/jsonfile"
)

func newTestService(t *testing.T, opts ...Option) (*Service, *jsonfile.Store) {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	store, err := jsonfile.Open(filepath.Join(t.TempDir(), "ordinances_db.json"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	svc, err := NewService(rules.NewEngine(cat), store, opts...)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, store
}

func scenarioA() rules.Composition {
	return rules.Composition{
		PreceptID: "ENCENDER",
		NumenIDs:  []string{"IGNIS"},
		Modifiers: []rules.Selection{rules.Select(catalog.FormaCono)},
	}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("load catalog: %v", err)
	}
	store, err := jsonfile.Open(filepath.Join(t.TempDir(), "db.json"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if _, err := NewService(nil, store); err == nil {
		t.Fatal("expected error for nil engine")
	}
	if _, err := NewService(rules.NewEngine(cat), nil); err == nil {
		t.Fatal("expected error for nil store")
	}
}

func TestCompose(t *testing.T) {
	svc, _ := newTestService(t)

	got, err := svc.Compose(context.Background(), scenarioA())
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if got.CanonicalKey != "ENCENDER|IGNIS|[FORMA_CONO]" {
		t.Fatalf("canonical key = %q", got.CanonicalKey)
	}
	if got.Complexity != 3 || got.Tier != 2 || got.TierTitle != "Adeptus" {
		t.Fatalf("complexity/tier = %d/%d %q, want 3/2 Adeptus", got.Complexity, got.Tier, got.TierTitle)
	}
	if got.Suggestion.Type != rules.EffectControl {
		t.Fatalf("type = %q, want control", got.Suggestion.Type)
	}
	if got.Existing != nil {
		t.Fatalf("unexpected existing ordinance %+v", got.Existing)
	}
	if len(got.Steps) == 0 || got.Steps[0].Code != "BASE_PRECEPT" {
		t.Fatalf("steps = %+v, want BASE_PRECEPT first", got.Steps)
	}
}

func TestComposeGatesLongDuration(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	plain := scenarioA()
	plain.LongDuration = true
	got, err := svc.Compose(ctx, plain)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if got.Composition.LongDuration {
		t.Fatal("long duration kept without DURACION_PERSISTENTE")
	}

	persistent := rules.Composition{
		PreceptID:    "CURAR",
		NumenIDs:     []string{"VITALIS"},
		Modifiers:    []rules.Selection{rules.Select(catalog.DuracionPersistente)},
		LongDuration: true,
	}
	got, err = svc.Compose(ctx, persistent)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if !got.Composition.LongDuration || got.Complexity != 3 {
		t.Fatalf("long = %v complexity = %d, want true 3", got.Composition.LongDuration, got.Complexity)
	}

	persistent.LongDuration = false
	got, err = svc.Compose(ctx, persistent)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if got.Complexity != 2 {
		t.Fatalf("complexity without long duration = %d, want 2", got.Complexity)
	}
}

func TestComposeCacheReturnsCopies(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Compose(ctx, scenarioA())
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	first.Composition.NumenIDs[0] = "AQUA"
	first.Suggestion.Details.Control.Severity = 99

	second, err := svc.Compose(ctx, scenarioA())
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if second.Composition.NumenIDs[0] != "IGNIS" || second.Suggestion.Details.Control.Severity != 2 {
		t.Fatalf("cached composition was mutated: %+v", second.Composition)
	}
	if svc.cache.Len() != 1 {
		t.Fatalf("cache len = %d, want 1", svc.cache.Len())
	}
}

func TestComposeCacheCopiesStepData(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Compose(ctx, scenarioA())
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	first.Steps[0].Data["precept_id"] = "CURAR"

	second, err := svc.Compose(ctx, scenarioA())
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if got := second.Steps[0].Data["precept_id"]; got != "ENCENDER" {
		t.Fatalf("cached step data = %v, want ENCENDER", got)
	}
}

func TestComposeKeepsNumenOrder(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	composition := func(numen ...string) rules.Composition {
		return rules.Composition{
			PreceptID: "APLASTAR",
			NumenIDs:  numen,
			Modifiers: []rules.Selection{rules.Select(catalog.IntencionOfensivo)},
		}
	}

	for _, numen := range [][]string{{"IGNIS", "MITAUNA"}, {"MITAUNA", "IGNIS"}} {
		c := composition(numen...)
		got, err := svc.Compose(ctx, c)
		if err != nil {
			t.Fatalf("Compose(%v): %v", numen, err)
		}
		want, err := svc.Engine().SuggestMechanics(c, got.Complexity)
		if err != nil {
			t.Fatalf("SuggestMechanics(%v): %v", numen, err)
		}
		if got.Suggestion.Details.Element != want.Details.Element {
			t.Fatalf("element for %v = %q, want %q", numen, got.Suggestion.Details.Element, want.Details.Element)
		}
		if got.Suggestion.Summary != want.Summary {
			t.Fatalf("summary for %v = %q, want %q", numen, got.Suggestion.Summary, want.Summary)
		}
		if diff := cmp.Diff(numen, got.Composition.NumenIDs); diff != "" {
			t.Fatalf("numen order mismatch (-want +got):\n%s", diff)
		}
		if got.CanonicalKey != "APLASTAR|IGNIS+MITAUNA|[INTENCION_OFENSIVO]" {
			t.Fatalf("canonical key = %q", got.CanonicalKey)
		}
	}
	if svc.cache.Len() != 2 {
		t.Fatalf("cache len = %d, want 2", svc.cache.Len())
	}
}

func TestComposeValidation(t *testing.T) {
	svc, _ := newTestService(t)

	tests := []struct {
		name string
		comp rules.Composition
		want apperrors.Code
	}{
		{"unknown precept", rules.Composition{PreceptID: "NOPE"}, apperrors.CodeUnknownPrecept},
		{"unknown numen", rules.Composition{PreceptID: "CURAR", NumenIDs: []string{"NOPE"}}, apperrors.CodeUnknownNumen},
		{"bad rank", rules.Composition{PreceptID: "CURAR", Modifiers: []rules.Selection{{ModifierID: catalog.IntensidadPotenciado, Rank: 5}}}, apperrors.CodeInvalidModifierRank},
		{"condition", rules.Composition{PreceptID: "CURAR", Modifiers: []rules.Selection{rules.Select("COND_ENEMIGOS")}}, apperrors.CodeConditionWithoutIntent},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Compose(context.Background(), tc.comp)
			if got := apperrors.CodeOf(err); got != tc.want {
				t.Fatalf("CodeOf() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestSave(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	svc, store := newTestService(t, WithLogger(zap.New(core)))
	ctx := context.Background()

	result, err := svc.Save(ctx, SaveRequest{
		Composition: scenarioA(),
		Name:        "  Abanico de Ceniza ",
		Narrative:   "Un abanico de brasas.",
		CreatedBy:   "Manu",
		Source:      "Sesión 1",
	})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !result.Created {
		t.Fatal("expected a new ordinance")
	}
	got := result.Ordinance
	if got.ID != "ORD_000001" || got.Name != "Abanico de Ceniza" {
		t.Fatalf("saved = %s %q", got.ID, got.Name)
	}
	if got.Cost != (ordinance.Cost{Complexity: 3, Tier: 2}) || got.Tier != 2 {
		t.Fatalf("cost = %+v tier = %d", got.Cost, got.Tier)
	}
	if got.Mechanical.Notes == "" || got.Mechanical.Narrative != "Un abanico de brasas." {
		t.Fatalf("mechanical = %+v", got.Mechanical)
	}

	stored, err := store.GetOrdinance(ctx, "ORD_000001")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if diff := cmp.Diff(got, stored); diff != "" {
		t.Fatalf("stored mismatch (-want +got):\n%s", diff)
	}
	if logs.FilterMessage("ordinance saved").Len() != 1 {
		t.Fatal("expected save to be logged")
	}

	composed, err := svc.Compose(ctx, scenarioA())
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if composed.Existing == nil || composed.Existing.ID != "ORD_000001" {
		t.Fatalf("existing = %+v, want ORD_000001", composed.Existing)
	}
}

func TestSaveReturnsExistingForSameKey(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	offensive := rules.Composition{
		PreceptID: "ENCENDER",
		NumenIDs:  []string{"IGNIS"},
		Modifiers: []rules.Selection{rules.Select(catalog.FormaCono), rules.Select(catalog.IntencionOfensivo)},
	}
	if _, err := svc.Save(ctx, SaveRequest{Composition: offensive, Name: "Primera"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reordered := offensive
	reordered.Modifiers = []rules.Selection{rules.Select(catalog.IntencionOfensivo), rules.Select(catalog.FormaCono)}
	again, err := svc.Save(ctx, SaveRequest{Composition: reordered, Name: "Segunda"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if again.Created || again.Ordinance.Name != "Primera" {
		t.Fatalf("second save = %+v, want existing Primera", again)
	}

	next, err := svc.Save(ctx, SaveRequest{Composition: scenarioA(), Name: "Tercera"})
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if !next.Created || next.Ordinance.ID != "ORD_000002" {
		t.Fatalf("third save = %+v, want ORD_000002", next.Ordinance)
	}
}

func TestSaveValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Save(ctx, SaveRequest{Composition: scenarioA(), Name: "   "}); !errors.Is(err, ErrNameEmpty) {
		t.Fatalf("blank name err = %v, want ErrNameEmpty", err)
	}
	noNumen := scenarioA()
	noNumen.NumenIDs = nil
	if _, err := svc.Save(ctx, SaveRequest{Composition: noNumen, Name: "Sin numen"}); !errors.Is(err, ErrNumenMissing) {
		t.Fatalf("no numen err = %v, want ErrNumenMissing", err)
	}
	bad := scenarioA()
	bad.PreceptID = "NOPE"
	if _, err := svc.Save(ctx, SaveRequest{Composition: bad, Name: "Rota"}); apperrors.CodeOf(err) != apperrors.CodeUnknownPrecept {
		t.Fatalf("bad precept err = %v", err)
	}
}

func TestListAndExport(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	heal := rules.Composition{PreceptID: "CURAR", NumenIDs: []string{"VITALIS"}}
	for _, req := range []SaveRequest{
		{Composition: scenarioA(), Name: "Abanico"},
		{Composition: heal, Name: "Alivio"},
	} {
		if _, err := svc.Save(ctx, req); err != nil {
			t.Fatalf("Save %s: %v", req.Name, err)
		}
	}

	entries, err := svc.List(ctx, ordinance.Query{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Ordinance.Name)
	}
	if diff := cmp.Diff([]string{"Alivio", "Abanico"}, names); diff != "" {
		t.Fatalf("names mismatch (-want +got):\n%s", diff)
	}

	heals, err := svc.List(ctx, ordinance.Query{Filter: `effect_type = "heal"`})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(heals) != 1 || heals[0].Ordinance.ID != "ORD_000002" {
		t.Fatalf("heal entries = %+v", heals)
	}

	data, err := svc.Export(ctx)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	db, err := ordinance.Decode(data)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(db) != 2 || !bytes.Contains(data, []byte(`"ORD_000002"`)) {
		t.Fatalf("export = %s", data)
	}

	got, err := svc.Get(ctx, "ORD_000001")
	if err != nil || got.Name != "Abanico" {
		t.Fatalf("Get = %+v, %v", got, err)
	}
	if _, err := svc.Get(ctx, "ORD_000009"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("missing err = %v, want ErrNotFound", err)
	}
}

func TestRoll(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	seed := int64(7)

	split := rules.Composition{
		PreceptID: "CURAR",
		NumenIDs:  []string{"VITALIS"},
		Modifiers: []rules.Selection{
			{ModifierID: catalog.IntensidadMultiplicado, Rank: 1, ExtraInstances: 2},
			{ModifierID: catalog.IntensidadPotenciado, Rank: 2},
		},
	}
	got, err := svc.Roll(ctx, RollRequest{Composition: split, Seed: &seed})
	if err != nil {
		t.Fatalf("Roll: %v", err)
	}
	if got.Type != rules.EffectHeal || got.Expression != "1d4+1d4+1d4" || got.Seed != 7 {
		t.Fatalf("roll = %+v", got)
	}
	if len(got.Instances) != 3 {
		t.Fatalf("instances = %v, want 3", got.Instances)
	}
	sum := 0
	for _, v := range got.Instances {
		if v < 1 || v > 4 {
			t.Fatalf("instance total %d outside 1d4", v)
		}
		sum += v
	}
	if sum != got.Dice.Total {
		t.Fatalf("instances sum %d, dice total %d", sum, got.Dice.Total)
	}

	again, err := svc.Roll(ctx, RollRequest{Composition: split, Seed: &seed})
	if err != nil {
		t.Fatalf("Roll: %v", err)
	}
	if diff := cmp.Diff(got, again); diff != "" {
		t.Fatalf("same seed rolled differently (-first +second):\n%s", diff)
	}
}

func TestRollControl(t *testing.T) {
	svc, _ := newTestService(t)
	seed := int64(3)

	got, err := svc.Roll(context.Background(), RollRequest{Composition: scenarioA(), Seed: &seed, SaveModifier: 2})
	if err != nil {
		t.Fatalf("Roll: %v", err)
	}
	if got.Type != rules.EffectControl || got.DC != 12 || got.Expression != "1d20" {
		t.Fatalf("roll = %+v", got)
	}
	if got.Check == nil {
		t.Fatal("expected a save check")
	}
	wantMargin := got.Dice.Total + 2 - 12
	if got.Check.Margin != wantMargin || got.Check.Success != (wantMargin >= 0) {
		t.Fatalf("check = %+v, want margin %d", got.Check, wantMargin)
	}
}

func TestRollBonus(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	seed := int64(7)

	split := rules.Composition{
		PreceptID: "CURAR",
		NumenIDs:  []string{"VITALIS"},
		Modifiers: []rules.Selection{{ModifierID: catalog.IntensidadMultiplicado, Rank: 1, ExtraInstances: 2}},
	}
	got, err := svc.Roll(ctx, RollRequest{Composition: split, Seed: &seed, Bonus: "1d6"})
	if err != nil {
		t.Fatalf("Roll: %v", err)
	}
	if got.Expression != "1d4+1d6+1d4+1d6+1d4+1d6" {
		t.Fatalf("expression = %q", got.Expression)
	}
	if len(got.Instances) != 3 {
		t.Fatalf("instances = %v, want 3", got.Instances)
	}
	sum := 0
	for i, v := range got.Instances {
		if want := got.Dice.Rolls[2*i].Total + got.Dice.Rolls[2*i+1].Total; v != want {
			t.Fatalf("instance %d = %d, want %d", i, v, want)
		}
		sum += v
	}
	if sum != got.Dice.Total {
		t.Fatalf("instances sum %d, dice total %d", sum, got.Dice.Total)
	}

	control, err := svc.Roll(ctx, RollRequest{Composition: scenarioA(), Seed: &seed, Bonus: "1d4"})
	if err != nil {
		t.Fatalf("Roll: %v", err)
	}
	if control.Expression != "1d20+1d4" || control.Check == nil || control.Check.Margin != control.Dice.Total-12 {
		t.Fatalf("control roll = %+v", control)
	}

	for _, bonus := range []string{"2x6", "0d6", "d"} {
		_, err := svc.Roll(ctx, RollRequest{Composition: split, Seed: &seed, Bonus: bonus})
		if code := apperrors.CodeOf(err); code != apperrors.CodeDiceInvalidSpec {
			t.Fatalf("bonus %q: code = %s, want %s", bonus, code, apperrors.CodeDiceInvalidSpec)
		}
	}
}

func TestRollUtility(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Roll(context.Background(), RollRequest{Composition: rules.Composition{PreceptID: "ILUMINAR"}})
	if !errors.Is(err, ErrNothingToRoll) {
		t.Fatalf("err = %v, want ErrNothingToRoll", err)
	}
}
