package mcp

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/status"

	apperrors "github.com/louisbranch/arcana/internal/platform/errors"
	"github.com/louisbranch/arcana/internal/services/arcana/app"
	"github.com/louisbranch/arcana/internal/services/arcana/catalog"
	"github.com/louisbranch/arcana/internal/services/arcana/ordinance"
	"github.com/louisbranch/arcana/internal/services/arcana/rules"
)

// CompositionInput describes a composition in tool arguments. Modifiers use
// the selection token syntax ID[:rN][:xN].
type CompositionInput struct {
	PreceptID    string   `json:"precept_id" jsonschema:"precept id, e.g. ENCENDER"`
	NumenIDs     []string `json:"numen_ids,omitempty" jsonschema:"numen ids"`
	Modifiers    []string `json:"modifiers,omitempty" jsonschema:"modifier tokens ID[:rN][:xN]"`
	LongDuration bool     `json:"long_duration,omitempty" jsonschema:"long duration, only with DURACION_PERSISTENTE"`
}

func (in CompositionInput) composition() (rules.Composition, error) {
	selections, err := rules.ParseSelectionTokens(in.Modifiers)
	if err != nil {
		return rules.Composition{}, err
	}
	return rules.Composition{
		PreceptID:    strings.ToUpper(strings.TrimSpace(in.PreceptID)),
		NumenIDs:     in.NumenIDs,
		Modifiers:    selections,
		LongDuration: in.LongDuration,
	}, nil
}

// ComposeInput is the input of ordinance_compose.
type ComposeInput struct {
	Composition CompositionInput `json:"composition" jsonschema:"composition to evaluate"`
}

// ComposeResult is the output of ordinance_compose.
type ComposeResult struct {
	CanonicalKey string              `json:"canonical_key" jsonschema:"deduplication key"`
	Complexity   int                 `json:"complexity" jsonschema:"complexity points"`
	Tier         int                 `json:"tier" jsonschema:"tier from 1 to 4"`
	TierTitle    string              `json:"tier_title" jsonschema:"caster rank for the tier"`
	Steps        []rules.ExplainStep `json:"steps" jsonschema:"ordered complexity steps"`
	Suggestion   rules.Suggestion    `json:"suggestion" jsonschema:"suggested mechanics"`
	ExistingID   string              `json:"existing_id,omitempty" jsonschema:"id of a saved ordinance with the same key"`
}

// SaveInput is the input of ordinance_save.
type SaveInput struct {
	Composition CompositionInput `json:"composition" jsonschema:"composition to save"`
	Name        string           `json:"name" jsonschema:"ordinance name"`
	Narrative   string           `json:"narrative,omitempty" jsonschema:"narrative text"`
	Notes       string           `json:"notes,omitempty" jsonschema:"mechanical notes, defaults to the summary"`
	CreatedBy   string           `json:"created_by,omitempty" jsonschema:"author"`
	Source      string           `json:"source,omitempty" jsonschema:"where the ordinance came from"`
}

// SaveResult is the output of ordinance_save.
type SaveResult struct {
	Ordinance ordinance.Ordinance `json:"ordinance" jsonschema:"stored ordinance"`
	Created   bool                `json:"created" jsonschema:"false when an ordinance with the same key already existed"`
}

// ListInput is the input of ordinance_list.
type ListInput struct {
	NumenIDs   []string `json:"numen_ids,omitempty" jsonschema:"keep ordinances using any of these numen"`
	PreceptIDs []string `json:"precept_ids,omitempty" jsonschema:"keep ordinances with one of these precepts"`
	Tiers      []int    `json:"tiers,omitempty" jsonschema:"keep ordinances with one of these tiers"`
	Search     string   `json:"search,omitempty" jsonschema:"case-insensitive name substring"`
	EffectType string   `json:"effect_type,omitempty" jsonschema:"damage, heal, control or utility"`
	Filter     string   `json:"filter,omitempty" jsonschema:"AIP-160 filter expression"`
}

// ListEntry is one grimoire row.
type ListEntry struct {
	ID         string `json:"id" jsonschema:"ordinance id"`
	Name       string `json:"name" jsonschema:"ordinance name"`
	PreceptID  string `json:"precept_id" jsonschema:"precept id"`
	Tier       int    `json:"tier" jsonschema:"tier"`
	Complexity int    `json:"complexity" jsonschema:"recomputed complexity"`
	EffectType string `json:"effect_type" jsonschema:"recomputed effect type"`
	Summary    string `json:"summary" jsonschema:"mechanics summary"`
}

// ListResult is the output of ordinance_list.
type ListResult struct {
	Ordinances []ListEntry `json:"ordinances" jsonschema:"matching ordinances ordered by tier then name"`
}

// RollInput is the input of ordinance_roll.
type RollInput struct {
	Composition  CompositionInput `json:"composition" jsonschema:"composition to roll"`
	Seed         *int64           `json:"seed,omitempty" jsonschema:"optional seed for deterministic rolls"`
	SaveModifier int              `json:"save_modifier,omitempty" jsonschema:"bonus to the target's save against control"`
	Bonus        string           `json:"bonus,omitempty" jsonschema:"extra dice rolled with each instance or save, e.g. 1d6+1d4"`
}

// RollResult is the output of ordinance_roll.
type RollResult struct {
	Type       string `json:"type" jsonschema:"effect type"`
	Expression string `json:"expression" jsonschema:"dice rolled"`
	Seed       int64  `json:"seed" jsonschema:"seed used"`
	Total      int    `json:"total" jsonschema:"sum of all dice"`
	Instances  []int  `json:"instances,omitempty" jsonschema:"total per instance"`
	DC         int    `json:"dc,omitempty" jsonschema:"control difficulty class"`
	Resisted   *bool  `json:"resisted,omitempty" jsonschema:"whether the target resisted a control effect"`
	Margin     *int   `json:"margin,omitempty" jsonschema:"save total minus DC"`
}

// CatalogListInput is the input of catalog_list.
type CatalogListInput struct {
	Kind     string `json:"kind" jsonschema:"precepts, numen or modifiers"`
	Category string `json:"category,omitempty" jsonschema:"precept category filter"`
	Family   string `json:"family,omitempty" jsonschema:"modifier family filter"`
	Search   string `json:"search,omitempty" jsonschema:"precept verb or description substring"`
}

// CatalogListResult is the output of catalog_list. Only the requested kind is set.
type CatalogListResult struct {
	Precepts  []catalog.Precept  `json:"precepts,omitempty" jsonschema:"precepts sorted by verb"`
	Numen     []catalog.Numen    `json:"numen,omitempty" jsonschema:"numen sorted by name"`
	Modifiers []catalog.Modifier `json:"modifiers,omitempty" jsonschema:"modifiers grouped by family"`
}

// ComposeTool defines the ordinance_compose tool.
func ComposeTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "ordinance_compose",
		Description: "Validates a composition and returns its key, complexity, tier and suggested mechanics",
	}
}

// SaveTool defines the ordinance_save tool.
func SaveTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "ordinance_save",
		Description: "Saves a composition to the grimoire unless one with the same key exists",
	}
}

// ListTool defines the ordinance_list tool.
func ListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "ordinance_list",
		Description: "Lists saved ordinances with optional filters",
	}
}

// RollTool defines the ordinance_roll tool.
func RollTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "ordinance_roll",
		Description: "Rolls the suggested dice of a composition",
	}
}

// CatalogListTool defines the catalog_list tool.
func CatalogListTool() *mcp.Tool {
	return &mcp.Tool{
		Name:        "catalog_list",
		Description: "Lists precepts, numen or modifiers from the catalog",
	}
}

// toolError renders a domain error for a tool caller as
// "REASON: localized message (StatusCode)", read back from its gRPC status.
func toolError(err error, locale string) error {
	var domainErr *apperrors.Error
	if !errors.As(err, &domainErr) {
		return err
	}
	st := status.Convert(domainErr.ToGRPCStatus(locale, apperrors.Localize(err, locale)))
	reason, message := string(domainErr.Code), st.Message()
	for _, detail := range st.Details() {
		switch d := detail.(type) {
		case *errdetails.ErrorInfo:
			reason = d.GetReason()
		case *errdetails.LocalizedMessage:
			message = d.GetMessage()
		}
	}
	return fmt.Errorf("%s: %s (%s)", reason, message, st.Code())
}

// ComposeHandler evaluates a composition.
func ComposeHandler(svc *app.Service, locale string) mcp.ToolHandlerFor[ComposeInput, ComposeResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ComposeInput) (*mcp.CallToolResult, ComposeResult, error) {
		comp, err := input.Composition.composition()
		if err != nil {
			return nil, ComposeResult{}, toolError(err, locale)
		}
		composed, err := svc.Compose(ctx, comp)
		if err != nil {
			return nil, ComposeResult{}, toolError(err, locale)
		}
		result := ComposeResult{
			CanonicalKey: composed.CanonicalKey,
			Complexity:   composed.Complexity,
			Tier:         composed.Tier,
			TierTitle:    composed.TierTitle,
			Steps:        composed.Steps,
			Suggestion:   composed.Suggestion,
		}
		if composed.Existing != nil {
			result.ExistingID = composed.Existing.ID
		}
		return nil, result, nil
	}
}

// SaveHandler stores a composition.
func SaveHandler(svc *app.Service, locale string) mcp.ToolHandlerFor[SaveInput, SaveResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input SaveInput) (*mcp.CallToolResult, SaveResult, error) {
		comp, err := input.Composition.composition()
		if err != nil {
			return nil, SaveResult{}, toolError(err, locale)
		}
		saved, err := svc.Save(ctx, app.SaveRequest{
			Composition: comp,
			Name:        input.Name,
			Narrative:   input.Narrative,
			Notes:       input.Notes,
			CreatedBy:   input.CreatedBy,
			Source:      input.Source,
		})
		if err != nil {
			return nil, SaveResult{}, toolError(err, locale)
		}
		return nil, SaveResult{Ordinance: saved.Ordinance, Created: saved.Created}, nil
	}
}

// ListHandler lists the grimoire.
func ListHandler(svc *app.Service, locale string) mcp.ToolHandlerFor[ListInput, ListResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input ListInput) (*mcp.CallToolResult, ListResult, error) {
		q := ordinance.Query{
			NumenIDs:   input.NumenIDs,
			PreceptIDs: input.PreceptIDs,
			Tiers:      input.Tiers,
			Search:     input.Search,
			Filter:     input.Filter,
		}
		if value := strings.TrimSpace(input.EffectType); value != "" {
			effect, ok := rules.ParseEffectType(value)
			if !ok {
				return nil, ListResult{}, fmt.Errorf("unknown effect type %q", value)
			}
			q.EffectType = effect
		}
		entries, err := svc.List(ctx, q)
		if err != nil {
			return nil, ListResult{}, toolError(err, locale)
		}
		result := ListResult{Ordinances: make([]ListEntry, 0, len(entries))}
		for _, e := range entries {
			result.Ordinances = append(result.Ordinances, ListEntry{
				ID:         e.Ordinance.ID,
				Name:       e.Ordinance.Name,
				PreceptID:  e.Ordinance.PreceptID,
				Tier:       e.Ordinance.Tier,
				Complexity: e.Complexity,
				EffectType: string(e.EffectType),
				Summary:    e.Suggestion.Summary,
			})
		}
		return nil, result, nil
	}
}

// RollHandler rolls a composition's dice.
func RollHandler(svc *app.Service, locale string) mcp.ToolHandlerFor[RollInput, RollResult] {
	return func(ctx context.Context, _ *mcp.CallToolRequest, input RollInput) (*mcp.CallToolResult, RollResult, error) {
		comp, err := input.Composition.composition()
		if err != nil {
			return nil, RollResult{}, toolError(err, locale)
		}
		rolled, err := svc.Roll(ctx, app.RollRequest{
			Composition:  comp,
			Seed:         input.Seed,
			SaveModifier: input.SaveModifier,
			Bonus:        input.Bonus,
		})
		if err != nil {
			return nil, RollResult{}, toolError(err, locale)
		}
		result := RollResult{
			Type:       string(rolled.Type),
			Expression: rolled.Expression,
			Seed:       rolled.Seed,
			Total:      rolled.Dice.Total,
			Instances:  rolled.Instances,
			DC:         rolled.DC,
		}
		if rolled.Check != nil {
			resisted := rolled.Check.Success
			margin := rolled.Check.Margin
			result.Resisted = &resisted
			result.Margin = &margin
		}
		return nil, result, nil
	}
}

// CatalogListHandler lists one kind of catalog entry.
func CatalogListHandler(cat *catalog.Catalog) mcp.ToolHandlerFor[CatalogListInput, CatalogListResult] {
	return func(_ context.Context, _ *mcp.CallToolRequest, input CatalogListInput) (*mcp.CallToolResult, CatalogListResult, error) {
		switch strings.ToLower(strings.TrimSpace(input.Kind)) {
		case "precepts":
			return nil, CatalogListResult{Precepts: cat.FindPrecepts(catalog.PreceptQuery{
				Category: strings.TrimSpace(input.Category),
				Search:   input.Search,
			})}, nil
		case "numen":
			return nil, CatalogListResult{Numen: cat.NumenList()}, nil
		case "modifiers":
			if family := strings.ToUpper(strings.TrimSpace(input.Family)); family != "" {
				return nil, CatalogListResult{Modifiers: cat.ModifiersByFamily(catalog.Family(family))}, nil
			}
			return nil, CatalogListResult{Modifiers: cat.Modifiers()}, nil
		default:
			return nil, CatalogListResult{}, fmt.Errorf("kind must be precepts, numen or modifiers, got %q", input.Kind)
		}
	}
}
