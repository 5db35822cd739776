// Package filter parses AIP-160 filter expressions over saved ordinances and
// evaluates them in memory.
package filter

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"go.einride.tech/aip/filtering"
	expr "google.golang.org/genproto/googleapis/api/expr/v1alpha1"

	apperrors "github.com/louisbranch/arcana/internal/platform/errors"
)

// Filterable fields.
const (
	FieldID          = "id"
	FieldName        = "name"
	FieldPreceptID   = "precept_id"
	FieldTier        = "tier"
	FieldComplexity  = "complexity"
	FieldEffectType  = "effect_type"
	FieldCreatedBy   = "created_by"
	FieldSource      = "source"
	FieldNumenIDs    = "numen_ids"
	FieldModifierIDs = "modifier_ids"
)

// Whitespace-separated terms parse as FUZZY, which the standard functions do
// not declare; it is evaluated as AND.
const fuzzyAndBool = filtering.FunctionFuzzyAnd + "_bool"

// Declarations returns the field declarations for ordinance filtering.
func Declarations() (*filtering.Declarations, error) {
	return filtering.NewDeclarations(
		filtering.DeclareStandardFunctions(),
		filtering.DeclareFunction(filtering.FunctionFuzzyAnd,
			filtering.NewFunctionOverload(fuzzyAndBool, filtering.TypeBool, filtering.TypeBool, filtering.TypeBool)),
		filtering.DeclareIdent(FieldID, filtering.TypeString),
		filtering.DeclareIdent(FieldName, filtering.TypeString),
		filtering.DeclareIdent(FieldPreceptID, filtering.TypeString),
		filtering.DeclareIdent(FieldTier, filtering.TypeInt),
		filtering.DeclareIdent(FieldComplexity, filtering.TypeInt),
		filtering.DeclareIdent(FieldEffectType, filtering.TypeString),
		filtering.DeclareIdent(FieldCreatedBy, filtering.TypeString),
		filtering.DeclareIdent(FieldSource, filtering.TypeString),
		filtering.DeclareIdent(FieldNumenIDs, filtering.TypeList(filtering.TypeString)),
		filtering.DeclareIdent(FieldModifierIDs, filtering.TypeList(filtering.TypeString)),
	)
}

// Record is the filterable view of one ordinance.
type Record struct {
	ID          string
	Name        string
	PreceptID   string
	Tier        int
	Complexity  int
	EffectType  string
	CreatedBy   string
	Source      string
	NumenIDs    []string
	ModifierIDs []string
}

func (r Record) value(field string) (any, error) {
	switch field {
	case FieldID:
		return r.ID, nil
	case FieldName:
		return r.Name, nil
	case FieldPreceptID:
		return r.PreceptID, nil
	case FieldTier:
		return int64(r.Tier), nil
	case FieldComplexity:
		return int64(r.Complexity), nil
	case FieldEffectType:
		return r.EffectType, nil
	case FieldCreatedBy:
		return r.CreatedBy, nil
	case FieldSource:
		return r.Source, nil
	case FieldNumenIDs:
		return r.NumenIDs, nil
	case FieldModifierIDs:
		return r.ModifierIDs, nil
	default:
		return nil, fmt.Errorf("unknown field: %s", field)
	}
}

// Expression is a parsed and type-checked filter. The zero value matches
// every record.
type Expression struct {
	raw  string
	root *expr.Expr
}

// Parse parses an AIP-160 filter expression. A blank filter yields the zero
// Expression. Syntax and type errors are reported as INVALID_FILTER.
func Parse(filterStr string) (Expression, error) {
	if strings.TrimSpace(filterStr) == "" {
		return Expression{}, nil
	}

	decls, err := Declarations()
	if err != nil {
		return Expression{}, fmt.Errorf("create declarations: %w", err)
	}

	parsed, err := filtering.ParseFilterString(filterStr, decls)
	if err != nil {
		return Expression{}, &apperrors.Error{
			Code:     apperrors.CodeInvalidFilter,
			Message:  "parse filter",
			Metadata: map[string]string{"Filter": filterStr},
			Cause:    err,
		}
	}
	return Expression{raw: filterStr, root: parsed.CheckedExpr.GetExpr()}, nil
}

// Empty reports whether the expression matches everything.
func (e Expression) Empty() bool {
	return e.root == nil
}

// String returns the filter text the expression was parsed from.
func (e Expression) String() string {
	return e.raw
}

// Match evaluates the expression against r.
func (e Expression) Match(r Record) (bool, error) {
	if e.root == nil {
		return true, nil
	}
	return evalBool(e.root, r)
}

func evalBool(e *expr.Expr, r Record) (bool, error) {
	v, err := eval(e, r)
	if err != nil {
		return false, err
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("expected boolean expression, got %T", v)
	}
	return b, nil
}

func eval(e *expr.Expr, r Record) (any, error) {
	if e == nil {
		return nil, fmt.Errorf("nil expression")
	}

	switch kind := e.GetExprKind().(type) {
	case *expr.Expr_ConstExpr:
		return constValue(kind.ConstExpr)
	case *expr.Expr_IdentExpr:
		return r.value(kind.IdentExpr.GetName())
	case *expr.Expr_CallExpr:
		return evalCall(kind.CallExpr, r)
	default:
		return nil, fmt.Errorf("unsupported expression type: %T", kind)
	}
}

func evalCall(call *expr.Expr_Call, r Record) (any, error) {
	args := call.GetArgs()
	switch call.GetFunction() {
	case filtering.FunctionAnd, filtering.FunctionFuzzyAnd:
		if len(args) != 2 {
			return nil, fmt.Errorf("AND requires 2 arguments")
		}
		left, err := evalBool(args[0], r)
		if err != nil || !left {
			return false, err
		}
		return evalBool(args[1], r)
	case filtering.FunctionOr:
		if len(args) != 2 {
			return nil, fmt.Errorf("OR requires 2 arguments")
		}
		left, err := evalBool(args[0], r)
		if err != nil || left {
			return left, err
		}
		return evalBool(args[1], r)
	case filtering.FunctionNot:
		if len(args) != 1 {
			return nil, fmt.Errorf("NOT requires 1 argument")
		}
		v, err := evalBool(args[0], r)
		return !v, err
	case filtering.FunctionHas:
		return evalHas(args, r)
	case filtering.FunctionEquals, filtering.FunctionNotEquals,
		filtering.FunctionLessThan, filtering.FunctionLessEquals,
		filtering.FunctionGreaterThan, filtering.FunctionGreaterEquals:
		return evalComparison(call.GetFunction(), args, r)
	default:
		return nil, fmt.Errorf("unsupported function: %s", call.GetFunction())
	}
}

func evalHas(args []*expr.Expr, r Record) (bool, error) {
	if len(args) != 2 {
		return false, fmt.Errorf("has requires 2 arguments")
	}
	left, right, err := evalPair(args, r)
	if err != nil {
		return false, err
	}
	needle, ok := right.(string)
	if !ok {
		return false, fmt.Errorf("has expects a string operand, got %T", right)
	}

	switch haystack := left.(type) {
	case string:
		return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle)), nil
	case []string:
		return slices.Contains(haystack, needle), nil
	default:
		return false, fmt.Errorf("has does not apply to %T", left)
	}
}

func evalComparison(op string, args []*expr.Expr, r Record) (bool, error) {
	if len(args) != 2 {
		return false, fmt.Errorf("comparison requires 2 arguments")
	}
	left, right, err := evalPair(args, r)
	if err != nil {
		return false, err
	}

	var order int
	switch l := left.(type) {
	case string:
		rv, ok := right.(string)
		if !ok {
			return false, fmt.Errorf("cannot compare string with %T", right)
		}
		order = strings.Compare(l, rv)
	case int64:
		rv, ok := right.(int64)
		if !ok {
			return false, fmt.Errorf("cannot compare int with %T", right)
		}
		order = cmp.Compare(l, rv)
	case bool:
		rv, ok := right.(bool)
		if !ok || (op != filtering.FunctionEquals && op != filtering.FunctionNotEquals) {
			return false, fmt.Errorf("unsupported boolean comparison %s", op)
		}
		if l == rv {
			order = 0
		} else {
			order = 1
		}
	default:
		return false, fmt.Errorf("unsupported operand type: %T", left)
	}

	switch op {
	case filtering.FunctionEquals:
		return order == 0, nil
	case filtering.FunctionNotEquals:
		return order != 0, nil
	case filtering.FunctionLessThan:
		return order < 0, nil
	case filtering.FunctionLessEquals:
		return order <= 0, nil
	case filtering.FunctionGreaterThan:
		return order > 0, nil
	default:
		return order >= 0, nil
	}
}

func evalPair(args []*expr.Expr, r Record) (any, any, error) {
	left, err := eval(args[0], r)
	if err != nil {
		return nil, nil, err
	}
	right, err := eval(args[1], r)
	if err != nil {
		return nil, nil, err
	}
	return left, right, nil
}

func constValue(c *expr.Constant) (any, error) {
	if c == nil {
		return nil, fmt.Errorf("nil constant")
	}

	switch kind := c.GetConstantKind().(type) {
	case *expr.Constant_StringValue:
		return kind.StringValue, nil
	case *expr.Constant_Int64Value:
		return kind.Int64Value, nil
	case *expr.Constant_BoolValue:
		return kind.BoolValue, nil
	default:
		return nil, fmt.Errorf("unsupported constant type: %T", kind)
	}
}
