package rules

import (
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/louisbranch/arcana/internal/platform/errors"
)

// Selection is a chosen modifier with its rank and extra instances.
type Selection struct {
	ModifierID     string `json:"modifier_id"`
	Rank           int    `json:"rank"`
	ExtraInstances int    `json:"extra_instances"`
}

// Select returns a rank 1 selection of id.
func Select(id string) Selection {
	return Selection{ModifierID: id, Rank: 1}
}

// Token renders the selection as it appears inside a canonical key:
// the id, then ":r<rank>" when rank is not 1, then ":x<extra>" when extra
// instances are positive.
func (s Selection) Token() string {
	var b strings.Builder
	b.WriteString(s.ModifierID)
	if s.Rank != 1 {
		fmt.Fprintf(&b, ":r%d", s.Rank)
	}
	if s.ExtraInstances > 0 {
		fmt.Fprintf(&b, ":x%d", s.ExtraInstances)
	}
	return b.String()
}

// ParseSelectionToken parses "ID[:r<rank>][:x<extra>]". Omitted parts
// default to rank 1 and no extra instances.
func ParseSelectionToken(token string) (Selection, error) {
	parts := strings.Split(strings.TrimSpace(token), ":")
	sel := Selection{ModifierID: strings.TrimSpace(parts[0]), Rank: 1}
	if sel.ModifierID == "" {
		return Selection{}, invalidToken(token)
	}
	seenRank, seenExtra := false, false
	for _, part := range parts[1:] {
		if len(part) < 2 {
			return Selection{}, invalidToken(token)
		}
		value, err := strconv.Atoi(part[1:])
		if err != nil {
			return Selection{}, invalidToken(token)
		}
		switch part[0] {
		case 'r':
			if seenRank {
				return Selection{}, invalidToken(token)
			}
			seenRank = true
			sel.Rank = value
		case 'x':
			if seenExtra {
				return Selection{}, invalidToken(token)
			}
			seenExtra = true
			sel.ExtraInstances = value
		default:
			return Selection{}, invalidToken(token)
		}
	}
	return sel, nil
}

// ParseSelectionTokens parses each token in order.
func ParseSelectionTokens(tokens []string) ([]Selection, error) {
	out := make([]Selection, 0, len(tokens))
	for _, token := range tokens {
		sel, err := ParseSelectionToken(token)
		if err != nil {
			return nil, err
		}
		out = append(out, sel)
	}
	return out, nil
}

func invalidToken(token string) error {
	return apperrors.WithMetadata(apperrors.CodeInvalidSelectionToken,
		"invalid selection token "+strconv.Quote(token),
		map[string]string{"Token": token})
}
