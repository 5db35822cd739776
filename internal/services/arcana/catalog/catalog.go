// Package catalog holds the immutable reference tables of precepts, numen and
// modifiers that every ordinance is composed from.
package catalog

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	apperrors "github.com/louisbranch/arcana/internal/platform/errors"
)

//go:embed data/*.yaml
var embeddedData embed.FS

const (
	preceptsFile  = "precepts.yaml"
	numenFile     = "numen.yaml"
	modifiersFile = "modifiers.yaml"
)

var (
	loadDefaultOnce sync.Once
	defaultCatalog  *Catalog
	defaultLoadErr  error
)

// Catalog is a validated, read-only set of reference tables. Lookups return
// copies so callers cannot mutate shared state.
type Catalog struct {
	precepts  map[string]Precept
	numen     map[string]Numen
	modifiers map[string]Modifier

	preceptOrder  []string
	numenOrder    []string
	modifierOrder []string
}

type preceptsDocument struct {
	Precepts []Precept `yaml:"precepts"`
}

type numenDocument struct {
	Numen []Numen `yaml:"numen"`
}

type modifiersDocument struct {
	Modifiers []Modifier `yaml:"modifiers"`
}

// Default returns the embedded catalog, decoded and validated once.
func Default() (*Catalog, error) {
	loadDefaultOnce.Do(func() {
		sub, err := fs.Sub(embeddedData, "data")
		if err != nil {
			defaultLoadErr = err
			return
		}
		defaultCatalog, defaultLoadErr = Load(sub)
	})
	return defaultCatalog, defaultLoadErr
}

// LoadDir loads a catalog from a directory holding precepts.yaml, numen.yaml
// and modifiers.yaml.
func LoadDir(dir string) (*Catalog, error) {
	return Load(os.DirFS(dir))
}

// Load decodes and validates a catalog from the root of fsys.
func Load(fsys fs.FS) (*Catalog, error) {
	var precepts preceptsDocument
	if err := decodeFile(fsys, preceptsFile, &precepts); err != nil {
		return nil, err
	}
	var numen numenDocument
	if err := decodeFile(fsys, numenFile, &numen); err != nil {
		return nil, err
	}
	var modifiers modifiersDocument
	if err := decodeFile(fsys, modifiersFile, &modifiers); err != nil {
		return nil, err
	}
	return New(precepts.Precepts, numen.Numen, modifiers.Modifiers)
}

// New builds a catalog from in-memory tables after validating them.
func New(precepts []Precept, numen []Numen, modifiers []Modifier) (*Catalog, error) {
	c := &Catalog{
		precepts:  make(map[string]Precept, len(precepts)),
		numen:     make(map[string]Numen, len(numen)),
		modifiers: make(map[string]Modifier, len(modifiers)),
	}

	for _, n := range numen {
		n.ID = strings.TrimSpace(n.ID)
		if n.ID == "" {
			return nil, invalid("numen id is required")
		}
		if _, exists := c.numen[n.ID]; exists {
			return nil, invalid(fmt.Sprintf("duplicate numen %s", n.ID))
		}
		c.numen[n.ID] = n.clone()
		c.numenOrder = append(c.numenOrder, n.ID)
	}

	for _, p := range precepts {
		p.ID = strings.TrimSpace(p.ID)
		if p.ID == "" {
			return nil, invalid("precept id is required")
		}
		if _, exists := c.precepts[p.ID]; exists {
			return nil, invalid(fmt.Sprintf("duplicate precept %s", p.ID))
		}
		if !p.Mode.Valid() {
			return nil, invalid(fmt.Sprintf("precept %s has unknown mode %q", p.ID, p.Mode))
		}
		if p.BaseComplexity < 0 {
			return nil, invalid(fmt.Sprintf("precept %s has negative base complexity", p.ID))
		}
		for _, nid := range p.PreferredNumenIDs {
			if _, ok := c.numen[nid]; !ok {
				return nil, invalid(fmt.Sprintf("precept %s prefers unknown numen %s", p.ID, nid))
			}
		}
		c.precepts[p.ID] = p.clone()
		c.preceptOrder = append(c.preceptOrder, p.ID)
	}

	for _, m := range modifiers {
		m.ID = strings.TrimSpace(m.ID)
		if m.ID == "" {
			return nil, invalid("modifier id is required")
		}
		if _, exists := c.modifiers[m.ID]; exists {
			return nil, invalid(fmt.Sprintf("duplicate modifier %s", m.ID))
		}
		if !m.Family.Valid() {
			return nil, invalid(fmt.Sprintf("modifier %s has unknown family %q", m.ID, m.Family))
		}
		if m.MaxRank != nil && *m.MaxRank < 1 {
			return nil, invalid(fmt.Sprintf("modifier %s has max_rank below 1", m.ID))
		}
		c.modifiers[m.ID] = m.clone()
		c.modifierOrder = append(c.modifierOrder, m.ID)
	}

	if len(c.precepts) == 0 || len(c.numen) == 0 || len(c.modifiers) == 0 {
		return nil, invalid("catalog needs at least one precept, numen and modifier")
	}

	c.sortOrders()
	return c, nil
}

func (c *Catalog) sortOrders() {
	sort.SliceStable(c.preceptOrder, func(i, j int) bool {
		a, b := c.precepts[c.preceptOrder[i]], c.precepts[c.preceptOrder[j]]
		return strings.ToLower(a.Verb) < strings.ToLower(b.Verb)
	})
	sort.SliceStable(c.numenOrder, func(i, j int) bool {
		return strings.ToLower(c.numen[c.numenOrder[i]].Name) < strings.ToLower(c.numen[c.numenOrder[j]].Name)
	})
	familyRank := make(map[Family]int, len(Families))
	for i, f := range Families {
		familyRank[f] = i
	}
	sort.SliceStable(c.modifierOrder, func(i, j int) bool {
		a, b := c.modifiers[c.modifierOrder[i]], c.modifiers[c.modifierOrder[j]]
		return familyRank[a.Family] < familyRank[b.Family]
	})
}

func decodeFile(fsys fs.FS, name string, target any) error {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeCatalogInvalid, "read catalog "+name, err)
	}
	if err := yaml.Unmarshal(data, target); err != nil {
		return apperrors.Wrap(apperrors.CodeCatalogInvalid, "decode catalog "+name, err)
	}
	return nil
}

func invalid(reason string) error {
	return apperrors.WithMetadata(apperrors.CodeCatalogInvalid, "invalid catalog: "+reason, map[string]string{"Reason": reason})
}

// Precept returns the precept with the given id.
func (c *Catalog) Precept(id string) (Precept, bool) {
	p, ok := c.precepts[id]
	if !ok {
		return Precept{}, false
	}
	return p.clone(), true
}

// Numen returns the numen with the given id.
func (c *Catalog) Numen(id string) (Numen, bool) {
	n, ok := c.numen[id]
	if !ok {
		return Numen{}, false
	}
	return n.clone(), true
}

// Modifier returns the modifier with the given id.
func (c *Catalog) Modifier(id string) (Modifier, bool) {
	m, ok := c.modifiers[id]
	if !ok {
		return Modifier{}, false
	}
	return m.clone(), true
}

// RequirePrecept returns the precept or an UNKNOWN_PRECEPT error.
func (c *Catalog) RequirePrecept(id string) (Precept, error) {
	p, ok := c.Precept(id)
	if !ok {
		return Precept{}, apperrors.WithMetadata(apperrors.CodeUnknownPrecept, "unknown precept "+id, map[string]string{"PreceptID": id})
	}
	return p, nil
}

// RequireNumen returns the numen or an UNKNOWN_NUMEN error.
func (c *Catalog) RequireNumen(id string) (Numen, error) {
	n, ok := c.Numen(id)
	if !ok {
		return Numen{}, apperrors.WithMetadata(apperrors.CodeUnknownNumen, "unknown numen "+id, map[string]string{"NumenID": id})
	}
	return n, nil
}

// RequireModifier returns the modifier or an UNKNOWN_MODIFIER error.
func (c *Catalog) RequireModifier(id string) (Modifier, error) {
	m, ok := c.Modifier(id)
	if !ok {
		return Modifier{}, apperrors.WithMetadata(apperrors.CodeUnknownModifier, "unknown modifier "+id, map[string]string{"ModifierID": id})
	}
	return m, nil
}
