package pattern

import (
	_ "embed"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// DefaultWeight is used for a template missing from a weight table.
const DefaultWeight = 0.3

//go:embed catalog.yaml
var embeddedCatalog []byte

// Weight is the base weight of one template within an archetype.
type Weight struct {
	Pattern ID      `yaml:"pattern" json:"pattern"`
	Weight  float64 `yaml:"weight" json:"weight"`
}

// Weights is an archetype's weight table in catalog order.
type Weights []Weight

// Weight returns the base weight for id.
func (w Weights) Weight(id ID) (float64, bool) {
	for _, e := range w {
		if e.Pattern == id {
			return e.Weight, true
		}
	}
	return 0, false
}

// Top returns the highest-weighted template, first listed on ties.
func (w Weights) Top() ID {
	var best Weight
	for i, e := range w {
		if i == 0 || e.Weight > best.Weight {
			best = e
		}
	}
	return best.Pattern
}

// Catalog is the immutable industry and weight configuration. It is built
// once and only read afterwards.
type Catalog struct {
	industries map[string]Archetype
	archetypes map[Archetype]Weights
}

type catalogFile struct {
	Industries map[string]Archetype `yaml:"industries"`
	Archetypes map[Archetype]Weights `yaml:"archetypes"`
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
)

// DefaultCatalog returns the catalog compiled into the binary.
func DefaultCatalog() *Catalog {
	defaultOnce.Do(func() {
		c, err := ParseCatalog(embeddedCatalog)
		if err != nil {
			panic(eris.Wrap(err, "pattern: embedded catalog"))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// LoadCatalog reads a catalog from a YAML file.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "pattern: read catalog %s", path)
	}
	return ParseCatalog(data)
}

// ParseCatalog parses and validates a YAML catalog document.
func ParseCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, eris.Wrap(err, "pattern: parse catalog")
	}

	c := &Catalog{
		industries: make(map[string]Archetype, len(f.Industries)),
		archetypes: make(map[Archetype]Weights, len(f.Archetypes)),
	}

	for label, a := range f.Industries {
		if !ValidArchetype(a) {
			return nil, eris.Errorf("pattern: industry %q maps to unknown archetype %q", label, a)
		}
		c.industries[strings.ToLower(strings.TrimSpace(label))] = a
	}

	for a, weights := range f.Archetypes {
		if !ValidArchetype(a) {
			return nil, eris.Errorf("pattern: unknown archetype %q", a)
		}
		if err := validateWeights(a, weights); err != nil {
			return nil, err
		}
		c.archetypes[a] = weights
	}

	if _, ok := c.archetypes[Default]; !ok {
		return nil, eris.New("pattern: catalog has no default archetype")
	}

	return c, nil
}

func validateWeights(a Archetype, weights Weights) error {
	seen := make(map[ID]bool, len(weights))
	for _, w := range weights {
		if !Known(w.Pattern) {
			return eris.Errorf("pattern: archetype %s: unknown pattern %q", a, w.Pattern)
		}
		if seen[w.Pattern] {
			return eris.Errorf("pattern: archetype %s: duplicate pattern %q", a, w.Pattern)
		}
		if w.Weight < 0 || w.Weight > 1 {
			return eris.Errorf("pattern: archetype %s: weight for %s out of range: %v", a, w.Pattern, w.Weight)
		}
		seen[w.Pattern] = true
	}
	if len(seen) != len(IDs) {
		return eris.Errorf("pattern: archetype %s lists %d of %d patterns", a, len(seen), len(IDs))
	}
	return nil
}

// ResolveArchetype maps a free-text industry label to an archetype.
// Unknown or empty labels resolve to Default.
func (c *Catalog) ResolveArchetype(industry string) Archetype {
	label := strings.ToLower(strings.TrimSpace(industry))
	if label == "" {
		return Default
	}
	if a, ok := c.industries[label]; ok {
		return a
	}
	return Default
}

// WeightsFor returns the weight table of an archetype, or the default table
// when the archetype has none.
func (c *Catalog) WeightsFor(a Archetype) Weights {
	if w, ok := c.archetypes[a]; ok {
		return w
	}
	return c.archetypes[Default]
}

// Industries returns the known industry labels, sorted.
func (c *Catalog) Industries() []string {
	labels := make([]string, 0, len(c.industries))
	for label := range c.industries {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}
