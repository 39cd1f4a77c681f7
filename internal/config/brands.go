package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
)

// ErrInvalidCatalog is returned for brand definitions that cannot be searched.
var ErrInvalidCatalog = errors.New("invalid brand catalog")

// Brand is a searchable brand: one or more keyword variants and a display label.
type Brand struct {
	Key      string   `json:"key"`
	Label    string   `json:"label"`
	Keywords []string `json:"keywords"`
}

// Catalog is an immutable, ordered set of brands.
type Catalog struct {
	brands []Brand
	byKey  map[string]int
}

// NewCatalog validates and copies brands. Keys must be unique and every
// brand needs at least one non-blank keyword. A blank label defaults to the key.
func NewCatalog(brands []Brand) (Catalog, error) {
	c := Catalog{
		brands: make([]Brand, 0, len(brands)),
		byKey:  make(map[string]int, len(brands)),
	}

	for _, b := range brands {
		key := strings.TrimSpace(b.Key)
		if key == "" {
			return Catalog{}, fmt.Errorf("%w: brand with empty key", ErrInvalidCatalog)
		}
		if _, dup := c.byKey[key]; dup {
			return Catalog{}, fmt.Errorf("%w: duplicate brand key %q", ErrInvalidCatalog, key)
		}

		keywords := make([]string, 0, len(b.Keywords))
		for _, kw := range b.Keywords {
			if kw = strings.TrimSpace(kw); kw != "" {
				keywords = append(keywords, kw)
			}
		}
		if len(keywords) == 0 {
			return Catalog{}, fmt.Errorf("%w: brand %q has no keywords", ErrInvalidCatalog, key)
		}

		label := strings.TrimSpace(b.Label)
		if label == "" {
			label = key
		}

		c.byKey[key] = len(c.brands)
		c.brands = append(c.brands, Brand{Key: key, Label: label, Keywords: keywords})
	}

	return c, nil
}

// LoadCatalog reads a JSON array of brands from path.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path comes from operator configuration
	if err != nil {
		return Catalog{}, fmt.Errorf("failed to read brands file: %w", err)
	}

	var brands []Brand
	if err := json.Unmarshal(data, &brands); err != nil {
		return Catalog{}, fmt.Errorf("failed to parse brands file: %w", err)
	}

	return NewCatalog(brands)
}

// Lookup returns the brand registered under key.
func (c Catalog) Lookup(key string) (Brand, bool) {
	i, ok := c.byKey[key]
	if !ok {
		return Brand{}, false
	}
	return c.brands[i].clone(), true
}

// All returns the brands in configured order.
func (c Catalog) All() []Brand {
	out := make([]Brand, len(c.brands))
	for i, b := range c.brands {
		out[i] = b.clone()
	}
	return out
}

// SortedByLabel returns the brands ordered by display label, as menus show them.
func (c Catalog) SortedByLabel() []Brand {
	out := c.All()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Label < out[j].Label
	})
	return out
}

// Len returns the number of brands.
func (c Catalog) Len() int {
	return len(c.brands)
}

func (b Brand) clone() Brand {
	b.Keywords = append([]string(nil), b.Keywords...)
	return b
}

// DefaultCatalog returns the built-in brand list.
func DefaultCatalog() Catalog {
	c, err := NewCatalog(defaultBrands)
	if err != nil {
		panic(err)
	}
	return c
}

var defaultBrands = []Brand{
	{Key: "hikikomori", Label: "Хикикомори Кай", Keywords: []string{"hikikomori kai", "хикикомори кай"}},
	{Key: "bladnes", Label: "Бладнес", Keywords: []string{"bladnes"}},
	{Key: "redan", Label: "Редан", Keywords: []string{"редан"}},
	{Key: "ryodan", Label: "Ryodan", Keywords: []string{"ryodan"}},
	{Key: "zxcursed", Label: "Zxcursed", Keywords: []string{"zxcursed"}},
	{Key: "shadowraze", Label: "Shadowraze", Keywords: []string{"shadowraze"}},
	{Key: "holy_sinner", Label: "Holy Sinner", Keywords: []string{"holy sinner"}},
	{Key: "neform", Label: "Нефор", Keywords: []string{"нефор"}},
	{Key: "cvrsxdcrown", Label: "Cvrsxdcrown", Keywords: []string{"cvrsxdcrown"}},
	{Key: "hatred888", Label: "Hatred888", Keywords: []string{"hatred888"}},
	{Key: "hikinight", Label: "Hikinight", Keywords: []string{"hikinight"}},
	{Key: "enemy_in_reflection", Label: "Enemy in Reflection", Keywords: []string{"enemy in reflection"}},
	{Key: "enemy", Label: "Enemy", Keywords: []string{"enemy"}},
	{Key: "conjunctiva", Label: "Conjunctiva", Keywords: []string{"conjunctiva"}},
	{Key: "convulsive", Label: "Convulsive", Keywords: []string{"convulsive"}},
	{Key: "ethereal", Label: "Ethereal", Keywords: []string{"ethereal"}},
	{Key: "double_minded", Label: "Double Minded", Keywords: []string{"double minded"}},
	{Key: "kusakabe", Label: "Kusakabe", Keywords: []string{"kusakabe"}},
	{Key: "sheydov", Label: "Sheydov", Keywords: []string{"sheydov"}},
}
