// Package catalog holds the API key plans offered by the store.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"apikey-store/internal/model"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

type file struct {
	Products []model.Product `yaml:"products"`
}

// Default returns the built-in plans in display order.
func Default() ([]*model.Product, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog file. An empty path yields the built-in plans.
func Load(path string) ([]*model.Product, error) {
	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) ([]*model.Product, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if len(f.Products) == 0 {
		return nil, errors.New("catalog has no products")
	}

	seen := make(map[string]bool, len(f.Products))
	products := make([]*model.Product, 0, len(f.Products))
	for i := range f.Products {
		p := &f.Products[i]
		if p.ID == "" {
			return nil, fmt.Errorf("catalog product #%d has no id", i+1)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("duplicate catalog product %q", p.ID)
		}
		if p.Price < 0 {
			return nil, fmt.Errorf("catalog product %q has negative price", p.ID)
		}
		if p.Features == nil {
			p.Features = []string{}
		}
		seen[p.ID] = true
		products = append(products, p)
	}
	return products, nil
}
