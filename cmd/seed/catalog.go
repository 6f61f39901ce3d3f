package main

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// catalog описывает YAML файл справочника навыков.
type catalog struct {
	Skills []string `yaml:"skills"`
}

func loadCatalog(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("seed: не удалось прочитать %s: %w", path, err)
	}
	return parseCatalog(raw)
}

// parseCatalog убирает пустые строки и повторы без учёта регистра, сохраняя порядок.
func parseCatalog(raw []byte) ([]string, error) {
	var c catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("seed: некорректный YAML: %w", err)
	}

	seen := make(map[string]struct{}, len(c.Skills))
	names := make([]string, 0, len(c.Skills))
	for _, name := range c.Skills {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		names = append(names, name)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("seed: в каталоге нет навыков")
	}
	return names, nil
}
