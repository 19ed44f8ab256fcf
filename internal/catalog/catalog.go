// Package catalog holds the built-in question catalog.
package catalog

import (
	_ "embed"
	"fmt"
	"strings"

	"conversation-deck-service/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed questions.yaml
var questionsYAML []byte

type document struct {
	Categories []struct {
		ID        string   `yaml:"id"`
		Name      string   `yaml:"name"`
		Questions []string `yaml:"questions"`
	} `yaml:"categories"`
}

// Default parses the embedded catalog.
func Default() (domain.Catalog, error) {
	return Parse(questionsYAML)
}

// MustDefault is Default for callers that cannot proceed without a catalog.
func MustDefault() domain.Catalog {
	c, err := Default()
	if err != nil {
		panic(err)
	}
	return c
}

// Parse decodes a catalog document. Question ids are assigned from 1 in
// document order.
func Parse(data []byte) (domain.Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return domain.Catalog{}, fmt.Errorf("decode catalog: %w", err)
	}

	var c domain.Catalog
	seen := make(map[string]bool, len(doc.Categories))
	nextID := 1
	for _, cat := range doc.Categories {
		if cat.ID == "" {
			return domain.Catalog{}, fmt.Errorf("catalog category without id")
		}
		if seen[cat.ID] {
			return domain.Catalog{}, fmt.Errorf("duplicate catalog category %q", cat.ID)
		}
		seen[cat.ID] = true

		count := 0
		for _, text := range cat.Questions {
			text = strings.TrimSpace(text)
			if text == "" {
				continue
			}
			c.Questions = append(c.Questions, domain.Question{ID: nextID, Text: text, Category: cat.ID})
			nextID++
			count++
		}
		c.Categories = append(c.Categories, domain.Category{ID: cat.ID, Name: cat.Name, Count: count})
	}
	return c, nil
}

// Categories recomputes category counts from a list of questions, keeping
// the display names of known categories. Unknown tags use the tag as name.
func Categories(questions []domain.Question, known []domain.Category) []domain.Category {
	names := make(map[string]string, len(known))
	for _, c := range known {
		names[c.ID] = c.Name
	}
	counts := make(map[string]int)
	var order []string
	for _, q := range questions {
		if q.Category == "" {
			continue
		}
		if _, ok := counts[q.Category]; !ok {
			order = append(order, q.Category)
		}
		counts[q.Category]++
	}
	out := make([]domain.Category, 0, len(order))
	for _, id := range order {
		name := names[id]
		if name == "" {
			name = id
		}
		out = append(out, domain.Category{ID: id, Name: name, Count: counts[id]})
	}
	return out
}

// Count returns how many questions carry any of the given categories. An
// empty set counts the whole catalog.
func Count(c domain.Catalog, categories []string) int {
	if len(categories) == 0 {
		return len(c.Questions)
	}
	total := 0
	for _, cat := range c.Categories {
		for _, id := range categories {
			if cat.ID == id {
				total += cat.Count
				break
			}
		}
	}
	return total
}
