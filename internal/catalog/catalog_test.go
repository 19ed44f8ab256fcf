package catalog

import (
	"testing"

	"conversation-deck-service/internal/domain"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogCounts(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	require.Len(t, c.Questions, 186)

	want := map[string]int{
		"exploration":   35,
		"insight":       37,
		"intimacy":      40,
		"dreams":        10,
		"values":        10,
		"identity":      10,
		"relationships": 10,
		"experiences":   10,
		"fears":         10,
		"legacy":        4,
		"deep":          10,
	}
	require.Len(t, c.Categories, len(want))
	for _, cat := range c.Categories {
		require.Equal(t, want[cat.ID], cat.Count, cat.ID)
		require.NotEmpty(t, cat.Name)
	}
}

func TestDefaultCatalogIDsAreSequential(t *testing.T) {
	c := MustDefault()
	for i, q := range c.Questions {
		require.Equal(t, i+1, q.ID)
		require.NotEmpty(t, q.Text)
		require.NotEmpty(t, q.Category)
	}
}

func TestParseRejectsDuplicateCategory(t *testing.T) {
	_, err := Parse([]byte(`
categories:
  - id: a
    questions: ["one"]
  - id: a
    questions: ["two"]
`))
	require.Error(t, err)
}

func TestCategoriesAndCount(t *testing.T) {
	qs := []domain.Question{
		{ID: 1, Category: "b"},
		{ID: 2, Category: "a"},
		{ID: 3, Category: "b"},
		{ID: 4},
	}
	cats := Categories(qs, []domain.Category{{ID: "a", Name: "Alpha"}})
	require.Equal(t, []domain.Category{
		{ID: "b", Name: "b", Count: 2},
		{ID: "a", Name: "Alpha", Count: 1},
	}, cats)

	c := domain.Catalog{Questions: qs, Categories: cats}
	require.Equal(t, 4, Count(c, nil))
	require.Equal(t, 3, Count(c, []string{"a", "b"}))
	require.Equal(t, 0, Count(c, []string{"missing"}))
}
