package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"trysite/internal/models"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

const (
	recipeFilePattern = "*.recipe.yaml"
	recipeCacheKey    = "recipes"
)

// RecipeCatalog loads recipes from a directory of YAML files and caches the
// parsed list for ttl.
type RecipeCatalog struct {
	dir   string
	ttl   time.Duration
	cache *ristretto.Cache[string, []models.Recipe]
	log   zerolog.Logger
}

func NewRecipeCatalog(dir string, ttl time.Duration, log zerolog.Logger) (*RecipeCatalog, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[string, []models.Recipe]{
		NumCounters:        100,
		MaxCost:            10,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, err
	}
	return &RecipeCatalog{
		dir:   dir,
		ttl:   ttl,
		cache: cache,
		log:   log.With().Str("component", "recipes").Logger(),
	}, nil
}

// Recipes returns every recipe found in the catalog directory, sorted by name.
func (c *RecipeCatalog) Recipes(_ context.Context) ([]models.Recipe, error) {
	if recipes, ok := c.cache.Get(recipeCacheKey); ok {
		return recipes, nil
	}

	recipes, err := LoadRecipes(c.dir)
	if err != nil {
		return nil, err
	}
	c.log.Debug().Str("dir", c.dir).Int("count", len(recipes)).Msg("Loaded recipes")

	if c.ttl > 0 {
		c.cache.SetWithTTL(recipeCacheKey, recipes, 1, c.ttl)
		c.cache.Wait()
	}
	return recipes, nil
}

// Invalidate drops the cached list so the next call rereads the directory.
func (c *RecipeCatalog) Invalidate() {
	c.cache.Del(recipeCacheKey)
}

func (c *RecipeCatalog) Close() {
	c.cache.Close()
}

// LoadRecipes parses every *.recipe.yaml file in dir.
func LoadRecipes(dir string) ([]models.Recipe, error) {
	files, err := filepath.Glob(filepath.Join(dir, recipeFilePattern))
	if err != nil {
		return nil, err
	}

	recipes := make([]models.Recipe, 0, len(files))
	seen := make(map[string]string, len(files))
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read recipe %s: %w", file, err)
		}

		var r models.Recipe
		if err := yaml.Unmarshal(data, &r); err != nil {
			return nil, fmt.Errorf("parse recipe %s: %w", file, err)
		}
		if r.Name == "" {
			return nil, fmt.Errorf("recipe %s has no name", file)
		}
		if prev, ok := seen[r.Name]; ok {
			return nil, fmt.Errorf("recipe %q defined in both %s and %s", r.Name, prev, file)
		}
		seen[r.Name] = file
		r.Source = file
		recipes = append(recipes, r)
	}

	sort.Slice(recipes, func(i, j int) bool { return recipes[i].Name < recipes[j].Name })
	return recipes, nil
}

// FindRecipe returns the recipe with the exact name, or nil.
func FindRecipe(recipes []models.Recipe, name string) *models.Recipe {
	for i := range recipes {
		if recipes[i].Name == name {
			return &recipes[i]
		}
	}
	return nil
}
