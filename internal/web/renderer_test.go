package web

import (
	"bytes"
	"testing"

	"trysite/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRendererParsesAllPages(t *testing.T) {
	r, err := NewTemplateRenderer()
	require.NoError(t, err)
	for _, page := range pages {
		assert.Contains(t, r.Templates, page)
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	r, err := NewTemplateRenderer()
	require.NoError(t, err)

	var buf bytes.Buffer
	assert.Error(t, r.Render(&buf, "missing.html", nil, nil))
}

func TestRenderIndexShowsFieldErrors(t *testing.T) {
	r, err := NewTemplateRenderer()
	require.NoError(t, err)

	var errs models.FieldErrors
	errs.Add(models.FieldHandle, "This site name already exists.")

	data := struct {
		Form    models.RegisterUserForm
		Errors  models.FieldErrors
		Recipes []models.Recipe
	}{
		Form:    models.RegisterUserForm{Handle: "taken", RecipeName: "Blog"},
		Errors:  errs,
		Recipes: []models.Recipe{{Name: "Blog", DisplayName: "Blog"}, {Name: "Agency"}},
	}

	var buf bytes.Buffer
	require.NoError(t, r.Render(&buf, "index.html", data, nil))

	out := buf.String()
	assert.Contains(t, out, `value="taken"`)
	assert.Contains(t, out, "This site name already exists.")
	assert.Contains(t, out, `<option value="Blog" selected>Blog</option>`)
	assert.Contains(t, out, `<option value="Agency">Agency</option>`)
}
