package parser

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/brizzai/auto-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdjuster_Selected(t *testing.T) {
	selection := &models.Adjustments{
		Operations: []models.PathSelection{
			{Path: "/accounts", Methods: []string{"GET", "post"}},
		},
	}

	tests := []struct {
		name        string
		adjustments *models.Adjustments
		path        string
		method      string
		want        bool
	}{
		{name: "selected method", adjustments: selection, path: "/accounts", method: "GET", want: true},
		{name: "method compared case-insensitively", adjustments: selection, path: "/accounts", method: "POST", want: true},
		{name: "path selected but method not", adjustments: selection, path: "/accounts", method: "DELETE", want: false},
		{name: "path not listed", adjustments: selection, path: "/policies", method: "GET", want: false},
		{name: "empty selection keeps everything", adjustments: &models.Adjustments{}, path: "/policies", method: "GET", want: true},
		{name: "nil adjustments keep everything", adjustments: nil, path: "/policies", method: "GET", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &Adjuster{adjustments: tt.adjustments}
			assert.Equal(t, tt.want, a.Selected(tt.path, tt.method))
		})
	}
}

func TestAdjuster_DescriptionAndName(t *testing.T) {
	a := &Adjuster{adjustments: &models.Adjustments{
		Descriptions: []models.PathDescriptions{
			{Path: "/accounts/{id}", Updates: []models.DescriptionUpdate{{Method: "GET", NewDescription: "Fetch one account"}}},
		},
		Renames: []models.ToolRename{
			{Path: "/accounts/{id}", Method: "get", Name: "get_account"},
		},
	}}

	assert.Equal(t, "Fetch one account", a.Description("/accounts/{id}", "GET", "original"))
	assert.Equal(t, "original", a.Description("/accounts/{id}", "DELETE", "original"))
	assert.Equal(t, "original", a.Description("/other", "GET", "original"))

	assert.Equal(t, "get_account", a.Name("/accounts/{id}", "GET", "GET_accounts_id"))
	assert.Equal(t, "DELETE_accounts_id", a.Name("/accounts/{id}", "DELETE", "DELETE_accounts_id"))
}

func TestAdjuster_Apply(t *testing.T) {
	a := NewAdjuster()
	require.NoError(t, a.LoadBytes([]byte(`
descriptions:
  - path: /accounts
    updates:
      - method: POST
        new_description: Open a new account
operations:
  - path: /accounts
    methods: [POST]
`)))

	ops := []Operation{
		{ID: "GET_accounts", Method: "GET", Path: "/accounts", Description: "list"},
		{ID: "POST_accounts", Method: "POST", Path: "/accounts", Description: "create"},
	}
	got := a.Apply(ops)

	require.Len(t, got, 1)
	assert.Equal(t, "POST_accounts", got[0].ID)
	assert.Equal(t, "Open a new account", got[0].Description)
	// input is left untouched
	assert.Equal(t, "create", ops[1].Description)
}

func TestAdjuster_Load(t *testing.T) {
	t.Run("empty path", func(t *testing.T) {
		a := NewAdjuster()
		assert.NoError(t, a.Load(""))
		assert.True(t, a.Adjustments().IsEmpty())
	})

	t.Run("missing file", func(t *testing.T) {
		a := NewAdjuster()
		assert.NoError(t, a.Load(filepath.Join(t.TempDir(), "missing.yaml")))
		assert.True(t, a.Adjustments().IsEmpty())
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("operations: [::"), 0o600))
		assert.Error(t, NewAdjuster().Load(path))
	})

	t.Run("valid file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "adjustments.yaml")
		require.NoError(t, os.WriteFile(path, []byte("renames:\n  - path: /a\n    method: GET\n    name: list_a\n"), 0o600))

		a := NewAdjuster()
		require.NoError(t, a.Load(path))
		assert.Equal(t, "list_a", a.Name("/a", "GET", "GET_a"))
	})
}
