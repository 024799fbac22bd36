package catalog

import (
	"encoding/json"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"tcpos-reports/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	reports := c.Reports()
	ids := make([]string, len(reports))
	for i, r := range reports {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"v_ca", "vca_frn", "vcadet_all", "vliste_transac", "vlistRecharge", "vRecharge", "vcadet_bo"}, ids)

	var totals []string
	for _, r := range reports {
		if r.TotalsEnabled() {
			totals = append(totals, r.ID+":"+r.Totals.Field)
		}
	}
	assert.Equal(t, []string{"v_ca:total_amount", "vlistRecharge:amount", "vcadet_bo:price"}, totals)

	vca, err := c.Get("v_ca")
	require.NoError(t, err)
	assert.Equal(t, "/vca", vca.Endpoint)
	assert.Equal(t, "Transaction Date", vca.Chart.DefaultDimension)
	assert.True(t, vca.Chart.ArticleMetrics)

	shop, ok := vca.Filter("shop")
	require.True(t, ok)
	assert.True(t, shop.Uppercase)

	bk, _ := vca.Filter("bookkeeping_date_range")
	assert.Equal(t, "bookkeeping_start_date", bk.StartParam)
	assert.Equal(t, "bookkeeping_end_date", bk.EndParam)

	recharge, err := c.Get("vlistRecharge")
	require.NoError(t, err)
	bk, _ = recharge.Filter("bookkeeping_date_range")
	assert.Equal(t, "trans_start_date", bk.StartParam)

	vr, err := c.Get("vRecharge")
	require.NoError(t, err)
	col, ok := vr.Column("transaction_date")
	require.True(t, ok)
	assert.Equal(t, "date_heure", col.SourceKey())
	assert.Equal(t, []string{"Quantity", "Recharge"}, vr.Chart.Metrics)
}

func TestGetUnknown(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	_, err = c.Get("nope")
	assert.ErrorIs(t, err, ErrReportNotFound)
}

func TestGetReturnsCopy(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	r, _ := c.Get("v_ca")
	r.Name = "changed"

	again, _ := c.Get("v_ca")
	assert.Equal(t, "Chiffre d'affaire", again.Name)
}

func TestSearch(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	tests := []struct {
		name string
		q    string
		want []string
	}{
		{"blank returns all", "  ", []string{"v_ca", "vca_frn", "vcadet_all", "vliste_transac", "vlistRecharge", "vRecharge", "vcadet_bo"}},
		{"case insensitive name", "RECHARGE", []string{"vlistRecharge", "vRecharge"}},
		{"description", "mobiles", []string{"vRecharge"}},
		{"no match", "inventory", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			for _, r := range c.Search(tt.q) {
				got = append(got, r.ID)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGroup(t *testing.T) {
	t.Run("explicit groups", func(t *testing.T) {
		c, err := Default()
		require.NoError(t, err)
		r, _ := c.Get("vca_frn")

		g := Group(r)
		assert.Equal(t, []string{"delivery_note_date_range"}, filterIDs(g.Dates))
		assert.Equal(t, []string{"stock_supplier_id", "stock_supplier_id_lookup"}, filterIDs(g.Main))
		assert.Empty(t, g.Additional)
	})

	t.Run("fallback", func(t *testing.T) {
		r := &Report{Filters: []Filter{
			{ID: "a"}, {ID: "range", Type: FilterDateRange}, {ID: "b"}, {ID: "c"}, {ID: "d"}, {ID: "e"}, {ID: "f"},
		}}
		g := Group(r)
		assert.Equal(t, []string{"range"}, filterIDs(g.Dates))
		assert.Equal(t, []string{"a", "b", "c", "d"}, filterIDs(g.Main))
		assert.Equal(t, []string{"e", "f"}, filterIDs(g.Additional))
	})
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		err  string
	}{
		{"empty", "reports: []", "no reports"},
		{"bad endpoint", `
reports:
  - {id: a, name: A, endpoint: a, columns: [{key: x}]}`, "must start with /"},
		{"duplicate id", `
reports:
  - {id: a, name: A, endpoint: /a, columns: [{key: x}]}
  - {id: a, name: B, endpoint: /b, columns: [{key: x}]}`, "duplicate report id"},
		{"unknown group filter", `
reports:
  - id: a
    name: A
    endpoint: /a
    columns: [{key: x}]
    groups: {main: [missing]}`, "unknown filter"},
		{"totals without date", `
reports:
  - id: a
    name: A
    endpoint: /a
    columns: [{key: x}]
    totals: {field: x}`, "date-range"},
		{"unknown format", `
reports:
  - {id: a, name: A, endpoint: /a, columns: [{key: x, format: money}]}`, "unknown format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.err)
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load([]byte(`
reports:
  - id: a
    name: A
    endpoint: /a
    filters:
      - {id: created_date_range, type: date-range}
      - {id: date_range, type: date-range}
      - {id: q}
    columns: [{key: x}]`))
	require.NoError(t, err)

	r, _ := c.Get("a")
	created, _ := r.Filter("created_date_range")
	assert.Equal(t, "created_start_date", created.StartParam)
	plain, _ := r.Filter("date_range")
	assert.Equal(t, "start_date", plain.StartParam)
	assert.Equal(t, "end_date", plain.EndParam)
	q, _ := r.Filter("q")
	assert.Equal(t, FilterText, q.Type)
	assert.Equal(t, "q", q.APIParam)
	assert.Equal(t, FormatText, r.Columns[0].Format)
	assert.Equal(t, "x", r.Columns[0].Label)
}

func TestNewCatalogFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
reports:
  - {id: only, name: Only, endpoint: /only, columns: [{key: x}]}`), 0o600))

	c, err := NewCatalog(&config.Config{ReportCatalogPath: path})
	require.NoError(t, err)
	assert.Len(t, c.Reports(), 1)

	_, err = NewCatalog(&config.Config{ReportCatalogPath: filepath.Join(t.TempDir(), "missing.yaml")})
	assert.Error(t, err)
}

func TestCatalogRoutes(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	app := fiber.New()
	NewCatalogApi(NewCatalogController(NewCatalogService(c)), &config.Config{SkipAuth: true}).Setup(app)

	resp, err := app.Test(httptest.NewRequest("GET", "/api/reports/search?q=fournisseur", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	var found []Summary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&found))
	require.Len(t, found, 1)
	assert.Equal(t, "vca_frn", found[0].ID)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/reports/v_ca", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), `"endpoint":"/vca"`)
	assert.Contains(t, string(body), `"groups"`)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/reports/unknown", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func filterIDs(filters []Filter) []string {
	out := make([]string, len(filters))
	for i, f := range filters {
		out[i] = f.ID
	}
	return out
}
