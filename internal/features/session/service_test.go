package session

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"tcpos-reports/internal/config"
	"tcpos-reports/internal/features/anomaly"
	"tcpos-reports/internal/features/catalog"
	"tcpos-reports/internal/features/filter"
	"tcpos-reports/internal/features/notification"
	"tcpos-reports/internal/features/preferences"
	"tcpos-reports/internal/features/query"
	"tcpos-reports/internal/features/report"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

type stubClient struct {
	records []any
	err     error
	calls   int

	// started and release let a test hold a fetch in flight.
	started chan struct{}
	release chan struct{}
}

func (c *stubClient) Fetch(_ context.Context, _ string, _ query.Params) ([]any, error) {
	c.calls++
	if c.started != nil {
		close(c.started)
		<-c.release
	}
	return c.records, c.err
}

func newService(t *testing.T) (*SessionServiceImpl, *stubClient) {
	t.Helper()
	cat, err := catalog.Default()
	require.NoError(t, err)

	cfg := &config.Config{Timezone: "UTC", NotificationLimit: 20, SessionIdleTimeout: time.Hour}
	notifications := notification.NewNotificationService(preferences.NewMemoryStore(), notification.NewHub(), cfg, zap.NewNop())
	anomalies, err := anomaly.NewAnomalyService(cat, zap.NewNop())
	require.NoError(t, err)

	client := &stubClient{}
	reports := report.NewReportService(cat, client, anomalies, notifications, cfg, zap.NewNop())
	svc := NewSessionService(NewStore(), cat, reports, anomalies, cfg, zap.NewNop())
	return svc.(*SessionServiceImpl), client
}

func TestSelectReportResets(t *testing.T) {
	svc, client := newService(t)
	client.records = []any{map[string]any{"trans_num": float64(1), "total_amount": 10.0}}

	v := svc.Create("u1")
	_, err := svc.SelectReport("u1", v.ID, "v_ca")
	require.NoError(t, err)
	_, err = svc.SetFilter("u1", v.ID, "shop", "aui")
	require.NoError(t, err)
	_, err = svc.ToggleColumn("u1", v.ID, "description")
	require.NoError(t, err)
	generated, err := svc.Generate(context.Background(), "u1", v.ID)
	require.NoError(t, err)
	require.NotNil(t, generated.Table)
	assert.Equal(t, map[string]any{"shop": "AUI"}, generated.Filters)

	again, err := svc.SelectReport("u1", v.ID, "v_ca")
	require.NoError(t, err)
	assert.Empty(t, again.Filters)
	assert.False(t, again.CanSubmit)
	assert.Nil(t, again.Table)
	r, _ := svc.Catalog.Get("v_ca")
	assert.Equal(t, r.ColumnKeys(), again.Columns)
}

func TestSelectUnknownReport(t *testing.T) {
	svc, _ := newService(t)
	v := svc.Create("u1")

	_, err := svc.SelectReport("u1", v.ID, "nope")
	assert.ErrorIs(t, err, catalog.ErrReportNotFound)
}

func TestGenerateRequiresSubmittableState(t *testing.T) {
	svc, client := newService(t)
	v := svc.Create("u1")

	_, err := svc.Generate(context.Background(), "u1", v.ID)
	assert.ErrorIs(t, err, ErrNoReport)

	_, err = svc.SelectReport("u1", v.ID, "v_ca")
	require.NoError(t, err)
	_, err = svc.Generate(context.Background(), "u1", v.ID)
	assert.ErrorIs(t, err, ErrCannotSubmit)

	_, err = svc.SetFilter("u1", v.ID, "trans_num", "abc")
	assert.ErrorIs(t, err, filter.ErrInvalidNumber)
	_, err = svc.SetFilter("u1", v.ID, "missing", "x")
	assert.ErrorIs(t, err, filter.ErrUnknownFilter)

	assert.Zero(t, client.calls)
}

func TestGenerateDiscardsStaleResult(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	svc, client := newService(t)
	client.records = []any{map[string]any{"trans_num": float64(1), "total_amount": 10.0}}
	client.started = make(chan struct{})
	client.release = make(chan struct{})

	v := svc.Create("u1")
	_, err := svc.SelectReport("u1", v.ID, "v_ca")
	require.NoError(t, err)
	_, err = svc.SetFilter("u1", v.ID, "shop", "aui")
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := svc.Generate(context.Background(), "u1", v.ID)
		done <- err
	}()

	<-client.started
	_, err = svc.SelectReport("u1", v.ID, "vca_frn")
	require.NoError(t, err)
	close(client.release)

	assert.ErrorIs(t, <-done, ErrStaleResult)
	current, err := svc.Get("u1", v.ID)
	require.NoError(t, err)
	assert.Equal(t, "vca_frn", current.Report.ID)
	assert.Nil(t, current.Table)
}

func TestSetTotalsOnly(t *testing.T) {
	svc, client := newService(t)
	client.records = []any{map[string]any{"total_amount": 4.5}, map[string]any{"total_amount": 5.5}}
	v := svc.Create("u1")

	_, err := svc.SelectReport("u1", v.ID, "vca_frn")
	require.NoError(t, err)
	_, err = svc.SetTotalsOnly("u1", v.ID, true)
	assert.ErrorIs(t, err, ErrTotalsUnavailable)

	_, err = svc.SelectReport("u1", v.ID, "v_ca")
	require.NoError(t, err)
	_, err = svc.SetTotalsOnly("u1", v.ID, true)
	assert.ErrorIs(t, err, ErrTotalsUnavailable)

	_, err = svc.SetDate("u1", v.ID, "trans_date_range", filter.Start, "2024-01-01")
	require.NoError(t, err)
	view, err := svc.SetDate("u1", v.ID, "trans_date_range", filter.End, "2024-01-31")
	require.NoError(t, err)
	assert.True(t, view.TotalsAvailable)

	view, err = svc.SetTotalsOnly("u1", v.ID, true)
	require.NoError(t, err)
	assert.True(t, view.TotalsOnly)

	view, err = svc.Generate(context.Background(), "u1", v.ID)
	require.NoError(t, err)
	require.True(t, view.Table.TotalsOnly)
	require.Len(t, view.Table.Rows, 1)
	assert.Equal(t, "10.00", view.Table.Rows[0]["total"])

	view, err = svc.SetTotalsOnly("u1", v.ID, false)
	require.NoError(t, err)
	assert.False(t, view.TotalsOnly)
}

func TestResetFilters(t *testing.T) {
	svc, client := newService(t)
	client.records = []any{map[string]any{"trans_num": float64(1)}}
	v := svc.Create("u1")
	_, err := svc.SelectReport("u1", v.ID, "v_ca")
	require.NoError(t, err)
	_, err = svc.SetFilter("u1", v.ID, "operator", "bob")
	require.NoError(t, err)
	_, err = svc.Generate(context.Background(), "u1", v.ID)
	require.NoError(t, err)

	view, err := svc.ResetFilters("u1", v.ID)
	require.NoError(t, err)
	assert.Empty(t, view.Filters)
	assert.False(t, view.CanSubmit)
	assert.Nil(t, view.Table)
	assert.Equal(t, "v_ca", view.Report.ID)
}

func TestToggleColumn(t *testing.T) {
	svc, _ := newService(t)
	v := svc.Create("u1")
	_, err := svc.ToggleColumn("u1", v.ID, "shop")
	assert.ErrorIs(t, err, ErrNoReport)

	view, err := svc.SelectReport("u1", v.ID, "vca_frn")
	require.NoError(t, err)
	all := view.Columns
	require.Len(t, all, 5)

	_, err = svc.ToggleColumn("u1", v.ID, "nope")
	assert.ErrorIs(t, err, ErrUnknownColumn)

	for _, key := range all[:4] {
		view, err = svc.ToggleColumn("u1", v.ID, key)
		require.NoError(t, err)
	}
	assert.Equal(t, all[4:], view.Columns)

	_, err = svc.ToggleColumn("u1", v.ID, all[4])
	assert.ErrorIs(t, err, ErrLastColumn)

	view, err = svc.ToggleColumn("u1", v.ID, all[0])
	require.NoError(t, err)
	assert.Equal(t, []string{all[0], all[4]}, view.Columns)

	view, err = svc.ResetColumns("u1", v.ID)
	require.NoError(t, err)
	assert.Equal(t, all, view.Columns)
}

func TestDetectAnomaliesAndExport(t *testing.T) {
	svc, client := newService(t)
	client.records = []any{
		map[string]any{"trans_num": float64(7), "total_amount": -5.0, "trans_date": "2024-01-02T09:00:00Z"},
	}
	v := svc.Create("u1")
	_, err := svc.SelectReport("u1", v.ID, "v_ca")
	require.NoError(t, err)

	_, err = svc.DetectAnomalies(context.Background(), "u1", v.ID)
	assert.ErrorIs(t, err, ErrNoRows)
	_, _, err = svc.Export("u1", v.ID, report.ExportCSV)
	assert.ErrorIs(t, err, ErrNoRows)

	_, err = svc.SetFilter("u1", v.ID, "trans_num", "7")
	require.NoError(t, err)
	_, err = svc.Generate(context.Background(), "u1", v.ID)
	require.NoError(t, err)

	view, err := svc.DetectAnomalies(context.Background(), "u1", v.ID)
	require.NoError(t, err)
	require.Len(t, view.Findings, 1)
	assert.Equal(t, anomaly.ReasonNegative, view.Findings[0].Reason)
	assert.Equal(t, []int{0}, view.Highlighted)

	_, err = svc.ToggleColumn("u1", v.ID, "description")
	require.NoError(t, err)
	data, filename, err := svc.Export("u1", v.ID, report.ExportCSV)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filename, "chiffre-d-affaire_"))

	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Transaction Number", records[0][0])
	assert.NotContains(t, records[0], "Description")
	assert.Contains(t, records[1], "-5.00")
}

func TestSessionsAreScopedToUser(t *testing.T) {
	svc, _ := newService(t)
	v := svc.Create("u1")

	_, err := svc.Get("u2", v.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.ErrorIs(t, svc.Delete("u2", v.ID), ErrSessionNotFound)
	assert.Empty(t, svc.List("u2"))
	assert.Len(t, svc.List("u1"), 1)

	require.NoError(t, svc.Delete("u1", v.ID))
	_, err = svc.Get("u1", v.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestSweep(t *testing.T) {
	svc, _ := newService(t)
	start := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return start }
	idle := svc.Create("u1")
	svc.now = func() time.Time { return start.Add(90 * time.Minute) }
	active := svc.Create("u1")

	assert.Equal(t, 1, svc.Sweep())
	_, err := svc.Get("u1", idle.ID)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	_, err = svc.Get("u1", active.ID)
	assert.NoError(t, err)
}

func TestSessionRoutes(t *testing.T) {
	svc, client := newService(t)
	client.records = []any{map[string]any{"trans_num": float64(1), "total_amount": 10.0}}

	app := fiber.New()
	NewSessionApi(NewSessionController(svc, svc.Catalog), &config.Config{SkipAuth: true}).Setup(app)

	do := func(method, path, body string) (int, []byte) {
		t.Helper()
		var reader io.Reader
		if body != "" {
			reader = strings.NewReader(body)
		}
		req := httptest.NewRequest(method, path, reader)
		req.Header.Set("Content-Type", "application/json")
		resp, err := app.Test(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		data, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		return resp.StatusCode, data
	}

	status, body := do("POST", "/api/sessions", "")
	require.Equal(t, fiber.StatusCreated, status)
	var created View
	require.NoError(t, json.Unmarshal(body, &created))
	base := "/api/sessions/" + created.ID

	status, _ = do("POST", base+"/generate", "")
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = do("PUT", base+"/report", `{"report_id":"v_ca"}`)
	assert.Equal(t, fiber.StatusOK, status)

	status, body = do("POST", base+"/generate", "")
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Contains(t, string(body), "Please enter at least one filter value")

	status, _ = do("PUT", base+"/filters/trans_num", `{"value":"abc"}`)
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = do("PUT", base+"/filters/trans_date_range", `{"bound":"start","value":"2024-01-01"}`)
	assert.Equal(t, fiber.StatusOK, status)

	status, body = do("POST", base+"/generate", "")
	require.Equal(t, fiber.StatusOK, status)
	var generated View
	require.NoError(t, json.Unmarshal(body, &generated))
	require.NotNil(t, generated.Table)
	assert.Len(t, generated.Table.Rows, 1)

	status, _ = do("GET", base+"/export?format=pdf", "")
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = do("DELETE", base, "")
	assert.Equal(t, fiber.StatusNoContent, status)

	status, body = do("GET", base, "")
	assert.Equal(t, fiber.StatusNotFound, status)
	assert.Contains(t, string(body), "Session not found")
}
