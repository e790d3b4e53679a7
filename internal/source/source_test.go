package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"google.golang.org/api/option"

	"procurement/internal/config"
	apierrors "procurement/internal/errors"
	"procurement/pkg/contracts/domain"
)

func TestTableFromGrid(t *testing.T) {
	grid := [][]string{
		{"Part Number", " Supplier ", "", "Supplier"},
		{"P-1", "Acme", "x"},
		{"", " ", ""},
		{"P-2", "Beta", "y", "dup", "extra"},
	}

	table := TableFromGrid(grid)

	assert.Equal(t, []string{"Part Number", "Supplier", "column_3", "Supplier_4"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, map[string]string{"Part Number": "P-1", "Supplier": "Acme", "column_3": "x", "Supplier_4": ""}, table.Rows[0])
	assert.Equal(t, "dup", table.Rows[1]["Supplier_4"])
}

func TestTableFromGridEmpty(t *testing.T) {
	table := TableFromGrid(nil)
	assert.Zero(t, table.Len())
	assert.Empty(t, table.Headers)
}

func TestStaticSource(t *testing.T) {
	want := &domain.Table{Headers: []string{"a"}}
	got, err := (&StaticSource{Table: want}).FetchRows(context.Background())
	require.NoError(t, err)
	assert.Same(t, want, got)

	boom := errors.New("boom")
	_, err = (&StaticSource{Err: boom}).FetchRows(context.Background())
	assert.ErrorIs(t, err, boom)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = (&StaticSource{Table: want}).FetchRows(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestXLSXSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parts.xlsx")

	f := excelize.NewFile()
	_, err := f.NewSheet("Parts")
	require.NoError(t, err)
	require.NoError(t, f.SetSheetRow("Parts", "A1", &[]interface{}{"Part Number", "Supplier", "priceJune2025"}))
	require.NoError(t, f.SetSheetRow("Parts", "A2", &[]interface{}{"P-1", "Acme", "€1,234.50"}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{"other"}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	t.Run("named sheet", func(t *testing.T) {
		table, err := NewXLSXSource(path, "Parts").FetchRows(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"Part Number", "Supplier", "priceJune2025"}, table.Headers)
		require.Len(t, table.Rows, 1)
		assert.Equal(t, "€1,234.50", table.Rows[0]["priceJune2025"])
	})

	t.Run("first sheet by default", func(t *testing.T) {
		table, err := NewXLSXSource(path, "").FetchRows(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"other"}, table.Headers)
	})

	t.Run("missing sheet", func(t *testing.T) {
		_, err := NewXLSXSource(path, "Nope").FetchRows(context.Background())
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := NewXLSXSource(filepath.Join(t.TempDir(), "none.xlsx"), "").FetchRows(context.Background())
		assert.Error(t, err)
	})

	t.Run("empty path", func(t *testing.T) {
		_, err := NewXLSXSource("", "").FetchRows(context.Background())
		assert.ErrorIs(t, err, ErrNotConfigured)
	})
}

func TestCSVSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parts.csv")
	content := "\ufeffPart Number,Supplier,priceJune2025\nP-1,Acme,\"1,200.00\"\nP-2,Beta\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	table, err := NewCSVSource(path).FetchRows(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"Part Number", "Supplier", "priceJune2025"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "1,200.00", table.Rows[0]["priceJune2025"])
	assert.Equal(t, "", table.Rows[1]["priceJune2025"])

	_, err = NewCSVSource("").FetchRows(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestSheetsSource(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"range": "Sheet1!A1:C3",
			"majorDimension": "ROWS",
			"values": [
				["Part Number", "Supplier", "priceJune2025"],
				["P-1", "Acme", "12.5"],
				["P-2", "Beta"]
			]
		}`))
	}))
	defer srv.Close()

	src, err := NewSheetsSource(context.Background(),
		config.SheetsConfig{SpreadsheetID: "sheet-123", Range: "Sheet1"},
		option.WithEndpoint(srv.URL+"/"), option.WithoutAuthentication())
	require.NoError(t, err)

	table, err := src.FetchRows(context.Background())
	require.NoError(t, err)

	assert.True(t, strings.Contains(gotPath, "sheet-123"), "path %s", gotPath)
	assert.Equal(t, []string{"Part Number", "Supplier", "priceJune2025"}, table.Headers)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "12.5", table.Rows[0]["priceJune2025"])
	assert.Equal(t, "", table.Rows[1]["priceJune2025"])
	assert.Equal(t, "sheets", src.Name())
}

func TestSheetsSourceUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":403,"message":"denied"}}`, http.StatusForbidden)
	}))
	defer srv.Close()

	src, err := NewSheetsSource(context.Background(),
		config.SheetsConfig{SpreadsheetID: "sheet-123"},
		option.WithEndpoint(srv.URL+"/"), option.WithoutAuthentication())
	require.NoError(t, err)

	_, err = src.FetchRows(context.Background())
	assert.Error(t, err)
}

func TestNewSheetsSourceRequiresConfig(t *testing.T) {
	_, err := NewSheetsSource(context.Background(), config.SheetsConfig{})
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = NewSheetsSource(context.Background(), config.SheetsConfig{SpreadsheetID: "x"})
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = NewSheetsSource(context.Background(), config.SheetsConfig{SpreadsheetID: "x", CredentialsFile: "/does/not/exist.json"})
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	cfg := config.Default()

	cfg.Source.Kind = config.SourceXLSX
	cfg.Source.Path = "parts.xlsx"
	src, err := New(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "xlsx", src.Name())

	cfg.Source.Kind = "CSV"
	src, err = New(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "csv", src.Name())

	cfg.Source.Kind = "postgres"
	_, err = New(context.Background(), cfg)
	assert.ErrorIs(t, err, ErrNotConfigured)

	var appErr *apierrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apierrors.ErrTypeConfig, appErr.Type)
	assert.Equal(t, "postgres", appErr.Context["kind"])
}
