package report

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"pautas-cli/internal/model"
	"pautas-cli/internal/workflow"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func name(s string) *string { return &s }

func fixture() model.Summary {
	dur := 5400.0
	return model.Summary{
		SupervisorCode: 10,
		SpecialtyID:    1,
		Totals:         model.SummaryTotals{Orders: 3, OrdersCompleted: 2, Tasks: 6, TasksCompleted: 4},
		Maintainers: []model.MaintainerProgress{
			{Code: 55, Name: name("Ana"), OrdersTotal: 1, OrdersCompleted: 0, OrdersPending: 1},
			{Code: 56, Name: name("Bruno"), OrdersTotal: 2, OrdersCompleted: 2, Orders: []model.OrderProgress{
				{Code: 1234, Status: model.OrderCompleted, TasksTotal: 2, TasksCompleted: 2, TotalDurationSeconds: &dur},
				{Code: 1235, Status: model.OrderCompleted, TasksTotal: 1, TasksCompleted: 1},
			}},
		},
	}
}

func TestWriteSummary(t *testing.T) {
	var buf bytes.Buffer
	at := time.Date(2024, 6, 3, 10, 30, 0, 0, time.UTC)
	require.NoError(t, WriteSummary(&buf, fixture(), workflow.SortProgress, at))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetOverview, SheetMaintainers, SheetOrders}, f.GetSheetList())

	v, err := f.GetCellValue(SheetOverview, "B9")
	require.NoError(t, err)
	assert.Equal(t, "67", v, "overall progress")

	// Progress sort puts Bruno (100%) first.
	v, _ = f.GetCellValue(SheetMaintainers, "B2")
	assert.Equal(t, "Bruno", v)
	v, _ = f.GetCellValue(SheetMaintainers, "H2")
	assert.Equal(t, "100", v)

	rows, err := f.GetRows(SheetOrders)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Bruno", "1234", "Completada"}, rows[1][:3])
}

func TestSaveSummary(t *testing.T) {
	at := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	path := filepath.Join(t.TempDir(), "out", DefaultFileName(fixture(), at))
	require.NoError(t, SaveSummary(path, fixture(), workflow.SortName, at))
	assert.Equal(t, "resumen_10_20240603.xlsx", filepath.Base(path))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	v, _ := f.GetCellValue(SheetMaintainers, "B2")
	assert.Equal(t, "Ana", v)
}
