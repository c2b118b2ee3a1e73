// Package report exports the supervisor dashboard to an Excel workbook.
package report

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"pautas-cli/internal/model"
	"pautas-cli/internal/workflow"

	"github.com/xuri/excelize/v2"
)

const (
	SheetOverview    = "Resumen"
	SheetMaintainers = "Mantenedores"
	SheetOrders      = "Ordenes"
)

// column is one exported field of a row value.
type column[T any] struct {
	Header string
	Width  float64
	Value  func(T) any
}

var maintainerColumns = []column[model.MaintainerProgress]{
	{"Código", 10, func(m model.MaintainerProgress) any { return m.Code }},
	{"Mantenedor", 28, func(m model.MaintainerProgress) any { return m.DisplayName() }},
	{"Órdenes", 10, func(m model.MaintainerProgress) any { return m.OrdersTotal }},
	{"Completadas", 12, func(m model.MaintainerProgress) any { return m.OrdersCompleted }},
	{"En proceso", 12, func(m model.MaintainerProgress) any { return m.OrdersInProgress }},
	{"Pendientes", 12, func(m model.MaintainerProgress) any { return m.OrdersPending }},
	{"Canceladas", 12, func(m model.MaintainerProgress) any { return m.OrdersCancelled }},
	{"Avance (%)", 12, func(m model.MaintainerProgress) any { return workflow.Percent(m.OrdersCompleted, m.OrdersTotal) }},
	{"Tareas", 10, func(m model.MaintainerProgress) any { return m.TasksTotal }},
	{"Tareas completadas", 18, func(m model.MaintainerProgress) any { return m.TasksCompleted }},
}

type orderRow struct {
	Maintainer string
	Order      model.OrderProgress
}

var orderColumns = []column[orderRow]{
	{"Mantenedor", 28, func(r orderRow) any { return r.Maintainer }},
	{"Orden", 10, func(r orderRow) any { return r.Order.Code }},
	{"Estado", 14, func(r orderRow) any { return r.Order.Status.Label() }},
	{"Tareas", 10, func(r orderRow) any { return r.Order.TasksTotal }},
	{"Completadas", 12, func(r orderRow) any { return r.Order.TasksCompleted }},
	{"Canceladas", 12, func(r orderRow) any { return r.Order.TasksCancelled }},
	{"Horas estimadas", 16, func(r orderRow) any { return r.Order.EstimatedHours }},
	{"Duración", 14, func(r orderRow) any { return model.FormatDuration(r.Order.TotalDurationSeconds) }},
}

type generator struct {
	f       *excelize.File
	styles  map[string]int
	summary model.Summary
	sort    workflow.SortMode
	at      time.Time
}

// WriteSummary renders the dashboard summary as an xlsx workbook to w.
func WriteSummary(w io.Writer, s model.Summary, sort workflow.SortMode, at time.Time) error {
	g := &generator{f: excelize.NewFile(), styles: map[string]int{}, summary: s, sort: sort, at: at}
	defer g.f.Close()

	if err := g.generate(); err != nil {
		return err
	}
	if _, err := g.f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// SaveSummary writes the workbook to path, creating parent directories.
func SaveSummary(path string, s model.Summary, sort workflow.SortMode, at time.Time) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteSummary(out, s, sort, at); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// DefaultFileName is resumen_<supervisor>_<yyyymmdd>.xlsx.
func DefaultFileName(s model.Summary, at time.Time) string {
	return fmt.Sprintf("resumen_%d_%s.xlsx", s.SupervisorCode, at.Format("20060102"))
}

func (g *generator) generate() error {
	if err := g.f.SetSheetName("Sheet1", SheetOverview); err != nil {
		return err
	}
	if _, err := g.f.NewSheet(SheetMaintainers); err != nil {
		return err
	}
	if _, err := g.f.NewSheet(SheetOrders); err != nil {
		return err
	}
	if err := g.createStyles(); err != nil {
		return err
	}
	if err := g.overview(); err != nil {
		return err
	}
	ms := workflow.SortMaintainers(g.summary.Maintainers, g.sort)
	if err := writeTable(g, SheetMaintainers, maintainerColumns, ms); err != nil {
		return err
	}
	var rows []orderRow
	for _, m := range ms {
		for _, o := range m.Orders {
			rows = append(rows, orderRow{Maintainer: m.DisplayName(), Order: o})
		}
	}
	if err := writeTable(g, SheetOrders, orderColumns, rows); err != nil {
		return err
	}
	idx, err := g.f.GetSheetIndex(SheetOverview)
	if err != nil {
		return err
	}
	g.f.SetActiveSheet(idx)
	return nil
}

func (g *generator) createStyles() error {
	border := []excelize.Border{
		{Type: "left", Color: "#000000", Style: 1},
		{Type: "top", Color: "#000000", Style: 1},
		{Type: "right", Color: "#000000", Style: 1},
		{Type: "bottom", Color: "#000000", Style: 1},
	}
	defs := map[string]*excelize.Style{
		"title": {
			Font:      &excelize.Font{Bold: true, Size: 14},
			Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
		},
		"label": {
			Font:      &excelize.Font{Bold: true, Size: 12},
			Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
		},
		"header": {
			Font:      &excelize.Font{Bold: true, Size: 12, Color: "#FFFFFF"},
			Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
			Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
			Border:    border,
		},
		"data": {Border: border},
	}
	for name, st := range defs {
		id, err := g.f.NewStyle(st)
		if err != nil {
			return fmt.Errorf("style %s: %w", name, err)
		}
		g.styles[name] = id
	}
	return nil
}

func (g *generator) overview() error {
	s := g.summary
	agg := workflow.Aggregate(s)
	rows := [][2]any{
		{"Supervisor", s.SupervisorCode},
		{"Especialidad", model.SpecialtyName(s.SpecialtyID)},
		{"Generado", g.at.Format("02-01-2006 15:04")},
		{"Órdenes", s.Totals.Orders},
		{"Órdenes completadas", s.Totals.OrdersCompleted},
		{"Órdenes canceladas", s.Totals.OrdersCancelled},
		{"Avance (%)", workflow.Percent(s.Totals.OrdersCompleted, s.Totals.Orders)},
		{"Pendientes", agg.Pending},
		{"En proceso", agg.InProgress},
		{"Tareas", s.Totals.Tasks},
		{"Tareas completadas", s.Totals.TasksCompleted},
		{"Tareas canceladas", s.Totals.TasksCancelled},
		{"Horas estimadas", s.Totals.EstimatedHours},
		{"Tiempo registrado", model.FormatDuration(&s.Totals.TotalDurationSeconds)},
	}
	sheet := SheetOverview
	if err := g.f.SetCellValue(sheet, "A1", "Resumen de pautas"); err != nil {
		return err
	}
	_ = g.f.SetCellStyle(sheet, "A1", "A1", g.styles["title"])
	_ = g.f.SetColWidth(sheet, "A", "A", 24)
	_ = g.f.SetColWidth(sheet, "B", "B", 20)
	for i, r := range rows {
		row := i + 3
		label, _ := excelize.CoordinatesToCellName(1, row)
		value, _ := excelize.CoordinatesToCellName(2, row)
		if err := g.f.SetCellValue(sheet, label, r[0]); err != nil {
			return err
		}
		if err := g.f.SetCellValue(sheet, value, r[1]); err != nil {
			return err
		}
		_ = g.f.SetCellStyle(sheet, label, label, g.styles["label"])
	}
	return nil
}

func writeTable[T any](g *generator, sheet string, cols []column[T], rows []T) error {
	for i, c := range cols {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := g.f.SetCellValue(sheet, cell, c.Header); err != nil {
			return err
		}
		_ = g.f.SetCellStyle(sheet, cell, cell, g.styles["header"])
		name, _ := excelize.ColumnNumberToName(i + 1)
		_ = g.f.SetColWidth(sheet, name, name, c.Width)
	}
	for r, row := range rows {
		for i, c := range cols {
			cell, _ := excelize.CoordinatesToCellName(i+1, r+2)
			if err := g.f.SetCellValue(sheet, cell, c.Value(row)); err != nil {
				return err
			}
			_ = g.f.SetCellStyle(sheet, cell, cell, g.styles["data"])
		}
	}
	return nil
}
