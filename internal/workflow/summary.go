package workflow

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"pautas-cli/internal/model"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// Percent is done/total rounded to a whole percentage, 0 when total is 0.
func Percent(done, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(done) * 100 / float64(total)))
}

type SortMode string

const (
	SortProgress SortMode = "progress"
	SortOrders   SortMode = "orders"
	SortName     SortMode = "name"
)

func ParseSortMode(s string) (SortMode, error) {
	switch SortMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortProgress:
		return SortProgress, nil
	case SortOrders:
		return SortOrders, nil
	case SortName:
		return SortName, nil
	default:
		return SortProgress, fmt.Errorf("unknown sort %q (want progress|orders|name)", s)
	}
}

// Next cycles through the sort modes.
func (m SortMode) Next() SortMode {
	switch m {
	case SortProgress:
		return SortOrders
	case SortOrders:
		return SortName
	default:
		return SortProgress
	}
}

// SortMaintainers returns a sorted copy: progress and order count descend,
// names ascend in Spanish collation order.
func SortMaintainers(in []model.MaintainerProgress, mode SortMode) []model.MaintainerProgress {
	out := append([]model.MaintainerProgress(nil), in...)
	switch mode {
	case SortOrders:
		sort.SliceStable(out, func(i, j int) bool { return out[i].OrdersTotal > out[j].OrdersTotal })
	case SortName:
		col := collate.New(language.Spanish, collate.IgnoreCase)
		sort.SliceStable(out, func(i, j int) bool {
			return col.CompareString(out[i].DisplayName(), out[j].DisplayName()) < 0
		})
	default:
		sort.SliceStable(out, func(i, j int) bool {
			return Percent(out[i].OrdersCompleted, out[i].OrdersTotal) > Percent(out[j].OrdersCompleted, out[j].OrdersTotal)
		})
	}
	return out
}

// StatusCounts aggregates order states across all maintainers.
type StatusCounts struct {
	Pending    int `json:"pending"`
	InProgress int `json:"inProgress"`
	Completed  int `json:"completed"`
	Cancelled  int `json:"cancelled"`
}

func Aggregate(s model.Summary) StatusCounts {
	var c StatusCounts
	for _, m := range s.Maintainers {
		c.Pending += m.OrdersPending
		c.InProgress += m.OrdersInProgress
		c.Completed += m.OrdersCompleted
		c.Cancelled += m.OrdersCancelled
	}
	return c
}
