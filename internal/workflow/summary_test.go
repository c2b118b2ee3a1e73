package workflow

import (
	"testing"

	"pautas-cli/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercent(t *testing.T) {
	assert.Equal(t, 0, Percent(3, 0))
	assert.Equal(t, 33, Percent(1, 3))
	assert.Equal(t, 67, Percent(2, 3))
	assert.Equal(t, 100, Percent(4, 4))
}

func progressFixture() []model.MaintainerProgress {
	return []model.MaintainerProgress{
		{Code: 1, Name: strp("Óscar"), OrdersTotal: 4, OrdersCompleted: 1, OrdersPending: 3},
		{Code: 2, Name: strp("ana"), OrdersTotal: 2, OrdersCompleted: 2},
		{Code: 3, Name: strp("Bruno"), OrdersTotal: 10, OrdersCompleted: 5, OrdersInProgress: 4, OrdersCancelled: 1},
	}
}

func names(ms []model.MaintainerProgress) []string {
	out := make([]string, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.DisplayName())
	}
	return out
}

func TestSortMaintainers(t *testing.T) {
	in := progressFixture()
	assert.Equal(t, []string{"ana", "Bruno", "Óscar"}, names(SortMaintainers(in, SortProgress)))
	assert.Equal(t, []string{"Bruno", "Óscar", "ana"}, names(SortMaintainers(in, SortOrders)))
	assert.Equal(t, []string{"ana", "Bruno", "Óscar"}, names(SortMaintainers(in, SortName)))
	assert.Equal(t, "Óscar", in[0].DisplayName(), "input left untouched")
}

func TestParseSortModeAndNext(t *testing.T) {
	m, err := ParseSortMode("")
	require.NoError(t, err)
	assert.Equal(t, SortProgress, m)
	assert.Equal(t, SortOrders, m.Next())
	assert.Equal(t, SortProgress, SortName.Next())
	_, err = ParseSortMode("fecha")
	assert.Error(t, err)
}

func TestAggregate(t *testing.T) {
	c := Aggregate(model.Summary{Maintainers: progressFixture()})
	assert.Equal(t, StatusCounts{Pending: 3, InProgress: 4, Completed: 8, Cancelled: 1}, c)
}
