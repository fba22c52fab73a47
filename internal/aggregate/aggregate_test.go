package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hmidash/internal/conflict"
)

func TestMonthly(t *testing.T) {
	events := []conflict.Event{
		{Date: time.Date(2009, time.March, 4, 0, 0, 0, 0, time.UTC), Casualties: 10},
		{Date: time.Date(2009, time.January, 15, 0, 0, 0, 0, time.UTC), Casualties: 3},
		{Date: time.Date(2009, time.January, 31, 0, 0, 0, 0, time.UTC), Casualties: 7},
	}

	t.Run("contiguous month-end series", func(t *testing.T) {
		months, err := Monthly(events, 10.1)
		require.NoError(t, err)
		require.Len(t, months, 3)

		assert.Equal(t, time.Date(2009, time.January, 31, 0, 0, 0, 0, time.UTC), months[0].Month)
		assert.Equal(t, 10, months[0].Casualties)
		assert.Equal(t, 2, months[0].Events)
		assert.InDelta(t, 10/10.1, months[0].MarkerSize, 1e-12)

		assert.Equal(t, time.Date(2009, time.February, 28, 0, 0, 0, 0, time.UTC), months[1].Month)
		assert.Zero(t, months[1].Events)
		assert.Zero(t, months[1].MarkerSize)

		assert.Equal(t, 10, months[2].Casualties)
	})

	t.Run("empty", func(t *testing.T) {
		months, err := Monthly(nil, 1)
		require.NoError(t, err)
		assert.Empty(t, months)
	})

	t.Run("invalid scaling", func(t *testing.T) {
		_, err := Monthly(events, 0)
		require.Error(t, err)
	})
}

func TestYearSpan(t *testing.T) {
	_, _, ok := YearSpan(nil)
	assert.False(t, ok)

	lo, hi, ok := YearSpan([]conflict.Event{
		{Date: time.Date(2012, 1, 1, 0, 0, 0, 0, time.UTC)},
		{Date: time.Date(2003, 6, 1, 0, 0, 0, 0, time.UTC)},
	})
	require.True(t, ok)
	assert.Equal(t, 2003, lo)
	assert.Equal(t, 2012, hi)
}

func TestIndicators(t *testing.T) {
	v := func(f float64) *float64 { return &f }
	values := []IndicatorValue{
		{Year: 2005, Name: "GDP per capita (current US$)", Value: v(250)},
		{Year: 2003, Name: "GDP per capita (current US$)", Value: v(200)},
		{Year: 2004, Name: "GDP per capita (current US$)"},
		{Year: 2004, Name: "Electoral democracy index (v2x_polyarchy)", Value: v(0.3)},
		{Year: 2010, Name: "GDP per capita (current US$)", Value: v(500)},
	}

	series := IndicatorSeries(values, "GDP per capita (current US$)", 2003, 2005)
	require.Len(t, series, 3)
	assert.Equal(t, []int{2003, 2004, 2005}, []int{series[0].Year, series[1].Year, series[2].Year})
	assert.Nil(t, series[1].Value)
	assert.Equal(t, 200.0, *series[0].Value)

	assert.Empty(t, IndicatorSeries(values, "unknown", 2000, 2020))
	assert.Equal(t, []string{"Electoral democracy index (v2x_polyarchy)", "GDP per capita (current US$)"}, IndicatorNames(values))
}
