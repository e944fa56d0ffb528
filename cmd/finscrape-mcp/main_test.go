package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/finscrape/models"
)

func TestKeepPartial(t *testing.T) {
	parseErr := models.NewScrapeError(models.ErrCodeTimestampParse, "bad timestamp", nil)

	items, err := keepPartial([]models.NewsItem{{Headline: "first"}}, parseErr, "ticker", "AAPL")
	require.NoError(t, err)
	assert.Len(t, items, 1)

	items, err = keepPartial([]models.NewsItem(nil), parseErr)
	assert.ErrorIs(t, err, models.ErrTimestampParse)
	assert.Empty(t, items)

	strs, err := keepPartial([]string{"a"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, strs)
}

func TestToolResult(t *testing.T) {
	res, err := toolResult(keepPartial([]string{"a", "b"}, errors.New("row 3 malformed")))
	require.NoError(t, err)
	assert.False(t, res.IsError)

	res, err = toolResult(keepPartial([]string(nil), errors.New("table missing")))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}
