package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCategory(t *testing.T) {
	t.Parallel()

	industry, err := ParseCategory("industry")
	require.NoError(t, err)
	assert.Equal(t, CategoryIndustry, industry)

	market, err := ParseCategory("market")
	require.NoError(t, err)
	assert.Equal(t, CategoryMarket, market)

	_, err = ParseCategory("bonds")
	assert.Error(t, err)
}

func TestCategoryMetadata(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Industry", CategoryIndustry.Label())
	assert.Equal(t, "industry", CategoryIndustry.QueryParam())
	assert.Equal(t, "산업", CategoryIndustry.RowToken())
	assert.NotEmpty(t, CategoryIndustry.Icon())

	assert.Equal(t, "Market", CategoryMarket.Label())
	assert.Equal(t, "시장", CategoryMarket.RowToken())
}

func TestExtractedContentVariants(t *testing.T) {
	t.Parallel()

	text := TextContent("body")
	assert.Equal(t, ContentText, text.Kind)
	assert.Equal(t, "body", text.Text)

	img := ImageContent([]byte{1}, "image/png")
	assert.Equal(t, ContentImage, img.Kind)
	assert.Equal(t, "image/png", img.ImageMIME)

	assert.Equal(t, ContentUnavailable, UnavailableContent().Kind)
}

func TestSeenSetMembership(t *testing.T) {
	t.Parallel()

	seen := NewSeenSet()
	assert.False(t, seen.Contains("12345"))

	seen.Add("12345")
	seen.Add("12345")
	assert.True(t, seen.Contains("12345"))
	assert.Len(t, seen, 1)
}
