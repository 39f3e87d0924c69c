// internal/services/search_service_test.go
package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartotem/totem-backend/internal/models"
)

func TestSearchRanksExactNameFirst(t *testing.T) {
	f := newFixture(t, false)

	result, err := f.search.Search("polera estampada", 10, "")
	require.NoError(t, err)
	require.NotEmpty(t, result.Items)

	top := result.Items[0]
	assert.Equal(t, "POL-002-BL-L", top.SKU)
	assert.Equal(t, 1, top.SearchRank)
	require.NotNil(t, top.SearchScore)
	// full name + two name terms + two category hits + cheap bonus
	assert.Equal(t, 10.0+5+5+2+0.5, *top.SearchScore)
	assert.False(t, result.Fallback)

	for i := 1; i < len(result.Items); i++ {
		assert.GreaterOrEqual(t, *result.Items[i-1].SearchScore, *result.Items[i].SearchScore)
		assert.Equal(t, i+1, result.Items[i].SearchRank)
	}
}

func TestSearchIgnoresCase(t *testing.T) {
	f := newFixture(t, false)

	result, err := f.search.Search("POLERAS nike", 10, "")
	require.NoError(t, err)
	require.NotEmpty(t, result.Items)
	assert.Equal(t, "Nike", result.Items[0].Brand)
	assert.Equal(t, "Poleras", result.Items[0].Category)
}

func TestSearchMatchesAccentedCatalogWithoutAccents(t *testing.T) {
	f := newFixture(t, false)

	for _, query := range []string{"basica", "básica", "BASICA"} {
		result, err := f.search.Search(query, 10, "")
		require.NoError(t, err)
		assert.False(t, result.Fallback, query)
		assert.ElementsMatch(t, []string{"POL-001-AZ-M", "POL-001-NE-M"}, skus(result.Items), query)
	}

	result, err := f.search.Search("gorra clasica", 10, "")
	require.NoError(t, err)
	require.NotEmpty(t, result.Items)
	assert.Equal(t, "ACC-001-VE-U", result.Items[0].SKU)

	result, err = f.search.Search("poleron", 10, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"PLR-001-GR-L"}, skus(result.Items))
}

func TestSearchColumnsFollowRenames(t *testing.T) {
	f := newFixture(t, false)

	product := f.catalog.Products["Polera Estampada"]
	product.Name = "Polera Ñandú"
	require.NoError(t, f.db.Omit("Category", "Variants").Save(&product).Error)
	assert.Equal(t, "polera nandu", product.SearchName)

	result, err := f.search.Search("nandu", 10, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"POL-002-BL-L"}, skus(result.Items))
}

func TestSearchFallsBackToSynonyms(t *testing.T) {
	f := newFixture(t, false)

	result, err := f.search.Search("formal", 10, "")
	require.NoError(t, err)

	assert.True(t, result.Fallback)
	assert.ElementsMatch(t, []string{"CHQ-002-NE-L", "CAM-001-BL-M"}, skus(result.Items))
	for i, item := range result.Items {
		assert.Nil(t, item.SearchScore)
		assert.Equal(t, i+1, item.SearchRank)
	}
}

func TestSearchNoMatch(t *testing.T) {
	f := newFixture(t, false)

	result, err := f.search.Search("xyzzy", 10, "")
	require.NoError(t, err)
	assert.Empty(t, result.Items)
	assert.False(t, result.Fallback)

	result, err = f.search.Search("   ", 10, "")
	require.NoError(t, err)
	assert.Empty(t, result.Items)
}

func TestSearchTracksSession(t *testing.T) {
	f := newFixture(t, false)

	result, err := f.search.Search("jeans", 10, "kiosk-s")
	require.NoError(t, err)
	require.Len(t, result.Items, 1)
	require.NotNil(t, result.RecommendationID)

	var interaction models.Interaction
	require.NoError(t, f.db.Where("session_id = ? AND type = ?", "kiosk-s", models.InteractionSearch).First(&interaction).Error)
	meta, err := models.DecodeMetadata(interaction.Metadata)
	require.NoError(t, err)
	assert.Equal(t, models.SearchMetadata{Query: "jeans", ResultCount: 1}, meta)

	var batch models.RecommendationBatch
	require.NoError(t, f.db.Where("id = ?", *result.RecommendationID).First(&batch).Error)
	assert.Equal(t, models.RecommendationTypeSearch, batch.Type)
}

func TestSuggestions(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	got, err := f.search.Suggestions(ctx, "pol", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"polera", "polerón", "Poleras", "Polerones"}, got)

	got, err = f.search.Suggestions(ctx, "pol", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"polera"}, got)

	got, err = f.search.Suggestions(ctx, "", 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSuggestionsAreCached(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	first, err := f.search.Suggestions(ctx, "ni", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"Nike"}, first)

	require.NoError(t, f.db.Exec("UPDATE products SET brand = ? WHERE brand = ?", "Nikon", "Nike").Error)
	second, err := f.search.Suggestions(ctx, "ni", 10)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestScoreVariant(t *testing.T) {
	v := VariantView{Name: "Chaqueta Denim", Brand: "Levi's", Category: "Chaquetas", Color: "azul", Price: 59990}

	assert.Equal(t, 5.0+2+1, ScoreVariant("chaqueta azul", []string{"chaqueta", "azul"}, v))
	assert.Equal(t, 10.0+5+5+2, ScoreVariant("Chaqueta Denim", []string{"Chaqueta", "Denim"}, v))

	v.Price = 1000
	assert.Equal(t, 0.5, ScoreVariant("zzz", []string{"zzz"}, v))
}
