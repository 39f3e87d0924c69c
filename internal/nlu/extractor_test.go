// internal/nlu/extractor_test.go
package nlu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFold(t *testing.T) {
	assert.Equal(t, "pantalon cafe nino", Fold("Pantalón CAFÉ niño"))
}

func TestExtractIntents(t *testing.T) {
	e := NewExtractor()

	cases := []struct {
		text   string
		intent Intent
		color  string
		talla  string
	}{
		{"Busco una polera roja talla M", IntentSize, "rojo", "M"},
		{"¿Cuánto cuesta la chaqueta?", IntentPrice, "", ""},
		{"¿Tienen pantalones en color café?", IntentColor, "marrón", ""},
		{"quedan zapatillas 42 en stock", IntentStock, "", "42"},
		{"necesito algo azul marino", IntentSearch, "azul marino", ""},
	}
	for _, tc := range cases {
		t.Run(tc.text, func(t *testing.T) {
			r := e.Extract(tc.text)
			assert.Equal(t, tc.intent, r.Intent)
			assert.Equal(t, tc.color, r.Entities.Color)
			assert.Equal(t, tc.talla, r.Entities.Talla)
			assert.Greater(t, r.Confidence, 0.0)
			assert.LessOrEqual(t, r.Confidence, 1.0)
		})
	}
}

func TestExtractNone(t *testing.T) {
	r := NewExtractor().Extract("hola buenos días")
	assert.Equal(t, IntentNone, r.Intent)
	assert.Zero(t, r.Confidence)

	r = NewExtractor().Extract("   ")
	assert.Equal(t, IntentNone, r.Intent)
}

func TestExtractTieGoesToDeclarationOrder(t *testing.T) {
	// Only the category bonus fires, equally for every intent.
	r := NewExtractor().Extract("chaqueta")
	assert.Equal(t, IntentSearch, r.Intent)
	assert.InDelta(t, categoryBonus, r.Confidence, 1e-9)
}

func TestExtractPicksHighestRawScoreAboveCap(t *testing.T) {
	// buscar scores 0.72 and color 1.0 before the shared 0.3 bonus, so both
	// exceed the cap.
	r := NewExtractor().Extract("busco buscar buscando quiero necesito muestrame algo en color rojo otros colores tono tonos tonalidad polera")
	assert.Equal(t, IntentColor, r.Intent)
	assert.Equal(t, maxConfidence, r.Confidence)
	assert.Equal(t, maxConfidence, r.Scores[IntentSearch])
	assert.Equal(t, maxConfidence, r.Scores[IntentColor])
	assert.Equal(t, "rojo", r.Entities.Color)
}

func TestExtractPriceScore(t *testing.T) {
	r := NewExtractor().Extract("cuanto cuesta la chaqueta")
	// 0.7*2/12 + 0.3*1/3 + 0.2
	assert.InDelta(t, 0.7*2.0/12.0+0.1+0.2, r.Confidence, 1e-9)
}

func TestFindSizeGluedToTalla(t *testing.T) {
	assert.Equal(t, "XL", findSize("talla xl por favor"))
	assert.Equal(t, "42", findSize("talla42"))
	assert.Equal(t, "", findSize("mas grande"))
}

func TestColorFromText(t *testing.T) {
	c, ok := ColorFromText("Polerón ROSADO")
	assert.True(t, ok)
	assert.Equal(t, "rosa", c)

	_, ok = ColorFromText("polerón")
	assert.False(t, ok)
}

func TestQueryTerms(t *testing.T) {
	assert.Equal(t, []string{"polera", "roja"}, QueryTerms("Busco una polera roja talla M, por favor"))
	assert.Empty(t, QueryTerms("hola, ¿qué tallas hay?"))
}
