// internal/vision/color_test.go
package vision

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyColorOverrides(t *testing.T) {
	for r := WhiteMinChannel; r <= 255; r += 7 {
		for g := WhiteMinChannel; g <= 255; g += 5 {
			assert.Equal(t, "blanco", ClassifyColor(uint8(r), uint8(g), 255))
		}
	}
	for r := 0; r <= BlackMaxChannel; r += 3 {
		for b := 0; b <= BlackMaxChannel; b += 5 {
			assert.Equal(t, "negro", ClassifyColor(uint8(r), 0, uint8(b)))
		}
	}
}

func TestClassifyColorNamedRanges(t *testing.T) {
	cases := []struct {
		r, g, b uint8
		want    string
	}{
		{255, 0, 0, "rojo"},
		{0, 0, 255, "azul"},
		{0, 0, 128, "azul marino"},
		{0, 160, 0, "verde"},
		{255, 255, 0, "amarillo"},
		{255, 165, 0, "naranja"},
		{255, 192, 203, "rosa"},
		{128, 0, 128, "morado"},
		{128, 128, 128, "gris"},
		{60, 60, 60, "gris oscuro"},
		{139, 69, 19, "marrón"},
		{64, 224, 208, "turquesa"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ClassifyColor(tc.r, tc.g, tc.b), "rgb(%d,%d,%d)", tc.r, tc.g, tc.b)
	}
}

func TestClassifyColorIsTotal(t *testing.T) {
	vocabulary := map[string]bool{}
	for _, n := range ColorNames() {
		vocabulary[n] = true
	}
	vocabulary["blanco"] = true
	vocabulary["negro"] = true

	for r := 0; r <= 255; r += 15 {
		for g := 0; g <= 255; g += 15 {
			for b := 0; b <= 255; b += 15 {
				name := ClassifyColor(uint8(r), uint8(g), uint8(b))
				assert.True(t, vocabulary[name], "unexpected name %q", name)
			}
		}
	}
}
