// internal/vision/color.go
package vision

const UnknownColor = "desconocido"

type colorRange struct {
	name string
	rMin, rMax, gMin, gMax, bMin, bMax uint8
}

func (c colorRange) contains(r, g, b uint8) bool {
	return r >= c.rMin && r <= c.rMax &&
		g >= c.gMin && g <= c.gMax &&
		b >= c.bMin && b <= c.bMax
}

// Chromatic ranges come first so grey boxes only catch desaturated pixels.
var colorRanges = []colorRange{
	{"rojo", 150, 255, 0, 80, 0, 80},
	{"granate", 90, 149, 0, 50, 0, 60},
	{"vino", 60, 100, 0, 30, 20, 50},
	{"terracota", 180, 220, 60, 100, 30, 70},
	{"salmón", 240, 255, 120, 160, 100, 130},
	{"coral", 230, 255, 100, 150, 60, 110},
	{"naranja", 220, 255, 100, 180, 0, 80},
	{"rosa", 200, 255, 100, 200, 150, 230},
	{"fucsia", 200, 255, 0, 100, 120, 255},
	{"dorado", 200, 240, 160, 200, 20, 80},
	{"amarillo", 200, 255, 200, 255, 0, 120},
	{"mostaza", 170, 220, 140, 190, 0, 60},
	{"crema", 230, 255, 220, 250, 180, 220},
	{"beige", 200, 250, 180, 235, 140, 200},
	{"camel", 160, 210, 110, 160, 50, 110},
	{"caqui", 160, 200, 150, 190, 90, 140},
	{"marrón", 90, 160, 50, 110, 0, 70},
	{"verde lima", 150, 210, 220, 255, 0, 100},
	{"verde menta", 150, 200, 230, 255, 180, 230},
	{"verde", 0, 100, 100, 255, 0, 100},
	{"verde oliva", 101, 140, 100, 150, 0, 60},
	{"verde militar", 60, 100, 70, 99, 30, 70},
	{"turquesa", 0, 100, 180, 240, 180, 240},
	{"celeste", 100, 200, 180, 240, 220, 255},
	{"azul petróleo", 0, 60, 80, 130, 100, 150},
	{"azul", 0, 80, 0, 130, 180, 255},
	{"azul marino", 0, 50, 0, 60, 80, 179},
	{"morado", 90, 160, 0, 60, 120, 200},
	{"violeta", 130, 200, 60, 130, 200, 255},
	{"lila", 170, 220, 140, 190, 200, 255},
	{"gris claro", 170, 219, 170, 219, 170, 219},
	{"gris", 100, 169, 100, 169, 100, 169},
	{"gris oscuro", 31, 99, 31, 99, 31, 99},
	{"negro", 0, 45, 0, 45, 0, 45},
	{"blanco", 235, 255, 235, 255, 235, 255},
}

// ClassifyColor names an RGB triple. It never fails; unmatched triples are UnknownColor.
func ClassifyColor(r, g, b uint8) string {
	if r >= WhiteMinChannel && g >= WhiteMinChannel && b >= WhiteMinChannel {
		return "blanco"
	}
	if r <= BlackMaxChannel && g <= BlackMaxChannel && b <= BlackMaxChannel {
		return "negro"
	}
	for _, c := range colorRanges {
		if c.contains(r, g, b) {
			return c.name
		}
	}
	return UnknownColor
}

// ColorNames lists the vocabulary ClassifyColor can produce.
func ColorNames() []string {
	names := make([]string, 0, len(colorRanges)+1)
	for _, c := range colorRanges {
		names = append(names, c.name)
	}
	return append(names, UnknownColor)
}

func classifyRGB(c RGB) string {
	return ClassifyColor(c.R, c.G, c.B)
}

// IsColorName reports whether name is already one of the ColorNames values.
func IsColorName(name string) bool {
	for _, c := range ColorNames() {
		if c == name {
			return true
		}
	}
	return false
}
