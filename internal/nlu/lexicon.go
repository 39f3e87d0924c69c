// internal/nlu/lexicon.go
package nlu

import "regexp"

type Intent string

const (
	IntentSearch Intent = "buscar"
	IntentSize   Intent = "talla"
	IntentColor  Intent = "color"
	IntentPrice  Intent = "precio"
	IntentStock  Intent = "stock"
	IntentNone   Intent = "none"
)

type intentRule struct {
	intent   Intent
	keywords []string
	patterns []*regexp.Regexp
}

// Declaration order breaks score ties.
var intentRules = []intentRule{
	{
		intent:   IntentSearch,
		keywords: []string{"busco", "buscar", "buscando", "quiero", "necesito", "muestrame", "mostrar", "ver", "encontrar", "recomienda"},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b(busco|quiero|necesito|buscando)\s+\w+`),
			regexp.MustCompile(`\bmuestr\w*\s+\w+`),
			regexp.MustCompile(`\b(algo|alguna?|unos?|unas?)\s+\w+`),
		},
	},
	{
		intent:   IntentSize,
		keywords: []string{"talla", "tallas", "medida", "numero", "size", "grande", "pequeno", "mediano", "chico"},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\btalla\s+\w+`),
			regexp.MustCompile(`\b(xs|s|m|l|xl|xxl)\b`),
			regexp.MustCompile(`\b(3[6-9]|4[0-9]|50)\b`),
		},
	},
	{
		intent:   IntentColor,
		keywords: []string{"color", "colores", "tono", "tonos", "tonalidad"},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\ben\s+(que\s+)?colou?r(es)?\b`),
			regexp.MustCompile(`\b(otro|otros)\s+colou?r(es)?\b`),
			regexp.MustCompile(`\bcolor\s+\w+`),
		},
	},
	{
		intent:   IntentPrice,
		keywords: []string{"precio", "precios", "cuesta", "cuestan", "cuanto", "vale", "valor", "barato", "barata", "caro", "oferta", "descuento"},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\bcuanto\s+(cuesta|cuestan|vale|valen|sale)\b`),
			regexp.MustCompile(`\b\d+\s*(pesos|lucas|mil)\b`),
			regexp.MustCompile(`\b(menos|mas)\s+de\s+\d+`),
		},
	},
	{
		intent:   IntentStock,
		keywords: []string{"stock", "disponible", "disponibles", "queda", "quedan", "hay", "inventario", "existencia", "agotado"},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\b(hay|tienen|quedan)\s+\w+`),
			regexp.MustCompile(`\ben\s+stock\b`),
			regexp.MustCompile(`\b(esta|estan)\s+(disponibles?|agotad[oa]s?)\b`),
		},
	},
}

// categoryKeywords add a bonus to every intent when a product category is named.
var categoryKeywords = []string{
	"polera", "poleras", "camiseta", "camisetas", "camisa", "camisas", "blusa", "blusas",
	"poleron", "polerones", "sudadera", "sudaderas", "chaqueta", "chaquetas", "parka", "parkas",
	"pantalon", "pantalones", "jeans", "jean", "short", "shorts", "falda", "faldas",
	"vestido", "vestidos", "zapatilla", "zapatillas", "zapato", "zapatos", "botas",
	"accesorio", "accesorios", "gorra", "gorras", "mochila", "mochilas", "cartera", "carteras",
}

// colorSynonyms maps folded spoken color words to catalog color names.
// Multi-word entries are matched before single words.
var colorSynonyms = []struct {
	word      string
	canonical string
}{
	{"azul marino", "azul marino"},
	{"verde oliva", "verde oliva"},
	{"gris oscuro", "gris oscuro"},
	{"gris claro", "gris claro"},
	{"rojo", "rojo"}, {"roja", "rojo"}, {"rojos", "rojo"}, {"rojas", "rojo"},
	{"azul", "azul"}, {"azules", "azul"},
	{"verde", "verde"}, {"verdes", "verde"},
	{"negro", "negro"}, {"negra", "negro"}, {"negros", "negro"}, {"negras", "negro"},
	{"blanco", "blanco"}, {"blanca", "blanco"}, {"blancos", "blanco"}, {"blancas", "blanco"},
	{"amarillo", "amarillo"}, {"amarilla", "amarillo"}, {"amarillos", "amarillo"},
	{"gris", "gris"}, {"grises", "gris"},
	{"rosa", "rosa"}, {"rosado", "rosa"}, {"rosada", "rosa"}, {"rosados", "rosa"},
	{"morado", "morado"}, {"morada", "morado"}, {"lila", "lila"}, {"violeta", "violeta"},
	{"naranja", "naranja"}, {"anaranjado", "naranja"},
	{"beige", "beige"}, {"crema", "crema"},
	{"cafe", "marrón"}, {"marron", "marrón"}, {"cafes", "marrón"},
	{"celeste", "celeste"}, {"celestes", "celeste"}, {"turquesa", "turquesa"},
	{"burdeo", "granate"}, {"burdeos", "granate"}, {"granate", "granate"}, {"vino", "vino"},
	{"marino", "azul marino"},
}

var sizeTokens = []string{
	"xs", "s", "m", "l", "xl", "xxl",
	"36", "37", "38", "39", "40", "41", "42", "43", "44", "45", "46", "47", "48", "49", "50",
}

// fillerWords never name a product.
var fillerWords = map[string]bool{
	"a": true, "al": true, "algo": true, "alguna": true, "alguno": true, "con": true, "de": true,
	"del": true, "el": true, "en": true, "es": true, "esta": true, "la": true, "las": true,
	"lo": true, "los": true, "me": true, "mi": true, "para": true, "por": true, "favor": true,
	"que": true, "se": true, "tienen": true, "tienes": true, "un": true, "una": true, "unas": true,
	"unos": true, "y": true, "hola": true, "gracias": true,
}
