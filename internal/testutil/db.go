// internal/testutil/db.go
package testutil

import (
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/smartotem/totem-backend/internal/database"
	"github.com/smartotem/totem-backend/internal/models"
)

// NewDB opens an isolated in-memory sqlite database with the full schema.
// A single connection serializes transactions the way row locks do on postgres.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=off", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), database.GormConfig("silent"))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.RunMigrations(db))
	return db
}

// Catalog is a seeded fixture keyed by name for assertions.
type Catalog struct {
	Categories map[string]models.Category
	Products   map[string]models.Product
	Variants   map[string]models.ProductVariant
}

// VariantSpec describes one variant of a fixture product.
type VariantSpec struct {
	SKU   string
	Size  string
	Color string
	Price float64
}

// ProductSpec describes one fixture product.
type ProductSpec struct {
	Name     string
	Brand    string
	Category string
	Variants []VariantSpec
}

// Seed inserts the given products, creating categories on demand.
func Seed(t testing.TB, db *gorm.DB, products []ProductSpec) *Catalog {
	t.Helper()

	catalog := &Catalog{
		Categories: make(map[string]models.Category),
		Products:   make(map[string]models.Product),
		Variants:   make(map[string]models.ProductVariant),
	}

	for _, spec := range products {
		category, ok := catalog.Categories[spec.Category]
		if !ok {
			category = models.Category{Name: spec.Category}
			require.NoError(t, db.Where("name = ?", spec.Category).FirstOrCreate(&category).Error)
			catalog.Categories[spec.Category] = category
		}

		product := models.Product{Name: spec.Name, Brand: spec.Brand, CategoryID: category.ID}
		require.NoError(t, db.Create(&product).Error)
		catalog.Products[spec.Name] = product

		for _, vs := range spec.Variants {
			variant := models.ProductVariant{
				ProductID: product.ID,
				SKU:       vs.SKU,
				Size:      vs.Size,
				Color:     vs.Color,
				Price:     vs.Price,
			}
			require.NoError(t, db.Create(&variant).Error)
			catalog.Variants[vs.SKU] = variant
		}
	}

	return catalog
}

// StandardCatalog is a small store with every seeded category represented.
func StandardCatalog() []ProductSpec {
	return []ProductSpec{
		{Name: "Polera Básica Algodón", Brand: "Nike", Category: "Poleras", Variants: []VariantSpec{
			{SKU: "POL-001-AZ-M", Size: "M", Color: "azul", Price: 12990},
			{SKU: "POL-001-NE-M", Size: "M", Color: "negro", Price: 12990},
		}},
		{Name: "Polera Estampada", Brand: "Adidas", Category: "Poleras", Variants: []VariantSpec{
			{SKU: "POL-002-BL-L", Size: "L", Color: "blanco", Price: 15990},
		}},
		{Name: "Polera Oversize", Brand: "Levi's", Category: "Poleras", Variants: []VariantSpec{
			{SKU: "POL-003-RO-S", Size: "S", Color: "rojo", Price: 19990},
		}},
		{Name: "Polerón Capucha", Brand: "Adidas", Category: "Polerones", Variants: []VariantSpec{
			{SKU: "PLR-001-GR-L", Size: "L", Color: "gris", Price: 34990},
		}},
		{Name: "Chaqueta Denim", Brand: "Levi's", Category: "Chaquetas", Variants: []VariantSpec{
			{SKU: "CHQ-001-AZ-M", Size: "M", Color: "azul", Price: 59990},
		}},
		{Name: "Blazer Slim", Brand: "Hugo Boss", Category: "Chaquetas", Variants: []VariantSpec{
			{SKU: "CHQ-002-NE-L", Size: "L", Color: "negro", Price: 129990},
		}},
		{Name: "Camisa Oxford", Brand: "Tommy Hilfiger", Category: "Camisas", Variants: []VariantSpec{
			{SKU: "CAM-001-BL-M", Size: "M", Color: "blanco", Price: 39990},
		}},
		{Name: "Jeans 501", Brand: "Levi's", Category: "Pantalones", Variants: []VariantSpec{
			{SKU: "PAN-001-AZ-32", Size: "32", Color: "azul marino", Price: 49990},
		}},
		{Name: "Short Running", Brand: "Nike", Category: "Shorts", Variants: []VariantSpec{
			{SKU: "SHO-001-NE-M", Size: "M", Color: "negro", Price: 17990},
		}},
		{Name: "Zapatillas Air Max", Brand: "Nike", Category: "Zapatillas", Variants: []VariantSpec{
			{SKU: "ZAP-001-BL-42", Size: "42", Color: "blanco", Price: 89990},
		}},
		{Name: "Gorra Clásica", Brand: "Lacoste", Category: "Accesorios", Variants: []VariantSpec{
			{SKU: "ACC-001-VE-U", Size: "U", Color: "verde", Price: 24990},
		}},
	}
}
