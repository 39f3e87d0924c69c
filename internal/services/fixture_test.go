// internal/services/fixture_test.go
package services

import (
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/smartotem/totem-backend/internal/cache"
	"github.com/smartotem/totem-backend/internal/storage"
	"github.com/smartotem/totem-backend/internal/testutil"
)

type fixture struct {
	db          *gorm.DB
	catalog     *testutil.Catalog
	provisioner *Provisioner
	cache       cache.Provider
	reports     *storage.LocalStore
	tracking    *TrackingService
	recs        *RecommendationService
	search      *SearchService
	ratings     *RatingService
	sessions    *SessionService
	shifts      *ShiftService
	catalogSvc  *CatalogService
}

func newFixture(t *testing.T, strict bool) *fixture {
	t.Helper()

	db := testutil.NewDB(t)
	f := &fixture{
		db:          db,
		catalog:     testutil.Seed(t, db, testutil.StandardCatalog()),
		provisioner: NewProvisioner(strict),
		cache:       cache.NewMemoryProvider(),
		reports:     storage.NewLocalStore(t.TempDir(), "shift-summaries"),
	}
	f.tracking = NewTrackingService(db, f.provisioner)
	f.recs = NewRecommendationService(db, f.tracking, 10, 50)
	f.search = NewSearchService(db, f.tracking, f.cache, 50)
	f.ratings = NewRatingService(db, f.provisioner)
	f.sessions = NewSessionService(db, f.provisioner)
	f.shifts = NewShiftService(db, f.provisioner, f.reports)
	f.catalogSvc = NewCatalogService(db, f.cache)
	return f
}

// at pins the shift clock.
func (f *fixture) at(t time.Time) {
	f.shifts.now = func() time.Time { return t }
}

func skus(items []VariantView) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.SKU
	}
	return out
}
