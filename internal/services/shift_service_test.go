// internal/services/shift_service_test.go
package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/smartotem/totem-backend/internal/apperrors"
	"github.com/smartotem/totem-backend/internal/models"
	"github.com/smartotem/totem-backend/internal/utils"
	"github.com/smartotem/totem-backend/internal/vision"
)

var morning = time.Date(2025, time.March, 3, 10, 0, 0, 0, time.UTC)

func hoodieProfile() vision.Profile {
	return vision.Profile{
		PersonDetected:      true,
		FaceDetected:        true,
		PoseDetected:        true,
		AgeBracket:          vision.AgeYoung,
		ClothingItem:        vision.ItemHoodie,
		ClothingStyle:       vision.StyleSport,
		PrimaryColor:        "azul",
		SecondaryColor:      "blanco",
		Watch:               vision.LabelWatchL,
		Bag:                 vision.LabelBackpack,
		DetectionConfidence: 0.9,
	}
}

func activeShifts(t *testing.T, f *fixture) []models.Shift {
	t.Helper()
	var shifts []models.Shift
	require.NoError(t, f.db.Where("is_active = ?", true).Find(&shifts).Error)
	return shifts
}

func TestCreateShiftRollsOver(t *testing.T) {
	f := newFixture(t, false)
	f.at(morning)
	ctx := context.Background()

	first, err := f.shifts.CreateShift(ctx, &CreateShiftRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.ShiftMorning, first.Name)
	assert.True(t, first.IsActive)

	_, err = f.shifts.RecordDetection("kiosk-1", hoodieProfile())
	require.NoError(t, err)

	f.at(morning.Add(5 * time.Hour))
	second, err := f.shifts.CreateShift(ctx, &CreateShiftRequest{})
	require.NoError(t, err)
	assert.Equal(t, models.ShiftAfternoon, second.Name)

	active := activeShifts(t, f)
	require.Len(t, active, 1)
	assert.Equal(t, second.ID, active[0].ID)

	closed, err := f.shifts.getShift(first.ID)
	require.NoError(t, err)
	assert.False(t, closed.IsActive)
	require.NotNil(t, closed.EndedAt)

	// The closed shift was summarized on rollover.
	summary, err := f.shifts.Summary(first.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), summary.Aggregate.TotalDetections)
}

func TestCreateShiftRejectsUnknownName(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.shifts.CreateShift(context.Background(), &CreateShiftRequest{Name: "madrugada"})
	require.Error(t, err)
	assert.Empty(t, activeShifts(t, f))
}

func TestConcurrentRolloverLeavesOneActiveShift(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	const workers = 8
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.shifts.CreateShift(ctx, &CreateShiftRequest{Name: models.ShiftAdHoc})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	active := activeShifts(t, f)
	require.Len(t, active, 1)

	var ptr models.ShiftPointer
	require.NoError(t, f.db.First(&ptr, models.ShiftPointerID).Error)
	require.NotNil(t, ptr.ActiveShiftID)
	assert.Equal(t, active[0].ID, *ptr.ActiveShiftID)

	var total int64
	f.db.Model(&models.Shift{}).Count(&total)
	assert.Equal(t, int64(workers), total)
}

func TestRecordDetectionProvisionsShift(t *testing.T) {
	f := newFixture(t, false)
	f.at(morning)

	row, err := f.shifts.RecordDetection("kiosk-1", hoodieProfile())
	require.NoError(t, err)
	assert.Equal(t, "reloj_izquierda, mochila", row.Accessories)

	_, err = f.shifts.RecordDetection("kiosk-1", vision.NewProfile())
	require.NoError(t, err)

	shift, err := f.shifts.ActiveShift()
	require.NoError(t, err)
	assert.Equal(t, row.ShiftID, shift.ID)
	assert.Equal(t, models.ShiftMorning, shift.Name)
	assert.Equal(t, int64(2), shift.TotalDetections)
	assert.Equal(t, int64(1), shift.TotalPeople)

	// A second detection reuses the active shift.
	assert.Len(t, activeShifts(t, f), 1)
}

func TestRecordDetectionStrictNeedsActiveShift(t *testing.T) {
	f := newFixture(t, true)

	_, err := f.shifts.RecordDetection("kiosk-1", hoodieProfile())
	assert.True(t, apperrors.IsNotFound(err))

	_, err = f.shifts.CreateShift(context.Background(), &CreateShiftRequest{Name: models.ShiftMorning})
	require.NoError(t, err)
	_, err = f.shifts.RecordDetection("kiosk-1", hoodieProfile())
	assert.NoError(t, err)
}

func TestRolloverDuringDetectionKeepsRowOnSummarizedShift(t *testing.T) {
	f := newFixture(t, false)
	f.at(morning)
	ctx := context.Background()

	first, err := f.shifts.CreateShift(ctx, &CreateShiftRequest{})
	require.NoError(t, err)

	// Start a rollover as soon as the detection has read the active shift.
	rolled := make(chan error, 1)
	var once sync.Once
	require.NoError(t, f.db.Callback().Query().After("gorm:query").Register("test:rollover", func(db *gorm.DB) {
		if db.Statement.Table != "shifts" {
			return
		}
		once.Do(func() {
			go func() {
				_, err := f.shifts.CreateShift(ctx, &CreateShiftRequest{Name: models.ShiftAfternoon})
				rolled <- err
			}()
		})
	}))

	row, err := f.shifts.RecordDetection("kiosk-1", hoodieProfile())
	require.NoError(t, err)
	require.NoError(t, <-rolled)
	assert.Equal(t, first.ID, row.ShiftID)

	stats, err := f.shifts.ShiftStats(first.ID)
	require.NoError(t, err)
	assert.Zero(t, stats.PendingRows)

	summary, err := f.shifts.Summary(first.ID)
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, int64(1), summary.Aggregate.TotalDetections)
}

func TestGenerateSummaryIsIdempotent(t *testing.T) {
	f := newFixture(t, false)
	f.at(morning)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := f.shifts.RecordDetection("kiosk-1", hoodieProfile())
		require.NoError(t, err)
	}
	other := hoodieProfile()
	other.ClothingItem = vision.ItemTShirt
	other.PrimaryColor = "rojo"
	other.SecondaryColor = vision.Unknown
	other.Watch, other.Bag = "", ""
	row, err := f.shifts.RecordDetection("kiosk-2", other)
	require.NoError(t, err)

	summary, err := f.shifts.GenerateSummary(ctx, row.ShiftID)
	require.NoError(t, err)
	require.NotNil(t, summary)

	agg := summary.Aggregate
	assert.Equal(t, int64(3), agg.TotalDetections)
	assert.Equal(t, models.Distribution{vision.ItemHoodie: 2, vision.ItemTShirt: 1}, agg.Garment)
	assert.Equal(t, models.Distribution{"azul": 2, "blanco": 2, "rojo": 1}, agg.Color)
	assert.Equal(t, models.Distribution{vision.LabelWatchL: 2, vision.LabelBackpack: 2}, agg.Accessory)
	assert.Equal(t, models.Distribution{vision.AgeYoung: 3}, agg.Age)

	require.NotNil(t, summary.DominantProfile.Garment)
	assert.Equal(t, vision.ItemHoodie, summary.DominantProfile.Garment.Value)
	assert.InDelta(t, 66.7, summary.DominantProfile.Garment.Percentage, 1e-9)
	// azul and blanco tie; the alphabetical first wins.
	assert.Equal(t, "azul", summary.DominantProfile.Color.Value)
	require.Len(t, summary.InventorySuggestions, 3)
	assert.Contains(t, summary.InventorySuggestions[0], "Polerones")

	var before models.ShiftSummary
	require.NoError(t, f.db.Where("shift_id = ?", row.ShiftID).First(&before).Error)

	again, err := f.shifts.GenerateSummary(ctx, row.ShiftID)
	require.NoError(t, err)
	assert.Equal(t, summary.Aggregate, again.Aggregate)

	var after models.ShiftSummary
	require.NoError(t, f.db.Where("shift_id = ?", row.ShiftID).First(&after).Error)
	assert.Equal(t, before.UpdatedAt, after.UpdatedAt, "no new rows means no write")

	var pending int64
	f.db.Model(&models.DetectionBuffer{}).Where("processed = ?", false).Count(&pending)
	assert.Zero(t, pending)
}

func TestGenerateSummaryMergesNewRows(t *testing.T) {
	f := newFixture(t, false)
	f.at(morning)
	ctx := context.Background()

	row, err := f.shifts.RecordDetection("kiosk-1", hoodieProfile())
	require.NoError(t, err)
	_, err = f.shifts.GenerateSummary(ctx, row.ShiftID)
	require.NoError(t, err)

	_, err = f.shifts.RecordDetection("kiosk-1", hoodieProfile())
	require.NoError(t, err)
	summary, err := f.shifts.GenerateSummary(ctx, row.ShiftID)
	require.NoError(t, err)

	assert.Equal(t, int64(2), summary.Aggregate.TotalDetections)
	assert.Equal(t, int64(2), summary.Aggregate.Garment[vision.ItemHoodie])

	var rows int64
	f.db.Model(&models.ShiftSummary{}).Count(&rows)
	assert.Equal(t, int64(1), rows)
}

func TestGenerateSummaryEdgeCases(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	_, err := f.shifts.GenerateSummary(ctx, uuid.New())
	assert.True(t, apperrors.IsNotFound(err))

	shift, err := f.shifts.CreateShift(ctx, &CreateShiftRequest{Name: models.ShiftNight})
	require.NoError(t, err)
	summary, err := f.shifts.GenerateSummary(ctx, shift.ID)
	require.NoError(t, err)
	assert.Nil(t, summary, "an empty shift has nothing to summarize")

	_, err = f.shifts.Summary(shift.ID)
	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "shift_summary", appErr.Resource)
}

func TestCloseShift(t *testing.T) {
	f := newFixture(t, false)
	f.at(morning)
	ctx := context.Background()

	row, err := f.shifts.RecordDetection("kiosk-1", hoodieProfile())
	require.NoError(t, err)

	result, err := f.shifts.CloseShift(ctx, row.ShiftID)
	require.NoError(t, err)
	assert.False(t, result.Shift.IsActive)
	require.NotNil(t, result.Summary)
	assert.Equal(t, int64(1), result.Summary.Aggregate.TotalDetections)

	_, err = f.shifts.ActiveShift()
	assert.True(t, apperrors.IsNotFound(err))
	_, err = f.shifts.CurrentSnapshot()
	assert.True(t, apperrors.IsNotFound(err))

	again, err := f.shifts.CloseShift(ctx, row.ShiftID)
	require.NoError(t, err)
	assert.Equal(t, result.Shift.EndedAt.Unix(), again.Shift.EndedAt.Unix())

	_, err = f.shifts.CloseShift(ctx, uuid.New())
	assert.True(t, apperrors.IsNotFound(err))
}

func TestShiftReportExport(t *testing.T) {
	f := newFixture(t, false)
	f.at(morning)
	ctx := context.Background()

	row, err := f.shifts.RecordDetection("kiosk-1", hoodieProfile())
	require.NoError(t, err)
	summary, err := f.shifts.GenerateSummary(ctx, row.ShiftID)
	require.NoError(t, err)

	assert.Equal(t, "shift-summaries/2025-03-03/"+row.ShiftID.String()+".json", summary.ReportKey)

	url, err := f.shifts.ReportURL(ctx, row.ShiftID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "file://"))
	assert.True(t, strings.HasSuffix(url, row.ShiftID.String()+".json"))
}

func TestSnapshotsAndDayAggregate(t *testing.T) {
	f := newFixture(t, false)
	f.at(morning)
	ctx := context.Background()

	first, err := f.shifts.RecordDetection("kiosk-1", hoodieProfile())
	require.NoError(t, err)

	f.at(morning.Add(30 * time.Minute))
	snap, err := f.shifts.CurrentSnapshot()
	require.NoError(t, err)
	assert.Equal(t, int64(1), snap.PendingRows)
	assert.Equal(t, 30.0, snap.DurationMinutes)
	assert.Equal(t, vision.ItemHoodie, snap.DominantProfile.Garment.Value)

	f.at(morning.Add(5 * time.Hour))
	_, err = f.shifts.CreateShift(ctx, &CreateShiftRequest{})
	require.NoError(t, err)
	_, err = f.shifts.RecordDetection("kiosk-2", hoodieProfile())
	require.NoError(t, err)

	stats, err := f.shifts.ShiftStats(first.ShiftID)
	require.NoError(t, err)
	assert.Zero(t, stats.PendingRows, "rollover summarized the first shift")

	day, err := f.shifts.DayAggregate(morning)
	require.NoError(t, err)
	assert.Equal(t, "2025-03-03", day.Date)
	assert.Len(t, day.Shifts, 2)
	assert.Equal(t, int64(2), day.TotalPeople)
	assert.Equal(t, int64(2), day.Aggregate.TotalDetections)

	empty, err := f.shifts.DayAggregate(morning.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Empty(t, empty.Shifts)
}

func TestDominantTraitOf(t *testing.T) {
	assert.Nil(t, DominantTraitOf(models.Distribution{}))

	trait := DominantTraitOf(models.Distribution{"rojo": 2, "azul": 2, "verde": 1})
	require.NotNil(t, trait)
	assert.Equal(t, "azul", trait.Value)
	assert.Equal(t, int64(2), trait.Count)
	assert.Equal(t, 40.0, trait.Percentage)
}

func TestInventorySuggestions(t *testing.T) {
	assert.Empty(t, InventorySuggestions(models.DominantProfile{}))

	got := InventorySuggestions(models.DominantProfile{
		Garment: &models.DominantTrait{Value: vision.ItemJacket, Count: 3, Percentage: 75},
	})
	require.Len(t, got, 1)
	assert.Contains(t, got[0], "Chaquetas")
	assert.Contains(t, got[0], "75.0%")
}

func TestAggregateSkipsUninformativeLabels(t *testing.T) {
	agg := AggregateRows([]models.DetectionBuffer{
		{AgeBracket: vision.Unknown, Style: vision.Error, PrimaryColor: vision.UnknownColor, SecondaryColor: ""},
	})
	assert.Equal(t, int64(1), agg.TotalDetections)
	assert.Empty(t, agg.Age)
	assert.Empty(t, agg.Style)
	assert.Equal(t, models.Distribution{vision.UnknownColor: 1}, agg.Color)
}

func TestListShiftsSortsByWhitelistedColumns(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	var ids []uuid.UUID
	for i, detections := range []int{2, 0, 1} {
		f.at(morning.Add(time.Duration(i) * 5 * time.Hour))
		shift, err := f.shifts.CreateShift(ctx, &CreateShiftRequest{})
		require.NoError(t, err)
		for j := 0; j < detections; j++ {
			_, err := f.shifts.RecordDetection("kiosk-1", hoodieProfile())
			require.NoError(t, err)
		}
		ids = append(ids, shift.ID)
	}

	shiftIDs := func(shifts []models.Shift) []uuid.UUID {
		out := make([]uuid.UUID, len(shifts))
		for i, s := range shifts {
			out[i] = s.ID
		}
		return out
	}

	params := utils.PaginationParams{Page: 1, Limit: 10, Sort: ShiftSortFields.Resolve(""), Order: "desc"}
	shifts, total, err := f.shifts.ListShifts(params)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Equal(t, []uuid.UUID{ids[2], ids[1], ids[0]}, shiftIDs(shifts))

	params = utils.PaginationParams{Page: 1, Limit: 10, Sort: "total_detections", Order: "asc"}
	shifts, _, err = f.shifts.ListShifts(params)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{ids[1], ids[2], ids[0]}, shiftIDs(shifts))

	// Anything off the whitelist falls back to started_at.
	params = utils.PaginationParams{Page: 2, Limit: 2, Sort: "name; DROP TABLE shifts", Order: "asc"}
	shifts, _, err = f.shifts.ListShifts(params)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{ids[2]}, shiftIDs(shifts))
}
