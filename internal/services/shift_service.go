// internal/services/shift_service.go
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/smartotem/totem-backend/internal/apperrors"
	"github.com/smartotem/totem-backend/internal/database"
	"github.com/smartotem/totem-backend/internal/metrics"
	"github.com/smartotem/totem-backend/internal/models"
	"github.com/smartotem/totem-backend/internal/storage"
	"github.com/smartotem/totem-backend/internal/utils"
	"github.com/smartotem/totem-backend/internal/vision"
)

const (
	maxInventorySuggestions = 3
	reportURLTTL            = 15 * time.Minute
	reportContentType       = "application/json"
)

type ShiftService struct {
	db          *gorm.DB
	provisioner *Provisioner
	reports     storage.ReportStore
	now         func() time.Time
}

type CreateShiftRequest struct {
	Name models.ShiftName `json:"name,omitempty" validate:"omitempty,oneof=manana tarde noche adhoc"`
}

// ShiftAggregate holds the frequency tables of a set of detection rows.
type ShiftAggregate struct {
	TotalDetections int64               `json:"total_detections"`
	Age             models.Distribution `json:"age_distribution"`
	Style           models.Distribution `json:"style_distribution"`
	Color           models.Distribution `json:"color_distribution"`
	Garment         models.Distribution `json:"garment_distribution"`
	Accessory       models.Distribution `json:"accessory_distribution"`
}

type ShiftSnapshot struct {
	Shift           models.Shift           `json:"shift"`
	DurationMinutes float64                `json:"duration_minutes"`
	PendingRows     int64                  `json:"pending_rows"`
	Aggregate       ShiftAggregate         `json:"aggregate"`
	DominantProfile models.DominantProfile `json:"dominant_profile"`
}

type SummaryView struct {
	ShiftID              uuid.UUID              `json:"shift_id"`
	Aggregate            ShiftAggregate         `json:"aggregate"`
	DominantProfile      models.DominantProfile `json:"dominant_profile"`
	InventorySuggestions []string               `json:"inventory_suggestions"`
	ReportKey            string                 `json:"report_key,omitempty"`
	GeneratedAt          time.Time              `json:"generated_at"`
}

type DayAggregate struct {
	Date            string                 `json:"date"`
	Shifts          []models.Shift         `json:"shifts"`
	TotalPeople     int64                  `json:"total_people"`
	Aggregate       ShiftAggregate         `json:"aggregate"`
	DominantProfile models.DominantProfile `json:"dominant_profile"`
}

type CloseShiftResult struct {
	Shift   *models.Shift `json:"shift"`
	Summary *SummaryView  `json:"summary,omitempty"`
}

func NewShiftService(db *gorm.DB, provisioner *Provisioner, reports storage.ReportStore) *ShiftService {
	return &ShiftService{
		db:          db,
		provisioner: provisioner,
		reports:     reports,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func NewShiftAggregate() ShiftAggregate {
	return ShiftAggregate{
		Age:       models.Distribution{},
		Style:     models.Distribution{},
		Color:     models.Distribution{},
		Garment:   models.Distribution{},
		Accessory: models.Distribution{},
	}
}

// countable drops labels that carry no information.
func countable(label string) bool {
	return label != "" && label != vision.Unknown && label != vision.Error
}

func (a *ShiftAggregate) Add(row models.DetectionBuffer) {
	a.TotalDetections++
	inc := func(d models.Distribution, label string) {
		if countable(label) {
			d[label]++
		}
	}
	inc(a.Age, row.AgeBracket)
	inc(a.Style, row.Style)
	inc(a.Color, row.PrimaryColor)
	inc(a.Color, row.SecondaryColor)
	inc(a.Garment, row.Garment)
	for _, accessory := range vision.SplitLabels(row.Accessories) {
		inc(a.Accessory, accessory)
	}
}

// Merge adds b's counts into a.
func (a *ShiftAggregate) Merge(b ShiftAggregate) {
	a.TotalDetections += b.TotalDetections
	pairs := []struct{ dst, src models.Distribution }{
		{a.Age, b.Age}, {a.Style, b.Style}, {a.Color, b.Color}, {a.Garment, b.Garment}, {a.Accessory, b.Accessory},
	}
	for _, p := range pairs {
		for k, v := range p.src {
			p.dst[k] += v
		}
	}
}

func AggregateRows(rows []models.DetectionBuffer) ShiftAggregate {
	agg := NewShiftAggregate()
	for _, row := range rows {
		agg.Add(row)
	}
	return agg
}

// DominantTraitOf returns the mode of d and its share of all counts. Ties go to
// the alphabetically first label.
func DominantTraitOf(d models.Distribution) *models.DominantTrait {
	var total int64
	labels := make([]string, 0, len(d))
	for label, count := range d {
		total += count
		labels = append(labels, label)
	}
	if total == 0 {
		return nil
	}
	sort.Strings(labels)

	best := labels[0]
	for _, label := range labels[1:] {
		if d[label] > d[best] {
			best = label
		}
	}
	return &models.DominantTrait{
		Value:      best,
		Count:      d[best],
		Percentage: math.Round(float64(d[best])*1000/float64(total)) / 10,
	}
}

func (a ShiftAggregate) Dominant() models.DominantProfile {
	return models.DominantProfile{
		Age:       DominantTraitOf(a.Age),
		Style:     DominantTraitOf(a.Style),
		Color:     DominantTraitOf(a.Color),
		Garment:   DominantTraitOf(a.Garment),
		Accessory: DominantTraitOf(a.Accessory),
	}
}

// InventorySuggestions derives at most three restocking hints from the dominant profile.
func InventorySuggestions(profile models.DominantProfile) []string {
	suggestions := make([]string, 0, maxInventorySuggestions)

	if g := profile.Garment; g != nil {
		target := g.Value
		if category, ok := itemCategories[g.Value]; ok {
			target = category
		}
		suggestions = append(suggestions,
			fmt.Sprintf("Reponer stock de %s: %s fue la prenda más detectada (%.1f%%)", target, g.Value, g.Percentage))
	}
	if c := profile.Color; c != nil {
		suggestions = append(suggestions,
			fmt.Sprintf("Reforzar prendas en color %s (%.1f%% de los colores observados)", c.Value, c.Percentage))
	}
	if profile.Age != nil || profile.Style != nil {
		age, style := "sin datos", "sin datos"
		if profile.Age != nil {
			age = profile.Age.Value
		}
		if profile.Style != nil {
			style = profile.Style.Value
		}
		suggestions = append(suggestions,
			fmt.Sprintf("Perfil predominante del turno: edad %s, estilo %s. Ajustar la vitrina a este público", age, style))
	}

	if len(suggestions) > maxInventorySuggestions {
		suggestions = suggestions[:maxInventorySuggestions]
	}
	return suggestions
}

// lockPointer takes the rollover lock. Every writer of the active shift goes through it.
func lockPointer(tx *gorm.DB) (*models.ShiftPointer, error) {
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.ShiftPointer{ID: models.ShiftPointerID}).Error; err != nil {
		return nil, fmt.Errorf("failed to ensure shift pointer: %w", err)
	}

	var ptr models.ShiftPointer
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&ptr, models.ShiftPointerID).Error; err != nil {
		return nil, fmt.Errorf("failed to lock shift pointer: %w", err)
	}
	return &ptr, nil
}

// openShift closes whatever is active and opens a new shift. With replace=false
// an existing active shift is returned untouched instead.
func (s *ShiftService) openShift(name models.ShiftName, replace bool) (*models.Shift, []uuid.UUID, error) {
	var shift *models.Shift
	var closed []uuid.UUID

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		ptr, err := lockPointer(tx)
		if err != nil {
			return err
		}
		shift, closed, err = s.openShiftTx(tx, ptr, name, replace)
		return err
	})
	if err != nil {
		return nil, nil, err
	}
	return shift, closed, nil
}

// openShiftTx does the work of openShift inside tx. The caller holds the
// pointer lock.
func (s *ShiftService) openShiftTx(tx *gorm.DB, ptr *models.ShiftPointer, name models.ShiftName, replace bool) (*models.Shift, []uuid.UUID, error) {
	if !replace {
		current, err := pointedShift(tx, ptr)
		if err != nil || current != nil {
			return current, nil, err
		}
	}

	now := s.now()
	var closed []uuid.UUID
	if err := tx.Model(&models.Shift{}).Where("is_active = ?", true).Pluck("id", &closed).Error; err != nil {
		return nil, nil, fmt.Errorf("database error: %w", err)
	}
	if len(closed) > 0 {
		if err := tx.Model(&models.Shift{}).Where("id IN ?", closed).Updates(map[string]interface{}{
			"is_active": false,
			"ended_at":  now,
		}).Error; err != nil {
			return nil, nil, fmt.Errorf("failed to close previous shift: %w", err)
		}
	}

	shift := &models.Shift{Name: name, StartedAt: now, IsActive: true}
	if err := tx.Omit("Summary").Create(shift).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to create shift: %w", err)
	}

	ptr.ActiveShiftID = &shift.ID
	if err := tx.Save(ptr).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to update shift pointer: %w", err)
	}
	return shift, closed, nil
}

// pointedShift loads the active shift the pointer names, or nil.
func pointedShift(tx *gorm.DB, ptr *models.ShiftPointer) (*models.Shift, error) {
	if ptr.ActiveShiftID == nil {
		return nil, nil
	}
	var current models.Shift
	err := tx.Where("id = ? AND is_active = ?", *ptr.ActiveShiftID, true).First(&current).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &current, nil
}

// CreateShift opens a shift, closing and summarizing the previous one.
func (s *ShiftService) CreateShift(ctx context.Context, req *CreateShiftRequest) (*models.Shift, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	name := req.Name
	if name == "" {
		name = models.ShiftNameFor(s.now())
	}

	shift, closed, err := s.openShift(name, true)
	if err != nil {
		return nil, err
	}
	metrics.ShiftRollovers.Inc()
	logrus.WithFields(logrus.Fields{
		"shift_id": shift.ID,
		"name":     shift.Name,
		"closed":   len(closed),
	}).Info("Shift opened")

	s.summarizeClosed(ctx, closed)
	return shift, nil
}

func (s *ShiftService) summarizeClosed(ctx context.Context, closed []uuid.UUID) {
	for _, id := range closed {
		if _, err := s.GenerateSummary(ctx, id); err != nil {
			// Rows stay unprocessed and are picked up by the next generation.
			logrus.WithError(err).WithField("shift_id", id).Warn("Failed to summarize closed shift")
			metrics.SoftErrors.WithLabelValues("shift_summary").Inc()
		}
	}
}

// CloseShift ends a shift and generates its summary before returning.
// Closing an already closed shift only regenerates the summary.
func (s *ShiftService) CloseShift(ctx context.Context, id uuid.UUID) (*CloseShiftResult, error) {
	var shift models.Shift
	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		ptr, err := lockPointer(tx)
		if err != nil {
			return err
		}

		if err := tx.Where("id = ?", id).First(&shift).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("shift", "shift "+id.String()+" not found")
			}
			return fmt.Errorf("database error: %w", err)
		}

		if shift.IsActive {
			now := s.now()
			if err := tx.Model(&shift).Updates(map[string]interface{}{
				"is_active": false,
				"ended_at":  now,
			}).Error; err != nil {
				return fmt.Errorf("failed to close shift: %w", err)
			}
			shift.IsActive = false
			shift.EndedAt = &now
		}

		if ptr.ActiveShiftID != nil && *ptr.ActiveShiftID == id {
			ptr.ActiveShiftID = nil
			if err := tx.Save(ptr).Error; err != nil {
				return fmt.Errorf("failed to update shift pointer: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	summary, err := s.GenerateSummary(ctx, id)
	if err != nil {
		return nil, err
	}
	return &CloseShiftResult{Shift: &shift, Summary: summary}, nil
}

// ActiveShift returns the shift the pointer names.
func (s *ShiftService) ActiveShift() (*models.Shift, error) {
	var ptr models.ShiftPointer
	if err := s.db.First(&ptr, models.ShiftPointerID).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if ptr.ActiveShiftID == nil {
		return nil, apperrors.NotFound("shift", "no active shift")
	}

	var shift models.Shift
	if err := s.db.Where("id = ? AND is_active = ?", *ptr.ActiveShiftID, true).First(&shift).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("shift", "no active shift")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &shift, nil
}

// RecordDetection buffers one analyzed profile on the active shift. The
// pointer lock is held from reading the active shift until the row and the
// counters are written, so a concurrent rollover waits for the insert.
func (s *ShiftService) RecordDetection(sessionID string, profile vision.Profile) (*models.DetectionBuffer, error) {
	row := &models.DetectionBuffer{
		SessionID:      sessionID,
		AgeBracket:     profile.AgeBracket,
		Style:          profile.ClothingStyle,
		PrimaryColor:   profile.PrimaryColor,
		SecondaryColor: profile.SecondaryColor,
		Garment:        profile.ClothingItem,
		Accessories:    vision.JoinLabels(profile.Accessories()),
		Confidence:     profile.DetectionConfidence,
	}

	people := 0
	if profile.PersonDetected {
		people = 1
	}

	var provisioned *models.Shift
	var closed []uuid.UUID
	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		ptr, err := lockPointer(tx)
		if err != nil {
			return err
		}
		shift, err := pointedShift(tx, ptr)
		if err != nil {
			return err
		}
		if shift == nil {
			if s.provisioner.Strict() {
				return apperrors.NotFound("shift", "no active shift")
			}
			shift, closed, err = s.openShiftTx(tx, ptr, models.ShiftNameFor(s.now()), false)
			if err != nil {
				return err
			}
			provisioned = shift
		}

		row.ShiftID = shift.ID
		if err := tx.Create(row).Error; err != nil {
			return fmt.Errorf("failed to buffer detection: %w", err)
		}
		return tx.Model(&models.Shift{}).Where("id = ?", shift.ID).Updates(map[string]interface{}{
			"total_detections": gorm.Expr("total_detections + ?", 1),
			"total_people":     gorm.Expr("total_people + ?", people),
		}).Error
	})
	if err != nil {
		return nil, err
	}

	if provisioned != nil {
		logrus.WithField("shift_id", provisioned.ID).Info("Provisioned shift for incoming detection")
		s.summarizeClosed(context.Background(), closed)
	}
	return row, nil
}

// GenerateSummary folds the shift's unprocessed rows into its summary and marks
// them processed in the same transaction. Without new rows it changes nothing
// and returns the current summary, which is nil if none was ever generated.
func (s *ShiftService) GenerateSummary(ctx context.Context, shiftID uuid.UUID) (*SummaryView, error) {
	var shift models.Shift
	var summary *models.ShiftSummary
	var consumed int

	err := database.WithTransaction(s.db, func(tx *gorm.DB) error {
		// Serializes generations for the same shift.
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).Where("id = ?", shiftID).First(&shift).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.NotFound("shift", "shift "+shiftID.String()+" not found")
			}
			return fmt.Errorf("database error: %w", err)
		}

		var existing models.ShiftSummary
		err := tx.Where("shift_id = ?", shiftID).First(&existing).Error
		switch {
		case err == nil:
			summary = &existing
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return fmt.Errorf("database error: %w", err)
		}

		var rows []models.DetectionBuffer
		if err := tx.Where("shift_id = ? AND processed = ?", shiftID, false).
			Order("created_at ASC, id ASC").
			Find(&rows).Error; err != nil {
			return fmt.Errorf("database error: %w", err)
		}
		if len(rows) == 0 {
			return nil
		}

		agg := NewShiftAggregate()
		if summary != nil {
			previous, err := aggregateFromSummary(summary)
			if err != nil {
				return fmt.Errorf("failed to decode previous summary: %w", err)
			}
			agg.Merge(previous)
		}
		agg.Merge(AggregateRows(rows))
		dominant := agg.Dominant()

		if summary == nil {
			summary = &models.ShiftSummary{ShiftID: shiftID}
		}
		summary.TotalDetections = agg.TotalDetections
		summary.AgeDistribution = models.ToJSON(agg.Age)
		summary.StyleDistribution = models.ToJSON(agg.Style)
		summary.ColorDistribution = models.ToJSON(agg.Color)
		summary.GarmentDistribution = models.ToJSON(agg.Garment)
		summary.AccessoryDistribution = models.ToJSON(agg.Accessory)
		summary.DominantProfile = models.ToJSON(dominant)
		summary.InventorySuggestions = models.ToJSON(InventorySuggestions(dominant))
		summary.GeneratedAt = s.now()
		if err := tx.Save(summary).Error; err != nil {
			return fmt.Errorf("failed to store shift summary: %w", err)
		}

		ids := make([]uuid.UUID, len(rows))
		for i, row := range rows {
			ids[i] = row.ID
		}
		result := tx.Model(&models.DetectionBuffer{}).
			Where("id IN ? AND processed = ?", ids, false).
			Update("processed", true)
		if result.Error != nil {
			return fmt.Errorf("failed to mark detections processed: %w", result.Error)
		}
		if result.RowsAffected != int64(len(ids)) {
			return apperrors.Conflict("detections were consumed by a concurrent summary")
		}
		consumed = len(ids)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if summary == nil {
		return nil, nil
	}

	if consumed > 0 {
		metrics.SummaryRows.Add(float64(consumed))
		s.exportReport(ctx, &shift, summary)
	}
	return NewSummaryView(summary)
}

func aggregateFromSummary(summary *models.ShiftSummary) (ShiftAggregate, error) {
	agg := NewShiftAggregate()
	agg.TotalDetections = summary.TotalDetections
	columns := []struct {
		data []byte
		dst  models.Distribution
	}{
		{summary.AgeDistribution, agg.Age},
		{summary.StyleDistribution, agg.Style},
		{summary.ColorDistribution, agg.Color},
		{summary.GarmentDistribution, agg.Garment},
		{summary.AccessoryDistribution, agg.Accessory},
	}
	for _, col := range columns {
		if err := models.FromJSON(col.data, &col.dst); err != nil {
			return agg, err
		}
	}
	return agg, nil
}

func NewSummaryView(summary *models.ShiftSummary) (*SummaryView, error) {
	agg, err := aggregateFromSummary(summary)
	if err != nil {
		return nil, fmt.Errorf("failed to decode shift summary: %w", err)
	}
	view := &SummaryView{
		ShiftID:              summary.ShiftID,
		Aggregate:            agg,
		InventorySuggestions: []string{},
		ReportKey:            summary.ReportKey,
		GeneratedAt:          summary.GeneratedAt,
	}
	if err := models.FromJSON(summary.DominantProfile, &view.DominantProfile); err != nil {
		return nil, fmt.Errorf("failed to decode dominant profile: %w", err)
	}
	if err := models.FromJSON(summary.InventorySuggestions, &view.InventorySuggestions); err != nil {
		return nil, fmt.Errorf("failed to decode suggestions: %w", err)
	}
	return view, nil
}

// exportReport uploads the summary; failures leave ReportKey empty and are logged.
func (s *ShiftService) exportReport(ctx context.Context, shift *models.Shift, summary *models.ShiftSummary) {
	if s.reports == nil {
		return
	}
	view, err := NewSummaryView(summary)
	if err != nil {
		logrus.WithError(err).WithField("shift_id", shift.ID).Warn("Failed to build shift report")
		return
	}

	body, err := json.MarshalIndent(struct {
		Shift   *models.Shift `json:"shift"`
		Summary *SummaryView  `json:"summary"`
	}{shift, view}, "", "  ")
	if err != nil {
		logrus.WithError(err).WithField("shift_id", shift.ID).Warn("Failed to encode shift report")
		return
	}

	key := fmt.Sprintf("%s/%s.json", shift.StartedAt.UTC().Format("2006-01-02"), shift.ID)
	uploaded, err := s.reports.Put(ctx, key, body, reportContentType)
	if err != nil {
		logrus.WithError(err).WithField("shift_id", shift.ID).Warn("Failed to export shift report")
		metrics.SoftErrors.WithLabelValues("report_export").Inc()
		return
	}

	if err := s.db.Model(summary).Update("report_key", uploaded.Key).Error; err != nil {
		logrus.WithError(err).WithField("shift_id", shift.ID).Warn("Failed to store report key")
		return
	}
	summary.ReportKey = uploaded.Key
}

func (s *ShiftService) getShift(id uuid.UUID) (*models.Shift, error) {
	var shift models.Shift
	if err := s.db.Where("id = ?", id).First(&shift).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("shift", "shift "+id.String()+" not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &shift, nil
}

func (s *ShiftService) snapshot(shift *models.Shift) (*ShiftSnapshot, error) {
	var rows []models.DetectionBuffer
	if err := s.db.Where("shift_id = ?", shift.ID).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}

	snap := &ShiftSnapshot{Shift: *shift, Aggregate: AggregateRows(rows)}
	for _, row := range rows {
		if !row.Processed {
			snap.PendingRows++
		}
	}
	end := s.now()
	if shift.EndedAt != nil {
		end = *shift.EndedAt
	}
	snap.DurationMinutes = math.Round(end.Sub(shift.StartedAt).Minutes()*10) / 10
	snap.DominantProfile = snap.Aggregate.Dominant()
	return snap, nil
}

// CurrentSnapshot reports live counters for the active shift without writing anything.
func (s *ShiftService) CurrentSnapshot() (*ShiftSnapshot, error) {
	shift, err := s.ActiveShift()
	if err != nil {
		return nil, err
	}
	return s.snapshot(shift)
}

func (s *ShiftService) ShiftStats(id uuid.UUID) (*ShiftSnapshot, error) {
	shift, err := s.getShift(id)
	if err != nil {
		return nil, err
	}
	return s.snapshot(shift)
}

func (s *ShiftService) Summary(id uuid.UUID) (*SummaryView, error) {
	if _, err := s.getShift(id); err != nil {
		return nil, err
	}

	var summary models.ShiftSummary
	if err := s.db.Where("shift_id = ?", id).First(&summary).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("shift_summary", "shift "+id.String()+" has no summary")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return NewSummaryView(&summary)
}

// DayAggregate combines every shift started on the given UTC day.
func (s *ShiftService) DayAggregate(day time.Time) (*DayAggregate, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	out := &DayAggregate{Date: start.Format("2006-01-02"), Shifts: []models.Shift{}, Aggregate: NewShiftAggregate()}
	if err := s.db.Where("started_at >= ? AND started_at < ?", start, end).
		Order("started_at ASC").
		Find(&out.Shifts).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if len(out.Shifts) == 0 {
		return out, nil
	}

	ids := make([]uuid.UUID, len(out.Shifts))
	for i, shift := range out.Shifts {
		ids[i] = shift.ID
		out.TotalPeople += shift.TotalPeople
	}

	var rows []models.DetectionBuffer
	if err := s.db.Where("shift_id IN ?", ids).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	out.Aggregate = AggregateRows(rows)
	out.DominantProfile = out.Aggregate.Dominant()
	return out, nil
}

// ReportURL returns a time-limited link to the exported report of a shift.
func (s *ShiftService) ReportURL(ctx context.Context, id uuid.UUID) (string, error) {
	summary, err := s.Summary(id)
	if err != nil {
		return "", err
	}
	if summary.ReportKey == "" || s.reports == nil {
		return "", apperrors.NotFound("report", "shift "+id.String()+" has no exported report")
	}
	return s.reports.URL(ctx, summary.ReportKey, reportURLTTL)
}

// ShiftSortFields are the orderings the shift list accepts, newest first by default.
var ShiftSortFields = utils.SortFields{"started_at", "ended_at", "total_detections", "total_people"}

func (s *ShiftService) ListShifts(params utils.PaginationParams) ([]models.Shift, int64, error) {
	var total int64
	if err := s.db.Model(&models.Shift{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("database error: %w", err)
	}

	var shifts []models.Shift
	query := utils.ApplySort(s.db.Model(&models.Shift{}), params, ShiftSortFields)
	if err := utils.ApplyPagination(query, params).Find(&shifts).Error; err != nil {
		return nil, 0, fmt.Errorf("database error: %w", err)
	}
	return shifts, total, nil
}
