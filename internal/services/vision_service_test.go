// internal/services/vision_service_test.go
package services

import (
	"context"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartotem/totem-backend/internal/apperrors"
	"github.com/smartotem/totem-backend/internal/models"
	"github.com/smartotem/totem-backend/internal/vision"
)

// solidFrame is a single-color frame with no edges or contours.
type solidFrame struct {
	color vision.RGB
}

func (f solidFrame) Bounds() image.Rectangle { return image.Rect(0, 0, 640, 480) }

func (f solidFrame) MeanColor(r image.Rectangle) (vision.RGB, bool) { return f.color, !r.Empty() }

func (f solidFrame) ColorClusters(image.Rectangle, int) []vision.ColorCluster {
	return []vision.ColorCluster{{Color: f.color, Share: 1}}
}

func (f solidFrame) LineSegments(image.Rectangle) []vision.Segment { return nil }

func (f solidFrame) Contours(image.Rectangle, vision.ContourMode) []vision.Blob { return nil }

func (f solidFrame) Annotate(vision.Overlay) ([]byte, error) { return []byte{0xFF, 0xD8, 0xFF}, nil }

func (f solidFrame) Close() error { return nil }

type solidDecoder struct {
	frame vision.Frame
}

func (d solidDecoder) Decode([]byte, vision.DecodeOptions) (vision.Frame, error) {
	return d.frame, nil
}

var jpegFrame = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F'}

func kioskLandmarks() *vision.Landmarks {
	v := 0.9
	return &vision.Landmarks{
		LeftShoulder:  vision.Point{X: 0.70, Y: 0.20, Visibility: v},
		RightShoulder: vision.Point{X: 0.30, Y: 0.20, Visibility: v},
		LeftElbow:     vision.Point{X: 0.75, Y: 0.55, Visibility: v},
		RightElbow:    vision.Point{X: 0.25, Y: 0.55, Visibility: v},
		LeftHip:       vision.Point{X: 0.65, Y: 0.75, Visibility: v},
		RightHip:      vision.Point{X: 0.35, Y: 0.75, Visibility: v},
		LeftWrist:     vision.Point{X: 0.80, Y: 0.70, Visibility: v},
		RightWrist:    vision.Point{X: 0.20, Y: 0.70, Visibility: v},
	}
}

func newVisionService(f *fixture) *VisionService {
	analyzer := vision.NewAnalyzer(vision.DefaultConfig(), solidDecoder{frame: solidFrame{color: vision.RGB{B: 255}}}, nil, nil)
	return NewVisionService(f.db, analyzer, f.provisioner, f.tracking, f.shifts, f.recs, vision.MaxUploadBytes)
}

func TestAnalyzeFrameRejectsBadPayload(t *testing.T) {
	f := newFixture(t, false)
	svc := newVisionService(f)

	_, err := svc.AnalyzeFrame(context.Background(), &AnalyzeFrameRequest{Frame: []byte("GIF89a")})
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.AnalyzeFrame(context.Background(), &AnalyzeFrameRequest{})
	assert.True(t, apperrors.IsValidation(err))
}

func TestAnalyzeFrameWithoutSessionWritesNothing(t *testing.T) {
	f := newFixture(t, false)
	svc := newVisionService(f)

	result, err := svc.AnalyzeFrame(context.Background(), &AnalyzeFrameRequest{Frame: jpegFrame})
	require.NoError(t, err)
	assert.False(t, result.Profile.PersonDetected)
	assert.Nil(t, result.DetectionID)

	var detections int64
	f.db.Model(&models.Detection{}).Count(&detections)
	assert.Zero(t, detections)
}

func TestAnalyzeFrameRecordsSession(t *testing.T) {
	f := newFixture(t, false)
	svc := newVisionService(f)

	result, err := svc.AnalyzeFrame(context.Background(), &AnalyzeFrameRequest{
		SessionID: "kiosk-v",
		Frame:     jpegFrame,
		Landmarks: kioskLandmarks(),
		Annotate:  true,
		Recommend: true,
		Limit:     5,
	})
	require.NoError(t, err)

	p := result.Profile
	assert.True(t, p.PersonDetected)
	assert.Equal(t, vision.ItemJacket, p.ClothingItem)
	assert.Equal(t, "azul", p.PrimaryColor)
	assert.Equal(t, "/9j/", result.AnnotatedImage)
	require.NotNil(t, result.DetectionID)

	var detection models.Detection
	require.NoError(t, f.db.Where("id = ?", *result.DetectionID).First(&detection).Error)
	assert.Equal(t, "kiosk-v", detection.SessionID)
	assert.Equal(t, vision.ItemJacket, detection.ClothingItem)

	var buffered []models.DetectionBuffer
	require.NoError(t, f.db.Find(&buffered).Error)
	require.Len(t, buffered, 1)
	assert.Equal(t, "azul", buffered[0].PrimaryColor)

	var interaction models.Interaction
	require.NoError(t, f.db.Where("session_id = ? AND type = ?", "kiosk-v", models.InteractionCameraDetection).First(&interaction).Error)
	meta, err := models.DecodeMetadata(interaction.Metadata)
	require.NoError(t, err)
	assert.Equal(t, models.CameraMetadata{Item: vision.ItemJacket, Color: "azul"}, meta)

	require.NotNil(t, result.Recommendations)
	require.NotEmpty(t, result.Recommendations.Items)
	assert.Contains(t, result.Recommendations.Items[0].Color, "azul")
	assert.NotNil(t, result.Recommendations.RecommendationID)

	var session models.Session
	require.NoError(t, f.db.Where("id = ?", "kiosk-v").First(&session).Error)
	assert.Equal(t, models.SessionChannelVision, session.Channel)
}

func TestAnalyzeFrameStrictSessionIsSoftFailure(t *testing.T) {
	f := newFixture(t, true)
	svc := newVisionService(f)

	result, err := svc.AnalyzeFrame(context.Background(), &AnalyzeFrameRequest{
		SessionID: "ghost",
		Frame:     jpegFrame,
		Landmarks: kioskLandmarks(),
	})
	require.NoError(t, err, "recording failures never fail the analysis")
	assert.Nil(t, result.DetectionID)
	assert.True(t, result.Profile.PersonDetected)
}
