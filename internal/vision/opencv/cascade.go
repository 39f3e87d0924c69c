// internal/vision/opencv/cascade.go
package opencv

import (
	"context"
	"fmt"
	"sync"

	"gocv.io/x/gocv"

	"github.com/smartotem/totem-backend/internal/vision"
)

// CascadeConfidence is reported for every Haar hit; the classifier has no score.
const CascadeConfidence = 0.9

// CascadeFaceDetector wraps a Haar cascade. The classifier is not safe for
// concurrent use, so calls are serialized.
type CascadeFaceDetector struct {
	mu         sync.Mutex
	classifier gocv.CascadeClassifier
}

func NewCascadeFaceDetector(path string) (*CascadeFaceDetector, error) {
	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(path) {
		classifier.Close()
		return nil, fmt.Errorf("failed to load face cascade from %s", path)
	}
	return &CascadeFaceDetector{classifier: classifier}, nil
}

func (d *CascadeFaceDetector) DetectFaces(ctx context.Context, frame vision.Frame, _ []byte) ([]vision.Box, error) {
	f, ok := frame.(*Frame)
	if !ok {
		return nil, fmt.Errorf("cascade detector needs an opencv frame, got %T", frame)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	rects := d.classifier.DetectMultiScale(f.gray)
	d.mu.Unlock()

	bounds := f.Bounds()
	w, h := float64(bounds.Dx()), float64(bounds.Dy())
	boxes := make([]vision.Box, 0, len(rects))
	for _, r := range rects {
		boxes = append(boxes, vision.Box{
			X:          float64(r.Min.X) / w,
			Y:          float64(r.Min.Y) / h,
			W:          float64(r.Dx()) / w,
			H:          float64(r.Dy()) / h,
			Confidence: CascadeConfidence,
		})
	}
	return boxes, nil
}

func (d *CascadeFaceDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.classifier.Close()
}
