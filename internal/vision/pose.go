// internal/vision/pose.go
package vision

import (
	"image"
	"math"
)

type PoseFeatures struct {
	ShoulderDistance float64 `json:"shoulder_distance"`
	TorsoHeight      float64 `json:"torso_height"`
	ArmCoverage      float64 `json:"arm_coverage"`
}

// ExtractPoseFeatures assumes the caller already checked that a pose was detected.
func ExtractPoseFeatures(l Landmarks) PoseFeatures {
	shoulderY := (l.LeftShoulder.Y + l.RightShoulder.Y) / 2
	hipY := (l.LeftHip.Y + l.RightHip.Y) / 2
	return PoseFeatures{
		ShoulderDistance: math.Abs(l.LeftShoulder.X - l.RightShoulder.X),
		TorsoHeight:      math.Abs(shoulderY - hipY),
		ArmCoverage:      math.Abs(l.LeftElbow.Y - l.LeftShoulder.Y),
	}
}

// TorsoRect is the shoulders-to-hips rectangle in frame pixels. It may be empty.
func TorsoRect(l Landmarks, bounds image.Rectangle) image.Rectangle {
	w, h := float64(bounds.Dx()), float64(bounds.Dy())
	x0 := math.Min(l.LeftShoulder.X, l.RightShoulder.X)
	x1 := math.Max(l.LeftShoulder.X, l.RightShoulder.X)
	y0 := (l.LeftShoulder.Y + l.RightShoulder.Y) / 2
	y1 := (l.LeftHip.Y + l.RightHip.Y) / 2
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	r := image.Rect(
		bounds.Min.X+int(x0*w), bounds.Min.Y+int(y0*h),
		bounds.Min.X+int(x1*w), bounds.Min.Y+int(y1*h),
	)
	return r.Intersect(bounds)
}
