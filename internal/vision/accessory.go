// internal/vision/accessory.go
package vision

import (
	"image"
	"math"
	"strings"
)

// JoinLabels joins accessory labels the way the profile stores them.
func JoinLabels(labels []string) string {
	return strings.Join(labels, ", ")
}

func SplitLabels(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (s Segment) Length() float64 {
	return math.Hypot(s.X2-s.X1, s.Y2-s.Y1)
}

// AngleDeg is the segment inclination folded into [0,90].
func (s Segment) AngleDeg() float64 {
	a := math.Abs(math.Atan2(s.Y2-s.Y1, s.X2-s.X1) * 180 / math.Pi)
	if a > 90 {
		a = 180 - a
	}
	return a
}

func (b Blob) Aspect() float64 {
	if b.Rect.Dy() == 0 {
		return 0
	}
	return float64(b.Rect.Dx()) / float64(b.Rect.Dy())
}

func (b Blob) Fill() float64 {
	box := float64(b.Rect.Dx() * b.Rect.Dy())
	if box == 0 {
		return 0
	}
	return b.Area / box
}

func (b Blob) Circularity() float64 {
	if b.Perimeter == 0 {
		return 0
	}
	return 4 * math.Pi * b.Area / (b.Perimeter * b.Perimeter)
}

// Center returns the blob center relative to a crop of the given size.
func (b Blob) Center(crop image.Point) (float64, float64) {
	if crop.X == 0 || crop.Y == 0 {
		return 0, 0
	}
	cx := float64(b.Rect.Min.X+b.Rect.Max.X) / 2
	cy := float64(b.Rect.Min.Y+b.Rect.Max.Y) / 2
	return cx / float64(crop.X), cy / float64(crop.Y)
}

// DecideGlasses accepts a frame only when the eye band shows enough long,
// near-horizontal segments spread over the band.
func DecideGlasses(segments []Segment, cropHeight int) bool {
	if cropHeight <= 0 || len(segments) < GlassesMinSegments {
		return false
	}
	var horizontal []Segment
	for _, s := range segments {
		if s.AngleDeg() <= GlassesMaxAngleDeg {
			horizontal = append(horizontal, s)
		}
	}
	if len(horizontal) < GlassesMinHoriz {
		return false
	}

	minY, maxY := math.Inf(1), math.Inf(-1)
	total := 0.0
	for _, s := range horizontal {
		minY = math.Min(minY, math.Min(s.Y1, s.Y2))
		maxY = math.Max(maxY, math.Max(s.Y1, s.Y2))
		total += s.Length()
	}
	if (maxY-minY)/float64(cropHeight) < GlassesMinSpan {
		return false
	}
	return total/float64(len(horizontal)) >= GlassesMinAvgLength
}

// DecideHeadwear returns "gorra", "gorro" or "" for contours of the head band crop.
func DecideHeadwear(blobs []Blob, crop image.Point) string {
	if crop.X <= 0 || crop.Y <= 0 {
		return ""
	}
	for _, b := range blobs {
		if b.Area <= HeadMinArea {
			continue
		}
		if b.Area <= HeadStrictMinArea || b.Fill() <= HeadMinFill {
			continue
		}
		_, cy := b.Center(crop)
		if cy >= HeadMaxCenterY {
			continue
		}
		aspect := b.Aspect()
		if aspect < HeadMinAspect || aspect > HeadMaxAspect {
			continue
		}
		width := float64(b.Rect.Dx()) / float64(crop.X)
		switch {
		case aspect > CapMinAspect && width > CapMinWidth:
			return LabelCap
		case aspect <= BeanieMaxAspect && width > BeanieMinWidth:
			return LabelBeanie
		}
	}
	return ""
}

// DecideWatch reports whether one wrist crop holds a watch-shaped contour.
func DecideWatch(blobs []Blob, crop image.Point) bool {
	if crop.X <= 0 || crop.Y <= 0 {
		return false
	}
	for _, b := range blobs {
		if b.Area < WatchMinArea || b.Area > WatchMaxArea {
			continue
		}
		if b.Circularity() <= WatchMinCircular {
			continue
		}
		if a := b.Aspect(); a < WatchMinAspect || a > WatchMaxAspect {
			continue
		}
		cx, cy := b.Center(crop)
		if math.Abs(cx-0.5) < WatchCenterTolFrac && math.Abs(cy-0.5) < WatchCenterTolFrac {
			return true
		}
	}
	return false
}

// DecideStraps looks for a symmetric pair of dark vertical contours in the
// shoulder band.
func DecideStraps(blobs []Blob, crop image.Point) bool {
	if crop.X <= 0 || crop.Y <= 0 {
		return false
	}
	var left, right []float64
	for _, b := range blobs {
		if b.Area < StrapMinArea || b.Mean >= StrapMaxMean || b.Rect.Dx() == 0 {
			continue
		}
		if float64(b.Rect.Dy())/float64(b.Rect.Dx()) <= StrapMinAspect {
			continue
		}
		cx, _ := b.Center(crop)
		switch {
		case cx < StrapLeftMaxX:
			left = append(left, cx)
		case cx > StrapRightMinX:
			right = append(right, cx)
		}
	}
	for _, l := range left {
		for _, r := range right {
			if r-l <= StrapMinSeparation {
				continue
			}
			if math.Abs((0.5-l)-(r-0.5)) < StrapMaxAsymmetry {
				return true
			}
		}
	}
	return false
}

// DecideTorsoBag scans the torso band contours in priority order
// mochila > bolso_cruzado > cartera.
func DecideTorsoBag(blobs []Blob, crop image.Point) string {
	if crop.X <= 0 || crop.Y <= 0 {
		return ""
	}
	for _, b := range blobs {
		cx, cy := b.Center(crop)
		a := b.Aspect()
		if b.Area > BackpackMinArea && cx > BackpackMinX && cx < BackpackMaxX &&
			a >= BackpackMinAspect && a <= BackpackMaxAspect && b.Fill() > BackpackMinFill &&
			cy < BackpackMaxCenterY && b.StdDev > BackpackMinStdDev && b.Mean < BackpackMaxMean {
			return LabelBackpack
		}
	}
	for _, b := range blobs {
		cx, _ := b.Center(crop)
		if b.Area > CrossbagMinArea && (cx < CrossbagMaxLeftX || cx > CrossbagMinRightX) &&
			elongation(b) > CrossbagMinElongate && b.Mean < CrossbagMaxMean && b.StdDev > CrossbagMinStdDev {
			return LabelCrossbag
		}
	}
	for _, b := range blobs {
		cx, cy := b.Center(crop)
		if b.Area > PurseMinArea && b.Area < PurseMaxArea && cy > PurseMinCenterY &&
			(cx < PurseMaxLeftX || cx > PurseMinRightX) && b.Mean < PurseMaxMean {
			return LabelPurse
		}
	}
	return ""
}

func elongation(b Blob) float64 {
	w, h := float64(b.Rect.Dx()), float64(b.Rect.Dy())
	if w == 0 || h == 0 {
		return 0
	}
	return math.Max(w, h) / math.Min(w, h)
}

// bandRect cuts a horizontal band of the frame between two height fractions
// and two width fractions.
func bandRect(bounds image.Rectangle, top, bottom, left, right float64) image.Rectangle {
	w, h := float64(bounds.Dx()), float64(bounds.Dy())
	r := image.Rect(
		bounds.Min.X+int(left*w), bounds.Min.Y+int(top*h),
		bounds.Min.X+int(right*w), bounds.Min.Y+int(bottom*h),
	)
	return r.Intersect(bounds)
}

// AccessoryDetector runs the head, watch and bag detectors against a frame.
type AccessoryDetector struct{}

// Head returns "" without touching the frame when no face was detected.
func (AccessoryDetector) Head(frame Frame, face *Box, faceDetected bool) (string, *Warning) {
	if !faceDetected || face == nil {
		return "", nil
	}
	bounds := frame.Bounds()

	faceRect := face.Pixels(bounds)
	eyes := image.Rect(
		faceRect.Min.X, faceRect.Min.Y+int(EyeBandTop*float64(faceRect.Dy())),
		faceRect.Max.X, faceRect.Min.Y+int(EyeBandBottom*float64(faceRect.Dy())),
	).Intersect(bounds)

	var labels []string
	glasses := false
	if !eyes.Empty() {
		glasses = DecideGlasses(frame.LineSegments(eyes), eyes.Dy())
		if glasses {
			labels = append(labels, LabelGlasses)
		}
	}

	if !glasses {
		head := bandRect(bounds, 0, HeadBandHeight, HeadBandLeft, HeadBandRight)
		if head.Empty() {
			return JoinLabels(labels), &Warning{Stage: "head_accessory", Code: "empty_crop"}
		}
		if label := DecideHeadwear(frame.Contours(head, AdaptiveContours), head.Size()); label != "" {
			labels = append(labels, label)
		}
	}
	return JoinLabels(labels), nil
}

func (AccessoryDetector) Watch(frame Frame, poseDetected bool) (string, *Warning) {
	if !poseDetected {
		return "", nil
	}
	bounds := frame.Bounds()
	crops := []struct {
		label string
		rect  image.Rectangle
	}{
		{LabelWatchL, bandRect(bounds, WristBandTop, WristBandBottom, 0, 0.5)},
		{LabelWatchR, bandRect(bounds, WristBandTop, WristBandBottom, 0.5, 1)},
	}

	var labels []string
	var warning *Warning
	for _, c := range crops {
		if c.rect.Empty() {
			warning = &Warning{Stage: "watch", Code: "empty_crop"}
			continue
		}
		if DecideWatch(frame.Contours(c.rect, EdgeContours), c.rect.Size()) {
			labels = append(labels, c.label)
		}
	}
	return JoinLabels(labels), warning
}

func (AccessoryDetector) Bag(frame Frame, poseDetected bool) (string, *Warning) {
	if !poseDetected {
		return "", nil
	}
	bounds := frame.Bounds()

	straps := bandRect(bounds, StrapBandTop, StrapBandBottom, 0, 1)
	if straps.Empty() {
		return "", &Warning{Stage: "bag", Code: "empty_crop"}
	}
	if DecideStraps(frame.Contours(straps, DarkContours), straps.Size()) {
		return LabelBackpack, nil
	}

	torso := bandRect(bounds, TorsoBandTop, TorsoBandBottom, 0, 1)
	if torso.Empty() {
		return "", &Warning{Stage: "bag", Code: "empty_crop"}
	}
	return DecideTorsoBag(frame.Contours(torso, DarkContours), torso.Size()), nil
}
