// internal/vision/opencv/frame.go
package opencv

import (
	"errors"
	"image"
	"math"

	"gocv.io/x/gocv"

	"github.com/smartotem/totem-backend/internal/vision"
)

// Decoder turns JPEG/PNG bytes into gocv-backed frames.
type Decoder struct{}

func (Decoder) Decode(data []byte, opts vision.DecodeOptions) (vision.Frame, error) {
	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return nil, err
	}
	if mat.Empty() {
		mat.Close()
		return nil, errors.New("image could not be decoded")
	}

	if opts.Downscale && opts.MaxDimension > 0 {
		if resized, ok := downscale(mat, opts.MaxDimension); ok {
			mat.Close()
			mat = resized
		}
	}

	gray := gocv.NewMat()
	gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray)
	return &Frame{color: mat, gray: gray}, nil
}

// downscale shrinks the longest side to maxDim, preserving aspect ratio.
func downscale(mat gocv.Mat, maxDim int) (gocv.Mat, bool) {
	w, h := mat.Cols(), mat.Rows()
	longest := w
	if h > longest {
		longest = h
	}
	if longest <= maxDim {
		return gocv.Mat{}, false
	}
	scale := float64(maxDim) / float64(longest)
	size := image.Pt(int(math.Round(float64(w)*scale)), int(math.Round(float64(h)*scale)))
	dst := gocv.NewMat()
	gocv.Resize(mat, &dst, size, 0, 0, gocv.InterpolationArea)
	return dst, true
}

// Frame holds the BGR image and its grayscale copy.
type Frame struct {
	color gocv.Mat
	gray  gocv.Mat
}

func (f *Frame) Bounds() image.Rectangle {
	return image.Rect(0, 0, f.color.Cols(), f.color.Rows())
}

// Mat exposes the BGR image to detectors in this package.
func (f *Frame) Mat() gocv.Mat {
	return f.color
}

func (f *Frame) MeanColor(r image.Rectangle) (vision.RGB, bool) {
	r = r.Intersect(f.Bounds())
	if r.Empty() {
		return vision.RGB{}, false
	}
	region := f.color.Region(r)
	defer region.Close()

	mean := region.Mean()
	return vision.RGB{R: clamp8(mean.Val3), G: clamp8(mean.Val2), B: clamp8(mean.Val1)}, true
}

// ColorClusters runs k-means over a downsampled copy of the region.
func (f *Frame) ColorClusters(r image.Rectangle, k int) []vision.ColorCluster {
	r = r.Intersect(f.Bounds())
	if r.Empty() || k <= 0 {
		return nil
	}
	region := f.color.Region(r)
	defer region.Close()

	small := gocv.NewMat()
	defer small.Close()
	size := image.Pt(minInt(r.Dx(), 64), minInt(r.Dy(), 64))
	gocv.Resize(region, &small, size, 0, 0, gocv.InterpolationArea)

	n := small.Rows() * small.Cols()
	if n < k {
		return nil
	}
	samples := small.Reshape(1, n)
	defer samples.Close()
	data := gocv.NewMat()
	defer data.Close()
	samples.ConvertTo(&data, gocv.MatTypeCV32F)

	labels := gocv.NewMat()
	defer labels.Close()
	centers := gocv.NewMat()
	defer centers.Close()
	criteria := gocv.NewTermCriteria(gocv.Count|gocv.EPS, 10, 1.0)
	gocv.KMeans(data, k, &labels, criteria, 3, gocv.KMeansPPCenters, &centers)

	counts := make([]int, k)
	for i := 0; i < labels.Rows(); i++ {
		if l := int(labels.GetIntAt(i, 0)); l >= 0 && l < k {
			counts[l]++
		}
	}

	clusters := make([]vision.ColorCluster, 0, k)
	for c := 0; c < centers.Rows() && c < k; c++ {
		clusters = append(clusters, vision.ColorCluster{
			Color: vision.RGB{
				R: clamp8(float64(centers.GetFloatAt(c, 2))),
				G: clamp8(float64(centers.GetFloatAt(c, 1))),
				B: clamp8(float64(centers.GetFloatAt(c, 0))),
			},
			Share: float64(counts[c]) / float64(n),
		})
	}
	return clusters
}

func (f *Frame) LineSegments(r image.Rectangle) []vision.Segment {
	r = r.Intersect(f.Bounds())
	if r.Empty() {
		return nil
	}
	region := f.gray.Region(r)
	defer region.Close()

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(region, &edges, vision.CannyLow, vision.CannyHigh)

	lines := gocv.NewMat()
	defer lines.Close()
	gocv.HoughLinesPWithParams(edges, &lines, 1, math.Pi/180, vision.HoughThreshold,
		vision.HoughMinLineLength, vision.HoughMaxLineGap)

	segments := make([]vision.Segment, 0, lines.Rows())
	for i := 0; i < lines.Rows(); i++ {
		v := lines.GetVeciAt(i, 0)
		if len(v) < 4 {
			continue
		}
		segments = append(segments, vision.Segment{
			X1: float64(v[0]), Y1: float64(v[1]),
			X2: float64(v[2]), Y2: float64(v[3]),
		})
	}
	return segments
}

func (f *Frame) Contours(r image.Rectangle, mode vision.ContourMode) []vision.Blob {
	r = r.Intersect(f.Bounds())
	if r.Empty() {
		return nil
	}
	region := f.gray.Region(r)
	defer region.Close()

	binary := gocv.NewMat()
	defer binary.Close()
	switch mode {
	case vision.EdgeContours:
		gocv.Canny(region, &binary, vision.CannyLow, vision.CannyHigh)
	case vision.AdaptiveContours:
		gocv.AdaptiveThreshold(region, &binary, 255, gocv.AdaptiveThresholdGaussian,
			gocv.ThresholdBinaryInv, vision.AdaptiveBlockSize, vision.AdaptiveC)
		morphology(&binary)
	case vision.DarkContours:
		gocv.Threshold(region, &binary, vision.DarkPixelThreshold, 255, gocv.ThresholdBinaryInv)
		morphology(&binary)
	}

	contours := gocv.FindContours(binary, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	blobs := make([]vision.Blob, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		c := contours.At(i)
		rect := gocv.BoundingRect(c)
		mean, std := f.meanStdDev(rect.Add(r.Min))
		blobs = append(blobs, vision.Blob{
			Rect:      rect,
			Area:      gocv.ContourArea(c),
			Perimeter: gocv.ArcLength(c, true),
			Mean:      mean,
			StdDev:    std,
		})
	}
	return blobs
}

func morphology(m *gocv.Mat) {
	kernel := gocv.GetStructuringElement(gocv.MorphRect, image.Pt(vision.MorphKernelSize, vision.MorphKernelSize))
	defer kernel.Close()
	gocv.MorphologyEx(*m, m, gocv.MorphOpen, kernel)
	gocv.MorphologyEx(*m, m, gocv.MorphClose, kernel)
}

func (f *Frame) meanStdDev(r image.Rectangle) (float64, float64) {
	r = r.Intersect(f.Bounds())
	if r.Empty() {
		return 0, 0
	}
	region := f.gray.Region(r)
	defer region.Close()

	mean := gocv.NewMat()
	defer mean.Close()
	std := gocv.NewMat()
	defer std.Close()
	gocv.MeanStdDev(region, &mean, &std)
	return mean.GetDoubleAt(0, 0), std.GetDoubleAt(0, 0)
}

func (f *Frame) Close() error {
	if err := f.gray.Close(); err != nil {
		return err
	}
	return f.color.Close()
}

func clamp8(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(math.Round(v))
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
