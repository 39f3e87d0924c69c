// internal/vision/opencv/annotate.go
package opencv

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/smartotem/totem-backend/internal/vision"
)

var (
	faceColor  = color.RGBA{R: 0, G: 255, B: 0, A: 0}
	torsoColor = color.RGBA{R: 255, G: 128, B: 0, A: 0}
	poseColor  = color.RGBA{R: 0, G: 160, B: 255, A: 0}
	textColor  = color.RGBA{R: 255, G: 255, B: 255, A: 0}
)

// Annotate draws the overlay on a copy of the frame and returns it as JPEG.
func (f *Frame) Annotate(o vision.Overlay) ([]byte, error) {
	img := f.color.Clone()
	defer img.Close()
	bounds := f.Bounds()

	for _, face := range o.Faces {
		gocv.Rectangle(&img, face.Pixels(bounds), faceColor, 2)
	}
	if !o.Torso.Empty() {
		gocv.Rectangle(&img, o.Torso, torsoColor, 2)
	}
	if o.Pose != nil {
		for _, p := range []vision.Point{
			o.Pose.LeftShoulder, o.Pose.RightShoulder, o.Pose.LeftElbow, o.Pose.RightElbow,
			o.Pose.LeftHip, o.Pose.RightHip, o.Pose.LeftWrist, o.Pose.RightWrist,
		} {
			pt := image.Pt(int(p.X*float64(bounds.Dx())), int(p.Y*float64(bounds.Dy())))
			gocv.Circle(&img, pt, 4, poseColor, -1)
		}
	}
	for i, line := range o.Caption {
		gocv.PutText(&img, line, image.Pt(10, 20+i*18), gocv.FontHersheySimplex, 0.5, textColor, 1)
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, img)
	if err != nil {
		return nil, err
	}
	defer buf.Close()

	out := make([]byte, buf.Len())
	copy(out, buf.GetBytes())
	return out, nil
}
