// internal/vision/types.go
package vision

import (
	"context"
	"image"
)

// Profile labels
const (
	Unknown = "unknown"
	Error   = "error"

	AgeYoung      = "18-25"
	AgeAdult      = "26-35"
	AgeMiddle     = "36-45"
	AgeMature     = "46-55"
	AgeSenior     = "55+"
	ItemTShirt    = "camiseta"
	ItemLongTee   = "camiseta_manga_larga"
	ItemHoodie    = "sudadera"
	ItemJacket    = "chaqueta"
	StyleCasual   = "casual"
	StyleSport    = "deportivo"
	StyleFormal   = "formal"
	LabelGlasses  = "gafas"
	LabelCap      = "gorra"
	LabelBeanie   = "gorro"
	LabelWatchL   = "reloj_izquierda"
	LabelWatchR   = "reloj_derecha"
	LabelBackpack = "mochila"
	LabelCrossbag = "bolso_cruzado"
	LabelPurse    = "cartera"
)

// Profile is the customer profile produced for one analyzed frame.
type Profile struct {
	PersonDetected      bool    `json:"person_detected"`
	FaceDetected        bool    `json:"face_detected"`
	PoseDetected        bool    `json:"pose_detected"`
	AgeBracket          string  `json:"age_bracket"`
	ClothingItem        string  `json:"clothing_item"`
	ClothingStyle       string  `json:"clothing_style"`
	PrimaryColor        string  `json:"primary_color"`
	SecondaryColor      string  `json:"secondary_color"`
	HeadAccessory       string  `json:"head_accessory,omitempty"`
	Watch               string  `json:"watch,omitempty"`
	Bag                 string  `json:"bag,omitempty"`
	DetectionConfidence float64 `json:"detection_confidence"`
}

func NewProfile() Profile {
	return Profile{
		AgeBracket:     Unknown,
		ClothingItem:   Unknown,
		ClothingStyle:  Unknown,
		PrimaryColor:   Unknown,
		SecondaryColor: Unknown,
	}
}

// ErrorProfile is returned when analysis could not run at all.
func ErrorProfile() Profile {
	return Profile{
		AgeBracket:     Error,
		ClothingItem:   Error,
		ClothingStyle:  Error,
		PrimaryColor:   Error,
		SecondaryColor: Error,
	}
}

func (p Profile) IsError() bool {
	return p.AgeBracket == Error
}

// Accessories returns every accessory label found on the profile.
func (p Profile) Accessories() []string {
	var out []string
	for _, v := range []string{p.HeadAccessory, p.Watch, p.Bag} {
		out = append(out, SplitLabels(v)...)
	}
	return out
}

// Warning is a non-fatal diagnostic. Detail is for logs only.
type Warning struct {
	Stage  string `json:"stage"`
	Code   string `json:"code"`
	Detail string `json:"-"`
}

type Analysis struct {
	Profile   Profile    `json:"profile"`
	Warnings  []Warning  `json:"warnings,omitempty"`
	Annotated []byte     `json:"-"`
	Faces     []Box      `json:"-"`
	Pose      *Landmarks `json:"-"`
}

func (a *Analysis) warn(stage, code string, err error) {
	w := Warning{Stage: stage, Code: code}
	if err != nil {
		w.Detail = err.Error()
	}
	a.Warnings = append(a.Warnings, w)
}

// Box is a bounding box normalized to [0,1] of the frame size.
type Box struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	W          float64 `json:"w"`
	H          float64 `json:"h"`
	Confidence float64 `json:"confidence"`
}

func (b Box) Pixels(bounds image.Rectangle) image.Rectangle {
	w, h := float64(bounds.Dx()), float64(bounds.Dy())
	r := image.Rect(
		bounds.Min.X+int(b.X*w),
		bounds.Min.Y+int(b.Y*h),
		bounds.Min.X+int((b.X+b.W)*w),
		bounds.Min.Y+int((b.Y+b.H)*h),
	)
	return r.Intersect(bounds)
}

// Point is a landmark position normalized to [0,1].
type Point struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Visibility float64 `json:"visibility"`
}

// Landmarks holds the body keypoints the heuristics use.
type Landmarks struct {
	LeftShoulder  Point `json:"left_shoulder"`
	RightShoulder Point `json:"right_shoulder"`
	LeftElbow     Point `json:"left_elbow"`
	RightElbow    Point `json:"right_elbow"`
	LeftHip       Point `json:"left_hip"`
	RightHip      Point `json:"right_hip"`
	LeftWrist     Point `json:"left_wrist"`
	RightWrist    Point `json:"right_wrist"`
}

// Confidence is the mean visibility of the shoulder, hip and elbow keypoints.
func (l Landmarks) Confidence() float64 {
	pts := []Point{l.LeftShoulder, l.RightShoulder, l.LeftElbow, l.RightElbow, l.LeftHip, l.RightHip}
	sum := 0.0
	for _, p := range pts {
		sum += p.Visibility
	}
	return sum / float64(len(pts))
}

type RGB struct {
	R, G, B uint8
}

type ColorCluster struct {
	Color RGB
	Share float64
}

// Segment is a detected line segment in crop pixel coordinates.
type Segment struct {
	X1, Y1, X2, Y2 float64
}

// Blob is a contour summarized by the features the accessory rules read.
// Rect is relative to the crop it was found in.
type Blob struct {
	Rect      image.Rectangle
	Area      float64
	Perimeter float64
	Mean      float64
	StdDev    float64
}

type ContourMode int

const (
	// EdgeContours runs Canny before contour extraction.
	EdgeContours ContourMode = iota
	// AdaptiveContours runs adaptive thresholding plus open/close morphology.
	AdaptiveContours
	// DarkContours keeps pixels darker than DarkPixelThreshold.
	DarkContours
)

// Overlay is what the annotator draws on a debug image.
type Overlay struct {
	Faces   []Box
	Pose    *Landmarks
	Torso   image.Rectangle
	Caption []string
}

// Frame is a decoded image the pipeline can query. Implementations own
// native memory and must be closed.
type Frame interface {
	Bounds() image.Rectangle
	MeanColor(r image.Rectangle) (RGB, bool)
	ColorClusters(r image.Rectangle, k int) []ColorCluster
	LineSegments(r image.Rectangle) []Segment
	Contours(r image.Rectangle, mode ContourMode) []Blob
	Annotate(o Overlay) ([]byte, error)
	Close() error
}

type DecodeOptions struct {
	Downscale    bool
	MaxDimension int
}

type Decoder interface {
	Decode(data []byte, opts DecodeOptions) (Frame, error)
}

type FaceDetector interface {
	DetectFaces(ctx context.Context, frame Frame, raw []byte) ([]Box, error)
}

// PoseDetector returns nil landmarks when no body is found.
type PoseDetector interface {
	DetectPose(ctx context.Context, frame Frame, raw []byte) (*Landmarks, error)
}
