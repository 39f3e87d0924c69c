// internal/vision/pipeline.go
package vision

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

type Config struct {
	Downscale         bool
	MaxDimension      int
	MinFaceConfidence float64
	MinPoseConfidence float64
}

func DefaultConfig() Config {
	return Config{
		Downscale:         true,
		MaxDimension:      DefaultMaxDimension,
		MinFaceConfidence: DefaultMinFaceConfidence,
		MinPoseConfidence: DefaultMinPoseConfidence,
	}
}

// Options are per-call knobs.
type Options struct {
	// Landmarks supplied by the kiosk take precedence over the pose detector.
	Landmarks *Landmarks
	Annotate  bool
}

type Analyzer struct {
	cfg         Config
	decoder     Decoder
	faces       FaceDetector
	pose        PoseDetector
	accessories AccessoryDetector
}

// NewAnalyzer wires the pipeline. faces and pose may be nil, in which case
// that stage reports nothing detected.
func NewAnalyzer(cfg Config, decoder Decoder, faces FaceDetector, pose PoseDetector) *Analyzer {
	if cfg.MaxDimension <= 0 {
		cfg.MaxDimension = DefaultMaxDimension
	}
	return &Analyzer{
		cfg:     cfg,
		decoder: decoder,
		faces:   faces,
		pose:    pose,
	}
}

var errCancelled = errors.New("analysis cancelled")

// Analyze never returns an error. A frame that cannot be processed yields
// ErrorProfile plus warnings describing why.
func (a *Analyzer) Analyze(ctx context.Context, data []byte, opts Options) (result Analysis) {
	defer func() {
		if r := recover(); r != nil {
			result = Analysis{Profile: ErrorProfile(), Warnings: result.Warnings}
			result.warn("pipeline", "panic", fmt.Errorf("%v", r))
		}
	}()

	if a.decoder == nil {
		result.Profile = ErrorProfile()
		result.warn("decode", "no_decoder", nil)
		return result
	}

	frame, err := a.decoder.Decode(data, DecodeOptions{Downscale: a.cfg.Downscale, MaxDimension: a.cfg.MaxDimension})
	if err != nil {
		result.Profile = ErrorProfile()
		result.warn("decode", "decode_failed", err)
		return result
	}
	defer frame.Close()

	profile := NewProfile()

	// Face
	if err := ctx.Err(); err != nil {
		return a.cancelled(result, err)
	}
	best := a.detectFace(ctx, frame, data, &result)
	if best != nil {
		profile.FaceDetected = true
		profile.DetectionConfidence = best.Confidence
		profile.AgeBracket = AgeBracketFor(*best)
	}

	// Pose
	if err := ctx.Err(); err != nil {
		return a.cancelled(result, err)
	}
	landmarks := a.detectPose(ctx, frame, data, opts, &result)
	var overlay Overlay
	if landmarks != nil {
		profile.PoseDetected = true
		if !profile.FaceDetected {
			profile.DetectionConfidence = landmarks.Confidence()
		}
		result.Pose = landmarks

		features := ExtractPoseFeatures(*landmarks)
		torso := TorsoRect(*landmarks, frame.Bounds())
		overlay.Torso = torso

		primary := Unknown
		if torso.Empty() {
			result.warn("clothing", "empty_torso_crop", nil)
		} else if c, ok := frame.MeanColor(torso); ok {
			primary = classifyRGB(c)
			profile.SecondaryColor = secondaryColor(frame.ColorClusters(torso, ColorClusterCount), primary)
		} else {
			result.warn("clothing", "torso_color_unavailable", nil)
		}
		profile.PrimaryColor = primary
		profile.ClothingItem, profile.ClothingStyle = ClassifyClothing(features, primary)
	}

	// Accessories
	if err := ctx.Err(); err != nil {
		return a.cancelled(result, err)
	}
	var w *Warning
	if profile.HeadAccessory, w = a.accessories.Head(frame, best, profile.FaceDetected); w != nil {
		result.Warnings = append(result.Warnings, *w)
	}
	if profile.Watch, w = a.accessories.Watch(frame, profile.PoseDetected); w != nil {
		result.Warnings = append(result.Warnings, *w)
	}
	if profile.Bag, w = a.accessories.Bag(frame, profile.PoseDetected); w != nil {
		result.Warnings = append(result.Warnings, *w)
	}

	profile.PersonDetected = profile.FaceDetected || profile.PoseDetected
	result.Profile = profile

	if opts.Annotate {
		overlay.Faces = result.Faces
		overlay.Pose = landmarks
		overlay.Caption = captionFor(profile)
		img, err := frame.Annotate(overlay)
		if err != nil {
			result.warn("annotate", "annotate_failed", err)
		} else {
			result.Annotated = img
		}
	}
	return result
}

func (a *Analyzer) cancelled(result Analysis, err error) Analysis {
	result.Profile = ErrorProfile()
	result.warn("pipeline", "cancelled", fmt.Errorf("%w: %v", errCancelled, err))
	return result
}

func (a *Analyzer) detectFace(ctx context.Context, frame Frame, data []byte, result *Analysis) *Box {
	if a.faces == nil {
		return nil
	}
	faces, err := a.faces.DetectFaces(ctx, frame, data)
	if err != nil {
		result.warn("face", "face_detector_failed", err)
		return nil
	}
	var kept []Box
	for _, f := range faces {
		if f.Confidence >= a.cfg.MinFaceConfidence {
			kept = append(kept, f)
		}
	}
	result.Faces = kept
	return BestFace(kept)
}

func (a *Analyzer) detectPose(ctx context.Context, frame Frame, data []byte, opts Options, result *Analysis) *Landmarks {
	landmarks := opts.Landmarks
	if landmarks == nil && a.pose != nil {
		var err error
		landmarks, err = a.pose.DetectPose(ctx, frame, data)
		if err != nil {
			result.warn("pose", "pose_detector_failed", err)
			return nil
		}
	}
	if landmarks == nil || landmarks.Confidence() < a.cfg.MinPoseConfidence {
		return nil
	}
	return landmarks
}

// BestFace picks the highest-confidence face.
func BestFace(faces []Box) *Box {
	if len(faces) == 0 {
		return nil
	}
	best := faces[0]
	for _, f := range faces[1:] {
		if f.Confidence > best.Confidence {
			best = f
		}
	}
	return &best
}

// secondaryColor names the largest color cluster that differs from primary.
func secondaryColor(clusters []ColorCluster, primary string) string {
	sort.SliceStable(clusters, func(i, j int) bool {
		return clusters[i].Share > clusters[j].Share
	})
	for _, c := range clusters {
		if name := classifyRGB(c.Color); name != primary {
			return name
		}
	}
	return Unknown
}

func captionFor(p Profile) []string {
	lines := []string{
		fmt.Sprintf("edad: %s", p.AgeBracket),
		fmt.Sprintf("prenda: %s (%s)", p.ClothingItem, p.ClothingStyle),
		fmt.Sprintf("color: %s / %s", p.PrimaryColor, p.SecondaryColor),
	}
	for _, a := range p.Accessories() {
		lines = append(lines, "accesorio: "+a)
	}
	return lines
}
