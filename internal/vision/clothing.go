// internal/vision/clothing.go
package vision

var vividColors = map[string]bool{
	"azul":     true,
	"rojo":     true,
	"verde":    true,
	"amarillo": true,
	"naranja":  true,
	"rosa":     true,
	"morado":   true,
}

func IsVivid(color string) bool {
	return vividColors[color]
}

// ClassifyClothing maps pose ratios and the torso color to (item, style).
// Rules are ordered and the first match wins.
func ClassifyClothing(f PoseFeatures, color string) (string, string) {
	switch {
	case f.ShoulderDistance > JacketMinShoulder && f.TorsoHeight > JacketMinTorso && f.ArmCoverage > JacketMinArm:
		if IsVivid(color) {
			return ItemJacket, StyleSport
		}
		return ItemJacket, StyleFormal
	case f.ShoulderDistance > HoodieMinShoulder && f.ArmCoverage > HoodieMinArm:
		return ItemHoodie, StyleSport
	case f.ArmCoverage > LongSleeveMinArm:
		return ItemLongTee, StyleCasual
	default:
		if IsVivid(color) {
			return ItemTShirt, StyleSport
		}
		return ItemTShirt, StyleCasual
	}
}

// AgeBracketFor estimates an age bracket from the face box size relative to the frame.
func AgeBracketFor(face Box) string {
	switch {
	case face.W > AgeMiddleMinFace && face.H > AgeMiddleMinFace:
		return AgeMiddle
	case face.W > AgeAdultMinFace && face.H > AgeAdultMinFace:
		return AgeAdult
	default:
		return AgeYoung
	}
}
