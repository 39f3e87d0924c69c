// internal/vision/thresholds.go
package vision

// Calibrated heuristic thresholds. Changing any of these changes labels that
// downstream merchandising keys off.

// Color overrides
const (
	WhiteMinChannel = 220
	BlackMaxChannel = 30
)

// Clothing rules
const (
	JacketMinShoulder = 0.35
	JacketMinTorso    = 0.50
	JacketMinArm      = 0.30
	HoodieMinShoulder = 0.25
	HoodieMinArm      = 0.20
	LongSleeveMinArm  = 0.19
)

// ColorClusterCount is k for the torso k-means that yields the secondary color.
const ColorClusterCount = 2

// Age brackets from the relative face box size
const (
	AgeMiddleMinFace = 0.15
	AgeAdultMinFace  = 0.12
)

// Glasses
const (
	EyeBandTop          = 0.20
	EyeBandBottom       = 0.55
	CannyLow            = 50
	CannyHigh           = 150
	HoughThreshold      = 20
	HoughMinLineLength  = 15
	HoughMaxLineGap     = 5
	GlassesMinSegments  = 5
	GlassesMinHoriz     = 3
	GlassesMaxAngleDeg  = 15.0
	GlassesMinSpan      = 0.30
	GlassesMinAvgLength = 25.0
)

// Cap and beanie
const (
	HeadBandHeight     = 0.20
	HeadBandLeft       = 0.20
	HeadBandRight      = 0.80
	HeadMinArea        = 5000.0
	HeadStrictMinArea  = 6000.0
	HeadMinFill        = 0.8
	HeadMaxCenterY     = 0.3
	HeadMinAspect      = 0.9
	HeadMaxAspect      = 1.8
	CapMinAspect       = 1.4
	CapMinWidth        = 0.5
	BeanieMaxAspect    = 1.4
	BeanieMinWidth     = 0.4
	AdaptiveBlockSize  = 11
	AdaptiveC          = 2
	MorphKernelSize    = 5
	DarkPixelThreshold = 100
)

// Watch
const (
	WristBandTop       = 0.60
	WristBandBottom    = 0.80
	WatchMinArea       = 100.0
	WatchMaxArea       = 3000.0
	WatchMinCircular   = 0.2
	WatchMinAspect     = 0.5
	WatchMaxAspect     = 2.0
	WatchCenterTolFrac = 1.0 / 3.0
)

// Bags
const (
	StrapBandTop        = 0.15
	StrapBandBottom     = 0.50
	StrapMinAspect      = 2.0
	StrapMinArea        = 150.0
	StrapMaxMean        = 90.0
	StrapLeftMaxX       = 0.45
	StrapRightMinX      = 0.55
	StrapMinSeparation  = 0.30
	StrapMaxAsymmetry   = 0.15
	TorsoBandTop        = 0.30
	TorsoBandBottom     = 0.70
	BackpackMinArea     = 10000.0
	BackpackMinX        = 0.3
	BackpackMaxX        = 0.7
	BackpackMinAspect   = 0.7
	BackpackMaxAspect   = 1.5
	BackpackMinFill     = 0.6
	BackpackMaxCenterY  = 0.5
	BackpackMinStdDev   = 30.0
	BackpackMaxMean     = 100.0
	CrossbagMinArea     = 15000.0
	CrossbagMaxLeftX    = 0.2
	CrossbagMinRightX   = 0.8
	CrossbagMinElongate = 2.5
	CrossbagMaxMean     = 80.0
	CrossbagMinStdDev   = 40.0
	PurseMinArea        = 500.0
	PurseMaxArea        = 5000.0
	PurseMinCenterY     = 0.7
	PurseMaxLeftX       = 0.15
	PurseMinRightX      = 0.85
	PurseMaxMean        = 90.0
)

// Pipeline defaults
const (
	DefaultMaxDimension      = 800
	DefaultMinFaceConfidence = 0.5
	DefaultMinPoseConfidence = 0.5
)
