package scene

// Cylinder describes the stamped cylinder's geometry and material for one
// sample. Dimensions are in scene units; color channels are in [0,1].
type Cylinder struct {
	SizeName  string
	Height    float64
	Radius    float64
	PaintR    float64
	PaintG    float64
	PaintB    float64
	Roughness float64
	Metallic  float64
}

// Camera describes the randomized viewpoint. Angles are in degrees.
type Camera struct {
	Distance    float64
	Elevation   float64
	Azimuth     float64
	FocalLength float64
}

// Lights holds the three-point light rig intensities (pre-normalization).
type Lights struct {
	Key  float64
	Fill float64
	Rim  float64
}

// Scene is the explicit per-sample scene handle: every randomized parameter
// the renderer needs, resolved up front. A fresh Scene is composed for each
// sample so no state carries over between renders.
type Scene struct {
	Text    string
	Variant string

	Cylinder Cylinder
	Camera   Camera
	Lights   Lights

	FontPath string
	// TextSize is relative to the cylinder height.
	TextSize float64
	// TextHeightFrac is the vertical placement of the text band as a
	// fraction of the cylinder height, kept within the middle band.
	TextHeightFrac float64
	// DebossDepth is the stamping depth in scene units.
	DebossDepth float64

	// DecalPath is the SVG decal to composite, empty for none.
	DecalPath string

	// BackgroundTone is the ambient background brightness in [0,1].
	BackgroundTone float64
}
