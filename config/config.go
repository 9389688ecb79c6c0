// Package config provides configuration loading and access for the point field.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"

	colorful "github.com/lucasb-eyer/go-colorful"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds all configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Field     FieldConfig     `yaml:"field"`
	Pointer   PointerConfig   `yaml:"pointer"`
	Physics   PhysicsConfig   `yaml:"physics"`
	Camera    CameraConfig    `yaml:"camera"`
	Scene     SceneConfig     `yaml:"scene"`
	Parallel  ParallelConfig  `yaml:"parallel"`
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// FieldConfig holds particle field construction parameters.
type FieldConfig struct {
	Count          int      `yaml:"count"`
	InfluenceRatio float64  `yaml:"influence_ratio"` // Fraction of particles that react to the pointer
	Range          float64  `yaml:"range"`           // Pointer influence radius in world units
	Size           float64  `yaml:"size"`            // Rendered point size in world units
	Opacity        float64  `yaml:"opacity"`
	Colors         []string `yaml:"colors"` // Hex palette, picked uniformly per particle
}

// PointerConfig holds pointer smoothing parameters.
type PointerConfig struct {
	Smoothing float64 `yaml:"smoothing"` // Low-pass factor applied once per frame
	Sentinel  float64 `yaml:"sentinel"`  // Initial NDC coordinate on both axes (off screen)
	MissPoint float64 `yaml:"miss_point"` // World coordinate used when the ray misses the plane
}

// PhysicsConfig holds per-frame force coefficients.
type PhysicsConfig struct {
	Repulsion float64 `yaml:"repulsion"` // Scale of the raw offset vector inside the range
	Restore   float64 `yaml:"restore"`   // Spring coefficient toward rest position
	Friction  float64 `yaml:"friction"`  // Velocity multiplier per frame
	Kernel    string  `yaml:"kernel"`    // "scalar" or "blas"
}

// CameraConfig holds the perspective camera and tracking plane.
type CameraConfig struct {
	FovY      float64 `yaml:"fov_y"` // Degrees
	Distance  float64 `yaml:"distance"`
	Near      float64 `yaml:"near"`
	Far       float64 `yaml:"far"`
	PlaneSize float64 `yaml:"plane_size"` // Edge length of the square tracking plane
}

// SceneConfig holds presentation transform parameters.
type SceneConfig struct {
	DriftRate float64 `yaml:"drift_rate"` // Radians per frame about the vertical axis
}

// ParallelConfig holds integrator worker pool settings.
type ParallelConfig struct {
	Workers   int `yaml:"workers"`   // 0 = GOMAXPROCS
	Threshold int `yaml:"threshold"` // Below this particle count the step runs single-threaded
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"` // Seconds of frames per stats window
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
}

// RGB is a palette entry with components in [0,1].
type RGB struct {
	R, G, B float32
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Palette     []RGB   // Parsed Field.Colors
	Range32     float32 // Field.Range as float32
	Aspect      float32 // Screen.Width / Screen.Height
	StatsFrames int     // Telemetry.StatsWindow in frames at Screen.TargetFPS
}

// Extent of the region rest positions are drawn from: the wide box plus the
// center sphere. The pointer miss point must stay clear of it.
const (
	RestExtentX = 7.5
	RestExtentY = 5.0
	RestExtentZ = 5.0
)

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Default returns a fresh copy of the embedded defaults.
func Default() *Config {
	cfg, err := Parse(nil)
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults are invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	var data []byte
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}
	return Parse(data)
}

// Parse merges the given YAML document over the embedded defaults, validates
// the result and computes derived values.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if len(data) > 0 {
		// Unmarshal into same struct - only overwrites fields present in data
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Prepare(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Prepare validates the config and recomputes derived values. Call it again
// after changing fields on a loaded config.
func (c *Config) Prepare() error {
	if err := c.Validate(); err != nil {
		return err
	}
	return c.computeDerived()
}

// Validate reports the first configuration error. The frame loop must not start
// with a config that fails here.
func (c *Config) Validate() error {
	switch {
	case c.Field.Count <= 0:
		return fmt.Errorf("field.count must be > 0, got %d: %w", c.Field.Count, ErrInvalidConfig)
	case c.Field.InfluenceRatio < 0 || c.Field.InfluenceRatio > 1:
		return fmt.Errorf("field.influence_ratio must be in [0,1], got %g: %w", c.Field.InfluenceRatio, ErrInvalidConfig)
	case c.Field.Range <= 0:
		return fmt.Errorf("field.range must be > 0, got %g: %w", c.Field.Range, ErrInvalidConfig)
	case c.Field.Size <= 0:
		return fmt.Errorf("field.size must be > 0, got %g: %w", c.Field.Size, ErrInvalidConfig)
	case len(c.Field.Colors) == 0:
		return fmt.Errorf("field.colors must not be empty: %w", ErrInvalidConfig)
	case c.Pointer.Smoothing <= 0 || c.Pointer.Smoothing > 1:
		return fmt.Errorf("pointer.smoothing must be in (0,1], got %g: %w", c.Pointer.Smoothing, ErrInvalidConfig)
	case math.Abs(c.Pointer.Sentinel) <= 1:
		return fmt.Errorf("pointer.sentinel must be off screen (|v| > 1), got %g: %w", c.Pointer.Sentinel, ErrInvalidConfig)
	case missDistance(c.Pointer.MissPoint) <= c.Field.Range:
		return fmt.Errorf("pointer.miss_point %g is within range of the field: %w", c.Pointer.MissPoint, ErrInvalidConfig)
	case c.Physics.Repulsion < 0 || c.Physics.Restore < 0:
		return fmt.Errorf("physics.repulsion and physics.restore must be >= 0, got %g, %g: %w",
			c.Physics.Repulsion, c.Physics.Restore, ErrInvalidConfig)
	case c.Physics.Friction < 0 || c.Physics.Friction >= 1:
		return fmt.Errorf("physics.friction must be in [0,1), got %g: %w", c.Physics.Friction, ErrInvalidConfig)
	case c.Physics.Kernel != "scalar" && c.Physics.Kernel != "blas":
		return fmt.Errorf("physics.kernel must be scalar or blas, got %q: %w", c.Physics.Kernel, ErrInvalidConfig)
	case c.Screen.Width <= 0 || c.Screen.Height <= 0:
		return fmt.Errorf("screen size must be positive, got %dx%d: %w", c.Screen.Width, c.Screen.Height, ErrInvalidConfig)
	case c.Camera.FovY <= 0 || c.Camera.FovY >= 180:
		return fmt.Errorf("camera.fov_y must be in (0,180), got %g: %w", c.Camera.FovY, ErrInvalidConfig)
	case c.Camera.Near <= 0 || c.Camera.Far <= c.Camera.Near:
		return fmt.Errorf("camera clip range invalid (near %g, far %g): %w", c.Camera.Near, c.Camera.Far, ErrInvalidConfig)
	case c.Camera.PlaneSize <= 0:
		return fmt.Errorf("camera.plane_size must be > 0, got %g: %w", c.Camera.PlaneSize, ErrInvalidConfig)
	}
	return nil
}

// missDistance is the distance from the miss point (v,v,v) to the rest region.
func missDistance(v float64) float64 {
	dx := max(math.Abs(v)-RestExtentX, 0)
	dy := max(math.Abs(v)-RestExtentY, 0)
	dz := max(math.Abs(v)-RestExtentZ, 0)
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() error {
	c.Derived.Palette = make([]RGB, 0, len(c.Field.Colors))
	for _, hex := range c.Field.Colors {
		col, err := colorful.Hex(hex)
		if err != nil {
			return fmt.Errorf("field.colors entry %q: %v: %w", hex, err, ErrInvalidConfig)
		}
		c.Derived.Palette = append(c.Derived.Palette, RGB{
			R: float32(col.R),
			G: float32(col.G),
			B: float32(col.B),
		})
	}

	c.Derived.Range32 = float32(c.Field.Range)
	c.Derived.Aspect = float32(c.Screen.Width) / float32(c.Screen.Height)

	fps := c.Screen.TargetFPS
	if fps <= 0 {
		fps = 60
	}
	c.Derived.StatsFrames = int(c.Telemetry.StatsWindow * float64(fps))
	if c.Derived.StatsFrames < 1 {
		c.Derived.StatsFrames = 1
	}
	return nil
}

// YAML returns the configuration as a YAML document.
func (c *Config) YAML() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshaling config: %w", err)
	}
	return data, nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := c.YAML()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
