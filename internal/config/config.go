// Package config handles tool configuration loading and management.
package config

// Config holds all tool settings.
type Config struct {
	Window  WindowConfig  `yaml:"window"`
	Terrain TerrainConfig `yaml:"terrain"`
	Brush   BrushConfig   `yaml:"brush"`
	Noise   NoiseConfig   `yaml:"noise"`
	Logging LoggingConfig `yaml:"logging"`
}

// WindowConfig holds display settings for the sculpt tool.
type WindowConfig struct {
	Width      int  `yaml:"width"`
	Height     int  `yaml:"height"`
	Fullscreen bool `yaml:"fullscreen"`
	VSync      bool `yaml:"vsync"`
}

// TerrainConfig holds terrain storage settings.
type TerrainConfig struct {
	RegionSize int    `yaml:"region_size"`
	File       string `yaml:"file"` // Path of the terrain file to open and save
}

// BrushConfig holds the startup brush parameters.
type BrushConfig struct {
	Size        int     `yaml:"size"`
	Opacity     float32 `yaml:"opacity"`
	Gamma       float32 `yaml:"gamma"`
	Height      float32 `yaml:"height"`
	Jitter      float32 `yaml:"jitter"`
	AlignToView bool    `yaml:"align_to_view"`
	AutoRegions bool    `yaml:"auto_regions"`
}

// NoiseConfig holds the procedural background noise settings.
type NoiseConfig struct {
	Enabled   bool    `yaml:"enabled"`
	Scale     float32 `yaml:"scale"`
	Height    float32 `yaml:"height"`
	BlendNear float32 `yaml:"blend_near"`
	BlendFar  float32 `yaml:"blend_far"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Window: WindowConfig{
			Width:      1280,
			Height:     720,
			Fullscreen: false,
			VSync:      true,
		},
		Terrain: TerrainConfig{
			RegionSize: 1024,
			File:       "terrain.tfd",
		},
		Brush: BrushConfig{
			Size:        64,
			Opacity:     1.0,
			Gamma:       1.0,
			Height:      10.0,
			Jitter:      0.0,
			AlignToView: false,
			AutoRegions: true,
		},
		Noise: NoiseConfig{
			Enabled:   false,
			Scale:     2.0,
			Height:    1.0,
			BlendNear: 0.5,
			BlendFar:  1.0,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
