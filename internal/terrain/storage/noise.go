package storage

import (
	"go.uber.org/zap"

	"github.com/Faultbox/terraforge/internal/logger"
	"github.com/Faultbox/terraforge/pkg/math"
)

// SetNoiseEnabled toggles procedural noise outside painted regions. The
// region blend map only exists while noise is on, so the region caches
// are invalidated on enable.
func (s *Storage) SetNoiseEnabled(enabled bool) {
	logger.Info("enable noise", zap.Bool("enabled", enabled))
	s.noiseEnabled = enabled
	s.updateMaterial()
	if enabled {
		s.genRegionMap.Clear(s.backend)
		s.genRegionBlend.Clear(s.backend)
		s.updateRegions()
	}
}

// NoiseEnabled reports whether procedural noise is on.
func (s *Storage) NoiseEnabled() bool { return s.noiseEnabled }

// SetNoiseScale sets the noise frequency multiplier.
func (s *Storage) SetNoiseScale(scale float32) {
	s.noiseScale = math.Clamp(scale, 0, 10)
	s.material.SetParam("noise_scale", s.noiseScale)
}

// NoiseScale returns the noise frequency multiplier.
func (s *Storage) NoiseScale() float32 { return s.noiseScale }

// SetNoiseHeight sets the noise amplitude.
func (s *Storage) SetNoiseHeight(height float32) {
	s.noiseHeight = math.Clamp(height, 0, 10)
	s.material.SetParam("noise_height", s.noiseHeight)
}

// NoiseHeight returns the noise amplitude.
func (s *Storage) NoiseHeight() float32 { return s.noiseHeight }

// SetNoiseBlendNear sets the near edge of the noise fade band. The far
// edge is dragged along so near never exceeds far.
func (s *Storage) SetNoiseBlendNear(near float32) {
	s.noiseBlendNear = math.Clamp(near, 0, 1)
	if s.noiseBlendNear > s.noiseBlendFar {
		s.SetNoiseBlendFar(s.noiseBlendNear)
	}
	s.material.SetParam("noise_blend_near", s.noiseBlendNear)
}

// NoiseBlendNear returns the near edge of the noise fade band.
func (s *Storage) NoiseBlendNear() float32 { return s.noiseBlendNear }

// SetNoiseBlendFar sets the far edge of the noise fade band. The near
// edge is dragged along so far never drops below near.
func (s *Storage) SetNoiseBlendFar(far float32) {
	s.noiseBlendFar = math.Clamp(far, 0, 1)
	if s.noiseBlendFar < s.noiseBlendNear {
		s.SetNoiseBlendNear(s.noiseBlendFar)
	}
	s.material.SetParam("noise_blend_far", s.noiseBlendFar)
}

// NoiseBlendFar returns the far edge of the noise fade band.
func (s *Storage) NoiseBlendFar() float32 { return s.noiseBlendFar }
