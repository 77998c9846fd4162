package storage

import (
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/terraforge/internal/logger"
	"github.com/Faultbox/terraforge/internal/terrain/pixmap"
)

// SurfaceCount returns the number of configured surfaces.
func (s *Storage) SurfaceCount() int { return len(s.surfaces) }

// Surfaces returns the surface list (shared, not copied).
func (s *Storage) Surfaces() []*Surface { return s.surfaces }

// SurfacesEnabled reports whether the generated material samples surface
// textures. Derived: true iff the last rebuild produced a non-empty albedo
// array.
func (s *Storage) SurfacesEnabled() bool { return s.surfacesEnabled }

// SetSurface sets or appends the surface at index. A nil surface removes
// the entry at index.
func (s *Storage) SetSurface(index int, surf *Surface) error {
	logger.Info("setting surface", zap.Int("index", index))
	switch {
	case index < 0:
		return fmt.Errorf("%w: surface %d", ErrMapIndex, index)
	case index < len(s.surfaces):
		if surf == nil {
			s.surfaces = append(s.surfaces[:index], s.surfaces[index+1:]...)
		} else {
			s.surfaces[index] = surf
		}
	default:
		if surf == nil {
			return fmt.Errorf("%w: surface %d", ErrMapIndex, index)
		}
		s.surfaces = append(s.surfaces, surf)
	}
	return s.updateSurfaces()
}

// SetSurfaces replaces the whole surface list.
func (s *Storage) SetSurfaces(surfaces []*Surface) error {
	logger.Info("setting surfaces", zap.Int("count", len(surfaces)))
	s.surfaces = surfaces
	return s.updateSurfaces()
}

// UpdateSurfaceTextures rebuilds the albedo/normal texture arrays after a
// surface's texture images changed.
func (s *Storage) UpdateSurfaceTextures() error {
	s.genAlbedo.Clear(s.backend)
	s.genNormal.Clear(s.backend)
	return s.updateSurfaceData(true, false)
}

// UpdateSurfaceValues refreshes the per-surface uniform arrays after a
// surface's uv scale or tint changed.
func (s *Storage) UpdateSurfaceValues() error {
	return s.updateSurfaceData(false, true)
}

func (s *Storage) updateSurfaces() error {
	logger.Info("regenerating material surfaces")
	s.genAlbedo.Clear(s.backend)
	s.genNormal.Clear(s.backend)
	return s.updateSurfaceData(true, true)
}

// updateSurfaceData rebuilds texture arrays and/or value arrays from the
// surface list. On a validation error the offending update is skipped and
// prior state is retained.
func (s *Storage) updateSurfaceData(updateTextures, updateValues bool) error {
	if updateTextures {
		albedoW, albedoH, normalW, normalH, err := s.surfaceTextureSizes()
		if err != nil {
			logger.Error("surface textures rejected", zap.Error(err))
			return err
		}

		if normalW == 0 {
			normalW, normalH = albedoW, albedoH
		} else if albedoW == 0 {
			albedoW, albedoH = normalW, normalH
		}

		wasEnabled := s.surfacesEnabled
		s.surfacesEnabled = false

		if s.genAlbedo.Dirty() && albedoW != 0 {
			logger.Debug("regenerating albedo array", zap.Int("surfaces", len(s.surfaces)))
			layers := make([]*pixmap.Pixmap, 0, len(s.surfaces))
			for _, surf := range s.surfaces {
				if surf == nil {
					continue
				}
				img := surf.Albedo
				if img == nil {
					img = pixmap.New(albedoW, albedoH, pixmap.FormatRGBA8)
					img.Fill(pixmap.Color{R: 1, B: 1, A: 1})
				}
				layers = append(layers, img)
			}
			if len(layers) > 0 {
				if err := s.genAlbedo.Create(s.backend, layers); err != nil {
					logger.Error("albedo array rebuild failed", zap.Error(err))
				} else {
					s.surfacesEnabled = true
				}
			}
		} else if !s.genAlbedo.Dirty() {
			// Arrays are current from an earlier rebuild.
			s.surfacesEnabled = true
		}

		if s.genNormal.Dirty() && normalW != 0 {
			logger.Debug("regenerating normal array", zap.Int("surfaces", len(s.surfaces)))
			layers := make([]*pixmap.Pixmap, 0, len(s.surfaces))
			for _, surf := range s.surfaces {
				if surf == nil {
					continue
				}
				img := surf.Normal
				if img == nil {
					img = pixmap.New(normalW, normalH, pixmap.FormatRGBA8)
					img.Fill(pixmap.Color{R: 0.5, G: 0.5, B: 1, A: 1})
				}
				layers = append(layers, img)
			}
			if len(layers) > 0 {
				if err := s.genNormal.Create(s.backend, layers); err != nil {
					logger.Error("normal array rebuild failed", zap.Error(err))
				}
			}
		}

		if wasEnabled != s.surfacesEnabled {
			s.updateMaterial()
		}

		s.material.SetParam("texture_array_albedo", s.genAlbedo.Texture())
		s.material.SetParam("texture_array_normal", s.genNormal.Texture())
	}

	if updateValues {
		logger.Debug("updating surface value arrays")
		uvScales := make([][3]float32, 0, len(s.surfaces))
		tints := make([]pixmap.Color, 0, len(s.surfaces))
		for _, surf := range s.surfaces {
			if surf == nil {
				continue
			}
			uvScales = append(uvScales, [3]float32{surf.UVScale.X, surf.UVScale.Y, surf.UVScale.Z})
			tints = append(tints, surf.Tint)
		}
		s.material.SetParam("texture_uv_scale_array", uvScales)
		s.material.SetParam("texture_color_array", tints)
	}

	return nil
}

// surfaceTextureSizes validates that every provided albedo texture shares
// one size and every normal texture shares one size. Both violations are
// reported together.
func (s *Storage) surfaceTextureSizes() (albedoW, albedoH, normalW, normalH int, err error) {
	var errs error
	for _, surf := range s.surfaces {
		if surf == nil {
			continue
		}
		if surf.Albedo != nil {
			w, h := surf.Albedo.Width(), surf.Albedo.Height()
			if albedoW == 0 {
				albedoW, albedoH = w, h
			} else if w != albedoW || h != albedoH {
				errs = multierr.Append(errs, fmt.Errorf("%w: albedo %q %dx%d, want %dx%d",
					ErrTextureSize, surf.Name, w, h, albedoW, albedoH))
			}
		}
		if surf.Normal != nil {
			w, h := surf.Normal.Width(), surf.Normal.Height()
			if normalW == 0 {
				normalW, normalH = w, h
			} else if w != normalW || h != normalH {
				errs = multierr.Append(errs, fmt.Errorf("%w: normal %q %dx%d, want %dx%d",
					ErrTextureSize, surf.Name, w, h, normalW, normalH))
			}
		}
	}
	if errs != nil {
		return 0, 0, 0, 0, errs
	}
	return albedoW, albedoH, normalW, normalH, nil
}

// SetShaderOverride installs replacement shader source text.
func (s *Storage) SetShaderOverride(code string) {
	logger.Info("setting shader override")
	s.shaderOverride = code
	s.updateMaterial()
}

// ShaderOverride returns the installed override source, if any.
func (s *Storage) ShaderOverride() string { return s.shaderOverride }

// EnableShaderOverride toggles the override. Enabling with no override
// installed snapshots the currently generated code as the override.
func (s *Storage) EnableShaderOverride(enabled bool) {
	logger.Info("enable shader override", zap.Bool("enabled", enabled))
	s.shaderOverrideEnabled = enabled
	if enabled && s.shaderOverride == "" {
		s.SetShaderOverride(s.GenerateShaderCode())
		return
	}
	s.updateMaterial()
}

// ShaderOverrideEnabled reports whether the override is active.
func (s *Storage) ShaderOverrideEnabled() bool { return s.shaderOverrideEnabled }

// GenerateShaderCode returns the shader source for the current feature
// flags. Pure with respect to storage state; same flags, same text.
func (s *Storage) GenerateShaderCode() string {
	return GenerateShaderCode(ShaderParams{
		SurfacesEnabled: s.surfacesEnabled,
		NoiseEnabled:    s.noiseEnabled,
	})
}

// updateMaterial pushes the shader source and scalar uniforms. Called on
// any change that can alter the generated text or global scalars.
func (s *Storage) updateMaterial() {
	logger.Debug("updating material",
		zap.Bool("surfaces", s.surfacesEnabled),
		zap.Bool("noise", s.noiseEnabled),
		zap.Bool("override", s.shaderOverrideEnabled))

	if s.shaderOverrideEnabled && s.shaderOverride != "" {
		s.material.SetShaderCode(s.shaderOverride)
	} else {
		s.material.SetShaderCode(s.GenerateShaderCode())
	}

	s.material.SetParam("terrain_height", float32(MaxHeight))
	s.material.SetParam("region_size", float32(s.regionSize))
	s.material.SetParam("region_pixel_size", 1.0/float32(s.regionSize))
}
