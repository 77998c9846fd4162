package storage

import (
	"bufio"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"

	"github.com/Faultbox/terraforge/internal/logger"
	"github.com/Faultbox/terraforge/internal/render"
	"github.com/Faultbox/terraforge/internal/terrain/pixmap"
	"github.com/Faultbox/terraforge/pkg/math"
)

const fileVersion = 1

// Header is the uncompressed-readable first line of a terrain file.
type Header struct {
	Magic      string `json:"magic"`
	Version    int    `json:"version"`
	RegionSize int    `json:"region_size"`
	Regions    int    `json:"regions"`
}

const fileMagic = "terraforge"

type mapImageV1 struct {
	W, H   int32
	Format int32
	Pix    []float32
}

type terrainFileV1 struct {
	Header Header

	RegionSize int
	Offsets    [][2]int32

	Height  []mapImageV1
	Control []mapImageV1
	Color   []mapImageV1

	NoiseEnabled   bool
	NoiseScale     float32
	NoiseHeight    float32
	NoiseBlendNear float32
	NoiseBlendFar  float32
}

func encodeMap(p *pixmap.Pixmap) mapImageV1 {
	return mapImageV1{
		W:      int32(p.Width()),
		H:      int32(p.Height()),
		Format: int32(p.Format()),
		Pix:    p.RawPix(),
	}
}

func decodeMap(m mapImageV1, want MapType, regionSize int) (*pixmap.Pixmap, error) {
	if int(m.W) != regionSize || int(m.H) != regionSize {
		return nil, fmt.Errorf("%w: %s tile is %dx%d, want %d", ErrCorruptFile, want, m.W, m.H, regionSize)
	}
	if pixmap.Format(m.Format) != formatFor(want) {
		return nil, fmt.Errorf("%w: %s tile has format %d", ErrCorruptFile, want, m.Format)
	}
	p := pixmap.FromRaw(int(m.W), int(m.H), pixmap.Format(m.Format), m.Pix)
	if p == nil {
		return nil, fmt.Errorf("%w: %s tile pixel data truncated", ErrCorruptFile, want)
	}
	return p, nil
}

// Save writes the storage's persistent state (region offsets plus the
// three tile lists, bit-identical pixels) as a zstd-compressed container:
// one JSON header line followed by a gob body.
func (s *Storage) Save(path string) error {
	logger.Info("saving terrain", zap.String("path", path), zap.Int("regions", len(s.offsets)))

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return err
	}

	bw := bufio.NewWriterSize(enc, 256*1024)

	tf := terrainFileV1{
		Header: Header{
			Magic:      fileMagic,
			Version:    fileVersion,
			RegionSize: s.regionSize,
			Regions:    len(s.offsets),
		},
		RegionSize:     s.regionSize,
		Offsets:        make([][2]int32, len(s.offsets)),
		Height:         make([]mapImageV1, len(s.heightMaps)),
		Control:        make([]mapImageV1, len(s.controlMaps)),
		Color:          make([]mapImageV1, len(s.colorMaps)),
		NoiseEnabled:   s.noiseEnabled,
		NoiseScale:     s.noiseScale,
		NoiseHeight:    s.noiseHeight,
		NoiseBlendNear: s.noiseBlendNear,
		NoiseBlendFar:  s.noiseBlendFar,
	}
	for i, o := range s.offsets {
		tf.Offsets[i] = [2]int32{int32(o.X), int32(o.Y)}
	}
	for i, m := range s.heightMaps {
		tf.Height[i] = encodeMap(m)
	}
	for i, m := range s.controlMaps {
		tf.Control[i] = encodeMap(m)
	}
	for i, m := range s.colorMaps {
		tf.Color[i] = encodeMap(m)
	}

	hb, _ := json.Marshal(tf.Header)
	if _, err := bw.Write(hb); err != nil {
		enc.Close()
		return err
	}
	if err := bw.WriteByte('\n'); err != nil {
		enc.Close()
		return err
	}

	if err := gob.NewEncoder(bw).Encode(&tf); err != nil {
		enc.Close()
		return fmt.Errorf("gob encode: %w", err)
	}

	// Flush and close explicitly: a short write anywhere in the buffered
	// or compressed chain must surface as a Save error.
	if err := bw.Flush(); err != nil {
		enc.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	return f.Close()
}

// Load reads a terrain file into a fresh Storage on the given backend.
func Load(path string, backend render.Backend) (*Storage, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	br := bufio.NewReaderSize(dec, 256*1024)

	headerLine, err := br.ReadBytes('\n')
	if err != nil {
		return nil, fmt.Errorf("%w: missing header", ErrCorruptFile)
	}
	var header Header
	if err := json.Unmarshal(headerLine, &header); err != nil {
		return nil, fmt.Errorf("%w: bad header: %v", ErrCorruptFile, err)
	}
	if header.Magic != fileMagic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrCorruptFile, header.Magic)
	}
	if header.Version != fileVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorruptFile, header.Version)
	}

	var tf terrainFileV1
	if err := gob.NewDecoder(br).Decode(&tf); err != nil {
		return nil, fmt.Errorf("gob decode: %w", err)
	}

	n := len(tf.Offsets)
	if len(tf.Height) != n || len(tf.Control) != n || len(tf.Color) != n {
		return nil, fmt.Errorf("%w: list lengths differ (offsets %d, height %d, control %d, color %d)",
			ErrCorruptFile, n, len(tf.Height), len(tf.Control), len(tf.Color))
	}
	if n > MaxRegions {
		return nil, fmt.Errorf("%w: %d regions exceeds the directory limit", ErrCorruptFile, n)
	}

	s, err := New(backend, tf.RegionSize)
	if err != nil {
		return nil, err
	}

	s.offsets = make([]math.Vec2i, n)
	s.heightMaps = make([]*pixmap.Pixmap, n)
	s.controlMaps = make([]*pixmap.Pixmap, n)
	s.colorMaps = make([]*pixmap.Pixmap, n)
	seen := make(map[math.Vec2i]struct{}, n)
	for i := 0; i < n; i++ {
		ofs := math.Vec2i{X: int(tf.Offsets[i][0]), Y: int(tf.Offsets[i][1])}
		if !offsetInBounds(ofs) {
			return nil, fmt.Errorf("%w: offset (%d,%d) out of range", ErrCorruptFile, ofs.X, ofs.Y)
		}
		if _, dup := seen[ofs]; dup {
			return nil, fmt.Errorf("%w: duplicate region offset (%d,%d)", ErrCorruptFile, ofs.X, ofs.Y)
		}
		seen[ofs] = struct{}{}
		s.offsets[i] = ofs
		if s.heightMaps[i], err = decodeMap(tf.Height[i], MapHeight, tf.RegionSize); err != nil {
			return nil, err
		}
		if s.controlMaps[i], err = decodeMap(tf.Control[i], MapControl, tf.RegionSize); err != nil {
			return nil, err
		}
		if s.colorMaps[i], err = decodeMap(tf.Color[i], MapColor, tf.RegionSize); err != nil {
			return nil, err
		}
	}

	s.SetNoiseScale(tf.NoiseScale)
	s.SetNoiseHeight(tf.NoiseHeight)
	s.SetNoiseBlendNear(tf.NoiseBlendNear)
	s.SetNoiseBlendFar(tf.NoiseBlendFar)
	s.SetNoiseEnabled(tf.NoiseEnabled)

	s.ForceUpdateMaps(MapAll)

	logger.Info("loaded terrain",
		zap.String("path", path),
		zap.Int("region_size", s.regionSize),
		zap.Int("regions", n))
	return s, nil
}
