package pixmap

import "testing"

func TestNewRejectsBadDimensions(t *testing.T) {
	if p := New(0, 4, FormatRF); p != nil {
		t.Error("expected nil for zero width")
	}
	if p := New(4, -1, FormatRF); p != nil {
		t.Error("expected nil for negative height")
	}
}

func TestSetGetQuantization(t *testing.T) {
	p := New(4, 4, FormatRGBA8)
	p.SetPixel(1, 2, Color{R: 0.5, G: 0.25, B: 1.0, A: 0.7})

	c := p.GetPixel(1, 2)
	// 8-bit formats snap to n/255 steps
	if c.R != 128.0/255 {
		t.Errorf("R = %f, want %f", c.R, 128.0/255)
	}
	if c.B != 1.0 {
		t.Errorf("B = %f, want 1", c.B)
	}

	// Writing again with the read-back value must be stable
	p.SetPixel(1, 2, c)
	if got := p.GetPixel(1, 2); got != c {
		t.Errorf("quantization not idempotent: %v != %v", got, c)
	}
}

func TestFloatFormatKeepsPrecision(t *testing.T) {
	p := New(2, 2, FormatRF)
	v := float32(0.123456789)
	p.SetPixel(0, 0, Color{R: v})
	if got := p.GetPixel(0, 0).R; got != v {
		t.Errorf("RF channel = %v, want exact %v", got, v)
	}
	// Absent channels are forced to defaults
	if got := p.GetPixel(0, 0).A; got != 1 {
		t.Errorf("RF alpha = %v, want 1", got)
	}
}

func TestHalfFormatQuantizes(t *testing.T) {
	p := New(1, 1, FormatRH)
	p.SetPixel(0, 0, Color{R: 0.1})
	got := p.GetPixel(0, 0).R
	if got == 0.1 {
		t.Error("expected half-precision rounding of 0.1")
	}
	if got < 0.0999 || got > 0.1001 {
		t.Errorf("half-rounded 0.1 = %v, outside tolerance", got)
	}

	// Exactly representable values pass through
	for _, v := range []float32{0, 0.25, 0.5, 1} {
		p.SetPixel(0, 0, Color{R: v})
		if got := p.GetPixel(0, 0).R; got != v {
			t.Errorf("half round of %v = %v", v, got)
		}
	}
}

func TestOutOfBoundsAccess(t *testing.T) {
	p := New(2, 2, FormatRF)
	p.Fill(Color{R: 0.5})

	if got := p.GetPixel(-1, 0); got != (Color{}) {
		t.Errorf("OOB read = %v, want zero", got)
	}
	p.SetPixel(2, 0, Color{R: 1}) // must not panic or corrupt
	if got := p.GetPixel(1, 0).R; got != 0.5 {
		t.Errorf("in-bounds pixel changed by OOB write: %v", got)
	}
}

func TestFillAndClone(t *testing.T) {
	p := New(3, 3, FormatRGB8)
	p.Fill(Color{R: 1, G: 0, B: 0, A: 0.5})

	c := p.GetPixel(2, 2)
	if c.R != 1 || c.A != 1 {
		t.Errorf("fill = %v, want R=1 A=1 (RGB8 has no alpha)", c)
	}

	cl := p.Clone()
	if !cl.Equal(p) {
		t.Error("clone not equal to source")
	}
	cl.SetPixel(0, 0, Color{G: 1})
	if cl.Equal(p) {
		t.Error("mutating clone affected source")
	}
}

func TestResize(t *testing.T) {
	p := New(4, 4, FormatRH)
	p.Fill(Color{R: 1})

	up := p.Resize(8, 8, InterpCubic)
	if up.Width() != 8 || up.Height() != 8 {
		t.Fatalf("resize dims = %dx%d", up.Width(), up.Height())
	}
	if up.Format() != FormatRH {
		t.Errorf("resize changed format to %v", up.Format())
	}
	// Constant image stays constant under any kernel
	if got := up.GetPixel(3, 3).R; got < 0.999 {
		t.Errorf("resized constant image pixel = %v", got)
	}

	if p.Resize(0, 8, InterpNearest) != nil {
		t.Error("expected nil for zero target width")
	}
}

func TestRawExports(t *testing.T) {
	p := New(2, 1, FormatRF)
	p.SetPixel(0, 0, Color{R: 0.25})
	p.SetPixel(1, 0, Color{R: 0.75})

	r := p.RawR()
	if len(r) != 2 || r[0] != 0.25 || r[1] != 0.75 {
		t.Errorf("RawR = %v", r)
	}

	q := New(1, 1, FormatRGBA8)
	q.SetPixel(0, 0, Color{R: 1, G: 0.5, B: 0, A: 1})
	b := q.RGBA8Bytes()
	if len(b) != 4 || b[0] != 255 || b[1] != 128 || b[2] != 0 || b[3] != 255 {
		t.Errorf("RGBA8Bytes = %v", b)
	}
}

func TestFromRawRoundTrip(t *testing.T) {
	p := New(3, 2, FormatRGB8)
	p.SetPixel(1, 1, Color{R: 0.2, G: 0.4, B: 0.6})

	q := FromRaw(3, 2, FormatRGB8, p.RawPix())
	if !q.Equal(p) {
		t.Error("FromRaw(RawPix) not identical")
	}
	if FromRaw(3, 3, FormatRGB8, p.RawPix()) != nil {
		t.Error("expected nil for mismatched data length")
	}
}
