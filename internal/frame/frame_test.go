package frame

import (
	"image"
	"testing"
)

func TestCloneIsDeep(t *testing.T) {
	f := New(4, 3, 4)
	f.Seq = 9
	f.Pix[0] = 0x42

	c := f.Clone()
	if c.Seq != 9 || c.Width != 4 || c.Height != 3 || c.Channels != 4 {
		t.Fatalf("clone lost metadata: %+v", c)
	}
	c.Pix[0] = 0xFF
	if f.Pix[0] != 0x42 {
		t.Fatal("clone shares the pixel buffer")
	}
}

func TestEmpty(t *testing.T) {
	var nilFrame *Frame
	if !nilFrame.Empty() {
		t.Fatal("nil frame should be empty")
	}
	if !(&Frame{}).Empty() {
		t.Fatal("zero frame should be empty")
	}
	if New(2, 2, 4).Empty() {
		t.Fatal("allocated frame should not be empty")
	}
}

func TestRGBASharesBuffer(t *testing.T) {
	f := New(3, 2, 4)
	img := f.RGBA()
	if img == nil {
		t.Fatal("RGBA returned nil for a 4-channel frame")
	}
	if img.Stride != 12 || img.Bounds() != image.Rect(0, 0, 3, 2) {
		t.Fatalf("unexpected geometry: stride=%d bounds=%v", img.Stride, img.Bounds())
	}
	img.Pix[0] = 0x7F
	if f.Pix[0] != 0x7F {
		t.Fatal("RGBA should share the frame's buffer")
	}

	if New(2, 2, 3).RGBA() != nil {
		t.Fatal("RGBA should reject non-4-channel frames")
	}
}

func TestFromRGBAHandlesStride(t *testing.T) {
	// Subimage with a stride wider than the row length.
	base := image.NewRGBA(image.Rect(0, 0, 8, 4))
	for i := range base.Pix {
		base.Pix[i] = byte(i)
	}
	sub := base.SubImage(image.Rect(2, 1, 6, 3)).(*image.RGBA)

	f := FromRGBA(sub, 5)
	if f.Width != 4 || f.Height != 2 || f.Seq != 5 {
		t.Fatalf("unexpected frame: %+v", f)
	}
	// First pixel of the frame must match the subimage origin.
	r, g, b, a := sub.At(2, 1).RGBA()
	if f.Pix[0] != byte(r>>8) || f.Pix[1] != byte(g>>8) ||
		f.Pix[2] != byte(b>>8) || f.Pix[3] != byte(a>>8) {
		t.Fatal("frame pixels do not match the source image")
	}
}
