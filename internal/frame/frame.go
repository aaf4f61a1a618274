package frame

import (
	"image"
	"time"
)

// Frame is one decoded image buffer: a contiguous pixel slice plus its
// dimensions. Rows are packed with a stride of Width*Channels bytes.
// A Frame is owned by exactly one side at a time; the queue clones frames
// on push so the producer and consumer never alias the same pixels.
type Frame struct {
	Pix        []byte
	Width      int
	Height     int
	Channels   int
	Seq        uint64
	CapturedAt time.Time
}

// New allocates a frame with a zeroed pixel buffer.
func New(width, height, channels int) *Frame {
	return &Frame{
		Pix:      make([]byte, width*height*channels),
		Width:    width,
		Height:   height,
		Channels: channels,
	}
}

// Clone returns a deep copy that shares no memory with the receiver.
func (f *Frame) Clone() *Frame {
	if f == nil {
		return nil
	}
	pix := make([]byte, len(f.Pix))
	copy(pix, f.Pix)
	return &Frame{
		Pix:        pix,
		Width:      f.Width,
		Height:     f.Height,
		Channels:   f.Channels,
		Seq:        f.Seq,
		CapturedAt: f.CapturedAt,
	}
}

// Empty reports whether the frame carries no pixel data.
func (f *Frame) Empty() bool {
	return f == nil || len(f.Pix) == 0 || f.Width <= 0 || f.Height <= 0
}

// RGBA exposes a 4-channel frame as an *image.RGBA without copying.
// The returned image shares the frame's pixel buffer; callers that need an
// independent lifetime must Clone first. Returns nil for non-RGBA frames.
func (f *Frame) RGBA() *image.RGBA {
	if f.Empty() || f.Channels != 4 {
		return nil
	}
	return &image.RGBA{
		Pix:    f.Pix,
		Stride: f.Width * 4,
		Rect:   image.Rect(0, 0, f.Width, f.Height),
	}
}

// FromRGBA copies an *image.RGBA into a freshly allocated frame.
func FromRGBA(img *image.RGBA, seq uint64) *Frame {
	b := img.Bounds()
	f := New(b.Dx(), b.Dy(), 4)
	f.Seq = seq
	f.CapturedAt = time.Now()
	rowLen := f.Width * 4
	for y := 0; y < f.Height; y++ {
		src := img.Pix[y*img.Stride : y*img.Stride+rowLen]
		copy(f.Pix[y*rowLen:(y+1)*rowLen], src)
	}
	return f
}
