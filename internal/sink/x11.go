package sink

import (
	"fmt"
	"image"

	"github.com/BurntSushi/xgb"
	"github.com/BurntSushi/xgb/xproto"
	xdraw "golang.org/x/image/draw"

	"github.com/hamlinzheng/rockchip-example/internal/frame"
	"github.com/hamlinzheng/rockchip-example/internal/logger"
)

const (
	keysymQ      = 0x0071
	keysymEscape = 0xff1b
)

// X11Window renders frames into an X11 window and watches for the quit
// keys ('q' or Escape) and window-manager close requests. Event polling is
// non-blocking so the consume loop's cadence is set by the queue, not by X.
type X11Window struct {
	conn   *xgb.Conn
	screen *xproto.ScreenInfo
	win    xproto.Window
	gc     xproto.Gcontext
	width  int
	height int

	quitKeycodes map[xproto.Keycode]struct{}
	deleteAtom   xproto.Atom
	scaled       *image.RGBA
}

// OpenX11Window connects to the X server and maps a window of the given
// size.
func OpenX11Window(title string, width, height int) (*X11Window, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("sink: connect to X server: %w", err)
	}

	setup := xproto.Setup(conn)
	screen := setup.DefaultScreen(conn)

	w := &X11Window{
		conn:   conn,
		screen: screen,
		width:  width,
		height: height,
	}

	winID, err := xproto.NewWindowId(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("sink: allocate window id: %w", err)
	}
	w.win = winID

	mask := uint32(xproto.CwBackPixel | xproto.CwEventMask)
	values := []uint32{
		0x000000,
		xproto.EventMaskKeyPress | xproto.EventMaskStructureNotify,
	}
	err = xproto.CreateWindowChecked(
		conn,
		screen.RootDepth,
		w.win,
		screen.Root,
		0, 0,
		uint16(width), uint16(height),
		0,
		xproto.WindowClassInputOutput,
		screen.RootVisual,
		mask,
		values,
	).Check()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("sink: create window: %w", err)
	}

	if err := w.setTitle(title); err != nil {
		logger.WithComponent("x11-sink").Warn().Err(err).Msg("Failed to set window title")
	}
	if err := w.registerDeleteProtocol(); err != nil {
		logger.WithComponent("x11-sink").Warn().Err(err).Msg("Failed to register WM_DELETE_WINDOW")
	}
	if err := w.resolveQuitKeycodes(); err != nil {
		logger.WithComponent("x11-sink").Warn().Err(err).Msg("Failed to resolve quit keycodes")
	}

	if err := xproto.MapWindowChecked(conn, w.win).Check(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sink: map window: %w", err)
	}

	gc, err := xproto.NewGcontextId(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("sink: allocate gcontext: %w", err)
	}
	w.gc = gc
	err = xproto.CreateGCChecked(conn, gc, xproto.Drawable(w.win), 0, nil).Check()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("sink: create gcontext: %w", err)
	}
	conn.Sync()

	logger.WithComponent("x11-sink").Info().
		Int("width", width).
		Int("height", height).
		Uint32("window_id", uint32(w.win)).
		Msg("Preview window created")

	return w, nil
}

// Render scales the frame to the window size and puts it on screen.
func (w *X11Window) Render(f *frame.Frame) error {
	src := f.RGBA()
	if src == nil {
		return fmt.Errorf("sink: frame is not RGBA (%d channels)", f.Channels)
	}

	img := src
	if f.Width != w.width || f.Height != w.height {
		if w.scaled == nil {
			w.scaled = image.NewRGBA(image.Rect(0, 0, w.width, w.height))
		}
		xdraw.ApproxBiLinear.Scale(w.scaled, w.scaled.Bounds(), src, src.Bounds(), xdraw.Src, nil)
		img = w.scaled
	}

	return w.putImage(img)
}

// PollExit drains pending X events and reports whether a quit key was
// pressed or the window was closed.
func (w *X11Window) PollExit() bool {
	for {
		ev, xerr := w.conn.PollForEvent()
		if ev == nil && xerr == nil {
			return false
		}
		if xerr != nil {
			continue
		}
		switch e := ev.(type) {
		case xproto.KeyPressEvent:
			if _, quit := w.quitKeycodes[e.Detail]; quit {
				logger.WithComponent("x11-sink").Info().Msg("Exit key pressed")
				return true
			}
		case xproto.ClientMessageEvent:
			if len(e.Data.Data32) > 0 && xproto.Atom(e.Data.Data32[0]) == w.deleteAtom {
				logger.WithComponent("x11-sink").Info().Msg("Window close requested")
				return true
			}
		case xproto.DestroyNotifyEvent:
			return true
		}
	}
}

// Close destroys the window and disconnects from the X server.
func (w *X11Window) Close() error {
	if w.conn == nil {
		return nil
	}
	if w.gc != 0 {
		xproto.FreeGC(w.conn, w.gc)
	}
	if w.win != 0 {
		xproto.DestroyWindow(w.conn, w.win)
		w.conn.Sync()
	}
	w.conn.Close()
	w.conn = nil
	logger.WithComponent("x11-sink").Info().Msg("Preview window closed")
	return nil
}

// putImage converts RGBA to the server's pixmap layout and uploads it.
func (w *X11Window) putImage(img *image.RGBA) error {
	depth := w.screen.RootDepth
	setup := xproto.Setup(w.conn)

	var bitsPerPixel, scanlinePad uint8
	for _, format := range setup.PixmapFormats {
		if format.Depth == depth {
			bitsPerPixel = format.BitsPerPixel
			scanlinePad = format.ScanlinePad
			break
		}
	}
	if bitsPerPixel == 0 {
		return fmt.Errorf("sink: no pixmap format for depth %d", depth)
	}

	bytesPerPixel := int(bitsPerPixel) / 8
	if bytesPerPixel != 4 && bytesPerPixel != 3 {
		return fmt.Errorf("sink: unsupported bytes per pixel %d", bytesPerPixel)
	}
	padBytes := int(scanlinePad) / 8
	unpadded := w.width * bytesPerPixel
	stride := ((unpadded + padBytes - 1) / padBytes) * padBytes

	data := make([]byte, stride*w.height)
	for y := 0; y < w.height; y++ {
		dstRow := y * stride
		srcRow := y * img.Stride
		for x := 0; x < w.width; x++ {
			src := srcRow + x*4
			dst := dstRow + x*bytesPerPixel
			// X wants BGR(x) byte order.
			data[dst] = img.Pix[src+2]
			data[dst+1] = img.Pix[src+1]
			data[dst+2] = img.Pix[src]
			if bytesPerPixel == 4 && depth == 32 {
				data[dst+3] = img.Pix[src+3]
			}
		}
	}

	err := xproto.PutImageChecked(
		w.conn,
		xproto.ImageFormatZPixmap,
		xproto.Drawable(w.win),
		w.gc,
		uint16(w.width),
		uint16(w.height),
		0, 0,
		0,
		depth,
		data,
	).Check()
	if err != nil {
		return fmt.Errorf("sink: put image: %w", err)
	}

	w.conn.Sync()
	return nil
}

func (w *X11Window) setTitle(title string) error {
	nameAtom, err := w.atom("_NET_WM_NAME")
	if err != nil {
		return err
	}
	utf8Atom, err := w.atom("UTF8_STRING")
	if err != nil {
		return err
	}
	return xproto.ChangePropertyChecked(
		w.conn,
		xproto.PropModeReplace,
		w.win,
		nameAtom,
		utf8Atom,
		8,
		uint32(len(title)),
		[]byte(title),
	).Check()
}

func (w *X11Window) registerDeleteProtocol() error {
	protocolsAtom, err := w.atom("WM_PROTOCOLS")
	if err != nil {
		return err
	}
	deleteAtom, err := w.atom("WM_DELETE_WINDOW")
	if err != nil {
		return err
	}
	w.deleteAtom = deleteAtom
	data := []byte{
		byte(deleteAtom), byte(deleteAtom >> 8),
		byte(deleteAtom >> 16), byte(deleteAtom >> 24),
	}
	return xproto.ChangePropertyChecked(
		w.conn,
		xproto.PropModeReplace,
		w.win,
		protocolsAtom,
		xproto.AtomAtom,
		32,
		1,
		data,
	).Check()
}

// resolveQuitKeycodes maps the quit keysyms to hardware keycodes once at
// startup so PollExit can compare keycodes directly.
func (w *X11Window) resolveQuitKeycodes() error {
	setup := xproto.Setup(w.conn)
	first := setup.MinKeycode
	count := byte(setup.MaxKeycode - setup.MinKeycode + 1)

	reply, err := xproto.GetKeyboardMapping(w.conn, first, count).Reply()
	if err != nil {
		return err
	}

	w.quitKeycodes = make(map[xproto.Keycode]struct{})
	per := int(reply.KeysymsPerKeycode)
	for i := 0; i < int(count); i++ {
		for j := 0; j < per; j++ {
			idx := i*per + j
			if idx >= len(reply.Keysyms) {
				break
			}
			sym := reply.Keysyms[idx]
			if sym == keysymQ || sym == keysymEscape {
				w.quitKeycodes[first+xproto.Keycode(i)] = struct{}{}
			}
		}
	}
	return nil
}

func (w *X11Window) atom(name string) (xproto.Atom, error) {
	reply, err := xproto.InternAtom(w.conn, false, uint16(len(name)), name).Reply()
	if err != nil {
		return 0, err
	}
	return reply.Atom, nil
}
