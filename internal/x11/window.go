// Package x11 implements a native X11 window backend on top of xgb/xgbutil
// plus the RandR display queries used for placement.
package x11

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"
	"github.com/BurntSushi/xgbutil/icccm"
	"github.com/BurntSushi/xgbutil/keybind"
	"github.com/BurntSushi/xgbutil/xprop"
	"github.com/BurntSushi/xgbutil/xwindow"

	"github.com/1broseidon/winswap/internal/platform"
)

// ID is the registry id of the X11 backend.
const ID = "x11"

// Features is the static feature set of the X11 backend. It creates plain
// X windows with no GL context.
var Features = platform.NewFeatureSet(
	platform.FeatureMultiWindow,
	platform.FeatureFullscreen,
	platform.FeatureMonitorInfo,
	platform.FeatureCustomCursor,
)

// ErrDestroyed is returned by operations on a destroyed window.
var ErrDestroyed = errors.New("x11: window destroyed")

const eventMask = xproto.EventMaskKeyPress |
	xproto.EventMaskKeyRelease |
	xproto.EventMaskButtonPress |
	xproto.EventMaskButtonRelease |
	xproto.EventMaskPointerMotion |
	xproto.EventMaskStructureNotify |
	xproto.EventMaskFocusChange |
	xproto.EventMaskExposure

// Window is an X11 platform.Window. It owns its connection.
type Window struct {
	conn   *Connection
	win    *xwindow.Window
	// resize issues the configure request; the size cache follows the
	// server's ConfigureNotify.
	resize func(width, height int)

	mu          sync.Mutex
	tr          translator
	title       string
	fullscreen  bool
	shouldClose bool
	destroyed   bool
}

var _ platform.Window = (*Window)(nil)

// Factory creates X11 windows for the registry.
func Factory(width, height int, title string, hints platform.Hints) (platform.Window, error) {
	return New(width, height, title, hints)
}

// New opens a connection and maps a width x height window. When hints carry
// no position the window is centered on the display under the pointer.
func New(width, height int, title string, hints platform.Hints) (*Window, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("x11: invalid size %dx%d", width, height)
	}

	conn, err := NewConnection()
	if err != nil {
		return nil, fmt.Errorf("x11: connect: %w", err)
	}

	w, err := create(conn, width, height, title, hints)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return w, nil
}

func create(conn *Connection, width, height int, title string, hints platform.Hints) (*Window, error) {
	xu := conn.XUtil

	x, y := placement(conn, width, height, hints)

	win, err := xwindow.Generate(xu)
	if err != nil {
		return nil, fmt.Errorf("x11: generate window id: %w", err)
	}
	if err := win.CreateChecked(conn.Root, x, y, width, height,
		xproto.CwBackPixel|xproto.CwEventMask, 0, eventMask); err != nil {
		return nil, fmt.Errorf("x11: create window: %w", err)
	}

	protocols, err := xprop.Atm(xu, "WM_PROTOCOLS")
	if err != nil {
		win.Destroy()
		return nil, fmt.Errorf("x11: intern WM_PROTOCOLS: %w", err)
	}
	deleteAtom, err := xprop.Atm(xu, "WM_DELETE_WINDOW")
	if err != nil {
		win.Destroy()
		return nil, fmt.Errorf("x11: intern WM_DELETE_WINDOW: %w", err)
	}
	if err := icccm.WmProtocolsSet(xu, win.Id, []string{"WM_DELETE_WINDOW"}); err != nil {
		win.Destroy()
		return nil, fmt.Errorf("x11: set WM_PROTOCOLS: %w", err)
	}

	// USPosition so the window manager honors the restored position.
	_ = icccm.WmNormalHintsSet(xu, win.Id, &icccm.NormalHints{
		Flags:  icccm.SizeHintUSPosition | icccm.SizeHintUSSize,
		X:      x,
		Y:      y,
		Width:  uint(width),
		Height: uint(height),
	})
	_ = icccm.WmNameSet(xu, win.Id, title)
	_ = ewmh.WmNameSet(xu, win.Id, title)

	fullscreen := hints.Bool(platform.HintFullscreen, false)
	if fullscreen {
		_ = ewmh.WmStateSet(xu, win.Id, []string{"_NET_WM_STATE_FULLSCREEN"})
	}

	win.Map()

	return &Window{
		conn:   conn,
		win:    win,
		resize: win.Resize,
		tr: translator{
			window:   win.Id,
			lookup:   lookupFunc(conn),
			protocol: protocols,
			delete:   deleteAtom,
			width:    width,
			height:   height,
			x:        x,
			y:        y,
		},
		title:      title,
		fullscreen: fullscreen,
	}, nil
}

func placement(conn *Connection, width, height int, hints platform.Hints) (int, int) {
	hx, okX := hints.Get(platform.HintPositionX)
	hy, okY := hints.Get(platform.HintPositionY)
	if okX && okY {
		return hx, hy
	}

	displays, err := conn.Displays()
	if err != nil || len(displays) == 0 {
		return hx, hy
	}
	px, py, err := conn.pointer()
	if err != nil {
		px, py = 0, 0
	}
	d, _ := DisplayAt(displays, px, py)
	area := d.Usable
	return area.X + max(0, (area.Width-width)/2), area.Y + max(0, (area.Height-height)/2)
}

func lookupFunc(conn *Connection) keyLookup {
	return func(state uint16, code xproto.Keycode) string {
		return keybind.LookupString(conn.XUtil, state, code)
	}
}

func (w *Window) Backend() string { return ID }

// Size reports the last size confirmed by the server.
func (w *Window) Size() (int, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.tr.width, w.tr.height
}

func (w *Window) SetSize(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("x11: invalid size %dx%d", width, height)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.destroyed {
		return ErrDestroyed
	}
	w.resize(width, height)
	return nil
}

// Position asks the server for the window's root-relative origin and falls
// back to the last known value.
func (w *Window) Position() (int, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.destroyed {
		return w.tr.x, w.tr.y
	}
	reply, err := xproto.TranslateCoordinates(w.conn.XUtil.Conn(), w.win.Id, w.conn.Root, 0, 0).Reply()
	if err != nil {
		return w.tr.x, w.tr.y
	}
	return int(reply.DstX), int(reply.DstY)
}

func (w *Window) SetPosition(x, y int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.destroyed {
		return ErrDestroyed
	}
	if err := ewmh.MoveresizeWindow(w.conn.XUtil, w.win.Id, x, y, w.tr.width, w.tr.height); err != nil {
		// Fallback to direct window manipulation
		w.win.Move(x, y)
	}
	w.tr.x, w.tr.y = x, y
	return nil
}

func (w *Window) Title() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.title
}

func (w *Window) SetTitle(title string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.destroyed {
		return ErrDestroyed
	}
	if err := ewmh.WmNameSet(w.conn.XUtil, w.win.Id, title); err != nil {
		return fmt.Errorf("x11: set title: %w", err)
	}
	_ = icccm.WmNameSet(w.conn.XUtil, w.win.Id, title)
	w.title = title
	return nil
}

func (w *Window) Fullscreen() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fullscreen
}

// SetFullscreen asks the window manager to add or remove the fullscreen
// state.
func (w *Window) SetFullscreen(on bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.destroyed {
		return ErrDestroyed
	}
	action := ewmh.StateRemove
	if on {
		action = ewmh.StateAdd
	}
	if err := ewmh.WmStateReq(w.conn.XUtil, w.win.Id, action, "_NET_WM_STATE_FULLSCREEN"); err != nil {
		return fmt.Errorf("x11: set fullscreen: %w", err)
	}
	w.fullscreen = on
	return nil
}

// ContextConfig reports no GL context; X11 windows are drawn with core
// requests only.
func (w *Window) ContextConfig() platform.ContextConfig {
	return platform.ContextConfig{}
}

func (w *Window) Context() platform.Context { return x11Context{w: w} }

// Displays lists the outputs of the window's screen.
func (w *Window) Displays() ([]platform.Display, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.destroyed {
		return nil, ErrDestroyed
	}
	return w.conn.Displays()
}

// PumpEvents drains the connection without blocking.
func (w *Window) PumpEvents() []platform.Event {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.destroyed {
		return nil
	}

	var out []platform.Event
	xc := w.conn.XUtil.Conn()
	for {
		ev, xerr := xc.PollForEvent()
		if ev == nil && xerr == nil {
			break
		}
		if xerr != nil {
			continue
		}
		events, closed := w.tr.translate(ev, time.Now())
		if closed {
			w.shouldClose = true
		}
		out = append(out, events...)
	}
	return out
}

func (w *Window) ShouldClose() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.shouldClose
}

// Destroy unmaps and destroys the window and closes its connection.
func (w *Window) Destroy() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.destroyed {
		return ErrDestroyed
	}
	w.destroyed = true
	w.win.Destroy()
	w.conn.Close()
	return nil
}

type x11Context struct {
	w *Window
}

func (c x11Context) MakeCurrent() error {
	c.w.mu.Lock()
	defer c.w.mu.Unlock()
	if c.w.destroyed {
		return ErrDestroyed
	}
	return nil
}

// SwapBuffers flushes pending requests; there is no back buffer.
func (c x11Context) SwapBuffers() error {
	c.w.mu.Lock()
	defer c.w.mu.Unlock()
	if c.w.destroyed {
		return ErrDestroyed
	}
	// Round trip so queued requests reach the server.
	if _, err := xproto.GetInputFocus(c.w.conn.XUtil.Conn()).Reply(); err != nil {
		return fmt.Errorf("x11: sync: %w", err)
	}
	return nil
}

func (c x11Context) Native() any { return c.w.win.Id }
