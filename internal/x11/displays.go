package x11

import (
	"fmt"

	"github.com/BurntSushi/xgb/randr"
	"github.com/BurntSushi/xgb/xproto"
	"github.com/BurntSushi/xgbutil/ewmh"

	"github.com/1broseidon/winswap/internal/platform"
)

// Displays lists active outputs using XRandR. Usable is the part of each
// output inside the EWMH work area of the current desktop.
func (c *Connection) Displays() ([]platform.Display, error) {
	if err := randr.Init(c.XUtil.Conn()); err != nil {
		return nil, fmt.Errorf("randr init failed: %w", err)
	}

	resources, err := randr.GetScreenResources(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return nil, fmt.Errorf("failed to get screen resources: %w", err)
	}

	workArea, haveWorkArea := c.workArea()

	var displays []platform.Display
	for i, crtc := range resources.Crtcs {
		info, err := randr.GetCrtcInfo(c.XUtil.Conn(), crtc, resources.ConfigTimestamp).Reply()
		if err != nil {
			continue
		}
		// Disabled CRTC.
		if info.Width == 0 || info.Height == 0 || len(info.Outputs) == 0 {
			continue
		}

		name := fmt.Sprintf("Monitor%d", i)
		if out, err := randr.GetOutputInfo(c.XUtil.Conn(), info.Outputs[0], resources.ConfigTimestamp).Reply(); err == nil {
			name = string(out.Name)
		}

		bounds := platform.Rect{
			X:      int(info.X),
			Y:      int(info.Y),
			Width:  int(info.Width),
			Height: int(info.Height),
		}
		usable := bounds
		if haveWorkArea {
			if r, ok := intersect(bounds, workArea); ok {
				usable = r
			}
		}

		displays = append(displays, platform.Display{
			ID:     i,
			Name:   name,
			Bounds: bounds,
			Usable: usable,
		})
	}

	return displays, nil
}

// DisplayAt returns the display containing the point, or the first display.
func DisplayAt(displays []platform.Display, x, y int) (platform.Display, bool) {
	if len(displays) == 0 {
		return platform.Display{}, false
	}
	for _, d := range displays {
		if d.Bounds.Contains(x, y) {
			return d, true
		}
	}
	return displays[0], true
}

func (c *Connection) workArea() (platform.Rect, bool) {
	areas, err := ewmh.WorkareaGet(c.XUtil)
	if err != nil || len(areas) == 0 {
		return platform.Rect{}, false
	}
	idx := 0
	if current, err := ewmh.CurrentDesktopGet(c.XUtil); err == nil && int(current) < len(areas) {
		idx = int(current)
	}
	wa := areas[idx]
	return platform.Rect{X: wa.X, Y: wa.Y, Width: int(wa.Width), Height: int(wa.Height)}, true
}

// pointer returns the root-relative pointer position.
func (c *Connection) pointer() (int, int, error) {
	p, err := xproto.QueryPointer(c.XUtil.Conn(), c.Root).Reply()
	if err != nil {
		return 0, 0, err
	}
	return int(p.RootX), int(p.RootY), nil
}

func intersect(a, b platform.Rect) (platform.Rect, bool) {
	x1 := max(a.X, b.X)
	y1 := max(a.Y, b.Y)
	x2 := min(a.X+a.Width, b.X+b.Width)
	y2 := min(a.Y+a.Height, b.Y+b.Height)
	if x2 <= x1 || y2 <= y1 {
		return platform.Rect{}, false
	}
	return platform.Rect{X: x1, Y: y1, Width: x2 - x1, Height: y2 - y1}, true
}
