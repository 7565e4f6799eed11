package utils

import (
	"fmt"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// X11Pointer queries the global cursor on the default screen. It keeps
// working while the window sits below others, as in wallpaper mode.
type X11Pointer struct {
	conn *xgb.Conn
	root xproto.Window
}

func NewX11Pointer() (*X11Pointer, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("x11 connect: %w", err)
	}

	setup := xproto.Setup(conn)
	return &X11Pointer{conn: conn, root: setup.DefaultScreen(conn).Root}, nil
}

// QueryPointer returns the root-relative cursor position and whether the
// primary button is held.
func (p *X11Pointer) QueryPointer() (float64, float64, bool, error) {
	reply, err := xproto.QueryPointer(p.conn, p.root).Reply()
	if err != nil {
		return 0, 0, false, err
	}

	pressed := reply.Mask&xproto.KeyButMaskButton1 != 0
	return float64(reply.RootX), float64(reply.RootY), pressed, nil
}

func (p *X11Pointer) Close() {
	if p.conn != nil {
		p.conn.Close()
	}
}
