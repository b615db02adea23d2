//go:build windows

// Package screenshot grabs still images of the display for detection
// passes.
package screenshot

import (
	"fmt"
	"image"
	"syscall"
	"unsafe"
)

var (
	user32 = syscall.NewLazyDLL("user32.dll")
	gdi32  = syscall.NewLazyDLL("gdi32.dll")
	shcore = syscall.NewLazyDLL("shcore.dll")

	procGetDC                  = user32.NewProc("GetDC")
	procReleaseDC              = user32.NewProc("ReleaseDC")
	procGetSystemMetrics       = user32.NewProc("GetSystemMetrics")
	procCreateCompatibleDC     = gdi32.NewProc("CreateCompatibleDC")
	procCreateDIBSection       = gdi32.NewProc("CreateDIBSection")
	procSelectObject           = gdi32.NewProc("SelectObject")
	procBitBlt                 = gdi32.NewProc("BitBlt")
	procDeleteDC               = gdi32.NewProc("DeleteDC")
	procDeleteObject           = gdi32.NewProc("DeleteObject")
	procGdiFlush               = gdi32.NewProc("GdiFlush")
	procSetProcessDpiAwareness = shcore.NewProc("SetProcessDpiAwareness")
)

const (
	smCxScreen        = 0
	smCyScreen        = 1
	smXVirtualScreen  = 76
	smYVirtualScreen  = 77
	smCxVirtualScreen = 78
	smCyVirtualScreen = 79
	srcCopy           = 0x00CC0020
	biRGB             = 0
)

type bitmapInfoHeader struct {
	Size          uint32
	Width         int32
	Height        int32
	Planes        uint16
	BitCount      uint16
	Compression   uint32
	SizeImage     uint32
	XPelsPerMeter int32
	YPelsPerMeter int32
	ClrUsed       uint32
	ClrImportant  uint32
}

type bitmapInfo struct {
	Header bitmapInfoHeader
	Colors [1]uint32
}

// Capturer captures the virtual screen via GDI. Boxes recognized from
// its captures are in physical pixel coordinates, so the process is
// made per-monitor DPI aware at construction.
type Capturer struct {
	dpiAware bool
}

// NewCapturer returns a capturer for the local display.
func NewCapturer() *Capturer {
	c := &Capturer{}
	ret, _, _ := procSetProcessDpiAwareness.Call(2) // PROCESS_PER_MONITOR_DPI_AWARE
	c.dpiAware = ret == 0
	return c
}

// Capture grabs the whole virtual screen (all monitors) and reports its
// screen origin, which is negative when a monitor sits left of or above
// the primary.
func (c *Capturer) Capture() (image.Image, image.Point, error) {
	// GetSystemMetrics returns a 32-bit int; convert through int32 so
	// negative virtual-screen origins survive the uintptr round trip.
	x := int(int32(callMetric(smXVirtualScreen)))
	y := int(int32(callMetric(smYVirtualScreen)))
	width := int(int32(callMetric(smCxVirtualScreen)))
	height := int(int32(callMetric(smCyVirtualScreen)))

	if width == 0 || height == 0 {
		width = int(int32(callMetric(smCxScreen)))
		height = int(int32(callMetric(smCyScreen)))
		x, y = 0, 0
	}
	if width == 0 || height == 0 {
		return nil, image.Point{}, fmt.Errorf("%w: no display metrics", ErrCaptureFailed)
	}
	img, err := c.captureRect(x, y, width, height)
	if err != nil {
		return nil, image.Point{}, err
	}
	return img, image.Pt(x, y), nil
}

func callMetric(index uintptr) uintptr {
	ret, _, _ := procGetSystemMetrics.Call(index)
	return ret
}

// ScreenSize returns the primary screen dimensions.
func (c *Capturer) ScreenSize() (width, height int) {
	w, _, _ := procGetSystemMetrics.Call(smCxScreen)
	h, _, _ := procGetSystemMetrics.Call(smCyScreen)
	return int(w), int(h)
}

// captureRect copies a screen region through a DIB section, which works
// on both Win10 and Win11 compositors.
func (c *Capturer) captureRect(x, y, width, height int) (image.Image, error) {
	hdc, _, _ := procGetDC.Call(0)
	if hdc == 0 {
		return nil, fmt.Errorf("%w: no screen device context", ErrCaptureFailed)
	}
	defer procReleaseDC.Call(0, hdc)

	hdcMem, _, _ := procCreateCompatibleDC.Call(hdc)
	if hdcMem == 0 {
		return nil, fmt.Errorf("%w: CreateCompatibleDC", ErrCaptureFailed)
	}
	defer procDeleteDC.Call(hdcMem)

	// Negative height orders rows top-down so no flip is needed.
	bi := bitmapInfo{
		Header: bitmapInfoHeader{
			Size:        uint32(unsafe.Sizeof(bitmapInfoHeader{})),
			Width:       int32(width),
			Height:      -int32(height),
			Planes:      1,
			BitCount:    32,
			Compression: biRGB,
		},
	}

	var pBits uintptr
	hBitmap, _, _ := procCreateDIBSection.Call(
		hdc,
		uintptr(unsafe.Pointer(&bi)),
		0, // DIB_RGB_COLORS
		uintptr(unsafe.Pointer(&pBits)),
		0,
		0,
	)
	if hBitmap == 0 || pBits == 0 {
		return nil, fmt.Errorf("%w: CreateDIBSection", ErrCaptureFailed)
	}
	defer procDeleteObject.Call(hBitmap)

	oldBitmap, _, _ := procSelectObject.Call(hdcMem, hBitmap)
	defer procSelectObject.Call(hdcMem, oldBitmap)

	ret, _, _ := procBitBlt.Call(
		hdcMem, 0, 0, uintptr(width), uintptr(height),
		hdc, uintptr(x), uintptr(y),
		srcCopy,
	)
	if ret == 0 {
		return nil, fmt.Errorf("%w: BitBlt", ErrCaptureFailed)
	}
	procGdiFlush.Call()

	data := unsafe.Slice((*byte)(unsafe.Pointer(pBits)), width*height*4)
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := 0; i < width*height; i++ {
		offset := i * 4
		img.Pix[offset+0] = data[offset+2] // BGRA -> RGBA
		img.Pix[offset+1] = data[offset+1]
		img.Pix[offset+2] = data[offset+0]
		img.Pix[offset+3] = 255
	}
	return img, nil
}
