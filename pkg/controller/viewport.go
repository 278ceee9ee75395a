package controller

import "github.com/matzehuels/pipebuilder/pkg/store"

// Rect is an axis-aligned rectangle in screen coordinates.
type Rect struct {
	X, Y          float64
	Width, Height float64
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p store.Position) bool {
	return p.X >= r.X && p.X <= r.X+r.Width && p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// Viewport maps screen coordinates onto the canvas.
type Viewport struct {
	Bounds Rect           // canvas element on screen
	Pan    store.Position // canvas translation in screen pixels
	Zoom   float64        // zero means 1
}

// ScreenToCanvas converts a client coordinate into canvas space.
func (v Viewport) ScreenToCanvas(p store.Position) store.Position {
	zoom := v.Zoom
	if zoom == 0 {
		zoom = 1
	}
	return store.Position{
		X: (p.X - v.Bounds.X - v.Pan.X) / zoom,
		Y: (p.Y - v.Bounds.Y - v.Pan.Y) / zoom,
	}
}

// Contains reports whether a client coordinate falls on the canvas.
// A viewport without bounds accepts every point.
func (v Viewport) Contains(p store.Position) bool {
	if v.Bounds.Width == 0 && v.Bounds.Height == 0 {
		return true
	}
	return v.Bounds.Contains(p)
}
