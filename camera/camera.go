// Package camera provides a 2D pan and zoom camera over the simulation grid.
package camera

// Camera maps grid coordinates (y up) onto a square screen viewport (y down).
// The view never leaves the grid.
type Camera struct {
	// Position is the camera center in grid coordinates
	X, Y float32

	// Zoom level (1.0 shows the whole grid, 2.0 = 2x magnification)
	Zoom float32

	// Square screen viewport: top-left corner and side length in pixels
	ViewX, ViewY, ViewSize float32

	// Grid side length in cells
	WorldSize float32

	// Zoom constraints
	MinZoom, MaxZoom float32
}

// New creates a camera showing the whole of a worldSize² grid.
func New(worldSize float32) *Camera {
	return &Camera{
		X:         worldSize / 2,
		Y:         worldSize / 2,
		Zoom:      1.0,
		WorldSize: worldSize,
		MinZoom:   1.0,
		MaxZoom:   16.0,
	}
}

// SetViewport places the camera's output on screen.
func (c *Camera) SetViewport(x, y, size float32) {
	c.ViewX = x
	c.ViewY = y
	c.ViewSize = size
}

// Scale returns screen pixels per grid cell.
func (c *Camera) Scale() float32 {
	return c.ViewSize / c.WorldSize * c.Zoom
}

// WorldToScreen converts grid coordinates to screen coordinates.
func (c *Camera) WorldToScreen(wx, wy float32) (sx, sy float32) {
	s := c.Scale()
	sx = c.ViewX + c.ViewSize/2 + (wx-c.X)*s
	sy = c.ViewY + c.ViewSize/2 - (wy-c.Y)*s
	return sx, sy
}

// ScreenToWorld converts screen coordinates to grid coordinates.
func (c *Camera) ScreenToWorld(sx, sy float32) (wx, wy float32) {
	s := c.Scale()
	wx = c.X + (sx-c.ViewX-c.ViewSize/2)/s
	wy = c.Y - (sy-c.ViewY-c.ViewSize/2)/s
	return wx, wy
}

// Contains reports whether a screen point lies inside the viewport.
func (c *Camera) Contains(sx, sy float32) bool {
	return sx >= c.ViewX && sx < c.ViewX+c.ViewSize &&
		sy >= c.ViewY && sy < c.ViewY+c.ViewSize
}

// IsVisible returns true if a square of the given half-size at (wx, wy)
// could be visible on screen.
func (c *Camera) IsVisible(wx, wy, radius float32) bool {
	half := c.halfExtent() + radius
	return absf(wx-c.X) <= half && absf(wy-c.Y) <= half
}

// Pan moves the camera by the given delta in screen pixels.
func (c *Camera) Pan(dx, dy float32) {
	s := c.Scale()
	c.X -= dx / s
	c.Y += dy / s
	c.clampCenter()
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float32) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
	c.clampCenter()
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float32) {
	c.SetZoom(c.Zoom * factor)
}

// ZoomAt zooms by factor while keeping the grid point under the screen
// position (sx, sy) fixed, as far as the grid bounds allow.
func (c *Camera) ZoomAt(sx, sy, factor float32) {
	wx, wy := c.ScreenToWorld(sx, sy)
	c.Zoom = clamp(c.Zoom*factor, c.MinZoom, c.MaxZoom)
	s := c.Scale()
	c.X = wx - (sx-c.ViewX-c.ViewSize/2)/s
	c.Y = wy + (sy-c.ViewY-c.ViewSize/2)/s
	c.clampCenter()
}

// Reset returns the camera to the default position and zoom.
func (c *Camera) Reset() {
	c.X = c.WorldSize / 2
	c.Y = c.WorldSize / 2
	c.Zoom = 1.0
}

// VisibleWorldBounds returns the grid-coordinate bounds of the visible area.
func (c *Camera) VisibleWorldBounds() (minX, minY, maxX, maxY float32) {
	half := c.halfExtent()
	return c.X - half, c.Y - half, c.X + half, c.Y + half
}

func (c *Camera) halfExtent() float32 {
	return c.WorldSize / (2 * c.Zoom)
}

// clampCenter keeps the visible area inside the grid.
func (c *Camera) clampCenter() {
	half := c.halfExtent()
	c.X = clamp(c.X, half, c.WorldSize-half)
	c.Y = clamp(c.Y, half, c.WorldSize-half)
}

// absf returns the absolute value of a float32.
func absf(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}

// clamp restricts a value to a range.
func clamp(x, min, max float32) float32 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
