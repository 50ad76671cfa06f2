package raster

// MorphParams configures the morphological cleanup applied to a class mask.
// Only the water class is cleaned by default: rivers are frequently one
// pixel wide at the fixed tile resolution and are lost without a closing
// pass followed by dilation. The area-dominant classes do not need this.
type MorphParams struct {
	CloseIterations  int
	DilateIterations int
	OpenIterations   int
}

// DefaultWaterMorph returns the canonical water cleanup parameters.
func DefaultWaterMorph() MorphParams {
	return MorphParams{CloseIterations: 2, DilateIterations: 3, OpenIterations: 0}
}

// Clean applies the configured closing, dilation, and opening passes, in
// that order. All operations use a 3x3 structuring neighborhood. The input
// mask is not modified.
func (p MorphParams) Clean(m Mask) Mask {
	out := m
	if p.CloseIterations > 0 {
		out = Close(out, p.CloseIterations)
	}
	if p.DilateIterations > 0 {
		out = Dilate(out, p.DilateIterations)
	}
	if p.OpenIterations > 0 {
		out = Open(out, p.OpenIterations)
	}
	return out
}

// Dilate grows foreground regions by n passes of a 3x3 neighborhood.
func Dilate(m Mask, n int) Mask {
	out := m
	for i := 0; i < n; i++ {
		out = dilateOnce(out)
	}
	return out
}

// Erode shrinks foreground regions by n passes of a 3x3 neighborhood.
func Erode(m Mask, n int) Mask {
	out := m
	for i := 0; i < n; i++ {
		out = erodeOnce(out)
	}
	return out
}

// Close connects broken thin features: n dilation passes followed by n
// erosion passes.
func Close(m Mask, n int) Mask {
	return Erode(Dilate(m, n), n)
}

// Open removes speckle: n erosion passes followed by n dilation passes.
func Open(m Mask, n int) Mask {
	return Dilate(Erode(m, n), n)
}

func dilateOnce(m Mask) Mask {
	height := len(m)
	if height == 0 {
		return m
	}
	width := len(m[0])
	out := NewMask(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if anyNeighbor(m, x, y, width, height, 1) {
				out[y][x] = 1
			}
		}
	}
	return out
}

func erodeOnce(m Mask) Mask {
	height := len(m)
	if height == 0 {
		return m
	}
	width := len(m[0])
	out := NewMask(width, height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if m[y][x] != 0 && !anyNeighbor(m, x, y, width, height, 0) {
				out[y][x] = 1
			}
		}
	}
	return out
}

// anyNeighbor reports whether any pixel in the 3x3 neighborhood of (x, y)
// has the given value. Out-of-bounds neighbors count as background, so
// erosion treats the grid border as background.
func anyNeighbor(m Mask, x, y, width, height int, value uint8) bool {
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			nx, ny := x+dx, y+dy
			if nx < 0 || ny < 0 || nx >= width || ny >= height {
				if value == 0 {
					return true
				}
				continue
			}
			if m[ny][nx] == value {
				return true
			}
		}
	}
	return false
}
