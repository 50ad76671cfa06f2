package raster

import (
	"math"

	"github.com/twpayne/go-geom"

	"github.com/gramsetu/claimeval/internal/model"
)

// DefaultMinPixelArea is the component-size cutoff for the area-dominant
// classes. Water uses a much coarser cutoff because rivers are thin and must
// survive vectorization.
const (
	DefaultMinPixelArea      = 200
	DefaultWaterMinPixelArea = 5
)

// Vectorize traces the external contour of every connected foreground region
// in the mask and maps it into WGS84 using the tile bounding box. Components
// smaller than minPixels are discarded, as are contours with fewer than
// three distinct vertices.
func Vectorize(m Mask, bbox BBox, class model.AssetType, minPixels int) []model.AssetPolygon {
	height := len(m)
	if height == 0 {
		return nil
	}
	width := len(m[0])

	labels, sizes := labelComponents(m, width, height)

	var out []model.AssetPolygon
	for comp, size := range sizes {
		if size < minPixels {
			continue
		}
		ring := externalContour(labels, width, height, comp)
		if len(ring) < 3 {
			continue
		}
		out = append(out, model.AssetPolygon{
			Type: class,
			Ring: ringToPolygon(ring, bbox, width, height),
		})
	}
	return out
}

// PixelToGeo maps a pixel-lattice coordinate to WGS84. Row 0 is the
// northernmost row, so (0,0) maps to the northwest corner and
// (width,height) to the southeast corner.
func PixelToGeo(x, y float64, bbox BBox, width, height int) (lon, lat float64) {
	lon = bbox.West + x/float64(width)*(bbox.East-bbox.West)
	lat = bbox.North - y/float64(height)*(bbox.North-bbox.South)
	return lon, lat
}

// labelComponents assigns a component id to each foreground pixel using
// 4-connectivity and returns the label grid plus per-component pixel counts.
func labelComponents(m Mask, width, height int) ([][]int, []int) {
	labels := make([][]int, height)
	for y := range labels {
		labels[y] = make([]int, width)
		for x := range labels[y] {
			labels[y][x] = -1
		}
	}

	var sizes []int
	var queue [][2]int

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if m[y][x] == 0 || labels[y][x] >= 0 {
				continue
			}
			comp := len(sizes)
			size := 0
			labels[y][x] = comp
			queue = queue[:0]
			queue = append(queue, [2]int{x, y})
			for len(queue) > 0 {
				p := queue[len(queue)-1]
				queue = queue[:len(queue)-1]
				size++
				for _, d := range [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}} {
					nx, ny := p[0]+d[0], p[1]+d[1]
					if nx < 0 || ny < 0 || nx >= width || ny >= height {
						continue
					}
					if m[ny][nx] != 0 && labels[ny][nx] < 0 {
						labels[ny][nx] = comp
						queue = append(queue, [2]int{nx, ny})
					}
				}
			}
			sizes = append(sizes, size)
		}
	}
	return labels, sizes
}

// externalContour walks the boundary edges of one labeled component and
// returns its external ring as pixel-lattice vertices. Boundary edges are
// collected per exposed pixel side with a consistent winding, then chained
// into closed loops; the loop enclosing the largest area is the external
// contour, interior loops are hole boundaries and are dropped.
func externalContour(labels [][]int, width, height, comp int) [][2]int {
	// Lattice points are (width+1) x (height+1).
	key := func(x, y int) int { return y*(width+1) + x }
	unkey := func(k int) (int, int) { return k % (width + 1), k / (width + 1) }

	adj := make(map[int][]int)
	edges := 0
	inComp := func(x, y int) bool {
		return x >= 0 && y >= 0 && x < width && y < height && labels[y][x] == comp
	}

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if labels[y][x] != comp {
				continue
			}
			if !inComp(x, y-1) {
				adj[key(x, y)] = append(adj[key(x, y)], key(x+1, y))
				edges++
			}
			if !inComp(x+1, y) {
				adj[key(x+1, y)] = append(adj[key(x+1, y)], key(x+1, y+1))
				edges++
			}
			if !inComp(x, y+1) {
				adj[key(x+1, y+1)] = append(adj[key(x+1, y+1)], key(x, y+1))
				edges++
			}
			if !inComp(x-1, y) {
				adj[key(x, y+1)] = append(adj[key(x, y+1)], key(x, y))
				edges++
			}
		}
	}

	var best [][2]int
	bestArea := -1.0

	for edges > 0 {
		// Pick any remaining start edge.
		var start int
		found := false
		for k, outs := range adj {
			if len(outs) > 0 {
				start = k
				found = true
				break
			}
		}
		if !found {
			break
		}

		var loop [][2]int
		cur := start
		for {
			x, y := unkey(cur)
			loop = append(loop, [2]int{x, y})
			outs := adj[cur]
			next := outs[len(outs)-1]
			adj[cur] = outs[:len(outs)-1]
			edges--
			cur = next
			if cur == start {
				break
			}
		}

		loop = dropCollinear(loop)
		if a := math.Abs(shoelace(loop)); a > bestArea {
			bestArea = a
			best = loop
		}
	}
	return best
}

// dropCollinear removes vertices that continue a straight axis-aligned run.
func dropCollinear(loop [][2]int) [][2]int {
	n := len(loop)
	if n < 3 {
		return loop
	}
	out := make([][2]int, 0, n)
	for i := 0; i < n; i++ {
		prev := loop[(i-1+n)%n]
		next := loop[(i+1)%n]
		cur := loop[i]
		// Cross product of (cur-prev) x (next-cur); zero means collinear.
		cross := (cur[0]-prev[0])*(next[1]-cur[1]) - (cur[1]-prev[1])*(next[0]-cur[0])
		if cross != 0 {
			out = append(out, cur)
		}
	}
	return out
}

// shoelace returns the signed area of a pixel-lattice loop.
func shoelace(loop [][2]int) float64 {
	sum := 0
	n := len(loop)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		sum += loop[i][0]*loop[j][1] - loop[j][0]*loop[i][1]
	}
	return float64(sum) / 2
}

// ringToPolygon maps a lattice ring into a closed WGS84 polygon.
func ringToPolygon(ring [][2]int, bbox BBox, width, height int) *geom.Polygon {
	flat := make([]float64, 0, (len(ring)+1)*2)
	for _, v := range ring {
		lon, lat := PixelToGeo(float64(v[0]), float64(v[1]), bbox, width, height)
		flat = append(flat, lon, lat)
	}
	// Close the ring.
	flat = append(flat, flat[0], flat[1])
	return geom.NewPolygonFlat(geom.XY, flat, []int{len(flat)})
}
