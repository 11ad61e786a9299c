package geo

// Polygon is a single closed ring of vertices. The closing vertex may be
// repeated or omitted.
type Polygon []Point

// Empty reports whether the polygon cannot enclose anything.
func (p Polygon) Empty() bool {
	return len(p) < 3
}

// Contains reports whether pt lies strictly inside the ring, using the
// even-odd rule on a planar lat/lng projection. Ward-scale boundaries are
// small enough for the projection error to be irrelevant.
func (p Polygon) Contains(pt Point) bool {
	if p.Empty() {
		return false
	}
	inside := false
	j := len(p) - 1
	for i := 0; i < len(p); i++ {
		vi, vj := p[i], p[j]
		if (vi.Lat > pt.Lat) != (vj.Lat > pt.Lat) {
			crossLng := vj.Lng + (pt.Lat-vj.Lat)*(vi.Lng-vj.Lng)/(vi.Lat-vj.Lat)
			if pt.Lng < crossLng {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}

// Bounds returns the bounding box of the ring.
func (p Polygon) Bounds() BoundingBox {
	if len(p) == 0 {
		return BoundingBox{}
	}
	box := BoundingBox{MinLat: p[0].Lat, MaxLat: p[0].Lat, MinLng: p[0].Lng, MaxLng: p[0].Lng}
	for _, v := range p[1:] {
		if v.Lat < box.MinLat {
			box.MinLat = v.Lat
		}
		if v.Lat > box.MaxLat {
			box.MaxLat = v.Lat
		}
		if v.Lng < box.MinLng {
			box.MinLng = v.Lng
		}
		if v.Lng > box.MaxLng {
			box.MaxLng = v.Lng
		}
	}
	return box
}
