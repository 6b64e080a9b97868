package hex

// Ring returns the axial coordinates at exact distance k from center c,
// starting k steps to the south-west and walking the sides clockwise from East.
// If k==0, returns [c].
func Ring(c Axial, k int) []Axial {
	if k == 0 {
		return []Axial{c}
	}
	res := make([]Axial, 0, 6*k)
	cur := c.Add(Offsets[SouthWest].Mul(k))
	sides := [DirectionCount]Direction{East, NorthEast, NorthWest, West, SouthWest, SouthEast}
	for _, d := range sides {
		for step := 0; step < k; step++ {
			res = append(res, cur)
			cur = cur.Add(Offsets[d])
		}
	}
	return res
}

// Disk returns all axial coordinates at distance <= r from center c.
func Disk(c Axial, r int) []Axial {
	size := 1 + 3*r*(r+1)
	res := make([]Axial, 0, size)
	for q := -r; q <= r; q++ {
		for r2 := max(-r, -q-r); r2 <= min(r, -q+r); r2++ {
			res = append(res, c.Add(Axial{q, r2}))
		}
	}
	return res
}

// Spiral returns Disk(c, r) ordered by increasing distance from c.
func Spiral(c Axial, r int) []Axial {
	res := make([]Axial, 0, 1+3*r*(r+1))
	for k := 0; k <= r; k++ {
		res = append(res, Ring(c, k)...)
	}
	return res
}
