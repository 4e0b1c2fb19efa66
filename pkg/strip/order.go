package strip

// OptimizeStripOrder reorders the strips of blob so that each strip shares
// as many indices as possible with the one before it. The first strip stays
// first; ties keep the original order. It runs in O(n²) strips.
func OptimizeStripOrder(blob []int) ([]int, error) {
	strips, err := Strips(blob)
	if err != nil {
		return nil, err
	}
	if len(strips) < 2 {
		return EncodeStrips(strips), nil
	}

	sets := make([]map[int]struct{}, len(strips))
	for i, s := range strips {
		sets[i] = make(map[int]struct{}, len(s))
		for _, x := range s {
			sets[i][x] = struct{}{}
		}
	}
	shared := func(a, b int) int {
		n := 0
		for x := range sets[a] {
			if _, ok := sets[b][x]; ok {
				n++
			}
		}
		return n
	}

	order := greedyOrder(len(strips), shared)
	ordered := make([][]int, len(order))
	for i, idx := range order {
		ordered[i] = strips[idx]
	}
	return EncodeStrips(ordered), nil
}

// OptimizeTriangleOrder returns tris reordered so that each triangle shares
// as many vertices as possible with the one before it. The first triangle
// stays first; ties keep the original order. It runs in O(n²) triangles.
func OptimizeTriangleOrder(tris [][3]int) [][3]int {
	shared := func(a, b int) int {
		n := 0
		for _, x := range tris[a] {
			for _, y := range tris[b] {
				if x == y {
					n++
					break
				}
			}
		}
		return n
	}
	order := greedyOrder(len(tris), shared)
	out := make([][3]int, len(order))
	for i, idx := range order {
		out[i] = tris[idx]
	}
	return out
}

// greedyOrder builds a nearest-neighbor ordering of n items starting at
// item 0, always picking the unplaced item with the highest score against
// the last placed one.
func greedyOrder(n int, score func(a, b int) int) []int {
	if n == 0 {
		return nil
	}
	placed := make([]bool, n)
	order := make([]int, 0, n)
	order = append(order, 0)
	placed[0] = true
	for len(order) < n {
		last := order[len(order)-1]
		best, bestScore := -1, -1
		for i := 0; i < n; i++ {
			if placed[i] {
				continue
			}
			if sc := score(last, i); sc > bestScore {
				best, bestScore = i, sc
			}
		}
		order = append(order, best)
		placed[best] = true
	}
	return order
}
