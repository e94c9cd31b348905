package game

// projectToBudget maps an arbitrary vector onto the non-negative orthant
// with the exact target sum: negatives clamp to zero, the remainder rescales
// proportionally. When everything clamps away it falls back to a uniform
// split across all slots. This is the heuristic's documented approximate
// projection, not the Euclidean simplex projection; replacing it would
// change every convergence trajectory.
func projectToBudget(v []float64, budget float64) []float64 {
	out := make([]float64, len(v))
	var total float64
	for i, val := range v {
		if val > 0 {
			out[i] = val
			total += val
		}
	}
	if total <= 0 {
		if len(out) == 0 {
			return out
		}
		share := budget / float64(len(out))
		for i := range out {
			out[i] = share
		}
		return out
	}
	scale := budget / total
	for i := range out {
		out[i] *= scale
	}
	return out
}

// projectSubset projects only the slots named by idx, writing the projected
// values back into row and leaving every other slot untouched. Defenders
// use it to rebalance within their owned channels.
func projectSubset(row []float64, idx []int, budget float64) {
	if len(idx) == 0 {
		return
	}
	sub := make([]float64, len(idx))
	for j, i := range idx {
		sub[j] = row[i]
	}
	projected := projectToBudget(sub, budget)
	for j, i := range idx {
		row[i] = projected[j]
	}
}
