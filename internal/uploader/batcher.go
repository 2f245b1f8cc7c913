package uploader

// batchCandidates slices the accepted list into ordered groups of at most
// capacity files each. The result partitions the input exactly: no overlap,
// no omission, order preserved within and across batches.
func batchCandidates(cs []Candidate, capacity int) [][]Candidate {
	if capacity < 1 {
		capacity = 1
	}

	var batches [][]Candidate
	for start := 0; start < len(cs); start += capacity {
		end := start + capacity
		if end > len(cs) {
			end = len(cs)
		}
		batches = append(batches, cs[start:end])
	}
	return batches
}
