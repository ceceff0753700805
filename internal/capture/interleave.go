package capture

// Merge orders chunks from both streams by read time. It is a stable merge:
// each input keeps its own order, and on equal timestamps stdout goes
// first. Two pipes are read independently, so the result is the order the
// harness observed the data, not a causal order of the child's writes.
func Merge(stdout, stderr []Chunk) []Chunk {
	out := make([]Chunk, 0, len(stdout)+len(stderr))
	i, j := 0, 0
	for i < len(stdout) && j < len(stderr) {
		if stderr[j].At.Before(stdout[i].At) {
			out = append(out, stderr[j])
			j++
		} else {
			out = append(out, stdout[i])
			i++
		}
	}
	out = append(out, stdout[i:]...)
	out = append(out, stderr[j:]...)
	return out
}
