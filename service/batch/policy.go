// Package batch decides how many replicates travel in one assignment.
package batch

// Size returns the nominal batch size for a job of remaining replicates shared
// by workerCount ranks. An even split is preferred at half granularity, then
// at full granularity; anything else falls back to single replicates.
func Size(remaining, workerCount int) int {
	if remaining <= 0 || workerCount <= 0 {
		return 1
	}
	if remaining%workerCount != 0 {
		return 1
	}
	if half := 2 * workerCount; remaining%half == 0 {
		return remaining / half
	}
	return remaining / workerCount
}

// Clamp truncates size so that an assignment never exceeds what is left.
func Clamp(size, remaining int) int {
	if size > remaining {
		return remaining
	}
	return size
}
