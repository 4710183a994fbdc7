package anomaly

import "math"

// Standardize scales each feature column to zero mean and unit variance over
// the whole batch. A column with zero variance scales to all zeros. The input
// is not modified.
func Standardize(batch [][]float64) [][]float64 {
	if len(batch) == 0 {
		return nil
	}
	dims := len(batch[0])
	n := float64(len(batch))

	means := make([]float64, dims)
	for _, vec := range batch {
		for d := 0; d < dims; d++ {
			means[d] += vec[d]
		}
	}
	for d := 0; d < dims; d++ {
		means[d] /= n
	}

	stddevs := make([]float64, dims)
	for _, vec := range batch {
		for d := 0; d < dims; d++ {
			diff := vec[d] - means[d]
			stddevs[d] += diff * diff
		}
	}
	for d := 0; d < dims; d++ {
		stddevs[d] = math.Sqrt(stddevs[d] / n)
	}

	scaled := make([][]float64, len(batch))
	for i, vec := range batch {
		row := make([]float64, dims)
		for d := 0; d < dims; d++ {
			if stddevs[d] > 0 {
				row[d] = (vec[d] - means[d]) / stddevs[d]
			}
		}
		scaled[i] = row
	}
	return scaled
}
