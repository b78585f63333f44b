package hnsw

import "math/rand/v2"

// GenerateRandomVectors returns num vectors of the given dimension with
// components drawn uniformly from [0, 1).
func GenerateRandomVectors(num int, dimensions int, seed uint64) [][]float32 {
	r := rand.New(rand.NewPCG(seed, seed))

	vectors := make([][]float32, num)

	for i := range num {
		vectors[i] = make([]float32, dimensions)

		for j := range dimensions {
			vectors[i][j] = r.Float32()
		}
	}

	return vectors
}
