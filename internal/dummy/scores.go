package dummy

import (
	"fmt"

	"github.com/Meesho/BharatMLStack/predator-probe/pkg/datatypeconverter"
	"github.com/cespare/xxhash/v2"
)

// decodedInput is a request input with its contents as raw little-endian bytes
type decodedInput struct {
	name     string
	datatype string
	shape    []int64
	raw      []byte
}

// hashInputs creates a deterministic hash from input names and contents
func hashInputs(inputs []decodedInput) uint64 {
	d := xxhash.New()
	for _, input := range inputs {
		_, _ = d.WriteString(input.name)
		_, _ = d.WriteString(input.datatype)
		_, _ = d.Write(input.raw)
	}
	return d.Sum64()
}

// generateScores derives numScores values in [0, 1) from the input hash and output name,
// so the same input always gives the same scores and outputs differ from each other
func generateScores(hash uint64, outputName string, numScores int) []float32 {
	seed := hash ^ xxhash.Sum64String(outputName)
	scores := make([]float32, numScores)
	for i := 0; i < numScores; i++ {
		h := seed + uint64(i)*7919 // prime step
		h ^= h >> 33
		h *= 0xff51afd7ed558ccd
		h ^= h >> 33
		// top 24 bits keep the value exactly representable and strictly below 1
		scores[i] = float32(h>>40) / float32(1<<24)
	}
	return scores
}

func encodeScores(scores []float32) ([]byte, error) {
	raw, err := datatypeconverter.Float32SliceToBytes(scores, datatypeconverter.DataTypeFP32)
	if err != nil {
		return nil, fmt.Errorf("failed to encode scores: %w", err)
	}
	return raw, nil
}
