package embedding

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Vocabulary is an in-memory word-vector table. Lookups are case-insensitive.
// It is read-only after construction and safe for concurrent use.
type Vocabulary struct {
	dims    int
	vectors map[string][]float64
}

// NewVocabulary builds a vocabulary from a token -> vector map
func NewVocabulary(vectors map[string][]float64) (*Vocabulary, error) {
	v := &Vocabulary{vectors: make(map[string][]float64, len(vectors))}
	for tok, vec := range vectors {
		if err := v.add(tok, vec); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// LoadVocabularyFile reads a word2vec text file
func LoadVocabularyFile(path string) (*Vocabulary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open word vectors: %w", err)
	}
	defer f.Close()
	return ReadVocabulary(f)
}

// ReadVocabulary parses word2vec text format: "token x1 x2 ... xn" per line,
// optionally preceded by a "count dims" header line.
func ReadVocabulary(r io.Reader) (*Vocabulary, error) {
	v := &Vocabulary{vectors: make(map[string][]float64)}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if line == 1 && len(fields) == 2 {
			if _, err := strconv.Atoi(fields[0]); err == nil {
				if dims, err := strconv.Atoi(fields[1]); err == nil {
					v.dims = dims
					continue
				}
			}
		}

		vec := make([]float64, len(fields)-1)
		for i, s := range fields[1:] {
			x, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid component %q: %w", line, s, err)
			}
			vec[i] = x
		}
		if err := v.add(fields[0], vec); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read word vectors: %w", err)
	}
	return v, nil
}

func (v *Vocabulary) add(token string, vec []float64) error {
	if len(vec) == 0 {
		return fmt.Errorf("token %q has no components", token)
	}
	if v.dims == 0 {
		v.dims = len(vec)
	}
	if len(vec) != v.dims {
		return fmt.Errorf("token %q has %d dimensions, expected %d", token, len(vec), v.dims)
	}
	v.vectors[strings.ToLower(token)] = vec
	return nil
}

// Dimensions returns the vector length, 0 for an empty vocabulary
func (v *Vocabulary) Dimensions() int {
	return v.dims
}

// Len returns the number of tokens
func (v *Vocabulary) Len() int {
	return len(v.vectors)
}

// Embed returns a copy of the token's vector, or nil when the token is unknown
func (v *Vocabulary) Embed(_ context.Context, token string) ([]float64, error) {
	vec, ok := v.vectors[strings.ToLower(strings.TrimSpace(token))]
	if !ok {
		return nil, nil
	}
	out := make([]float64, len(vec))
	copy(out, vec)
	return out, nil
}
