// Package embedding turns name tokens into fixed-length vectors used by the
// user-name vector index.
//
// A Generator returns an empty vector for tokens it cannot represent. Callers
// treat that as "unsupported input", never as a zero vector.
package embedding

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Generator maps a single token to a vector. It must be deterministic for a
// given token and must not mutate shared state.
type Generator interface {
	Embed(ctx context.Context, token string) ([]float64, error)
}

// Mean averages vectors element-wise. All vectors must share one length.
func Mean(vectors ...[]float64) ([]float64, error) {
	if len(vectors) == 0 {
		return nil, nil
	}
	dims := len(vectors[0])
	out := make([]float64, dims)
	for i, v := range vectors {
		if len(v) != dims {
			return nil, fmt.Errorf("vector %d has %d dimensions, expected %d", i, len(v), dims)
		}
		for j, x := range v {
			out[j] += x
		}
	}
	n := float64(len(vectors))
	for j := range out {
		out[j] /= n
	}
	return out, nil
}

// EmbedPhrase embeds every whitespace-separated token of phrase and averages
// them. An empty result means at least one token is unsupported (or the
// phrase is blank).
func EmbedPhrase(ctx context.Context, g Generator, phrase string) ([]float64, error) {
	tokens := strings.Fields(phrase)
	if len(tokens) == 0 {
		return nil, nil
	}

	vectors := make([][]float64, 0, len(tokens))
	for _, tok := range tokens {
		vec, err := g.Embed(ctx, tok)
		if err != nil {
			return nil, err
		}
		if len(vec) == 0 {
			return nil, nil
		}
		vectors = append(vectors, vec)
	}
	return Mean(vectors...)
}

// NameResult is the outcome of embedding a person's first and last name
type NameResult struct {
	Success          bool
	FirstNameCorrect bool
	LastNameCorrect  bool
	Embedding        []float64
}

// FieldErrors reports which name could not be embedded
func (r NameResult) FieldErrors() map[string]string {
	if r.Success {
		return nil
	}
	errs := make(map[string]string, 2)
	if !r.FirstNameCorrect {
		errs["first_name"] = "incorrect"
	}
	if !r.LastNameCorrect {
		errs["last_name"] = "incorrect"
	}
	return errs
}

// NameEmbedding embeds first and last name independently and averages them.
// Both lookups run concurrently since remote generators pay a round trip each.
func NameEmbedding(ctx context.Context, g Generator, firstName, lastName string) (NameResult, error) {
	var first, last []float64

	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		var err error
		first, err = g.Embed(egCtx, firstName)
		return err
	})
	eg.Go(func() error {
		var err error
		last, err = g.Embed(egCtx, lastName)
		return err
	})
	if err := eg.Wait(); err != nil {
		return NameResult{}, err
	}

	res := NameResult{
		FirstNameCorrect: len(first) > 0,
		LastNameCorrect:  len(last) > 0,
	}
	res.Success = res.FirstNameCorrect && res.LastNameCorrect
	if !res.Success {
		return res, nil
	}

	mean, err := Mean(first, last)
	if err != nil {
		return NameResult{}, err
	}
	res.Embedding = mean
	return res, nil
}
