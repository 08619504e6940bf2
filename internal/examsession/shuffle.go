package examsession

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"

	"drivecert/internal/domain"
)

// newRNG seeds math/rand from crypto/rand so question draws are not
// reproducible from a boot timestamp.
func newRNG() *rand.Rand {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		// crypto/rand failing means the platform RNG is broken; there is
		// no weaker fallback worth offering for an anti-cheat shuffle.
		panic("examsession: crypto/rand unavailable: " + err.Error())
	}
	return rand.New(rand.NewSource(int64(binary.LittleEndian.Uint64(b[:]))))
}

// drawQuestions picks n distinct questions uniformly from the pool using a
// partial Fisher-Yates over a copied slice. When the pool holds fewer than n
// questions the whole pool is returned.
func drawQuestions(pool []domain.Question, n int, rng *rand.Rand) []domain.Question {
	drawn := make([]domain.Question, len(pool))
	copy(drawn, pool)

	if n > len(drawn) {
		n = len(drawn)
	}
	for i := 0; i < n; i++ {
		j := i + rng.Intn(len(drawn)-i)
		drawn[i], drawn[j] = drawn[j], drawn[i]
	}
	return drawn[:n]
}

// presentQuestion shuffles the question's options with a uniform permutation
// and records the position-to-original-key mapping the scorer will need.
// The correct key is not part of the input and cannot appear in the output.
func presentQuestion(q domain.Question, rng *rand.Rand) domain.SessionQuestion {
	keys := make([]string, 0, len(q.Options))
	for _, k := range domain.OptionKeys {
		if _, ok := q.Options[k]; ok {
			keys = append(keys, k)
		}
	}

	rng.Shuffle(len(keys), func(i, j int) {
		keys[i], keys[j] = keys[j], keys[i]
	})

	presented := make([]string, len(keys))
	for i, k := range keys {
		presented[i] = q.Options[k]
	}

	return domain.SessionQuestion{
		QuestionID:   q.ID,
		Text:         q.Text,
		Presented:    presented,
		OriginalKeys: keys,
	}
}
