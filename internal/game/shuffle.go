package game

import (
	"math/rand/v2"
	"sync"
)

// DefaultShufflePasses is the number of riffle passes applied to a library.
const DefaultShufflePasses = 3

// Rand is the randomness the shuffle needs. *rand.Rand satisfies it.
type Rand interface {
	IntN(n int) int
}

// globalRand uses the runtime-seeded top level generator, which is safe for
// concurrent use.
type globalRand struct{}

func (globalRand) IntN(n int) int { return rand.IntN(n) }

// lockedRand serializes access to a seeded generator so one engine can be
// shared across request goroutines.
type lockedRand struct {
	mu sync.Mutex
	r  *rand.Rand
}

// NewSeededRand returns a deterministic, goroutine-safe Rand.
func NewSeededRand(seed uint64) Rand {
	return &lockedRand{r: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (l *lockedRand) IntN(n int) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.r.IntN(n)
}

// Riffle reorders ids the way a person shuffles a paper deck. Each pass cuts
// the deck near the middle, cuts each half again, riffles the quarters into
// two halves and then riffles the halves together, dropping runs of one to
// three cards at a time. The result is a permutation of ids but deliberately
// not a uniform one: runs from the previous order survive a pass.
func Riffle(ids []int64, passes int, rng Rand) []int64 {
	deck := append([]int64(nil), ids...)
	if len(deck) < 2 {
		return deck
	}
	for i := 0; i < passes; i++ {
		left, right := cutDeck(deck, rng)
		p1, p2 := cutDeck(left, rng)
		p3, p4 := cutDeck(right, rng)
		deck = riffleMerge(riffleMerge(p1, p2, rng), riffleMerge(p3, p4, rng), rng)
	}
	return deck
}

// cutDeck splits pile at len/2 plus a random offset in [-2, 2].
func cutDeck(pile []int64, rng Rand) ([]int64, []int64) {
	at := len(pile)/2 + rng.IntN(5) - 2
	if at < 0 {
		at = 0
	}
	if at > len(pile) {
		at = len(pile)
	}
	return pile[:at], pile[at:]
}

// riffleMerge interleaves a and b, alternately dropping a run of one to three
// cards from each pile. Once a pile runs out the other is drained the same way.
func riffleMerge(a, b []int64, rng Rand) []int64 {
	out := make([]int64, 0, len(a)+len(b))
	fromA := rng.IntN(2) == 0
	for len(a) > 0 || len(b) > 0 {
		if fromA && len(a) == 0 {
			fromA = false
		} else if !fromA && len(b) == 0 {
			fromA = true
		}
		run := 1 + rng.IntN(3)
		if fromA {
			if run > len(a) {
				run = len(a)
			}
			out = append(out, a[:run]...)
			a = a[run:]
		} else {
			if run > len(b) {
				run = len(b)
			}
			out = append(out, b[:run]...)
			b = b[run:]
		}
		fromA = !fromA
	}
	return out
}
