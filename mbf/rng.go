package mbf

import "math/rand"

// Random implements the three-way RND(x) contract from spec §4.4: x>0
// draws the next value in [0,1), x=0 repeats the last draw, x<0 reseeds
// from x and draws a fresh value. Per §9's open question, the sequence is
// not bit-identical to the 6502's LFSR-based generator; a seed is exposed
// instead so RND(-seed) gives a reproducible (not historically identical)
// sequence, the fidelity bias the spec directs us to choose.
type Random struct {
	src  *rand.Rand
	last float64
	// drawn is false until the first RND(x>=0) call, matching the
	// original's undefined-until-first-draw behaviour for RND(0).
	drawn bool
}

// NewRandom creates a generator seeded from seed (any int64; callers
// typically pass a fixed constant for determinism or time-derived entropy
// for a fresh run).
func NewRandom(seed int64) *Random {
	r := &Random{src: rand.New(rand.NewSource(seed))} //nolint:gosec // not used for security
	r.last = r.src.Float64()
	return r
}

// Next implements RND(x).
func (r *Random) Next(x float64) float64 {
	switch {
	case x < 0:
		r.Reseed(int64(x))
		return r.last
	case x == 0:
		if !r.drawn {
			r.last = r.src.Float64()
			r.drawn = true
		}
		return r.last
	default:
		r.last = r.src.Float64()
		r.drawn = true
		return r.last
	}
}

// Reseed restarts the sequence from seed and draws one fresh value, the
// behaviour RND(x<0) relies on.
func (r *Random) Reseed(seed int64) {
	r.src = rand.New(rand.NewSource(seed)) //nolint:gosec // not used for security
	r.last = r.src.Float64()
	r.drawn = true
}
