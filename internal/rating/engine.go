package rating

import "math"

const (
	baseK       = 64.0
	floorK      = 16.0
	kDecayGames = 50
)

// Entrant is one participant's prior state plus final placement
// (1 = best; ties share a placement).
type Entrant struct {
	PlayerID    string
	MMR         int
	GamesPlayed int
	Placement   int
}

// ComputeDeltas returns one signed rating delta per entrant, index-aligned
// with the input. Pure: expected score is the mean logistic win
// probability against each opponent, actual score the mean pairwise
// outcome from relative placement, scaled by a K-factor that decays with
// experience. Deltas are clamped so nobody lands below MinMMR, the
// clamped shortfall is redistributed across the participants that stay
// above the floor, and only then is each delta rounded to the nearest
// integer. Rounding moves a delta by at most half a point, so the floor
// guarantee survives it.
func ComputeDeltas(entrants []Entrant) []int {
	n := len(entrants)
	out := make([]int, n)
	if n < 2 {
		return out
	}
	opponents := float64(n - 1)
	deltas := make([]float64, n)
	for i, e := range entrants {
		var expected, actual float64
		for j, o := range entrants {
			if i == j {
				continue
			}
			expected += 1.0 / (1.0 + math.Pow(10, float64(o.MMR-e.MMR)/400.0))
			switch {
			case e.Placement < o.Placement:
				actual += 1.0
			case e.Placement == o.Placement:
				actual += 0.5
			}
		}
		expected /= opponents
		actual /= opponents
		deltas[i] = kFactor(e.GamesPlayed) * (actual - expected)
	}
	applyFloor(entrants, deltas)
	for i, d := range deltas {
		out[i] = int(math.Round(d))
	}
	return out
}

// kFactor decays linearly from 64 for a new player to 16 at 50 games.
func kFactor(gamesPlayed int) float64 {
	if gamesPlayed >= kDecayGames {
		return floorK
	}
	if gamesPlayed < 0 {
		gamesPlayed = 0
	}
	return baseK - (baseK-floorK)*float64(gamesPlayed)/float64(kDecayGames)
}

// applyFloor clamps deltas that would cross MinMMR and redistributes the
// removed loss proportionally to the remaining participants' headroom
// above the floor. Runs entirely in the float domain; the caller rounds
// once afterwards.
func applyFloor(entrants []Entrant, deltas []float64) {
	shortfall := 0.0
	clamped := make([]bool, len(entrants))
	for i, e := range entrants {
		if float64(e.MMR)+deltas[i] < MinMMR {
			allowed := float64(MinMMR - e.MMR)
			if allowed > 0 {
				allowed = 0 // never award points for being at the floor
			}
			shortfall += allowed - deltas[i]
			deltas[i] = allowed
			clamped[i] = true
		}
	}
	if shortfall <= 0 {
		return
	}

	totalHeadroom := 0.0
	for i, e := range entrants {
		if clamped[i] {
			continue
		}
		if h := float64(e.MMR) + deltas[i] - MinMMR; h > 0 {
			totalHeadroom += h
		}
	}
	if totalHeadroom <= 0 {
		return
	}
	for i, e := range entrants {
		if clamped[i] {
			continue
		}
		headroom := float64(e.MMR) + deltas[i] - MinMMR
		if headroom <= 0 {
			continue
		}
		cut := shortfall * headroom / totalHeadroom
		if cut > headroom {
			cut = headroom
		}
		deltas[i] -= cut
	}
}
