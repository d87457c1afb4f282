package wallet

// Rank is a named experience threshold.
type Rank struct {
	Name          string `json:"name"`
	MinExperience int    `json:"min_experience"`
}

// DefaultRanks are ordered by MinExperience; the first rank starts at zero.
var DefaultRanks = []Rank{
	{Name: "Cadet", MinExperience: 0},
	{Name: "Ensign", MinExperience: 300},
	{Name: "Lieutenant", MinExperience: 1000},
	{Name: "Commander", MinExperience: 2500},
	{Name: "Captain", MinExperience: 5000},
}

// RankFor returns the highest rank whose threshold xp reaches, and the rank
// after it (nil at the top). ranks must be sorted ascending.
func RankFor(ranks []Rank, xp int) (Rank, *Rank) {
	if len(ranks) == 0 {
		return Rank{}, nil
	}
	idx := 0
	for i, r := range ranks {
		if xp >= r.MinExperience {
			idx = i
		}
	}
	if idx+1 < len(ranks) {
		next := ranks[idx+1]
		return ranks[idx], &next
	}
	return ranks[idx], nil
}

// RankProgress returns how far xp has moved from current toward next, in
// [0, 1]. At the top rank it is 1.
func RankProgress(current Rank, next *Rank, xp int) float64 {
	if next == nil {
		return 1
	}
	span := next.MinExperience - current.MinExperience
	if span <= 0 {
		return 1
	}
	p := float64(xp-current.MinExperience) / float64(span)
	return max(0, min(p, 1))
}
