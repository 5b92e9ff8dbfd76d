package matcher

import "sort"

// TieBreaker supplies a match probability in [0,100] for each employee, used
// only to reorder candidates whose scores are indistinguishable.
type TieBreaker interface {
	Probabilities(username string, employees []EmployeeRecord) ([]float64, error)
}

// NoMatchCandidate is the sentinel reported when no employee scored above zero.
func NoMatchCandidate() MatchCandidate {
	return MatchCandidate{
		Employee: EmployeeRecord{EmpID: "N/A", FullName: "USER NOT FOUND"},
		Rank:     1,
		Label:    LabelNoMatch,
	}
}

// Rank orders the scored candidates for one username, applies the display
// budget and labels, and, when the leading scores fall inside the ambiguity
// band, lets tb reorder that leading group. Scores are never modified. The
// input slice is in catalog order and is not mutated. A nil tb disables
// refinement.
func Rank(username string, scored []MatchCandidate, cfg Config, tb TieBreaker) Result {
	res := Result{Username: username}

	cands := make([]MatchCandidate, 0, len(scored))
	for _, c := range scored {
		if c.Score > 0 {
			cands = append(cands, c)
		}
	}
	if len(cands) == 0 {
		res.Candidates = []MatchCandidate{NoMatchCandidate()}
		return res
	}

	sort.SliceStable(cands, func(i, j int) bool {
		if cands[i].Score != cands[j].Score {
			return cands[i].Score > cands[j].Score
		}
		return cands[i].Exact && !cands[j].Exact
	})

	band := ambiguousPrefix(cands, cfg.Ranking.AmbiguityBand)
	res.Ambiguous = band > 1
	if res.Ambiguous && tb != nil {
		res.Refined = refine(username, cands[:band], cfg.Refiner.Divisor, tb)
	}

	exact := 0
	for _, c := range cands {
		if c.Exact {
			exact++
		}
	}
	if budget := cfg.DisplayBudget(); budget > 0 && len(cands) > budget {
		cands = cands[:budget]
	}
	label(cands, cfg.Ranking, exact)
	res.Candidates = cands
	return res
}

// ambiguousPrefix counts the leading candidates scoring within band of the
// top score that share its exact flag. cands must already be sorted.
func ambiguousPrefix(cands []MatchCandidate, band float64) int {
	if len(cands) == 0 {
		return 0
	}
	floor := cands[0].Score - band
	n := 1
	for n < len(cands) && cands[n].Score >= floor && cands[n].Exact == cands[0].Exact {
		n++
	}
	return n
}

// refine reorders group in place by score plus a scaled-down model
// probability. The added term stays below the band resolution, and exact
// matches keep their lead regardless of the model.
func refine(username string, group []MatchCandidate, divisor float64, tb TieBreaker) bool {
	emps := make([]EmployeeRecord, len(group))
	for i, c := range group {
		emps[i] = c.Employee
	}
	probs, err := tb.Probabilities(username, emps)
	if err != nil || len(probs) != len(group) {
		return false
	}
	if divisor <= 0 {
		divisor = DefaultConfig().Refiner.Divisor
	}
	type keyed struct {
		c   MatchCandidate
		key float64
	}
	ks := make([]keyed, len(group))
	for i, c := range group {
		ks[i] = keyed{c: c, key: c.Score + clampScore(probs[i])/divisor}
	}
	sort.SliceStable(ks, func(i, j int) bool {
		if ks[i].c.Exact != ks[j].c.Exact {
			return ks[i].c.Exact
		}
		return ks[i].key > ks[j].key
	})
	for i := range ks {
		group[i] = ks[i].c
	}
	return true
}

// label assigns positional ranks and confidence labels. exact is the number
// of deterministic matches before truncation.
func label(cands []MatchCandidate, rc RankingConfig, exact int) {
	for i := range cands {
		c := &cands[i]
		c.Rank = i + 1
		switch {
		case c.Exact && exact > 1:
			c.Label = LabelExactMultiple
		case c.Exact:
			c.Label = LabelExactSingle
		case i == 0 && c.Score >= rc.Threshold:
			c.Label = LabelTop
		case i == 0:
			c.Label = LabelBestBelow
		case i < rc.TopGroup:
			c.Label = LabelTop
		default:
			c.Label = LabelOther
		}
	}
}
