// Package planner turns a question-plan request into per-bucket question
// counts and generates each bucket through the generator.
//
// Allocation runs in three steps: the total is split across sources by
// policy, each source total is distributed across difficulty tiers in
// proportion to the requested tier counts, and units are then moved between
// tiers until every tier matches its requested count exactly. Each cell is
// finally split into technical and non-technical buckets.
package planner

import (
	"math"

	"github.com/fairyhunter13/ai-mock-interviewer/internal/domain"
)

// hybridBlendShare is the fixed share of blended questions in hybrid plans.
const hybridBlendShare = 0.4

// Tiers holds one count per difficulty, indexed like domain.Difficulties.
type Tiers [3]int

// Sum adds the three tiers.
func (t Tiers) Sum() int { return t[0] + t[1] + t[2] }

// SourceRow is the tier distribution of one question source.
type SourceRow struct {
	Source string
	Tiers  Tiers
}

// Bucket is one generator request: Count questions of one difficulty from
// one source, technical or not.
type Bucket struct {
	Difficulty domain.Difficulty
	Source     string
	Technical  bool
	Count      int
}

// roundHalfEven rounds like the planner always has: ties go to the even
// neighbour.
func roundHalfEven(v float64) int { return int(math.RoundToEven(v)) }

func requested(req domain.PlanRequest) Tiers {
	return Tiers{req.Beginner, req.Medium, req.Hard}
}

// SourceTotals splits the request total across sources.
func SourceTotals(policy domain.PlanPolicy, total, resumePct int) []SourceRow {
	pct := clampPct(resumePct)
	switch policy {
	case domain.PolicySplit:
		resume := roundHalfEven(float64(total) * float64(pct) / 100)
		return []SourceRow{
			{Source: domain.SourceResume, Tiers: Tiers{resume}},
			{Source: domain.SourceJD, Tiers: Tiers{total - resume}},
		}
	case domain.PolicyBlend:
		return []SourceRow{{Source: domain.SourceBlend, Tiers: Tiers{total}}}
	case domain.PolicyHybrid:
		blend := roundHalfEven(float64(total) * hybridBlendShare)
		split := total - blend
		resume := roundHalfEven(float64(split) * float64(pct) / 100)
		return []SourceRow{
			{Source: domain.SourceResume, Tiers: Tiers{resume}},
			{Source: domain.SourceJD, Tiers: Tiers{split - resume}},
			{Source: domain.SourceBlend, Tiers: Tiers{blend}},
		}
	default:
		return []SourceRow{{Source: domain.SourceCore, Tiers: Tiers{total}}}
	}
}

// Distribute spreads sourceTotal across tiers proportionally to want. The
// result always sums to sourceTotal: a shortfall is added to beginner and an
// excess is taken from the lowest non-empty tier.
func Distribute(sourceTotal int, want Tiers) Tiers {
	total := want.Sum()
	if sourceTotal <= 0 || total <= 0 {
		return Tiers{}
	}
	var t Tiers
	for i := range t {
		t[i] = roundHalfEven(float64(sourceTotal) * float64(want[i]) / float64(total))
	}
	if t.Sum() == 0 {
		t[0] = sourceTotal
	}
	for t.Sum() < sourceTotal {
		t[0]++
	}
	for t.Sum() > sourceTotal {
		for i := range t {
			if t[i] > 0 {
				t[i]--
				break
			}
		}
	}
	return t
}

// rebalanceOrder is the order in which source rows give up units.
var rebalanceOrder = []string{domain.SourceJD, domain.SourceResume, domain.SourceBlend, domain.SourceCore}

// Rebalance moves units between tiers inside source rows until the column
// sums equal want. Row totals are preserved. The rows must sum to want.Sum().
func Rebalance(rows []SourceRow, want Tiers) []SourceRow {
	out := append([]SourceRow(nil), rows...)
	for {
		over, under := -1, -1
		got := columnSums(out)
		for i := range got {
			if over < 0 && got[i] > want[i] {
				over = i
			}
			if under < 0 && got[i] < want[i] {
				under = i
			}
		}
		if over < 0 || under < 0 {
			return out
		}
		if !moveUnit(out, over, under) {
			return out
		}
	}
}

func moveUnit(rows []SourceRow, from, to int) bool {
	for _, src := range rebalanceOrder {
		for i := range rows {
			if rows[i].Source == src && rows[i].Tiers[from] > 0 {
				rows[i].Tiers[from]--
				rows[i].Tiers[to]++
				return true
			}
		}
	}
	return false
}

func columnSums(rows []SourceRow) Tiers {
	var t Tiers
	for _, r := range rows {
		for i := range t {
			t[i] += r.Tiers[i]
		}
	}
	return t
}

// Allocate runs source split, distribution and rebalancing.
func Allocate(req domain.PlanRequest) []SourceRow {
	want := requested(req)
	rows := SourceTotals(req.Policy, want.Sum(), req.ResumePct)
	for i := range rows {
		rows[i].Tiers = Distribute(rows[i].Tiers[0], want)
	}
	return Rebalance(rows, want)
}

// Buckets is the full plan: every non-empty (difficulty, source, technical)
// cell, ordered by difficulty, then source, technical first.
func Buckets(req domain.PlanRequest) []Bucket {
	rows := Allocate(req)
	pct := clampPct(req.TechnicalPct)
	var out []Bucket
	for tier, d := range domain.Difficulties {
		for _, r := range rows {
			cell := r.Tiers[tier]
			tech := roundHalfEven(float64(cell) * float64(pct) / 100)
			if tech > 0 {
				out = append(out, Bucket{Difficulty: d, Source: r.Source, Technical: true, Count: tech})
			}
			if cell-tech > 0 {
				out = append(out, Bucket{Difficulty: d, Source: r.Source, Count: cell - tech})
			}
		}
	}
	return out
}

func clampPct(p int) int {
	switch {
	case p < 0:
		return 0
	case p > 100:
		return 100
	}
	return p
}
