package planner

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fairyhunter13/ai-mock-interviewer/internal/domain"
)

func TestSourceTotals(t *testing.T) {
	tests := []struct {
		name   string
		policy domain.PlanPolicy
		total  int
		pct    int
		want   map[string]int
	}{
		{"core", domain.PolicyCore, 7, 50, map[string]int{domain.SourceCore: 7}},
		{"unknown falls back to core", "", 4, 50, map[string]int{domain.SourceCore: 4}},
		{"blend", domain.PolicyBlend, 5, 90, map[string]int{domain.SourceBlend: 5}},
		{"split half", domain.PolicySplit, 10, 50, map[string]int{domain.SourceResume: 5, domain.SourceJD: 5}},
		{"split ties to even", domain.PolicySplit, 5, 50, map[string]int{domain.SourceResume: 2, domain.SourceJD: 3}},
		{"split all resume", domain.PolicySplit, 6, 100, map[string]int{domain.SourceResume: 6, domain.SourceJD: 0}},
		{"split clamps pct", domain.PolicySplit, 6, 150, map[string]int{domain.SourceResume: 6, domain.SourceJD: 0}},
		{"hybrid", domain.PolicyHybrid, 10, 50, map[string]int{domain.SourceBlend: 4, domain.SourceResume: 3, domain.SourceJD: 3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := SourceTotals(tt.policy, tt.total, tt.pct)
			got := map[string]int{}
			sum := 0
			for _, r := range rows {
				got[r.Source] = r.Tiers[0]
				sum += r.Tiers[0]
			}
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.total, sum)
		})
	}
}

func TestDistribute(t *testing.T) {
	assert.Equal(t, Tiers{2, 2, 1}, Distribute(5, Tiers{2, 2, 1}))
	assert.Equal(t, Tiers{}, Distribute(0, Tiers{2, 2, 1}))
	assert.Equal(t, Tiers{}, Distribute(3, Tiers{}))
	// every share rounds to zero
	assert.Equal(t, Tiers{1, 0, 0}, Distribute(1, Tiers{1, 1, 1}))
	// rounding shortfall lands on beginner
	assert.Equal(t, Tiers{2, 1, 1}, Distribute(4, Tiers{1, 1, 1}))
	// rounding excess is taken from the lowest non-empty tier
	assert.Equal(t, Tiers{0, 1, 2}, Distribute(3, Tiers{1, 1, 2}))
}

func TestRebalance(t *testing.T) {
	rows := []SourceRow{
		{Source: domain.SourceResume, Tiers: Tiers{2, 0, 0}},
		{Source: domain.SourceJD, Tiers: Tiers{2, 0, 0}},
	}
	out := Rebalance(rows, Tiers{1, 2, 1})

	assert.Equal(t, Tiers{1, 2, 1}, columnSums(out))
	assert.Equal(t, 2, out[0].Tiers.Sum())
	assert.Equal(t, 2, out[1].Tiers.Sum())
	// jd gives up units before resume
	assert.Equal(t, Tiers{0, 2, 0}, out[1].Tiers)
	assert.Equal(t, Tiers{1, 0, 1}, out[0].Tiers)
	// input rows are untouched
	assert.Equal(t, Tiers{2, 0, 0}, rows[0].Tiers)
}

func TestAllocate_ConservesCounts(t *testing.T) {
	policies := []domain.PlanPolicy{domain.PolicyCore, domain.PolicySplit, domain.PolicyBlend, domain.PolicyHybrid}
	tiers := []Tiers{{1, 0, 0}, {0, 0, 1}, {1, 1, 1}, {3, 2, 1}, {0, 5, 2}, {7, 0, 3}, {2, 9, 4}}
	for _, policy := range policies {
		for _, want := range tiers {
			for pct := 0; pct <= 100; pct += 7 {
				req := domain.PlanRequest{
					Beginner: want[0], Medium: want[1], Hard: want[2],
					Policy: policy, ResumePct: pct,
				}
				name := fmt.Sprintf("%s/%v/%d", policy, want, pct)
				rows := Allocate(req)
				require.Equal(t, want, columnSums(rows), name)

				sources := SourceTotals(policy, want.Sum(), pct)
				require.Len(t, rows, len(sources), name)
				for i := range rows {
					assert.Equal(t, sources[i].Tiers[0], rows[i].Tiers.Sum(), name)
					for _, c := range rows[i].Tiers {
						assert.GreaterOrEqual(t, c, 0, name)
					}
				}
			}
		}
	}
}

func TestBuckets_TechnicalSplit(t *testing.T) {
	req := domain.PlanRequest{Beginner: 3, Medium: 2, Hard: 1, Policy: domain.PolicyCore, TechnicalPct: 50}
	buckets := Buckets(req)

	perTier := map[domain.Difficulty]int{}
	for _, b := range buckets {
		assert.Positive(t, b.Count)
		assert.Equal(t, domain.SourceCore, b.Source)
		perTier[b.Difficulty] += b.Count
	}
	assert.Equal(t, map[domain.Difficulty]int{
		domain.DifficultyBeginner: 3,
		domain.DifficultyMedium:   2,
		domain.DifficultyHard:     1,
	}, perTier)

	require.NotEmpty(t, buckets)
	assert.Equal(t, Bucket{Difficulty: domain.DifficultyBeginner, Source: domain.SourceCore, Technical: true, Count: 2}, buckets[0])
	assert.Equal(t, Bucket{Difficulty: domain.DifficultyBeginner, Source: domain.SourceCore, Count: 1}, buckets[1])
	assert.Equal(t, domain.DifficultyHard, buckets[len(buckets)-1].Difficulty)
}

func TestBuckets_ConservesAcrossTechnicalShares(t *testing.T) {
	req := domain.PlanRequest{Beginner: 4, Medium: 3, Hard: 2, Policy: domain.PolicyHybrid, ResumePct: 60}
	for pct := 0; pct <= 100; pct += 7 {
		req.TechnicalPct = pct
		total := 0
		for _, b := range Buckets(req) {
			total += b.Count
		}
		assert.Equal(t, req.Total(), total, "technical_pct=%d", pct)
	}
}
