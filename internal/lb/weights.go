package lb

import (
	"math"

	"github.com/csheoganj-del/deora-plaza-sub004/internal/pool"
)

// OptimizeWeights rewrites the weight of every enabled node in p to
// max(1, floor(health / maxHealth * 10)), where maxHealth is the highest
// health score in the pool. It returns the number of weights changed.
func OptimizeWeights(p *pool.Pool) int {
	maxHealth := 0
	for _, n := range p.Nodes {
		if n.HealthScore > maxHealth {
			maxHealth = n.HealthScore
		}
	}

	changed := 0
	for i := range p.Nodes {
		n := &p.Nodes[i]
		if !n.Enabled {
			continue
		}
		weight := 1
		if maxHealth > 0 {
			weight = int(math.Floor(float64(n.HealthScore) / float64(maxHealth) * 10))
			if weight < 1 {
				weight = 1
			}
		}
		if n.Weight != weight {
			n.Weight = weight
			changed++
		}
	}
	return changed
}
