// Package pooling implements the greedy pool-allocation algorithm that
// redistributes surplus compliance balance to deficit members.
package pooling

import (
	"fmt"
	"math"
	"sort"
)

// Member is one ship's position in a pool allocation.
type Member struct {
	ShipID   string
	CBBefore float64
	CBAfter  float64
}

// InadmissibleError rejects a pool whose members cannot form a valid pool or
// whose allocation would violate a member invariant.
type InadmissibleError struct {
	Reason string
}

func (e *InadmissibleError) Error() string {
	return fmt.Sprintf("pool inadmissible: %s", e.Reason)
}

// Allocate redistributes surplus to deficits and returns members sorted
// descending by CBBefore. The algorithm is deterministic:
//
//  1. Reject when the members' total balance is negative.
//  2. Sort descending by CBBefore (stable, so equal balances keep input order).
//  3. Cover deficits in sorted order from the pooled surplus; a deficit is
//     zeroed when enough surplus remains, otherwise partially covered.
//  4. Draw the consumed surplus down from surplus members largest-first,
//     not proportionally.
//
// Pooling redistributes balance, never creates or destroys it:
// sum(CBBefore) == sum(CBAfter).
func Allocate(members []Member) ([]Member, error) {
	total := 0.0
	for _, m := range members {
		total += m.CBBefore
	}
	if total < 0 {
		return nil, &InadmissibleError{Reason: "total compliance balance of pool members is negative"}
	}

	out := make([]Member, len(members))
	copy(out, members)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CBBefore > out[j].CBBefore })

	totalSurplus := 0.0
	for i := range out {
		out[i].CBAfter = out[i].CBBefore
		if out[i].CBBefore > 0 {
			totalSurplus += out[i].CBBefore
		}
	}

	// Cover deficits in sorted order.
	available := totalSurplus
	for i := range out {
		if out[i].CBBefore >= 0 {
			continue
		}
		deficit := -out[i].CBBefore
		if available >= deficit {
			out[i].CBAfter = 0
			available -= deficit
		} else {
			out[i].CBAfter = out[i].CBBefore + available
			available = 0
		}
	}

	// Draw the consumed surplus down from the largest surplus members first.
	used := totalSurplus - available
	for i := range out {
		if used <= 0 {
			break
		}
		if out[i].CBBefore <= 0 {
			continue
		}
		reduction := math.Min(out[i].CBBefore, used)
		out[i].CBAfter -= reduction
		used -= reduction
	}

	// Structurally unreachable given the passes above, but checked before any
	// caller persists the result.
	for _, m := range out {
		if m.CBBefore < 0 && m.CBAfter < m.CBBefore {
			return nil, &InadmissibleError{Reason: fmt.Sprintf("deficit ship %s cannot exit worse", m.ShipID)}
		}
		if m.CBBefore > 0 && m.CBAfter < 0 {
			return nil, &InadmissibleError{Reason: fmt.Sprintf("surplus ship %s cannot exit negative", m.ShipID)}
		}
	}

	return out, nil
}
