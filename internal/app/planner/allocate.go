package planner

import (
	"math"
	"sort"
)

// allocateSlots partitions length slots across the arc phases
// proportionally to each phase's duration fraction, using
// largest-remainder rounding so the per-phase counts always sum to
// length exactly. Remainder ties go to the earlier phase.
func allocateSlots(length int, arc []Phase) []int {
	slots := make([]int, len(arc))
	if length <= 0 || len(arc) == 0 {
		return slots
	}

	total := 0.0
	for _, p := range arc {
		total += p.Fraction
	}
	if total <= 0 {
		slots[0] = length
		return slots
	}

	type remainder struct {
		index int
		frac  float64
	}

	assigned := 0
	remainders := make([]remainder, len(arc))
	for i, p := range arc {
		exact := float64(length) * p.Fraction / total
		slots[i] = int(math.Floor(exact))
		assigned += slots[i]
		remainders[i] = remainder{index: i, frac: exact - math.Floor(exact)}
	}

	sort.SliceStable(remainders, func(i, j int) bool {
		if remainders[i].frac != remainders[j].frac {
			return remainders[i].frac > remainders[j].frac
		}
		return remainders[i].index < remainders[j].index
	})

	for i := 0; assigned < length; i++ {
		slots[remainders[i%len(remainders)].index]++
		assigned++
	}
	return slots
}
