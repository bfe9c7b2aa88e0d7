package cash

import (
	"errors"
	"fmt"
	"sort"
)

// ErrCannotDispense is returned when no exact combination of stocked notes
// sums to the requested amount.
var ErrCannotDispense = errors.New("cannot dispense exact amount")

// maxDistributeAmount caps the dynamic-programming table size. Withdrawal
// policies keep real amounts far below this.
const maxDistributeAmount = 1_000_000

// Distribute finds an exact note plan for amount given per-denomination
// stock, minimizing the total number of notes. Greedy largest-first is not
// enough here: with finite stock the optimal split can substitute smaller
// notes where greedy would dead-end. The search is a bounded coin-change
// dynamic program: for each denomination in turn it considers every feasible
// note count per sub-amount, so exactness and stock limits hold even when
// the only valid plan skips a larger note entirely.
func Distribute(amount int64, stock map[int64]int) (map[int64]int, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("%w: amount %d is not positive", ErrCannotDispense, amount)
	}

	if amount > maxDistributeAmount {
		return nil, fmt.Errorf("%w: amount %d exceeds distributor bound", ErrCannotDispense, amount)
	}

	denoms := make([]int64, 0, len(stock))
	for denom, count := range stock {
		if denom > 0 && count > 0 {
			denoms = append(denoms, denom)
		}
	}

	sort.Slice(denoms, func(i, j int) bool { return denoms[i] > denoms[j] })

	const unreachable = int(^uint(0) >> 1)

	// notes[a] is the minimal note count reaching sub-amount a with the
	// denominations processed so far; choice[i][a] is how many notes of
	// denomination i that minimal plan spends on a.
	notes := make([]int, amount+1)
	for a := range notes {
		notes[a] = unreachable
	}
	notes[0] = 0

	choice := make([][]int, len(denoms))

	for i, denom := range denoms {
		choice[i] = make([]int, amount+1)
		next := make([]int, amount+1)

		for a := int64(0); a <= amount; a++ {
			best := notes[a]
			bestCount := 0

			maxCount := int(a / denom)
			if stock[denom] < maxCount {
				maxCount = stock[denom]
			}

			for count := 1; count <= maxCount; count++ {
				prev := notes[a-int64(count)*denom]
				if prev == unreachable {
					continue
				}

				if best == unreachable || prev+count < best {
					best = prev + count
					bestCount = count
				}
			}

			next[a] = best
			choice[i][a] = bestCount
		}

		notes = next
	}

	if notes[amount] == unreachable {
		return nil, fmt.Errorf("%w: no combination of stocked notes sums to %d", ErrCannotDispense, amount)
	}

	plan := make(map[int64]int)
	remaining := amount

	for i := len(denoms) - 1; i >= 0; i-- {
		count := choice[i][remaining]
		if count == 0 {
			continue
		}

		plan[denoms[i]] = count
		remaining -= denoms[i] * int64(count)
	}

	return plan, nil
}
