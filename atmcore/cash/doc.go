// Package cash manages ATM note inventory and computes exact denomination
// plans for withdrawals. The distributor solves bounded exact change: each
// denomination has finite stock, so a plan must sum to the requested amount
// without drawing more notes of any value than the ATM holds. Infeasible
// amounts are reported as ErrCannotDispense, never approximated.
package cash
