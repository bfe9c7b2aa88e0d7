// Package balance defines the core-banking balance and limit collaborator
// contract, plus an in-memory implementation for tests and single-node
// embedding. All amounts are decimals in minor currency units.
package balance
