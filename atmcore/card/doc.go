// Package card defines the card collaborator contract consumed by the
// validation pipelines, plus an in-memory implementation for tests and
// single-node embedding.
//
// Only PCI-storable metadata is modeled (token, masked PAN, IIN, last4,
// brand, expiry); the real PAN stays in an external token vault.
package card
