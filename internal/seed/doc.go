// Package seed holds the core value types of the seed distribution engine:
// the Seed type itself, the EngineID that names a random engine within a job,
// the per-event input data, and the typed errors shared by all packages.
//
// A Seed is a 32-bit unsigned integer. Zero is reserved: it is the Invalid
// seed and never names a real seed. IsValid is the single authoritative
// predicate for seed validity.
//
// EngineID identifies one random engine as (module label, instance name).
// An empty module label marks a global engine, one owned by the job rather
// than by any module. IDs order lexicographically by (module, instance),
// which puts global engines first.
package seed
