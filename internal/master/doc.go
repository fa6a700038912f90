// Package master implements the seed master: the table of registered
// engines, the three seed caches (configured, per-event, current) and the
// operations that assign, freeze and re-push seeds through registered
// seeder callbacks.
//
// The master is policy-agnostic: it owns one policy.Policy built from its
// configuration and consults it for every fresh value, applying the
// uniqueness check whenever the policy claims unique seeds.
//
// One master serves one job. It is not safe for concurrent use; the service
// adapter in package service serializes access to it.
package master
