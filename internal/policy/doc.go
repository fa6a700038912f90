// Package policy implements the seed assignment policies.
//
// A policy is a pure mapping from an engine ID (and, for the perEvent
// policy, per-event data) to a seed. The set of policies is closed: each is
// tagged with a Kind, names round-trip through KindFromName, and New builds
// the right implementation from a configuration tree.
//
// Policies that declare YieldsUniqueSeeds are subject to the master's
// collision check; the others (preDefinedSeed, perEvent) explicitly are not.
package policy
