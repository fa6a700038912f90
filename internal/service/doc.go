// Package service glues the seed master to a host event-processing
// framework. It owns the master and a small tracker of the host's phase,
// qualifies short instance names against the current module, polices which
// phases may register engines, resolves configured seed overrides, and
// drives reseeding from the host's callbacks.
//
// One Service lives for the whole job. The host is expected to wire the
// Pre*/Post* methods to its activity callbacks; modules call the
// registration and query methods from their constructors.
//
// Registration is uniformly the three-step shape: DeclareEngine reserves an
// ID and computes its seed, the caller builds the real engine from that
// seed, DefineEngine attaches the seeder. RegisterEngine collapses the
// three steps for engines that already exist.
package service
