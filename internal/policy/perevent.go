package policy

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/seedbank/internal/config"
	"github.com/roach88/seedbank/internal/seed"
)

// Per-event hash algorithms. Only one exists so far; the name is versioned
// so the input recipe can change without silently changing old seeds.
const (
	AlgoEventTimestampV1 = "EventTimestamp_v1"

	defaultAlgo = AlgoEventTimestampV1
)

// eventSeedDomain separates this hash use from any other SHA-256 use.
// The null byte prevents domain/data boundary ambiguity.
const eventSeedDomain = "seedbank/eventseed/v1"

// perEvent derives a fresh seed for every event from the event identity.
// Before the first event it falls back to an optional nested policy; without
// one, pre-event seeds are simply invalid.
type perEvent struct {
	algo   string
	offset int64
	init   Policy
}

func newPerEvent(cfg *config.Tree) (*perEvent, error) {
	p := &perEvent{}

	algo, ok, err := cfg.GetString("algorithm")
	if err != nil {
		return nil, err
	}
	switch {
	case !ok, algo == "default":
		p.algo = defaultAlgo
	case algo == AlgoEventTimestampV1:
		p.algo = algo
	default:
		return nil, seed.ConfigError("policy %q: unknown event seed algorithm %q", PerEvent, algo)
	}

	p.offset, _, err = cfg.GetInt("offset")
	if err != nil {
		return nil, err
	}

	if sub, ok := cfg.Sub("initSeedPolicy"); ok && sub.Len() > 0 {
		inner, err := New(sub)
		if err != nil {
			return nil, seed.ConfigError("policy %q: building the pre-event policy: %v", PerEvent, err)
		}
		if inner.Kind() == PerEvent {
			return nil, seed.ConfigError("policy %q may not be nested inside itself as initSeedPolicy", PerEvent)
		}
		p.init = inner
	}

	return p, nil
}

func (p *perEvent) Kind() Kind { return PerEvent }

// Seed serves the pre-event seed: the nested policy's value if one is
// configured, invalid otherwise.
func (p *perEvent) Seed(id seed.EngineID) (seed.Seed, error) {
	if p.init != nil {
		return p.init.Seed(id)
	}
	return seed.Invalid, nil
}

func (p *perEvent) EventSeed(id seed.EngineID, data seed.EventData) (seed.Seed, error) {
	var s seed.Seed
	var err error
	switch p.algo {
	case AlgoEventTimestampV1:
		s, err = eventTimestampV1(id, data)
	default:
		return seed.Invalid, seed.LogicErrorFor(id, "unsupported event seed algorithm %q", p.algo)
	}
	if err != nil {
		return seed.Invalid, err
	}
	// The offset is an escape hatch; the result is deliberately unchecked.
	return seed.Seed(uint32(int64(s) + p.offset)), nil
}

func (p *perEvent) YieldsUniqueSeeds() bool { return false }

func (p *perEvent) Describe(w io.Writer) {
	fmt.Fprintf(w, "seed policy: %q", PerEvent)
	fmt.Fprintf(w, "\n  algorithm: %s", p.algo)
	if p.offset != 0 {
		fmt.Fprintf(w, "\n  constant offset: %d", p.offset)
	}
	if p.init != nil {
		fmt.Fprintf(w, "\n  pre-event seeds from policy %q:\n%s\n  ", p.init.Kind(), strings.Repeat("-", 60))
		p.init.Describe(w)
		fmt.Fprintf(w, "\n%s", strings.Repeat("-", 60))
	}
}

// eventTimestampV1 combines the event identity (run, subrun, event,
// timestamp), the process name and the engine ID into a deterministic
// seed. The assembled string is NFC-normalized so that visually identical
// labels hash identically regardless of their Unicode composition.
func eventTimestampV1(id seed.EngineID, data seed.EventData) (seed.Seed, error) {
	if !data.TimeValid {
		return seed.Invalid, seed.InvalidInputError(id,
			"event has an invalid timestamp; the %s algorithm cannot be used", AlgoEventTimestampV1)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Run: %d Subrun: %d Event: %d Timestamp: %d Process: %s Module: %s",
		data.Run, data.SubRun, data.Event, data.Time, data.ProcessName, id.Module)
	if id.HasInstance() {
		fmt.Fprintf(&b, " Instance: %s", id.Instance)
	}
	input := norm.NFC.String(b.String())

	h := sha256.New()
	h.Write([]byte(eventSeedDomain))
	h.Write([]byte{0x00})
	h.Write([]byte(input))
	sum := h.Sum(nil)

	s := seed.MakeValid(uint64(binary.BigEndian.Uint32(sum[:4])))
	slog.Debug("computed event seed", "input", input, "seed", s)
	return s, nil
}
