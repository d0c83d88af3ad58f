package bench

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnknownProfile is returned when a campaign names a profile the engine
// does not implement. It is an orchestration failure: the campaign goes
// straight to failed without issuing a single probe.
var ErrUnknownProfile = errors.New("unknown benchmark profile")

// ProfileKind selects the load shape of a campaign. It is a closed enum:
// the dispatch switch in Run covers every value, so adding a profile is a
// compile-time change, not a string match.
type ProfileKind int

const (
	// ProfileResponseTime probes sequentially with an adaptive delay.
	ProfileResponseTime ProfileKind = iota
	// ProfileLoadTest runs a fixed fan-out of concurrent workers.
	ProfileLoadTest
	// ProfileStressTest ramps concurrency up across three phases.
	ProfileStressTest
	// ProfileReliabilityTest samples on a long fixed interval.
	ProfileReliabilityTest
)

var profileNames = map[ProfileKind]string{
	ProfileResponseTime:    "response_time",
	ProfileLoadTest:        "load_test",
	ProfileStressTest:      "stress_test",
	ProfileReliabilityTest: "reliability_test",
}

func (k ProfileKind) String() string {
	if name, ok := profileNames[k]; ok {
		return name
	}
	return fmt.Sprintf("profile(%d)", int(k))
}

// ParseProfileKind maps the wire/CLI tag of a profile to its enum value.
func ParseProfileKind(s string) (ProfileKind, error) {
	for k, name := range profileNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownProfile, s)
}

// Campaign is one bounded benchmark execution against one target. It is
// owned by exactly one runner goroutine and never mutated after reaching a
// terminal status.
type Campaign struct {
	ID        string
	TargetURL string
	Profile   ProfileKind
	Duration  time.Duration

	StartedAt   time.Time
	CompletedAt time.Time
}
