package ponder

import "github.com/zoobzio/zyn"

// Default configuration for ponder components.
// These can be overridden per instance using options.
var (
	// DefaultMaxSteps bounds every run. Nothing guarantees a controller ever
	// answers, so the loop always carries a budget.
	DefaultMaxSteps = 10

	// DefaultMaxStepFailures is how many consecutive aborted steps a run
	// tolerates before it escalates.
	DefaultMaxStepFailures = 3

	// DefaultPeekCount is the number of passages requested per PEEK.
	DefaultPeekCount = 5

	// DefaultControllerTemperature is used for controller calls. Command
	// emission should be deterministic.
	DefaultControllerTemperature = zyn.DefaultTemperatureDeterministic

	// DefaultReaderTemperature is used for map-phase and synthesis calls.
	DefaultReaderTemperature = zyn.DefaultTemperatureAnalytical
)

// PeekKeyPrefix prefixes the context keys that hold retrieval results.
const PeekKeyPrefix = "peek_step_"
