package metrics

// EngineMetrics holds the conversion engine's metrics.
type EngineMetrics struct {
	registry *Registry

	// Counters
	KeysTotal             *Counter
	ConversionsTotal      *Counter
	PicksTotal            *Counter
	ReconversionsTotal    *Counter
	RegistrationsTotal    *Counter
	SuggestionSearches    *Counter
	SuggestionsSuperseded *Counter
	ErrorsTotal           *Counter

	// Gauges
	ActiveEngines *Gauge

	// Histograms
	LookupDuration     *Histogram
	SuggestionDuration *Histogram
	CandidateCount     *Histogram
}

// NewEngineMetrics registers the engine metrics in registry, or in the
// default registry when registry is nil. Registering twice in one registry
// returns the same underlying metrics.
func NewEngineMetrics(registry *Registry) *EngineMetrics {
	if registry == nil {
		registry = Default()
	}

	return &EngineMetrics{
		registry: registry,

		KeysTotal:             registry.Counter("keys_total", "Key events processed"),
		ConversionsTotal:      registry.Counter("conversions_total", "Conversions that produced a candidate list"),
		PicksTotal:            registry.Counter("picks_total", "Candidates committed"),
		ReconversionsTotal:    registry.Counter("reconversions_total", "Committed conversions reopened for selection"),
		RegistrationsTotal:    registry.Counter("registrations_total", "Words registered into the user dictionary"),
		SuggestionSearches:    registry.Counter("suggestion_searches_total", "Completion searches started"),
		SuggestionsSuperseded: registry.Counter("suggestion_searches_superseded_total", "Completion searches cancelled by newer input"),
		ErrorsTotal:           registry.Counter("errors_total", "Dictionary write and search failures"),

		ActiveEngines: registry.Gauge("active_engines", "Engines created and not yet closed"),

		LookupDuration:     registry.Histogram("lookup_duration_seconds", "Time to collect conversion candidates", LatencyBuckets),
		SuggestionDuration: registry.Histogram("suggestion_duration_seconds", "Time for a completed suggestion search", LatencyBuckets),
		CandidateCount:     registry.Histogram("candidates", "Candidates offered per conversion", CountBuckets),
	}
}

// Registry returns the registry the metrics live in.
func (m *EngineMetrics) Registry() *Registry {
	return m.registry
}
