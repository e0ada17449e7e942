package systems

// Frame phase identifiers, in execution order.
const (
	PhasePipeline    = "pipeline"
	PhaseCompact     = "compact"
	PhaseMovement    = "movement"
	PhaseTemperature = "temperature"
	PhaseTelemetry   = "telemetry"
)

// PhaseInfo describes one phase of a frame.
type PhaseInfo struct {
	ID          string // Identifier used for perf tracking
	Name        string // Display name
	Description string
}

// PhaseRegistry holds metadata about the frame phases.
// This keeps the perf tracker and log output in sync.
type PhaseRegistry struct {
	phases []PhaseInfo
	byID   map[string]PhaseInfo
}

// NewPhaseRegistry creates a registry with every frame phase.
func NewPhaseRegistry() *PhaseRegistry {
	reg := &PhaseRegistry{
		byID: make(map[string]PhaseInfo),
	}
	reg.Register(PhaseInfo{ID: PhasePipeline, Name: "Pipeline", Description: "Runs per-kind processor lists"})
	reg.Register(PhaseInfo{ID: PhaseCompact, Name: "Compact", Description: "Drops deleted points from iteration"})
	reg.Register(PhaseInfo{ID: PhaseMovement, Name: "Movement", Description: "Steps points and resolves collisions"})
	reg.Register(PhaseInfo{ID: PhaseTemperature, Name: "Temperature", Description: "Diffuses heat and exchanges it with points"})
	reg.Register(PhaseInfo{ID: PhaseTelemetry, Name: "Telemetry", Description: "Collects stats and writes output"})
	return reg
}

// Register adds a phase to the registry.
func (r *PhaseRegistry) Register(info PhaseInfo) {
	r.phases = append(r.phases, info)
	r.byID[info.ID] = info
}

// Get returns phase info by ID.
func (r *PhaseRegistry) Get(id string) (PhaseInfo, bool) {
	info, ok := r.byID[id]
	return info, ok
}

// Name returns the display name for a phase ID, or the ID itself if unknown.
func (r *PhaseRegistry) Name(id string) string {
	if info, ok := r.byID[id]; ok {
		return info.Name
	}
	return id
}

// IDs returns all phase IDs in registration order.
func (r *PhaseRegistry) IDs() []string {
	ids := make([]string, len(r.phases))
	for i, info := range r.phases {
		ids[i] = info.ID
	}
	return ids
}
