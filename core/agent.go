package core

// Policy picks a joint action each step: one action per agent that is
// still active. Infos carry the raw per-agent info from the previous
// step (nil right after a reset).
type Policy interface {
	ResetEpisode(*EpisodeContext)
	UpdateEpisode(*EpisodeContext)
	PickActions(*StepContext, ObservationMap, InfoMap, DoneMap) ActionMap
	UpdateStep(*StepContext, ObservationMap, ActionMap, *StepResult)
	Reset()
}

type PolicyConstructor interface {
	NewPolicy() Policy
}
