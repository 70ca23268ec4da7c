package engine

// Version is an immutable snapshot of a flag's rule set. Rules keep their
// stored order; order is significant to the evaluator.
type Version struct {
	ID     string          `json:"id"`
	Number int             `json:"number"`
	Rules  []TargetingRule `json:"rules"`
}

// Flag is the read-only evaluation view of a feature flag. The storage
// layer supplies it as a consistent snapshot; the engine never mutates it.
type Flag struct {
	Key              string    `json:"key"`
	Enabled          bool      `json:"enabled"`
	CurrentVersionID string    `json:"current_version_id,omitempty"`
	Versions         []Version `json:"versions,omitempty"`
}

// ActiveVersion selects the rule set evaluation uses. The current version
// ID wins; a dangling reference falls back to the highest version number
// present, with fallback=true so the caller can surface the anomaly. An
// unset current version is a normal pre-publish state, not an anomaly.
// A flag without versions yields nil.
func (f Flag) ActiveVersion() (version *Version, fallback bool) {
	if len(f.Versions) == 0 {
		return nil, false
	}
	if f.CurrentVersionID != "" {
		for i := range f.Versions {
			if f.Versions[i].ID == f.CurrentVersionID {
				return &f.Versions[i], false
			}
		}
	}
	highest := &f.Versions[0]
	for i := range f.Versions[1:] {
		if f.Versions[i+1].Number > highest.Number {
			highest = &f.Versions[i+1]
		}
	}
	return highest, f.CurrentVersionID != ""
}
