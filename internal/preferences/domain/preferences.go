package preferences

// MaxSelectedSensors caps the selection kept per plant.
const MaxSelectedSensors = 12

// Outcome reports what a mutation did to the selection.
type Outcome string

const (
	OutcomeAdded           Outcome = "added"
	OutcomeAlreadySelected Outcome = "already_selected"
	OutcomeLimitReached    Outcome = "limit_reached"
	OutcomeRemoved         Outcome = "removed"
	OutcomeNotSelected     Outcome = "not_selected"
	OutcomeReplaced        Outcome = "replaced"
	OutcomeTruncated       Outcome = "truncated"
	OutcomeCleared         Outcome = "cleared"
	OutcomeTabChanged      Outcome = "tab_changed"
)

// Changed reports whether the outcome altered state. The zero Outcome
// describes a read.
func (o Outcome) Changed() bool {
	switch o {
	case "", OutcomeAlreadySelected, OutcomeLimitReached, OutcomeNotSelected:
		return false
	default:
		return true
	}
}

// Preferences holds per-plant sensor selections and the active plant tab.
// Plant ids are not validated against the catalogue.
type Preferences struct {
	SelectedSensors map[string][]string `json:"selectedSensors"`
	ActiveTab       *string             `json:"activeTab"`
}

// New returns empty preferences.
func New() Preferences {
	return Preferences{SelectedSensors: make(map[string][]string)}
}

// Clone returns a deep copy.
func (p Preferences) Clone() Preferences {
	out := Preferences{SelectedSensors: make(map[string][]string, len(p.SelectedSensors))}
	for plantID, ids := range p.SelectedSensors {
		out.SelectedSensors[plantID] = append([]string{}, ids...)
	}
	if p.ActiveTab != nil {
		tab := *p.ActiveTab
		out.ActiveTab = &tab
	}
	return out
}

// Normalize restores the selection invariants on data read from storage:
// no plant holds more than MaxSelectedSensors ids and none repeats.
func (p *Preferences) Normalize() {
	if p.SelectedSensors == nil {
		p.SelectedSensors = make(map[string][]string)
	}
	for plantID, ids := range p.SelectedSensors {
		p.SelectedSensors[plantID] = capSelection(dedupe(ids))
	}
}

// SetActiveTab overwrites the active tab pointer.
func (p *Preferences) SetActiveTab(plantID string) Outcome {
	tab := plantID
	p.ActiveTab = &tab
	return OutcomeTabChanged
}

// SetSelected replaces the selection for a plant. Duplicates are dropped
// keeping the first occurrence, then the list is cut to MaxSelectedSensors.
func (p *Preferences) SetSelected(plantID string, sensorIDs []string) Outcome {
	p.ensure()
	unique := dedupe(sensorIDs)
	outcome := OutcomeReplaced
	if len(unique) > MaxSelectedSensors {
		outcome = OutcomeTruncated
	}
	p.SelectedSensors[plantID] = capSelection(unique)
	return outcome
}

// Add appends sensorID unless it is present or the plant is at the cap.
func (p *Preferences) Add(plantID, sensorID string) Outcome {
	p.ensure()
	current := p.SelectedSensors[plantID]
	if contains(current, sensorID) {
		return OutcomeAlreadySelected
	}
	if len(current) >= MaxSelectedSensors {
		return OutcomeLimitReached
	}
	p.SelectedSensors[plantID] = append(append([]string{}, current...), sensorID)
	return OutcomeAdded
}

// Remove drops every occurrence of sensorID.
func (p *Preferences) Remove(plantID, sensorID string) Outcome {
	p.ensure()
	current, ok := p.SelectedSensors[plantID]
	if !ok || !contains(current, sensorID) {
		return OutcomeNotSelected
	}
	kept := make([]string, 0, len(current))
	for _, id := range current {
		if id != sensorID {
			kept = append(kept, id)
		}
	}
	p.SelectedSensors[plantID] = kept
	return OutcomeRemoved
}

// Toggle removes sensorID when selected, otherwise tries to add it.
func (p *Preferences) Toggle(plantID, sensorID string) Outcome {
	if p.IsSelected(plantID, sensorID) {
		return p.Remove(plantID, sensorID)
	}
	return p.Add(plantID, sensorID)
}

// ClearPlant empties one plant's selection.
func (p *Preferences) ClearPlant(plantID string) Outcome {
	p.ensure()
	p.SelectedSensors[plantID] = []string{}
	return OutcomeCleared
}

// Reset returns to the initial empty state.
func (p *Preferences) Reset() Outcome {
	*p = New()
	return OutcomeCleared
}

// Selected returns a copy of the plant's selection, empty when unknown.
func (p Preferences) Selected(plantID string) []string {
	return append([]string{}, p.SelectedSensors[plantID]...)
}

// IsSelected reports membership.
func (p Preferences) IsSelected(plantID, sensorID string) bool {
	return contains(p.SelectedSensors[plantID], sensorID)
}

// Count returns the selection size.
func (p Preferences) Count(plantID string) int {
	return len(p.SelectedSensors[plantID])
}

func (p *Preferences) ensure() {
	if p.SelectedSensors == nil {
		p.SelectedSensors = make(map[string][]string)
	}
}

func contains(ids []string, target string) bool {
	for _, id := range ids {
		if id == target {
			return true
		}
	}
	return false
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func capSelection(ids []string) []string {
	if len(ids) > MaxSelectedSensors {
		ids = ids[:MaxSelectedSensors]
	}
	return append([]string{}, ids...)
}
