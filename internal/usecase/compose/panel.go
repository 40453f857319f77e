package compose

import "github.com/kailas-cloud/medsearch/internal/domain/search/filter"

// Panel is the filter panel: a visibility flag, the set being edited, and
// the committed set that drives searches. The zero value is a closed, empty
// panel. Panel is not safe for concurrent use.
type Panel struct {
	open    bool
	active  filter.Set
	applied filter.Set
}

// Open toggles visibility and seeds the edited set from the committed one,
// or from the full catalog when nothing is committed yet.
func (p *Panel) Open() {
	p.open = !p.open
	if p.applied.IsEmpty() {
		p.active = filter.Full()
	} else {
		p.active = p.applied
	}
}

// Toggle flips key in the edited set.
func (p *Panel) Toggle(k filter.Key) {
	p.active = p.active.Toggle(k)
}

// Apply commits the edited set, closes the panel and returns the new set.
func (p *Panel) Apply() filter.Set {
	p.applied = p.active
	p.open = false
	return p.applied
}

// ClearAll empties both sets and closes the panel.
func (p *Panel) ClearAll() {
	p.active = 0
	p.applied = 0
	p.open = false
}

// Close hides the panel and keeps both sets.
func (p *Panel) Close() { p.open = false }

// IsOpen reports panel visibility.
func (p *Panel) IsOpen() bool { return p.open }

// Active returns the set being edited.
func (p *Panel) Active() filter.Set { return p.active }

// Applied returns the committed set.
func (p *Panel) Applied() filter.Set { return p.applied }
