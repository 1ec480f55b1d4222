package types

// Event represents a structured state change emitted by the distribution
// program. Attributes are flat string pairs so downstream indexers can consume
// them without schema knowledge.
type Event struct {
	Type       string
	Attributes map[string]string
}

// Copy returns a deep copy of the event.
func (e *Event) Copy() *Event {
	if e == nil {
		return nil
	}
	attrs := make(map[string]string, len(e.Attributes))
	for k, v := range e.Attributes {
		attrs[k] = v
	}
	return &Event{Type: e.Type, Attributes: attrs}
}
