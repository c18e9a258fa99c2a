// Package docs provides an event documentation registry with HTML and
// Markdown renderers.
//
// The registry is a plain key to (description, parameter descriptions)
// store kept in registration order. It is an optional collaborator of the
// dispatcher: describing an event has no effect on dispatch, and firing an
// undescribed event is fine.
package docs

import (
	"errors"
	"fmt"
	"sync"
)

// ErrUnknownFormat is returned by Render for an unsupported format.
var ErrUnknownFormat = errors.New("unknown render format")

// Format selects the render output.
type Format int

const (
	// FormatHTML renders a standalone styled HTML page.
	FormatHTML Format = iota
	// FormatMarkdown renders a Markdown document.
	FormatMarkdown
)

// String returns a string representation of the format.
func (f Format) String() string {
	switch f {
	case FormatHTML:
		return "html"
	case FormatMarkdown:
		return "markdown"
	default:
		return fmt.Sprintf("unknown(%d)", int(f))
	}
}

// Entry documents one event: what it means and, in order, what each
// positional argument passed to its handlers carries.
type Entry struct {
	Event       string
	Description string
	Params      []string
}

// Registry is a registration-ordered store of event documentation.
type Registry struct {
	mu      sync.RWMutex
	title   string
	entries map[string]int // event -> index into order
	order   []Entry
}

// NewRegistry creates an empty registry. The title names the documented
// host in rendered output.
func NewRegistry(title string) *Registry {
	if title == "" {
		title = "Events"
	}
	return &Registry{
		title:   title,
		entries: make(map[string]int),
	}
}

// Title returns the registry title.
func (r *Registry) Title() string {
	return r.title
}

// Describe registers documentation for an event. Each params value
// describes one positional handler argument, in order. Re-describing an
// event replaces its entry but keeps its original position.
func (r *Registry) Describe(event, description string, params ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry := Entry{Event: event, Description: description, Params: params}
	if i, ok := r.entries[event]; ok {
		r.order[i] = entry
		return
	}
	r.entries[event] = len(r.order)
	r.order = append(r.order, entry)
}

// Entry returns the documentation for an event.
func (r *Registry) Entry(event string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i, ok := r.entries[event]; ok {
		return r.order[i], true
	}
	return Entry{}, false
}

// Events returns all documented event names in registration order.
func (r *Registry) Events() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.order))
	for i, e := range r.order {
		names[i] = e.Event
	}
	return names
}

// Len returns the number of documented events.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Render produces the documentation in the requested format.
func (r *Registry) Render(f Format) (string, error) {
	r.mu.RLock()
	p := page{Title: r.title, Entries: make([]Entry, len(r.order))}
	copy(p.Entries, r.order)
	r.mu.RUnlock()

	switch f {
	case FormatHTML:
		return renderHTML(p)
	case FormatMarkdown:
		return renderMarkdown(p)
	default:
		return "", fmt.Errorf("%w: %v", ErrUnknownFormat, f)
	}
}
