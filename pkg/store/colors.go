package store

import (
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// DefaultMaxColors is the saved-colors capacity.
const DefaultMaxColors = 20

// colorsKey is the state key the collection lives under.
const colorsKey = "colors"

// Reasons reported by AddResult for rejected adds.
const (
	ReasonFull      = "full"
	ReasonDuplicate = "duplicate"
)

// Color is one saved palette entry. ID and SavedAt are assigned by
// AddColor.
type Color struct {
	ID      string    `json:"id,omitempty"`
	Hex     string    `json:"hex"`
	Name    string    `json:"name,omitempty"`
	SavedAt time.Time `json:"savedAt"`
}

// AddResult reports whether an add was applied. Rejections carry a
// Reason; the caller decides the user-facing messaging.
type AddResult struct {
	Success bool   `json:"success"`
	Reason  string `json:"reason,omitempty"`
}

// ColorsStore is a Store holding a bounded, duplicate-free collection
// of saved colors. Order is insertion order unless Reorder says
// otherwise.
type ColorsStore struct {
	*Store
	maxColors int
}

// NewColorsStore creates a saved-colors store persisted under key.
func NewColorsStore(key string, opts ...Option) *ColorsStore {
	cfg := buildConfig(opts)
	return &ColorsStore{
		Store:     New(key, State{colorsKey: []any{}}, opts...),
		maxColors: cfg.maxColors,
	}
}

// Colors returns the saved colors in display order.
func (cs *ColorsStore) Colors() []Color {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return colorsFromState(cs.state)
}

// Count returns the number of saved colors.
func (cs *ColorsStore) Count() int {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return len(colorsFromState(cs.state))
}

// MaxColors returns the collection's capacity.
func (cs *ColorsStore) MaxColors() int {
	return cs.maxColors
}

// AddColor appends a copy of color enriched with a generated id and
// save timestamp. It fails softly with ReasonFull at capacity and
// ReasonDuplicate when the hex is already present, compared
// case-insensitively. State is untouched on failure. On a closed store
// the result is a failure with an empty reason.
func (cs *ColorsStore) AddColor(color Color) AddResult {
	cs.mu.Lock()
	if cs.closed {
		cs.mu.Unlock()
		return AddResult{}
	}

	list := colorsFromState(cs.state)
	if len(list) >= cs.maxColors {
		cs.mu.Unlock()
		return AddResult{Reason: ReasonFull}
	}
	for _, existing := range list {
		if strings.EqualFold(existing.Hex, color.Hex) {
			cs.mu.Unlock()
			return AddResult{Reason: ReasonDuplicate}
		}
	}

	saved := color
	saved.ID = ulid.Make().String()
	saved.SavedAt = time.Now().UTC()

	subs, snap := cs.swapLocked(mergeState(cs.state, State{colorsKey: rawColors(append(list, saved))}))
	cs.mu.Unlock()

	cs.fanout(subs, snap, true)
	return AddResult{Success: true}
}

// RemoveColor drops the color with the given id. The mutation pipeline
// runs even when no id matched, mirroring a plain filter.
func (cs *ColorsStore) RemoveColor(id string) {
	cs.mu.Lock()
	if cs.closed {
		cs.mu.Unlock()
		return
	}

	list := colorsFromState(cs.state)
	kept := make([]Color, 0, len(list))
	for _, c := range list {
		if c.ID != id {
			kept = append(kept, c)
		}
	}

	subs, snap := cs.swapLocked(mergeState(cs.state, State{colorsKey: rawColors(kept)}))
	cs.mu.Unlock()

	cs.fanout(subs, snap, true)
}

// ClearColors resets the collection to empty.
func (cs *ColorsStore) ClearColors() {
	cs.mu.Lock()
	if cs.closed {
		cs.mu.Unlock()
		return
	}

	subs, snap := cs.swapLocked(mergeState(cs.state, State{colorsKey: []any{}}))
	cs.mu.Unlock()

	cs.fanout(subs, snap, true)
}

// Reorder moves the color at from to position to, leaving every other
// relative order unchanged. Indices normalize the way array splice
// does: negatives count from the end, both ends clamp. When from lands
// past the last element there is nothing to move and the call is a
// no-op.
func (cs *ColorsStore) Reorder(from, to int) {
	cs.mu.Lock()
	if cs.closed {
		cs.mu.Unlock()
		return
	}

	list := colorsFromState(cs.state)
	f := spliceIndex(from, len(list))
	if f == len(list) {
		cs.mu.Unlock()
		return
	}

	moved := list[f]
	rest := make([]Color, 0, len(list)-1)
	rest = append(rest, list[:f]...)
	rest = append(rest, list[f+1:]...)

	t := spliceIndex(to, len(rest))
	out := make([]Color, 0, len(list))
	out = append(out, rest[:t]...)
	out = append(out, moved)
	out = append(out, rest[t:]...)

	subs, snap := cs.swapLocked(mergeState(cs.state, State{colorsKey: rawColors(out)}))
	cs.mu.Unlock()

	cs.fanout(subs, snap, true)
}

// spliceIndex normalizes idx against length n: negative counts from
// the end, then clamps to [0, n].
func spliceIndex(idx, n int) int {
	if idx < 0 {
		idx += n
	}
	if idx < 0 {
		return 0
	}
	if idx > n {
		return n
	}
	return idx
}

// colorsFromState decodes the collection out of a state map. The
// stored shape is []any of map[string]any, the same shape JSON
// decoding produces; anything else reads as empty.
func colorsFromState(state State) []Color {
	raw, _ := state[colorsKey].([]any)
	colors := make([]Color, 0, len(raw))
	for _, item := range raw {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		var c Color
		c.ID, _ = m["id"].(string)
		c.Hex, _ = m["hex"].(string)
		c.Name, _ = m["name"].(string)
		if s, ok := m["savedAt"].(string); ok {
			if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
				c.SavedAt = t
			}
		}
		colors = append(colors, c)
	}
	return colors
}

// rawColors encodes the collection into the JSON-shaped form kept in
// state, so subscribers see one shape regardless of whether the value
// came from a mutation, hydration, or a sync message.
func rawColors(colors []Color) []any {
	raw := make([]any, 0, len(colors))
	for _, c := range colors {
		m := map[string]any{"hex": c.Hex}
		if c.ID != "" {
			m["id"] = c.ID
		}
		if c.Name != "" {
			m["name"] = c.Name
		}
		if !c.SavedAt.IsZero() {
			m["savedAt"] = c.SavedAt.UTC().Format(time.RFC3339Nano)
		}
		raw = append(raw, m)
	}
	return raw
}
