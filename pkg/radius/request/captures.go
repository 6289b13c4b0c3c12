package request

// Captures holds the captured substrings of the most recent regex
// evaluation on a request. Slot 0 is the whole match. A matching evaluation
// replaces the slots; a non-matching one clears them.
type Captures struct {
	groups []string
}

// Publish replaces the capture slots with the given groups.
func (c *Captures) Publish(groups []string) {
	c.groups = groups
}

// Clear empties the capture slots.
func (c *Captures) Clear() {
	c.groups = nil
}

// Get returns the capture in slot i and whether it exists.
func (c *Captures) Get(i int) (string, bool) {
	if i < 0 || i >= len(c.groups) {
		return "", false
	}
	return c.groups[i], true
}

// Len returns the number of capture slots currently published.
func (c *Captures) Len() int { return len(c.groups) }
