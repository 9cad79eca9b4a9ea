package service

import "sync"

// FallbackColor is returned once every palette colour has been handed out.
const FallbackColor = "#000000"

// palette is the ordered list of badge colours handed out to categories.
var palette = []string{
	"#ff7f50", "#4bbadcff", "#d83765ff", "#feb2b2ff", "#000075", "#b57d97ff",
	"#7f8282ff", "#45fcfcff", "#911eb4", "#008080", "#50454bff", "#d39cf6ff",
	"#3cb44b", "#3c5ac5ff", "#780320ff", "#640174e2", "#eee370ff", "#f032e6",
}

// ColorAssigner gives each category a stable badge colour for the lifetime
// of one session: the first time a category is seen it takes the first
// palette colour no other category holds. Construct one per session.
type ColorAssigner struct {
	mu       sync.Mutex
	assigned map[string]string
	used     map[string]bool
}

// NewColorAssigner returns an assigner with no categories assigned.
func NewColorAssigner() *ColorAssigner {
	return &ColorAssigner{
		assigned: make(map[string]string),
		used:     make(map[string]bool),
	}
}

// Color returns the colour for category, assigning one on first use.
func (c *ColorAssigner) Color(category string) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if color, ok := c.assigned[category]; ok {
		return color
	}
	color := FallbackColor
	for _, p := range palette {
		if !c.used[p] {
			color = p
			break
		}
	}
	c.assigned[category] = color
	c.used[color] = true
	return color
}
