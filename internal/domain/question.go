package domain

// OptionKeys are the four labeled options every bank question carries.
var OptionKeys = []string{"a", "b", "c", "d"}

// Question is a traffic-law question as the bank exposes it to the session
// manager. The correct-option key deliberately has no field here: correctness
// is only reachable through the bank's Validate call, so a serialized session
// can never leak the answer.
type Question struct {
	ID      string            `json:"id"`
	Text    string            `json:"text"`
	Options map[string]string `json:"options"` // key -> option text
	Active  bool              `json:"active"`
}
