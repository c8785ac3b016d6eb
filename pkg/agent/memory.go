package agent

// Role tags a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in the conversation history. Seq increases across the
// lifetime of the Memory, so evicted turns leave gaps at the front.
type Turn struct {
	Role    Role
	Content string
	Seq     int
}

// Memory keeps the most recent user/assistant exchanges, evicting the oldest
// pair first once the window is full.
type Memory struct {
	window int
	turns  []Turn
	next   int
}

// NewMemory returns a window of at most pairs user/assistant exchanges.
// A window of 0 keeps nothing.
func NewMemory(pairs int) *Memory {
	if pairs < 0 {
		pairs = 0
	}
	return &Memory{window: pairs}
}

// Append records a completed exchange and trims the window.
func (m *Memory) Append(user, assistant string) {
	m.turns = append(m.turns,
		Turn{Role: RoleUser, Content: user, Seq: m.next},
		Turn{Role: RoleAssistant, Content: assistant, Seq: m.next + 1},
	)
	m.next += 2

	if excess := len(m.turns) - 2*m.window; excess > 0 {
		m.turns = append([]Turn(nil), m.turns[excess:]...)
	}
}

// Turns returns a copy of the retained turns, oldest first.
func (m *Memory) Turns() []Turn {
	return append([]Turn(nil), m.turns...)
}

// Pairs returns the number of retained exchanges.
func (m *Memory) Pairs() int {
	return len(m.turns) / 2
}

// Window returns the configured capacity in exchanges.
func (m *Memory) Window() int {
	return m.window
}

// Clear drops all retained turns.
func (m *Memory) Clear() {
	m.turns = nil
}
