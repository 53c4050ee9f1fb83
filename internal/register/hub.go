package register

import "sync"

// Hub hands out one Register per terminal identifier, creating it on first
// use. Registers live for the process lifetime; a terminal reconnecting gets
// its previous in-memory cart back.
type Hub struct {
	mu        sync.Mutex
	registers map[string]*Register
	factory   func(terminalID string) *Register
}

// NewHub creates a Hub that builds registers with the given factory.
func NewHub(factory func(terminalID string) *Register) *Hub {
	return &Hub{
		registers: make(map[string]*Register),
		factory:   factory,
	}
}

// Get returns the register for the terminal, creating it if needed.
func (h *Hub) Get(terminalID string) *Register {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.registers[terminalID]
	if !ok {
		r = h.factory(terminalID)
		h.registers[terminalID] = r
	}
	return r
}
