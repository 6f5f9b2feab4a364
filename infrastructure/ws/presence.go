package ws

import "sync"

// Presence maps a user id to its live connection. At most one entry per
// user; a later connection displaces an earlier one.
type Presence struct {
	mu      sync.RWMutex
	clients map[string]*UserClient
}

func NewPresence() *Presence {
	return &Presence{
		clients: make(map[string]*UserClient),
	}
}

// Set registers the connection for the user and returns the displaced
// connection, if any.
func (p *Presence) Set(client *UserClient) *UserClient {
	p.mu.Lock()
	defer p.mu.Unlock()

	old := p.clients[client.UserId]
	if old == client {
		return nil
	}
	p.clients[client.UserId] = client
	return old
}

func (p *Presence) Get(userId string) (*UserClient, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	client, ok := p.clients[userId]
	return client, ok
}

func (p *Presence) IsOnline(userId string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.clients[userId]
	return ok
}

// Remove evicts the user's entry only if it still belongs to this
// connection. A teardown racing a reconnect must not remove the fresh
// connection's entry.
func (p *Presence) Remove(client *UserClient) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	current, ok := p.clients[client.UserId]
	if !ok || current != client {
		return false
	}
	delete(p.clients, client.UserId)
	return true
}

func (p *Presence) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.clients)
}
