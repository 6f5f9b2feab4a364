package ws

import "sync"

// RoomRegistry tracks which connections are subscribed to which rooms.
// Both directions are kept so a leaving connection can be dropped from
// all of its rooms without scanning.
type RoomRegistry struct {
	mu      sync.RWMutex
	rooms   map[string]map[*UserClient]struct{}
	members map[*UserClient]map[string]struct{}
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{
		rooms:   make(map[string]map[*UserClient]struct{}),
		members: make(map[*UserClient]map[string]struct{}),
	}
}

func (r *RoomRegistry) Join(roomId string, client *UserClient) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.rooms[roomId] == nil {
		r.rooms[roomId] = make(map[*UserClient]struct{})
	}
	r.rooms[roomId][client] = struct{}{}

	if r.members[client] == nil {
		r.members[client] = make(map[string]struct{})
	}
	r.members[client][roomId] = struct{}{}
}

func (r *RoomRegistry) Leave(roomId string, client *UserClient) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(roomId, client)
}

// LeaveAll unsubscribes the connection from every room it joined.
func (r *RoomRegistry) LeaveAll(client *UserClient) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for roomId := range r.members[client] {
		r.leaveLocked(roomId, client)
	}
}

func (r *RoomRegistry) leaveLocked(roomId string, client *UserClient) {
	if clients, ok := r.rooms[roomId]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(r.rooms, roomId)
		}
	}
	if roomIds, ok := r.members[client]; ok {
		delete(roomIds, roomId)
		if len(roomIds) == 0 {
			delete(r.members, client)
		}
	}
}

// Broadcast enqueues the payload on every subscriber of the room,
// skipping the users named in exclude. Slow consumers are skipped, not
// waited on.
func (r *RoomRegistry) Broadcast(roomId string, payload []byte, exclude ...string) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for client := range r.rooms[roomId] {
		if excluded(client.UserId, exclude) {
			continue
		}
		client.Send(payload)
	}
}

func (r *RoomRegistry) RoomSize(roomId string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms[roomId])
}

func (r *RoomRegistry) Rooms(client *UserClient) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	roomIds := make([]string, 0, len(r.members[client]))
	for roomId := range r.members[client] {
		roomIds = append(roomIds, roomId)
	}
	return roomIds
}

func excluded(userId string, exclude []string) bool {
	for _, e := range exclude {
		if e == userId {
			return true
		}
	}
	return false
}
