package ws

import "log"

// Hub owns the presence registry and the room registry. Registration
// and teardown go through the Run loop, matching the lifetime of each
// connection's pumps; sends and room operations take the registries'
// locks directly.
type Hub struct {
	presence *Presence
	rooms    *RoomRegistry

	Register   chan *UserClient
	Unregister chan *UserClient

	OnClientUnregister func(client *UserClient) error
}

func NewHub() IHub {
	return &Hub{
		presence:   NewPresence(),
		rooms:      NewRoomRegistry(),
		Register:   make(chan *UserClient),
		Unregister: make(chan *UserClient),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			if old := h.presence.Set(client); old != nil {
				// Last connection wins: displace the previous one.
				h.rooms.LeaveAll(old)
				old.CloseSend()
				log.Printf("%s reconnected, displacing previous connection", client.UserId)
			}
			log.Printf("%s is connected", client.UserId)

		case client := <-h.Unregister:
			h.rooms.LeaveAll(client)
			if h.presence.Remove(client) {
				client.CloseSend()
				log.Printf("%s is disconnected", client.UserId)
			}

			if h.OnClientUnregister != nil {
				if err := h.OnClientUnregister(client); err != nil {
					log.Printf("OnClientUnregister error: %v", err)
				}
			}
		}
	}
}

func (h *Hub) RegisterClient(client *UserClient) {
	h.Register <- client
}

func (h *Hub) UnregisterClient(client *UserClient) {
	h.Unregister <- client
}

func (h *Hub) JoinRoom(roomId string, client *UserClient) {
	h.rooms.Join(roomId, client)
}

func (h *Hub) LeaveRoom(roomId string, client *UserClient) {
	h.rooms.Leave(roomId, client)
}

func (h *Hub) BroadcastToRoom(roomId string, payload []byte, exclude ...string) {
	h.rooms.Broadcast(roomId, payload, exclude...)
}

// SendToUser delivers directly to the user's connection if one is
// registered. Best effort: offline users and full send buffers are
// silently skipped.
func (h *Hub) SendToUser(userId string, payload []byte) {
	client, ok := h.presence.Get(userId)
	if !ok {
		return
	}
	if !client.Send(payload) {
		log.Printf("Failed to send to client: %s", userId)
	}
}

func (h *Hub) IsOnline(userId string) bool {
	return h.presence.IsOnline(userId)
}

func (h *Hub) GetClientCount() int {
	return h.presence.Count()
}

func (h *Hub) SetOnClientUnregister(callback func(client *UserClient) error) {
	h.OnClientUnregister = callback
}
