package ws

type IHub interface {
	Run()
	RegisterClient(client *UserClient)
	UnregisterClient(client *UserClient)
	JoinRoom(roomId string, client *UserClient)
	LeaveRoom(roomId string, client *UserClient)
	BroadcastToRoom(roomId string, payload []byte, exclude ...string)
	SendToUser(userId string, payload []byte)
	IsOnline(userId string) bool
	GetClientCount() int
	SetOnClientUnregister(callback func(client *UserClient) error)
}
