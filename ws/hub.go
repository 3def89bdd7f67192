package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

type Client struct {
	Conn *websocket.Conn
	Send chan []byte
}

type Hub struct {
	// Các client đang theo dõi hoạt động upload (trang quản trị)
	GlobalClients map[*websocket.Conn]*Client
	Mutex         sync.RWMutex
}

var H = Hub{
	GlobalClients: make(map[*websocket.Conn]*Client),
}

// Thông báo đẩy khi một user lưu xong batch upload
type UploadActivity struct {
	Type        string `json:"type"`
	UserID      string `json:"user_id"`
	StoredCount int    `json:"stored_count"`
}

func (h *Hub) RegisterGlobal(conn *websocket.Conn) {
	h.Mutex.Lock()
	defer h.Mutex.Unlock()

	client := &Client{
		Conn: conn,
		Send: make(chan []byte, 256),
	}

	h.GlobalClients[conn] = client

	go h.readGlobalPump(conn)
	go h.writeGlobalPump(conn)
}

func (h *Hub) UnregisterGlobal(conn *websocket.Conn) {
	h.Mutex.Lock()
	defer h.Mutex.Unlock()

	if client, ok := h.GlobalClients[conn]; ok {
		close(client.Send)
		delete(h.GlobalClients, conn)
	}
}

// BroadcastGlobal gửi cho toàn bộ client đang kết nối
func (h *Hub) BroadcastGlobal(data []byte) {
	h.Mutex.RLock()
	defer h.Mutex.RUnlock()

	for _, client := range h.GlobalClients {
		select {
		case client.Send <- data:
		default:
		}
	}
}

// SendTo đẩy message cho một client cụ thể qua write pump của nó. Giữ RLock
// trong lúc gửi để Unregister (cần Lock) không close channel giữa chừng.
func (h *Hub) SendTo(conn *websocket.Conn, data []byte) {
	h.Mutex.RLock()
	defer h.Mutex.RUnlock()

	if client, ok := h.GlobalClients[conn]; ok {
		select {
		case client.Send <- data:
		default:
		}
	}
}

// GetStats trả số client đang kết nối (cho health check)
func (h *Hub) GetStats() map[string]int {
	h.Mutex.RLock()
	defer h.Mutex.RUnlock()

	return map[string]int{
		"global_clients": len(h.GlobalClients),
	}
}

// BroadcastUploadActivity báo cho trang quản trị là danh sách tài liệu đã thay đổi
func BroadcastUploadActivity(userID string, storedCount int) {
	activity := UploadActivity{
		Type:        "document_list_changed",
		UserID:      userID,
		StoredCount: storedCount,
	}
	data, err := json.Marshal(activity)
	if err != nil {
		log.Println("JSON marshal error:", err)
		return
	}
	H.BroadcastGlobal(data)
}

func (h *Hub) readGlobalPump(conn *websocket.Conn) {
	defer h.UnregisterGlobal(conn)
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

func (h *Hub) writeGlobalPump(conn *websocket.Conn) {
	h.Mutex.RLock()
	client := h.GlobalClients[conn]
	h.Mutex.RUnlock()
	if client == nil {
		return
	}

	defer func() {
		conn.WriteMessage(websocket.CloseMessage, []byte{})
		conn.Close()
	}()
	for msg := range client.Send {
		if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			break
		}
	}
}
