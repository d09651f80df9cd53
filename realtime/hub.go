// Package realtime раздает события рабочего пространства подключенным
// браузерам. Комната — это команда: все, кто открыл workspace команды,
// получают одни и те же снимки доски и статусы сохранения.
package realtime

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Типы исходящих событий.
const (
	EventBoardSnapshot = "BOARD_SNAPSHOT"
	EventTeamSaved     = "TEAM_SAVED"
	EventSaveError     = "SAVE_ERROR"
)

type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
	RoomID  string `json:"room_id,omitempty"`
}

type Hub struct {
	Register   chan *Client
	Unregister chan *Client

	rooms  map[string]map[*Client]bool
	mu     sync.RWMutex
	logger *slog.Logger
	done   chan struct{}
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		rooms:      make(map[string]map[*Client]bool),
		logger:     logger,
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			return

		case client := <-h.Register:
			h.mu.Lock()
			if _, ok := h.rooms[client.Room]; !ok {
				h.rooms[client.Room] = make(map[*Client]bool)
			}
			h.rooms[client.Room][client] = true
			h.logger.Info("workspace client joined",
				slog.String("room", client.Room),
				slog.Int("clients", len(h.rooms[client.Room])))
			h.mu.Unlock()

		case client := <-h.Unregister:
			h.mu.Lock()
			if clients, ok := h.rooms[client.Room]; ok {
				if _, okClient := clients[client]; okClient {
					client.markClosed()
					delete(clients, client)
					if len(clients) == 0 {
						delete(h.rooms, client.Room)
					}
					h.logger.Info("workspace client left",
						slog.String("room", client.Room),
						slog.Int("clients", len(clients)))
				}
			}
			h.mu.Unlock()
		}
	}
}

// Stop завершает цикл Run и закрывает всех клиентов.
func (h *Hub) Stop() {
	close(h.done)
	h.mu.Lock()
	defer h.mu.Unlock()
	for room, clients := range h.rooms {
		for client := range clients {
			client.markClosed()
		}
		delete(h.rooms, room)
	}
}

// BroadcastToRoom отправляет событие всем клиентам комнаты. Медленные
// клиенты пропускают сообщение, а не тормозят остальных.
func (h *Hub) BroadcastToRoom(roomID string, msg Message) {
	msg.RoomID = roomID

	body, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("failed to marshal room message",
			slog.String("room", roomID), slog.Any("error", err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.rooms[roomID] {
		client.enqueue(body)
	}
}

// RoomSize возвращает число клиентов в комнате.
func (h *Hub) RoomSize(roomID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[roomID])
}
