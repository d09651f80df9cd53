package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/leaguehq/team-workspace/autosave"
	"github.com/leaguehq/team-workspace/board"
	"github.com/leaguehq/team-workspace/middleware"
	"github.com/leaguehq/team-workspace/realtime"
	"github.com/leaguehq/team-workspace/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// В продакшене здесь должна быть проверка Origin,
		// чтобы разрешать подключения только с доверенных доменов.
		return true
	},
}

// Типы входящих сообщений workspace-сокета.
const (
	inboundTeamDraft     = "team_draft"
	inboundTeamFlush     = "team_flush"
	inboundMediaPosition = "media_position"
)

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type mediaPositionPayload struct {
	ItemID        string  `json:"item_id"`
	X             float64 `json:"x"`
	Y             float64 `json:"y"`
	ViewportWidth float64 `json:"viewport_width"`
	ItemWidth     float64 `json:"item_width"`
}

type WebSocketHandler struct {
	hub         *realtime.Hub
	boards      *board.Manager
	teamService services.TeamService
	logger      *slog.Logger
}

func NewWebSocketHandler(hub *realtime.Hub, boards *board.Manager, ts services.TeamService, logger *slog.Logger) *WebSocketHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebSocketHandler{
		hub:         hub,
		boards:      boards,
		teamService: ts,
		logger:      logger,
	}
}

// ServeWs подключает клиента к workspace команды: /ws/teams/{teamID}.
// Соединение получает снимки доски и статусы сохранения, а принимает
// черновики команды и перемещения элементов.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	teamID, err := getParamFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "failed to identify current user")
		return
	}

	if _, err := h.teamService.GetTeamByID(r.Context(), teamID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	// Синк доски живет в контексте менеджера: r.Context() отменяется, как
	// только ServeWs вернется, а подписка должна пережить апгрейд.
	sync, err := h.boards.Acquire(teamID)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader.Upgrade сам отправляет HTTP-ошибку клиенту.
		h.boards.Release(teamID)
		h.logger.Warn("failed to upgrade websocket",
			slog.String("team_id", teamID), slog.Any("error", err))
		return
	}

	roomID := sync.RoomID()
	client := realtime.NewClient(h.hub, conn, roomID, h.logger)
	session := h.newSession(teamID, roomID, currentUserID, sync)
	client.OnMessage = session.handle

	client.Hub.Register <- client

	go client.WritePump()
	go func() {
		client.ReadPump()
		// ReadPump возвращается при отключении клиента: демонтируем
		// автосохранение черновика (дожидаясь записи в полете) и
		// отпускаем ссылку на доску.
		session.close()
		h.boards.Release(teamID)
	}()

	// Новый клиент сразу получает текущий снимок доски.
	if body, err := json.Marshal(realtime.Message{
		Type:    realtime.EventBoardSnapshot,
		Payload: sync.Items(),
		RoomID:  roomID,
	}); err == nil {
		client.Send <- body
	}
}

// session — состояние одного workspace-соединения: контроллер
// автосохранения черновика команды от имени этого пользователя.
type session struct {
	teamID string
	roomID string
	userID string
	sync   *board.Sync
	hub    *realtime.Hub
	draft  *autosave.Controller[services.UpdateTeamInput]
	logger *slog.Logger
}

func (h *WebSocketHandler) newSession(teamID, roomID, userID string, sync *board.Sync) *session {
	s := &session{
		teamID: teamID,
		roomID: roomID,
		userID: userID,
		sync:   sync,
		hub:    h.hub,
		logger: h.logger,
	}
	s.draft = autosave.New(func(ctx context.Context, input services.UpdateTeamInput) error {
		team, err := h.teamService.UpdateTeam(ctx, teamID, input, userID)
		if err != nil {
			s.hub.BroadcastToRoom(roomID, realtime.Message{
				Type:    realtime.EventSaveError,
				Payload: jsonResponse{"error": err.Error()},
			})
			return err
		}
		s.hub.BroadcastToRoom(roomID, realtime.Message{
			Type:    realtime.EventTeamSaved,
			Payload: jsonResponse{"team": team},
		})
		return nil
	})
	return s
}

func (s *session) handle(data []byte) {
	var msg inboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.logger.Warn("malformed workspace message",
			slog.String("room", s.roomID), slog.Any("error", err))
		return
	}

	switch msg.Type {
	case inboundTeamDraft:
		var input services.UpdateTeamInput
		if err := json.Unmarshal(msg.Payload, &input); err != nil {
			s.logger.Warn("malformed team draft payload",
				slog.String("room", s.roomID), slog.Any("error", err))
			return
		}
		s.draft.Set(input)

	case inboundTeamFlush:
		s.draft.Flush()

	case inboundMediaPosition:
		var pos mediaPositionPayload
		if err := json.Unmarshal(msg.Payload, &pos); err != nil {
			s.logger.Warn("malformed media position payload",
				slog.String("room", s.roomID), slog.Any("error", err))
			return
		}
		if err := s.sync.ReportPosition(pos.ItemID, pos.X, pos.Y, pos.ViewportWidth, pos.ItemWidth); err != nil {
			s.logger.Warn("failed to report media position",
				slog.String("item_id", pos.ItemID), slog.Any("error", err))
		}

	default:
		s.logger.Warn("unknown workspace message type",
			slog.String("type", msg.Type), slog.String("room", s.roomID))
	}
}

func (s *session) close() {
	s.draft.Close()
}
