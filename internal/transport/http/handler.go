package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/cwrk-planet/watch-party/internal/domain"
	"github.com/cwrk-planet/watch-party/internal/service"
	"github.com/cwrk-planet/watch-party/pkg/errs"
	"github.com/cwrk-planet/watch-party/pkg/httputil"
	"github.com/cwrk-planet/watch-party/pkg/logger"

	"github.com/go-chi/chi/v5"
)

type Handler struct {
	roomSvc *service.RoomService
	chatSvc *service.ChatService
}

func NewHandler(room *service.RoomService, chat *service.ChatService) *Handler {
	return &Handler{
		roomSvc: room,
		chatSvc: chat,
	}
}

func writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := errs.ToHTTP(err)
	if status >= http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error("handler."+op, logger.Err(err))
		httputil.Error(w, status, "internal error")
		return
	}
	httputil.Error(w, status, err.Error())
}

// GET /create-room?username=
func (h *Handler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	room, err := h.roomSvc.CreateRoom(r.Context(), r.URL.Query().Get("username"))
	if err != nil {
		writeError(w, r, "CreateRoom", err)
		return
	}
	httputil.OK(w, CreateRoomResponse{RoomCode: room.Code})
}

// GET /set-room-details/{code}?url=&movieTitle=
func (h *Handler) SetRoomDetails(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if err := h.roomSvc.SetDetails(r.Context(), chi.URLParam(r, "code"), q.Get("url"), q.Get("movieTitle")); err != nil {
		writeError(w, r, "SetRoomDetails", err)
		return
	}
	httputil.OK(w, SuccessResponse{Success: true})
}

// GET /time/{code}
func (h *Handler) GetTime(w http.ResponseWriter, r *http.Request) {
	cur, err := h.roomSvc.CurrentTime(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, r, "GetTime", err)
		return
	}
	httputil.OK(w, TimeResponse{CurrentTime: cur})
}

// GET /room-details/{code}
func (h *Handler) GetRoomDetails(w http.ResponseWriter, r *http.Request) {
	s, err := h.roomSvc.Details(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, r, "GetRoomDetails", err)
		return
	}

	resp := RoomDetailsResponse{
		VideoURL:   s.MediaTarget,
		RoomName:   s.DisplayName,
		MovieTitle: s.MediaTitle,
		Chat:       make([]ChatMessageItem, 0, len(s.Chat)),
	}
	for _, m := range s.Chat {
		resp.Chat = append(resp.Chat, toChatItem(m))
	}
	httputil.OK(w, resp)
}

// GET /rooms
func (h *Handler) ListRooms(w http.ResponseWriter, r *http.Request) {
	rooms := h.roomSvc.ListRooms(r.Context())
	items := make([]RoomItem, 0, len(rooms))
	for _, rm := range rooms {
		items = append(items, RoomItem{
			Code:       rm.Code,
			RoomName:   rm.DisplayName,
			MovieTitle: rm.MediaTitle,
		})
	}
	httputil.OK(w, items)
}

// POST /send-message/{code}
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, r, "SendMessage", errs.New(errs.ErrTooLarge, "request body too large"))
			return
		}
		writeError(w, r, "SendMessage", errs.New(errs.ErrInvalidInput, "invalid json"))
		return
	}

	_, err := h.chatSvc.Post(r.Context(), chi.URLParam(r, "code"), service.PostMessage{
		Username:       req.Username,
		ProfilePicture: req.ProfilePicture,
		Message:        req.Message,
	})
	if err != nil {
		writeError(w, r, "SendMessage", err)
		return
	}
	httputil.OK(w, SuccessResponse{Success: true})
}

func toChatItem(m domain.ChatMessage) ChatMessageItem {
	return ChatMessageItem{
		Username:       m.SenderName,
		ProfilePicture: m.AvatarRef,
		Message:        m.Body,
		Timestamp:      m.SentAt.UnixMilli(),
	}
}
