package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/emojikey/emojikey-server/internal/config"
	"github.com/emojikey/emojikey-server/internal/observability"
	"github.com/emojikey/emojikey-server/internal/protocol"
	"github.com/emojikey/emojikey-server/internal/service"
)

var errUnknownTool = errors.New("unknown tool")

type Server struct {
	cfg      config.Config
	svc      *service.Service
	upgrader websocket.Upgrader
}

func New(cfg config.Config, svc *service.Service) *Server {
	return &Server{
		cfg: cfg,
		svc: svc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				// Only allow browser websocket connections from the same
				// origin unless explicitly opened up. Non-browser clients
				// usually omit Origin and are allowed through.
				if cfg.AllowAnyOrigin {
					return true
				}
				origin := strings.TrimSpace(r.Header.Get("Origin"))
				if origin == "" {
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				if u.Scheme != "http" && u.Scheme != "https" {
					return false
				}
				return strings.EqualFold(u.Host, r.Host)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Get("/v1/tools", s.handleListTools)
	r.Get("/v1/tools/ws", s.handleToolWS)
	r.Post("/v1/tools/{name}", s.handleToolCall)
	r.Post("/v1/conversations/{id}/samples", s.handleIngestSample)

	return r
}

func (s *Server) storeMode() string {
	if strings.TrimSpace(s.cfg.DatabaseURL) != "" {
		return "postgres"
	}
	return "local"
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"store_mode": s.storeMode(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":     "ready",
		"store_mode": s.storeMode(),
	})
}

func (s *Server) handleListTools(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"tools": protocol.Tools()})
}

type toolResponse struct {
	Tool string `json:"tool"`
	Text string `json:"text"`
}

func (s *Server) handleToolCall(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var args protocol.ToolArgs
	if err := decodeJSON(r, &args); err != nil && !errors.Is(err, errEmptyBody) {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	text, err := s.dispatch(r, name, args)
	if err != nil {
		status, code := toolErrorStatus(err)
		respondError(w, status, code, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, toolResponse{Tool: name, Text: text})
}

type sampleRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleIngestSample(w http.ResponseWriter, r *http.Request) {
	conversationID := chi.URLParam(r, "id")
	if strings.TrimSpace(conversationID) == "" {
		respondError(w, http.StatusBadRequest, "invalid_conversation_id", "missing conversation id")
		return
	}

	var req sampleRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "missing message")
		return
	}

	s.svc.IngestSample(conversationID, req.Message)
	respondJSON(w, http.StatusAccepted, map[string]any{"status": "buffered"})
}

func (s *Server) handleToolWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
		return nil
	})

	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		call, err := protocol.ParseClientMessage(data)
		if err != nil {
			if writeErr := s.writeWS(conn, protocol.NewErrorEvent("", "invalid_client_message", err.Error())); writeErr != nil {
				return
			}
			continue
		}

		text, err := s.dispatch(r, call.Tool, call.Args)
		if err != nil {
			_, code := toolErrorStatus(err)
			if writeErr := s.writeWS(conn, protocol.NewErrorEvent(call.ID, code, err.Error())); writeErr != nil {
				return
			}
			continue
		}
		if err := s.writeWS(conn, protocol.NewToolResult(call, text)); err != nil {
			return
		}
	}
}

func (s *Server) writeWS(conn *websocket.Conn, msg any) error {
	_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return conn.WriteJSON(msg)
}

func (s *Server) dispatch(r *http.Request, name string, args protocol.ToolArgs) (string, error) {
	ctx := r.Context()
	switch name {
	case protocol.ToolInitializeConversation:
		return s.svc.Initialize(ctx)
	case protocol.ToolGetEmojikey:
		return s.svc.Get(ctx, args.ConversationID)
	case protocol.ToolSetEmojikey:
		return s.svc.Set(ctx, args.ConversationID, args.Emojikey)
	case protocol.ToolCreateSuperkey:
		return s.svc.CreateSuperkey(ctx, args.ConversationID, args.Superkey)
	case protocol.ToolGetEmojikeyHistory:
		return s.svc.History(ctx, args.ConversationID, args.Limit)
	default:
		return "", errUnknownTool
	}
}

func toolErrorStatus(err error) (int, string) {
	var authErr *service.AuthError
	var validationErr *service.ValidationError
	switch {
	case errors.Is(err, errUnknownTool):
		return http.StatusNotFound, "unknown_tool"
	case errors.As(err, &authErr):
		return http.StatusUnauthorized, "invalid_api_key"
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, "invalid_arguments"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
