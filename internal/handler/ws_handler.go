package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-quiz-client/internal/response"
	"github.com/stemsi/exstem-quiz-client/internal/service"
	ws "github.com/stemsi/exstem-quiz-client/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins.
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams view updates and accepts quiz actions over a WebSocket.
type WSHandler struct {
	client   *service.QuizClient
	hub      *ws.Hub
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(client *service.QuizClient, hub *ws.Hub, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		client:   client,
		hub:      hub,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// QuizStream godoc
// WS /ws/v1/quiz/stream
// Sends the current view on connect and every re-rendered view after that.
func (h *WSHandler) QuizStream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	wsLog := h.log.With().Str("request_id", response.RequestID(c)).Logger()

	// gorilla connections allow one concurrent writer.
	var writeMu sync.Mutex
	send := func(v interface{}) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := ws.WriteTyped(conn, v); err != nil {
			wsLog.Debug().Err(err).Msg("Write failed")
		}
	}

	id, views := h.hub.Subscribe()
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for view := range views {
			send(ws.ViewResponse{Event: ws.EventView, View: view})
		}
	}()
	defer wg.Wait()
	defer h.hub.Unsubscribe(id)

	send(ws.ViewResponse{Event: ws.EventView, View: h.client.Render(ctx)})
	wsLog.Info().Str("subscriber", id.String()).Int("viewers", h.hub.Count()).Msg("Viewer connected")

	for {
		var msg ws.RequestPayload
		if err := ws.ReadJSON(conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		switch msg.Action {
		case ws.ActionSelect:
			if msg.QuestionID == "" || msg.Choice == nil {
				send(ws.NewError("question_id and choice are required"))
				continue
			}
			if _, err := h.client.SelectOption(ctx, msg.QuestionID, *msg.Choice); err != nil {
				send(ws.NewError(err.Error()))
			}
		case ws.ActionSubmit:
			result, err := h.client.Submit(ctx)
			if err != nil {
				send(ws.NewError(err.Error()))
				continue
			}
			send(ws.ResultResponse{Event: ws.EventResult, Result: result})
		case ws.ActionReload:
			outcome, err := h.client.Reload(ctx)
			if err != nil && !errors.Is(err, service.ErrStale) {
				send(ws.NewError(err.Error()))
				continue
			}
			send(ws.ReloadResponse{Event: ws.EventReload, Outcome: outcome})
		case ws.ActionPing:
			send(ws.PongResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			send(ws.NewError("unknown action: " + string(msg.Action)))
		}
	}
}
