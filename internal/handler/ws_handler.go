package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	gorillaws "github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/servimatch/skilltest-backend/internal/middleware"
	"github.com/servimatch/skilltest-backend/internal/model"
	"github.com/servimatch/skilltest-backend/internal/service"
	ws "github.com/servimatch/skilltest-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) gorillaws.Upgrader {
	return gorillaws.Upgrader{
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

// WSHandler streams a live attempt over WebSocket: answers, navigation
// and submission travel as actions; the server pushes the authoritative
// countdown once per second.
type WSHandler struct {
	attempts *service.AttemptService
	log      zerolog.Logger
	upgrader gorillaws.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(attempts *service.AttemptService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		attempts: attempts,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// AttemptStream godoc
// WS /ws/v1/provider/attempts/stream
// Upgrades to WebSocket for a live attempt. Requires an active session.
func (h *WSHandler) AttemptStream(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	providerID := claims.ProviderID

	sess, err := h.attempts.Session(c.Request.Context(), providerID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active attempt"})
		return
	}

	raw, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	conn := ws.NewConn(raw)
	defer conn.Close()

	wsLog := h.log.With().Int("provider_id", providerID).Logger()
	wsLog.Info().Msg("Provider connected")

	// Push the authoritative countdown. Detached on disconnect so a stale
	// connection never holds the session.
	sess.OnTick(func(remaining int) {
		if werr := conn.WriteTyped(ws.TickResponse{Event: ws.EventTick, RemainingSeconds: remaining}); werr != nil {
			wsLog.Debug().Err(werr).Msg("Tick push failed")
		}
	})
	defer sess.OnTick(nil)

	conn.WriteTyped(ws.StateResponse{Event: ws.EventState, State: sess.State()})

	for {
		var msg ws.RequestPayload
		if err := conn.ReadJSON(&msg); err != nil {
			if ws.IsUnexpectedClose(err) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			break
		}

		switch msg.Action {
		case ws.ActionAnswer:
			h.handleAnswer(c, conn, providerID, &msg)
		case ws.ActionAdvance:
			h.handleAdvance(c, conn, wsLog, providerID)
		case ws.ActionBack:
			h.handleBack(c, conn, providerID)
		case ws.ActionSubmit:
			h.handleSubmit(c, conn, wsLog, providerID)
		case ws.ActionPing:
			conn.WriteTyped(ws.PongResponse{Event: ws.EventPong})
		default:
			wsLog.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
			conn.WriteError("unknown action: " + string(msg.Action))
		}
	}
}

func (h *WSHandler) handleAnswer(c *gin.Context, conn *ws.Conn, providerID int, msg *ws.RequestPayload) {
	if msg.QID == "" {
		conn.WriteError("q_id is required")
		return
	}

	err := h.attempts.RecordAnswer(c.Request.Context(), providerID, &model.RecordAnswerRequest{
		QuestionID: msg.QID,
		Value:      msg.Value,
		Values:     msg.Values,
	})
	if err != nil {
		conn.WriteError(err.Error())
		return
	}
	conn.WriteTyped(ws.SavedResponse{Event: ws.EventSaved, Status: "saved"})
}

func (h *WSHandler) handleAdvance(c *gin.Context, conn *ws.Conn, wsLog zerolog.Logger, providerID int) {
	submitted, err := h.attempts.Advance(c.Request.Context(), providerID)
	if err != nil {
		conn.WriteError(err.Error())
		return
	}
	if submitted {
		h.writeOutcome(c, conn, wsLog, providerID)
		return
	}

	view, err := h.attempts.State(c.Request.Context(), providerID)
	if err != nil {
		conn.WriteError(err.Error())
		return
	}
	conn.WriteTyped(ws.StateResponse{Event: ws.EventState, State: view.State})
}

func (h *WSHandler) handleBack(c *gin.Context, conn *ws.Conn, providerID int) {
	if err := h.attempts.GoBack(c.Request.Context(), providerID); err != nil {
		conn.WriteError(err.Error())
		return
	}

	view, err := h.attempts.State(c.Request.Context(), providerID)
	if err != nil {
		conn.WriteError(err.Error())
		return
	}
	conn.WriteTyped(ws.StateResponse{Event: ws.EventState, State: view.State})
}

func (h *WSHandler) handleSubmit(c *gin.Context, conn *ws.Conn, wsLog zerolog.Logger, providerID int) {
	if err := h.attempts.Submit(c.Request.Context(), providerID); err != nil {
		conn.WriteError(err.Error())
		return
	}
	h.writeOutcome(c, conn, wsLog, providerID)
}

func (h *WSHandler) writeOutcome(c *gin.Context, conn *ws.Conn, wsLog zerolog.Logger, providerID int) {
	result, err := h.attempts.Result(c.Request.Context(), providerID)
	if err != nil {
		conn.WriteError(err.Error())
		return
	}

	wsLog.Info().
		Float64("score", result.Score).
		Bool("passed", result.Passed).
		Msg("Attempt submitted and graded")
	conn.WriteTyped(ws.GradedResponse{
		Event:  ws.EventGraded,
		Status: "completed",
		Score:  result.Score,
		Passed: result.Passed,
	})
}
