package ws

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"pladderBot/internal/domain"
)

// commandRequest es un frame de /ws/command. Timestamp en segundos Unix.
type commandRequest struct {
	Timestamp int64  `json:"timestamp"`
	Network   string `json:"network"`
	Channel   string `json:"channel"`
	Nick      string `json:"nick"`
	Text      string `json:"text"`
}

func (r commandRequest) message() domain.Message {
	ts := time.Now().UTC()
	if r.Timestamp > 0 {
		ts = time.Unix(r.Timestamp, 0).UTC()
	}
	network := domain.Platform(strings.ToLower(strings.TrimSpace(r.Network)))
	if network == "" {
		network = domain.PlatformAPI
	}
	nick := strings.TrimSpace(r.Nick)
	if nick == "" {
		nick = "web-user"
	}
	return domain.Message{
		Timestamp: ts,
		Network:   network,
		Channel:   strings.TrimSpace(r.Channel),
		Nick:      nick,
		Text:      r.Text,
	}
}

// maxFrameSize cubre un texto de 10000 runas aun con todo escapado en JSON
// (\uXXXX por runa) más los demás campos.
const maxFrameSize = 64 << 10

var (
	throttled      = domain.Result{Text: "", Command: domain.ResultCommandError}
	invalidRequest = domain.Result{Text: "Error: invalid request", Command: domain.ResultCommandError}
)

func (s *Server) newLimiter() *rate.Limiter {
	burst := int(s.cfg.Rate)
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(s.cfg.Rate), burst)
}

// handleCommandWS atiende un frame a la vez por conexión; la respuesta sale en
// el mismo orden que las peticiones.
func (s *Server) handleCommandWS(w http.ResponseWriter, r *http.Request) {
	client, err := s.upgrade(w, r)
	if err != nil {
		return
	}
	defer s.release(client)
	client.conn.SetReadLimit(maxFrameSize)

	limiter := s.newLimiter()
	ctx := r.Context()

	for {
		msgType, data, err := client.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Debug("read error", zap.Error(err))
			}
			return
		}
		if msgType != websocket.TextMessage {
			continue
		}

		res := s.runFrame(r, limiter, data)
		if err := client.writeJSON(res); err != nil {
			s.log.Debug("write error", zap.Error(err))
			return
		}
		if ctx.Err() != nil {
			return
		}
	}
}

func (s *Server) runFrame(r *http.Request, limiter *rate.Limiter, data []byte) domain.Result {
	if !limiter.Allow() {
		s.log.Debug("throttled", zap.String("remote", r.RemoteAddr))
		return throttled
	}
	var req commandRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return invalidRequest
	}
	if strings.TrimSpace(req.Text) == "" {
		return invalidRequest
	}
	return s.cfg.Dispatcher.RunCommand(r.Context(), req.message())
}
