package ws

import (
	"net/http"

	"go.uber.org/zap"

	"pladderBot/internal/app/events"
)

type eventEnvelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// handleEventsWS reenvía cada resultado publicado en el bus. Lo que el
// cliente mande se descarta; una lectura fallida cierra la conexión.
func (s *Server) handleEventsWS(w http.ResponseWriter, r *http.Request) {
	// La suscripción va antes del upgrade para no perder eventos publicados
	// justo después del handshake.
	ch, unsubscribe := s.cfg.Events.Subscribe(events.TopicCommandResult)
	defer unsubscribe()

	client, err := s.upgrade(w, r)
	if err != nil {
		return
	}
	defer s.release(client)

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := client.conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			return
		case <-r.Context().Done():
			return
		case payload, ok := <-ch:
			if !ok {
				return
			}
			if err := client.writeJSON(eventEnvelope{Type: events.TopicCommandResult, Data: payload}); err != nil {
				s.log.Debug("events write error", zap.Error(err))
				return
			}
		}
	}
}
