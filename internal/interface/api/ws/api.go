package ws

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

type commandsResponse struct {
	Commands []string `json:"commands"`
}

type lastContextResponse struct {
	Datetime    string            `json:"datetime"`
	Network     string            `json:"network"`
	Channel     string            `json:"channel"`
	Nick        string            `json:"nick"`
	Text        string            `json:"text"`
	Environment map[string]string `json:"environment"`
}

func (s *Server) handleCommands(w http.ResponseWriter, r *http.Request) {
	names, err := s.cfg.Commands.ListCommands(r.Context())
	if err != nil {
		s.log.Error("list commands", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not list commands")
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, commandsResponse{Commands: names})
}

func (s *Server) handleLastContext(w http.ResponseWriter, r *http.Request) {
	network := strings.TrimSpace(r.URL.Query().Get("network"))
	channel := strings.TrimSpace(r.URL.Query().Get("channel"))
	if network == "" {
		writeError(w, http.StatusBadRequest, "network is required")
		return
	}

	c, ok := s.cfg.Dispatcher.LastContext(network, channel)
	if !ok {
		writeError(w, http.StatusNotFound, "no context for channel")
		return
	}
	env := c.Environment
	if env == nil {
		env = map[string]string{}
	}
	writeJSON(w, http.StatusOK, lastContextResponse{
		Datetime:    c.Metadata.Datetime.UTC().Format(time.RFC3339),
		Network:     c.Metadata.Network,
		Channel:     c.Metadata.Channel,
		Nick:        c.Metadata.Nick,
		Text:        c.Metadata.Text,
		Environment: env,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
