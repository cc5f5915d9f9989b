package domain

import "time"

type Platform string

const (
	PlatformTwitch Platform = "twitch"
	PlatformKick   Platform = "kick"
	PlatformAPI    Platform = "api"
)

// Message es una línea de chat dirigida al bot, tal como la entrega un conector.
type Message struct {
	Timestamp time.Time
	Network   Platform
	Channel   string
	Nick      string
	Text      string
}

// Result es lo único que cruza la frontera del núcleo hacia el transporte.
type Result struct {
	Text    string `json:"text"`
	Command string `json:"command"`
}

// ResultCommandError marca resultados que no vienen de un comando exitoso.
const ResultCommandError = "error"

func (r Result) IsError() bool {
	return r.Command == ResultCommandError
}

func (p Platform) String() string {
	return string(p)
}
