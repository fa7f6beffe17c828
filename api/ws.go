package api

import (
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"regex-workbench/engine"
	"regex-workbench/script"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type wsMessage struct {
	Type              string `json:"type"`
	Text              string `json:"text,omitempty"`
	Placement         int    `json:"placement,omitempty"`
	Markdown          bool   `json:"markdown,omitempty"`
	Prompt            bool   `json:"prompt,omitempty"`
	Edit              bool   `json:"edit,omitempty"`
	Depth             *int   `json:"depth,omitempty"`
	CharacterOverride string `json:"characterOverride,omitempty"`
}

type wsFrame struct {
	Type  string       `json:"type"`
	Step  *engine.Step `json:"step,omitempty"`
	Text  string       `json:"text,omitempty"`
	Error string       `json:"error,omitempty"`
}

// handleWS streams per-script trace steps for the pipeline debugger. Each
// "run" request answers with one "step" frame per considered script followed
// by a "result" frame. Writes are serialized by a mutex.
func (h *handler) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn("ws upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	// Serialize writes; gorilla/websocket forbids concurrent writers.
	var writeMu sync.Mutex
	writeFrame := func(f wsFrame) error {
		writeMu.Lock()
		defer writeMu.Unlock()
		return conn.WriteJSON(f)
	}

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			// Client disconnected or sent a malformed frame.
			return
		}

		switch msg.Type {
		case "run":
			out, steps := h.engine.ApplyTrace(msg.Text, script.Placement(msg.Placement), engine.Options{
				CharacterOverride: msg.CharacterOverride,
				IsMarkdown:        msg.Markdown,
				IsPrompt:          msg.Prompt,
				IsEdit:            msg.Edit,
				Depth:             msg.Depth,
			})
			for i := range steps {
				if err := writeFrame(wsFrame{Type: "step", Step: &steps[i]}); err != nil {
					return
				}
			}
			if err := writeFrame(wsFrame{Type: "result", Text: out}); err != nil {
				return
			}
		default:
			if err := writeFrame(wsFrame{Type: "error", Error: "unknown message type"}); err != nil {
				return
			}
		}
	}
}
