package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// tempReading is one message of the temperature stream.
type tempReading struct {
	CurrentTemp string    `json:"current_temp,omitempty"`
	Unit        string    `json:"unit,omitempty"`
	At          time.Time `json:"at"`
	Error       string    `json:"error,omitempty"`
}

// handleTempStream pushes the bath temperature over a websocket every
// streamInterval until the client goes away. Each reading is an ordinary
// command, so the link stays open while someone is watching.
func (s *Server) handleTempStream(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("Failed to upgrade connection", "error", err)
		return
	}
	defer conn.Close()

	id := RequestIDFrom(r.Context())
	slog.Info("temperature stream opened", "addr", r.RemoteAddr, "request_id", id)
	defer slog.Info("temperature stream closed", "addr", r.RemoteAddr, "request_id", id)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The read loop only exists to notice the client closing.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					slog.Warn("temperature stream read error", "request_id", id, "error", err)
				}
				return
			}
		}
	}()

	ticker := time.NewTicker(s.streamInterval)
	defer ticker.Stop()

	for {
		if err := conn.WriteJSON(s.readTemp(ctx)); err != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Server) readTemp(ctx context.Context) tempReading {
	reading := tempReading{At: time.Now().UTC()}
	temp, err := s.cooker.ReadTemp(ctx)
	if err != nil {
		reading.Error = err.Error()
		return reading
	}
	unit, err := s.cooker.ReadUnit(ctx)
	if err != nil {
		reading.Error = err.Error()
		return reading
	}
	reading.CurrentTemp = temp
	reading.Unit = unit
	return reading
}
