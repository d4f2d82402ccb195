package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kdimtricp/triakustika/internal/studio"
)

const keepAliveInterval = 15 * time.Second

// EventsHandler streams studio updates as server-sent events. The first
// event carries the current sensing status.
func (app *App) EventsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	updates, unsubscribe := app.Studio.Subscribe()
	defer unsubscribe()

	writeEvent(w, studio.Update{Type: "status", Data: sensingResponse{
		Status:    app.Studio.Status(),
		Analyzing: app.Studio.Analyzing(),
	}})
	flusher.Flush()

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	clientGone := r.Context().Done()

	for {
		select {
		case update, ok := <-updates:
			if !ok {
				return
			}
			writeEvent(w, update)
			flusher.Flush()

		case <-keepAlive.C:
			fmt.Fprint(w, ": keep-alive\n\n")
			flusher.Flush()

		case <-clientGone:
			return
		}
	}
}

func writeEvent(w http.ResponseWriter, update studio.Update) {
	data, err := json.Marshal(update.Data)
	if err != nil {
		logrus.WithError(err).Warnf("Error marshaling %s update", update.Type)
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", update.Type, string(data))
}
