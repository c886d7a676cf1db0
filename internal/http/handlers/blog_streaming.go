package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/blogforge/blogforge-api/internal/http/mw"
	"github.com/blogforge/blogforge-api/internal/llm"
)

// StreamBlog handles SSE streaming of blog generation.
// This is a raw HTTP handler (not Huma) to support SSE.
func (h *BlogHandler) StreamBlog(w http.ResponseWriter, r *http.Request) {
	claims := mw.GetUserClaims(r.Context())
	if claims == nil {
		http.Error(w, `{"error":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	userID := claims.UserID

	var params GenerationParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if params.Prompt == "" {
		http.Error(w, `{"error":"prompt is required"}`, http.StatusBadRequest)
		return
	}

	stream, err := h.blogSvc.StreamBlogGeneration(r.Context(), userID, params.toRequest())
	if err != nil {
		if errors.Is(err, llm.ErrStreamingUnsupported) || errors.Is(err, llm.ErrNoProvidersAvailable) {
			http.Error(w, `{"error":"no streaming-capable provider available"}`, http.StatusServiceUnavailable)
			return
		}
		http.Error(w, `{"error":"failed to start stream"}`, http.StatusInternalServerError)
		return
	}
	defer stream.Close()

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, `{"error":"streaming not supported"}`, http.StatusInternalServerError)
		return
	}

	// Generation can outlive the server's write timeout; disable it for this
	// response. Best effort, some wrappers do not support it.
	rc := http.NewResponseController(w)
	_ = rc.SetWriteDeadline(time.Time{})

	ctx := r.Context()
	for {
		chunk, ok := stream.Next()
		if !ok {
			break
		}

		select {
		case <-ctx.Done():
			return
		default:
		}

		if chunk.Done {
			payload := map[string]any{"content": "", "done": true}
			if streamErr := stream.Err(); streamErr != nil {
				payload["metadata"] = map[string]any{"error": streamErr.Error()}
			}
			sendSSEEvent(w, flusher, "done", payload)
			return
		}

		sendSSEEvent(w, flusher, "content", map[string]any{
			"content": chunk.Content,
			"done":    false,
		})
	}
}

// sendSSEEvent sends a Server-Sent Event.
func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, event string, data any) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return
	}
	_, _ = fmt.Fprintf(w, "event: %s\n", event)
	_, _ = fmt.Fprintf(w, "data: %s\n\n", jsonData)
	flusher.Flush()
}
