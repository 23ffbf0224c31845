package httpadapter

import (
	"context"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kirillkom/court-docket/internal/core/domain"
)

const sseKeepAlive = 25 * time.Second

func (rt *Router) listDisplay(w http.ResponseWriter, r *http.Request) {
	entries, err := rt.services.Display.List(r.Context(), actorFromContext(r.Context()))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (rt *Router) addToDisplay(w http.ResponseWriter, r *http.Request) {
	caseID, ok := pathID(w, r, "caseID")
	if !ok {
		return
	}
	entry, err := rt.services.Display.Add(r.Context(), actorFromContext(r.Context()), caseID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (rt *Router) removeFromDisplay(w http.ResponseWriter, r *http.Request) {
	caseID, ok := pathID(w, r, "caseID")
	if !ok {
		return
	}
	if err := rt.services.Display.Remove(r.Context(), actorFromContext(r.Context()), caseID); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (rt *Router) reorderDisplay(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Orders map[string]string `json:"orders"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	orders := make([]domain.OrderInput, 0, len(req.Orders))
	for key, value := range req.Orders {
		caseID, err := strconv.ParseInt(key, 10, 64)
		if err != nil || caseID < 1 {
			writeError(w, http.StatusBadRequest, "orders keys must be case ids")
			return
		}
		orders = append(orders, domain.OrderInput{CaseID: caseID, Value: value})
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CaseID < orders[j].CaseID })

	result, err := rt.services.Display.Reorder(r.Context(), actorFromContext(r.Context()), orders)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) reorderDisplaySequence(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CaseIDs []int64 `json:"case_ids"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	result, err := rt.services.Display.ReorderSequence(r.Context(), actorFromContext(r.Context()), req.CaseIDs)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) getDisplaySettings(w http.ResponseWriter, r *http.Request) {
	fields, err := rt.services.Display.Settings(r.Context(), actorFromContext(r.Context()))
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"fields": fields})
}

func (rt *Router) updateDisplaySettings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Fields []domain.DisplayField `json:"fields"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	fields, err := rt.services.Display.UpdateSettings(r.Context(), actorFromContext(r.Context()), req.Fields)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"fields": fields})
}

func (rt *Router) getBoard(w http.ResponseWriter, r *http.Request) {
	courtID, ok := pathCourtID(w, r)
	if !ok {
		return
	}
	board, err := rt.services.Display.Board(r.Context(), courtID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, board)
}

// streamBoard relays the court's display updates as server-sent events until
// the client goes away.
func (rt *Router) streamBoard(w http.ResponseWriter, r *http.Request) {
	if rt.services.Subscriber == nil {
		writeError(w, http.StatusNotFound, "live updates are disabled")
		return
	}
	courtID, ok := pathCourtID(w, r)
	if !ok {
		return
	}
	board, err := rt.services.Display.Board(r.Context(), courtID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}

	stream, err := newSSEWriter(w)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "streaming is not supported")
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	events := make(chan domain.DisplayUpdate, 16)
	subscribeErr := make(chan error, 1)
	go func() {
		subscribeErr <- rt.services.Subscriber.SubscribeDisplayUpdates(ctx, board.Court.ID, func(event domain.DisplayUpdate) {
			select {
			case events <- event:
			default:
				// A slow client misses events; the next one still triggers a refresh.
			}
		})
	}()

	if err := stream.comment("connected"); err != nil {
		return
	}
	keepAlive := time.NewTicker(sseKeepAlive)
	defer keepAlive.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case err := <-subscribeErr:
			if err != nil {
				logStreamEnd(r, board.Court.ID, err)
			}
			return
		case event := <-events:
			if err := stream.event("display_update", event); err != nil {
				return
			}
		case <-keepAlive.C:
			if err := stream.comment("keepalive"); err != nil {
				return
			}
		}
	}
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

// pathCourtID accepts 0, which selects the first active court.
func pathCourtID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "courtID"), 10, 64)
	if err != nil || id < 0 {
		writeError(w, http.StatusBadRequest, "invalid courtID")
		return 0, false
	}
	return id, true
}
