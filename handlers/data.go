package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/CrowderSoup/smartcalendar/database"
	"github.com/CrowderSoup/smartcalendar/services"
)

// DataHandler exposes the document store over HTTP
type DataHandler struct {
	store    *database.Store
	hub      *services.Hub
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

func NewDataHandler(store *database.Store, hub *services.Hub, log zerolog.Logger) *DataHandler {
	return &DataHandler{
		store: store,
		hub:   hub,
		log:   log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // CORS is enforced on the HTTP routes
			},
		},
	}
}

// respondSnapshot pushes the fresh document to websocket clients and returns it.
func (h *DataHandler) respondSnapshot(w http.ResponseWriter, r *http.Request) {
	doc, err := h.store.Snapshot(r.Context())
	if err != nil {
		writeStoreError(w, h.log, err)
		return
	}
	h.broadcast(doc)
	writeSuccess(w, http.StatusOK, doc)
}

// respondCreated pushes the fresh document and returns the created entity.
func (h *DataHandler) respondCreated(w http.ResponseWriter, r *http.Request, item any) {
	doc, err := h.store.Snapshot(r.Context())
	if err != nil {
		h.log.Warn().Err(err).Msg("created record but could not broadcast snapshot")
	} else {
		h.broadcast(doc)
	}
	writeSuccess(w, http.StatusCreated, item)
}

func (h *DataHandler) broadcast(doc *database.Document) {
	h.hub.Broadcast(services.WebSocketMessage{Type: services.MessageSnapshot, Data: doc})
}

// GetData returns the whole document
func (h *DataHandler) GetData(w http.ResponseWriter, r *http.Request) {
	doc, err := h.store.Snapshot(r.Context())
	if err != nil {
		writeStoreError(w, h.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, doc)
}

// ResetData discards the stored document and re-seeds it
func (h *DataHandler) ResetData(w http.ResponseWriter, r *http.Request) {
	if _, err := h.store.Reset(r.Context()); err != nil {
		writeStoreError(w, h.log, err)
		return
	}
	h.log.Warn().Msg("document reset over http")
	h.respondSnapshot(w, r)
}

// Categories

func (h *DataHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListCategories(r.Context())
	if err != nil {
		writeStoreError(w, h.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, items)
}

func (h *DataHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var in database.CategoryInput
	if !decodeBody(w, r, &in) {
		return
	}
	item, err := h.store.CreateCategory(r.Context(), in)
	if err != nil {
		writeStoreError(w, h.log, err)
		return
	}
	h.respondCreated(w, r, item)
}

func (h *DataHandler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	var patch database.CategoryPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	if err := h.store.UpdateCategory(r.Context(), mux.Vars(r)["id"], patch); err != nil {
		writeStoreError(w, h.log, err)
		return
	}
	h.respondSnapshot(w, r)
}

// DeleteCategory answers 409 with the reason when events still use the category.
func (h *DataHandler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	result, err := h.store.DeleteCategory(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeStoreError(w, h.log, err)
		return
	}
	if !result.OK {
		writeError(w, http.StatusConflict, apiError{Code: "CATEGORY_IN_USE", Message: result.Reason})
		return
	}
	h.respondSnapshot(w, r)
}

// Subcategories

func (h *DataHandler) ListSubcategories(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListSubcategories(r.Context())
	if err != nil {
		writeStoreError(w, h.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, items)
}

func (h *DataHandler) CreateSubcategory(w http.ResponseWriter, r *http.Request) {
	var in database.SubcategoryInput
	if !decodeBody(w, r, &in) {
		return
	}
	item, err := h.store.CreateSubcategory(r.Context(), in)
	if err != nil {
		writeStoreError(w, h.log, err)
		return
	}
	h.respondCreated(w, r, item)
}

func (h *DataHandler) UpdateSubcategory(w http.ResponseWriter, r *http.Request) {
	var patch database.SubcategoryPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	if err := h.store.UpdateSubcategory(r.Context(), mux.Vars(r)["id"], patch); err != nil {
		writeStoreError(w, h.log, err)
		return
	}
	h.respondSnapshot(w, r)
}

func (h *DataHandler) DeleteSubcategory(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteSubcategory(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeStoreError(w, h.log, err)
		return
	}
	h.respondSnapshot(w, r)
}

// Events

func (h *DataHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListEvents(r.Context())
	if err != nil {
		writeStoreError(w, h.log, err)
		return
	}
	writeSuccess(w, http.StatusOK, items)
}

func (h *DataHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var in database.EventInput
	if !decodeBody(w, r, &in) {
		return
	}
	item, err := h.store.CreateEvent(r.Context(), in)
	if err != nil {
		writeStoreError(w, h.log, err)
		return
	}
	h.respondCreated(w, r, item)
}

func (h *DataHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var patch database.EventPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	if err := h.store.UpdateEvent(r.Context(), mux.Vars(r)["id"], patch); err != nil {
		writeStoreError(w, h.log, err)
		return
	}
	h.respondSnapshot(w, r)
}

func (h *DataHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteEvent(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeStoreError(w, h.log, err)
		return
	}
	h.respondSnapshot(w, r)
}

// Tasks

// ListTasks returns every task, or one event's board with ?eventId=.
func (h *DataHandler) ListTasks(w http.ResponseWriter, r *http.Request) {
	items, err := h.store.ListTasksByEvent(r.Context(), r.URL.Query().Get("eventId"))
	if err != nil {
		writeStoreError(w, h.log, err)
		return
	}
	if items == nil {
		items = []database.Task{}
	}
	writeSuccess(w, http.StatusOK, items)
}

func (h *DataHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var in database.TaskInput
	if !decodeBody(w, r, &in) {
		return
	}
	item, err := h.store.CreateTask(r.Context(), in)
	if err != nil {
		writeStoreError(w, h.log, err)
		return
	}
	h.respondCreated(w, r, item)
}

func (h *DataHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	var patch database.TaskPatch
	if !decodeBody(w, r, &patch) {
		return
	}
	if err := h.store.UpdateTask(r.Context(), mux.Vars(r)["id"], patch); err != nil {
		writeStoreError(w, h.log, err)
		return
	}
	h.respondSnapshot(w, r)
}

func (h *DataHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteTask(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeStoreError(w, h.log, err)
		return
	}
	h.respondSnapshot(w, r)
}

type moveRequest struct {
	Status database.TaskStatus `json:"status"`
	Index  int                 `json:"index"`
}

// MoveTask drops a card into a column at an index
func (h *DataHandler) MoveTask(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.store.MoveTask(r.Context(), mux.Vars(r)["id"], req.Status, req.Index); err != nil {
		writeStoreError(w, h.log, err)
		return
	}
	h.respondSnapshot(w, r)
}

// Upload is a permanent stub for signed upload URLs
func (h *DataHandler) Upload(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotImplemented, map[string]any{
		"success": false,
		"error": apiError{
			Code:    "NOT_IMPLEMENTED",
			Message: "Signed upload URL generation not implemented yet.",
		},
	})
}

// HandleWebSocket upgrades the connection and subscribes it to snapshots
func (h *DataHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, apiError{Code: "UNAUTHORIZED", Message: "user not found"})
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := services.NewClient(h.hub, conn, user.ID)
	h.hub.Register(client)
	client.Serve()
}
