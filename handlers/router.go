package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
)

// NewRouter wires every API route. Data routes sit behind the auth middleware.
func NewRouter(data *DataHandler, auth *AuthHandler, mw *AuthMiddleware) *mux.Router {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()

	// Auth routes
	api.HandleFunc("/auth/start", auth.Start).Methods(http.MethodPost)
	api.HandleFunc("/auth/signout", auth.SignOut).Methods(http.MethodPost)
	api.HandleFunc("/auth/verify", auth.VerifyToken).Methods(http.MethodGet)

	api.HandleFunc("/upload", data.Upload).Methods(http.MethodPost)

	// Data routes (protected)
	p := api.NewRoute().Subrouter()
	p.Use(mw.Auth)

	p.HandleFunc("/data", data.GetData).Methods(http.MethodGet)
	p.HandleFunc("/data/reset", data.ResetData).Methods(http.MethodPost)

	p.HandleFunc("/categories", data.ListCategories).Methods(http.MethodGet)
	p.HandleFunc("/categories", data.CreateCategory).Methods(http.MethodPost)
	p.HandleFunc("/categories/{id}", data.UpdateCategory).Methods(http.MethodPatch)
	p.HandleFunc("/categories/{id}", data.DeleteCategory).Methods(http.MethodDelete)

	p.HandleFunc("/subcategories", data.ListSubcategories).Methods(http.MethodGet)
	p.HandleFunc("/subcategories", data.CreateSubcategory).Methods(http.MethodPost)
	p.HandleFunc("/subcategories/{id}", data.UpdateSubcategory).Methods(http.MethodPatch)
	p.HandleFunc("/subcategories/{id}", data.DeleteSubcategory).Methods(http.MethodDelete)

	p.HandleFunc("/events", data.ListEvents).Methods(http.MethodGet)
	p.HandleFunc("/events", data.CreateEvent).Methods(http.MethodPost)
	p.HandleFunc("/events/{id}", data.UpdateEvent).Methods(http.MethodPatch)
	p.HandleFunc("/events/{id}", data.DeleteEvent).Methods(http.MethodDelete)

	p.HandleFunc("/tasks", data.ListTasks).Methods(http.MethodGet)
	p.HandleFunc("/tasks", data.CreateTask).Methods(http.MethodPost)
	p.HandleFunc("/tasks/{id}", data.UpdateTask).Methods(http.MethodPatch)
	p.HandleFunc("/tasks/{id}", data.DeleteTask).Methods(http.MethodDelete)
	p.HandleFunc("/tasks/{id}/move", data.MoveTask).Methods(http.MethodPost)

	// WebSocket route for snapshot pushes
	p.HandleFunc("/ws", data.HandleWebSocket)

	return r
}
