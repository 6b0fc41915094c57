package recordapi

import (
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/reelfocus/reelfocus/internal/recordstore"
)

// NewRouter builds the record-store HTTP router.
func NewRouter(store recordstore.Store, log zerolog.Logger) *mux.Router {
	router := mux.NewRouter()
	h := NewRecordHandler(store, log)

	router.HandleFunc("/v0/health", h.Health).Methods("GET")

	router.HandleFunc("/v0/records/{kind}", h.ListRecords).Methods("GET")
	router.HandleFunc("/v0/records/{kind}/{id}", h.GetRecord).Methods("GET")
	router.HandleFunc("/v0/records/{kind}/{id}", h.PutRecord).Methods("PUT")
	router.HandleFunc("/v0/records/{kind}/{id}", h.DeleteRecord).Methods("DELETE")

	return router
}
