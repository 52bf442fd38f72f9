package httpapi

import (
	"net/http"

	"marelle-logistics/config"
	"marelle-logistics/database"
	"marelle-logistics/service"
)

type App struct {
	Config    config.Config
	Store     *database.Store
	Logistics *service.Server
}

func NewApp(cfg config.Config, store *database.Store) *App {
	return &App{
		Config:    cfg,
		Store:     store,
		Logistics: service.NewServer(store, cfg),
	}
}

func (a *App) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/", a.home)
	mux.HandleFunc("/logistics/create", a.createShipmentHandler)
	mux.HandleFunc("/logistics/shipments", a.listShipmentsHandler)
	mux.HandleFunc("/logistics/shipments/", a.getShipmentHandler)
	mux.HandleFunc("/shipments", a.shipmentsPageHandler)
}
