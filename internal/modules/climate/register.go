package climate

import (
	"net/http"

	"surfsup-server/internal/modules/climate/controller"
	"surfsup-server/internal/modules/climate/repository"
	"surfsup-server/internal/modules/climate/service"
	"surfsup-server/internal/schema"
)

// RegisterFeature mounts the climate routes backed by the bound store.
func RegisterFeature(mux *http.ServeMux, store *schema.Store) error {
	climateRepository, err := repository.NewRepository(store)
	if err != nil {
		return err
	}
	climateService := service.NewService(climateRepository)
	climateController := controller.NewClimateController(climateService)
	climateController.RegisterRoutes(mux)
	return nil
}
