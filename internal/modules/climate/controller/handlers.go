package controller

import (
	"log/slog"
	"net/http"

	"surfsup-server/internal/utils"
)

const welcomeText = "Available Routes:<br/>" +
	"/api/v1.0/precipitation<br/>" +
	"/api/v1.0/stations<br/>" +
	"/api/v1.0/tobs<br/>" +
	"/api/v1.0/&lt;start&gt;<br/>" +
	"/api/v1.0/&lt;start&gt;/&lt;end&gt;<br/>"

func (c *climateControllerImpl) handleWelcome(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write([]byte(welcomeText)); err != nil {
		slog.Error("welcome: write response failed", "error", err)
	}
}

func (c *climateControllerImpl) handlePrecipitation(w http.ResponseWriter, r *http.Request) {
	prcp, err := c.service.Precipitation(r.Context())
	if err != nil {
		slog.Error("precipitation query failed", "error", err)
		utils.WriteInternalError(w)
		return
	}
	utils.WriteJSON(w, http.StatusOK, prcp)
}

func (c *climateControllerImpl) handleStations(w http.ResponseWriter, r *http.Request) {
	stations, err := c.service.Stations(r.Context())
	if err != nil {
		slog.Error("stations query failed", "error", err)
		utils.WriteInternalError(w)
		return
	}
	utils.WriteJSON(w, http.StatusOK, stations)
}

func (c *climateControllerImpl) handleTOBS(w http.ResponseWriter, r *http.Request) {
	tobs, err := c.service.TOBS(r.Context())
	if err != nil {
		slog.Error("tobs query failed", "error", err)
		utils.WriteInternalError(w)
		return
	}
	utils.WriteJSON(w, http.StatusOK, tobs)
}

func (c *climateControllerImpl) handleStart(w http.ResponseWriter, r *http.Request) {
	start := r.PathValue("start")
	stats, err := c.service.TemperatureRange(r.Context(), start, nil)
	if err != nil {
		slog.Error("temperature range query failed", "start", start, "error", err)
		utils.WriteInternalError(w)
		return
	}
	utils.WriteJSON(w, http.StatusOK, stats)
}

func (c *climateControllerImpl) handleStartEnd(w http.ResponseWriter, r *http.Request) {
	start, end := r.PathValue("start"), r.PathValue("end")
	stats, err := c.service.TemperatureRange(r.Context(), start, &end)
	if err != nil {
		slog.Error("temperature range query failed", "start", start, "end", end, "error", err)
		utils.WriteInternalError(w)
		return
	}
	utils.WriteJSON(w, http.StatusOK, stats)
}
