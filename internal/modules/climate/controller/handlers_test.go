package controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"surfsup-server/internal/modules/climate/service"
	"surfsup-server/internal/modules/climate/types"
)

type mockRepo struct {
	maxDate    string
	hasMaxDate bool
	err        error

	readings []types.PrecipitationReading
	stations []string
	active   types.StationActivity
	tobs     []float64
	stats    types.TemperatureStats

	gotStart string
	gotEnd   *string
}

func (m *mockRepo) MostRecentDate(ctx context.Context) (string, bool, error) {
	return m.maxDate, m.hasMaxDate, m.err
}

func (m *mockRepo) PrecipitationSince(ctx context.Context, since string) ([]types.PrecipitationReading, error) {
	return m.readings, m.err
}

func (m *mockRepo) StationIDs(ctx context.Context) ([]string, error) {
	return m.stations, m.err
}

func (m *mockRepo) StationCount(ctx context.Context) (int, error) {
	return len(m.stations), m.err
}

func (m *mockRepo) MostActiveStation(ctx context.Context) (types.StationActivity, bool, error) {
	return m.active, m.active.StationID != "", m.err
}

func (m *mockRepo) TemperatureObservations(ctx context.Context, stationID string, since string) ([]float64, error) {
	return m.tobs, m.err
}

func (m *mockRepo) TemperatureStats(ctx context.Context, start string, end *string) (types.TemperatureStats, error) {
	m.gotStart = start
	m.gotEnd = end
	return m.stats, m.err
}

func f(v float64) *float64 { return &v }

func newTestMux(repo *mockRepo) *http.ServeMux {
	mux := http.NewServeMux()
	NewClimateController(service.NewService(repo)).RegisterRoutes(mux)
	return mux
}

func serve(mux *http.ServeMux, method, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func Test_handleWelcome(t *testing.T) {
	mux := newTestMux(&mockRepo{})

	rec := serve(mux, http.MethodGet, "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q; want text/html", ct)
	}
	for _, route := range []string{"/api/v1.0/precipitation", "/api/v1.0/stations", "/api/v1.0/tobs", "/api/v1.0/&lt;start&gt;/&lt;end&gt;"} {
		if !strings.Contains(rec.Body.String(), route) {
			t.Errorf("body missing %q: %s", route, rec.Body.String())
		}
	}

	t.Run("only the exact root", func(t *testing.T) {
		if rec := serve(mux, http.MethodGet, "/nope"); rec.Code != http.StatusNotFound {
			t.Errorf("status = %d; want %d", rec.Code, http.StatusNotFound)
		}
	})

	t.Run("GET only", func(t *testing.T) {
		if rec := serve(mux, http.MethodPost, "/"); rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("status = %d; want %d", rec.Code, http.StatusMethodNotAllowed)
		}
	})
}

func Test_handlePrecipitation(t *testing.T) {
	t.Run("returns date mapping", func(t *testing.T) {
		mux := newTestMux(&mockRepo{
			maxDate:    "2017-08-23",
			hasMaxDate: true,
			readings: []types.PrecipitationReading{
				{Date: "2017-08-22", Prcp: f(0.02)},
				{Date: "2017-08-23", Prcp: nil},
			},
		})
		rec := serve(mux, http.MethodGet, "/api/v1.0/precipitation")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d; want %d", rec.Code, http.StatusOK)
		}
		if got := strings.TrimSpace(rec.Body.String()); got != `{"2017-08-22":0.02,"2017-08-23":null}` {
			t.Errorf("body = %s", got)
		}
	})

	t.Run("empty store returns empty object", func(t *testing.T) {
		rec := serve(newTestMux(&mockRepo{}), http.MethodGet, "/api/v1.0/precipitation")
		if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "{}" {
			t.Errorf("status = %d body = %q", rec.Code, rec.Body.String())
		}
	})

	t.Run("query failure is a plain 500", func(t *testing.T) {
		rec := serve(newTestMux(&mockRepo{err: errors.New("db error")}), http.MethodGet, "/api/v1.0/precipitation")
		assertPlain500(t, rec)
	})
}

func Test_handleStations(t *testing.T) {
	t.Run("returns identifiers", func(t *testing.T) {
		rec := serve(newTestMux(&mockRepo{stations: []string{"USC00519397", "USC00513117"}}), http.MethodGet, "/api/v1.0/stations")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d; want %d", rec.Code, http.StatusOK)
		}
		var got []string
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(got) != 2 || got[0] != "USC00519397" || got[1] != "USC00513117" {
			t.Errorf("stations = %v", got)
		}
	})

	t.Run("empty table returns empty array", func(t *testing.T) {
		rec := serve(newTestMux(&mockRepo{stations: []string{}}), http.MethodGet, "/api/v1.0/stations")
		if strings.TrimSpace(rec.Body.String()) != "[]" {
			t.Errorf("body = %q; want []", rec.Body.String())
		}
	})

	t.Run("query failure is a plain 500", func(t *testing.T) {
		rec := serve(newTestMux(&mockRepo{err: errors.New("db error")}), http.MethodGet, "/api/v1.0/stations")
		assertPlain500(t, rec)
	})
}

func Test_handleTOBS(t *testing.T) {
	t.Run("returns observations", func(t *testing.T) {
		mux := newTestMux(&mockRepo{
			maxDate:    "2017-08-23",
			hasMaxDate: true,
			active:     types.StationActivity{StationID: "USC00519281", Observations: 3},
			tobs:       []float64{77, 76.5, 80},
		})
		rec := serve(mux, http.MethodGet, "/api/v1.0/tobs")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d; want %d", rec.Code, http.StatusOK)
		}
		if got := strings.TrimSpace(rec.Body.String()); got != "[77,76.5,80]" {
			t.Errorf("body = %s", got)
		}
	})

	t.Run("empty store returns empty array", func(t *testing.T) {
		rec := serve(newTestMux(&mockRepo{}), http.MethodGet, "/api/v1.0/tobs")
		if strings.TrimSpace(rec.Body.String()) != "[]" {
			t.Errorf("body = %q; want []", rec.Body.String())
		}
	})
}

func Test_handleStart(t *testing.T) {
	t.Run("returns min avg max", func(t *testing.T) {
		repo := &mockRepo{stats: types.TemperatureStats{Min: f(79), Avg: f(79), Max: f(79)}}
		rec := serve(newTestMux(repo), http.MethodGet, "/api/v1.0/2017-08-23")
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d; want %d", rec.Code, http.StatusOK)
		}
		if got := strings.TrimSpace(rec.Body.String()); got != "[79,79,79]" {
			t.Errorf("body = %s", got)
		}
		if repo.gotStart != "2017-08-23" || repo.gotEnd != nil {
			t.Errorf("start = %q end = %v", repo.gotStart, repo.gotEnd)
		}
	})

	t.Run("no rows returns nulls", func(t *testing.T) {
		rec := serve(newTestMux(&mockRepo{}), http.MethodGet, "/api/v1.0/2099-01-01")
		if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != "[null,null,null]" {
			t.Errorf("status = %d body = %q", rec.Code, rec.Body.String())
		}
	})

	t.Run("malformed start passes through", func(t *testing.T) {
		repo := &mockRepo{}
		rec := serve(newTestMux(repo), http.MethodGet, "/api/v1.0/yesterday")
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d; want %d", rec.Code, http.StatusOK)
		}
		if repo.gotStart != "yesterday" {
			t.Errorf("start = %q; want yesterday", repo.gotStart)
		}
	})

	t.Run("query failure is a plain 500", func(t *testing.T) {
		rec := serve(newTestMux(&mockRepo{err: errors.New("db error")}), http.MethodGet, "/api/v1.0/2017-01-01")
		assertPlain500(t, rec)
	})
}

func Test_handleStartEnd(t *testing.T) {
	repo := &mockRepo{stats: types.TemperatureStats{Min: f(79), Avg: f(79.5), Max: f(80)}}
	rec := serve(newTestMux(repo), http.MethodGet, "/api/v1.0/2017-08-22/2017-08-23")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; want %d", rec.Code, http.StatusOK)
	}
	if got := strings.TrimSpace(rec.Body.String()); got != "[79,79.5,80]" {
		t.Errorf("body = %s", got)
	}
	if repo.gotStart != "2017-08-22" || repo.gotEnd == nil || *repo.gotEnd != "2017-08-23" {
		t.Errorf("start = %q end = %v", repo.gotStart, repo.gotEnd)
	}

	t.Run("literal routes win over start", func(t *testing.T) {
		repo := &mockRepo{stations: []string{"USC1"}}
		serve(newTestMux(repo), http.MethodGet, "/api/v1.0/stations")
		if repo.gotStart != "" {
			t.Errorf("stations request reached the start handler with %q", repo.gotStart)
		}
	})
}

func assertPlain500(t *testing.T, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d; want %d", rec.Code, http.StatusInternalServerError)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q; want text/plain", ct)
	}
	if strings.Contains(rec.Body.String(), "{") {
		t.Errorf("body = %q; want no JSON", rec.Body.String())
	}
}
