package service

import (
	"context"
	"fmt"

	"surfsup-server/internal/modules/climate/repository"
	"surfsup-server/internal/modules/climate/types"
)

// QueryError wraps a store failure raised while answering a request.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("climate %s: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

type Service struct {
	repository repository.ClimateRepository
}

func NewService(repository repository.ClimateRepository) *Service {
	return &Service{repository: repository}
}

// oneYearBefore returns the calendar day 365 days before maxDate.
func oneYearBefore(maxDate string) (string, error) {
	t, err := types.ParseDate(maxDate)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 0, -365).Format(types.DateLayout), nil
}

// lastYear resolves the start of the trailing year from the current most
// recent measurement. ok is false when there are no measurements.
func (s *Service) lastYear(ctx context.Context, op string) (since string, ok bool, err error) {
	maxDate, ok, err := s.repository.MostRecentDate(ctx)
	if err != nil {
		return "", false, &QueryError{Op: op, Err: err}
	}
	if !ok {
		return "", false, nil
	}
	since, err = oneYearBefore(maxDate)
	if err != nil {
		return "", false, &QueryError{Op: op, Err: err}
	}
	return since, true, nil
}

// Precipitation maps each date of the trailing year to its precipitation.
func (s *Service) Precipitation(ctx context.Context) (types.Precipitation, error) {
	const op = "precipitation"
	out := types.Precipitation{}
	since, ok, err := s.lastYear(ctx, op)
	if err != nil || !ok {
		return out, err
	}
	readings, err := s.repository.PrecipitationSince(ctx, since)
	if err != nil {
		return nil, &QueryError{Op: op, Err: err}
	}
	for _, r := range readings {
		out[r.Date] = r.Prcp
	}
	return out, nil
}

func (s *Service) Stations(ctx context.Context) ([]string, error) {
	ids, err := s.repository.StationIDs(ctx)
	if err != nil {
		return nil, &QueryError{Op: "stations", Err: err}
	}
	return ids, nil
}

// TOBS returns the trailing year of temperature observations of the station
// with the most measurements.
func (s *Service) TOBS(ctx context.Context) ([]float64, error) {
	const op = "tobs"
	since, ok, err := s.lastYear(ctx, op)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []float64{}, nil
	}
	active, ok, err := s.repository.MostActiveStation(ctx)
	if err != nil {
		return nil, &QueryError{Op: op, Err: err}
	}
	if !ok {
		return []float64{}, nil
	}
	obs, err := s.repository.TemperatureObservations(ctx, active.StationID, since)
	if err != nil {
		return nil, &QueryError{Op: op, Err: err}
	}
	return obs, nil
}

// TemperatureRange aggregates temperatures from start, bounded by end when
// it is non-nil. Neither date is validated.
func (s *Service) TemperatureRange(ctx context.Context, start string, end *string) (types.TemperatureStats, error) {
	stats, err := s.repository.TemperatureStats(ctx, start, end)
	if err != nil {
		return types.TemperatureStats{}, &QueryError{Op: "temperature range", Err: err}
	}
	return stats, nil
}

// MostActiveStation is exposed for the operator CLI.
func (s *Service) MostActiveStation(ctx context.Context) (types.StationActivity, bool, error) {
	a, ok, err := s.repository.MostActiveStation(ctx)
	if err != nil {
		return types.StationActivity{}, false, &QueryError{Op: "most active station", Err: err}
	}
	return a, ok, nil
}

func (s *Service) StationCount(ctx context.Context) (int, error) {
	n, err := s.repository.StationCount(ctx)
	if err != nil {
		return 0, &QueryError{Op: "station count", Err: err}
	}
	return n, nil
}
