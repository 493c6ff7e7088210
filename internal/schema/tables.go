package schema

// MeasurementTable holds the stored names of the measurement table and its
// columns. ID is empty when the table has no id column.
type MeasurementTable struct {
	Name    string
	ID      string
	Station string
	Date    string
	Prcp    string
	Tobs    string
}

// StationTable holds the stored names of the station table and its columns.
// The descriptive columns are optional and empty when absent.
type StationTable struct {
	Name      string
	Station   string
	Label     string
	Latitude  string
	Longitude string
	Elevation string
}

func bindMeasurement(s *Schema, name string) (MeasurementTable, error) {
	t, ok := s.Table(name)
	if !ok {
		return MeasurementTable{}, &SchemaError{Reason: ReasonMissingTable, Table: name}
	}
	m := MeasurementTable{Name: t.Name}
	err := resolve(t, []columnRef{
		{"station", &m.Station},
		{"date", &m.Date},
		{"prcp", &m.Prcp},
		{"tobs", &m.Tobs},
	})
	if err != nil {
		return MeasurementTable{}, err
	}
	m.ID, _ = t.Column("id")
	return m, nil
}

func bindStation(s *Schema, name string) (StationTable, error) {
	t, ok := s.Table(name)
	if !ok {
		return StationTable{}, &SchemaError{Reason: ReasonMissingTable, Table: name}
	}
	st := StationTable{Name: t.Name}
	if err := resolve(t, []columnRef{{"station", &st.Station}}); err != nil {
		return StationTable{}, err
	}
	st.Label, _ = t.Column("name")
	st.Latitude, _ = t.Column("latitude")
	st.Longitude, _ = t.Column("longitude")
	st.Elevation, _ = t.Column("elevation")
	return st, nil
}

type columnRef struct {
	name string
	dst  *string
}

// resolve fills each ref with the stored spelling of its column; the first
// missing column is reported.
func resolve(t Table, refs []columnRef) error {
	for _, ref := range refs {
		stored, ok := t.Column(ref.name)
		if !ok {
			return &SchemaError{Reason: ReasonMissingColumn, Table: t.Name, Column: ref.name}
		}
		*ref.dst = stored
	}
	return nil
}
