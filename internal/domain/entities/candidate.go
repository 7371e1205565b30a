package entities

// Candidate is a service provider under consideration for a match. Identity
// and the declared fields come from the provider directory (or the bundled
// fallback pool); DistanceKm and EtaMins are computed during ranking and are
// zero until then.
type Candidate struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Profession string     `json:"profession"`
	Rating     float64    `json:"rating"`
	HourlyRate float64    `json:"hourly_rate"`
	Position   Coordinate `json:"location"`

	// Computed during ranking.
	DistanceKm float64 `json:"distance_km"`
	EtaMins    int     `json:"eta_mins"`
}
