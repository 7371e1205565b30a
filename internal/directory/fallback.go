package directory

import "fundi/internal/domain/entities"

// fallbackPool is the bundled candidate set used for offline and degraded
// operation. Positions cluster around central Nairobi, matching the pilot
// deployment area.
var fallbackPool = []entities.Candidate{
	{
		ID:         "fallback-1",
		Name:       "Samuel Njoroge",
		Profession: "Mechanic",
		Rating:     4.7,
		HourlyRate: 900,
		Position:   entities.Coordinate{Latitude: -1.2921, Longitude: 36.8219},
	},
	{
		ID:         "fallback-2",
		Name:       "Joseph Kipchoge",
		Profession: "Mechanic",
		Rating:     4.6,
		HourlyRate: 850,
		Position:   entities.Coordinate{Latitude: -1.2931, Longitude: 36.8229},
	},
	{
		ID:         "fallback-3",
		Name:       "Peter Kamau",
		Profession: "Electrician",
		Rating:     4.8,
		HourlyRate: 950,
		Position:   entities.Coordinate{Latitude: -1.2911, Longitude: 36.8209},
	},
	{
		ID:         "fallback-4",
		Name:       "James Ochieng",
		Profession: "Plumber",
		Rating:     4.5,
		HourlyRate: 800,
		Position:   entities.Coordinate{Latitude: -1.2941, Longitude: 36.8239},
	},
	{
		ID:         "fallback-5",
		Name:       "David Mwangi",
		Profession: "Carpenter",
		Rating:     4.9,
		HourlyRate: 1000,
		Position:   entities.Coordinate{Latitude: -1.2901, Longitude: 36.8199},
	},
}

// FallbackPool returns a fresh copy of the bundled candidate set, so callers
// can annotate distances and ETAs without mutating the shared data.
func FallbackPool() []entities.Candidate {
	pool := make([]entities.Candidate, len(fallbackPool))
	copy(pool, fallbackPool)
	return pool
}
