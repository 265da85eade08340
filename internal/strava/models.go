// Package strava implements the Strava account link: the OAuth handshake,
// token refresh, and idempotent activity import.
package strava

import "time"

// SummaryActivity holds only the fields we need from the provider's
// activities endpoint.
type SummaryActivity struct {
	ID             int64     `json:"id"`
	Name           string    `json:"name"`
	DistanceMeters float64   `json:"distance"`
	SportType      string    `json:"sport_type"`
	StartDateLocal time.Time `json:"start_date_local"`
	GearID         string    `json:"gear_id"`
}

// GearBike is one bicycle from the athlete's provider profile. Its ID is
// what a local bike's stravaGear field must be set to for the sync to map
// activities onto it.
type GearBike struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Primary        bool    `json:"primary"`
	DistanceMeters float64 `json:"distance"`
}

// detailedAthlete holds the slice we need from the provider's athlete
// endpoint.
type detailedAthlete struct {
	Bikes []GearBike `json:"bikes"`
}

// SportClass is the local classification of a provider sport type.
type SportClass int

const (
	// SportOther covers everything that is not ridden on a bicycle.
	SportOther SportClass = iota
	// SportBikeRide covers all bicycle-like sport types.
	SportBikeRide
)

// ClassifySport maps the provider's sport type string onto a local class.
// Only bike rides are imported.
func ClassifySport(sportType string) SportClass {
	switch sportType {
	case "EBikeRide", "EMountainBikeRide", "GravelRide", "Handcycle",
		"MountainBikeRide", "Ride", "Velomobile", "VirtualRide":
		return SportBikeRide
	default:
		return SportOther
	}
}
