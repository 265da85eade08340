package strava

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifySport(t *testing.T) {
	bikeSports := []string{
		"EBikeRide", "EMountainBikeRide", "GravelRide", "Handcycle",
		"MountainBikeRide", "Ride", "Velomobile", "VirtualRide",
	}
	for _, sport := range bikeSports {
		assert.Equal(t, SportBikeRide, ClassifySport(sport), sport)
	}

	otherSports := []string{"Run", "Swim", "Hike", "ride", "RIDE", ""}
	for _, sport := range otherSports {
		assert.Equal(t, SportOther, ClassifySport(sport), sport)
	}
}
