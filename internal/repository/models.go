// Package repository implements data access for all entities against SQLite.
// Raw row structs mirror the string-typed columns; conversion to the typed
// models happens at this boundary and nowhere else.
package repository

import (
	"time"

	"github.com/google/uuid"

	"github.com/velolog/backend/internal/dbtime"
)

// User is an account. Users are soft-deleted, never removed.
type User struct {
	ID          int64      `json:"id"`
	Username    string     `json:"username"`
	MonthlyGoal *float64   `json:"monthlyGoal"`
	CreatedAt   time.Time  `json:"createdAt"`
	DeletedAt   *time.Time `json:"deletedAt,omitempty"`
}

// UserPartial is the create/update payload for a user.
type UserPartial struct {
	Username    string   `json:"username" validate:"required,min=1,max=64"`
	MonthlyGoal *float64 `json:"monthlyGoal" validate:"omitempty,gte=0"`
}

type userRaw struct {
	ID          int64    `db:"id"`
	Username    string   `db:"username"`
	MonthlyGoal *float64 `db:"monthly_goal"`
	CreatedAt   string   `db:"created_at"`
	DeletedAt   *string  `db:"deleted_at"`
}

func (r userRaw) model() (*User, error) {
	createdAt, err := dbtime.ParseDateTime(r.CreatedAt)
	if err != nil {
		return nil, err
	}
	deletedAt, err := dbtime.ParseNullableDateTime(r.DeletedAt)
	if err != nil {
		return nil, err
	}
	return &User{
		ID:          r.ID,
		Username:    r.Username,
		MonthlyGoal: r.MonthlyGoal,
		CreatedAt:   createdAt,
		DeletedAt:   deletedAt,
	}, nil
}

// Session is a bearer-token login session. The token is returned to the
// client once at login and looked up verbatim afterwards.
type Session struct {
	ID         uuid.UUID  `json:"id"`
	Token      string     `json:"token"`
	UserID     int64      `json:"userId"`
	UserAgent  string     `json:"userAgent"`
	CreatedAt  time.Time  `json:"createdAt"`
	LastUsedAt time.Time  `json:"lastUsedAt"`
	RevokedAt  *time.Time `json:"revokedAt,omitempty"`
}

type sessionRaw struct {
	ID         string  `db:"id"`
	Token      string  `db:"token"`
	UserID     int64   `db:"user_id"`
	UserAgent  string  `db:"user_agent"`
	CreatedAt  string  `db:"created_at"`
	LastUsedAt string  `db:"last_used_at"`
	RevokedAt  *string `db:"revoked_at"`
}

func (r sessionRaw) model() (*Session, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return nil, err
	}
	createdAt, err := dbtime.ParseDateTime(r.CreatedAt)
	if err != nil {
		return nil, err
	}
	lastUsedAt, err := dbtime.ParseDateTime(r.LastUsedAt)
	if err != nil {
		return nil, err
	}
	revokedAt, err := dbtime.ParseNullableDateTime(r.RevokedAt)
	if err != nil {
		return nil, err
	}
	return &Session{
		ID:         id,
		Token:      r.Token,
		UserID:     r.UserID,
		UserAgent:  r.UserAgent,
		CreatedAt:  createdAt,
		LastUsedAt: lastUsedAt,
		RevokedAt:  revokedAt,
	}, nil
}

// Bike belongs to exactly one user and is soft-deleted by its owner.
type Bike struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Color       string     `json:"color"`
	StravaGear  *string    `json:"stravaGear,omitempty"`
	OwnerID     int64      `json:"ownerId"`
	DeletedAt   *time.Time `json:"deletedAt,omitempty"`
}

// BikePartial is the create/update payload for a bike.
type BikePartial struct {
	Name        string  `json:"name" validate:"required,min=1,max=100"`
	Description string  `json:"description" validate:"max=500"`
	Color       string  `json:"color" validate:"max=32"`
	StravaGear  *string `json:"stravaGear" validate:"omitempty,max=64"`
}

type bikeRaw struct {
	ID          int64   `db:"id"`
	Name        string  `db:"name"`
	Description string  `db:"description"`
	Color       string  `db:"color"`
	StravaGear  *string `db:"strava_gear"`
	OwnerID     int64   `db:"owner_id"`
	DeletedAt   *string `db:"deleted_at"`
}

func (r bikeRaw) model() (*Bike, error) {
	deletedAt, err := dbtime.ParseNullableDateTime(r.DeletedAt)
	if err != nil {
		return nil, err
	}
	return &Bike{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Color:       r.Color,
		StravaGear:  r.StravaGear,
		OwnerID:     r.OwnerID,
		DeletedAt:   deletedAt,
	}, nil
}

// Ride is a single logged ride. StravaRide holds the external activity id
// for imported rides and is the dedup key per bike.
type Ride struct {
	ID          int64       `json:"id"`
	Date        dbtime.Date `json:"date"`
	Distance    float64     `json:"distance"`
	Description string      `json:"description"`
	BikeID      int64       `json:"bikeId"`
	StravaRide  *int64      `json:"stravaRide,omitempty"`
	DeletedAt   *time.Time  `json:"deletedAt,omitempty"`
}

// RidePartial is the create/update payload for a ride.
type RidePartial struct {
	Date        dbtime.Date `json:"date" validate:"required"`
	Distance    float64     `json:"distance" validate:"gte=0"`
	Description string      `json:"description" validate:"max=500"`
	StravaRide  *int64      `json:"stravaRide"`
}

type rideRaw struct {
	ID          int64   `db:"id"`
	Date        string  `db:"date"`
	Distance    float64 `db:"distance"`
	Description string  `db:"description"`
	BikeID      int64   `db:"bike_id"`
	StravaRide  *int64  `db:"strava_ride"`
	DeletedAt   *string `db:"deleted_at"`
}

func (r rideRaw) model() (*Ride, error) {
	date, err := dbtime.ParseDate(r.Date)
	if err != nil {
		return nil, err
	}
	deletedAt, err := dbtime.ParseNullableDateTime(r.DeletedAt)
	if err != nil {
		return nil, err
	}
	return &Ride{
		ID:          r.ID,
		Date:        dbtime.NewDate(date),
		Distance:    r.Distance,
		Description: r.Description,
		BikeID:      r.BikeID,
		StravaRide:  r.StravaRide,
		DeletedAt:   deletedAt,
	}, nil
}

// StravaLink binds a user to a Strava athlete. Tokens are never serialized
// to clients.
type StravaLink struct {
	UserID       int64     `json:"userId"`
	StravaID     int64     `json:"stravaId"`
	StravaName   string    `json:"stravaName"`
	LastSync     time.Time `json:"lastSync"`
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	ExpiresAt    time.Time `json:"-"`
}

type stravaRaw struct {
	UserID       int64  `db:"user_id"`
	StravaID     int64  `db:"strava_id"`
	StravaName   string `db:"strava_name"`
	LastSync     string `db:"last_sync"`
	AccessToken  string `db:"access_token"`
	RefreshToken string `db:"refresh_token"`
	ExpiresAt    string `db:"expires_at"`
}

func (r stravaRaw) model() (*StravaLink, error) {
	lastSync, err := dbtime.ParseDateTime(r.LastSync)
	if err != nil {
		return nil, err
	}
	expiresAt, err := dbtime.ParseDateTime(r.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &StravaLink{
		UserID:       r.UserID,
		StravaID:     r.StravaID,
		StravaName:   r.StravaName,
		LastSync:     lastSync,
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		ExpiresAt:    expiresAt,
	}, nil
}
