package store

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"tuckertrips/internal/domain"
)

// GORM models used for persistence.
type UserModel struct {
	ID           string    `gorm:"primaryKey"`
	Email        string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	Name         string    `gorm:"not null"`
	Bio          string
	CreatedAt    time.Time `gorm:"not null"`
}

type TripModel struct {
	ID             string `gorm:"primaryKey"`
	OwnerID        string `gorm:"not null;index"`
	Title          string `gorm:"not null"`
	Destination    string `gorm:"not null"`
	StartDate      string `gorm:"not null"`
	EndDate        string
	Status         string `gorm:"not null"`
	Visibility     string `gorm:"not null"`
	Description    string
	CoverPhoto     string
	Weather        string
	OverallComment string
	Airlines       datatypes.JSON
	Accommodations datatypes.JSON
	TripImages     datatypes.JSON
	SharedWith     datatypes.JSON
	Segments       datatypes.JSON
	CreatedAt      time.Time `gorm:"not null;index"`
	UpdatedAt      time.Time `gorm:"not null"`
}

func userToModel(u domain.User) UserModel {
	return UserModel{
		ID:           u.ID,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Name:         u.Name,
		Bio:          u.Bio,
		CreatedAt:    u.CreatedAt,
	}
}

func userFromModel(m UserModel) domain.User {
	return domain.User{
		ID:           m.ID,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		Name:         m.Name,
		Bio:          m.Bio,
		CreatedAt:    m.CreatedAt,
	}
}

func tripToModel(t domain.Trip) TripModel {
	return TripModel{
		ID:             t.ID,
		OwnerID:        t.OwnerID,
		Title:          t.Title,
		Destination:    t.Destination,
		StartDate:      t.StartDate,
		EndDate:        t.EndDate,
		Status:         string(t.Status),
		Visibility:     string(t.Visibility),
		Description:    t.Description,
		CoverPhoto:     t.CoverPhoto,
		Weather:        t.Weather,
		OverallComment: t.OverallComment,
		Airlines:       marshalJSON(t.Airlines),
		Accommodations: marshalJSON(t.Accommodations),
		TripImages:     marshalJSON(t.TripImages),
		SharedWith:     marshalJSON(t.SharedWith),
		Segments:       marshalJSON(t.Segments),
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

func tripFromModel(m TripModel) domain.Trip {
	return domain.Trip{
		ID:             m.ID,
		OwnerID:        m.OwnerID,
		Title:          m.Title,
		Destination:    m.Destination,
		StartDate:      m.StartDate,
		EndDate:        m.EndDate,
		Status:         domain.TripStatus(m.Status),
		Visibility:     domain.TripVisibility(m.Visibility),
		Description:    m.Description,
		CoverPhoto:     m.CoverPhoto,
		Weather:        m.Weather,
		OverallComment: m.OverallComment,
		Airlines:       unmarshalStrings(m.Airlines),
		Accommodations: unmarshalStrings(m.Accommodations),
		TripImages:     unmarshalStrings(m.TripImages),
		SharedWith:     unmarshalStrings(m.SharedWith),
		Segments:       unmarshalSegments(m.Segments),
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}

func marshalJSON(v any) datatypes.JSON {
	b, err := json.Marshal(v)
	if err != nil {
		return datatypes.JSON("null")
	}
	return datatypes.JSON(b)
}

func unmarshalStrings(d datatypes.JSON) []string {
	var out []string
	if len(d) > 0 {
		_ = json.Unmarshal(d, &out)
	}
	if out == nil {
		out = []string{}
	}
	return out
}

func unmarshalSegments(d datatypes.JSON) []map[string]any {
	var out []map[string]any
	if len(d) > 0 {
		_ = json.Unmarshal(d, &out)
	}
	if out == nil {
		out = []map[string]any{}
	}
	return out
}
