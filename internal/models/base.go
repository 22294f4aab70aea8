package models

import (
	"time"

	"github.com/google/uuid"
)

// TimeLayout is the textual form of timestamps in serialized records.
const TimeLayout = "2006-01-02T15:04:05.000000"

// ClassField is the record field carrying the entity type tag.
const ClassField = "__class__"

// BaseModel provides common fields for all entities.
type BaseModel struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewBase returns a BaseModel with a fresh id and both timestamps set to now.
func NewBase() BaseModel {
	now := Now()
	return BaseModel{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Now returns the current UTC time at the precision kept by TimeLayout.
func Now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// Base implements Entity.
func (b *BaseModel) Base() *BaseModel {
	return b
}

// Touch refreshes UpdatedAt.
func (b *BaseModel) Touch() {
	b.UpdatedAt = Now()
}

// Entity is a persistable domain object.
type Entity interface {
	// Class returns the type name used in composite keys and type tags.
	Class() string
	// Base returns the identity and timestamps of the entity.
	Base() *BaseModel
	// Attributes returns the class-specific fields keyed by their record name.
	Attributes() map[string]any
}
