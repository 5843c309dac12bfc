package domain

import "time"

// PetStatus adoption listing status
type PetStatus string

const (
	PetStatusAvailable PetStatus = "available"
	PetStatusPending   PetStatus = "pending"
	PetStatusAdopted   PetStatus = "adopted"
)

// Pet is owned by the listing subsystem. The messaging core only reads it
// for denormalized display and tolerates missing rows.
type Pet struct {
	ID        uint64    `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	OwnerID   uint64    `gorm:"column:owner_id;index" json:"owner_id"`
	Name      string    `gorm:"column:name;size:100" json:"name"`
	Species   string    `gorm:"column:species;size:50" json:"species"`
	Breed     string    `gorm:"column:breed;size:100" json:"breed"`
	PhotoURL  string    `gorm:"column:photo_url;size:500" json:"photo_url"`
	Status    PetStatus `gorm:"column:status;size:20;default:available" json:"status"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName returns the table name
func (Pet) TableName() string {
	return "pets"
}

// PetRef is the denormalized pet projection used in conversation summaries
type PetRef struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	PhotoURL string `json:"photo_url,omitempty"`
}

// PlaceholderPet stands in for a pet that was deleted after the
// conversation started. Listing must not fail on it.
func PlaceholderPet(id uint64) *PetRef {
	return &PetRef{ID: id, Name: "Unknown pet"}
}

// Ref projects a Pet for summary rendering
func (p *Pet) Ref() *PetRef {
	return &PetRef{ID: p.ID, Name: p.Name, PhotoURL: p.PhotoURL}
}
