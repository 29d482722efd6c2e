package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Property is the minimal listing record negotiations refer to. The owner is
// the seller of every negotiation opened on it.
type Property struct {
	PropertyID  uuid.UUID `gorm:"column:property_id;type:uuid;primaryKey" json:"property_id"`
	OwnerID     uuid.UUID `gorm:"column:owner_id;type:uuid;not null;index" json:"owner_id"`
	Title       string    `gorm:"column:title;not null" json:"title"`
	ListingType string    `gorm:"column:listing_type;type:varchar(10);not null;default:'BUY'" json:"listing_type"`
	CreatedAt   time.Time `gorm:"column:createdAt" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"column:updatedAt" json:"updatedAt"`
}

func (Property) TableName() string {
	return "Properties"
}

func (p *Property) BeforeCreate(tx *gorm.DB) error {
	if p.PropertyID == uuid.Nil {
		p.PropertyID = uuid.New()
	}
	return nil
}
