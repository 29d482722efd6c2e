// Package properties answers the two questions negotiations ask about a
// listing: does it exist, and who owns it.
package properties

import (
	"context"
	"errors"

	"realty-backend/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrPropertyNotFound = errors.New("Property not found")

// Directory resolves a property's owner. Implementations return
// ErrPropertyNotFound for unknown ids.
type Directory interface {
	OwnerID(ctx context.Context, propertyID uuid.UUID) (uuid.UUID, error)
}

// GormDirectory reads the Properties table.
type GormDirectory struct {
	DB *gorm.DB
}

func (d *GormDirectory) OwnerID(ctx context.Context, propertyID uuid.UUID) (uuid.UUID, error) {
	var p domain.Property
	err := d.DB.WithContext(ctx).Select("property_id", "owner_id").Where("property_id = ?", propertyID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, ErrPropertyNotFound
	}
	if err != nil {
		return uuid.Nil, err
	}
	return p.OwnerID, nil
}

// Exists reports whether the property is known.
func (d *GormDirectory) Exists(ctx context.Context, propertyID uuid.UUID) (bool, error) {
	_, err := d.OwnerID(ctx, propertyID)
	if errors.Is(err, ErrPropertyNotFound) {
		return false, nil
	}
	return err == nil, err
}
