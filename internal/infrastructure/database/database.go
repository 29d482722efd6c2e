package database

import (
	"realty-backend/internal/domain"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open opens a GORM DB from DSN (Postgres or a pooler URL).
// PreferSimpleProtocol disables prepared statement caching to avoid 42P05
// ("prepared statement already exists") behind PgBouncer-style poolers.
// TranslateError maps unique violations to gorm.ErrDuplicatedKey.
func Open(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{TranslateError: true})
}

// Models lists every table the service owns, in dependency order.
func Models() []interface{} {
	return []interface{}{
		&domain.User{},
		&domain.Property{},
		&domain.Negotiation{},
		&domain.Offer{},
		&domain.Transaction{},
		&domain.NegotiationEvent{},
	}
}

// AutoMigrate creates or updates tables and indexes, including the partial
// unique indexes on active negotiations and pending offers.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
