package database

import (
	"log"

	"backend/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}

// Migrate runs the schema migration for all core models. Split out so tests
// can run it against their own database handle.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.User{},
		&model.RefreshToken{},
		&model.Role{},
		&model.Permission{},
		&model.Facility{},
		&model.Category{},
		&model.Project{},
		&model.ProjectActivity{},
		&model.ProjectDocument{},
		&model.Partner{},
		&model.Campaign{},
		&model.Budget{},
		&model.BudgetTransfer{},
		&model.Transaction{},
		&model.TransactionDocument{},
		&model.AuditLog{},
	)
}
