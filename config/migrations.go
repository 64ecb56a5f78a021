package config

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"p9e.in/borelog/models"
)

// Migrations runs the versioned schema migrations. The composite unique
// index on borelog_versions (borelog_id, version_no) comes from the
// model tags and is what serializes concurrent version allocation.
func Migrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "20260615_create_borelog_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(
					&models.Project{},
					&models.Structure{},
					&models.Borehole{},
					&models.BorelogVersion{},
				)
			},
		},
		{
			ID: "20260820_add_raw_input_to_borelog_versions",
			Migrate: func(tx *gorm.DB) error {
				if tx.Migrator().HasColumn(&models.BorelogVersion{}, "raw_input") {
					return nil
				}
				return tx.Migrator().AddColumn(&models.BorelogVersion{}, "raw_input")
			},
		},
	})

	return m.Migrate()
}
