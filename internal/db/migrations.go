package db

import (
	"fmt"

	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	models "bakery/internal/models"
)

// MigrationsTable records the ids of applied migrations.
const MigrationsTable = "schema_migrations"

var migrationOptions = &gormigrate.Options{
	TableName:                 MigrationsTable,
	IDColumnName:              "version",
	IDColumnSize:              64,
	UseTransaction:            true,
	ValidateUnknownMigrations: true,
}

// migrations run in order, each at most once.
var migrations = []*gormigrate.Migration{
	{
		ID: "0001_create_catalog",
		Migrate: func(tx *gorm.DB) error {
			return tx.AutoMigrate(&models.Product{}, &models.Review{}, &models.Order{})
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&models.Order{}, &models.Review{}, &models.Product{})
		},
	},
	{
		ID: "0002_add_users_table",
		Migrate: func(tx *gorm.DB) error {
			if err := tx.AutoMigrate(&models.User{}); err != nil {
				return err
			}
			if err := tx.Model(&models.Product{}).Where("sales IS NULL").
				Update("sales", 0).Error; err != nil {
				return err
			}
			return tx.Model(&models.Product{}).Where("image_url IS NULL").
				Update("image_url", models.DefaultImageURL).Error
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropTable(&models.User{})
		},
	},
	{
		ID: "0003_make_users_email_unique",
		Migrate: func(tx *gorm.DB) error {
			if tx.Migrator().HasIndex(&models.User{}, "uq_users_email") {
				return nil
			}
			return tx.Migrator().CreateIndex(&models.User{}, "uq_users_email")
		},
		Rollback: func(tx *gorm.DB) error {
			return tx.Migrator().DropIndex(&models.User{}, "uq_users_email")
		},
	},
}

// Migrate applies pending migrations and returns the ids it ran.
func Migrate(db *gorm.DB) ([]string, error) {
	applied, err := appliedVersions(db)
	if err != nil {
		return nil, err
	}
	if err := gormigrate.New(db, migrationOptions, migrations).Migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	var ran []string
	for _, m := range migrations {
		if !applied[m.ID] {
			ran = append(ran, m.ID)
		}
	}
	return ran, nil
}

// RollbackLast undoes the most recently applied migration.
func RollbackLast(db *gorm.DB) error {
	if err := gormigrate.New(db, migrationOptions, migrations).RollbackLast(); err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	return nil
}

func appliedVersions(db *gorm.DB) (map[string]bool, error) {
	done := map[string]bool{}
	if !db.Migrator().HasTable(MigrationsTable) {
		return done, nil
	}
	var versions []string
	if err := db.Table(MigrationsTable).Pluck(migrationOptions.IDColumnName, &versions).Error; err != nil {
		return nil, fmt.Errorf("read %s: %w", MigrationsTable, err)
	}
	for _, v := range versions {
		done[v] = true
	}
	return done, nil
}
