package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, material *Material) error
	Update(ctx context.Context, db *gorm.DB, material *Material) error
	FindByID(ctx context.Context, db *gorm.DB, id int64) (*Material, error)
	List(ctx context.Context, db *gorm.DB, filter ListRequest) ([]Material, error)

	UpsertAssignment(ctx context.Context, db *gorm.DB, assignment *Assignment) error
	FindAssignment(ctx context.Context, db *gorm.DB, hospitalID string, materialID int64) (*Assignment, error)
	HospitalsForMaterial(ctx context.Context, db *gorm.DB, materialID int64) ([]string, error)

	FindRecords(ctx context.Context, db *gorm.DB, hospitalID, materialNumber string) ([]Record, error)
	SearchRecords(ctx context.Context, db *gorm.DB, filter SearchRequest) ([]Record, error)
	DistinctValues(ctx context.Context, db *gorm.DB, hospitalID string, level Level, parents map[Level]string) ([]string, error)
}
