package repository

import (
	"context"
	"strings"

	"github.com/smallbiznis/medbill/internal/material/domain"
	"github.com/smallbiznis/medbill/pkg/db/option"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const recordColumns = `m.id AS material_id, hm.hospital_id, m.material_number, m.description, m.hsn_code, m.unit,
	m.gst_percentage, m.mrp, m.institutional_price, m.distribution_price,
	hm.institutional_price AS override_institutional_price, hm.mrp AS override_mrp,
	m.currency, m.surgical_category,
	COALESCE(m.implant_type, '') AS implant_type,
	COALESCE(m.sub_category, '') AS sub_category,
	COALESCE(m.length_mm, '') AS length_mm`

const assignedFrom = `FROM hospital_materials hm
	JOIN materials m ON m.id = hm.material_id
	WHERE hm.hospital_id = ? AND hm.active = ? AND m.active = ?`

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, material *domain.Material) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO materials (id, material_number, description, hsn_code, unit, gst_percentage, mrp,
		   institutional_price, distribution_price, currency, surgical_category, implant_type, sub_category,
		   length_mm, active, metadata, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		material.ID,
		material.MaterialNumber,
		material.Description,
		material.HSNCode,
		material.Unit,
		material.GSTPercentage,
		material.MRP,
		material.InstitutionalPrice,
		material.DistributionPrice,
		material.Currency,
		material.SurgicalCategory,
		material.ImplantType,
		material.SubCategory,
		material.LengthMM,
		material.Active,
		material.Metadata,
		material.CreatedAt,
		material.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, material *domain.Material) error {
	if material == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Exec(
		`UPDATE materials
		 SET description = ?, hsn_code = ?, unit = ?, gst_percentage = ?, mrp = ?, institutional_price = ?,
		   distribution_price = ?, active = ?, updated_at = ?
		 WHERE id = ?`,
		material.Description,
		material.HSNCode,
		material.Unit,
		material.GSTPercentage,
		material.MRP,
		material.InstitutionalPrice,
		material.DistributionPrice,
		material.Active,
		material.UpdatedAt,
		material.ID,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id int64) (*domain.Material, error) {
	var m domain.Material
	err := db.WithContext(ctx).Raw(
		`SELECT id, material_number, description, hsn_code, unit, gst_percentage, mrp, institutional_price,
		   distribution_price, currency, surgical_category, implant_type, sub_category, length_mm, active,
		   metadata, created_at, updated_at
		 FROM materials WHERE id = ?`,
		id,
	).Scan(&m).Error
	if err != nil {
		return nil, err
	}
	if m.ID == 0 {
		return nil, nil
	}
	return &m, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListRequest) ([]domain.Material, error) {
	var items []domain.Material
	stmt := db.WithContext(ctx).Model(&domain.Material{})

	stmt = option.Equal("surgical_category", filter.SurgicalCategory).Apply(stmt)
	if filter.Active != nil {
		stmt = stmt.Where("active = ?", *filter.Active)
	}

	stmt = option.WithSortBy(option.WithQuerySortBy(filter.SortBy, filter.OrderBy, map[string]bool{
		"created_at":      true,
		"material_number": true,
		"description":     true,
	})).Apply(stmt)

	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) UpsertAssignment(ctx context.Context, db *gorm.DB, assignment *domain.Assignment) error {
	return db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "hospital_id"}, {Name: "material_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"institutional_price", "mrp", "active", "updated_at"}),
	}).Create(assignment).Error
}

func (r *repo) FindAssignment(ctx context.Context, db *gorm.DB, hospitalID string, materialID int64) (*domain.Assignment, error) {
	var a domain.Assignment
	err := db.WithContext(ctx).Raw(
		`SELECT id, hospital_id, material_id, institutional_price, mrp, active, created_at, updated_at
		 FROM hospital_materials WHERE hospital_id = ? AND material_id = ?`,
		hospitalID,
		materialID,
	).Scan(&a).Error
	if err != nil {
		return nil, err
	}
	if a.ID == 0 {
		return nil, nil
	}
	return &a, nil
}

func (r *repo) HospitalsForMaterial(ctx context.Context, db *gorm.DB, materialID int64) ([]string, error) {
	var hospitals []string
	err := db.WithContext(ctx).Raw(
		`SELECT DISTINCT hospital_id FROM hospital_materials WHERE material_id = ?`,
		materialID,
	).Scan(&hospitals).Error
	return hospitals, err
}

// FindRecords returns every active assignment of hospitalID whose material
// number equals materialNumber case-insensitively. More than one row means the
// catalog holds duplicates.
func (r *repo) FindRecords(ctx context.Context, db *gorm.DB, hospitalID, materialNumber string) ([]domain.Record, error) {
	var records []domain.Record
	err := db.WithContext(ctx).Raw(
		`SELECT `+recordColumns+` `+assignedFrom+` AND UPPER(m.material_number) = ?
		 ORDER BY m.id LIMIT 2`,
		hospitalID, true, true,
		strings.ToUpper(materialNumber),
	).Scan(&records).Error
	if err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repo) SearchRecords(ctx context.Context, db *gorm.DB, filter domain.SearchRequest) ([]domain.Record, error) {
	query := `SELECT ` + recordColumns + ` ` + assignedFrom
	args := []any{filter.Scope.HospitalID, true, true}

	for _, level := range domain.Levels {
		if value := strings.TrimSpace(level.Value(filter.Scope)); value != "" {
			query += levelFilter(level)
			args = append(args, value)
		}
	}
	query += ` ORDER BY m.material_number ASC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.Limit)
	}

	var records []domain.Record
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&records).Error; err != nil {
		return nil, err
	}
	return records, nil
}

func (r *repo) DistinctValues(ctx context.Context, db *gorm.DB, hospitalID string, level domain.Level, parents map[domain.Level]string) ([]string, error) {
	column := "m." + level.Column()
	query := `SELECT DISTINCT ` + column + ` ` + assignedFrom +
		` AND ` + column + ` IS NOT NULL AND ` + column + ` <> ''`
	args := []any{hospitalID, true, true}

	for _, parent := range domain.Levels[:level.Depth()] {
		if value, ok := parents[parent]; ok {
			query += levelFilter(parent)
			args = append(args, strings.TrimSpace(value))
		}
	}
	query += ` ORDER BY ` + column + ` ASC`

	var values []string
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&values).Error; err != nil {
		return nil, err
	}
	return values, nil
}

// levelFilter matches a classification column the way domain.Record.Matches
// does: trimmed and case-insensitive.
func levelFilter(level domain.Level) string {
	return ` AND LOWER(TRIM(m.` + level.Column() + `)) = LOWER(?)`
}
