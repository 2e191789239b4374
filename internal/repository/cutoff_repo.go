package repository

import (
	"context"

	"admitpredict/internal/model"

	"gorm.io/gorm"
)

// Reserved-institute exclusion patterns for JEE-Main predictions. A row
// survives only if none of the three match (case-insensitive).
const (
	reservedInstituteType    = "IIT"
	reservedInstituteFull    = "%indian institute of technology%"
	reservedInstituteAcronym = "%iit%"
)

// CutoffRepository is a read-only query surface over the historical
// cutoff dataset. The table is loaded by an external import pipeline.
type CutoffRepository struct {
	db *gorm.DB
}

func NewCutoffRepository(db *gorm.DB) *CutoffRepository {
	return &CutoffRepository{db: db}
}

func (r *CutoffRepository) Search(ctx context.Context, f model.CutoffFilter) ([]*model.CutoffRecord, error) {
	query := r.db.WithContext(ctx).
		Model(&model.CutoffRecord{}).
		Where("academic_year = ?", f.AcademicYear).
		Where("closing_rank <= ?", f.MaxClosingRank).
		Where("opening_rank >= ?", f.MinOpeningRank)

	if f.SeatType != "" {
		query = query.Where("seat_type = ?", f.SeatType)
	}
	if f.Gender != "" {
		query = query.Where("gender = ?", f.Gender)
	}
	if f.ExcludeReserved {
		query = query.
			Where("UPPER(institute_type) <> ?", reservedInstituteType).
			Where("LOWER(institute) NOT LIKE ?", reservedInstituteFull).
			Where("LOWER(institute) NOT LIKE ?", reservedInstituteAcronym)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}

	var records []*model.CutoffRecord
	err := query.
		Order("closing_rank ASC").
		Limit(limit).
		Find(&records).Error
	return records, err
}
