package service

import (
	"context"
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"gradebook/internal/model"
)

// ErrNotFound is returned when an update or delete targets a missing id.
var ErrNotFound = errors.New("record not found")

var sortColumns = map[string]string{
	"id":     "id",
	"name":   "name",
	"course": "course",
	"grade":  "grade",
}

// ListOptions narrows and orders a listing. The zero value lists everything
// in id order.
type ListOptions struct {
	Name      string
	Course    string
	GradeMin  *int
	GradeMax  *int
	SortBy    string
	SortOrder string
}

type RecordService struct {
	db *gorm.DB
}

func NewRecordService(db *gorm.DB) *RecordService {
	return &RecordService{db: db}
}

func (s *RecordService) List(ctx context.Context, opts ListOptions) ([]model.Record, error) {
	var records []model.Record
	dbQuery := s.db.WithContext(ctx).Model(&model.Record{})

	// Apply filters
	if opts.Name != "" {
		dbQuery = dbQuery.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(opts.Name)+"%")
	}
	if opts.Course != "" {
		dbQuery = dbQuery.Where("course = ?", opts.Course)
	}
	if opts.GradeMin != nil {
		dbQuery = dbQuery.Where("grade >= ?", *opts.GradeMin)
	}
	if opts.GradeMax != nil {
		dbQuery = dbQuery.Where("grade <= ?", *opts.GradeMax)
	}

	// Apply sorting; unknown columns fall back to insertion order
	column, ok := sortColumns[opts.SortBy]
	if !ok {
		column = "id"
	}
	order := column + " asc"
	if strings.EqualFold(opts.SortOrder, "desc") {
		order = column + " desc"
	}
	if column != "id" {
		order += ", id asc"
	}

	if err := dbQuery.Order(order).Find(&records).Error; err != nil {
		return nil, errors.Wrap(err, "listing records")
	}
	return records, nil
}

func (s *RecordService) Create(ctx context.Context, draft model.Draft) (model.Record, error) {
	if err := draft.Validate(); err != nil {
		return model.Record{}, err
	}
	rec := draft.Record(0)
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return model.Record{}, errors.Wrap(err, "inserting record")
	}
	return rec, nil
}

// Update replaces the record's fields. Writing values identical to the stored
// ones still matches the row and is reported as a success.
func (s *RecordService) Update(ctx context.Context, id uint, draft model.Draft) (model.Record, error) {
	if err := draft.Validate(); err != nil {
		return model.Record{}, err
	}
	res := s.db.WithContext(ctx).Model(&model.Record{}).Where("id = ?", id).Updates(map[string]interface{}{
		"name":   draft.Name,
		"course": draft.Course,
		"grade":  *draft.Grade,
	})
	if res.Error != nil {
		return model.Record{}, errors.Wrapf(res.Error, "updating record %d", id)
	}
	if res.RowsAffected == 0 {
		return model.Record{}, errors.Wrapf(ErrNotFound, "updating record %d", id)
	}
	return draft.Record(id), nil
}

func (s *RecordService) Delete(ctx context.Context, id uint) error {
	res := s.db.WithContext(ctx).Delete(&model.Record{}, id)
	if res.Error != nil {
		return errors.Wrapf(res.Error, "deleting record %d", id)
	}
	if res.RowsAffected == 0 {
		return errors.Wrapf(ErrNotFound, "deleting record %d", id)
	}
	return nil
}

// Stats returns the row count and the rounded average grade (0 when empty).
func (s *RecordService) Stats(ctx context.Context) (model.Stats, error) {
	var row struct {
		Count int64
		Total int64
	}
	err := s.db.WithContext(ctx).Model(&model.Record{}).
		Select("COUNT(*) AS count, COALESCE(SUM(grade), 0) AS total").
		Scan(&row).Error
	if err != nil {
		return model.Stats{}, errors.Wrap(err, "computing stats")
	}
	return model.Stats{Count: row.Count, Average: model.Average(row.Total, row.Count)}, nil
}
