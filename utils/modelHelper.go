package utils

import (
	"context"
	"errors"

	"github.com/H2RkawaNinja/dashboard/config"
	"gorm.io/gorm"
)

/* DB fetching */

// fetch model from db
// (may return RecordNotFound)
func FetchModel[T any](ctx context.Context, id int, associations ...string) (*T, error) {
	return FetchModelTx[T](config.GetDB().WithContext(ctx), id, associations...)
}

// fetch model inside an open transaction
// (may return RecordNotFound)
func FetchModelTx[T any](tx *gorm.DB, id int, associations ...string) (*T, error) {
	q := tx
	for _, field := range associations {
		q = q.Preload(field)
	}
	var result T
	err := q.First(&result, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrorRecordNotFound
		}
		return nil, err
	}
	return &result, nil
}

// count rows of T matching the condition
func ResourceCountWhere[T any](ctx context.Context, cond string, values ...interface{}) (int64, error) {
	db := config.GetDB()
	var count int64
	err := db.WithContext(ctx).Model(new(T)).Where(cond, values...).Count(&count).Error
	return count, err
}
