package models

import (
	"context"
	"encoding/json"
	"time"

	"github.com/H2RkawaNinja/dashboard/config"
	"github.com/H2RkawaNinja/dashboard/metrics"
	"github.com/H2RkawaNinja/dashboard/utils"
	"gorm.io/gorm"
)

const (
	RecentActivityLimit = 50
	MaxActivityExport   = 5000
)

type ActivityLog struct {
	ID          int       `gorm:"primary_key" json:"id"`
	MemberId    *int      `gorm:"index" json:"member_id"`
	ActionType  string    `gorm:"size:50;not null;index" json:"action_type"`
	Description string    `gorm:"type:text;not null" json:"description"`
	Details     *string   `gorm:"type:text" json:"-"`
	Timestamp   time.Time `gorm:"autoCreateTime;index" json:"timestamp"`
}

func (ActivityLog) TableName() string {
	return "activity_log"
}

type ActivityEntry struct {
	ActivityLog
	FullName *string         `json:"full_name"`
	Detail   json.RawMessage `gorm:"-" json:"details,omitempty"`
}

// logActivity appends an audit row inside tx, attributed to the member in ctx.
func logActivity(ctx context.Context, tx *gorm.DB, actionType string, description string, details any) error {
	return logActivityAs(tx, utils.ActorIdFromContext(ctx), actionType, description, details)
}

// actorName is the display name of the member in ctx.
func actorName(ctx context.Context) string {
	name, ok := utils.GetUserNameFromContext(ctx)
	if !ok || name == "" {
		return "Unbekannt"
	}
	return name
}

func logActivityAs(tx *gorm.DB, memberId *int, actionType string, description string, details any) error {
	entry := ActivityLog{
		MemberId:    memberId,
		ActionType:  actionType,
		Description: description,
	}
	if details != nil {
		encoded, err := utils.MarshalToJSON(details)
		if err != nil {
			return err
		}
		entry.Details = &encoded
	}
	if err := tx.Create(&entry).Error; err != nil {
		return err
	}
	metrics.RecordActivity(actionType)
	return nil
}

// RecentActivity returns the newest entries with the acting member's name.
func RecentActivity(ctx context.Context, limit int) ([]*ActivityEntry, error) {
	if limit <= 0 {
		limit = RecentActivityLimit
	}
	if limit > MaxActivityExport {
		limit = MaxActivityExport
	}
	db := config.GetDB()
	var results []*ActivityEntry
	err := db.WithContext(ctx).Table("activity_log AS a").
		Select("a.*, m.full_name").
		Joins("LEFT JOIN members m ON a.member_id = m.id").
		Order("a.timestamp DESC").Order("a.id DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}
	for _, r := range results {
		if r.Details != nil && json.Valid([]byte(*r.Details)) {
			r.Detail = json.RawMessage(*r.Details)
		}
	}
	return results, nil
}
