package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/H2RkawaNinja/dashboard/config"
	"github.com/H2RkawaNinja/dashboard/utils"
	"gorm.io/gorm"
)

type Intelligence struct {
	ID          int           `gorm:"primary_key" json:"id"`
	Category    IntelCategory `gorm:"size:20;not null;index" json:"category"`
	Title       string        `gorm:"size:200;not null" json:"title"`
	SubjectName *string       `gorm:"size:150" json:"subject_name"`
	Description *string       `gorm:"type:text" json:"description"`
	Importance  string        `gorm:"size:20;not null;default:Mittel" json:"importance"`
	Status      string        `gorm:"size:50;not null" json:"status"`
	Source      *string       `gorm:"size:200" json:"source"`
	Tags        *string       `gorm:"size:255" json:"tags"`
	Color       *string       `gorm:"size:20" json:"color"`
	GangId      *int          `gorm:"index" json:"gang_id"`
	AddedBy     *int          `gorm:"index" json:"added_by"`
	CreatedAt   time.Time     `gorm:"index" json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func (Intelligence) TableName() string {
	return "intelligence"
}

type IntelligenceRow struct {
	Intelligence
	AddedByName *string `json:"added_by_name"`
}

type IntelligenceInput struct {
	Category    IntelCategory `json:"category"`
	Title       string        `json:"title"`
	SubjectName *string       `json:"subject_name"`
	Description *string       `json:"description"`
	Importance  string        `json:"importance"`
	Status      string        `json:"status"`
	Source      *string       `json:"source"`
	Tags        *string       `json:"tags"`
	Color       *string       `json:"color"`
	GangId      *int          `json:"gang_id"`
}

var errIntelNotFound = utils.NewNotFoundError("Information nicht gefunden")

const importanceOrder = "CASE i.importance " +
	"WHEN 'Kritisch' THEN 1 WHEN 'Hoch' THEN 2 WHEN 'Mittel' THEN 3 WHEN 'Niedrig' THEN 4 ELSE 5 END"

func (input *IntelligenceInput) normalize() error {
	input.Title = strings.TrimSpace(input.Title)
	if input.Title == "" {
		return utils.NewValidationError("Titel ist erforderlich")
	}
	if !utils.IsOneOf(string(input.Category), string(IntelCategoryGang), string(IntelCategoryPerson)) {
		return utils.NewValidationError("Ungültige Kategorie")
	}
	if input.Importance == "" {
		input.Importance = ImportanceMedium
	}
	if !utils.IsOneOf(input.Importance, ImportanceCritical, ImportanceHigh, ImportanceMedium, ImportanceLow) {
		return utils.NewValidationError("Ungültige Wichtigkeit")
	}
	if strings.TrimSpace(input.Status) == "" {
		input.Status = DefaultIntelStatus
	}
	if input.GangId != nil && *input.GangId <= 0 {
		input.GangId = nil
	}
	if input.Category == IntelCategoryGang {
		input.GangId = nil
	}
	return nil
}

// checkGangReference makes sure gangId names an existing Gang record.
func checkGangReference(tx *gorm.DB, gangId *int) error {
	if gangId == nil {
		return nil
	}
	var count int64
	if err := tx.Model(&Intelligence{}).
		Where("id = ? AND category = ?", *gangId, IntelCategoryGang).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return utils.NewValidationError("Gang existiert nicht")
	}
	return nil
}

func ListIntelligence(ctx context.Context) ([]*IntelligenceRow, error) {
	db := config.GetDB()
	var results []*IntelligenceRow
	err := db.WithContext(ctx).Table("intelligence AS i").
		Select("i.*, m.full_name AS added_by_name").
		Joins("LEFT JOIN members m ON i.added_by = m.id").
		Order(importanceOrder).
		Order("i.created_at DESC").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func GetIntelligence(ctx context.Context, id int) (*Intelligence, error) {
	entry, err := utils.FetchModel[Intelligence](ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			return nil, errIntelNotFound
		}
		return nil, err
	}
	return entry, nil
}

func CreateIntelligence(ctx context.Context, input *IntelligenceInput) (*Intelligence, error) {
	if err := input.normalize(); err != nil {
		return nil, err
	}
	entry := Intelligence{
		Category:    input.Category,
		Title:       input.Title,
		SubjectName: input.SubjectName,
		Description: input.Description,
		Importance:  input.Importance,
		Status:      input.Status,
		Source:      input.Source,
		Tags:        input.Tags,
		Color:       input.Color,
		GangId:      input.GangId,
		AddedBy:     utils.ActorIdFromContext(ctx),
	}
	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkGangReference(tx, entry.GangId); err != nil {
			return err
		}
		if err := tx.Create(&entry).Error; err != nil {
			return err
		}
		return logActivity(ctx, tx, ActionIntelligence,
			fmt.Sprintf("Intel hinzugefügt: %s (%s)", entry.Title, entry.Category), nil)
	})
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func UpdateIntelligence(ctx context.Context, id int, input *IntelligenceInput) error {
	if err := input.normalize(); err != nil {
		return err
	}
	if input.GangId != nil && *input.GangId == id {
		return utils.NewValidationError("Eine Gang kann nicht sich selbst zugeordnet werden")
	}
	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := utils.FetchModelTx[Intelligence](tx, id); err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				return errIntelNotFound
			}
			return err
		}
		if err := checkGangReference(tx, input.GangId); err != nil {
			return err
		}
		if err := tx.Model(&Intelligence{}).Where("id = ?", id).Updates(map[string]interface{}{
			"category":     input.Category,
			"title":        input.Title,
			"subject_name": input.SubjectName,
			"description":  input.Description,
			"importance":   input.Importance,
			"status":       input.Status,
			"source":       input.Source,
			"tags":         input.Tags,
			"color":        input.Color,
			"gang_id":      input.GangId,
		}).Error; err != nil {
			return err
		}
		// a gang turned into a person keeps no members
		if input.Category != IntelCategoryGang {
			if err := tx.Model(&Intelligence{}).Where("gang_id = ?", id).Update("gang_id", nil).Error; err != nil {
				return err
			}
		}
		return logActivity(ctx, tx, ActionIntelligence, fmt.Sprintf("Intel aktualisiert: %s", input.Title), nil)
	})
}

// DeleteIntelligence removes the entry. Deleting a gang first detaches its
// persons; the number of detached persons is returned.
func DeleteIntelligence(ctx context.Context, id int) (int, error) {
	db := config.GetDB()
	var detached int
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		entry, err := utils.FetchModelTx[Intelligence](tx, id)
		if err != nil {
			if errors.Is(err, utils.ErrorRecordNotFound) {
				return errIntelNotFound
			}
			return err
		}
		if entry.Category == IntelCategoryGang {
			res := tx.Model(&Intelligence{}).Where("gang_id = ?", id).Update("gang_id", nil)
			if res.Error != nil {
				return res.Error
			}
			detached = int(res.RowsAffected)
		}
		if err := tx.Delete(&Intelligence{}, id).Error; err != nil {
			return err
		}
		description := fmt.Sprintf("Intel gelöscht: %s", entry.Title)
		if detached > 0 {
			description = fmt.Sprintf("Intel gelöscht: %s (%d Person(en) wurden von der Gang entfernt)", entry.Title, detached)
		}
		return logActivity(ctx, tx, ActionIntelligence, description, nil)
	})
	if err != nil {
		return 0, err
	}
	return detached, nil
}
