package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/H2RkawaNinja/dashboard/config"
	"github.com/H2RkawaNinja/dashboard/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Recipe struct {
	ID             int                 `gorm:"primary_key" json:"id"`
	RecipeName     string              `gorm:"size:150;not null" json:"recipe_name"`
	Category       string              `gorm:"size:100;not null;index" json:"category"`
	Description    *string             `gorm:"type:text" json:"description"`
	CraftingTime   int                 `gorm:"not null;default:0" json:"crafting_time"`
	OutputItem     *string             `gorm:"size:150" json:"output_item"`
	OutputQuantity int                 `gorm:"not null;default:1" json:"output_quantity"`
	ProductImage   *string             `gorm:"type:text" json:"product_image"`
	Notes          *string             `gorm:"type:text" json:"notes"`
	CreatedBy      *int                `gorm:"index" json:"created_by"`
	IsActive       *bool               `gorm:"not null;default:true;index" json:"is_active"`
	CreatedDate    time.Time           `gorm:"autoCreateTime;index" json:"created_date"`
	UpdatedDate    time.Time           `gorm:"autoUpdateTime" json:"updated_date"`
	Ingredients    []*RecipeIngredient `gorm:"foreignKey:RecipeId" json:"ingredients,omitempty"`
}

func (Recipe) TableName() string {
	return "recipes"
}

type RecipeIngredient struct {
	ID             int             `gorm:"primary_key" json:"id"`
	RecipeId       int             `gorm:"not null;index" json:"recipe_id"`
	IngredientName string          `gorm:"size:150;not null" json:"ingredient_name"`
	Quantity       decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	Unit           *string         `gorm:"size:30" json:"unit"`
}

func (RecipeIngredient) TableName() string {
	return "recipe_ingredients"
}

type RecipeRow struct {
	Recipe
	CreatorName     *string `json:"creator_name"`
	IngredientCount int     `json:"ingredient_count"`
}

type RecipeIngredientInput struct {
	IngredientName string          `json:"ingredient_name"`
	Quantity       decimal.Decimal `json:"quantity"`
	Unit           *string         `json:"unit"`
}

type RecipeInput struct {
	RecipeName     string                  `json:"recipe_name"`
	Category       string                  `json:"category"`
	Description    *string                 `json:"description"`
	CraftingTime   int                     `json:"crafting_time"`
	OutputItem     *string                 `json:"output_item"`
	OutputQuantity int                     `json:"output_quantity"`
	ProductImage   *string                 `json:"product_image"`
	Notes          *string                 `json:"notes"`
	Ingredients    []RecipeIngredientInput `json:"ingredients"`
}

var errRecipeNotFound = utils.NewNotFoundError("Rezept nicht gefunden")

func (input *RecipeInput) normalize() error {
	input.RecipeName = strings.TrimSpace(input.RecipeName)
	input.Category = strings.TrimSpace(input.Category)
	if input.RecipeName == "" || input.Category == "" {
		return utils.NewValidationError("Rezeptname und Kategorie sind erforderlich")
	}
	if len(input.Ingredients) == 0 {
		return utils.NewValidationError("Mindestens eine Zutat ist erforderlich")
	}
	for _, ing := range input.Ingredients {
		if strings.TrimSpace(ing.IngredientName) == "" {
			return utils.NewValidationError("Zutatenname ist erforderlich")
		}
	}
	if input.CraftingTime < 0 {
		input.CraftingTime = 0
	}
	if input.OutputQuantity <= 0 {
		input.OutputQuantity = 1
	}
	return nil
}

func replaceIngredients(tx *gorm.DB, recipeId int, inputs []RecipeIngredientInput) error {
	if err := tx.Where("recipe_id = ?", recipeId).Delete(&RecipeIngredient{}).Error; err != nil {
		return err
	}
	ingredients := make([]*RecipeIngredient, 0, len(inputs))
	for _, ing := range inputs {
		ingredients = append(ingredients, &RecipeIngredient{
			RecipeId:       recipeId,
			IngredientName: strings.TrimSpace(ing.IngredientName),
			Quantity:       ing.Quantity,
			Unit:           ing.Unit,
		})
	}
	return tx.Create(&ingredients).Error
}

func ListRecipes(ctx context.Context) ([]*RecipeRow, error) {
	db := config.GetDB()
	var results []*RecipeRow
	err := db.WithContext(ctx).Table("recipes AS r").
		Select("r.*, m.full_name AS creator_name, " +
			"(SELECT COUNT(*) FROM recipe_ingredients ri WHERE ri.recipe_id = r.id) AS ingredient_count").
		Joins("LEFT JOIN members m ON r.created_by = m.id").
		Where("r.is_active = ?", true).
		Order("r.created_date DESC").Order("r.id DESC").
		Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// GetRecipe returns an active recipe with its ingredients in insertion order.
func GetRecipe(ctx context.Context, id int) (*Recipe, error) {
	db := config.GetDB()
	var recipe Recipe
	err := db.WithContext(ctx).
		Preload("Ingredients", func(tx *gorm.DB) *gorm.DB { return tx.Order("id") }).
		Where("id = ? AND is_active = ?", id, true).
		Take(&recipe).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errRecipeNotFound
		}
		return nil, err
	}
	return &recipe, nil
}

func CreateRecipe(ctx context.Context, input *RecipeInput) (*Recipe, error) {
	if err := input.normalize(); err != nil {
		return nil, err
	}
	recipe := Recipe{
		RecipeName:     input.RecipeName,
		Category:       input.Category,
		Description:    input.Description,
		CraftingTime:   input.CraftingTime,
		OutputItem:     input.OutputItem,
		OutputQuantity: input.OutputQuantity,
		ProductImage:   input.ProductImage,
		Notes:          input.Notes,
		CreatedBy:      utils.ActorIdFromContext(ctx),
		IsActive:       utils.NewTrue(),
	}
	db := config.GetDB()
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Ingredients").Create(&recipe).Error; err != nil {
			return err
		}
		if err := replaceIngredients(tx, recipe.ID, input.Ingredients); err != nil {
			return err
		}
		return logActivity(ctx, tx, ActionRecipe, fmt.Sprintf("Rezept erstellt: %s", recipe.RecipeName), nil)
	})
	if err != nil {
		return nil, err
	}
	return &recipe, nil
}

// UpdateRecipe overwrites the recipe and swaps the whole ingredient list.
func UpdateRecipe(ctx context.Context, id int, input *RecipeInput) error {
	if err := input.normalize(); err != nil {
		return err
	}
	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&Recipe{}).Where("id = ? AND is_active = ?", id, true).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return errRecipeNotFound
		}
		if err := tx.Model(&Recipe{}).Where("id = ?", id).Updates(map[string]interface{}{
			"recipe_name":     input.RecipeName,
			"category":        input.Category,
			"description":     input.Description,
			"crafting_time":   input.CraftingTime,
			"output_item":     input.OutputItem,
			"output_quantity": input.OutputQuantity,
			"product_image":   input.ProductImage,
			"notes":           input.Notes,
		}).Error; err != nil {
			return err
		}
		if err := replaceIngredients(tx, id, input.Ingredients); err != nil {
			return err
		}
		return logActivity(ctx, tx, ActionRecipe, fmt.Sprintf("Rezept aktualisiert: %s", input.RecipeName), nil)
	})
}

// DeleteRecipe deactivates the recipe; its ingredients stay.
func DeleteRecipe(ctx context.Context, id int) error {
	db := config.GetDB()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var recipe Recipe
		err := tx.Where("id = ? AND is_active = ?", id, true).Take(&recipe).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errRecipeNotFound
			}
			return err
		}
		if err := tx.Model(&Recipe{}).Where("id = ?", id).Update("is_active", false).Error; err != nil {
			return err
		}
		return logActivity(ctx, tx, ActionRecipe, fmt.Sprintf("Rezept gelöscht: %s", recipe.RecipeName), nil)
	})
}
