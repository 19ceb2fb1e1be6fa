package models_test

import (
	"testing"

	"github.com/H2RkawaNinja/dashboard/models"
	"github.com/H2RkawaNinja/dashboard/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestRecipeLifecycle(t *testing.T) {
	ctx, boss := setupBoss(t)

	_, err := models.CreateRecipe(ctx, &models.RecipeInput{RecipeName: "Dietrich"})
	require.Equal(t, "Rezeptname und Kategorie sind erforderlich", utils.MessageOf(err))
	_, err = models.CreateRecipe(ctx, &models.RecipeInput{RecipeName: "Dietrich", Category: "Werkzeug"})
	require.Equal(t, "Mindestens eine Zutat ist erforderlich", utils.MessageOf(err))

	recipe, err := models.CreateRecipe(ctx, &models.RecipeInput{
		RecipeName: "Dietrich",
		Category:   "Werkzeug",
		Ingredients: []models.RecipeIngredientInput{
			{IngredientName: "Stahl", Quantity: decimal.NewFromInt(2)},
			{IngredientName: "Feder", Quantity: decimal.NewFromInt(1)},
		},
	})
	require.NoError(t, err)
	require.Equal(t, 1, recipe.OutputQuantity)
	require.Equal(t, 0, recipe.CraftingTime)

	list, err := models.ListRecipes(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, 2, list[0].IngredientCount)
	require.Equal(t, boss.FullName, *list[0].CreatorName)

	require.NoError(t, models.UpdateRecipe(ctx, recipe.ID, &models.RecipeInput{
		RecipeName:  "Dietrich+",
		Category:    "Werkzeug",
		Ingredients: []models.RecipeIngredientInput{{IngredientName: "Titan", Quantity: decimal.NewFromInt(3)}},
	}))
	got, err := models.GetRecipe(ctx, recipe.ID)
	require.NoError(t, err)
	require.Equal(t, "Dietrich+", got.RecipeName)
	require.Len(t, got.Ingredients, 1)
	require.Equal(t, "Titan", got.Ingredients[0].IngredientName)

	require.NoError(t, models.DeleteRecipe(ctx, recipe.ID))
	_, err = models.GetRecipe(ctx, recipe.ID)
	require.Equal(t, "Rezept nicht gefunden", utils.MessageOf(err))
	list, err = models.ListRecipes(ctx)
	require.NoError(t, err)
	require.Empty(t, list)
	requireKind(t, utils.KindNotFound, models.DeleteRecipe(ctx, recipe.ID))
}
