package handlers

import (
	"net/http"

	"github.com/H2RkawaNinja/dashboard/models"
	"github.com/gin-gonic/gin"
)

func listRecipes(c *gin.Context) {
	rows, err := models.ListRecipes(c.Request.Context())
	if err != nil {
		respondError(c, "Recipes", "ListRecipes", err, "")
		return
	}
	c.JSON(http.StatusOK, rows)
}

func getRecipe(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	recipe, err := models.GetRecipe(c.Request.Context(), id)
	if err != nil {
		respondError(c, "Recipes", "GetRecipe", err, "Rezept nicht gefunden")
		return
	}
	c.JSON(http.StatusOK, recipe)
}

func createRecipe(c *gin.Context) {
	var input models.RecipeInput
	if !bindJSON(c, &input) {
		return
	}
	recipe, err := models.CreateRecipe(c.Request.Context(), &input)
	if err != nil {
		respondError(c, "Recipes", "CreateRecipe", err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "id": recipe.ID, "message": "Rezept erstellt"})
}

func updateRecipe(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var input models.RecipeInput
	if !bindJSON(c, &input) {
		return
	}
	if err := models.UpdateRecipe(c.Request.Context(), id, &input); err != nil {
		respondError(c, "Recipes", "UpdateRecipe", err, "Rezept nicht gefunden")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Rezept aktualisiert"})
}

func deleteRecipe(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	if err := models.DeleteRecipe(c.Request.Context(), id); err != nil {
		respondError(c, "Recipes", "DeleteRecipe", err, "Rezept nicht gefunden")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Rezept gelöscht"})
}
