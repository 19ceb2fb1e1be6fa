package handlers

import (
	"fmt"
	"net/http"

	"github.com/H2RkawaNinja/dashboard/models"
	"github.com/gin-gonic/gin"
)

func listIntelligence(c *gin.Context) {
	rows, err := models.ListIntelligence(c.Request.Context())
	if err != nil {
		respondError(c, "Intelligence", "ListIntelligence", err, "")
		return
	}
	c.JSON(http.StatusOK, rows)
}

func getIntelligence(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	info, err := models.GetIntelligence(c.Request.Context(), id)
	if err != nil {
		respondError(c, "Intelligence", "GetIntelligence", err, "Information nicht gefunden")
		return
	}
	c.JSON(http.StatusOK, info)
}

func createIntelligence(c *gin.Context) {
	var input models.IntelligenceInput
	if !bindJSON(c, &input) {
		return
	}
	info, err := models.CreateIntelligence(c.Request.Context(), &input)
	if err != nil {
		respondError(c, "Intelligence", "CreateIntelligence", err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "id": info.ID, "message": "Information gespeichert"})
}

func updateIntelligence(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var input models.IntelligenceInput
	if !bindJSON(c, &input) {
		return
	}
	if err := models.UpdateIntelligence(c.Request.Context(), id, &input); err != nil {
		respondError(c, "Intelligence", "UpdateIntelligence", err, "Information nicht gefunden")
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Information aktualisiert"})
}

func deleteIntelligence(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	detached, err := models.DeleteIntelligence(c.Request.Context(), id)
	if err != nil {
		respondError(c, "Intelligence", "DeleteIntelligence", err, "Information nicht gefunden")
		return
	}
	message := "Information gelöscht"
	if detached > 0 {
		message = fmt.Sprintf("Information gelöscht. %d Person(en) wurden von der Gang entfernt", detached)
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message, "detached": detached})
}
