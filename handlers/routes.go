// Package handlers exposes the dashboard models as a JSON API under /api.
package handlers

import (
	"github.com/H2RkawaNinja/dashboard/metrics"
	"github.com/H2RkawaNinja/dashboard/middlewares"
	"github.com/H2RkawaNinja/dashboard/models"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the operations endpoints and the /api tree on r.
func RegisterRoutes(r *gin.Engine, loginLimiter *middlewares.LoginLimiter) {
	r.GET("/healthz", Healthz)
	r.GET("/readyz", Readyz)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api")
	api.Use(middlewares.SessionMiddleware())

	requireLogin := middlewares.RequireLogin()
	can := middlewares.RequireCapability

	addMembers := can(models.CapAddMembers, "Keine Berechtigung zum Hinzufügen von Mitgliedern")
	editMembers := can(models.CapAddMembers, "Keine Berechtigung zum Bearbeiten von Mitgliedern")
	deleteMembers := can(models.CapAddMembers, "Keine Berechtigung zum Löschen von Mitgliedern")
	viewCredentials := can(models.CapViewCredentials, "Keine Berechtigung zum Anzeigen von Zugangsdaten")
	manageHero := can(models.CapManageHero, "Keine Berechtigung für die Hero-Verwaltung")
	manageFence := can(models.CapManageFence, "Keine Berechtigung für die Hehler-Verwaltung")
	viewActivity := can(models.CapViewActivity, "Keine Berechtigung zum Anzeigen der Aktivitäten")
	manageMaintenance := can(models.CapManageMaintenance, "Nur Techniker können Wartungseinstellungen verwalten")

	auth := api.Group("/auth")
	{
		if loginLimiter != nil {
			auth.POST("/login", loginLimiter.Middleware(), login)
		} else {
			auth.POST("/login", login)
		}
		auth.POST("/logout", requireLogin, logout)
		auth.GET("/session", session)
		auth.POST("/clear-session", clearSession)
	}

	api.GET("/stats/dashboard", requireLogin, overviewStats)
	api.GET("/dashboard/stats", requireLogin, dashboardStats)

	members := api.Group("/members")
	{
		members.POST("/setup-password", setupPassword)
		members.GET("/validate-token/:token", validateToken)

		members.GET("", requireLogin, listMembers)
		members.POST("/add", requireLogin, addMembers, addMember)
		members.GET("/:id", requireLogin, getMember)
		members.PUT("/:id/edit", requireLogin, editMembers, editMember)
		members.DELETE("/:id", requireLogin, deleteMembers, deleteMember)
		members.GET("/:id/credentials", requireLogin, viewCredentials, memberCredentials)
		members.POST("/:id/reinvite", requireLogin, addMembers, reinviteMember)
	}

	hero := api.Group("/hero", requireLogin)
	{
		hero.GET("/inventory", heroInventory)
		hero.POST("/inventory/restock", manageHero, middlewares.MaintenanceGate("hero"), restockHero)
		hero.PUT("/inventory/set", manageHero, setHeroQuantity)
		hero.PUT("/inventory/settings", manageHero, updateHeroSettings)

		hero.GET("/distributions", listHeroDistributions)
		hero.POST("/distributions", manageHero, createHeroDistribution)
		hero.POST("/distributions/:id/payment", manageHero, bookHeroPayment)
		hero.GET("/payment-stats", heroPaymentStats)

		hero.GET("/sales", listHeroSales)
		hero.POST("/sales", manageHero, createHeroSale)
		hero.PUT("/sales/:id/mark-paid", manageHero, markHeroSalePaid)

		hero.GET("/deliveries", listHeroDeliveries)
		hero.GET("/archive/distributions", listArchivedDistributions)
		hero.GET("/archive/distributions/:deliveryNumber", listArchivedDistributions)
		hero.GET("/archive/sales", listArchivedSales)
		hero.GET("/archive/sales/:deliveryNumber", listArchivedSales)
		hero.GET("/archive/overview", heroArchiveOverview)
		hero.GET("/archive/export/:deliveryNumber", exportHeroArchive)
	}

	fence := api.Group("/fence", requireLogin)
	{
		fenceGate := middlewares.MaintenanceGate("fence")

		fence.GET("/purchases", listFencePurchases)
		fence.POST("/purchases", manageFence, fenceGate, createFencePurchase)
		fence.POST("/purchases/checkout", manageFence, fenceGate, checkoutFencePurchases)
		fence.GET("/purchases/summary", fencePurchaseSummary)
		fence.GET("/purchases/:id", getFencePurchase)
		fence.PUT("/purchases/:id", manageFence, updateFencePurchase)
		fence.DELETE("/purchases/:id", manageFence, deleteFencePurchase)

		fence.GET("/templates", listActiveFenceTemplates)
		fence.GET("/templates/all", listAllFenceTemplates)
		fence.GET("/templates/:id", getFenceTemplate)
		fence.POST("/templates", manageFence, createFenceTemplate)
		fence.PUT("/templates/:id", manageFence, updateFenceTemplate)
		fence.DELETE("/templates/:id", manageFence, deleteFenceTemplate)

		fence.GET("/sales", listFenceSales)
		fence.POST("/sales", manageFence, fenceGate, createFenceSale)
		fence.POST("/sales/checkout", manageFence, fenceGate, checkoutFenceSales)
		fence.GET("/sales/summary", fenceSalesSummary)
		fence.DELETE("/sales/:id", manageFence, deleteFenceSale)
	}

	warehouse := api.Group("/warehouse", requireLogin)
	{
		warehouse.GET("", listWarehouse)
		warehouse.POST("", createWarehouseItem)
		warehouse.POST("/finish-sorting", finishSorting)
		warehouse.GET("/:id", getWarehouseItem)
		warehouse.PUT("/:id", updateWarehouseItem)
		warehouse.PUT("/:id/location", assignWarehouseLocation)
		warehouse.PUT("/:id/complete", completeWarehouseItem)
		warehouse.DELETE("/:id", deleteWarehouseItem)
	}

	slots := api.Group("/storage-slots", requireLogin)
	{
		slots.GET("", listStorageSlots)
		slots.POST("", createStorageSlot)
		slots.PUT("/:id", updateStorageSlot)
		slots.DELETE("/:id", deleteStorageSlot)
		slots.POST("/:id/verify-password", verifyStorageSlotPassword)
	}

	intelligence := api.Group("/intelligence", requireLogin)
	{
		intelligence.GET("", listIntelligence)
		intelligence.GET("/:id", getIntelligence)
		intelligence.POST("", createIntelligence)
		intelligence.PUT("/:id", updateIntelligence)
		intelligence.DELETE("/:id", deleteIntelligence)
	}

	recipes := api.Group("/recipes", requireLogin)
	{
		recipes.GET("", listRecipes)
		recipes.GET("/:id", getRecipe)
		recipes.POST("", createRecipe)
		recipes.PUT("/:id", updateRecipe)
		recipes.DELETE("/:id", deleteRecipe)
	}

	activity := api.Group("/activity", requireLogin, viewActivity)
	{
		activity.GET("/recent", recentActivity)
		activity.GET("/export", exportActivity)
	}

	maintenance := api.Group("/maintenance", requireLogin)
	{
		maintenance.GET("/settings", manageMaintenance, maintenanceSettings)
		maintenance.POST("/settings", manageMaintenance, updateMaintenanceSettings)
		maintenance.GET("/status/:module", maintenanceStatus)
	}
}
