package handlers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/H2RkawaNinja/dashboard/models"
	"github.com/H2RkawaNinja/dashboard/reports"
	"github.com/H2RkawaNinja/dashboard/testsupport"
	"github.com/stretchr/testify/require"
)

func TestWarehouseSortingFlow(t *testing.T) {
	api := newAPI(t, nil)
	_, token := api.session("anna")

	requireOK(t, api.do(http.MethodPost, "/api/storage-slots", map[string]any{
		"warehouse_id": "12345678", "password": "1234",
	}, token))
	requireError(t, api.do(http.MethodPost, "/api/storage-slots", map[string]any{"warehouse_id": "1234"}, token),
		http.StatusBadRequest, "Lager-ID muss genau 8 Ziffern enthalten")
	requireError(t, api.do(http.MethodPost, "/api/storage-slots", map[string]any{"warehouse_id": "12345678"}, token),
		http.StatusBadRequest, "Lager-ID existiert bereits")

	created := requireOK(t, api.do(http.MethodPost, "/api/warehouse", map[string]any{
		"item_name": "Dietrich", "category": "Werkzeug", "quantity": 4, "unit_value": "25",
	}, token))
	id := int(created["id"].(float64))

	requireError(t, api.do(http.MethodPut, fmt.Sprintf("/api/warehouse/%d/location", id),
		map[string]any{"storage_location": "87654321"}, token),
		http.StatusBadRequest, "Lagerplatz existiert nicht")

	requireOK(t, api.do(http.MethodPut, fmt.Sprintf("/api/warehouse/%d/location", id),
		map[string]any{"storage_location": "12345678"}, token))

	done := requireOK(t, api.do(http.MethodPost, "/api/warehouse/finish-sorting", nil, token))
	require.Equal(t, float64(1), done["count"])

	w := api.do(http.MethodGet, "/api/warehouse", nil, token)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"state":"complete"`)

	requireError(t, api.do(http.MethodDelete, "/api/warehouse/9999", nil, token),
		http.StatusNotFound, "Artikel nicht gefunden")
}

func TestStorageSlotUpdateOnlyMovesItsOwnItems(t *testing.T) {
	api := newAPI(t, nil)
	_, token := api.session("anna")

	slot := requireOK(t, api.do(http.MethodPost, "/api/storage-slots", map[string]any{"warehouse_id": "12345678"}, token))
	slotId := int(slot["id"].(float64))
	created := requireOK(t, api.do(http.MethodPost, "/api/warehouse", map[string]any{
		"item_name": "Dietrich", "category": "Werkzeug", "quantity": 1,
	}, token))
	itemId := int(created["id"].(float64))

	requireOK(t, api.do(http.MethodPut, fmt.Sprintf("/api/storage-slots/%d", slotId), map[string]any{
		"warehouse_id": "87654321", "old_code": models.UnsortedLocation,
	}, token))

	item := requireOK(t, api.do(http.MethodGet, fmt.Sprintf("/api/warehouse/%d", itemId), nil, token))
	require.Equal(t, models.UnsortedLocation, item["storage_location"])
	require.Equal(t, string(models.WarehouseStateUnsorted), item["state"])

	requireError(t, api.do(http.MethodGet, "/api/warehouse/9999", nil, token),
		http.StatusNotFound, "Artikel nicht gefunden")
}

func TestStorageSlotPasswordStaysHidden(t *testing.T) {
	api := newAPI(t, nil)
	_, token := api.session("anna")

	created := requireOK(t, api.do(http.MethodPost, "/api/storage-slots", map[string]any{
		"warehouse_id": "11112222", "password": "4711",
	}, token))
	id := int(created["id"].(float64))

	list := api.do(http.MethodGet, "/api/storage-slots", nil, token)
	require.Equal(t, http.StatusOK, list.Code)
	require.NotContains(t, list.Body.String(), "password")

	path := fmt.Sprintf("/api/storage-slots/%d/verify-password", id)
	require.Equal(t, true, requireOK(t, api.do(http.MethodPost, path, map[string]any{"password": "4711"}, token))["valid"])
	require.Equal(t, false, requireOK(t, api.do(http.MethodPost, path, map[string]any{"password": "0000"}, token))["valid"])

	requireError(t, api.do(http.MethodDelete, "/api/storage-slots/9999", nil, token),
		http.StatusNotFound, "Lagerplatz nicht gefunden")
}

func TestIntelligenceDeleteDetachesMembers(t *testing.T) {
	api := newAPI(t, nil)
	_, token := api.session("anna")

	gang := requireOK(t, api.do(http.MethodPost, "/api/intelligence", map[string]any{
		"category": "Gang", "title": "Ballas",
	}, token))
	gangId := int(gang["id"].(float64))
	for _, name := range []string{"Pedro", "Luis"} {
		requireOK(t, api.do(http.MethodPost, "/api/intelligence", map[string]any{
			"category": "Person", "title": name, "subject_name": name, "gang_id": gangId,
		}, token))
	}

	body := requireOK(t, api.do(http.MethodDelete, fmt.Sprintf("/api/intelligence/%d", gangId), nil, token))
	require.Equal(t, "Information gelöscht. 2 Person(en) wurden von der Gang entfernt", body["message"])

	requireError(t, api.do(http.MethodGet, fmt.Sprintf("/api/intelligence/%d", gangId), nil, token),
		http.StatusNotFound, "Information nicht gefunden")
}

func TestRecipeValidationAndSoftDelete(t *testing.T) {
	api := newAPI(t, nil)
	_, token := api.session("anna")

	requireError(t, api.do(http.MethodPost, "/api/recipes", map[string]any{"recipe_name": "Lockpick"}, token),
		http.StatusBadRequest, "Rezeptname und Kategorie sind erforderlich")
	requireError(t, api.do(http.MethodPost, "/api/recipes", map[string]any{"recipe_name": "Lockpick", "category": "Werkzeug"}, token),
		http.StatusBadRequest, "Mindestens eine Zutat ist erforderlich")

	created := requireOK(t, api.do(http.MethodPost, "/api/recipes", map[string]any{
		"recipe_name": "Lockpick",
		"category":    "Werkzeug",
		"ingredients": []map[string]any{{"ingredient_name": "Metall", "quantity": "2"}},
	}, token))
	id := int(created["id"].(float64))

	recipe := requireOK(t, api.do(http.MethodGet, fmt.Sprintf("/api/recipes/%d", id), nil, token))
	require.Len(t, recipe["ingredients"], 1)

	requireOK(t, api.do(http.MethodDelete, fmt.Sprintf("/api/recipes/%d", id), nil, token))
	requireError(t, api.do(http.MethodGet, fmt.Sprintf("/api/recipes/%d", id), nil, token),
		http.StatusNotFound, "Rezept nicht gefunden")
}

func TestActivityEndpoints(t *testing.T) {
	api := newAPI(t, nil)
	_, plainToken := api.session("anna")
	_, bossToken := api.boss()

	requireError(t, api.do(http.MethodGet, "/api/activity/recent", nil, plainToken),
		http.StatusForbidden, "Keine Berechtigung zum Anzeigen der Aktivitäten")

	requireOK(t, api.do(http.MethodPost, "/api/warehouse", map[string]any{
		"item_name": "Dietrich", "category": "Werkzeug", "quantity": 1,
	}, bossToken))

	recent := api.do(http.MethodGet, "/api/activity/recent", nil, bossToken)
	require.Equal(t, http.StatusOK, recent.Code)
	require.Contains(t, recent.Body.String(), `"action_type":"warehouse"`)

	export := api.do(http.MethodGet, "/api/activity/export?limit=10", nil, bossToken)
	require.Equal(t, http.StatusOK, export.Code)
	require.Equal(t, reports.ContentTypeXlsx, export.Header().Get("Content-Type"))

	requireError(t, api.do(http.MethodGet, "/api/activity/export?limit=abc", nil, bossToken),
		http.StatusBadRequest, "Ungültiges Limit")
}

func TestMaintenanceSettingsOnlyForTechniker(t *testing.T) {
	api := newAPI(t, nil)
	_, bossToken := api.boss()
	_, techToken := api.session("tech", testsupport.WithRank(models.RankTechniker))

	requireError(t, api.do(http.MethodGet, "/api/maintenance/settings", nil, bossToken),
		http.StatusForbidden, "Nur Techniker können Wartungseinstellungen verwalten")

	body := requireOK(t, api.do(http.MethodGet, "/api/maintenance/settings", nil, techToken))
	settings := body["settings"].(map[string]any)
	require.Len(t, settings, len(models.MaintenanceModules))

	requireError(t, api.do(http.MethodPost, "/api/maintenance/settings",
		map[string]any{"settings": map[string]bool{"casino": true}}, techToken),
		http.StatusBadRequest, "Unbekanntes Modul: casino")
}
