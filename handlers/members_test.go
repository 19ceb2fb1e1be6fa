package handlers_test

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/H2RkawaNinja/dashboard/models"
	"github.com/H2RkawaNinja/dashboard/testsupport"
	"github.com/stretchr/testify/require"
)

func TestAddMemberNeedsCapability(t *testing.T) {
	api := newAPI(t, nil)
	_, token := api.session("anna")

	w := api.do(http.MethodPost, "/api/members/add", map[string]any{
		"username": "neu", "full_name": "Neu", "rank": "Member",
	}, token)
	requireError(t, w, http.StatusForbidden, "Keine Berechtigung zum Hinzufügen von Mitgliedern")
}

func TestInvitationRoundTrip(t *testing.T) {
	api := newAPI(t, nil)
	_, token := api.boss()

	body := requireOK(t, api.do(http.MethodPost, "/api/members/add", map[string]any{
		"username": "neu", "full_name": "Neu Mitglied", "rank": "Member", "can_manage_fence": true,
	}, token))
	invite := body["token"].(string)
	require.Len(t, invite, 64)
	require.True(t, strings.HasSuffix(body["invite_link"].(string), "token="+invite))

	dup := api.do(http.MethodPost, "/api/members/add", map[string]any{
		"username": "neu", "full_name": "Doppelt", "rank": "Member",
	}, token)
	requireError(t, dup, http.StatusBadRequest, "Benutzername bereits vergeben")

	valid := requireOK(t, api.do(http.MethodGet, "/api/members/validate-token/"+invite, nil, ""))
	require.Equal(t, true, valid["valid"])
	require.Equal(t, "Neu Mitglied", valid["member"].(map[string]any)["full_name"])

	requireError(t, api.do(http.MethodGet, "/api/members/validate-token/unknown", nil, ""),
		http.StatusNotFound, "Ungültiger Token")

	requireError(t, api.do(http.MethodPost, "/api/members/setup-password", map[string]any{"token": invite}, ""),
		http.StatusBadRequest, "Token und Passwort erforderlich")

	setup := requireOK(t, api.do(http.MethodPost, "/api/members/setup-password",
		map[string]any{"token": invite, "password": "geheim"}, ""))
	require.Equal(t, "neu", setup["username"])

	requireError(t, api.do(http.MethodPost, "/api/members/setup-password",
		map[string]any{"token": invite, "password": "again"}, ""),
		http.StatusNotFound, "Ungültiger oder bereits verwendeter Token")

	login := requireOK(t, api.do(http.MethodPost, "/api/auth/login", credentials{"neu", "geheim"}, ""))
	require.Equal(t, true, login["user"].(map[string]any)["can_manage_fence"])
}

func TestCredentialsNeverExposeHashes(t *testing.T) {
	api := newAPI(t, nil)
	_, bossToken := api.boss()
	member, memberToken := api.session("anna")

	path := fmt.Sprintf("/api/members/%d/credentials", member.ID)
	requireError(t, api.do(http.MethodGet, path, nil, memberToken), http.StatusForbidden,
		"Keine Berechtigung zum Anzeigen von Zugangsdaten")

	w := api.do(http.MethodGet, path, nil, bossToken)
	body := requireOK(t, w)
	require.Equal(t, true, body["is_password_set"])
	require.NotContains(t, w.Body.String(), "$2a$")
	require.NotContains(t, w.Body.String(), "password\"")
}

func TestDeleteMember(t *testing.T) {
	api := newAPI(t, nil)
	boss, token := api.boss()
	member, memberToken := api.session("anna")

	requireError(t, api.do(http.MethodDelete, fmt.Sprintf("/api/members/%d", boss.ID), nil, token),
		http.StatusBadRequest, "Du kannst dich nicht selbst löschen")
	requireError(t, api.do(http.MethodDelete, "/api/members/9999", nil, token),
		http.StatusNotFound, "Mitglied nicht gefunden")

	requireOK(t, api.do(http.MethodDelete, fmt.Sprintf("/api/members/%d", member.ID), nil, token))
	requireError(t, api.do(http.MethodGet, "/api/members", nil, memberToken), http.StatusUnauthorized, "Nicht angemeldet")
	requireError(t, api.do(http.MethodGet, fmt.Sprintf("/api/members/%d", member.ID), nil, token),
		http.StatusNotFound, "Mitglied nicht gefunden")
}

func TestEditMemberDeactivationEndsSessions(t *testing.T) {
	api := newAPI(t, nil)
	_, token := api.boss()
	member, memberToken := api.session("anna")

	body := requireOK(t, api.do(http.MethodPut, fmt.Sprintf("/api/members/%d/edit", member.ID), map[string]any{
		"full_name": "Anna Neu", "rank": "Member", "is_active": false,
	}, token))
	require.Equal(t, "Anna Neu", body["member"].(map[string]any)["full_name"])

	session := requireOK(t, api.do(http.MethodGet, "/api/auth/session", nil, memberToken))
	require.Equal(t, false, session["logged_in"])
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 800, 600))
	for x := 0; x < 800; x++ {
		img.Set(x, x%600, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestAddMemberWithProfilePhoto(t *testing.T) {
	uploadDir := t.TempDir()
	t.Setenv("STORAGE_PROVIDER", "local")
	t.Setenv("UPLOAD_DIR", uploadDir)
	t.Setenv("PUBLIC_UPLOAD_BASE_URL", "/uploads")

	api := newAPI(t, nil)
	_, token := api.boss()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("username", "foto"))
	require.NoError(t, mw.WriteField("full_name", "Foto Mitglied"))
	require.NoError(t, mw.WriteField("rank", "Member"))
	require.NoError(t, mw.WriteField("can_view_activity", "true"))
	part, err := mw.CreateFormFile("profile_photo", "me.png")
	require.NoError(t, err)
	_, err = part.Write(pngBytes(t))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/members/add", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("token", token)
	w := httptest.NewRecorder()
	api.router.ServeHTTP(w, req)
	created := requireOK(t, w)

	member, err := models.GetMember(testsupport.ActorContext(&models.Member{}), int(created["member_id"].(float64)))
	require.NoError(t, err)
	require.True(t, member.CanViewActivity)
	require.NotNil(t, member.ProfilePhoto)
	require.True(t, strings.HasPrefix(*member.ProfilePhoto, "/uploads/profiles/"))

	stored := filepath.Join(uploadDir, strings.TrimPrefix(*member.ProfilePhoto, "/uploads/"))
	_, err = os.Stat(stored)
	require.NoError(t, err)
}
