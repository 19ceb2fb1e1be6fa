package utils_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/H2RkawaNinja/dashboard/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		err  error
		kind utils.ErrorKind
	}{
		{utils.NewValidationError("Menge muss %s sein", "positiv"), utils.KindValidation},
		{utils.NewUnauthorizedError("Nicht angemeldet"), utils.KindUnauthorized},
		{utils.NewForbiddenError("Keine Berechtigung"), utils.KindForbidden},
		{utils.NewNotFoundError("Rezept nicht gefunden"), utils.KindNotFound},
		{utils.NewConflictError("Bestand wurde geändert"), utils.KindConflict},
		{utils.NewUnavailableError("Wartungsmodus"), utils.KindUnavailable},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			wrapped := fmt.Errorf("handler: %w", tt.err)
			assert.Equal(t, tt.kind, utils.KindOf(wrapped))
		})
	}

	assert.Equal(t, "Menge muss positiv sein", utils.MessageOf(tests[0].err))
	assert.Equal(t, utils.ErrorKind(""), utils.KindOf(errors.New("boom")))
	assert.Equal(t, "boom", utils.MessageOf(errors.New("boom")))
	assert.ErrorIs(t, utils.NewNotFoundError("weg"), utils.ErrorRecordNotFound)

	assert.Equal(t, 403, utils.StatusOf(fmt.Errorf("wrap: %w", utils.NewForbiddenError("nein"))))
	assert.Equal(t, 503, utils.StatusOf(utils.NewUnavailableError("Wartungsmodus")))
	assert.Equal(t, 0, utils.StatusOf(errors.New("boom")))
}

func TestPasswordHashing(t *testing.T) {
	hashed, err := utils.HashPassword("1234")
	require.NoError(t, err)

	assert.True(t, utils.PasswordMatches(string(hashed), "1234"))
	assert.False(t, utils.PasswordMatches(string(hashed), "4321"))
	assert.False(t, utils.PasswordMatches("", "1234"))
	assert.False(t, utils.PasswordMatches("PENDING_SETUP", ""))
}

func TestValidationHelpers(t *testing.T) {
	assert.True(t, utils.IsDigits("12345678", 8))
	assert.False(t, utils.IsDigits("1234567", 8))
	assert.False(t, utils.IsDigits("1234abcd", 8))
	assert.False(t, utils.IsDigits("", 0))

	assert.True(t, utils.IsOneOf("Gang", "Gang", "Person"))
	assert.False(t, utils.IsOneOf("Firma", "Gang", "Person"))

	assert.Equal(t, "+4915123456789", utils.NormalizePhone(" 0151 23456789 ", "DE"))
	assert.Equal(t, "555-FAKE", utils.NormalizePhone("555-FAKE", "DE"))
	assert.Equal(t, "0800 FLOWERS", utils.NormalizePhone(" 0800 FLOWERS", "DE"))
	assert.Equal(t, "+4915123456789", utils.NormalizePhone("+49 151-23456789", "DE"))
	assert.Equal(t, "", utils.NormalizePhone("  ", "DE"))
}

func TestInviteTokenAndLink(t *testing.T) {
	a, err := utils.GenerateInviteToken()
	require.NoError(t, err)
	b, err := utils.GenerateInviteToken()
	require.NoError(t, err)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)

	assert.Equal(t, "https://bstribe.com/setup.html?token=abc", utils.InviteLink("https://bstribe.com/setup.html", "abc"))
	assert.Equal(t, "https://x.test/setup?lang=de&token=abc", utils.InviteLink("https://x.test/setup?lang=de", "abc"))
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, utils.ActorIdFromContext(ctx))

	ctx = utils.SetUserIdInContext(ctx, 7)
	ctx = utils.SetCapabilitiesInContext(ctx, []string{"manage_hero"})

	require.NotNil(t, utils.ActorIdFromContext(ctx))
	assert.Equal(t, 7, *utils.ActorIdFromContext(ctx))
	caps, ok := utils.GetCapabilitiesFromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, []string{"manage_hero"}, caps)
}

func pngFixture(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(1, 1, color.RGBA{G: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestPrepareProfilePhoto(t *testing.T) {
	out, err := utils.PrepareProfilePhoto(pngFixture(t, 800, 600))
	require.NoError(t, err)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 400, cfg.Width)
	assert.Equal(t, 300, cfg.Height)

	_, err = utils.PrepareProfilePhoto([]byte("just some text"))
	assert.ErrorIs(t, err, utils.ErrUnsupportedImage)
}

func TestLocalStorageRoundTrip(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("STORAGE_PROVIDER", "local")
	ctx := context.Background()

	url, err := utils.StoreObject(ctx, dir, "/uploads/", "profiles/a.jpg", []byte("jpeg"), "image/jpeg")
	require.NoError(t, err)
	assert.Equal(t, "/uploads/profiles/a.jpg", url)

	stored := filepath.Join(dir, "profiles", "a.jpg")
	_, err = os.Stat(stored)
	require.NoError(t, err)

	require.NoError(t, utils.RemoveObject(ctx, dir, "/uploads", url))
	_, err = os.Stat(stored)
	assert.True(t, os.IsNotExist(err))

	// foreign and traversing URLs are ignored
	require.NoError(t, utils.RemoveObject(ctx, dir, "/uploads", "https://elsewhere.test/a.jpg"))
	require.NoError(t, utils.RemoveObject(ctx, dir, "/uploads", "/uploads/../secret"))
}

func TestUnknownStorageProvider(t *testing.T) {
	t.Setenv("STORAGE_PROVIDER", "s3")
	_, err := utils.StoreObject(context.Background(), t.TempDir(), "/uploads", "a.jpg", nil, "image/jpeg")
	assert.Error(t, err)
}

func TestObjectKeyFromURL(t *testing.T) {
	t.Setenv("GCS_BUCKET", "dashboard-media")
	t.Setenv("GCS_URL", "")

	url := utils.BuildObjectAccessURL("profiles/a.jpg")
	assert.Equal(t, "https://storage.googleapis.com/dashboard-media/profiles/a.jpg", url)

	tests := map[string]string{
		url:                                          "profiles/a.jpg",
		"gs://dashboard-media/profiles/b.jpg":        "profiles/b.jpg",
		"/profiles/c.jpg":                            "profiles/c.jpg",
		"https://storage.googleapis.com/other/x.jpg": "",
		"https://example.test/profiles/a.jpg":        "",
		"profiles/../../etc/passwd":                  "",
	}
	for in, want := range tests {
		assert.Equal(t, want, utils.ExtractObjectKeyFromURL(in), in)
	}
}
