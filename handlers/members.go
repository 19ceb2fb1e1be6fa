package handlers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/H2RkawaNinja/dashboard/config"
	"github.com/H2RkawaNinja/dashboard/models"
	"github.com/H2RkawaNinja/dashboard/utils"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const profilePhotoField = "profile_photo"

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

func formBool(c *gin.Context, key string) bool {
	v := strings.ToLower(strings.TrimSpace(c.PostForm(key)))
	return v == "1" || v == "true" || v == "on" || v == "yes"
}

// uploadProfilePhoto stores the optional multipart photo and returns its URL.
func uploadProfilePhoto(c *gin.Context) (*string, error) {
	header, err := c.FormFile(profilePhotoField)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, utils.NewValidationError("Profilbild konnte nicht gelesen werden")
	}
	if header.Size > utils.MaxPhotoSizeBytes {
		return nil, utils.NewValidationError("Profilbild ist größer als 5MB")
	}
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, utils.MaxPhotoSizeBytes+1))
	if err != nil {
		return nil, err
	}
	jpeg, err := utils.PrepareProfilePhoto(data)
	if err != nil {
		return nil, utils.NewValidationError("Nur Bilddateien (JPG, PNG, GIF) sind erlaubt")
	}
	settings := config.Settings()
	url, err := utils.StoreObject(c.Request.Context(), settings.UploadDir, settings.PublicUploadBaseURL,
		"profiles/"+uuid.NewString()+".jpg", jpeg, "image/jpeg")
	if err != nil {
		return nil, err
	}
	return &url, nil
}

func removeProfilePhoto(ctx context.Context, url *string) {
	if url == nil {
		return
	}
	settings := config.Settings()
	if err := utils.RemoveObject(ctx, settings.UploadDir, settings.PublicUploadBaseURL, *url); err != nil {
		config.LogError(config.GetLogger(), "Members", "removeProfilePhoto", "removing photo", *url, err)
	}
}

func listMembers(c *gin.Context) {
	members, err := models.ListMembers(c.Request.Context())
	if err != nil {
		respondError(c, "Members", "ListMembers", err, "")
		return
	}
	c.JSON(http.StatusOK, members)
}

func getMember(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	member, err := models.GetMember(c.Request.Context(), id)
	if err != nil {
		respondError(c, "Members", "GetMember", err, "Mitglied nicht gefunden")
		return
	}
	c.JSON(http.StatusOK, member)
}

func addMember(c *gin.Context) {
	var input models.NewMember
	if isMultipart(c) {
		input = models.NewMember{
			Username:        strings.TrimSpace(c.PostForm("username")),
			FullName:        strings.TrimSpace(c.PostForm("full_name")),
			Rank:            strings.TrimSpace(c.PostForm("rank")),
			Phone:           c.PostForm("phone"),
			CanAddMembers:   formBool(c, "can_add_members"),
			CanManageHero:   formBool(c, "can_manage_hero"),
			CanManageFence:  formBool(c, "can_manage_fence"),
			CanViewActivity: formBool(c, "can_view_activity"),
		}
		photo, err := uploadProfilePhoto(c)
		if err != nil {
			respondError(c, "Members", "AddMember", err, "")
			return
		}
		input.ProfilePhoto = photo
	} else if !bindJSON(c, &input) {
		return
	}

	invite, err := models.CreateMember(c.Request.Context(), &input)
	if err != nil {
		removeProfilePhoto(c.Request.Context(), input.ProfilePhoto)
		respondError(c, "Members", "CreateMember", err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"message":     "Mitglied erfolgreich hinzugefügt",
		"member_id":   invite.MemberId,
		"invite_link": invite.InviteLink,
		"token":       invite.Token,
	})
}

func editMember(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var input models.EditMember
	if isMultipart(c) {
		input = models.EditMember{
			FullName:        strings.TrimSpace(c.PostForm("full_name")),
			Rank:            strings.TrimSpace(c.PostForm("rank")),
			Phone:           c.PostForm("phone"),
			CanAddMembers:   formBool(c, "can_add_members"),
			CanManageHero:   formBool(c, "can_manage_hero"),
			CanManageFence:  formBool(c, "can_manage_fence"),
			CanViewActivity: formBool(c, "can_view_activity"),
		}
		if v, present := c.GetPostForm("is_active"); present {
			active, err := strconv.ParseBool(strings.TrimSpace(v))
			if err != nil {
				active = formBool(c, "is_active")
			}
			input.IsActive = &active
		}
		photo, err := uploadProfilePhoto(c)
		if err != nil {
			respondError(c, "Members", "EditMember", err, "")
			return
		}
		input.ProfilePhoto = photo
	} else if !bindJSON(c, &input) {
		return
	}

	old, updated, err := models.UpdateMember(c.Request.Context(), id, &input)
	if err != nil {
		removeProfilePhoto(c.Request.Context(), input.ProfilePhoto)
		respondError(c, "Members", "UpdateMember", err, "Mitglied nicht gefunden")
		return
	}
	if input.ProfilePhoto != nil {
		removeProfilePhoto(c.Request.Context(), old.ProfilePhoto)
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Mitglied aktualisiert", "member": updated})
}

func deleteMember(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	member, err := models.DeleteMember(c.Request.Context(), id)
	if err != nil {
		respondError(c, "Members", "DeleteMember", err, "Mitglied nicht gefunden")
		return
	}
	removeProfilePhoto(c.Request.Context(), member.ProfilePhoto)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Mitglied wurde gelöscht"})
}

type setupPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

func setupPassword(c *gin.Context) {
	var req setupPasswordRequest
	if !bindJSON(c, &req) {
		return
	}
	member, err := models.SetupPassword(c.Request.Context(), req.Token, req.Password)
	if err != nil {
		respondError(c, "Members", "SetupPassword", err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  "Passwort erfolgreich eingerichtet",
		"username": member.Username,
	})
}

func validateToken(c *gin.Context) {
	member, err := models.ValidateInviteToken(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondError(c, "Members", "ValidateInviteToken", err, "Ungültiger Token")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"valid": true,
		"member": gin.H{
			"username":  member.Username,
			"full_name": member.FullName,
			"rank":      member.Rank,
		},
	})
}

func memberCredentials(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	creds, err := models.GetCredentials(c.Request.Context(), id)
	if err != nil {
		respondError(c, "Members", "GetCredentials", err, "Mitglied nicht gefunden")
		return
	}
	c.JSON(http.StatusOK, creds)
}

func reinviteMember(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	invite, err := models.Reinvite(c.Request.Context(), id)
	if err != nil {
		respondError(c, "Members", "Reinvite", err, "Mitglied nicht gefunden")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":     true,
		"member_id":   invite.MemberId,
		"invite_link": invite.InviteLink,
		"token":       invite.Token,
	})
}
