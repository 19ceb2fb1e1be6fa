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

type Member struct {
	ID              int        `gorm:"primary_key" json:"id"`
	Username        string     `gorm:"size:100;not null;uniqueIndex" json:"username"`
	Password        string     `gorm:"size:255;not null" json:"-"`
	FullName        string     `gorm:"size:150;not null" json:"full_name"`
	Rank            string     `gorm:"column:member_rank;size:50;not null;index" json:"rank"`
	Phone           *string    `gorm:"size:30" json:"phone"`
	ProfilePhoto    *string    `gorm:"size:500" json:"profile_photo"`
	CanAddMembers   bool       `gorm:"not null;default:false" json:"can_add_members"`
	CanManageHero   bool       `gorm:"not null;default:false" json:"can_manage_hero"`
	CanManageFence  bool       `gorm:"not null;default:false" json:"can_manage_fence"`
	CanViewActivity bool       `gorm:"not null;default:false" json:"can_view_activity"`
	IsActive        *bool      `gorm:"not null;default:true" json:"is_active"`
	IsPasswordSet   bool       `gorm:"not null;default:false" json:"is_password_set"`
	InvitationToken *string    `gorm:"size:64;index" json:"-"`
	TokenExpires    *time.Time `json:"-"`
	JoinedDate      time.Time  `gorm:"autoCreateTime" json:"joined_date"`
	LastLogin       *time.Time `json:"last_login"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Member) TableName() string {
	return "members"
}

type NewMember struct {
	Username        string  `json:"username" binding:"required"`
	FullName        string  `json:"full_name" binding:"required"`
	Rank            string  `json:"rank" binding:"required"`
	Phone           string  `json:"phone"`
	CanAddMembers   bool    `json:"can_add_members"`
	CanManageHero   bool    `json:"can_manage_hero"`
	CanManageFence  bool    `json:"can_manage_fence"`
	CanViewActivity bool    `json:"can_view_activity"`
	ProfilePhoto    *string `json:"-"`
}

type EditMember struct {
	FullName        string  `json:"full_name" binding:"required"`
	Rank            string  `json:"rank" binding:"required"`
	Phone           string  `json:"phone"`
	CanAddMembers   bool    `json:"can_add_members"`
	CanManageHero   bool    `json:"can_manage_hero"`
	CanManageFence  bool    `json:"can_manage_fence"`
	CanViewActivity bool    `json:"can_view_activity"`
	IsActive        *bool   `json:"is_active"`
	ProfilePhoto    *string `json:"-"`
}

type MemberInvite struct {
	MemberId   int    `json:"member_id"`
	InviteLink string `json:"invite_link"`
	Token      string `json:"token"`
}

// MemberCredentials never carries the password hash.
type MemberCredentials struct {
	Username      string     `json:"username"`
	FullName      string     `json:"full_name"`
	IsPasswordSet bool       `json:"is_password_set"`
	InviteLink    *string    `json:"invite_link,omitempty"`
	TokenExpires  *time.Time `json:"token_expires,omitempty"`
}

var errMemberNotFound = utils.NewNotFoundError("Mitglied nicht gefunden")

func (input *NewMember) validate() error {
	input.Username = strings.TrimSpace(input.Username)
	input.FullName = strings.TrimSpace(input.FullName)
	input.Rank = strings.TrimSpace(input.Rank)
	if input.Username == "" || input.FullName == "" || input.Rank == "" {
		return utils.NewValidationError("Benutzername, Name und Rang sind erforderlich")
	}
	return nil
}

func (input *EditMember) validate() error {
	input.FullName = strings.TrimSpace(input.FullName)
	input.Rank = strings.TrimSpace(input.Rank)
	if input.FullName == "" || input.Rank == "" {
		return utils.NewValidationError("Name und Rang sind erforderlich")
	}
	return nil
}

func ListMembers(ctx context.Context) ([]*Member, error) {
	db := config.GetDB()
	var results []*Member
	if err := db.WithContext(ctx).Order("member_rank").Order("full_name").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func GetMember(ctx context.Context, id int) (*Member, error) {
	member, err := utils.FetchModel[Member](ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			return nil, errMemberNotFound
		}
		return nil, err
	}
	return member, nil
}

func newInvitation(now time.Time) (string, time.Time, error) {
	token, err := utils.GenerateInviteToken()
	if err != nil {
		return "", time.Time{}, err
	}
	return token, now.Add(config.Settings().InviteTTL), nil
}

func CreateMember(ctx context.Context, input *NewMember) (*MemberInvite, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	count, err := utils.ResourceCountWhere[Member](ctx, "username = ?", input.Username)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, utils.NewValidationError("Benutzername bereits vergeben")
	}

	token, expires, err := newInvitation(time.Now())
	if err != nil {
		return nil, err
	}

	member := Member{
		Username:        input.Username,
		Password:        PendingSetupPassword,
		FullName:        input.FullName,
		Rank:            input.Rank,
		Phone:           utils.NilIfEmpty(utils.NormalizePhone(input.Phone, config.Settings().PhoneRegion)),
		ProfilePhoto:    input.ProfilePhoto,
		CanAddMembers:   input.CanAddMembers,
		CanManageHero:   input.CanManageHero,
		CanManageFence:  input.CanManageFence,
		CanViewActivity: input.CanViewActivity,
		IsActive:        utils.NewTrue(),
		IsPasswordSet:   false,
		InvitationToken: &token,
		TokenExpires:    &expires,
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&member).Error; err != nil {
			if utils.IsDuplicateKeyError(err) {
				return utils.NewValidationError("Benutzername bereits vergeben")
			}
			return err
		}
		return logActivity(ctx, tx, ActionMemberAdded,
			fmt.Sprintf("%s wurde als %s hinzugefügt", member.FullName, member.Rank),
			map[string]any{"member_id": member.ID, "username": member.Username})
	})
	if err != nil {
		return nil, err
	}

	return &MemberInvite{
		MemberId:   member.ID,
		InviteLink: utils.InviteLink(config.Settings().InviteBaseURL, token),
		Token:      token,
	}, nil
}

// UpdateMember returns the member as it was before the update next to the stored one,
// so callers can clean up a replaced photo.
func UpdateMember(ctx context.Context, id int, input *EditMember) (*Member, *Member, error) {
	if err := input.validate(); err != nil {
		return nil, nil, err
	}
	old, err := GetMember(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	updates := map[string]interface{}{
		"FullName":        input.FullName,
		"Rank":            input.Rank,
		"Phone":           utils.NilIfEmpty(utils.NormalizePhone(input.Phone, config.Settings().PhoneRegion)),
		"CanAddMembers":   input.CanAddMembers,
		"CanManageHero":   input.CanManageHero,
		"CanManageFence":  input.CanManageFence,
		"CanViewActivity": input.CanViewActivity,
	}
	if input.IsActive != nil {
		updates["IsActive"] = input.IsActive
	}
	if input.ProfilePhoto != nil {
		updates["ProfilePhoto"] = input.ProfilePhoto
	}

	db := config.GetDB()
	var updated Member
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Member{ID: id}).Updates(updates).Error; err != nil {
			return err
		}
		if err := tx.First(&updated, id).Error; err != nil {
			return err
		}
		return logActivity(ctx, tx, ActionMemberEdited,
			fmt.Sprintf("Mitglied %s wurde bearbeitet", input.FullName),
			map[string]any{"member_id": id})
	})
	if err != nil {
		return nil, nil, err
	}

	// deactivated members lose their sessions right away
	if updated.IsActive != nil && !*updated.IsActive {
		if err := DestroyMemberSessions(id); err != nil {
			config.LogError(config.GetLogger(), "Member", "UpdateMember", "destroy sessions", id, err)
		}
	}
	return old, &updated, nil
}

// tables whose member reference is nulled when the member is deleted
var memberReferences = []struct {
	table  string
	column string
}{
	{"activity_log", "member_id"},
	{"fence_purchases", "member_id"},
	{"fence_sales", "member_id"},
	{"hero_distributions", "member_id"},
	{"hero_sales", "member_id"},
	{"hero_distributions_archive", "member_id"},
	{"hero_distributions_archive", "archived_by"},
	{"hero_sales_archive", "member_id"},
	{"hero_sales_archive", "archived_by"},
	{"hero_deliveries", "received_by"},
	{"intelligence", "added_by"},
	{"recipes", "created_by"},
	{"maintenance_settings", "disabled_by"},
}

func DeleteMember(ctx context.Context, id int) (*Member, error) {
	if actor, ok := utils.GetUserIdFromContext(ctx); ok && actor == id {
		return nil, utils.NewValidationError("Du kannst dich nicht selbst löschen")
	}
	member, err := GetMember(ctx, id)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, ref := range memberReferences {
			if err := tx.Table(ref.table).Where(ref.column+" = ?", id).Update(ref.column, nil).Error; err != nil {
				return err
			}
		}
		if err := tx.Delete(&Member{}, id).Error; err != nil {
			return err
		}
		return logActivity(ctx, tx, ActionMemberDeleted,
			fmt.Sprintf("Mitglied %s wurde aus der Gang entfernt", member.FullName),
			map[string]any{"member_id": id, "username": member.Username})
	})
	if err != nil {
		return nil, err
	}

	if err := DestroyMemberSessions(id); err != nil {
		config.LogError(config.GetLogger(), "Member", "DeleteMember", "destroy sessions", id, err)
	}
	return member, nil
}

func findPendingInvitation(ctx context.Context, token string) (*Member, error) {
	db := config.GetDB()
	var member Member
	err := db.WithContext(ctx).
		Where("invitation_token = ? AND is_password_set = ?", token, false).
		Take(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &member, nil
}

func invitationExpired(member *Member, now time.Time) bool {
	return member.TokenExpires != nil && member.TokenExpires.Before(now)
}

func SetupPassword(ctx context.Context, token string, password string) (*Member, error) {
	token = strings.TrimSpace(token)
	if token == "" || password == "" {
		return nil, utils.NewValidationError("Token und Passwort erforderlich")
	}

	member, err := findPendingInvitation(ctx, token)
	if err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			return nil, utils.NewNotFoundError("Ungültiger oder bereits verwendeter Token")
		}
		return nil, err
	}
	if invitationExpired(member, time.Now()) {
		return nil, utils.NewValidationError("Dieser Einladungslink ist abgelaufen")
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// the token condition makes a concurrent redemption lose
		res := tx.Model(&Member{}).
			Where("id = ? AND invitation_token = ? AND is_password_set = ?", member.ID, token, false).
			Updates(map[string]interface{}{
				"password":         string(hashed),
				"is_password_set":  true,
				"invitation_token": nil,
				"token_expires":    nil,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return utils.NewNotFoundError("Ungültiger oder bereits verwendeter Token")
		}
		memberId := member.ID
		return logActivityAs(tx, &memberId, ActionPasswordSetup,
			fmt.Sprintf("%s hat das Passwort eingerichtet", member.FullName), nil)
	})
	if err != nil {
		return nil, err
	}
	member.IsPasswordSet = true
	member.InvitationToken = nil
	member.TokenExpires = nil
	return member, nil
}

func ValidateInviteToken(ctx context.Context, token string) (*Member, error) {
	member, err := findPendingInvitation(ctx, strings.TrimSpace(token))
	if err != nil {
		if errors.Is(err, utils.ErrorRecordNotFound) {
			return nil, utils.NewNotFoundError("Ungültiger Token")
		}
		return nil, err
	}
	if invitationExpired(member, time.Now()) {
		return nil, utils.NewValidationError("Token abgelaufen")
	}
	return member, nil
}

func GetCredentials(ctx context.Context, id int) (*MemberCredentials, error) {
	member, err := GetMember(ctx, id)
	if err != nil {
		return nil, err
	}
	result := MemberCredentials{
		Username:      member.Username,
		FullName:      member.FullName,
		IsPasswordSet: member.IsPasswordSet,
	}
	if !member.IsPasswordSet && member.InvitationToken != nil {
		link := utils.InviteLink(config.Settings().InviteBaseURL, *member.InvitationToken)
		result.InviteLink = &link
		result.TokenExpires = member.TokenExpires
	}
	return &result, nil
}

// Reinvite issues a fresh invitation for a member who never finished the setup.
func Reinvite(ctx context.Context, id int) (*MemberInvite, error) {
	member, err := GetMember(ctx, id)
	if err != nil {
		return nil, err
	}
	if member.IsPasswordSet {
		return nil, utils.NewValidationError("Passwort wurde bereits eingerichtet")
	}
	token, expires, err := newInvitation(time.Now())
	if err != nil {
		return nil, err
	}

	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Member{ID: id}).Updates(map[string]interface{}{
			"invitation_token": token,
			"token_expires":    expires,
		}).Error; err != nil {
			return err
		}
		return logActivity(ctx, tx, ActionMemberReinvited,
			fmt.Sprintf("Neuer Einladungslink für %s erstellt", member.FullName),
			map[string]any{"member_id": id})
	})
	if err != nil {
		return nil, err
	}
	return &MemberInvite{
		MemberId:   id,
		InviteLink: utils.InviteLink(config.Settings().InviteBaseURL, token),
		Token:      token,
	}, nil
}

// SeedAdmin creates an active Techniker with a ready password, for bootstrapping.
func SeedAdmin(ctx context.Context, username string, fullName string, password string) (*Member, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, utils.NewValidationError("Benutzername und Passwort erforderlich")
	}
	if strings.TrimSpace(fullName) == "" {
		fullName = username
	}
	count, err := utils.ResourceCountWhere[Member](ctx, "username = ?", username)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, utils.NewValidationError("Benutzername bereits vergeben")
	}
	hashed, err := utils.HashPassword(password)
	if err != nil {
		return nil, err
	}
	member := Member{
		Username:      username,
		Password:      string(hashed),
		FullName:      fullName,
		Rank:          RankTechniker,
		IsActive:      utils.NewTrue(),
		IsPasswordSet: true,
	}
	db := config.GetDB()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&member).Error; err != nil {
			return err
		}
		return logActivityAs(tx, nil, ActionMemberAdded,
			fmt.Sprintf("%s wurde als %s hinzugefügt", member.FullName, member.Rank), nil)
	})
	if err != nil {
		return nil, err
	}
	return &member, nil
}
