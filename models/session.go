package models

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/H2RkawaNinja/dashboard/config"
	"github.com/H2RkawaNinja/dashboard/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

/*
caches:
	Session:$token        session JSON, expires with the cookie
	Sessions:$memberId    set of the member's live tokens
*/

type Session struct {
	Token     string    `json:"token"`
	MemberId  int       `json:"member_id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

type SessionUser struct {
	ID              int      `json:"id"`
	Username        string   `json:"username"`
	FullName        string   `json:"full_name"`
	Rank            string   `json:"rank"`
	ProfilePhoto    *string  `json:"profile_photo"`
	CanAddMembers   bool     `json:"can_add_members"`
	CanManageHero   bool     `json:"can_manage_hero"`
	CanManageFence  bool     `json:"can_manage_fence"`
	CanViewActivity bool     `json:"can_view_activity"`
	Capabilities    []string `json:"capabilities"`
}

type LoginInfo struct {
	Token string      `json:"-"`
	User  SessionUser `json:"user"`
}

var errInvalidCredentials = utils.NewUnauthorizedError("Ungültige Anmeldedaten")

func sessionKey(token string) string {
	return "Session:" + token
}

func memberSessionsKey(memberId int) string {
	return "Sessions:" + strconv.Itoa(memberId)
}

// NewSessionUser flattens the resolved capability set into the legacy grant flags.
func NewSessionUser(member *Member) SessionUser {
	caps := ResolveCapabilities(member)
	return SessionUser{
		ID:              member.ID,
		Username:        member.Username,
		FullName:        member.FullName,
		Rank:            member.Rank,
		ProfilePhoto:    member.ProfilePhoto,
		CanAddMembers:   HasCapability(caps, CapAddMembers),
		CanManageHero:   HasCapability(caps, CapManageHero),
		CanManageFence:  HasCapability(caps, CapManageFence),
		CanViewActivity: HasCapability(caps, CapViewActivity),
		Capabilities:    caps,
	}
}

func Login(ctx context.Context, username string, password string) (*LoginInfo, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, errInvalidCredentials
	}

	db := config.GetDB()
	var member Member
	err := db.WithContext(ctx).
		Where("username = ? AND is_active = ?", username, true).
		Take(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, err
	}
	// members still waiting for their setup carry the sentinel, which never matches a hash
	if !member.IsPasswordSet || !utils.PasswordMatches(member.Password, password) {
		return nil, errInvalidCredentials
	}

	token, err := CreateSession(&member)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&Member{ID: member.ID}).Update("last_login", now).Error; err != nil {
			return err
		}
		memberId := member.ID
		return logActivityAs(tx, &memberId, ActionLogin,
			fmt.Sprintf("%s hat sich eingeloggt", member.FullName), nil)
	})
	if err != nil {
		_ = DestroySession(token)
		return nil, err
	}
	member.LastLogin = &now

	return &LoginInfo{Token: token, User: NewSessionUser(&member)}, nil
}

func CreateSession(member *Member) (string, error) {
	token := uuid.New().String()
	session := Session{
		Token:     token,
		MemberId:  member.ID,
		Username:  member.Username,
		CreatedAt: time.Now(),
	}
	if err := config.SetRedisObject(sessionKey(token), &session, config.Settings().SessionTTL); err != nil {
		return "", err
	}
	if err := config.AddRedisSet(memberSessionsKey(member.ID), token, config.Settings().SessionTTL); err != nil {
		return "", err
	}
	if err := pruneMemberSessions(member.ID); err != nil {
		return "", err
	}
	return token, nil
}

// pruneMemberSessions drops tokens whose session already expired.
func pruneMemberSessions(memberId int) error {
	tokens, err := config.GetRedisSetMembers(memberSessionsKey(memberId))
	if err != nil {
		return err
	}
	for _, token := range tokens {
		session, err := LoadSession(token)
		if err != nil {
			return err
		}
		if session == nil {
			if err := config.RemoveRedisSetMember(memberSessionsKey(memberId), token); err != nil {
				return err
			}
		}
	}
	return nil
}

// LoadSession returns the stored session or nil when the token is unknown or expired.
func LoadSession(token string) (*Session, error) {
	if token == "" {
		return nil, nil
	}
	var session Session
	exists, err := config.GetRedisObject(sessionKey(token), &session)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}
	return &session, nil
}

// ResolveSession re-reads the member behind token so rank and grant changes
// apply to running sessions. Sessions of deleted or deactivated members are dropped.
func ResolveSession(ctx context.Context, token string) (*SessionUser, error) {
	session, err := LoadSession(token)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, nil
	}

	db := config.GetDB()
	var member Member
	err = db.WithContext(ctx).Where("id = ?", session.MemberId).Take(&member).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err != nil || member.IsActive == nil || !*member.IsActive {
		_ = DestroySession(token)
		return nil, nil
	}
	user := NewSessionUser(&member)
	return &user, nil
}

func DestroySession(token string) error {
	if token == "" {
		return nil
	}
	session, err := LoadSession(token)
	if err != nil {
		return err
	}
	if err := config.RemoveRedisKey(sessionKey(token)); err != nil {
		return err
	}
	if session != nil {
		return config.RemoveRedisSetMember(memberSessionsKey(session.MemberId), token)
	}
	return nil
}

func DestroyMemberSessions(memberId int) error {
	tokens, err := config.GetRedisSetMembers(memberSessionsKey(memberId))
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(tokens)+1)
	for _, token := range tokens {
		keys = append(keys, sessionKey(token))
	}
	keys = append(keys, memberSessionsKey(memberId))
	return config.RemoveRedisKey(keys...)
}

// Logout destroys the current session and records it.
func Logout(ctx context.Context) error {
	token, ok := utils.GetTokenFromContext(ctx)
	if !ok || token == "" {
		return utils.NewUnauthorizedError("Nicht angemeldet")
	}
	if err := DestroySession(token); err != nil {
		return err
	}
	name, _ := utils.GetUserNameFromContext(ctx)
	db := config.GetDB()
	return logActivity(ctx, db.WithContext(ctx), ActionLogout, fmt.Sprintf("%s hat sich ausgeloggt", name), nil)
}
