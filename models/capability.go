package models

import (
	"context"
	"sort"

	"github.com/H2RkawaNinja/dashboard/utils"
)

type Capability string

const (
	CapAddMembers        Capability = "add_members"
	CapManageHero        Capability = "manage_hero"
	CapManageFence       Capability = "manage_fence"
	CapViewActivity      Capability = "view_activity"
	CapViewCredentials   Capability = "view_credentials"
	CapManageMaintenance Capability = "manage_maintenance"
)

var AllCapabilities = []Capability{
	CapAddMembers,
	CapManageHero,
	CapManageFence,
	CapViewActivity,
	CapViewCredentials,
	CapManageMaintenance,
}

// Techniker ignores the stored grants; a Boss only adds the credential view.
var rankCapabilities = map[string][]Capability{
	RankTechniker: AllCapabilities,
	RankBoss:      {CapViewCredentials},
}

// ResolveCapabilities unions the rank's capability set with the member's own grants.
// The result is sorted and free of duplicates.
func ResolveCapabilities(member *Member) []string {
	set := make(map[Capability]struct{})
	for _, c := range rankCapabilities[member.Rank] {
		set[c] = struct{}{}
	}
	grants := map[Capability]bool{
		CapAddMembers:   member.CanAddMembers,
		CapManageHero:   member.CanManageHero,
		CapManageFence:  member.CanManageFence,
		CapViewActivity: member.CanViewActivity,
	}
	for c, granted := range grants {
		if granted {
			set[c] = struct{}{}
		}
	}
	result := make([]string, 0, len(set))
	for c := range set {
		result = append(result, string(c))
	}
	sort.Strings(result)
	return result
}

func HasCapability(capabilities []string, want Capability) bool {
	for _, c := range capabilities {
		if c == string(want) {
			return true
		}
	}
	return false
}

// RequireCapability checks the capabilities stored in ctx by the session layer.
func RequireCapability(ctx context.Context, want Capability, message string) error {
	capabilities, ok := utils.GetCapabilitiesFromContext(ctx)
	if !ok {
		return utils.NewUnauthorizedError("Nicht angemeldet")
	}
	if !HasCapability(capabilities, want) {
		return utils.NewForbiddenError(message)
	}
	return nil
}
