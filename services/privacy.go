package services

import (
	"github.com/upline-crm/upline_backend/models"
)

// viewerRelation classifies a viewer relative to a target member.
type viewerRelation struct {
	isDirectUpline bool
	inNetwork      bool // viewer is in the target's subtree or is one of the target's uplines
}

func classifyViewer(target, viewer *models.Member) viewerRelation {
	if viewer == nil {
		return viewerRelation{}
	}
	rel := viewerRelation{}
	if target.SponsorID != nil && *target.SponsorID == viewer.ID {
		rel.isDirectUpline = true
	}
	// Viewer above the target in the chain, or below it in the subtree.
	if target.PathContains(viewer.ID) || viewer.PathContains(target.ID) {
		rel.inNetwork = true
	}
	return rel
}

// fieldVisible applies one visibility level. Admin override is absolute:
// admins see every field regardless of the chosen level, including "nobody".
func fieldVisible(level models.VisibilityLevel, rel viewerRelation, viewerIsAdmin bool) bool {
	if viewerIsAdmin {
		return true
	}
	switch level {
	case models.VisibilityNobody:
		return false
	case models.VisibilityAdmin:
		return false
	case models.VisibilityUpline:
		return rel.isDirectUpline
	case models.VisibilitySubtree:
		return rel.isDirectUpline || rel.inNetwork
	}
	return false
}

// ApplyVisibility builds the privacy-filtered profile of target as seen by
// viewer. Fields the viewer may not see are left empty and omitted from
// serialization. A member always sees their own fields.
func ApplyVisibility(target *models.Member, prefs *models.VisibilitySettings, viewer *models.Member, viewerIsAdmin bool) models.MemberProfile {
	profile := models.MemberProfile{
		ID:         target.ID,
		MemberCode: target.MemberCode,
		FullName:   target.FullName,
		Role:       target.Role,
		Status:     target.Status,
	}

	if viewer != nil && viewer.ID == target.ID {
		profile.Phone = target.Phone
		profile.Email = target.Email
		profile.City = target.City
		return profile
	}

	if prefs == nil {
		prefs = models.DefaultVisibilitySettings(target.ID)
	}
	prefs.Normalize()

	rel := classifyViewer(target, viewer)
	if fieldVisible(prefs.Phone, rel, viewerIsAdmin) {
		profile.Phone = target.Phone
	}
	if fieldVisible(prefs.Email, rel, viewerIsAdmin) {
		profile.Email = target.Email
	}
	if fieldVisible(prefs.City, rel, viewerIsAdmin) {
		profile.City = target.City
	}
	return profile
}
