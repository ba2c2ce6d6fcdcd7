// ABOUTME: Resolves which pages a session's role may see and with which actions
// ABOUTME: Always fetches fresh from the API; matches pages by normalized URL key

package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/eondash/eon-dashboard/models"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// NormalizePageKey lowercases s and replaces each run of whitespace with "-".
func NormalizePageKey(s string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "-")
}

// AccessLister fetches the page access list for a session
type AccessLister interface {
	ListAccessiblePages(ctx context.Context, s *models.Session) ([]models.PageAccess, error)
}

// PermissionResolver answers per-page permission questions for a session.
type PermissionResolver struct {
	api AccessLister
}

func NewPermissionResolver(api AccessLister) *PermissionResolver {
	return &PermissionResolver{api: api}
}

// Accessible returns every page the session's role can see.
func (p *PermissionResolver) Accessible(ctx context.Context, s *models.Session) ([]models.PageAccess, error) {
	pages, err := p.api.ListAccessiblePages(ctx, s)
	if err != nil {
		return nil, fmt.Errorf("fetching accessible pages: %w", err)
	}
	return pages, nil
}

// Resolve returns the access entry for pageKey, or ErrNoPermission when the
// role has none.
func (p *PermissionResolver) Resolve(ctx context.Context, s *models.Session, pageKey string) (*models.PageAccess, error) {
	pages, err := p.Accessible(ctx, s)
	if err != nil {
		return nil, err
	}
	want := "/" + NormalizePageKey(pageKey)
	for i := range pages {
		if pages[i].URL == want {
			return &pages[i], nil
		}
	}
	return nil, ErrNoPermission
}
