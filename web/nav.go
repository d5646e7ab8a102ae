// Package web renders the public shell, the login screen and the dashboard
// pages.
package web

import (
	"net/url"
	"strings"

	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/model"
)

// NavItem is one navigation link
type NavItem struct {
	Label  string
	Href   string
	Active bool
}

// Route paths
const (
	PathHome      = "/"
	PathLogin     = "/login"
	PathSignup    = "/login?mode=signup"
	PathTradeLane = "/tradelane"
	PathDocuments = "/dashboard/documents"
	PathAssistant = "/ai-assistant"
)

// PublicLinks are the header links of the marketing shell
func PublicLinks() []NavItem {
	return []NavItem{
		{Label: "How it Works", Href: "/#how-it-works"},
		{Label: "Reviews", Href: "/#reviews"},
		{Label: "Countries", Href: "/#countries"},
		{Label: "Dashboard", Href: PathTradeLane},
	}
}

// GuestActions are shown in the header when nobody is signed in
func GuestActions() []NavItem {
	return []NavItem{
		{Label: "Login", Href: PathLogin},
		{Label: "Get Started", Href: PathSignup},
	}
}

// RailItems are the dashboard links with the one for path marked active
func RailItems(path string) []NavItem {
	items := []NavItem{
		{Label: "Dashboard", Href: PathTradeLane},
		{Label: "Documents", Href: PathDocuments},
		{Label: "AI Assistant", Href: PathAssistant},
	}
	for i := range items {
		items[i].Active = path == items[i].Href || strings.HasPrefix(path, items[i].Href+"/")
	}
	return items
}

// Avatar is the header badge for a signed-in user: the photo when there is
// one, otherwise the initial
type Avatar struct {
	PhotoURL string
	Initial  string
}

func AvatarFor(u model.User) Avatar {
	return Avatar{PhotoURL: u.PhotoURL, Initial: u.Initial()}
}

// MobileMenu is the open/closed state of the collapsible menu on small
// screens, carried in the menu=open query parameter. Nav links drop the
// parameter, so following one closes the menu.
type MobileMenu struct {
	Open       bool
	ToggleHref string
}

// MenuFor reads the menu state of u and builds the link that flips it
func MenuFor(u *url.URL) MobileMenu {
	q := u.Query()
	open := q.Get("menu") == "open"
	if open {
		q.Del("menu")
	} else {
		q.Set("menu", "open")
	}
	href := u.Path
	if enc := q.Encode(); enc != "" {
		href += "?" + enc
	}
	return MobileMenu{Open: open, ToggleHref: href}
}

// Nav is everything the header and rail templates need
type Nav struct {
	Public []NavItem
	Guest  []NavItem // empty when signed in
	Rail   []NavItem // empty when signed out
	User   *model.User
	Avatar Avatar
}

// BuildNav assembles the navigation for path and the current user, who may be nil
func BuildNav(path string, user *model.User) Nav {
	nav := Nav{Public: PublicLinks(), User: user}
	if user == nil {
		nav.Guest = GuestActions()
		return nav
	}
	nav.Rail = RailItems(path)
	nav.Avatar = AvatarFor(*user)
	return nav
}
