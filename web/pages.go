package web

import (
	"context"
	"embed"
	"html/template"
	"net/http"
	"strconv"

	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/checklist"
	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/documents"
	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/middleware"
	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/model"
	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/pkg/logger"
	"github.com/Creator-Turbo/Intelligent-Custom-Clearance-Assistant/store"
	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templateFS embed.FS

// Templates parses the embedded page templates for gin's SetHTMLTemplate
func Templates() *template.Template {
	return template.Must(template.New("").Funcs(template.FuncMap{
		"percent": func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) + "%" },
	}).ParseFS(templateFS, "templates/*.html"))
}

// Profiles resolves the signed-in account for rendering
type Profiles interface {
	Account(ctx context.Context, uid string) (*store.Account, error)
}

type Pages struct {
	profiles  Profiles
	lanes     store.TradeLaneStore
	checklist *checklist.Table
}

func NewPages(profiles Profiles, lanes store.TradeLaneStore, table *checklist.Table) *Pages {
	return &Pages{profiles: profiles, lanes: lanes, checklist: table}
}

// Register mounts the page routes. The group must run OptionalAuth.
func (p *Pages) Register(r gin.IRoutes) {
	r.GET(PathHome, p.Home)
	r.GET(PathLogin, p.Login)
	r.GET(PathTradeLane, p.requireUser(p.TradeLane))
	r.GET(PathDocuments, p.requireUser(p.Documents))
	r.GET(PathAssistant, p.requireUser(p.Assistant))
}

type pageData struct {
	Title      string
	Nav        Nav
	Menu       MobileMenu
	Signup     bool
	Countries  []string
	Categories []string
	Lanes      []model.TradeLane
	Selected   *model.TradeLane
	Checklist  *model.Checklist
	UploadHint string
	Error      string
}

func (p *Pages) data(c *gin.Context, title string) pageData {
	return pageData{
		Title:      title,
		Nav:        BuildNav(c.Request.URL.Path, p.currentUser(c)),
		Menu:       MenuFor(c.Request.URL),
		Countries:  model.Countries,
		Categories: model.Categories,
	}
}

// currentUser returns nil for guests and for tokens whose account is gone
func (p *Pages) currentUser(c *gin.Context) *model.User {
	if u, ok := c.Get(userKey); ok {
		return u.(*model.User)
	}
	uid := middleware.GetUID(c)
	if uid == "" {
		return nil
	}
	acct, err := p.profiles.Account(c.Request.Context(), uid)
	if err != nil {
		logger.WithContext(c.Request.Context()).Warn("session account not found", "error", err)
		return nil
	}
	u := acct.Profile()
	c.Set(userKey, &u)
	return &u
}

const userKey = "page_user"

func (p *Pages) requireUser(next gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if p.currentUser(c) == nil {
			c.Redirect(http.StatusFound, PathLogin)
			c.Abort()
			return
		}
		next(c)
	}
}

func (p *Pages) Home(c *gin.Context) {
	c.HTML(http.StatusOK, "home", p.data(c, "Customs Clearance Assistant"))
}

// Login renders the sign-in form, or the sign-up form with ?mode=signup.
// Signed-in users go straight to the dashboard.
func (p *Pages) Login(c *gin.Context) {
	if p.currentUser(c) != nil {
		c.Redirect(http.StatusFound, PathTradeLane)
		return
	}
	d := p.data(c, "Login")
	if c.Query("mode") == "signup" {
		d.Signup = true
		d.Title = "Sign Up"
	}
	c.HTML(http.StatusOK, "login", d)
}

// TradeLane lists the caller's lanes and the checklist of the selected one
// (?lane=<id>, defaulting to the first)
func (p *Pages) TradeLane(c *gin.Context) {
	d := p.data(c, "Trade Lanes")
	lanes, err := p.lanes.ListLanes(c.Request.Context(), d.Nav.User.UID)
	if err != nil {
		logger.WithContext(c.Request.Context()).Error("failed to list trade lanes", "error", err)
		d.Error = "Failed to load trade lanes"
		c.HTML(http.StatusOK, "tradelane", d)
		return
	}
	d.Lanes = lanes

	if len(lanes) > 0 {
		selected := &lanes[0]
		if id := c.Query("lane"); id != "" {
			for i := range lanes {
				if lanes[i].ID == id {
					selected = &lanes[i]
					break
				}
			}
		}
		d.Selected = selected
		result := p.checklist.Lookup(selected.From, selected.To, selected.Category)
		d.Checklist = &result
	}
	c.HTML(http.StatusOK, "tradelane", d)
}

func (p *Pages) Documents(c *gin.Context) {
	d := p.data(c, "Documents")
	d.UploadHint = documents.SizeHint
	c.HTML(http.StatusOK, "documents", d)
}

func (p *Pages) Assistant(c *gin.Context) {
	c.HTML(http.StatusOK, "assistant", p.data(c, "AI Assistant"))
}

