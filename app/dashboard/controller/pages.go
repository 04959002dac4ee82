package controller

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/velastools/velastools/pkg/cluster"
	"github.com/velastools/velastools/pkg/readmodel"
)

//go:embed templates/*.html templates/errors/*.html
var templateFS embed.FS

const (
	pageIndex   = "index"
	pageUseful  = "useful"
	pageCredits = "credits"
	pageRewards = "rewards"
	page404     = "errors/404"
	page500     = "errors/500"
)

type pages map[string]*template.Template

func parsePages() (pages, error) {
	out := pages{}
	for _, name := range []string{pageIndex, pageUseful, pageCredits, pageRewards, page404, page500} {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		out[name] = t
	}
	return out, nil
}

// pageData is passed to every template.
type pageData struct {
	ActivePage    string
	ActiveCluster string
	Clusters      []string
	Credits       *readmodel.Table[int64]
	Rewards       *readmodel.Table[float64]
}

func newPageData(active string) pageData {
	return pageData{ActivePage: active, Clusters: []string{cluster.Testnet.String(), cluster.Mainnet.String()}}
}

// render executes into a buffer first so a template error still yields a clean 500.
func (c *Controller) render(w http.ResponseWriter, status int, name string, data pageData) {
	var buf bytes.Buffer
	if err := c.pages[name].ExecuteTemplate(&buf, "layout", data); err != nil {
		c.App.Logger.Error("Failed to render template", zap.String("template", name), zap.Error(err))
		if name != page500 {
			c.render(w, http.StatusInternalServerError, page500, newPageData(""))
			return
		}
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// renderError maps unknown clusters and bad windows to 404 and anything else to 500.
func (c *Controller) renderError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, cluster.ErrUnknownCluster) || errors.Is(err, readmodel.ErrInvalidWindow) {
		c.render(w, http.StatusNotFound, page404, newPageData(""))
		return
	}
	c.App.Logger.Error("Request failed", zap.String("path", r.URL.Path), zap.Error(err))
	c.render(w, http.StatusInternalServerError, page500, newPageData(""))
}

func (c *Controller) Index(w http.ResponseWriter, r *http.Request) {
	c.render(w, http.StatusOK, pageIndex, newPageData(pageIndex))
}

func (c *Controller) Useful(w http.ResponseWriter, r *http.Request) {
	c.render(w, http.StatusOK, pageUseful, newPageData(pageUseful))
}

func (c *Controller) NotFound(w http.ResponseWriter, r *http.Request) {
	c.render(w, http.StatusNotFound, page404, newPageData(""))
}

func (c *Controller) CreditsPage(w http.ResponseWriter, r *http.Request) {
	cl, err := cluster.Parse(mux.Vars(r)["cluster"])
	if err != nil {
		c.renderError(w, r, err)
		return
	}
	window, err := windowParam(r, readmodel.DefaultCreditsWindow)
	if err != nil {
		c.renderError(w, r, err)
		return
	}

	table, err := c.credits(r.Context(), cl, window)
	if err != nil {
		c.renderError(w, r, err)
		return
	}

	data := newPageData(pageCredits)
	data.ActiveCluster = cl.String()
	data.Credits = &table
	c.render(w, http.StatusOK, pageCredits, data)
}

func (c *Controller) RewardsPage(w http.ResponseWriter, r *http.Request) {
	cl, err := cluster.Parse(mux.Vars(r)["cluster"])
	if err != nil {
		c.renderError(w, r, err)
		return
	}
	window, err := windowParam(r, readmodel.DefaultRewardsWindow)
	if err != nil {
		c.renderError(w, r, err)
		return
	}

	table, err := c.rewards(r.Context(), cl, window)
	if err != nil {
		c.renderError(w, r, err)
		return
	}

	data := newPageData(pageRewards)
	data.ActiveCluster = cl.String()
	data.Rewards = &table
	c.render(w, http.StatusOK, pageRewards, data)
}
