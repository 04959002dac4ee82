package controller

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/velastools/velastools/pkg/cluster"
	"github.com/velastools/velastools/pkg/readmodel"
)

func (c *Controller) apiError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, cluster.ErrUnknownCluster):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, readmodel.ErrInvalidWindow):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		c.App.Logger.Error("Request failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// APICredits returns the credits table of a cluster as JSON.
func (c *Controller) APICredits(w http.ResponseWriter, r *http.Request) {
	cl, err := cluster.Parse(mux.Vars(r)["cluster"])
	if err != nil {
		c.apiError(w, r, err)
		return
	}
	window, err := windowParam(r, readmodel.DefaultCreditsWindow)
	if err != nil {
		c.apiError(w, r, err)
		return
	}

	table, err := c.credits(r.Context(), cl, window)
	if err != nil {
		c.apiError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, table)
}

// APIRewards returns the rewards table of a cluster as JSON, in whole tokens.
func (c *Controller) APIRewards(w http.ResponseWriter, r *http.Request) {
	cl, err := cluster.Parse(mux.Vars(r)["cluster"])
	if err != nil {
		c.apiError(w, r, err)
		return
	}
	window, err := windowParam(r, readmodel.DefaultRewardsWindow)
	if err != nil {
		c.apiError(w, r, err)
		return
	}

	table, err := c.rewards(r.Context(), cl, window)
	if err != nil {
		c.apiError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, table)
}
