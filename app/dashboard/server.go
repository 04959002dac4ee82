package dashboard

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/velastools/velastools/app/dashboard/controller"
	"github.com/velastools/velastools/app/dashboard/types"
)

// NewServer builds the router and attaches an http.Server bound to addr.
func NewServer(app *types.App, addr string) error {
	ctler, err := controller.NewController(app)
	if err != nil {
		return err
	}
	router, err := ctler.NewRouter()
	if err != nil {
		return err
	}

	app.Server = &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	app.Logger.Info("Starting server", zap.String("addr", addr))

	return nil
}
