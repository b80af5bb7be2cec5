package factory

import (
	"context"

	"github.com/listenup/listenup-server/pkg/config"
	"github.com/listenup/listenup-server/pkg/controllers"
	"github.com/listenup/listenup-server/pkg/models"
)

// ApplicationControllers holds all the controllers.
type ApplicationControllers struct {
	AuthController        *controllers.AuthController
	PodcastController     *controllers.PodcastController
	EpisodeController     *controllers.EpisodeController
	ExportController      *controllers.ExportController
	AdminController       *controllers.AdminController
	HealthCheckController *controllers.HealthCheckController
}

// Application is the root struct holding all dependencies.
type Application struct {
	Controllers  *ApplicationControllers
	AppConfig    *config.AppConfig
	Ctx          context.Context
	janitorModel *models.JanitorModel
}

func (a *Application) Boot() {
	go a.janitorModel.StartJanitor()
}

func (a *Application) Shutdown() {
	a.janitorModel.Shutdown()
}
