package controllers

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/listenup/listenup-server/pkg/config"
	"github.com/listenup/listenup-server/pkg/models"
	"github.com/sirupsen/logrus"
)

type PodcastController struct {
	app          *config.AppConfig
	podcastModel *models.PodcastModel
	logger       *logrus.Entry
}

func NewPodcastController(app *config.AppConfig, pm *models.PodcastModel, logger *logrus.Logger) *PodcastController {
	return &PodcastController{
		app:          app,
		podcastModel: pm,
		logger:       logger.WithField("controller", "podcast"),
	}
}

// HandlePodcastSearch resolves a query against the iTunes directory. A pasted
// Apple Podcasts show URL lists that show's episodes, anything else runs a
// free-text show search.
func (pc *PodcastController) HandlePodcastSearch(c *fiber.Ctx) error {
	req := new(searchReq)
	if err := c.BodyParser(req); err != nil {
		return sendError(c, fiber.StatusBadRequest, err.Error())
	}

	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		return sendError(c, fiber.StatusBadRequest, config.MsgQueryNotProvided)
	}

	result, err := pc.podcastModel.Search(c.UserContext(), req.Query)
	if err != nil {
		pc.logger.WithError(err).Errorln("podcast search failed")
		return sendError(c, fiber.StatusInternalServerError, config.MsgPodcastSearchFailed)
	}

	return c.JSON(result)
}

type searchReq struct {
	Query string `json:"query"`
}
