package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/listenup/listenup-server/pkg/config"
	"github.com/listenup/listenup-server/pkg/models"
	"github.com/sirupsen/logrus"
)

type AdminController struct {
	app        *config.AppConfig
	adminModel *models.AdminModel
	logger     *logrus.Entry
}

func NewAdminController(app *config.AppConfig, am *models.AdminModel, logger *logrus.Logger) *AdminController {
	return &AdminController{
		app:        app,
		adminModel: am,
		logger:     logger.WithField("controller", "admin"),
	}
}

// HandleListEpisodes returns a page of the episodes table.
func (ac *AdminController) HandleListEpisodes(c *fiber.Ctx) error {
	offset := uint64(c.QueryInt("offset", 0))
	limit := uint64(c.QueryInt("limit", 0))
	orderBy := c.Query("order_by")
	status := c.Query("status")

	result, err := ac.adminModel.ListEpisodes(offset, limit, orderBy, status)
	if err != nil {
		ac.logger.WithError(err).Errorln("failed to list episodes")
		return sendError(c, fiber.StatusInternalServerError, err.Error())
	}

	return c.JSON(result)
}

// HandlePurgeEpisode removes an episode's transcript cache, audio file and
// DB row.
func (ac *AdminController) HandlePurgeEpisode(c *fiber.Ctx) error {
	req := new(purgeEpisodeReq)
	if err := c.BodyParser(req); err != nil {
		return sendError(c, fiber.StatusBadRequest, err.Error())
	}
	if req.EpisodeId == "" {
		return sendError(c, fiber.StatusBadRequest, "episode_id required")
	}

	err := ac.adminModel.PurgeEpisode(c.UserContext(), req.EpisodeId)
	switch {
	case errors.Is(err, models.ErrEpisodeNotFound):
		return sendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, models.ErrEpisodeInProgress):
		return sendError(c, fiber.StatusBadRequest, err.Error())
	case err != nil:
		ac.logger.WithError(err).Errorln("failed to purge episode")
		return sendError(c, fiber.StatusInternalServerError, err.Error())
	}

	return c.JSON(fiber.Map{
		"purged": req.EpisodeId,
	})
}

type purgeEpisodeReq struct {
	EpisodeId string `json:"episode_id"`
}
