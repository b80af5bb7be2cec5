package controllers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/listenup/listenup-server/pkg/config"
	"github.com/listenup/listenup-server/pkg/models"
	"github.com/sirupsen/logrus"
)

type EpisodeController struct {
	app          *config.AppConfig
	episodeModel *models.EpisodeModel
	logger       *logrus.Entry
}

func NewEpisodeController(app *config.AppConfig, em *models.EpisodeModel, logger *logrus.Logger) *EpisodeController {
	return &EpisodeController{
		app:          app,
		episodeModel: em,
		logger:       logger.WithField("controller", "episode"),
	}
}

// HandleProcessEpisode kicks off the download/transcribe/translate pipeline
// for an episode URL. The pipeline itself runs in the background, clients
// follow it through the status endpoint.
func (ec *EpisodeController) HandleProcessEpisode(c *fiber.Ctx) error {
	req := new(processReq)
	if err := c.BodyParser(req); err != nil {
		return sendError(c, fiber.StatusBadRequest, err.Error())
	}

	req.Url = strings.TrimSpace(req.Url)
	if req.Url == "" {
		return sendError(c, fiber.StatusBadRequest, config.MsgUrlNotProvided)
	}

	result, err := ec.episodeModel.StartProcessing(c.UserContext(), req.Url)
	if err != nil {
		if errors.Is(err, models.ErrProcessingInProgress) {
			return sendError(c, fiber.StatusBadRequest, err.Error())
		}
		ec.logger.WithError(err).Errorln("failed to start episode processing")
		return sendError(c, fiber.StatusInternalServerError, err.Error())
	}

	return c.JSON(result)
}

// HandleProcessingStatus reports the live pipeline state.
func (ec *EpisodeController) HandleProcessingStatus(c *fiber.Ctx) error {
	status, err := ec.episodeModel.GetProcessingStatus(c.UserContext())
	if err != nil {
		ec.logger.WithError(err).Errorln("failed to read processing status")
		return sendError(c, fiber.StatusInternalServerError, err.Error())
	}

	return c.JSON(status)
}

// HandleSegments returns the transcript of the currently loaded episode.
func (ec *EpisodeController) HandleSegments(c *fiber.Ctx) error {
	result, err := ec.episodeModel.GetCurrentSegments(c.UserContext())
	if err != nil {
		ec.logger.WithError(err).Errorln("failed to load current segments")
		return sendError(c, fiber.StatusInternalServerError, err.Error())
	}

	return c.JSON(result)
}

// HandleCachedEpisode loads a previously processed episode from the cache and
// makes it the current one.
func (ec *EpisodeController) HandleCachedEpisode(c *fiber.Ctx) error {
	episodeId := c.Params("episodeId")

	result, err := ec.episodeModel.GetCachedEpisode(c.UserContext(), episodeId)
	if err != nil {
		ec.logger.WithError(err).Errorln("failed to load cached episode")
		return sendError(c, fiber.StatusInternalServerError, err.Error())
	}
	if result == nil {
		return sendError(c, fiber.StatusNotFound, config.MsgEpisodeNotInCache)
	}

	return c.JSON(result)
}

// HandleAudio streams the downloaded audio of the current episode.
func (ec *EpisodeController) HandleAudio(c *fiber.Ctx) error {
	audioPath, err := ec.episodeModel.GetCurrentAudioPath(c.UserContext())
	if err != nil {
		ec.logger.WithError(err).Errorln("failed to resolve current audio path")
		return sendError(c, fiber.StatusInternalServerError, err.Error())
	}
	if audioPath == "" {
		return sendError(c, fiber.StatusNotFound, config.MsgAudioNotFound)
	}

	c.Set(fiber.HeaderContentType, "audio/mpeg")
	return c.SendFile(audioPath)
}

type processReq struct {
	Url string `json:"url"`
}
