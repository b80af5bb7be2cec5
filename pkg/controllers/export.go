package controllers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/listenup/listenup-server/pkg/config"
	"github.com/listenup/listenup-server/pkg/models"
	"github.com/sirupsen/logrus"
)

type ExportController struct {
	app         *config.AppConfig
	exportModel *models.ExportModel
	logger      *logrus.Entry
}

func NewExportController(app *config.AppConfig, em *models.ExportModel, logger *logrus.Logger) *ExportController {
	return &ExportController{
		app:         app,
		exportModel: em,
		logger:      logger.WithField("controller", "export"),
	}
}

// HandleGenerateExportToken issues a short-lived download token for a cached
// episode's transcript. The download link itself needs no further auth, the
// token carries everything.
func (ec *ExportController) HandleGenerateExportToken(c *fiber.Ctx) error {
	req := new(exportTokenReq)
	if err := c.BodyParser(req); err != nil {
		return sendError(c, fiber.StatusBadRequest, err.Error())
	}

	token, err := ec.exportModel.GetExportToken(req.EpisodeId, req.Format)
	if err != nil {
		return sendError(c, fiber.StatusBadRequest, err.Error())
	}

	return c.JSON(fiber.Map{
		"token": token,
	})
}

// HandleDownloadExport serves the rendered transcript named by a download
// token.
func (ec *ExportController) HandleDownloadExport(c *fiber.Ctx) error {
	token := c.Params("token")

	episodeId, format, status, err := ec.exportModel.VerifyExportToken(token)
	if err != nil {
		return sendError(c, status, err.Error())
	}

	content, fileName, contentType, err := ec.exportModel.RenderExport(episodeId, format)
	if err != nil {
		ec.logger.WithError(err).Errorln("failed to render export")
		return sendError(c, fiber.StatusInternalServerError, err.Error())
	}

	c.Set(fiber.HeaderContentType, contentType)
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, fileName))
	return c.Send(content)
}

type exportTokenReq struct {
	EpisodeId string `json:"episode_id"`
	Format    string `json:"format"`
}
