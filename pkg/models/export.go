package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-jose/go-jose/v4"
	"github.com/go-jose/go-jose/v4/jwt"
	json "github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/listenup/listenup-server/pkg/config"
	"github.com/listenup/listenup-server/pkg/transcribe"
	"github.com/listenup/listenup-server/pkg/utils"
	"github.com/sirupsen/logrus"
)

const (
	ExportFormatSRT  = "srt"
	ExportFormatVTT  = "vtt"
	ExportFormatJSON = "json"
)

// ExportModel renders processed episodes as downloadable transcripts.
// Downloads are handed out via short-lived signed tokens so the file
// endpoint itself needs no API credentials.
type ExportModel struct {
	app    *config.AppConfig
	em     *EpisodeModel
	logger *logrus.Entry
}

func NewExportModel(app *config.AppConfig, em *EpisodeModel, logger *logrus.Logger) *ExportModel {
	if app == nil {
		app = config.GetConfig()
	}
	if em == nil {
		em = NewEpisodeModel(app, nil, nil, logger)
	}

	return &ExportModel{
		app:    app,
		em:     em,
		logger: logger.WithField("model", "export"),
	}
}

// GetExportToken returns a signed download token for one episode export.
func (m *ExportModel) GetExportToken(episodeId, format string) (string, error) {
	format = strings.ToLower(format)
	switch format {
	case ExportFormatSRT, ExportFormatVTT, ExportFormatJSON:
	default:
		return "", fmt.Errorf("unsupported export format: %s", format)
	}

	if !m.em.HasCache(episodeId) {
		return "", errors.New(config.MsgEpisodeNotInCache)
	}

	sig, err := jose.NewSigner(jose.SigningKey{Algorithm: jose.HS256, Key: []byte(m.app.Client.Secret)}, (&jose.SignerOptions{}).WithType("JWT"))
	if err != nil {
		return "", err
	}

	cl := jwt.Claims{
		Issuer:    m.app.Client.ApiKey,
		NotBefore: jwt.NewNumericDate(time.Now().UTC()),
		Expiry:    jwt.NewNumericDate(time.Now().UTC().Add(*m.app.Client.TokenValidity)),
		Subject:   episodeId + "." + format,
	}

	return jwt.Signed(sig).Claims(cl).Serialize()
}

// VerifyExportToken checks a download token and resolves what it grants.
func (m *ExportModel) VerifyExportToken(token string) (episodeId, format string, status int, err error) {
	tok, err := jwt.ParseSigned(token, []jose.SignatureAlgorithm{jose.HS256})
	if err != nil {
		return "", "", fiber.StatusUnauthorized, err
	}

	out := jwt.Claims{}
	if err = tok.Claims([]byte(m.app.Client.Secret), &out); err != nil {
		return "", "", fiber.StatusUnauthorized, err
	}

	if err = out.Validate(jwt.Expected{
		Issuer: m.app.Client.ApiKey,
		Time:   time.Now().UTC(),
	}); err != nil {
		return "", "", fiber.StatusUnauthorized, err
	}

	episodeId, format, ok := strings.Cut(out.Subject, ".")
	if !ok {
		return "", "", fiber.StatusUnauthorized, errors.New("malformed export token")
	}

	if !m.em.HasCache(episodeId) {
		return "", "", fiber.StatusNotFound, errors.New(config.MsgEpisodeNotInCache)
	}

	return episodeId, format, fiber.StatusOK, nil
}

// RenderExport produces the transcript document of a processed episode.
func (m *ExportModel) RenderExport(episodeId, format string) (content []byte, fileName, contentType string, err error) {
	cached, err := m.em.LoadCache(episodeId)
	if err != nil {
		return nil, "", "", err
	}
	if cached == nil {
		return nil, "", "", errors.New(config.MsgEpisodeNotInCache)
	}

	switch strings.ToLower(format) {
	case ExportFormatSRT:
		return renderSRT(cached.Segments), episodeId + ".srt", "application/x-subrip", nil
	case ExportFormatVTT:
		return renderVTT(cached.Segments), episodeId + ".vtt", "text/vtt", nil
	case ExportFormatJSON:
		data, err := json.MarshalIndent(cached.Segments, "", "  ")
		if err != nil {
			return nil, "", "", err
		}
		return data, episodeId + ".json", "application/json", nil
	default:
		return nil, "", "", fmt.Errorf("unsupported export format: %s", format)
	}
}

func renderSRT(segments []transcribe.Segment) []byte {
	var b strings.Builder
	for i, seg := range segments {
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n", i+1,
			utils.FormatSRTTimestamp(seg.Start), utils.FormatSRTTimestamp(seg.End), seg.Text)
		if seg.Translation != "" {
			b.WriteString(seg.Translation + "\n")
		}
		b.WriteString("\n")
	}
	return []byte(b.String())
}

func renderVTT(segments []transcribe.Segment) []byte {
	var b strings.Builder
	b.WriteString("WEBVTT\n\n")
	for _, seg := range segments {
		fmt.Fprintf(&b, "%s --> %s\n%s\n",
			utils.FormatVTTTimestamp(seg.Start), utils.FormatVTTTimestamp(seg.End), seg.Text)
		if seg.Translation != "" {
			b.WriteString(seg.Translation + "\n")
		}
		b.WriteString("\n")
	}
	return []byte(b.String())
}
