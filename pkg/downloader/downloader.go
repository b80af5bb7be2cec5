package downloader

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/cavaliergopher/grab/v3"
	"github.com/gabriel-vasile/mimetype"
	"github.com/listenup/listenup-server/pkg/config"
	"github.com/sirupsen/logrus"
)

// ProgressFunc receives download progress (0-100) with a status message.
type ProgressFunc func(progress float64, status string)

// Downloader fetches remote episode audio and normalizes it to mp3.
type Downloader struct {
	downloadDir string
	maxSize     uint64
	ffmpegBin   string
	logger      *logrus.Entry
}

func New(cfg *config.PodcastSettings, logger *logrus.Logger) *Downloader {
	return &Downloader{
		downloadDir: cfg.DownloadPath,
		maxSize:     cfg.MaxDownloadSize,
		ffmpegBin:   cfg.FfmpegBin,
		logger:      logger.WithField("service", "downloader"),
	}
}

// FileNameForUrl returns the stable audio filename for an episode url.
func FileNameForUrl(fileUrl string) string {
	hash := md5.Sum([]byte(fileUrl))
	return config.DownloadFilePrefix + hex.EncodeToString(hash[:])[:config.DownloadHashLength] + ".mp3"
}

// FilePathForUrl returns where the normalized audio of an episode url lives.
func (d *Downloader) FilePathForUrl(fileUrl string) string {
	return filepath.Join(d.downloadDir, FileNameForUrl(fileUrl))
}

// Download fetches the audio behind fileUrl and returns the path of the
// local mp3. A file downloaded earlier short-circuits without touching the
// network. Non-mp3 audio is converted with ffmpeg.
func (d *Downloader) Download(ctx context.Context, fileUrl string, progress ProgressFunc) (string, error) {
	mp3Path := d.FilePathForUrl(fileUrl)
	if _, err := os.Stat(mp3Path); err == nil {
		d.notify(progress, 100, "Arquivo ja existe, usando cache")
		return mp3Path, nil
	}

	if err := os.MkdirAll(d.downloadDir, os.ModePerm); err != nil {
		return "", fmt.Errorf("failed to create download directory: %w", err)
	}
	if err := d.validateRemoteFile(ctx, fileUrl); err != nil {
		return "", err
	}

	d.notify(progress, 0, "Starting download...")

	partPath := mp3Path + ".part"
	_ = os.Remove(partPath)

	req, err := grab.NewRequest(partPath, fileUrl)
	if err != nil {
		return "", fmt.Errorf("invalid download url: %w", err)
	}
	req = req.WithContext(ctx)

	resp := grab.NewClient().Do(req)

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
Loop:
	for {
		select {
		case <-ticker.C:
			pct := resp.Progress() * 100
			d.notify(progress, pct, fmt.Sprintf("Downloading: %.1f%%", pct))
		case <-resp.Done:
			break Loop
		}
	}
	if err := resp.Err(); err != nil {
		_ = os.Remove(partPath)
		return "", fmt.Errorf("failed to download file: %w", err)
	}

	// The server may not have announced a length up front, check again.
	if info, err := os.Stat(partPath); err == nil && uint64(info.Size()) > d.maxSize {
		_ = os.Remove(partPath)
		return "", fmt.Errorf("file too large: allowed %d bytes, got %d", d.maxSize, info.Size())
	}

	mType, err := mimetype.DetectFile(partPath)
	if err != nil {
		_ = os.Remove(partPath)
		return "", fmt.Errorf("failed to detect file type: %w", err)
	}

	switch {
	case mType.Is("audio/mpeg"):
		if err := os.Rename(partPath, mp3Path); err != nil {
			return "", err
		}
	case strings.HasPrefix(mType.String(), "audio/"), strings.HasPrefix(mType.String(), "video/"):
		d.notify(progress, 100, "Download completed, converting...")
		if err := d.convertToMp3(ctx, partPath, mp3Path); err != nil {
			_ = os.Remove(partPath)
			return "", err
		}
		_ = os.Remove(partPath)
	default:
		_ = os.Remove(partPath)
		return "", fmt.Errorf("unsupported file type: %s", mType.String())
	}

	d.notify(progress, 100, "Download completed!")
	return mp3Path, nil
}

// validateRemoteFile checks the announced size before pulling the body.
func (d *Downloader) validateRemoteFile(ctx context.Context, fileUrl string) error {
	client := &http.Client{Timeout: 5 * time.Second}
	req, err := http.NewRequestWithContext(ctx, "HEAD", fileUrl, nil)
	if err != nil {
		return fmt.Errorf("invalid download url: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch file headers: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("remote file not reachable, status %d", resp.StatusCode)
	}

	// Many podcast CDNs omit the length on HEAD, only enforce when present.
	if resp.ContentLength > 0 && uint64(resp.ContentLength) > d.maxSize {
		return fmt.Errorf("file too large: allowed %d bytes, got %d", d.maxSize, resp.ContentLength)
	}

	d.logger.WithFields(logrus.Fields{
		"url":          fileUrl,
		"content-type": resp.Header.Get("Content-Type"),
		"length":       resp.ContentLength,
	}).Debugln("remote file headers checked")

	return nil
}

func (d *Downloader) convertToMp3(ctx context.Context, src, dst string) error {
	if _, err := exec.LookPath(d.ffmpegBin); err != nil {
		return errors.New("ffmpeg not found, can not convert audio")
	}

	cmd := exec.CommandContext(ctx, d.ffmpegBin,
		"-hide_banner", "-loglevel", "error", "-y",
		"-i", src,
		"-vn", "-acodec", "libmp3lame", "-b:a", "192k",
		dst,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("ffmpeg conversion failed: %s; msg: %s", strings.TrimSpace(string(output)), err.Error())
	}
	return nil
}

func (d *Downloader) notify(progress ProgressFunc, pct float64, status string) {
	if progress != nil {
		progress(pct, status)
	}
}
