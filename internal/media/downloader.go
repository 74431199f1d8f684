// Package media resolves non-image APOD assets: it downloads and transcodes
// remote videos to a Telegram-friendly local mp4, and scrapes the HTML
// archive page when the feed reports a media type it cannot link directly.
package media

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/avolkov/apod-bot/internal/config"
)

// ErrDownloadFailed indicates the source video could not be retrieved
// (dead link, removed upload, unsupported host). Callers downgrade this to
// a "media unavailable" result instead of failing the request.
var ErrDownloadFailed = errors.New("media: download failed")

// Downloader fetches and transcodes remote videos via the yt-dlp binary.
//
// The ffmpeg postprocessor arguments keep output well under Telegram's
// upload limits: 480p, x264 veryfast, aac audio, faststart for streaming.
type Downloader struct {
	cfg config.MediaConfig
}

// NewDownloader builds a Downloader using the configured temp dir and
// binary path.
func NewDownloader(cfg config.MediaConfig) *Downloader {
	return &Downloader{cfg: cfg}
}

// Download retrieves url as a local mp4 file and returns its path. The
// subprocess is bounded by ctx (and the configured timeout); any failure is
// reported as ErrDownloadFailed with the underlying detail logged.
func (d *Downloader) Download(ctx context.Context, url string) (string, error) {
	if d.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.cfg.Timeout)
		defer cancel()
	}

	if err := os.MkdirAll(d.cfg.TempDir, 0o755); err != nil {
		return "", err
	}

	args := []string{
		"--format", "bv*+ba/best[ext=mp4]/best",
		"--output", filepath.Join(d.cfg.TempDir, "%(title)s.%(ext)s"),
		"--recode-video", "mp4",
		"--postprocessor-args", "-vf scale=-2:480 -c:v libx264 -preset veryfast -crf 27 -c:a aac -b:a 128k -movflags +faststart",
		"--concurrent-fragments", "4",
		"--no-playlist",
		"--print", "after_move:filepath",
		"--no-simulate",
	}
	if d.cfg.Quiet {
		args = append(args, "--quiet")
	}
	args = append(args, url)

	cmd := exec.CommandContext(ctx, d.cfg.YtdlpPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		log.Warn().
			Err(err).
			Str("url", url).
			Str("stderr", strings.TrimSpace(stderr.String())).
			Msg("video download failed")
		return "", ErrDownloadFailed
	}

	path := strings.TrimSpace(stdout.String())
	if path == "" {
		log.Warn().Str("url", url).Msg("downloader produced no output path")
		return "", ErrDownloadFailed
	}
	// --print may emit one line per downloaded entry; the last one is the
	// final post-processed file.
	if lines := strings.Split(path, "\n"); len(lines) > 1 {
		path = strings.TrimSpace(lines[len(lines)-1])
	}

	log.Info().Str("path", path).Msg("video saved")
	return path, nil
}
