// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

// Package cover renders the cover image published with a recording.
package cover

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"

	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-meeting-platform/internal/logging"
)

// Cover geometry in pixels.
const (
	Width  = 1024
	Height = 688
)

const (
	// DefaultRasterizer turns the cover page into a PNG.
	DefaultRasterizer = "wkhtmltoimage"
	// DefaultTimeout bounds one rasterizer run.
	DefaultTimeout = 2 * time.Minute
	// backgroundName is the file name of a community background, and of its
	// copy next to the cover page.
	backgroundName = "cover.png"
)

var pageTemplate = template.Must(template.New("cover").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>cover</title>
</head>
<body style="margin: 0">
    <div style="display: inline-block; height: {{.Height}}px; width: {{.Width}}px; text-align: center; background-image: url('{{.Background}}')">
        <p style="font-size: 100px; margin-top: 150px; color: white"><b>{{.Topic}}</b></p>
        <p style="font-size: 80px; margin: 0; color: white">SIG: {{.Group}}</p>
        <p style="font-size: 60px; margin: 0; color: white">Time: {{.Date}} {{.Start}}-{{.End}}</p>
    </div>
</body>
</html>
`))

type page struct {
	Width      int
	Height     int
	Background string
	Topic      string
	Group      string
	Date       string
	Start      string
	End        string
}

// Config locates the community backgrounds and the rasterizer.
type Config struct {
	// BackgroundDir holds one <community>/cover.png per community.
	BackgroundDir string
	Rasterizer    string
	Timeout       time.Duration
}

// Renderer writes the meeting details over the community background and
// rasterizes the result.
type Renderer struct {
	config Config
	run    func(ctx context.Context, name string, args ...string) ([]byte, error)
}

var _ domain.CoverRenderer = (*Renderer)(nil)

// NewRenderer creates a cover renderer.
func NewRenderer(config Config) *Renderer {
	if config.Rasterizer == "" {
		config.Rasterizer = DefaultRasterizer
	}
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	return &Renderer{config: config, run: runCommand}
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// Render produces <outputDir>/<mid>.png for meeting and returns its path.
func (r *Renderer) Render(ctx context.Context, meeting *models.Meeting, outputDir string) (string, error) {
	background, err := r.prepareBackground(meeting.Community, outputDir)
	if err != nil {
		return "", err
	}

	var content bytes.Buffer
	err = pageTemplate.Execute(&content, page{
		Width:      Width,
		Height:     Height,
		Background: filepath.Base(background),
		Topic:      meeting.Topic,
		Group:      meeting.GroupName,
		Date:       meeting.Date,
		Start:      meeting.Start,
		End:        meeting.End,
	})
	if err != nil {
		return "", fmt.Errorf("render cover page: %w", err)
	}
	htmlPath := filepath.Join(outputDir, meeting.MID+".html")
	if err := os.WriteFile(htmlPath, content.Bytes(), 0o600); err != nil {
		return "", fmt.Errorf("write cover page: %w", err)
	}

	imagePath := filepath.Join(outputDir, meeting.MID+".png")
	runCtx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()
	output, err := r.run(runCtx, r.config.Rasterizer, "--enable-local-file-access", htmlPath, imagePath)
	if err != nil {
		slog.ErrorContext(ctx, "cover rasterizer failed", logging.ErrKey, err, "output", string(output))
		return "", fmt.Errorf("rasterize cover: %w", err)
	}

	// the rasterizer may exit cleanly without a usable image
	if _, err := imaging.Open(imagePath); err != nil {
		return "", fmt.Errorf("verify cover image: %w", err)
	}

	slog.InfoContext(ctx, "cover generated", "meeting_id", meeting.ID, "path", imagePath)
	return imagePath, nil
}

// prepareBackground copies the community background into outputDir, scaled
// and cropped to the cover geometry.
func (r *Renderer) prepareBackground(community, outputDir string) (string, error) {
	source := filepath.Join(r.config.BackgroundDir, community, backgroundName)
	img, err := imaging.Open(source)
	if err != nil {
		return "", fmt.Errorf("open %s background: %w", community, err)
	}

	target := filepath.Join(outputDir, backgroundName)
	fitted := imaging.Fill(img, Width, Height, imaging.Center, imaging.Lanczos)
	if err := imaging.Save(fitted, target); err != nil {
		return "", fmt.Errorf("save %s background: %w", community, err)
	}
	return target, nil
}
