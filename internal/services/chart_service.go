package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"weightmate/internal/domain"
	apperrors "weightmate/internal/errors"
)

const (
	chartWidth  = 800
	chartHeight = 400

	marginLeft   = 70.0
	marginRight  = 30.0
	marginTop    = 50.0
	marginBottom = 55.0
)

// ChartService renders weight trend images into a directory served over
// HTTP. The fallback face (goregular) has no CJK glyphs, so deployments with
// Japanese usernames should point GRAPH_FONT_PATH at a font that does.
type ChartService struct {
	dir       string
	labelFace font.Face
	titleFace font.Face
}

var _ domain.ChartRenderer = (*ChartService)(nil)

func NewChartService(dir, fontPath string) (*ChartService, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create graph dir: %w", err)
	}

	ttf := goregular.TTF
	if fontPath != "" {
		b, err := os.ReadFile(fontPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read graph font: %w", err)
		}
		ttf = b
	}
	fnt, err := truetype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("failed to parse graph font: %w", err)
	}

	return &ChartService{
		dir:       dir,
		labelFace: truetype.NewFace(fnt, &truetype.Options{Size: 13}),
		titleFace: truetype.NewFace(fnt, &truetype.Options{Size: 17}),
	}, nil
}

// RenderTrend draws a line chart of the observations and writes it as
// <username>_weight_1month.png, returning the file name.
func (s *ChartService) RenderTrend(ctx context.Context, username string, observations []domain.Observation) (string, error) {
	if len(observations) == 0 {
		return "", apperrors.ErrNoObservations
	}

	minW, maxW := observations[0].Weight, observations[0].Weight
	for _, obs := range observations {
		if obs.Weight < minW {
			minW = obs.Weight
		}
		if obs.Weight > maxW {
			maxW = obs.Weight
		}
	}
	pad := (maxW - minW) * 0.15
	if pad < 0.5 {
		pad = 0.5
	}
	minW -= pad
	maxW += pad

	plotW := float64(chartWidth) - marginLeft - marginRight
	plotH := float64(chartHeight) - marginTop - marginBottom

	first := observations[0].Date
	last := observations[len(observations)-1].Date
	span := last.Sub(first).Seconds()

	xFor := func(obs domain.Observation) float64 {
		if span == 0 {
			return marginLeft + plotW/2
		}
		return marginLeft + plotW*obs.Date.Sub(first).Seconds()/span
	}
	yFor := func(w float64) float64 {
		return marginTop + plotH*(maxW-w)/(maxW-minW)
	}

	dc := gg.NewContext(chartWidth, chartHeight)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	// Horizontal grid with weight labels.
	dc.SetFontFace(s.labelFace)
	const gridLines = 5
	for i := 0; i <= gridLines; i++ {
		w := minW + (maxW-minW)*float64(i)/gridLines
		y := yFor(w)
		dc.SetRGB(0.85, 0.85, 0.85)
		dc.SetLineWidth(1)
		dc.DrawLine(marginLeft, y, float64(chartWidth)-marginRight, y)
		dc.Stroke()
		dc.SetRGB(0.3, 0.3, 0.3)
		dc.DrawStringAnchored(fmt.Sprintf("%.1f", w), marginLeft-8, y, 1, 0.35)
	}

	// Date labels, thinned to keep them readable.
	step := 1
	if len(observations) > 8 {
		step = (len(observations) + 7) / 8
	}
	dc.SetRGB(0.3, 0.3, 0.3)
	for i := 0; i < len(observations); i += step {
		obs := observations[i]
		dc.DrawStringAnchored(obs.Date.Format("01-02"), xFor(obs), float64(chartHeight)-marginBottom+18, 0.5, 0.5)
	}

	// Axes.
	dc.SetRGB(0.2, 0.2, 0.2)
	dc.SetLineWidth(1.5)
	dc.DrawLine(marginLeft, marginTop, marginLeft, float64(chartHeight)-marginBottom)
	dc.DrawLine(marginLeft, float64(chartHeight)-marginBottom, float64(chartWidth)-marginRight, float64(chartHeight)-marginBottom)
	dc.Stroke()

	// Trend line and markers.
	dc.SetRGB(0.15, 0.35, 0.8)
	dc.SetLineWidth(2)
	for i := 1; i < len(observations); i++ {
		dc.DrawLine(xFor(observations[i-1]), yFor(observations[i-1].Weight), xFor(observations[i]), yFor(observations[i].Weight))
	}
	dc.Stroke()
	for _, obs := range observations {
		dc.DrawCircle(xFor(obs), yFor(obs.Weight), 3.5)
		dc.Fill()
	}

	dc.SetFontFace(s.titleFace)
	dc.SetRGB(0.1, 0.1, 0.1)
	title := fmt.Sprintf("%s さんの直近1か月の体重推移", username)
	dc.DrawStringAnchored(title, float64(chartWidth)/2, marginTop/2, 0.5, 0.5)

	filename := fmt.Sprintf("%s_weight_1month.png", username)
	if err := dc.SavePNG(filepath.Join(s.dir, filename)); err != nil {
		return "", fmt.Errorf("failed to save chart: %w", err)
	}
	return filename, nil
}
