package export

import (
	"fmt"
	"math"
	"strings"

	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/viz"
)

var palette = []string{"#ff00ff", "#00ffff", "#ffff00", "#00ff88", "#ff8800", "#8888ff"}

func svgHeader(sb *strings.Builder, width, height int) {
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, width, height, width, height))
}

// dotRadius grows with the log of mass relative to the lightest particle.
func dotRadius(m, lightest float64) float64 {
	return 2 + math.Log10(m/lightest)
}

func lightest(ps []dynamo.Particle) float64 {
	lo := math.Inf(1)
	for _, p := range ps {
		lo = math.Min(lo, p.Mass)
	}
	return lo
}

// ParticlesToSVG draws one dot per particle, fitted to the image. Particles
// with non-finite positions are skipped.
func ParticlesToSVG(ps []dynamo.Particle, width, height int) string {
	if len(ps) == 0 {
		return ""
	}

	view := viz.FitViewport(ps, 0.1)
	lo := lightest(ps)

	var sb strings.Builder
	svgHeader(&sb, width, height)
	sb.WriteString("<g>\n")
	for i, p := range ps {
		x, y := view.Project(p.Pos, width, height)
		if x < 0 || y < 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf(`<circle cx="%d" cy="%d" r="%.1f" fill="%s"/>
`, x, y, dotRadius(p.Mass, lo), palette[i%len(palette)]))
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// TrajectoriesToSVG draws one path per particle through successive frames and
// marks the last position. Every frame must hold the same particles in the
// same order.
func TrajectoriesToSVG(frames [][]dynamo.Particle, width, height int) string {
	if len(frames) == 0 || len(frames[0]) == 0 {
		return ""
	}

	all := make([]dynamo.Particle, 0, len(frames)*len(frames[0]))
	for _, f := range frames {
		all = append(all, f...)
	}
	view := viz.FitViewport(all, 0.1)
	last := frames[len(frames)-1]
	lo := lightest(last)

	var sb strings.Builder
	svgHeader(&sb, width, height)

	for i := range frames[0] {
		color := palette[i%len(palette)]
		sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1" stroke-opacity="0.6" d="`, color))
		move := true
		for _, f := range frames {
			if i >= len(f) {
				break
			}
			x, y := view.Project(f[i].Pos, width, height)
			if x < 0 || y < 0 {
				move = true
				continue
			}
			if move {
				sb.WriteString(fmt.Sprintf("M%d,%d", x, y))
				move = false
			} else {
				sb.WriteString(fmt.Sprintf(" L%d,%d", x, y))
			}
		}
		sb.WriteString("\"/>\n")

		if i < len(last) {
			x, y := view.Project(last[i].Pos, width, height)
			if x >= 0 && y >= 0 {
				sb.WriteString(fmt.Sprintf(`<circle cx="%d" cy="%d" r="%.1f" fill="%s"/>
`, x, y, dotRadius(last[i].Mass, lo), color))
			}
		}
	}

	sb.WriteString("</svg>")
	return sb.String()
}
