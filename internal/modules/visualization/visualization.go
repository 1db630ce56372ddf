// Package visualization renders a decoded conformation as a 2D
// projection, a rotating 3D animation and an interactive HTML page.
package visualization

import (
	"fmt"
	"image"
	"image/color/palette"
	stddraw "image/draw"
	"image/gif"
	"math"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	vgdraw "gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/qfold/qfold/internal/modules/protein"
	"github.com/qfold/qfold/internal/modules/result"
)

const (
	gifFrames        = 36
	gifFrameDelay    = 10 // hundredths of a second
	frameSizePoints  = 320
	projectionInches = 4
)

// Renderer writes the graphical artifacts of a run.
type Renderer struct {
	log zerolog.Logger
}

// NewRenderer returns a Renderer.
func NewRenderer(log zerolog.Logger) *Renderer {
	return &Renderer{log: log.With().Str("component", "visualization").Logger()}
}

// WriteAll renders every graphical artifact into dir.
func (r *Renderer) WriteAll(dir string, p *protein.Protein, c *result.Conformation) error {
	if err := r.Write2DProjection(filepath.Join(dir, result.FileProjection2D), p, c); err != nil {
		return err
	}
	if err := r.WriteRotatingGIF(filepath.Join(dir, result.FileRotatingGIF), p, c); err != nil {
		return err
	}
	if err := r.WriteInteractiveHTML(filepath.Join(dir, result.FileInteractiveHTML), p, c); err != nil {
		return err
	}
	r.log.Debug().Str("dir", dir).Msg("Visualizations written")
	return nil
}

// Write2DProjection plots the chain projected onto the x-y plane.
func (r *Renderer) Write2DProjection(path string, p *protein.Protein, c *result.Conformation) error {
	plt, err := conformationPlot(p, projectXY(c.Coordinates))
	if err != nil {
		return err
	}
	plt.Title.Text = fmt.Sprintf("%s (2D projection)", p.MainChain.String())
	plt.X.Label.Text = "x"
	plt.Y.Label.Text = "y"

	if err := plt.Save(projectionInches*vg.Inch, projectionInches*vg.Inch, path); err != nil {
		return fmt.Errorf("visualization: saving 2D projection: %w", err)
	}
	return nil
}

// WriteRotatingGIF renders the chain rotating about the vertical axis,
// one plot per frame.
func (r *Renderer) WriteRotatingGIF(path string, p *protein.Protein, c *result.Conformation) error {
	bound := maxAbsCoordinate(c.Coordinates) + 0.5

	anim := &gif.GIF{}
	for frame := 0; frame < gifFrames; frame++ {
		angle := 2 * math.Pi * float64(frame) / gifFrames

		plt, err := conformationPlot(p, projectRotated(c.Coordinates, angle))
		if err != nil {
			return err
		}
		plt.Title.Text = p.MainChain.String()
		plt.X.Min, plt.X.Max = -bound, bound
		plt.Y.Min, plt.Y.Max = -bound, bound
		plt.X.Label.Text = "x"
		plt.Y.Label.Text = "z"

		img, err := rasterize(plt)
		if err != nil {
			return err
		}
		paletted := image.NewPaletted(img.Bounds(), palette.Plan9)
		stddraw.Draw(paletted, img.Bounds(), img, image.Point{}, stddraw.Src)

		anim.Image = append(anim.Image, paletted)
		anim.Delay = append(anim.Delay, gifFrameDelay)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("visualization: creating animation file: %w", err)
	}
	defer f.Close()

	if err := gif.EncodeAll(f, anim); err != nil {
		return fmt.Errorf("visualization: encoding animation: %w", err)
	}
	return nil
}

// conformationPlot draws the projected chain as a connected line with a
// marker per bead.
func conformationPlot(p *protein.Protein, points plotter.XYs) (*plot.Plot, error) {
	plt := plot.New()

	line, markers, err := plotter.NewLinePoints(points)
	if err != nil {
		return nil, fmt.Errorf("visualization: building chain plot: %w", err)
	}
	markers.Shape = vgdraw.CircleGlyph{}
	markers.Radius = vg.Points(3)
	plt.Add(plotter.NewGrid(), line, markers)

	// Label each bead with its residue symbol.
	labels := make([]string, len(points))
	for i := range labels {
		labels[i] = string(p.MainChain.SymbolAt(i))
	}
	beadLabels, err := plotter.NewLabels(plotter.XYLabels{XYs: points, Labels: labels})
	if err != nil {
		return nil, fmt.Errorf("visualization: building bead labels: %w", err)
	}
	plt.Add(beadLabels)

	return plt, nil
}

func rasterize(plt *plot.Plot) (image.Image, error) {
	canvas := vgimg.New(vg.Points(frameSizePoints), vg.Points(frameSizePoints))
	plt.Draw(vgdraw.New(canvas))
	return canvas.Image(), nil
}

func projectXY(coords [][3]float64) plotter.XYs {
	points := make(plotter.XYs, len(coords))
	for i, pos := range coords {
		points[i].X = pos[0]
		points[i].Y = pos[1]
	}
	return points
}

// projectRotated rotates the chain about the z axis and projects onto
// the x-z screen plane.
func projectRotated(coords [][3]float64, angle float64) plotter.XYs {
	cos, sin := math.Cos(angle), math.Sin(angle)
	points := make(plotter.XYs, len(coords))
	for i, pos := range coords {
		points[i].X = cos*pos[0] - sin*pos[1]
		points[i].Y = pos[2]
	}
	return points
}

func maxAbsCoordinate(coords [][3]float64) float64 {
	var m float64
	for _, pos := range coords {
		for _, v := range pos {
			if a := math.Abs(v); a > m {
				m = a
			}
		}
	}
	return m
}
