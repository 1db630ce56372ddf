package visualization

import (
	"embed"
	"fmt"
	"html/template"
	"os"

	"github.com/qfold/qfold/internal/modules/protein"
	"github.com/qfold/qfold/internal/modules/result"
)

//go:embed assets/interactive_3d.html.tmpl
var templates embed.FS

var interactiveTemplate = template.Must(
	template.ParseFS(templates, "assets/interactive_3d.html.tmpl"))

type interactiveData struct {
	Title  string
	X      []float64
	Y      []float64
	Z      []float64
	Labels []string
}

// WriteInteractiveHTML writes a self-contained page rendering the chain
// with plotly, loaded from its CDN.
func (r *Renderer) WriteInteractiveHTML(path string, p *protein.Protein, c *result.Conformation) error {
	data := interactiveData{
		Title:  p.MainChain.String(),
		X:      make([]float64, len(c.Coordinates)),
		Y:      make([]float64, len(c.Coordinates)),
		Z:      make([]float64, len(c.Coordinates)),
		Labels: make([]string, len(c.Coordinates)),
	}
	for i, pos := range c.Coordinates {
		data.X[i] = pos[0]
		data.Y[i] = pos[1]
		data.Z[i] = pos[2]
		data.Labels[i] = fmt.Sprintf("%c%d", p.MainChain.SymbolAt(i), i)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("visualization: creating interactive page: %w", err)
	}
	defer f.Close()

	if err := interactiveTemplate.Execute(f, data); err != nil {
		return fmt.Errorf("visualization: rendering interactive page: %w", err)
	}
	return nil
}
