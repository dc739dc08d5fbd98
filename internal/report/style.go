package report

import (
	"fmt"
	"image/color"
	"math"

	"github.com/lucasb-eyer/go-colorful"
	xfont "golang.org/x/image/font"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"

	"github.com/lox/unoanalysis/internal/config"
)

// Style is the chart styling handed to a Reporter. Each Reporter owns its
// Style, so runs with different styling can coexist.
type Style struct {
	Width, Height vg.Length
	DPI           int
	TitleSize     vg.Length
	LabelSize     vg.Length
	Palette       map[string]color.Color
	JitterSeed    int64
}

// Diverging endpoints of the two efficiency panels.
var (
	coolwarm = [2]string{"#3B4CC0", "#B40426"}
	crest    = [2]string{"#A5CD90", "#2C3172"}
)

// StyleFromConfig converts the configured sizes (inches, points) and hex
// palette into a Style.
func StyleFromConfig(cfg config.StyleConfig, jitterSeed int64) (Style, error) {
	s := Style{
		Width:      vg.Length(cfg.Width) * vg.Inch,
		Height:     vg.Length(cfg.Height) * vg.Inch,
		DPI:        cfg.DPI,
		TitleSize:  vg.Points(cfg.TitleSize),
		LabelSize:  vg.Points(cfg.LabelSize),
		Palette:    make(map[string]color.Color, len(cfg.Palette)),
		JitterSeed: jitterSeed,
	}
	for agent, hex := range cfg.Palette {
		c, err := colorful.Hex(hex)
		if err != nil {
			return Style{}, fmt.Errorf("palette color for %s: %w", agent, err)
		}
		s.Palette[agent] = c
	}
	return s, nil
}

// AgentColor returns the palette color of agent. Agents without an entry get
// an evenly spaced hue based on their position among total agents.
func (s Style) AgentColor(agent string, index, total int) color.Color {
	if c, ok := s.Palette[agent]; ok {
		return c
	}
	if total < 1 {
		total = 1
	}
	hue := math.Mod(20+360*float64(index)/float64(total), 360)
	return colorful.Hcl(hue, 0.55, 0.7).Clamped()
}

// withAlpha returns c with its alpha channel replaced.
func withAlpha(c color.Color, alpha uint8) color.Color {
	cf, ok := colorful.MakeColor(c)
	if !ok {
		return c
	}
	r, g, b := cf.Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: alpha}
}

// gradient blends n colors between the two hex endpoints in Lab space.
func gradient(endpoints [2]string, n int) []color.Color {
	from, _ := colorful.Hex(endpoints[0])
	to, _ := colorful.Hex(endpoints[1])
	out := make([]color.Color, n)
	for i := range out {
		t := 0.5
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		out[i] = from.BlendLab(to, t).Clamped()
	}
	return out
}

// newPlot creates a plot with the style's fonts and the given labels.
func (s Style) newPlot(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.Title.TextStyle.Font.Size = s.TitleSize
	p.Title.TextStyle.Font.Weight = xfont.WeightBold
	p.Title.Padding = s.TitleSize / 2

	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	for _, axis := range []*plot.Axis{&p.X, &p.Y} {
		axis.Label.TextStyle.Font.Size = s.LabelSize
		axis.Tick.Label.Font.Size = s.LabelSize * 0.9
	}
	return p
}
