package report

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"sort"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/lox/unoanalysis/internal/analysis"
	"github.com/lox/unoanalysis/internal/dataset"
	"github.com/lox/unoanalysis/internal/randutil"
	"github.com/lox/unoanalysis/internal/statistics"
)

// Chart file names, in the order they are rendered.
const (
	ChartWinRates       = "tasas_victoria.png"
	ChartExecutionTimes = "tiempos_ejecucion_clasico.png"
	ChartMatchDuration  = "duracion_partidas.png"
	ChartTimeScatter    = "distribucion_tiempos.png"
	ChartTurnsBox       = "distribucion_turnos.png"
	ChartEfficiency     = "eficiencia_agentes.png"
	ChartCorrelation    = "matriz_correlacion.png"
)

// stripJitterHalfWidth bounds the horizontal spread of strip plot points.
const stripJitterHalfWidth = 0.15

// figure is a sized drawing, made of one plot or a grid of panels.
type figure struct {
	width, height vg.Length
	draw          func(dc draw.Canvas)
}

func singlePlot(p *plot.Plot, width, height vg.Length) figure {
	return figure{width: width, height: height, draw: p.Draw}
}

// writePNG rasterizes fig at the style's DPI.
func (s Style) writePNG(fig figure, w io.Writer) error {
	c := vgimg.NewWith(vgimg.UseWH(fig.width, fig.height), vgimg.UseDPI(s.DPI))
	fig.draw(draw.New(c))
	_, err := vgimg.PngCanvas{Canvas: c}.WriteTo(w)
	return err
}

// chartBuilder builds one figure from the prepared dataset and the results.
type chartBuilder func(s Style, ds *dataset.Dataset, res *analysis.Results) (figure, error)

var charts = []struct {
	file  string
	build chartBuilder
}{
	{ChartWinRates, winRatesChart},
	{ChartExecutionTimes, executionTimesChart},
	{ChartMatchDuration, matchDurationChart},
	{ChartTimeScatter, timeScatterChart},
	{ChartTurnsBox, turnsBoxChart},
	{ChartEfficiency, efficiencyChart},
	{ChartCorrelation, correlationChart},
}

func horizontalGrid() *plotter.Grid {
	g := plotter.NewGrid()
	g.Vertical.Color = nil
	return g
}

// agentTicks labels one nominal X slot per agent.
func agentTicks(p *plot.Plot, agents []string) {
	if len(agents) == 0 {
		return
	}
	p.NominalX(agents...)
	p.X.Min = -0.5
	p.X.Max = float64(len(agents)) - 0.5
}

// barWidth spreads n bars over the plot, leaving gaps between them.
func barWidth(total vg.Length, n int, fill float64) vg.Length {
	if n < 1 {
		n = 1
	}
	return total * 0.8 / vg.Length(n) * vg.Length(fill)
}

// winRatesChart draws the win rate of every agent, best first, labelled
// with its percentage.
func winRatesChart(s Style, _ *dataset.Dataset, res *analysis.Results) (figure, error) {
	p := s.newPlot("Promedio de Tasa de Victorias por Agente", "Agente de IA", "Tasa de Victoria (%)")
	p.Add(horizontalGrid())

	agentIndex := make(map[string]int, len(res.Agents))
	for i, a := range res.Agents {
		agentIndex[a] = i
	}

	rates := make([]analysis.AgentValue, 0, len(res.WinRates))
	for _, r := range res.WinRates {
		if !math.IsNaN(r.Value) {
			rates = append(rates, r)
		}
	}
	sort.SliceStable(rates, func(i, j int) bool { return rates[i].Value > rates[j].Value })

	names := make([]string, len(rates))
	points := make(plotter.XYs, len(rates))
	labels := make([]string, len(rates))
	top := 0.0
	for i, r := range rates {
		bar, err := plotter.NewBarChart(plotter.Values{r.Value}, barWidth(s.Width, len(rates), 0.8))
		if err != nil {
			return figure{}, fmt.Errorf("bar for %s: %w", r.Agent, err)
		}
		bar.XMin = float64(i)
		bar.Color = s.AgentColor(r.Agent, agentIndex[r.Agent], len(res.Agents))
		bar.LineStyle.Width = 0
		p.Add(bar)

		names[i] = r.Agent
		points[i] = plotter.XY{X: float64(i), Y: r.Value}
		labels[i] = fmt.Sprintf("%.1f%%", r.Value)
		top = math.Max(top, r.Value)
	}

	if len(rates) > 0 {
		lbl, err := plotter.NewLabels(plotter.XYLabels{XYs: points, Labels: labels})
		if err != nil {
			return figure{}, err
		}
		for i := range lbl.TextStyle {
			lbl.TextStyle[i].XAlign = text.XCenter
			lbl.TextStyle[i].YAlign = text.YBottom
			lbl.TextStyle[i].Font.Size = s.LabelSize * 0.9
		}
		lbl.Offset = vg.Point{Y: vg.Points(3)}
		p.Add(lbl)
	}

	agentTicks(p, names)
	p.Y.Min = 0
	p.Y.Max = math.Max(top*1.12, 1)
	return singlePlot(p, s.Width, s.Height), nil
}

// executionTimesChart is a strip plot of every match's execution time per
// agent. Points are jittered horizontally with a seeded source so repeated
// runs produce the same image.
func executionTimesChart(s Style, ds *dataset.Dataset, _ *analysis.Results) (figure, error) {
	p := s.newPlot("Distribución de tiempos de ejecución por agente",
		"Agente de Inteligencia Artificial", "Tiempo por jugada (milisegundos)")
	grid := horizontalGrid()
	grid.Horizontal.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	grid.Horizontal.Color = color.Gray{Y: 200}
	p.Add(grid)

	rng := randutil.New(s.JitterSeed)
	agents := ds.Agents()
	for i, agent := range agents {
		var points plotter.XYs
		for _, v := range ds.AgentValues(agent, dataset.FieldTime) {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				continue
			}
			points = append(points, plotter.XY{
				X: float64(i) + randutil.Jitter(rng, stripJitterHalfWidth),
				Y: v,
			})
		}
		if len(points) == 0 {
			continue
		}
		sc, err := plotter.NewScatter(points)
		if err != nil {
			return figure{}, fmt.Errorf("strip for %s: %w", agent, err)
		}
		sc.GlyphStyle = draw.GlyphStyle{
			Color:  withAlpha(s.AgentColor(agent, i, len(agents)), 217),
			Radius: vg.Points(3),
			Shape:  draw.CircleGlyph{},
		}
		p.Add(sc)
	}

	agentTicks(p, agents)
	return singlePlot(p, s.Width*0.75, s.Height*6/7), nil
}

func matchDurationChart(s Style, ds *dataset.Dataset, _ *analysis.Results) (figure, error) {
	p := s.newPlot("Duración de Partidas por Agente", "Agente de IA", "Número de Turnos")
	if err := s.addBoxes(p, ds, dataset.FieldTurns, 0.8); err != nil {
		return figure{}, err
	}
	return singlePlot(p, s.Width, s.Height), nil
}

func turnsBoxChart(s Style, ds *dataset.Dataset, _ *analysis.Results) (figure, error) {
	p := s.newPlot("Distribución de Turnos por Partida", "Agente de IA", "Turnos Totales")
	if err := s.addBoxes(p, ds, dataset.FieldTurns, 0.5); err != nil {
		return figure{}, err
	}
	return singlePlot(p, s.Width, s.Height), nil
}

// addBoxes adds one box per agent. Outliers are not drawn and the Y range
// stops at the whiskers.
func (s Style) addBoxes(p *plot.Plot, ds *dataset.Dataset, f dataset.Field, fill float64) error {
	p.Add(horizontalGrid())

	agents := ds.Agents()
	low, high := math.Inf(1), math.Inf(-1)
	for i, agent := range agents {
		values := finite(ds.AgentValues(agent, f))
		if len(values) == 0 {
			continue
		}
		box, err := plotter.NewBoxPlot(barWidth(s.Width, len(agents), fill), float64(i), values)
		if err != nil {
			return fmt.Errorf("box for %s: %w", agent, err)
		}
		box.FillColor = s.AgentColor(agent, i, len(agents))
		box.Outside = nil
		p.Add(box)

		low = math.Min(low, box.AdjLow)
		high = math.Max(high, box.AdjHigh)
	}

	agentTicks(p, agents)
	if !math.IsInf(low, 0) {
		pad := (high - low) * 0.05
		if pad == 0 {
			pad = 1
		}
		p.Y.Min = low - pad
		p.Y.Max = high + pad
	}
	return nil
}

// finite drops NaN and infinite observations.
func finite(sample statistics.Sample) plotter.Values {
	out := make(plotter.Values, 0, len(sample))
	for _, v := range sample {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

// timeScatterChart draws one panel per agent plotting execution time
// against game id, two panels per row.
func timeScatterChart(s Style, ds *dataset.Dataset, _ *analysis.Results) (figure, error) {
	agents := ds.Agents()
	const cols = 2
	rows := (len(agents) + cols - 1) / cols
	if rows == 0 {
		rows = 1
	}

	panels := make([][]*plot.Plot, rows)
	for r := range panels {
		panels[r] = make([]*plot.Plot, cols)
	}

	for i, agent := range agents {
		p := s.newPlot("Tiempo de juego por partida - "+agent, "Partida", "Tiempo de Juego (ms)")
		p.Title.TextStyle.Font.Size = s.LabelSize
		p.Add(plotter.NewGrid())

		var points plotter.XYs
		for _, m := range ds.Matches() {
			if m.AgentName != agent || !m.HasGameID() || math.IsNaN(m.ExecutionTimeMs) || math.IsInf(m.ExecutionTimeMs, 0) {
				continue
			}
			points = append(points, plotter.XY{X: float64(m.GameID), Y: m.ExecutionTimeMs})
		}
		if len(points) > 0 {
			sc, err := plotter.NewScatter(points)
			if err != nil {
				return figure{}, fmt.Errorf("scatter for %s: %w", agent, err)
			}
			sc.GlyphStyle = draw.GlyphStyle{
				Color:  withAlpha(s.AgentColor(agent, i, len(agents)), 179),
				Radius: vg.Points(2.5),
				Shape:  draw.CircleGlyph{},
			}
			p.Add(sc)
		}
		panels[i/cols][i%cols] = p
	}

	height := s.Height * 8 / 7 * vg.Length(rows) / 2
	if rows < 2 {
		height = s.Height * 4 / 7
	}
	return panelFigure(panels, s.Width, height), nil
}

// efficiencyChart shows the normalized time and turn efficiency side by side.
func efficiencyChart(s Style, _ *dataset.Dataset, res *analysis.Results) (figure, error) {
	left, err := s.efficiencyPanel("Eficiencia por Tiempo", res.Efficiency,
		func(e analysis.Efficiency) float64 { return e.TimeNormalized }, gradient(coolwarm, len(res.Efficiency)))
	if err != nil {
		return figure{}, err
	}
	right, err := s.efficiencyPanel("Eficiencia por Turnos", res.Efficiency,
		func(e analysis.Efficiency) float64 { return e.TurnsNormalized }, gradient(crest, len(res.Efficiency)))
	if err != nil {
		return figure{}, err
	}
	return panelFigure([][]*plot.Plot{{left, right}}, s.Width*1.25, s.Height*6/7), nil
}

func (s Style) efficiencyPanel(title string, effs []analysis.Efficiency, value func(analysis.Efficiency) float64, colors []color.Color) (*plot.Plot, error) {
	p := s.newPlot(title, "Agente", "Eficiencia Normalizada (%)")
	grid := horizontalGrid()
	grid.Horizontal.Color = color.Gray{Y: 210}
	p.Add(grid)

	names := make([]string, len(effs))
	for i, e := range effs {
		names[i] = e.Agent
		v := value(e)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		bar, err := plotter.NewBarChart(plotter.Values{v}, barWidth(s.Width*0.6, len(effs), 0.8))
		if err != nil {
			return nil, fmt.Errorf("%s bar for %s: %w", title, e.Agent, err)
		}
		bar.XMin = float64(i)
		bar.Color = colors[i]
		bar.LineStyle.Width = 0
		p.Add(bar)
	}

	agentTicks(p, names)
	p.Y.Min = 0
	p.Y.Max = 105
	return p, nil
}

// panelFigure lays out a grid of plots with aligned axes. Nil entries leave
// their tile empty.
func panelFigure(panels [][]*plot.Plot, width, height vg.Length) figure {
	tiles := draw.Tiles{
		Rows:      len(panels),
		Cols:      len(panels[0]),
		PadX:      vg.Millimeter * 6,
		PadY:      vg.Millimeter * 6,
		PadTop:    vg.Millimeter * 2,
		PadBottom: vg.Millimeter * 2,
		PadLeft:   vg.Millimeter * 2,
		PadRight:  vg.Millimeter * 2,
	}
	return figure{
		width:  width,
		height: height,
		draw: func(dc draw.Canvas) {
			canvases := plot.Align(panels, tiles, dc)
			for j, row := range panels {
				for i, p := range row {
					if p != nil {
						p.Draw(canvases[j][i])
					}
				}
			}
		},
	}
}

// correlationChart draws the Pearson correlation between the numeric
// columns, game_id excluded, with each cell annotated.
func correlationChart(s Style, ds *dataset.Dataset, _ *analysis.Results) (figure, error) {
	var names []string
	var columns []statistics.Sample
	for _, col := range ds.NumericColumns() {
		if col.Name == dataset.ColGame {
			continue
		}
		names = append(names, col.Name)
		columns = append(columns, col.Values)
	}
	if len(columns) == 0 {
		return figure{}, fmt.Errorf("no numeric columns to correlate")
	}

	grid := correlationGrid{matrix: statistics.CorrelationMatrix(columns)}
	n := len(names)

	cm := moreland.SmoothBlueRed()
	cm.SetMin(-1)
	cm.SetMax(1)

	heat := plotter.NewHeatMap(grid, cm.Palette(255))
	heat.Min, heat.Max = -1, 1
	heat.NaN = color.Gray{Y: 220}

	p := s.newPlot("Correlación entre Variables Numéricas", "", "")
	p.Add(heat)

	var points plotter.XYs
	var labels []string
	for c := 0; c < n; c++ {
		for r := 0; r < n; r++ {
			points = append(points, plotter.XY{X: grid.X(c), Y: grid.Y(r)})
			labels = append(labels, formatNumber(grid.Z(c, r), 2))
		}
	}
	lbl, err := plotter.NewLabels(plotter.XYLabels{XYs: points, Labels: labels})
	if err != nil {
		return figure{}, err
	}
	for i := range lbl.TextStyle {
		lbl.TextStyle[i].XAlign = text.XCenter
		lbl.TextStyle[i].YAlign = text.YCenter
		lbl.TextStyle[i].Font.Size = s.LabelSize * 0.9
	}
	p.Add(lbl)

	xTicks := make([]plot.Tick, n)
	yTicks := make([]plot.Tick, n)
	for i, name := range names {
		xTicks[i] = plot.Tick{Value: float64(i), Label: name}
		yTicks[i] = plot.Tick{Value: float64(n - 1 - i), Label: name}
	}
	p.X.Tick.Marker = plot.ConstantTicks(xTicks)
	p.Y.Tick.Marker = plot.ConstantTicks(yTicks)

	bar := plot.New()
	bar.Add(&plotter.ColorBar{ColorMap: cm, Vertical: true})
	bar.HideX()
	bar.Y.Label.Text = "Coeficiente de Correlación"
	bar.Y.Label.TextStyle.Font.Size = s.LabelSize
	bar.Y.Tick.Label.Font.Size = s.LabelSize * 0.9

	width, height := s.Width*2/3, s.Height*6/7
	return figure{
		width:  width,
		height: height,
		draw: func(dc draw.Canvas) {
			p.Draw(draw.Crop(dc, 0, -width*0.2, 0, 0))
			bar.Draw(draw.Crop(dc, width*0.84, 0, height*0.1, -height*0.1))
		},
	}, nil
}

// correlationGrid exposes a square correlation matrix as a heat map grid,
// first column on the left and first row at the top.
type correlationGrid struct {
	matrix [][]float64
}

func (g correlationGrid) Dims() (c, r int) { return len(g.matrix), len(g.matrix) }

func (g correlationGrid) Z(c, r int) float64 {
	n := len(g.matrix)
	return g.matrix[n-1-r][c]
}

func (g correlationGrid) X(c int) float64 { return float64(c) }
func (g correlationGrid) Y(r int) float64 { return float64(r) }
