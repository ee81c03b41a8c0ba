package output

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/vsinha/perishplan/pkg/application/dto"
	"github.com/vsinha/perishplan/pkg/domain/entities"
)

// GanttChart lays out a plan as one row per node over the planning days
type GanttChart struct {
	Width        int
	Height       int
	MarginLeft   int
	MarginTop    int
	MarginRight  int
	MarginBottom int
	RowHeight    int
	StartTime    time.Time
	Days         int
}

// GanttBar represents a single bar in the Gantt chart
type GanttBar struct {
	Node     entities.NodeID
	Kind     string
	Label    string
	Quantity float64
	Start    time.Time
	End      time.Time
	Color    string
}

// NewGanttChart creates a chart sized for the plan's nodes and horizon
func NewGanttChart(plan *dto.PlanResult) *GanttChart {
	gc := &GanttChart{
		Width:        1200,
		MarginLeft:   160,
		MarginTop:    60,
		MarginRight:  60,
		MarginBottom: 60,
		RowHeight:    30,
	}
	if plan == nil {
		gc.Height = 200
		return gc
	}
	gc.StartTime = plan.StartDate
	gc.Days = entities.DaysBetween(plan.StartDate, plan.EndDate) + 1
	gc.Height = len(gc.nodes(plan))*gc.RowHeight + gc.MarginTop + gc.MarginBottom
	return gc
}

// GenerateSVG creates an SVG representation of the plan
func (gc *GanttChart) GenerateSVG(plan *dto.PlanResult) string {
	if plan == nil || gc.Days <= 0 {
		return gc.generateEmptyChart()
	}

	var svg strings.Builder
	fmt.Fprintf(&svg, `<svg width="%d" height="%d" xmlns="http://www.w3.org/2000/svg">`, gc.Width, gc.Height)
	svg.WriteString(`<style>`)
	svg.WriteString(`.node-label { font-family: Arial, sans-serif; font-size: 12px; fill: #333; }`)
	svg.WriteString(`.time-label { font-family: Arial, sans-serif; font-size: 10px; fill: #666; }`)
	svg.WriteString(`.title { font-family: Arial, sans-serif; font-size: 16px; font-weight: bold; fill: #333; }`)
	svg.WriteString(`.grid-line { stroke: #e0e0e0; stroke-width: 1; }`)
	svg.WriteString(`.bar { stroke: #333; stroke-width: 1; opacity: 0.85; }`)
	svg.WriteString(`</style>`)
	fmt.Fprintf(&svg, `<rect width="%d" height="%d" fill="white"/>`, gc.Width, gc.Height)
	fmt.Fprintf(&svg, `<text x="%d" y="30" class="title" text-anchor="middle">Production and Shipment Plan</text>`, gc.Width/2)

	nodes := gc.nodes(plan)
	rows := make(map[entities.NodeID]int, len(nodes))
	for i, n := range nodes {
		rows[n] = i
	}

	gc.drawTimeAxis(&svg, len(nodes))
	for i, n := range nodes {
		y := gc.MarginTop + i*gc.RowHeight
		fmt.Fprintf(&svg, `<text x="%d" y="%d" class="node-label" text-anchor="end">%s</text>`,
			gc.MarginLeft-10, y+gc.RowHeight/2+4, n)
		fmt.Fprintf(&svg, `<line x1="%d" y1="%d" x2="%d" y2="%d" class="grid-line"/>`,
			gc.MarginLeft, y+gc.RowHeight, gc.Width-gc.MarginRight, y+gc.RowHeight)
	}
	for _, bar := range gc.createBars(plan) {
		gc.drawBar(&svg, bar, rows[bar.Node])
	}

	svg.WriteString(`</svg>`)
	return svg.String()
}

func (gc *GanttChart) nodes(plan *dto.PlanResult) []entities.NodeID {
	seen := make(map[entities.NodeID]bool)
	var nodes []entities.NodeID
	add := func(n entities.NodeID) {
		if !seen[n] {
			seen[n] = true
			nodes = append(nodes, n)
		}
	}
	for _, p := range plan.Production {
		add(p.Node)
	}
	for _, s := range plan.Shipments {
		add(s.Origin)
		add(s.Destination)
	}
	for _, d := range plan.Demand {
		add(d.Node)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i] < nodes[j] })
	return nodes
}

// createBars turns production days and shipments into bars on the producing
// or shipping node's row
func (gc *GanttChart) createBars(plan *dto.PlanResult) []GanttBar {
	var bars []GanttBar
	for _, p := range plan.Production {
		bars = append(bars, GanttBar{
			Node:     p.Node,
			Kind:     "production",
			Label:    string(p.Product),
			Quantity: p.Quantity,
			Start:    p.Date,
			End:      entities.AddDays(p.Date, 1),
			Color:    "#4CAF50",
		})
	}
	for _, s := range plan.Shipments {
		color := "#2196F3"
		if s.Mode == entities.ModeFrozen {
			color = "#7E57C2"
		}
		end := s.DeliveryDate
		if !end.After(s.DepartureDate) {
			end = entities.AddDays(s.DepartureDate, 1)
		}
		bars = append(bars, GanttBar{
			Node:     s.Origin,
			Kind:     "shipment",
			Label:    fmt.Sprintf("%s to %s", s.Product, s.Destination),
			Quantity: s.Quantity,
			Start:    s.DepartureDate,
			End:      end,
			Color:    color,
		})
	}
	for _, d := range plan.Demand {
		if d.Shortage <= 0 {
			continue
		}
		bars = append(bars, GanttBar{
			Node:     d.Node,
			Kind:     "shortage",
			Label:    string(d.Product),
			Quantity: d.Shortage,
			Start:    d.Date,
			End:      entities.AddDays(d.Date, 1),
			Color:    "#F44336",
		})
	}
	return bars
}

func (gc *GanttChart) dayWidth() float64 {
	return float64(gc.Width-gc.MarginLeft-gc.MarginRight) / float64(gc.Days)
}

func (gc *GanttChart) x(t time.Time) int {
	return gc.MarginLeft + int(float64(entities.DaysBetween(gc.StartTime, t))*gc.dayWidth())
}

func (gc *GanttChart) drawTimeAxis(svg *strings.Builder, rows int) {
	top := gc.MarginTop
	bottom := gc.MarginTop + rows*gc.RowHeight
	step := 1
	if gc.Days > 28 {
		step = 7
	}
	for d := 0; d <= gc.Days; d += step {
		date := entities.AddDays(gc.StartTime, d)
		x := gc.x(date)
		fmt.Fprintf(svg, `<line x1="%d" y1="%d" x2="%d" y2="%d" class="grid-line"/>`, x, top, x, bottom)
		if d < gc.Days {
			fmt.Fprintf(svg, `<text x="%d" y="%d" class="time-label">%s</text>`, x+2, bottom+15, date.Format("01-02"))
		}
	}
}

func (gc *GanttChart) drawBar(svg *strings.Builder, bar GanttBar, row int) {
	x := gc.x(bar.Start)
	width := gc.x(bar.End) - x
	if width < 2 {
		width = 2
	}
	y := gc.MarginTop + row*gc.RowHeight + 3
	fmt.Fprintf(svg, `<rect x="%d" y="%d" width="%d" height="%d" fill="%s" class="bar">`,
		x, y, width, gc.RowHeight-6, bar.Color)
	fmt.Fprintf(svg, `<title>%s %s: %.1f units, %s to %s</title></rect>`,
		bar.Kind, bar.Label, bar.Quantity,
		bar.Start.Format(entities.DateLayout), bar.End.Format(entities.DateLayout))
}

// generateEmptyChart creates a placeholder when there is no plan
func (gc *GanttChart) generateEmptyChart() string {
	return fmt.Sprintf(`<svg width="%d" height="%d" xmlns="http://www.w3.org/2000/svg">`+
		`<rect width="%d" height="%d" fill="white"/>`+
		`<text x="%d" y="%d" font-family="Arial, sans-serif" font-size="16" fill="#666" text-anchor="middle">No Plan</text>`+
		`</svg>`, gc.Width, gc.Height, gc.Width, gc.Height, gc.Width/2, gc.Height/2)
}

func generateSVGOutput(run *dto.PlanRun, config Config) error {
	svg := NewGanttChart(run.Plan).GenerateSVG(run.Plan)
	if config.OutputDir == "" {
		fmt.Fprintln(config.stdout(), svg)
		return nil
	}
	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	filename := filepath.Join(config.OutputDir, "plan.svg")
	if err := os.WriteFile(filename, []byte(svg), 0644); err != nil {
		return fmt.Errorf("failed to write SVG file: %w", err)
	}
	if config.Verbose {
		fmt.Fprintf(config.stdout(), "💾 Timeline saved to: %s\n", filename)
	}
	return nil
}
