package dashboard

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"

	"github.com/torosent/docloader/internal/metrics"
	"github.com/torosent/docloader/internal/output"
)

// RunConfig holds the load parameters shown in the summary panel.
type RunConfig struct {
	RunID      string        // ULID of the run
	Backend    string        // couchbase, redis or memory
	Workload   string        // kv or query
	Operation  string        // KV operation
	Workers    int           // parallel dispatchers
	BatchSize  int           // operations per batch
	NumDocs    int           // id range size (0 for query workloads)
	DocSize    int           // requested document size in bytes
	RunForTime bool          // replaying the id range until RunTime
	RunTime    time.Duration // time limit when RunForTime is set
	Rate       int           // ops/s per worker (0 = unlimited)
	Targets    []string      // resolved target names
	ConfigFile string        // Path to config file if used
}

// Dashboard renders a live terminal UI for a load run. It also implements
// output.Sink so the periodic reporter drives its outcome table.
type Dashboard struct {
	collector    *metrics.Collector
	ctx          context.Context
	cancel       context.CancelFunc
	shutdownFunc func()
	wg           sync.WaitGroup
	mu           sync.Mutex

	// Widgets
	grid           *ui.Grid
	latencySparkle *widgets.SparklineGroup
	latencyPara    *widgets.Paragraph
	opsGauge       *widgets.Gauge
	outcomeList    *widgets.List
	targetList     *widgets.List
	summaryPara    *widgets.Paragraph
	metricsPara    *widgets.Paragraph
	latencyHistory []float64
	startTime      time.Time
	runConfig      RunConfig
	lastSnapshot   output.Snapshot
}

var _ output.Sink = (*Dashboard)(nil)

// New creates a new Dashboard.
func New(collector *metrics.Collector, cfg RunConfig, shutdownFunc func()) (*Dashboard, error) {
	if err := ui.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize termui: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	d := &Dashboard{
		collector:      collector,
		ctx:            ctx,
		cancel:         cancel,
		shutdownFunc:   shutdownFunc,
		latencyHistory: make([]float64, 0, 100),
		startTime:      time.Now(),
		runConfig:      cfg,
	}

	d.initWidgets()
	d.setupGrid()

	return d, nil
}

// initWidgets initializes all dashboard widgets.
func (d *Dashboard) initWidgets() {
	sparkline := widgets.NewSparkline()
	sparkline.Title = "Latency (ms)"
	sparkline.LineColor = ui.ColorGreen
	sparkline.Data = []float64{0}

	d.latencySparkle = widgets.NewSparklineGroup(sparkline)
	d.latencySparkle.Title = "Operation Latency"
	d.latencySparkle.BorderStyle.Fg = ui.ColorCyan

	d.latencyPara = widgets.NewParagraph()
	d.latencyPara.Title = "Latency Stats"
	d.latencyPara.Text = "Min: 0ms\nMean: 0ms\nP50: 0ms\nP90: 0ms\nP99: 0ms"
	d.latencyPara.BorderStyle.Fg = ui.ColorCyan

	d.opsGauge = widgets.NewGauge()
	d.opsGauge.Title = "Operations Per Second"
	d.opsGauge.Percent = 0
	d.opsGauge.BarColor = ui.ColorBlue
	d.opsGauge.BorderStyle.Fg = ui.ColorCyan
	d.opsGauge.LabelStyle = ui.NewStyle(ui.ColorWhite)

	d.outcomeList = widgets.NewList()
	d.outcomeList.Title = "Outcomes"
	d.outcomeList.Rows = []string{"Awaiting first report"}
	d.outcomeList.TextStyle = ui.NewStyle(ui.ColorYellow)
	d.outcomeList.BorderStyle.Fg = ui.ColorCyan

	d.targetList = widgets.NewList()
	d.targetList.Title = "Targets"
	d.targetList.Rows = formatTargetRows(d.runConfig.Targets)
	d.targetList.TextStyle = ui.NewStyle(ui.ColorCyan)
	d.targetList.BorderStyle.Fg = ui.ColorCyan

	d.summaryPara = widgets.NewParagraph()
	d.summaryPara.Title = "Run Summary"
	d.summaryPara.Text = "Initializing..."
	d.summaryPara.BorderStyle.Fg = ui.ColorCyan

	d.metricsPara = widgets.NewParagraph()
	d.metricsPara.Title = "Metrics"
	d.metricsPara.Text = "Waiting for data..."
	d.metricsPara.BorderStyle.Fg = ui.ColorCyan
}

// setupGrid configures the layout grid.
func (d *Dashboard) setupGrid() {
	termWidth, termHeight := ui.TerminalDimensions()

	d.grid = ui.NewGrid()
	d.grid.SetRect(0, 0, termWidth, termHeight)

	d.grid.Set(
		ui.NewRow(0.16,
			ui.NewCol(1.0, d.summaryPara),
		),
		ui.NewRow(0.22,
			ui.NewCol(0.5, d.opsGauge),
			ui.NewCol(0.5, d.metricsPara),
		),
		ui.NewRow(0.28,
			ui.NewCol(0.65, d.latencySparkle),
			ui.NewCol(0.35, d.latencyPara),
		),
		ui.NewRow(0.34,
			ui.NewCol(0.5, d.targetList),
			ui.NewCol(0.5, d.outcomeList),
		),
	)
}

// Start begins the dashboard update loop.
func (d *Dashboard) Start() {
	d.wg.Add(1)
	go d.run()
}

// Stop stops the dashboard and cleans up.
func (d *Dashboard) Stop() {
	d.cancel()
	d.wg.Wait()
	ui.Close()
	// Give terminal time to restore
	time.Sleep(100 * time.Millisecond)
}

// Emit records a periodic outcome snapshot.
func (d *Dashboard) Emit(s output.Snapshot) {
	d.mu.Lock()
	d.lastSnapshot = s
	d.outcomeList.Rows = formatOutcomeRows(s.Outcomes)
	d.mu.Unlock()
}

// run is the main dashboard update loop.
func (d *Dashboard) run() {
	defer d.wg.Done()

	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	uiEvents := ui.PollEvents()

	d.render()

	for {
		select {
		case <-d.ctx.Done():
			// Drain any remaining events
			for len(uiEvents) > 0 {
				<-uiEvents
			}
			return
		case e := <-uiEvents:
			select {
			case <-d.ctx.Done():
				return
			default:
			}

			switch e.ID {
			case "q", "<C-c>":
				if d.shutdownFunc != nil {
					d.shutdownFunc()
				}
				// Do not return here; wait for Stop() to cancel context
			case "<Resize>":
				payload := e.Payload.(ui.Resize)
				d.grid.SetRect(0, 0, payload.Width, payload.Height)
				ui.Clear()
				d.render()
			}
		case <-ticker.C:
			d.update()
			d.render()
		}
	}
}

// update refreshes all widget data from the collector.
func (d *Dashboard) update() {
	d.mu.Lock()
	defer d.mu.Unlock()

	elapsed := time.Since(d.startTime)
	d.applyStats(d.collector.Stats(elapsed), elapsed)
}

func (d *Dashboard) applyStats(stats metrics.Stats, elapsed time.Duration) {
	if stats.MeanLatency > 0 {
		latencyMs := stats.MeanLatencyMs
		d.latencyHistory = append(d.latencyHistory, latencyMs)
		if len(d.latencyHistory) > 100 {
			d.latencyHistory = d.latencyHistory[1:]
		}
		d.latencySparkle.Sparklines[0].Data = d.latencyHistory
		d.latencySparkle.Title = fmt.Sprintf(
			"Operation Latency | Current: %.2fms | Min: %.2fms | Max: %.2fms",
			latencyMs,
			stats.MinLatencyMs,
			stats.MaxLatencyMs,
		)
	}

	currentOps := stats.OpsPerSec
	maxOps := 1000.0
	if currentOps > maxOps {
		maxOps = currentOps
	}
	opsPercent := int((currentOps / maxOps) * 100)
	if opsPercent > 100 {
		opsPercent = 100
	}
	d.opsGauge.Percent = opsPercent
	d.opsGauge.Label = fmt.Sprintf("%.1f ops/s", currentOps)

	successRate := 0.0
	if stats.Total > 0 {
		successRate = (float64(stats.Successes) / float64(stats.Total)) * 100
	}

	d.summaryPara.Text = fmt.Sprintf(
		"Run: %s\n%s\nElapsed: %s | Total: %d | Success Rate: %.1f%%",
		d.runConfig.RunID,
		formatRunParams(d.runConfig),
		elapsed.Round(time.Second),
		stats.Total,
		successRate,
	)

	d.metricsPara.Text = fmt.Sprintf(
		"Total Operations:  %d\nSuccessful:        %d\nFailed:            %d\nCurrent Ops/s:     %.2f\nSuccess Rate:      %.1f%%\nMin Latency:       %.2fms\nMean Latency:      %.2fms\nP50/P90/P99:       %.2f / %.2f / %.2f ms",
		stats.Total,
		stats.Successes,
		stats.Failures,
		currentOps,
		successRate,
		stats.MinLatencyMs,
		stats.MeanLatencyMs,
		stats.P50LatencyMs,
		stats.P90LatencyMs,
		stats.P99LatencyMs,
	)

	d.latencyPara.Text = fmt.Sprintf(
		"Min:  %.2fms\nMean: %.2fms\nP50:  %.2fms\nP90:  %.2fms\nP99:  %.2fms",
		stats.MinLatencyMs,
		stats.MeanLatencyMs,
		stats.P50LatencyMs,
		stats.P90LatencyMs,
		stats.P99LatencyMs,
	)
}

// render draws all widgets to the screen.
func (d *Dashboard) render() {
	d.mu.Lock()
	defer d.mu.Unlock()

	ui.Render(d.grid)
}

// formatOutcomeRows lists at most ten outcomes, largest first, with success in green.
func formatOutcomeRows(table metrics.ResultTable) []string {
	rows := table.Sorted()
	if len(rows) == 0 {
		return []string{"[No operations yet](fg:green)"}
	}
	total := table.Total()
	maxRows := len(rows)
	if maxRows > 10 {
		maxRows = 10
	}
	formatted := make([]string, 0, maxRows)
	for i := 0; i < maxRows; i++ {
		row := rows[i]
		share := float64(row.Count) / float64(total) * 100
		color := "red"
		if row.Label == metrics.OutcomeSuccess {
			color = "green"
		}
		formatted = append(formatted, fmt.Sprintf("[%s](fg:%s) %d (%.1f%%)", row.Label, color, row.Count, share))
	}
	return formatted
}

func formatTargetRows(targets []string) []string {
	if len(targets) == 0 {
		return []string{"[No targets](fg:yellow)"}
	}
	rows := make([]string, 0, len(targets))
	for i, name := range targets {
		rows = append(rows, fmt.Sprintf("%2d  %s", i, name))
	}
	return rows
}

// formatRunParams formats the run configuration parameters for display.
func formatRunParams(cfg RunConfig) string {
	var parts []string

	if cfg.Backend != "" {
		parts = append(parts, fmt.Sprintf("Backend: %s", cfg.Backend))
	}

	if cfg.Workload == "query" {
		parts = append(parts, "Workload: query")
	} else if cfg.Operation != "" {
		parts = append(parts, fmt.Sprintf("Operation: %s", cfg.Operation))
	}

	if cfg.Workers > 0 {
		parts = append(parts, fmt.Sprintf("Workers: %d", cfg.Workers))
	}

	if cfg.BatchSize > 0 && cfg.Workload != "query" {
		parts = append(parts, fmt.Sprintf("Batch: %d", cfg.BatchSize))
	}

	if cfg.NumDocs > 0 {
		parts = append(parts, fmt.Sprintf("Docs: %d", cfg.NumDocs))
	}

	if cfg.DocSize > 0 {
		parts = append(parts, fmt.Sprintf("Doc size: %dB", cfg.DocSize))
	}

	if cfg.Rate > 0 {
		parts = append(parts, fmt.Sprintf("Rate: %d/s", cfg.Rate))
	} else {
		parts = append(parts, "Rate: unlimited")
	}

	if cfg.RunForTime && cfg.RunTime > 0 {
		parts = append(parts, fmt.Sprintf("Run time: %s", cfg.RunTime))
	}

	// Config file (only show if used)
	if cfg.ConfigFile != "" {
		parts = append(parts, fmt.Sprintf("Config: %s", cfg.ConfigFile))
	}

	return strings.Join(parts, " | ")
}
