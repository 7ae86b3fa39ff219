package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/dbwsim/internal/analysis"
	"github.com/san-kum/dbwsim/internal/export"
	"github.com/san-kum/dbwsim/internal/storage"
	"github.com/san-kum/dbwsim/internal/viz"
)

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tTIME\tDURATION\tDT\tINTEG\tTRACKING")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%s\t%.4f\n",
			run.ID,
			run.Scenario,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Integrator,
			run.Metrics["tracking_rms"],
		)
	}

	return w.Flush()
}

var plotColumns = []struct{ name, caption string }{
	{"speed", "speed (m/s)"},
	{"throttle", "throttle (0..1)"},
	{"brake", "brake torque (N*m)"},
	{"steering", "steering wheel angle (rad)"},
	{"yaw_rate", "yaw rate (rad/s)"},
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}

	trace, err := st.LoadStates(runID)
	if err != nil {
		return err
	}
	if len(trace.Rows) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s\n", meta.Scenario)
	fmt.Printf("samples: %d\n\n", len(trace.Rows))

	for _, col := range plotColumns {
		data := trace.Column(col.name)
		if data == nil {
			continue
		}
		graph := asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.Caption(col.caption),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	if svgPath != "" {
		f, err := os.Create(svgPath)
		if err != nil {
			return err
		}
		defer f.Close()
		if err := export.PathSVG(f, trace.Column("x"), trace.Column("y"), 600, 600, "#33ff99"); err != nil {
			return err
		}
		fmt.Printf("path written to %s\n", svgPath)
	}
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	trace, err := st.LoadStates(runID)
	if err != nil {
		return err
	}
	if len(trace.Rows) < 4 {
		return fmt.Errorf("run %s is too short to analyze", runID)
	}

	fmt.Printf("run: %s (%s, dt=%.3fs)\n\n", meta.ID, meta.Scenario, meta.Dt)
	for _, name := range []string{"steering", "throttle", "brake", "speed"} {
		series := trace.Column(name)
		if series == nil {
			continue
		}
		freq, power := analysis.DominantFrequency(series, meta.Dt)
		fmt.Printf("%-9s dominant %.3f Hz (power %.3f)\n", name, freq, power)
	}

	steer := trace.Column("steering")
	ps := analysis.PowerSpectrum(steer)
	if len(ps) > 1 {
		// up to 5 Hz is where steering oscillation shows
		n := len(ps)
		for i := 1; i < len(ps); i++ {
			if analysis.BinFrequency(i, len(steer), meta.Dt) > 5 {
				n = i
				break
			}
		}
		if n > 1 {
			fmt.Println()
			fmt.Println(asciigraph.Plot(ps[1:n],
				asciigraph.Height(10),
				asciigraph.Width(80),
				asciigraph.Caption("steering power spectrum, 0..5 Hz"),
			))
		}
	}

	if speed := trace.Column("speed"); speed != nil {
		crossings := analysis.Crossings(speed, speed[len(speed)-1])
		fmt.Printf("\nspeed crossings of final value: %d\n", len(crossings))
	}
	return nil
}

func phasePlot(cmd *cobra.Command, args []string) error {
	runID, xName, yName := args[0], args[1], args[2]

	st := storage.New(dataDir)
	trace, err := st.LoadStates(runID)
	if err != nil {
		return err
	}

	xs, ys := trace.Column(xName), trace.Column(yName)
	if xs == nil || ys == nil {
		return fmt.Errorf("unknown column (available: %v)", storage.Columns()[1:])
	}

	p := analysis.NewPortrait(xName, xs, yName, ys)
	fmt.Printf("%s vs %s\n\n", yName, xName)
	fmt.Print(p.ASCII(80, 24))

	if svgPath == "" {
		return nil
	}
	f, err := os.Create(svgPath)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := export.CanvasSVG(f, portraitCanvas(p, 80, 24), 3, "#33ff99"); err != nil {
		return err
	}
	fmt.Printf("\nportrait written to %s\n", svgPath)
	return nil
}

// portraitCanvas scales each axis independently onto a braille canvas.
func portraitCanvas(p *analysis.Portrait, w, h int) *viz.Canvas {
	c := viz.NewCanvas(w, h)
	if len(p.Points) == 0 {
		return c
	}
	minX, maxX := p.Points[0].X, p.Points[0].X
	minY, maxY := p.Points[0].Y, p.Points[0].Y
	for _, pt := range p.Points {
		minX, maxX = min(minX, pt.X), max(maxX, pt.X)
		minY, maxY = min(minY, pt.Y), max(maxY, pt.Y)
	}
	spanX, spanY := max(maxX-minX, 1e-9), max(maxY-minY, 1e-9)
	pw, ph := float64(w*2-1), float64(h*4-1)
	for _, pt := range p.Points {
		x := int((pt.X - minX) / spanX * pw)
		y := int(ph - (pt.Y-minY)/spanY*ph)
		c.Set(x, y)
	}
	return c
}
