package showcommands

import (
	"bytes"
	"fmt"
	"image"
	_ "image/png"
	"os"

	"github.com/go-analyze/charts"
	"github.com/mattn/go-sixel"
	"github.com/mdouchement/rcard"
	"github.com/mdouchement/rcard/rcar"
	"github.com/spf13/cobra"
)

func Command() *cobra.Command {
	var cpath string
	var resolution int
	var chart bool

	cmd := &cobra.Command{
		Use:   "show-commands",
		Short: "Show what each command byte does to the motors",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, args []string) error {
			cfg := rcard.Default()
			if cpath != "" {
				var err error
				cfg, err = rcard.Load(cpath)
				if err != nil {
					return err
				}
			}

			table := cfg.Motions()

			fmt.Printf("%-4s %-11s %6s %6s %-9s %-9s %s\n", "BYTE", "MOTION", "LEFT", "RIGHT", "DIRECTION", "INDICATOR", "ACK")
			for _, m := range table {
				fmt.Printf("%-4s %-11s %6d %6d %-9s %08b  %q\n", m.Command, m.Name, m.LeftDuty, m.RightDuty, m.Direction, m.Indicator, m.Ack)
			}

			if !chart {
				return nil
			}

			//
			// Render chart
			//

			left := charts.LineSeries{Name: "left"}
			right := charts.LineSeries{Name: "right"}
			var labels []string
			for _, m := range table {
				labels = append(labels, fmt.Sprintf("%s (%s)", m.Command, m.Name))
				left.Values = append(left.Values, percent(rcar.ChannelLeft, m.LeftDuty))
				right.Values = append(right.Values, percent(rcar.ChannelRight, m.RightDuty))
			}

			opt := charts.NewLineChartOptionWithSeries(charts.LineSeriesList{left, right})
			opt.Theme = charts.GetTheme(charts.ThemeVividDark)
			opt.Padding = charts.NewBox(20, 20, 20, 20)
			opt.Title.Text = "Motor duty per command"
			opt.Title.FontStyle.FontSize = 16
			opt.Title.Offset = charts.OffsetLeft
			opt.Legend = charts.LegendOption{
				Show:     rcard.ToPtr(true),
				Offset:   charts.OffsetCenter,
				Vertical: rcard.ToPtr(true),
				Padding:  charts.NewBox(0, 0, 0, 20),
			}
			opt.XAxis.Show = rcard.ToPtr(true)
			opt.XAxis.Labels = labels
			opt.YAxis = []charts.YAxisOption{
				{
					Show:                   rcard.ToPtr(true),
					Title:                  "%",
					Min:                    rcard.ToPtr(float64(0)),
					Max:                    rcard.ToPtr(float64(100)),
					RangeValuePaddingScale: rcard.ToPtr(float64(0)),
					Unit:                   10,
				},
			}
			p := charts.NewPainter(charts.PainterOptions{
				OutputFormat: charts.ChartOutputPNG,
				Width:        resolution,
				Height:       int(float64(resolution) / (16.0 / 9.0)),
			})

			err := p.LineChart(opt)
			if err != nil {
				return fmt.Errorf("chart: %w", err)
			}

			mPNG, err := p.Bytes()
			if err != nil {
				return fmt.Errorf("chart: %w", err)
			}

			m, _, err := image.Decode(bytes.NewReader(mPNG))
			if err != nil {
				return fmt.Errorf("chart: %w", err)
			}

			return sixel.NewEncoder(os.Stdout).Encode(m)
		},
	}
	cmd.Flags().StringVarP(&cpath, "config", "c", "", "Configfile path (built-in duties when empty)")
	cmd.Flags().IntVarP(&resolution, "resolution", "r", 1000, "The width size in pixel of the graph")
	cmd.Flags().BoolVarP(&chart, "chart", "", true, "Render the duties as a sixel chart")

	return cmd
}

func percent(ch rcar.Channel, duty uint16) float64 {
	return float64(duty) * 100 / float64(ch.Max())
}
