package util

import (
	"fmt"
	"log"
	"os"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"sched-server/models"
)

// PlotOccupancy generates an HTML file rendering reservation counts per day
// for a merged schedule view. Cancelled reservations are not counted.
func PlotOccupancy(view models.MergedView) {
	perDay := make(map[string]int)
	for _, records := range view.Reservations {
		for _, r := range records {
			if r.Cancelled {
				continue
			}
			perDay[r.Date]++
		}
	}

	days := make([]string, 0, len(perDay))
	for d := range perDay {
		days = append(days, d)
	}
	sort.Strings(days)

	values := make([]opts.BarData, 0, len(days))
	for _, d := range days {
		values = append(values, opts.BarData{Value: perDay[d]})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle: "Schedule Occupancy",
			Width:     "800px",
			Height:    "600px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title: "Reservations per day",
		}),
	)
	bar.SetXAxis(days).AddSeries("Reservations", values)

	// Create an HTML file to render the chart.
	f, err := os.Create("occupancy_chart.html")
	if err != nil {
		log.Fatalf("Failed to create HTML file: %v", err)
	}
	defer f.Close()

	// Render the chart into the HTML file.
	if err := bar.Render(f); err != nil {
		log.Fatalf("Failed to render chart: %v", err)
	}

	fmt.Println("Occupancy chart generated: occupancy_chart.html")
}
