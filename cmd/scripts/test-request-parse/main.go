package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joeecarter/respondr-server/request"
)

func main() {
	filename := flag.String("file", "export.json", "Export file to parse")
	flag.Parse()

	jsonData, err := os.ReadFile(*filename)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", *filename, err)
	}

	export, err := request.Parse(jsonData)
	if err != nil {
		log.Fatalf("Failed to parse request: %v", err)
	}

	fmt.Printf("Total metrics: %d (%d populated), total samples: %d\n",
		len(export.Metrics), len(export.PopulatedMetrics()), export.TotalSamples())

	for _, metric := range export.Metrics {
		known := ""
		if !request.IsKnownMetric(metric.Name) {
			known = " (unknown, defaulted)"
		}
		fmt.Printf("- %s [%s] %s: %d samples%s\n",
			metric.Name, metric.Unit, request.LookupMetricType(metric.Name), len(metric.Samples), known)

		if len(metric.Samples) > 0 {
			if ts := metric.Samples[0].GetTimestamp(); ts != nil {
				fmt.Printf("  first sample at %s\n", ts)
			} else {
				fmt.Println("  first sample has no timestamp")
			}
		}
	}

	fmt.Println("Request parsed successfully!")
}
