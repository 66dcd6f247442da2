// Package main provides an example of using the meteo client to fetch
// the averaged weather bundle for a site.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/devskill-org/solar-site-analyzer/meteo"
)

func main() {
	client := meteo.NewClient("MeteoExample/1.0 (username@example.com)")

	// Thar desert, Rajasthan
	lat, lng := 26.92, 70.90

	if err := meteo.ValidateCoordinates(lat, lng); err != nil {
		log.Fatalf("Invalid location: %v", err)
	}

	fmt.Printf("Fetching 7-day weather averages for (%.4f, %.4f)\n\n", lat, lng)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	bundle, err := client.GetAverages(ctx, lat, lng)
	if err != nil {
		// Handle different error types
		switch e := err.(type) {
		case *meteo.APIError:
			log.Printf("API error %d, falling back to estimates", e.StatusCode)
		case *meteo.NetworkError:
			log.Printf("Network failure (%v), falling back to estimates", e.Err)
		default:
			log.Printf("Fetch failed (%v), falling back to estimates", err)
		}
		bundle = meteo.Estimate(lat)
	}

	fmt.Printf("Wind speed:  %6.2f m/s\n", bundle.WindSpeedMS)
	fmt.Printf("Temperature: %6.2f °C\n", bundle.TemperatureC)
	fmt.Printf("Humidity:    %6.2f %%\n", bundle.HumidityPct)
	fmt.Printf("Cloud cover: %6.2f %%\n", bundle.CloudCoverPct)
}
