package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/citydispatch/ridesim/app"
	"github.com/citydispatch/ridesim/core/geo"
	"github.com/citydispatch/ridesim/core/model"
)

var demoType string

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a scripted request/confirm/release scenario",
	RunE:  runDemo,
}

func init() {
	demoCmd.Flags().StringVar(&demoType, "type", "Economy", "vehicle type to request")
	rootCmd.AddCommand(demoCmd)
}

func runDemo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// Compress trips so the demo release fires quickly.
	cfg.Sim.MinTripMS = 2000
	cfg.Sim.PerMinuteMS = 50
	cfg.API.Enabled = false
	cfg.MQTT.Enabled = false

	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()
	eng := svc.Engine

	pickup := geo.Point{X: cfg.Sim.MapWidth / 4, Y: cfg.Sim.MapHeight / 2}
	dropoff := geo.Point{X: cfg.Sim.MapWidth * 3 / 4, Y: cfg.Sim.MapHeight / 2}
	est := eng.RequestRide(model.RideRequest{VehicleType: demoType, Pickup: pickup, Dropoff: dropoff})
	if est.Failed() {
		return fmt.Errorf("no %s vehicle available", demoType)
	}
	fmt.Printf("matched %s: eta %dmin, trip %dmin (%.2fkm), price %.2f\n",
		est.VehicleID, est.ETAMinutes, est.TripMinutes, est.TripKm, est.Price)

	bk, err := eng.ConfirmBooking()
	if err != nil {
		return err
	}
	fmt.Printf("booking %s confirmed, release at %s\n", bk.ID, bk.ReleaseAt.Format(time.RFC3339))

	deadline := time.Now().Add(time.Until(bk.ReleaseAt) + 5*time.Second)
	for time.Now().Before(deadline) {
		eng.Tick()
		if v, ok := vehicleByID(eng.Snapshot(), bk.VehicleID); ok && v.Available {
			fmt.Printf("%s released back to the pool at (%.0f, %.0f)\n", v.ID, v.Pos.X, v.Pos.Y)
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("vehicle %s was not released in time", bk.VehicleID)
}

func vehicleByID(snap model.FleetSnapshot, id string) (model.Vehicle, bool) {
	for _, v := range snap.Vehicles {
		if v.ID == id {
			return v, true
		}
	}
	return model.Vehicle{}, false
}
