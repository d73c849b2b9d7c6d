package main

import (
	"errors"
	"fmt"
	"fob_apiserver/internal/bird"
	"fob_apiserver/internal/config"
	fobsensor "fob_apiserver/internal/sensor/fob"
	"fob_apiserver/internal/server"
	"fob_apiserver/internal/utils"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"time"
)

// configure opens the bird, switches it to format and reads one frame back.
func configure(opt config.TrackerOpt, format bird.DataFormat) error {
	tracker, err := fobsensor.NewSensor(opt)
	if err != nil {
		return err
	}
	defer func() { _ = tracker.Close() }()

	log.Infof("host -> bird: data format %v (was %v)", format, tracker.DataFormat())
	if err := tracker.SetDataFormat(format); err != nil {
		return err
	}

	if err := tracker.StartStreaming(); err != nil {
		return err
	}
	defer func() { _ = tracker.StopStreaming() }()

	deadline := time.Now().Add(2 * time.Second)
	for !tracker.FrameReady() {
		if time.Now().After(deadline) {
			return errors.New("no frame from the bird after changing the data format")
		}
		time.Sleep(10 * time.Millisecond)
	}
	f, err := tracker.Read()
	if err != nil {
		return err
	}
	fmt.Printf("bird -> host: %v frame %+v (scale %.1f)\n", f.Format, f.Frame, f.Scale)
	return nil
}

var rootCmd = &cobra.Command{
	Use:   "setup_fob",
	Short: "setup_fob stores a data format in the bird",
	Long:  "setup_fob stores a data format in the bird and prints one frame in that format",
	Example: `  setup_fob --driver birdsdk --com 3 --format position_quaternion
  setup_fob --format 4 -y`,
	RunE: func(cmd *cobra.Command, args []string) error {
		name, _ := cmd.Flags().GetString("format")
		format, ok := bird.ParseDataFormat(name)
		if !ok {
			return fmt.Errorf("--format must be one of the bird data formats, got %q", name)
		}
		opt := server.NewMainApp(cmd, args).PrepareRun().GetOpt()
		if yes, _ := cmd.Flags().GetBool("yes"); !yes {
			if !utils.AskForConfirmationDefaultYes(fmt.Sprintf("switch the bird on COM%d to %v?", opt.Tracker.Port, format)) {
				log.Infoln("abort")
				return nil
			}
		}
		return configure(opt.Tracker, format)
	},
}

func main() {
	rootCmd.Flags().String("config", "", "default configuration path")
	rootCmd.Flags().String("driver", config.DefaultDriver, "tracker driver, sim or birdsdk")
	rootCmd.Flags().Int("com", bird.DefaultPort, "COM port number the bird is attached to")
	rootCmd.Flags().Int("baud", bird.DefaultBaudRate, "baud rate of the bird")
	rootCmd.Flags().String("format", bird.DataFormatPositionAndAngles.String(), "data format name or code")
	rootCmd.Flags().BoolP("yes", "y", false, "skip confirmation")
	rootCmd.Flags().Bool("debug", false, "toggle debug logging")

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
