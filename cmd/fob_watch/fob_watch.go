package main

import (
	"errors"
	"fmt"
	"fob_apiserver/internal/bird"
	"fob_apiserver/internal/config"
	"fob_apiserver/internal/manager"
	managerImpl "fob_apiserver/internal/manager/fob"
	"fob_apiserver/internal/sensor"
	"fob_apiserver/internal/server"
	ui "github.com/gizak/termui/v3"
	"github.com/gizak/termui/v3/widgets"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"strings"
	"sync"
	"time"
)

var tableHeader = []string{"Field", "Value"}

func getTable() *widgets.Table {
	table := widgets.NewTable()
	table.Rows = [][]string{tableHeader}
	table.ColumnWidths = []int{16, 64}
	table.TextStyle = ui.NewStyle(ui.ColorWhite)
	table.TextAlignment = ui.AlignLeft
	table.SetRect(0, 0, 80, 20)
	return table
}

func printArray(arr []float64) string {
	str := make([]string, len(arr))
	for i, num := range arr {
		str[i] = fmt.Sprintf("%.2f", num)
	}
	return strings.Join(str, ", ")
}

func frameRows(f *sensor.FrameWrapped) [][]string {
	rows := [][]string{
		tableHeader,
		{"Tracker", f.ID},
		{"Seq", fmt.Sprintf("%d", f.Seq)},
		{"Device time", fmt.Sprintf("%d", f.DeviceTime)},
		{"Format", f.Format.String()},
	}
	if f.Format.HasPosition() {
		p := f.Position()
		rows = append(rows, []string{"Position (in)", printArray(p[:])})
	}
	if f.Format.HasAngles() {
		a := f.AnglesDegrees()
		rows = append(rows, []string{"Angles (deg)", printArray(a[:])})
	}
	if f.Format.HasQuaternion() {
		q := f.ScaledQuaternion()
		rows = append(rows, []string{"Quaternion", printArray(q[:])})
	}
	if f.Format.HasMatrix() {
		m := f.ScaledMatrix()
		for i, row := range m {
			rows = append(rows, []string{fmt.Sprintf("Matrix row %d", i+1), printArray(row[:])})
		}
	}
	return rows
}

func updateValue(opt *config.FOBOpt, table *widgets.Table, done <-chan struct{}, wg *sync.WaitGroup) {
	defer wg.Done()
	m := managerImpl.NewManager(opt)
	if err := m.Start(); err != nil {
		log.Panicln(err)
	}
	defer func() { _ = m.Stop() }()

	for {
		select {
		case <-done:
			return
		default:
		}

		_, res, err := m.Read(-1)
		if err != nil {
			if !errors.Is(err, manager.ErrNotReady) {
				log.Warnln(err)
			}
			time.Sleep(time.Millisecond * 100)
			continue
		}

		table.Rows = frameRows(res[0])
		ui.Render(table)
		time.Sleep(time.Millisecond * 10)
	}
}

func _main(cmd *cobra.Command, args []string) {
	log.Info("Starting")
	opt := server.NewMainApp(cmd, args).PrepareRun().GetOpt()
	if name, _ := cmd.Flags().GetString("format"); name != "" {
		f, ok := bird.ParseDataFormat(name)
		if !ok {
			log.Fatalf("unknown data format %q", name)
		}
		opt.Tracker.DataFormat = int(f)
	}

	if err := ui.Init(); err != nil {
		log.Fatalf("failed to initialize termui: %v", err)
	}
	defer ui.Close()

	t := getTable()
	done := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go updateValue(opt, t, done, &wg)
	// the bird is only shut down once updateValue has stopped the manager
	defer wg.Wait()
	defer close(done)

	uiEvents := ui.PollEvents()
	for {
		e := <-uiEvents
		switch e.ID {
		case "q", "<C-c>":
			return
		}
	}
}

var rootCmd = &cobra.Command{
	Use:   "fob_watch",
	Short: "fob_watch shows the live frame of the bird",
	Long:  "fob_watch shows the live frame of the bird",
	Run: func(cmd *cobra.Command, args []string) {
		_main(cmd, args)
	},
}

func main() {
	rootCmd.Flags().String("config", "", "default configuration path")
	rootCmd.Flags().String("driver", config.DefaultDriver, "tracker driver, sim or birdsdk")
	rootCmd.Flags().Int("com", bird.DefaultPort, "COM port number the bird is attached to")
	rootCmd.Flags().Int("baud", bird.DefaultBaudRate, "baud rate of the bird")
	rootCmd.Flags().String("format", "", "data format name or code to switch to")
	rootCmd.Flags().Bool("debug", false, "toggle debug logging")

	err := rootCmd.Execute()
	if err != nil {
		return
	}
}
