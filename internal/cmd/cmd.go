package cmd

import (
	"context"
	"fob_apiserver/internal/bird"
	"fob_apiserver/internal/config"
	"fob_apiserver/internal/server"
	"github.com/spf13/cobra"
	"os"
	"os/signal"
)

var RootCmd = &cobra.Command{
	Use:   "fobd",
	Short: "control/data plane of the Flock of Birds tracker",
	Long:  "control/data plane of the Flock of Birds tracker",
}

func ServeCmdRunE(cmd *cobra.Command, args []string) error {
	server.NewMainApp(cmd, args).PrepareRun().Run()
	return nil
}

func TrackerFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "default configuration path")
	cmd.Flags().String("driver", config.DefaultDriver, "tracker driver, sim or birdsdk")
	cmd.Flags().Int("com", bird.DefaultPort, "COM port number the bird is attached to")
	cmd.Flags().Int("baud", bird.DefaultBaudRate, "baud rate of the bird")
	cmd.Flags().Bool("debug", false, "toggle debug logging")
}

func ServeCmdFlags(cmd *cobra.Command) {
	TrackerFlags(cmd)
	cmd.Flags().Int64P("port", "p", config.DefaultAPIPort, "port that fobd listen on")
	cmd.Flags().StringP("interface", "i", config.DefaultAPIInterface, "interface that fobd listen on, default to 0.0.0.0")
}

var ServeCmd = &cobra.Command{
	Use: "serve",
	SuggestFor: []string{
		"ru", "ser",
	},
	Short: "serve start fobd using predefined configs.",
	Long: `serve start fobd using predefined configs, by the following order:
1. path specified in --config flag
2. path defined FOBD_CONFIG environment variable
3. default location $HOME/.config/fobd/config.yaml, /etc/fobd/config.yaml, current directory
The parameters in the configuration file will be overwritten by the following order:
1. command line arguments
2. environment variables
`,
	Example: `  fobd serve --config=/path/to/config
  fobd serve --driver birdsdk --com 3`,
	RunE: ServeCmdRunE,
}

func InitCmdFlags(cmd *cobra.Command) {
	cmd.Flags().String("config", "", "configuration to start from")
	cmd.Flags().Bool("print", false, "print config to stdout")
	cmd.Flags().BoolP("yes", "y", false, "overwrite")
	cmd.Flags().StringP("output", "o", config.DefaultConfig, "specify output directory")
}

var InitCmd = &cobra.Command{
	Use: "init",
	SuggestFor: []string{
		"ini", "in",
	},
	Short: "init create a configuration template",
	Long: `init create a configuration template.
The configuration file can be used to launch fobd.
If --print flag is present, the configuration will be printed to stdout.
If --output / -o flag is present, the configuration will be saved to the path specified
Otherwise init will output configuration file to $HOME/.config/fobd/config.yaml
If --yes / -y flag is present, the configuration will be overwrite without confirmation
`,
	Example: `  fobd init --print
  fobd init --output /path/to/config.yaml
  fobd init -o /path/to/config.yaml -y`,
	RunE: config.InitCfg,
}

var ProbeCmd = &cobra.Command{
	Use: "probe",
	SuggestFor: []string{
		"pro", "pr", "prob",
	},
	Short: "probe the serial ports",
	Long: `probe the serial ports.
The probe command lists the serial ports that can be opened and prints the --com value for each.
Ports that already carry data are marked as streaming.
`,
	Example: `  fobd probe
  fobd probe --baud 9600`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return server.NewMainApp(cmd, args).PrepareRun().ProbeSensor()
	},
}

func RecordCmdFlags(cmd *cobra.Command) {
	TrackerFlags(cmd)
	cmd.Flags().String("db", "", "sqlite database the frames are written to")
	cmd.Flags().DurationP("duration", "d", 0, "stop after this long, default to until interrupted")
}

var RecordCmd = &cobra.Command{
	Use: "record",
	SuggestFor: []string{
		"rec", "reco",
	},
	Short: "record frames into a sqlite database",
	Long: `record frames into a sqlite database.
The tracker is opened, set streaming and every frame is stored with the run id of this session.
`,
	Example: `  fobd record --db frames.db --duration 30s`,
	RunE: func(cmd *cobra.Command, args []string) error {
		duration, _ := cmd.Flags().GetDuration("duration")
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		_, err := server.NewMainApp(cmd, args).PrepareRun().Record(ctx, duration)
		return err
	},
}

func getRootCmd() *cobra.Command {

	ServeCmdFlags(ServeCmd)
	RootCmd.AddCommand(ServeCmd)

	InitCmdFlags(InitCmd)
	RootCmd.AddCommand(InitCmd)

	TrackerFlags(ProbeCmd)
	RootCmd.AddCommand(ProbeCmd)

	RecordCmdFlags(RecordCmd)
	RootCmd.AddCommand(RecordCmd)

	return RootCmd
}

func Execute() {
	rootCmd := getRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
