package config

import (
	"bufio"
	"errors"
	"fmt"
	"fob_apiserver/internal/bird"
	"fob_apiserver/internal/utils"
	"github.com/mitchellh/mapstructure"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
	"os"
	"path"
	"strings"
)

const DefaultAppName = "fobd"
const DefaultConfigName = "config"
const DefaultAPIInterface = "0.0.0.0"
const DefaultAPIPort = 18889
const DefaultTrackerID = "fob_0"
const DefaultDriver = DriverSim
const DefaultAutoSleepSecond = 60

const (
	DriverSim     = "sim"
	DriverBirdSDK = "birdsdk"
)

var userHomeDir, _ = os.UserHomeDir()
var DefaultConfig = path.Join(userHomeDir, ".config/"+DefaultAppName+"/"+DefaultConfigName+".yaml")
var DefaultConfigSearchPath0 = path.Join(userHomeDir, ".config", DefaultAppName)

const DefaultConfigSearchPath1 = "/etc/" + DefaultAppName
const DefaultConfigSearchPath2 = "./"
const DefaultConfigSearchPath3 = "/config"

type APIOpt struct {
	Port      int    `yaml:"port"`
	Interface string `yaml:"interface"`
}

// TrackerOpt describes the standalone bird. Timeouts are in milliseconds.
type TrackerOpt struct {
	ID           string  `yaml:"id"`
	Driver       string  `yaml:"driver"`
	Port         int     `yaml:"port"`
	Baud         int     `yaml:"baud"`
	ReadTimeout  int     `yaml:"read_timeout"`
	WriteTimeout int     `yaml:"write_timeout"`
	DataFormat   int     `yaml:"data_format"`
	SimRate      float64 `yaml:"sim_rate"`
	AutoSleep    int     `yaml:"auto_sleep"`
}

type RecorderOpt struct {
	Path string `yaml:"path"`
}

type FOBOpt struct {
	API      APIOpt      `yaml:"api"`
	Tracker  TrackerOpt  `yaml:"tracker"`
	Recorder RecorderOpt `yaml:"recorder"`
	Debug    bool        `yaml:"debug"`
}

type FOBDesc struct {
	Opt   FOBOpt
	Viper *viper.Viper
}

func NewFOBDesc() FOBDesc {
	return FOBDesc{
		Opt:   NewFOBOpt(),
		Viper: nil,
	}
}

func NewTrackerOpt() TrackerOpt {
	return TrackerOpt{
		ID:           DefaultTrackerID,
		Driver:       DefaultDriver,
		Port:         bird.DefaultPort,
		Baud:         bird.DefaultBaudRate,
		ReadTimeout:  bird.DefaultReadTimeout,
		WriteTimeout: bird.DefaultWriteTimeout,
		DataFormat:   int(bird.DataFormatPositionAndAngles),
		SimRate:      100,
		AutoSleep:    DefaultAutoSleepSecond,
	}
}

func NewFOBOpt() FOBOpt {
	return FOBOpt{
		API: APIOpt{
			Port:      DefaultAPIPort,
			Interface: DefaultAPIInterface,
		},
		Tracker: NewTrackerOpt(),
		Recorder: RecorderOpt{
			Path: "frames.db",
		},
		Debug: false,
	}
}

// Settings converts the RS232 part of the tracker options.
func (o TrackerOpt) Settings() bird.Settings {
	return bird.Settings{
		Port:         o.Port,
		BaudRate:     o.Baud,
		ReadTimeout:  o.ReadTimeout,
		WriteTimeout: o.WriteTimeout,
	}
}

func (o TrackerOpt) Validate() error {
	if o.ID == "" {
		return errors.New("empty tracker id")
	}
	if o.Driver != DriverSim && o.Driver != DriverBirdSDK {
		return fmt.Errorf("unknown tracker driver: %q", o.Driver)
	}
	if o.Port <= 0 || o.Port > 0xffff {
		return fmt.Errorf("invalid com port: %d", o.Port)
	}
	if o.Baud <= 0 {
		return fmt.Errorf("invalid baud rate: %d", o.Baud)
	}
	if o.ReadTimeout < 0 || o.WriteTimeout < 0 {
		return errors.New("negative timeout")
	}
	if !bird.DataFormat(o.DataFormat).Valid() {
		return fmt.Errorf("invalid data format: %d", o.DataFormat)
	}
	return nil
}

func (o *FOBDesc) Parse(cmd *cobra.Command) error {
	vipCfg := viper.New()
	def := NewFOBOpt()
	vipCfg.SetDefault("api.port", def.API.Port)
	vipCfg.SetDefault("api.interface", def.API.Interface)
	vipCfg.SetDefault("tracker.id", def.Tracker.ID)
	vipCfg.SetDefault("tracker.driver", def.Tracker.Driver)
	vipCfg.SetDefault("tracker.port", def.Tracker.Port)
	vipCfg.SetDefault("tracker.baud", def.Tracker.Baud)
	vipCfg.SetDefault("tracker.read_timeout", def.Tracker.ReadTimeout)
	vipCfg.SetDefault("tracker.write_timeout", def.Tracker.WriteTimeout)
	vipCfg.SetDefault("tracker.data_format", def.Tracker.DataFormat)
	vipCfg.SetDefault("tracker.sim_rate", def.Tracker.SimRate)
	vipCfg.SetDefault("tracker.auto_sleep", def.Tracker.AutoSleep)
	vipCfg.SetDefault("recorder.path", def.Recorder.Path)
	vipCfg.SetDefault("debug", false)

	if configFileCmd, err := cmd.Flags().GetString("config"); err == nil && configFileCmd != "" {
		vipCfg.SetConfigFile(configFileCmd)
	} else {
		configFileEnv := os.Getenv("FOBD_CONFIG")
		if configFileEnv != "" {
			vipCfg.SetConfigFile(configFileEnv)
		} else {
			vipCfg.SetConfigName(DefaultConfigName)
			vipCfg.SetConfigType("yaml")
			vipCfg.AddConfigPath(DefaultConfigSearchPath0)
			vipCfg.AddConfigPath(DefaultConfigSearchPath1)
			vipCfg.AddConfigPath(DefaultConfigSearchPath2)
			vipCfg.AddConfigPath(DefaultConfigSearchPath3)
		}
	}

	vipCfg.SetEnvPrefix(DefaultAppName)
	vipCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	vipCfg.AutomaticEnv()

	bindFlag(vipCfg, cmd, "api.port", "port")
	bindFlag(vipCfg, cmd, "api.interface", "interface")
	bindFlag(vipCfg, cmd, "tracker.driver", "driver")
	bindFlag(vipCfg, cmd, "tracker.port", "com")
	bindFlag(vipCfg, cmd, "tracker.baud", "baud")
	bindFlag(vipCfg, cmd, "recorder.path", "db")
	bindFlag(vipCfg, cmd, "debug", "debug")

	// If a config file is found, read it in.
	if err := vipCfg.ReadInConfig(); err == nil {
		log.Debugln("using config file:", vipCfg.ConfigFileUsed())
	} else {
		log.Warnln(err)
	}

	if err := vipCfg.Unmarshal(&o.Opt, func(c *mapstructure.DecoderConfig) { c.TagName = "yaml" }); err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := o.Opt.Tracker.Validate(); err != nil {
		return err
	}

	o.Viper = vipCfg
	return nil
}

func bindFlag(v *viper.Viper, cmd *cobra.Command, key string, flag string) {
	if f := cmd.Flags().Lookup(flag); f != nil {
		_ = v.BindPFlag(key, f)
	}
}

func (o *FOBDesc) PostParse() {
	if o.Opt.Debug {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}

func (o *FOBDesc) SaveConfig() error {
	if o.Viper == nil {
		return errors.New("viper is nil")
	}
	f, err := os.OpenFile(o.Viper.ConfigFileUsed(), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	w := bufio.NewWriter(f)
	s, _ := yaml.Marshal(o.Opt)
	_, err = w.Write(s)
	if err != nil {
		return err
	}
	return w.Flush()
}

// InitCfg initConfig prepares config for the application
func InitCfg(cmd *cobra.Command, _ []string) error {
	printFlag, _ := cmd.Flags().GetBool("print")
	outputPath, _ := cmd.Flags().GetString("output")
	overwriteFlag, _ := cmd.Flags().GetBool("yes")

	desc := NewFOBDesc()
	err := desc.Parse(cmd)
	if err != nil {
		log.Errorln(err)
		return err
	}

	if printFlag {
		configBuffer, _ := yaml.Marshal(desc.Opt)
		fmt.Println(string(configBuffer))
	} else {
		return utils.DumpOption(desc.Opt, outputPath, overwriteFlag)
	}
	return nil
}
