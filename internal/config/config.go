// Package config assembles stofix settings from flags, an optional .env
// file, an optional TOML config file and STOFIX_* environment variables.
// Flags win over env, env over file, file over defaults.
package config

import (
	"errors"
	"fmt"
	log "log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	cli "github.com/spf13/pflag"
	"github.com/spf13/viper"

	"stofix/internal/ipc"
)

type Config struct {
	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`
	Headless bool   `mapstructure:"headless"`
	Socket   string `mapstructure:"socket"`
	DataFile string `mapstructure:"data_file"`

	STT       STTConfig       `mapstructure:"stt"`
	Speech    SpeechConfig    `mapstructure:"speech"`
	Timing    TimingConfig    `mapstructure:"timing"`
	Dictation DictationConfig `mapstructure:"dictation"`
	Hotkeys   HotkeysConfig   `mapstructure:"hotkeys"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Audio     AudioConfig     `mapstructure:"audio"`
	Bus       BusConfig       `mapstructure:"bus"`
}

type STTConfig struct {
	Backend      string `mapstructure:"backend"` // openai | whisper
	APIKey       string `mapstructure:"api_key"`
	BaseURL      string `mapstructure:"base_url"`
	Model        string `mapstructure:"model"`
	Language     string `mapstructure:"language"`
	Prompt       string `mapstructure:"prompt"`
	Proxy        string `mapstructure:"proxy"`
	WhisperModel string `mapstructure:"whisper_model"`
	Threads      int    `mapstructure:"threads"`
}

type SpeechConfig struct {
	Voice  string  `mapstructure:"voice"`
	Rate   int     `mapstructure:"rate"`
	Volume float64 `mapstructure:"volume"`
}

type TimingConfig struct {
	ListenTimeout    time.Duration `mapstructure:"listen_timeout"`
	DictationTimeout time.Duration `mapstructure:"dictation_timeout"`
	PhraseLimit      time.Duration `mapstructure:"phrase_limit"`
	Calibration      time.Duration `mapstructure:"calibration"`
	Settle           time.Duration `mapstructure:"settle"`
	ComposeWait      time.Duration `mapstructure:"compose_wait"`
	SendPause        time.Duration `mapstructure:"send_pause"`
}

type DictationConfig struct {
	RetypeSubject bool `mapstructure:"retype_subject"`
}

type HotkeysConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
	Stop    string `mapstructure:"stop"`
}

type NotifyConfig struct {
	Chime   string `mapstructure:"chime"`
	Desktop bool   `mapstructure:"desktop"`
}

type AudioConfig struct {
	Replay     string   `mapstructure:"replay"`
	Duck       bool     `mapstructure:"duck"`
	DuckFactor float64  `mapstructure:"duck_factor"`
	Editor     []string `mapstructure:"editor"`
}

type BusConfig struct {
	URL   string `mapstructure:"url"`
	Shard string `mapstructure:"shard"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", filepath.Join(os.TempDir(), "stofix.log"))
	v.SetDefault("headless", false)
	v.SetDefault("socket", ipc.DefaultSocketPath())
	v.SetDefault("data_file", "custom_apps.json")

	v.SetDefault("stt.backend", "openai")
	v.SetDefault("stt.api_key", "")
	v.SetDefault("stt.base_url", "")
	v.SetDefault("stt.prompt", "")
	v.SetDefault("stt.proxy", "")
	v.SetDefault("stt.model", "whisper-1")
	v.SetDefault("stt.language", "en")
	v.SetDefault("stt.whisper_model", "third_party/whisper.cpp/models/ggml-base.en.bin")
	v.SetDefault("stt.threads", 0)

	v.SetDefault("speech.voice", "en")
	v.SetDefault("speech.rate", 160)
	v.SetDefault("speech.volume", 0.9)

	v.SetDefault("timing.listen_timeout", time.Second)
	v.SetDefault("timing.dictation_timeout", 2*time.Second)
	v.SetDefault("timing.phrase_limit", 5*time.Second)
	v.SetDefault("timing.calibration", 500*time.Millisecond)
	v.SetDefault("timing.settle", 500*time.Millisecond)
	v.SetDefault("timing.compose_wait", 4*time.Second)
	v.SetDefault("timing.send_pause", 200*time.Millisecond)

	v.SetDefault("dictation.retype_subject", true)

	v.SetDefault("hotkeys.enabled", true)
	v.SetDefault("hotkeys.listen", "F9")
	v.SetDefault("hotkeys.stop", "F10")

	v.SetDefault("notify.chime", "beep.mp3")
	v.SetDefault("notify.desktop", true)

	v.SetDefault("audio.replay", "")
	v.SetDefault("audio.editor", []string{})
	v.SetDefault("audio.duck", false)
	v.SetDefault("audio.duck_factor", 0.3)

	v.SetDefault("bus.url", "")
	v.SetDefault("bus.shard", "stofix")
}


// flag name -> config key
var flagKeys = map[string]string{
	"log":      "log_level",
	"log-file": "log_file",
	"headless": "headless",
	"socket":   "socket",
	"data":     "data_file",
	"stt":      "stt.backend",
	"model":    "stt.whisper_model",
	"language": "stt.language",
	"proxy":    "stt.proxy",
	"replay":   "audio.replay",
	"bus":      "bus.url",
	"volume":   "speech.volume",
}

// Load parses args (without the program name) and resolves the config.
// It returns cli.ErrHelp when help was requested.
func Load(args []string) (Config, error) {
	fs := cli.NewFlagSet("stofix", cli.ContinueOnError)
	envFile := fs.StringP("env", "e", ".env", "Env file path")
	cfgFile := fs.StringP("config", "c", "", "Config file path (toml)")
	fs.StringP("log", "l", "info", "Log level")
	fs.String("log-file", "", "Log file used while the panel owns the terminal")
	fs.Bool("headless", false, "Run without the control panel")
	fs.String("socket", "", "Control socket path")
	fs.StringP("data", "d", "", "Custom apps file")
	fs.String("stt", "", "Speech recognizer: openai or whisper")
	fs.StringP("model", "m", "", "Whisper model path")
	fs.String("language", "", "Recognition language")
	fs.StringP("proxy", "p", "", "SOCKS5 proxy address for the cloud recognizer")
	fs.String("replay", "", "Recognize audio files from this directory instead of the microphone")
	fs.StringP("bus", "b", "", "Hub bus websocket url")
	fs.Float64("volume", 0.9, "Speech volume 0..1")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if err := godotenv.Load(*envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("Failed to load env file", "path", *envFile, "err", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigType("toml")
	switch path := firstNonEmpty(*cfgFile, os.Getenv("STOFIX_CONFIG")); path {
	case "":
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "stofix"))
		}
		v.SetConfigName("config")
	default:
		v.SetConfigFile(path)
	}

	v.SetEnvPrefix("STOFIX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	for name, key := range flagKeys {
		f := fs.Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return Config{}, fmt.Errorf("bind flag %s: %w", name, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if c.STT.APIKey == "" {
		c.STT.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	return c, c.Validate()
}

func (c Config) Validate() error {
	switch c.STT.Backend {
	case "openai", "whisper":
	default:
		return fmt.Errorf("unknown stt backend %q", c.STT.Backend)
	}
	if c.Speech.Volume < 0 || c.Speech.Volume > 1 {
		return fmt.Errorf("speech volume %v out of range 0..1", c.Speech.Volume)
	}
	if c.DataFile == "" {
		return errors.New("data file is required")
	}
	return nil
}

var levels = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

// Level maps the configured name to a slog level, info when unknown.
func (c Config) Level() log.Level {
	if l, ok := levels[strings.ToLower(c.LogLevel)]; ok {
		return l
	}
	return log.LevelInfo
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
