package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Transport kinds.
const (
	TransportArtNet  = "artnet"  // whole frame through an Art-Net node controller
	TransportUnicast = "unicast" // whole frame as raw ArtDmx packets to one host
	TransportOSC     = "osc"     // changed channels as OSC messages
	TransportMQTT    = "mqtt"    // changed channels as MQTT messages
	TransportNone    = "none"    // render only
)

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the daemon configuration.
type Config struct {
	Logger    LogConf       `toml:"logger"`    // Logger - logging setup.
	Engine    EngineConf    `toml:"engine"`    // Engine - frame loop setup.
	Transport TransportConf `toml:"transport"` // Transport - where frames go.
	ArtNet    ArtNetConf    `toml:"artnet"`    // ArtNet - Art-Net transports.
	MQTT      MQTTConf      `toml:"mqtt"`      // MQTT - MQTT client.
	OSC       OSCConf       `toml:"osc"`       // OSC - OSC sender.
	HTTP      HTTPConf      `toml:"http"`      // HTTP - control API.
	Rig       RigConf       `toml:"rig"`       // Rig - fixture patch file.
	Render    RenderConf    `toml:"render"`    // Render - light block.
}

// LogConf configures the logger.
type LogConf struct {
	Level   string `toml:"log-level"` // Level - logging level.
	Format  string `toml:"format"`    // Format - "text" or "json".
	NoColor bool   `toml:"no-color"`  // NoColor - disable ANSI colours.
}

// EngineConf configures the frame loop.
type EngineConf struct {
	FrameRate int `toml:"frame-rate"` // FrameRate - update cycles per second.
	Universe  int `toml:"universe"`   // Universe - DMX universe the rig is patched into.
}

// TransportConf selects the output transport.
type TransportConf struct {
	Kind string `toml:"kind"`
}

// FrameMode reports whether the transport sends whole frames, as opposed
// to individual channel changes.
func (t TransportConf) FrameMode() bool {
	switch t.Kind {
	case TransportOSC, TransportMQTT:
		return false
	}
	return true
}

// ArtNetConf configures both Art-Net transports.
type ArtNetConf struct {
	Network string `toml:"network"` // Network - CIDR the controller binds in.
	Target  string `toml:"target"`  // Target - unicast destination host.
	Port    int    `toml:"port"`    // Port - unicast destination port.
	MaxFPS  int    `toml:"max-fps"` // MaxFPS - controller send rate limit.
}

// MQTTConf configures the MQTT client.
type MQTTConf struct {
	ClientID string `toml:"clientID"` // ClientID - client name.
	Schema   string `toml:"schema"`   // Schema - connection type.
	Host     string `toml:"server"`   // Host - MQTT server address.
	Port     string `toml:"port"`     // Port - MQTT server port.
	User     string `toml:"user"`     // User - login.
	Password string `toml:"password"` // Password - password.
	Qos      byte   `toml:"qos"`      // Qos - quality of service.
	Prefix   string `toml:"prefix"`   // Prefix - topic prefix.
	Control  bool   `toml:"control"`  // Control - take fixture commands even when MQTT is not the transport.
}

// OSCConf configures the OSC sender.
type OSCConf struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// HTTPConf configures the control API.
type HTTPConf struct {
	Enabled     bool     `toml:"enabled"`
	Addr        string   `toml:"addr"`
	CORSOrigins []string `toml:"cors-origins"`
}

// RigConf points at the fixture patch.
type RigConf struct {
	Path  string `toml:"path"`  // Path - TOML or YAML rig file.
	Watch bool   `toml:"watch"` // Watch - reload the rig when the file changes.
}

// RenderConf configures the light block.
type RenderConf struct {
	Shading string `toml:"shading"` // Shading - phong, gouraud or flat.
}

// Default returns the configuration used for keys a file leaves out.
func Default() Config {
	return Config{
		Logger:    LogConf{Level: "info", Format: "text"},
		Engine:    EngineConf{FrameRate: 40, Universe: 0},
		Transport: TransportConf{Kind: TransportArtNet},
		ArtNet: ArtNetConf{
			Network: "192.168.6.0/24",
			Port:    6454,
			MaxFPS:  40,
		},
		MQTT: MQTTConf{
			ClientID: "stagelights",
			Schema:   "tcp",
			Host:     "localhost",
			Port:     "1883",
			Prefix:   "stagelights",
		},
		OSC:    OSCConf{Host: "localhost", Port: 7770},
		HTTP:   HTTPConf{Enabled: true, Addr: ":8080"},
		Rig:    RigConf{Path: "rig.toml", Watch: true},
		Render: RenderConf{Shading: "phong"},
	}
}

// NewConfig reads path on top of Default. An empty path yields the
// defaults.
func NewConfig(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return &cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return &cfg, fmt.Errorf("decode %s: %w", path, err)
	}
	return &cfg, nil
}

// ApplyEnv overrides selected keys from STAGELIGHTS_* variables.
func (c *Config) ApplyEnv() {
	c.Logger.Level = getEnv("STAGELIGHTS_LOG_LEVEL", c.Logger.Level)
	c.Transport.Kind = getEnv("STAGELIGHTS_TRANSPORT", c.Transport.Kind)
	c.Engine.FrameRate = getEnvInt("STAGELIGHTS_FRAME_RATE", c.Engine.FrameRate)
	c.Engine.Universe = getEnvInt("STAGELIGHTS_UNIVERSE", c.Engine.Universe)
	c.ArtNet.Target = getEnv("STAGELIGHTS_ARTNET_TARGET", c.ArtNet.Target)
	c.MQTT.Host = getEnv("STAGELIGHTS_MQTT_SERVER", c.MQTT.Host)
	c.MQTT.User = getEnv("STAGELIGHTS_MQTT_USER", c.MQTT.User)
	c.MQTT.Password = getEnv("STAGELIGHTS_MQTT_PASSWORD", c.MQTT.Password)
	c.OSC.Host = getEnv("STAGELIGHTS_OSC_HOST", c.OSC.Host)
	c.OSC.Port = getEnvInt("STAGELIGHTS_OSC_PORT", c.OSC.Port)
	c.HTTP.Enabled = getEnvBool("STAGELIGHTS_HTTP_ENABLED", c.HTTP.Enabled)
	c.HTTP.Addr = getEnv("STAGELIGHTS_HTTP_ADDR", c.HTTP.Addr)
	c.Rig.Path = getEnv("STAGELIGHTS_RIG", c.Rig.Path)
}

// Validate checks the values the daemon cannot run without.
func (c *Config) Validate() error {
	var problems []string

	switch c.Transport.Kind {
	case TransportArtNet, TransportUnicast, TransportOSC, TransportMQTT, TransportNone:
	default:
		problems = append(problems, fmt.Sprintf("unknown transport %q", c.Transport.Kind))
	}
	if c.Engine.FrameRate <= 0 {
		problems = append(problems, "frame-rate must be positive")
	}
	if c.Engine.Universe < 0 || c.Engine.Universe > 0x7fff {
		problems = append(problems, fmt.Sprintf("universe %d out of range", c.Engine.Universe))
	}
	if c.Transport.Kind == TransportUnicast && c.ArtNet.Target == "" {
		problems = append(problems, "unicast transport needs artnet.target")
	}
	if c.Transport.Kind == TransportOSC && (c.OSC.Port <= 0 || c.OSC.Port > 65535) {
		problems = append(problems, fmt.Sprintf("osc port %d out of range", c.OSC.Port))
	}
	switch strings.ToLower(c.Render.Shading) {
	case "phong", "gouraud", "flat":
	default:
		problems = append(problems, fmt.Sprintf("unknown shading %q", c.Render.Shading))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
	}
	return nil
}

// getEnv returns the value of an environment variable or a default value.
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns the integer value of an environment variable or a default value.
func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvBool returns the boolean value of an environment variable or a default value.
func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
