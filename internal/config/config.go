package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	WindowWidth  = 1280
	WindowHeight = 720
	WindowTitle  = "Blockchain Backdrop - Space: pause, R: remount, M: mute, D: HUD, O: icons, Esc/Q: quit"

	// Progress at which a block counts as mined.
	MaxProgress = 100.0

	// Terminal cells are mapped onto this many virtual pixels.
	CellWidth  = 8
	CellHeight = 16
)

// ErrInvalid is returned when a configuration document is well-formed but
// describes values the engine cannot run with.
var ErrInvalid = errors.New("invalid config")

type Config struct {
	Window    Window    `yaml:"window"`
	FPS       int       `yaml:"fps"`
	Seed      uint64    `yaml:"seed"`
	Particles Particles `yaml:"particles"`
	Chain     Chain     `yaml:"chain"`
	Mesh      Mesh      `yaml:"mesh"`
	Sequence  Sequence  `yaml:"sequence"`
	Icons     Icons     `yaml:"icons"`
	Sound     Sound     `yaml:"sound"`
	HUD       bool      `yaml:"hud"`
}

type Window struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
}

// Particles tunes the drifting coin icons.
type Particles struct {
	AreaPerParticle  float64 `yaml:"area_per_particle"`
	MinCount         int     `yaml:"min_count"`
	SizeMin          float64 `yaml:"size_min"`
	SizeMax          float64 `yaml:"size_max"`
	SpeedMin         float64 `yaml:"speed_min"`
	SpeedMax         float64 `yaml:"speed_max"`
	OpacityMin       float64 `yaml:"opacity_min"`
	OpacityMax       float64 `yaml:"opacity_max"`
	RotationSpeedMax float64 `yaml:"rotation_speed_max"` // radians per frame
}

// Chain tunes the mining blocks.
type Chain struct {
	InitialBlocks      int     `yaml:"initial_blocks"`
	MaxBlocks          int     `yaml:"max_blocks"`
	BlockWidth         float64 `yaml:"block_width"`
	BlockHeight        float64 `yaml:"block_height"`
	SpeedMin           float64 `yaml:"speed_min"`
	SpeedMax           float64 `yaml:"speed_max"`
	InitialProgressMax float64 `yaml:"initial_progress_max"`
	OriginX            float64 `yaml:"origin_x"` // fraction of viewport width
	OriginY            float64 `yaml:"origin_y"` // fraction of viewport height
	SpacingX           float64 `yaml:"spacing_x"`
	ZigZag             float64 `yaml:"zig_zag"`
	JitterX            float64 `yaml:"jitter_x"`
	JitterY            float64 `yaml:"jitter_y"`
	Margin             float64 `yaml:"margin"`
	PacketCount        int     `yaml:"packet_count"`
	PacketSpeed        float64 `yaml:"packet_speed"`
	HashDisplayLen     int     `yaml:"hash_display_len"`
}

// Mesh tunes the node network behind the chain.
type Mesh struct {
	Enabled              bool    `yaml:"enabled"`
	AreaPerNode          float64 `yaml:"area_per_node"`
	MinHubs              int     `yaml:"min_hubs"`
	NodeSpeed            float64 `yaml:"node_speed"`
	HubSpeed             float64 `yaml:"hub_speed"`
	MaxSpeed             float64 `yaml:"max_speed"`
	LinkDistance         float64 `yaml:"link_distance"`
	HubLinkDistance      float64 `yaml:"hub_link_distance"`
	InteractionRadius    float64 `yaml:"interaction_radius"`
	HubInteractionRadius float64 `yaml:"hub_interaction_radius"`
}

// Sequence tunes the contract signing overlay. Stage offsets are seconds
// since the sequence (re)started.
type Sequence struct {
	Enabled  bool    `yaml:"enabled"`
	Drafting float64 `yaml:"drafting"`
	Signing  float64 `yaml:"signing"`
	Signed   float64 `yaml:"signed"`
	Deployed float64 `yaml:"deployed"`
	Hold     float64 `yaml:"hold"`
	Loop     bool    `yaml:"loop"`
}

type Icons struct {
	Dir string `yaml:"dir"`
}

type Sound struct {
	Enabled    bool    `yaml:"enabled"`
	SampleRate int     `yaml:"sample_rate"`
	Volume     float64 `yaml:"volume"`
}

// Default returns the stock tuning.
func Default() Config {
	return Config{
		Window: Window{Width: WindowWidth, Height: WindowHeight, Title: WindowTitle},
		FPS:    60,
		Particles: Particles{
			AreaPerParticle:  200000,
			MinCount:         5,
			SizeMin:          30,
			SizeMax:          50,
			SpeedMin:         0.1,
			SpeedMax:         0.4,
			OpacityMin:       0.25,
			OpacityMax:       0.5,
			RotationSpeedMax: 0.75 * math.Pi / 180,
		},
		Chain: Chain{
			InitialBlocks:      3,
			MaxBlocks:          6,
			BlockWidth:         120,
			BlockHeight:        60,
			SpeedMin:           0.1,
			SpeedMax:           0.4,
			InitialProgressMax: 30,
			OriginX:            0.1,
			OriginY:            0.3,
			SpacingX:           150,
			ZigZag:             80,
			JitterX:            50,
			JitterY:            100,
			Margin:             100,
			PacketCount:        2,
			PacketSpeed:        0.3,
			HashDisplayLen:     12,
		},
		Mesh: Mesh{
			Enabled:              true,
			AreaPerNode:          25000,
			MinHubs:              3,
			NodeSpeed:            0.3,
			HubSpeed:             0.2,
			MaxSpeed:             1.5,
			LinkDistance:         150,
			HubLinkDistance:      200,
			InteractionRadius:    100,
			HubInteractionRadius: 150,
		},
		Sequence: Sequence{
			Enabled:  true,
			Drafting: 0.5,
			Signing:  1.5,
			Signed:   2.5,
			Deployed: 3.5,
			Hold:     4,
			Loop:     true,
		},
		Sound: Sound{SampleRate: 44100, Volume: 0.2},
	}
}

// Load reads a YAML document over the defaults. The raw document is checked
// against the embedded schema before it is decoded.
func Load(path string) (Config, error) {
	cfg := Default()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := validateDocument(raw); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks relations the schema cannot express.
func (c Config) Validate() error {
	var problems []string
	check := func(ok bool, format string, args ...any) {
		if !ok {
			problems = append(problems, fmt.Sprintf(format, args...))
		}
	}

	check(c.FPS > 0, "fps must be positive")
	check(c.Window.Width > 0 && c.Window.Height > 0, "window size must be positive")

	p := c.Particles
	check(p.AreaPerParticle > 0, "particles.area_per_particle must be positive")
	check(p.MinCount >= 0, "particles.min_count must not be negative")
	check(p.SizeMin > 0 && p.SizeMin <= p.SizeMax, "particles size range [%g, %g] is empty", p.SizeMin, p.SizeMax)
	check(p.SpeedMin >= 0 && p.SpeedMin <= p.SpeedMax, "particles speed range [%g, %g] is empty", p.SpeedMin, p.SpeedMax)
	check(p.OpacityMin >= 0 && p.OpacityMin <= p.OpacityMax && p.OpacityMax <= 1, "particles opacity range [%g, %g] is outside [0, 1]", p.OpacityMin, p.OpacityMax)

	ch := c.Chain
	check(ch.InitialBlocks >= 1, "chain.initial_blocks must be at least 1")
	check(ch.MaxBlocks >= ch.InitialBlocks, "chain.max_blocks (%d) below initial_blocks (%d)", ch.MaxBlocks, ch.InitialBlocks)
	check(ch.SpeedMin > 0 && ch.SpeedMin <= ch.SpeedMax, "chain speed range [%g, %g] is empty", ch.SpeedMin, ch.SpeedMax)
	check(ch.InitialProgressMax >= 0 && ch.InitialProgressMax < MaxProgress, "chain.initial_progress_max must be in [0, 100)")
	check(ch.BlockWidth > 0 && ch.BlockHeight > 0, "chain block size must be positive")
	check(ch.PacketCount >= 0, "chain.packet_count must not be negative")
	check(ch.HashDisplayLen > 0, "chain.hash_display_len must be positive")

	if c.Mesh.Enabled {
		check(c.Mesh.AreaPerNode > 0, "mesh.area_per_node must be positive")
		check(c.Mesh.MaxSpeed > 0, "mesh.max_speed must be positive")
	}

	s := c.Sequence
	if s.Enabled {
		check(0 <= s.Drafting && s.Drafting <= s.Signing && s.Signing <= s.Signed && s.Signed <= s.Deployed,
			"sequence stage offsets must be non-decreasing")
		check(s.Hold >= 0, "sequence.hold must not be negative")
	}

	if c.Sound.Enabled {
		check(c.Sound.SampleRate > 0, "sound.sample_rate must be positive")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(problems, "; "))
	}
	return nil
}

// ApplyEnv overrides fields from BACKDROP_* variables. Unparseable values are
// reported and leave the field untouched.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	var errs []error

	if v := getenv("BACKDROP_ICONS"); v != "" {
		c.Icons.Dir = v
	}
	if v := getenv("BACKDROP_FPS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("BACKDROP_FPS: %w", err))
		} else {
			c.FPS = n
		}
	}
	if v := getenv("BACKDROP_SEED"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("BACKDROP_SEED: %w", err))
		} else {
			c.Seed = n
		}
	}
	if v := getenv("BACKDROP_SOUND"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("BACKDROP_SOUND: %w", err))
		} else {
			c.Sound.Enabled = b
		}
	}
	if v := getenv("BACKDROP_HUD"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("BACKDROP_HUD: %w", err))
		} else {
			c.HUD = b
		}
	}
	if v := getenv("BACKDROP_MAX_BLOCKS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("BACKDROP_MAX_BLOCKS: %w", err))
		} else {
			c.Chain.MaxBlocks = n
		}
	}

	return errors.Join(errs...)
}
