package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/julianstephens/daylit-planner/internal/constants"
	"github.com/julianstephens/daylit-planner/internal/models"
	"github.com/julianstephens/daylit-planner/internal/utils"
)

// Window is one active-hours range repeated on the listed days
type Window struct {
	Days  []string `yaml:"days"`
	Start string   `yaml:"start"` // HH:MM
	End   string   `yaml:"end"`   // HH:MM, "24:00" allowed
}

// Category holds the active hours and placement preferences of one task category
type Category struct {
	Windows             []Window           `yaml:"windows"`
	MinUsefulGapMinutes int                `yaml:"min_useful_gap_minutes,omitempty"`
	Band                constants.TimeBand `yaml:"band,omitempty"`
}

// Breaks configures rest periods reserved after long stretches of placed work
type Breaks struct {
	Enabled         bool `yaml:"enabled"`
	DurationMinutes int  `yaml:"duration_minutes"`
	IntervalMinutes int  `yaml:"interval_minutes"`
}

// Log configures the logger
type Log struct {
	Debug bool   `yaml:"debug"`
	JSON  bool   `yaml:"json"`
	Dir   string `yaml:"dir,omitempty"`
}

// Config is the engine configuration read from YAML
type Config struct {
	// Timezone is the IANA zone every input is interpreted in; "Local" uses the system zone
	Timezone         string                          `yaml:"timezone"`
	HorizonDays      int                             `yaml:"horizon_days"`
	IterationCeiling int                             `yaml:"iteration_ceiling"`
	Weights          models.Weights                  `yaml:"weights"`
	Categories       map[constants.Category]Category `yaml:"categories"`
	Breaks           Breaks                          `yaml:"breaks"`

	// Storage is a SQLite path or a postgres:// connection string for the run archive
	Storage string `yaml:"storage,omitempty"`
	Log     Log    `yaml:"log"`
}

// Default returns the configuration used when no file exists
func Default() *Config {
	return &Config{
		Timezone:         "Local",
		HorizonDays:      7,
		IterationCeiling: constants.DefaultIterationCeiling,
		Weights:          models.DefaultWeights(),
		Categories: map[constants.Category]Category{
			constants.CategoryWork: {
				Windows:             []Window{{Days: []string{"weekdays"}, Start: "09:00", End: "17:00"}},
				MinUsefulGapMinutes: 15,
				Band:                constants.BandMorning,
			},
			constants.CategoryMeeting: {
				Windows:             []Window{{Days: []string{"weekdays"}, Start: "09:00", End: "17:00"}},
				MinUsefulGapMinutes: 15,
				Band:                constants.BandAfternoon,
			},
			constants.CategoryPersonal: {
				Windows: []Window{
					{Days: []string{"weekdays"}, Start: "17:00", End: "21:00"},
					{Days: []string{"weekends"}, Start: "09:00", End: "21:00"},
				},
				MinUsefulGapMinutes: 15,
				Band:                constants.BandEvening,
			},
		},
		Breaks: Breaks{
			DurationMinutes: int(constants.DefaultBreakDuration / time.Minute),
			IntervalMinutes: int(constants.DefaultBreakInterval / time.Minute),
		},
		Storage: constants.DefaultStorePath,
	}
}

// Normalize fills zero values so partially written files still behave
func (c *Config) Normalize() {
	if c.Timezone == "" {
		c.Timezone = "Local"
	}
	if c.HorizonDays <= 0 {
		c.HorizonDays = 7
	}
	if c.IterationCeiling <= 0 {
		c.IterationCeiling = constants.DefaultIterationCeiling
	}
	if c.Weights == (models.Weights{}) {
		c.Weights = models.DefaultWeights()
	}
	if c.Categories == nil {
		c.Categories = map[constants.Category]Category{}
	}
	if c.Breaks.DurationMinutes == 0 {
		c.Breaks.DurationMinutes = int(constants.DefaultBreakDuration / time.Minute)
	}
	if c.Breaks.IntervalMinutes == 0 {
		c.Breaks.IntervalMinutes = int(constants.DefaultBreakInterval / time.Minute)
	}
	if c.Storage == "" {
		c.Storage = constants.DefaultStorePath
	}
}

// Validate checks everything Normalize cannot repair
func (c *Config) Validate() error {
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	if _, err := c.ActiveHours(); err != nil {
		return err
	}
	w := c.Weights
	for name, v := range map[string]float64{
		"urgency": w.Urgency, "priority": w.Priority, "slot_fit": w.SlotFit,
		"slot_band": w.SlotBand, "slot_early": w.SlotEarly, "bump_margin": w.BumpMargin,
	} {
		if v < 0 {
			return fmt.Errorf("weight %s must not be negative, got %v", name, v)
		}
	}
	if c.Breaks.DurationMinutes < 0 || c.Breaks.IntervalMinutes < 0 {
		return fmt.Errorf("break duration and interval must not be negative")
	}
	return nil
}

// BreakSettings converts the breaks section into engine settings
func (c *Config) BreakSettings() models.Breaks {
	return models.Breaks{
		Enabled:  c.Breaks.Enabled,
		Duration: time.Duration(c.Breaks.DurationMinutes) * time.Minute,
		Interval: time.Duration(c.Breaks.IntervalMinutes) * time.Minute,
	}
}

// Location resolves the configured timezone
func (c *Config) Location() (*time.Location, error) {
	return utils.LoadLocation(c.Timezone)
}

// Horizon returns the configured number of days starting at midnight of now's day
func (c *Config) Horizon(now time.Time) (models.Horizon, error) {
	loc, err := c.Location()
	if err != nil {
		return models.Horizon{}, err
	}
	start := utils.Midnight(now.In(loc))
	return models.Horizon{Start: start, End: start.AddDate(0, 0, c.HorizonDays)}, nil
}

// ActiveHours converts the category table into the engine's active hours
func (c *Config) ActiveHours() (models.ActiveHours, error) {
	hours := models.ActiveHours{
		Windows:      make(map[constants.Category][]models.Window),
		MinUsefulGap: make(map[constants.Category]time.Duration),
		Bands:        make(map[constants.Category]constants.TimeBand),
	}

	names := make([]string, 0, len(c.Categories))
	for cat := range c.Categories {
		names = append(names, string(cat))
	}
	sort.Strings(names)

	for _, name := range names {
		cat := constants.Category(name)
		spec := c.Categories[cat]
		if !cat.Valid() {
			return models.ActiveHours{}, fmt.Errorf("unknown category %q", name)
		}
		if spec.Band != "" {
			if _, ok := constants.Bands[spec.Band]; !ok {
				return models.ActiveHours{}, fmt.Errorf("category %s: unknown band %q", name, spec.Band)
			}
			hours.Bands[cat] = spec.Band
		}
		if spec.MinUsefulGapMinutes > 0 {
			hours.MinUsefulGap[cat] = time.Duration(spec.MinUsefulGapMinutes) * time.Minute
		}

		for i, w := range spec.Windows {
			start, err := utils.ParseClock(w.Start)
			if err != nil {
				return models.ActiveHours{}, fmt.Errorf("category %s window %d: %w", name, i+1, err)
			}
			end, err := utils.ParseClock(w.End)
			if err != nil {
				return models.ActiveHours{}, fmt.Errorf("category %s window %d: %w", name, i+1, err)
			}
			days, err := utils.ParseWeekdays(w.Days)
			if err != nil {
				return models.ActiveHours{}, fmt.Errorf("category %s window %d: %w", name, i+1, err)
			}
			if len(days) == 0 {
				return models.ActiveHours{}, fmt.Errorf("category %s window %d: no days listed", name, i+1)
			}
			for _, wd := range days {
				hours.Windows[cat] = append(hours.Windows[cat], models.Window{Weekday: wd, Start: start, End: end})
			}
		}
	}
	return hours, nil
}

// Load reads the YAML file at path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes cfg atomically through a temp file in the same directory
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}
	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+constants.AppName+"-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}
