package commands

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"git.home.luguber.info/inful/venuestatus/internal/config"
	"git.home.luguber.info/inful/venuestatus/internal/lifecycle"
	"git.home.luguber.info/inful/venuestatus/internal/persistence"
	"git.home.luguber.info/inful/venuestatus/internal/schedule"
	"git.home.luguber.info/inful/venuestatus/internal/subscriptions"
	"git.home.luguber.info/inful/venuestatus/internal/venue"
)

// SeedCmd implements the 'seed' command.
type SeedCmd struct {
	File string `arg:"" help:"YAML file with venues and favorites" type:"existingfile"`
}

// seedFile is the on-disk layout read by seed and evaluate.
type seedFile struct {
	Venues    []seedVenue    `yaml:"venues"`
	Favorites []seedFavorite `yaml:"favorites"`
}

type seedVenue struct {
	ID             string       `yaml:"id"`
	Name           string       `yaml:"name"`
	OwnerID        string       `yaml:"owner_id"`
	Status         venue.Status `yaml:"status"`
	FollowSchedule bool         `yaml:"follow_schedule"`
	Schedule       seedSchedule `yaml:"schedule"`
}

type seedSchedule struct {
	TimeZone string    `yaml:"time_zone"`
	Days     []seedDay `yaml:"days"`
}

type seedDay struct {
	Day       string          `yaml:"day"`
	OpensAt   venue.TimeOfDay `yaml:"opens_at"`
	ClosesAt  venue.TimeOfDay `yaml:"closes_at"`
	Overnight bool            `yaml:"overnight"`
}

type seedFavorite struct {
	DeviceID string `yaml:"device_id"`
	VenueID  string `yaml:"venue_id"`
}

func readSeedFile(path string) (*seedFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return &f, nil
}

func parseWeekday(raw string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(raw))
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if name == full || name == full[:3] {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", raw)
}

func (s seedSchedule) build() (venue.WeeklySchedule, error) {
	seen := make(map[time.Weekday]bool, len(s.Days))
	programs := make([]venue.DayProgram, 0, len(s.Days))
	for _, d := range s.Days {
		day, err := parseWeekday(d.Day)
		if err != nil {
			return venue.WeeklySchedule{}, err
		}
		if seen[day] {
			return venue.WeeklySchedule{}, fmt.Errorf("%s listed twice", day)
		}
		seen[day] = true
		programs = append(programs, venue.DayProgram{
			Day:       day,
			Open:      true,
			OpensAt:   d.OpensAt,
			ClosesAt:  d.ClosesAt,
			Overnight: d.Overnight,
		})
	}
	ws := venue.NewWeeklySchedule(s.TimeZone, programs...)
	if err := ws.Validate(); err != nil {
		return venue.WeeklySchedule{}, err
	}
	return ws, nil
}

// build turns a seed entry into a venue as it stands at now. Soon statuses
// arm their auto-transition the same way an owner request would.
func (s seedVenue) build(m *lifecycle.Machine, now time.Time) (venue.Venue, error) {
	if s.ID == "" || s.OwnerID == "" {
		return venue.Venue{}, fmt.Errorf("venue %q: id and owner_id are required", s.ID)
	}
	ws, err := s.Schedule.build()
	if err != nil {
		return venue.Venue{}, fmt.Errorf("venue %s: %w", s.ID, err)
	}
	v := venue.Venue{
		ID:          s.ID,
		Name:        s.Name,
		OwnerID:     s.OwnerID,
		Mode:        venue.Manual{Status: venue.StatusClosed},
		Schedule:    ws,
		LastUpdated: now,
	}
	switch {
	case s.FollowSchedule:
		m.FollowSchedule(&v, now)
	case s.Status != "":
		if _, err := m.SetManualStatus(&v, s.Status, now); err != nil {
			return venue.Venue{}, fmt.Errorf("venue %s: %w", s.ID, err)
		}
	}
	return v, nil
}

func newMachine(cfg *config.Config) *lifecycle.Machine {
	return lifecycle.NewMachine(
		schedule.NewEvaluator(cfg.Engine.OpeningSoonWindow.D(), cfg.Engine.ClosingSoonWindow.D()),
		cfg.Engine.AutoTransitionDelay.D(),
	)
}

func (s *SeedCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root)
	if err != nil {
		return err
	}
	f, err := readSeedFile(s.File)
	if err != nil {
		return err
	}
	n, err := seed(context.Background(), cfg, f, time.Now())
	if err != nil {
		return err
	}
	fmt.Printf("Seeded %d venues and %d favorites into %s\n", n, len(f.Favorites), cfg.Storage.Database)
	return nil
}

func seed(ctx context.Context, cfg *config.Config, f *seedFile, now time.Time) (int, error) {
	machine := newMachine(cfg)
	venues := make([]venue.Venue, 0, len(f.Venues))
	for _, sv := range f.Venues {
		v, err := sv.build(machine, now)
		if err != nil {
			return 0, err
		}
		venues = append(venues, v)
	}

	store, err := persistence.NewSQLiteStore(cfg.Storage.Database)
	if err != nil {
		return 0, err
	}
	defer func() { _ = store.Close() }()
	favorites, err := subscriptions.NewSQLiteStoreFromDB(store.DB())
	if err != nil {
		return 0, err
	}

	for _, v := range venues {
		if err := store.Save(ctx, v); err != nil {
			return 0, err
		}
	}
	for _, fav := range f.Favorites {
		if err := favorites.Favorite(ctx, fav.DeviceID, fav.VenueID); err != nil {
			return 0, fmt.Errorf("favorite %s/%s: %w", fav.DeviceID, fav.VenueID, err)
		}
	}
	return len(venues), nil
}
