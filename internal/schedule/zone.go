package schedule

import (
	"fmt"
	"strings"
	"sync"
	"time"
	_ "time/tzdata"

	"github.com/rs/zerolog"
)

// ZoneCache resolves IANA zone names, falling back to a default zone for
// empty or unknown names. Lookups are cached, including failures, so an
// unknown name is reported once.
type ZoneCache struct {
	def *time.Location
	log zerolog.Logger

	mu    sync.RWMutex
	zones map[string]*time.Location
}

func NewZoneCache(defaultZone string, log zerolog.Logger) (*ZoneCache, error) {
	loc, err := time.LoadLocation(defaultZone)
	if err != nil {
		return nil, fmt.Errorf("load default zone: %w", err)
	}
	return &ZoneCache{
		def:   loc,
		log:   log.With().Str("component", "zones").Logger(),
		zones: make(map[string]*time.Location),
	}, nil
}

// Default returns the fallback zone.
func (z *ZoneCache) Default() *time.Location {
	return z.def
}

// Resolve returns the zone for name. ok is false when the default was used
// because name was empty or could not be loaded.
func (z *ZoneCache) Resolve(name string) (loc *time.Location, ok bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return z.def, false
	}

	z.mu.RLock()
	loc, cached := z.zones[name]
	z.mu.RUnlock()
	if cached {
		return z.orDefault(loc)
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		loc = nil
	}
	z.mu.Lock()
	_, raced := z.zones[name]
	z.zones[name] = loc
	z.mu.Unlock()
	if loc == nil && !raced {
		z.log.Warn().Err(err).Str("timezone", name).Str("fallback", z.def.String()).Msg("unknown timezone, using default")
	}
	return z.orDefault(loc)
}

func (z *ZoneCache) orDefault(loc *time.Location) (*time.Location, bool) {
	if loc == nil {
		return z.def, false
	}
	return loc, true
}
