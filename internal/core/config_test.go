package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldops/demo-scheduler/internal/domain/model"
)

func TestParseTimeOfDay(t *testing.T) {
	got, err := ParseTimeOfDay("10:15")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay{Hour: 10, Minute: 15}, got)

	got, err = ParseTimeOfDay(" 09:05 ")
	require.NoError(t, err)
	assert.Equal(t, TimeOfDay{Hour: 9, Minute: 5}, got)

	for _, bad := range []string{"", "10", "10:", "24:00", "10:60", "ten:15"} {
		_, err := ParseTimeOfDay(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestTimeOfDayOn(t *testing.T) {
	date := time.Date(2026, 3, 6, 22, 10, 0, 0, time.UTC)
	at := TimeOfDay{Hour: 10, Minute: 15}.On(date)
	assert.Equal(t, time.Date(2026, 3, 6, 10, 15, 0, 0, time.UTC), at)
}

func TestEngineConfigSanitize(t *testing.T) {
	cfg := EngineConfig{MaxCorePerDay: -1, MaxBumpsPerEvent: 0}
	cfg.Sanitize()
	def := DefaultEngineConfig()

	assert.Equal(t, def.MaxCorePerDay, cfg.MaxCorePerDay)
	assert.Equal(t, def.MaxCorePerWeek, cfg.MaxCorePerWeek)
	assert.Equal(t, def.MaxBumpsPerEvent, cfg.MaxBumpsPerEvent)
	assert.NotNil(t, cfg.Location)
	assert.Len(t, cfg.CoreSlots, 8)
	assert.Len(t, cfg.SundayCoreSlots, 2)

	// Explicit values survive.
	cfg = EngineConfig{MaxCorePerWeek: 4}
	cfg.Sanitize()
	assert.Equal(t, 4, cfg.MaxCorePerWeek)
}

func TestCoreSlotsFor(t *testing.T) {
	cfg := DefaultEngineConfig()

	// 2026-03-01 is a Sunday.
	sunday := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, cfg.SundayCoreSlots, cfg.CoreSlotsFor(sunday))
	assert.Equal(t, cfg.CoreSlots, cfg.CoreSlotsFor(sunday.AddDate(0, 0, 1)))
}

func TestJuicerTimeFor(t *testing.T) {
	cfg := DefaultEngineConfig()
	assert.Equal(t, cfg.JuicerProductionTime, cfg.JuicerTimeFor(model.EventTypeJuicerProduction))
	assert.Equal(t, cfg.JuicerProductionTime, cfg.JuicerTimeFor(model.EventTypeJuicerDeepClean))
	assert.Equal(t, cfg.JuicerSurveyTime, cfg.JuicerTimeFor(model.EventTypeJuicerSurvey))
}
