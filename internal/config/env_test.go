package config

import (
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnvFallsBackOnBadValues(t *testing.T) {
	hook := logtest.NewGlobal()
	defer hook.Reset()

	t.Setenv("SEAT_LOCK_TIMEOUT", "soon")
	t.Setenv("BOOKING_RETRIES", "-2")
	t.Setenv("TIMEZONE", "Mars/Olympus_Mons")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example;")

	env := LoadEnv()
	assert.Equal(t, 5*time.Second, env.SeatLockTimeout)
	assert.Equal(t, 3, env.BookingRetries)
	assert.Equal(t, time.UTC, env.Timezone)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, env.CORSOrigins)

	var warned []string
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			key, _ := e.Data["key"].(string)
			warned = append(warned, key)
		}
	}
	assert.ElementsMatch(t, []string{"SEAT_LOCK_TIMEOUT", "BOOKING_RETRIES", ""}, warned, "timezone warning carries no key")
}

func TestDSN(t *testing.T) {
	dsn := DSN(Env{DBHost: "db", DBPort: "3307", DBUser: "app", DBPass: "pw", DBName: "bookbus"})
	require.True(t, strings.HasPrefix(dsn, "app:pw@tcp(db:3307)/bookbus?"), dsn)
	assert.Contains(t, dsn, "parseTime=true")
}
