package internal

import (
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"
)

const (
	StoreMemory = "memory"
	StoreBadger = "badger"
)

type Config struct {
	Host                 string        `env:"HOST,default=0.0.0.0"`
	Port                 int           `env:"PORT,default=4000"`
	AllowedOrigins       string        `env:"ALLOWED_ORIGINS,default=http://localhost:3000"`
	LogLevel             string        `env:"LOG_LEVEL,default=INFO"`
	BufferSize           int           `env:"BUFFER_SIZE,default=1024"`
	ConnectionBufferSize int           `env:"CONNECTION_BUFFER_SIZE,default=256"`
	RestartInterval      time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	StoreBackend         string        `env:"STORE_BACKEND,default=memory"`
	LimitMessages        *int          `env:"LIMIT_MESSAGES"`
	MessageTTL           time.Duration `env:"MESSAGE_TTL,default=0s"`
	MaxContentLength     int           `env:"MAX_CONTENT_LENGTH,default=0"`
	MaxFrameSize         int           `env:"MAX_FRAME_SIZE,default=1048576"`
	EnableModeration     bool          `env:"ENABLE_MODERATION,default=false"`
	CharReplacement      string        `env:"CHARACTER_REPLACEMENT,default=*"`
	MetricInterval       time.Duration `env:"METRIC_INTERVAL,default=30s"`
	LowCapacityThreshold int           `env:"LOW_CAPACITY_THRESHOLD,default=80"`
	HealthPort           int           `env:"HEALTH_PORT,default=0"`
}

// Origins splits ALLOWED_ORIGINS on commas, dropping blanks.
func (c Config) Origins() []string {
	return lo.Compact(lo.Map(strings.Split(c.AllowedOrigins, ","), func(origin string, _ int) string {
		return strings.TrimSpace(origin)
	}))
}

func (c Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// frameOverhead covers the envelope and the other privateMessage fields around the content.
const frameOverhead = 4 * 1024

// maxEncodedRune is a rune outside the BMP written as a JSON surrogate pair escape.
const maxEncodedRune = 12

// FrameLimit is the websocket read limit in bytes. It never rejects a frame whose
// content fits MAX_CONTENT_LENGTH.
func (c Config) FrameLimit() int64 {
	limit := int64(c.MaxFrameSize)
	if c.MaxContentLength > 0 {
		limit = max(limit, int64(c.MaxContentLength)*maxEncodedRune+frameOverhead)
	}
	return limit
}

func CharacterRune(str string) (rune, error) {
	r := []rune(str)
	if len(r) != 1 {
		return 0, fmt.Errorf(
			"CHARACTER_REPLACEMENT must be a single character, got %q",
			str,
		)
	}
	return r[0], nil
}
