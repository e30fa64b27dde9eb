package conf

import (
	"encoding/json"
	"fmt"
	"time"
)

// Bootstrap is the root of the configuration tree.
type Bootstrap struct {
	Server  *Server  `json:"server"`
	Data    *Data    `json:"data"`
	Auth    *Auth    `json:"auth"`
	Catalog *Catalog `json:"catalog"`
}

type Server struct {
	Http *Server_HTTP `json:"http"`
	Grpc *Server_GRPC `json:"grpc"`
}

type Server_HTTP struct {
	Network string    `json:"network"`
	Addr    string    `json:"addr"`
	Timeout *Duration `json:"timeout"`
}

type Server_GRPC struct {
	Network string    `json:"network"`
	Addr    string    `json:"addr"`
	Timeout *Duration `json:"timeout"`
}

type Data struct {
	Database *Data_Database `json:"database"`
	Redis    *Data_Redis    `json:"redis"`
}

type Data_Database struct {
	Driver      string `json:"driver"`
	Source      string `json:"source"`
	AutoMigrate bool   `json:"auto_migrate"`
}

type Data_Redis struct {
	Addr         string    `json:"addr"`
	Password     string    `json:"password"`
	Db           int       `json:"db"`
	ReadTimeout  *Duration `json:"read_timeout"`
	WriteTimeout *Duration `json:"write_timeout"`
}

// Auth configures token issuance and password hashing.
type Auth struct {
	Secret     string    `json:"secret"`
	Issuer     string    `json:"issuer"`
	TokenTtl   *Duration `json:"token_ttl"`
	BcryptCost int       `json:"bcrypt_cost"`
}

// Catalog configures the upstream movie catalog (TMDB v3 compatible).
type Catalog struct {
	BaseUrl      string    `json:"base_url"`
	ImageBaseUrl string    `json:"image_base_url"`
	ApiKey       string    `json:"api_key"`
	Timeout      *Duration `json:"timeout"`
	MaxRetries   int32     `json:"max_retries"`
	Rps          float64   `json:"rps"`
	Burst        int       `json:"burst"`
	CacheTtl     *Duration `json:"cache_ttl"`
	RefreshAfter *Duration `json:"refresh_after"`
}

// Duration decodes from either a Go duration string ("5s") or integer nanoseconds.
type Duration struct {
	time.Duration
}

// NewDuration wraps d.
func NewDuration(d time.Duration) *Duration {
	return &Duration{Duration: d}
}

// AsDuration returns the wrapped value; a nil receiver yields zero.
func (d *Duration) AsDuration() time.Duration {
	if d == nil {
		return 0
	}
	return d.Duration
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch value := v.(type) {
	case float64:
		d.Duration = time.Duration(value)
	case string:
		parsed, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		d.Duration = parsed
	default:
		return fmt.Errorf("invalid duration: %s", string(b))
	}
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}
