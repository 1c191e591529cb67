package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()
	assert.Equal(t, "local", cfg.StorageDriver)
	assert.Equal(t, int64(2<<20), cfg.MaxEvidenceBytes)
	assert.Equal(t, 30*time.Minute, cfg.ResetTokenTTL)
	assert.Equal(t, "reports", cfg.ESReportsIndex)
	assert.False(t, cfg.MailSendEnabled)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "S3")
	t.Setenv("MAX_EVIDENCE_BYTES", "1024")
	t.Setenv("JWT_ACCESS_TTL", "15m")
	t.Setenv("MAIL_SEND_ENABLED", "true")
	t.Setenv("DB_MAX_CONNS", "not-a-number")

	cfg := Load()
	assert.Equal(t, "s3", cfg.StorageDriver)
	assert.Equal(t, int64(1024), cfg.MaxEvidenceBytes)
	assert.Equal(t, 15*time.Minute, cfg.AccessTTL)
	assert.True(t, cfg.MailSendEnabled)
	assert.Equal(t, int32(10), cfg.DBMaxConns)
}

func TestLocation(t *testing.T) {
	cases := map[string]string{
		"UTC":          "UTC",
		"Asia/Jakarta": "Asia/Jakarta",
		"Mars/Olympus": "UTC",
	}
	for tz, want := range cases {
		t.Run(tz, func(t *testing.T) {
			cfg := &Config{AppTimezone: tz}
			assert.Equal(t, want, cfg.Location().String())
		})
	}
}

func TestLists(t *testing.T) {
	cfg := &Config{
		CORSAllowedOrigins: " http://a.test, ,http://b.test",
		ElasticsearchAddrs: "http://es:9200",
	}
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSOrigins())
	assert.Equal(t, []string{"http://es:9200"}, cfg.ESAddrs())
	assert.Equal(t, "postgres://u:p@h:1/d?sslmode=disable", (&Config{
		DBUser: "u", DBPassword: "p", DBHost: "h", DBPort: "1", DBName: "d", DBSSLMode: "disable",
	}).PostgresDSN())
}
