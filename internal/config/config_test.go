package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	conf, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", conf.Addr)
	assert.Equal(t, "sqlite", conf.Database.Driver)
	assert.Equal(t, "gradebook.db", conf.Database.Path)
	assert.Equal(t, []string{"http://localhost:3000"}, conf.AllowedOrigins)
	assert.Equal(t, 5*time.Second, conf.Client.Timeout)
	assert.Equal(t, 2, conf.Client.Retries)
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_USER", "grades")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test")
	t.Setenv("API_TIMEOUT", "750ms")
	t.Setenv("API_URL", "http://localhost:9000/")

	conf, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "postgres", conf.Database.Driver)
	assert.Equal(t, "host=db.internal user=grades password=secret dbname=gradebook port=5432 sslmode=disable", conf.Database.DSN())
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, conf.AllowedOrigins)
	assert.Equal(t, 750*time.Millisecond, conf.Client.Timeout)
	assert.Equal(t, "http://localhost:9000", conf.Client.BaseURL)
}

func TestLoadDotEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env.test")
	require.NoError(t, os.WriteFile(path, []byte("ADDR=:9999\nUPLOAD_DIR=/tmp/grades\n"), 0644))
	t.Cleanup(func() {
		os.Unsetenv("ADDR")
		os.Unsetenv("UPLOAD_DIR")
	})

	conf, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9999", conf.Addr)
	assert.Equal(t, "/tmp/grades", conf.UploadDir)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "oracle")
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}
