package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("FACILITY_STRING", "value")
	t.Setenv("FACILITY_INT", "42")
	t.Setenv("FACILITY_BAD_INT", "forty-two")
	t.Setenv("FACILITY_FLOAT", "2.5")

	assert.Equal(t, "value", GetEnv("FACILITY_STRING", "default"))
	assert.Equal(t, "default", GetEnv("FACILITY_UNSET", "default"))
	assert.Equal(t, 42, GetEnvInt("FACILITY_INT", 1))
	assert.Equal(t, 1, GetEnvInt("FACILITY_BAD_INT", 1))
	assert.Equal(t, 7, GetEnvInt("FACILITY_UNSET", 7))
	assert.Equal(t, 2.5, GetEnvFloat("FACILITY_FLOAT", 1))
}

func TestDSN(t *testing.T) {
	cfg := &DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "facility", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=facility sslmode=disable", cfg.GetDSN())
}
