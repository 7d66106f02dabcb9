package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"RegionAccess-App/internal/domain/model"
)

func envOf(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv(envOf(nil))
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, model.DenyAll, cfg.Authorizer.Policy)
	assert.Equal(t, 15*time.Second, cfg.Authorizer.LoadTimeout)
	assert.Equal(t, "india-boundary.geojson", cfg.Authorizer.National.Name)
	assert.Equal(t, "india.json", cfg.Authorizer.Regional[model.RegionLevelState].Name)
	assert.Equal(t, AccessListStatic, cfg.AccessListBackend)
	assert.Equal(t, InfraMemory, cfg.InfraBackend)
	assert.Equal(t, 5*time.Minute, cfg.AccessListCacheTTL)
	assert.False(t, cfg.NeedsPostgres())
	assert.Equal(t, []model.RegionLevel{
		model.RegionLevelState, model.RegionLevelDistrict, model.RegionLevelSubdistrict,
	}, cfg.WarmupLevels())
}

func TestFromEnv_Overrides(t *testing.T) {
	cfg, err := FromEnv(envOf(map[string]string{
		"ON_MISSING_ACCESS_LIST": "allow_all",
		"BOUNDARY_LOAD_TIMEOUT":  "3s",
		"DISTRICT_DATASET":       "districts.geojson",
		"ACCESS_LIST_BACKEND":    "Postgres",
		"REDIS_DB":               "2",
	}))
	require.NoError(t, err)

	assert.Equal(t, model.AllowAll, cfg.Authorizer.Policy)
	assert.Equal(t, 3*time.Second, cfg.Authorizer.LoadTimeout)
	assert.Equal(t, "districts.geojson", cfg.Authorizer.Regional[model.RegionLevelDistrict].Name)
	assert.Equal(t, []string{"dtname", "name"}, cfg.Authorizer.Regional[model.RegionLevelDistrict].NameKeys)
	assert.Equal(t, AccessListPostgres, cfg.AccessListBackend)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.True(t, cfg.NeedsPostgres())
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "policy", env: map[string]string{"ON_MISSING_ACCESS_LIST": "maybe"}},
		{name: "timeout", env: map[string]string{"BOUNDARY_LOAD_TIMEOUT": "soon"}},
		{name: "negative timeout", env: map[string]string{"BOUNDARY_LOAD_TIMEOUT": "-1s"}},
		{name: "access list backend", env: map[string]string{"ACCESS_LIST_BACKEND": "ldap"}},
		{name: "infra backend", env: map[string]string{"INFRA_BACKEND": "s3"}},
		{name: "redis db", env: map[string]string{"REDIS_DB": "one"}},
		{name: "supabase without key", env: map[string]string{"ACCESS_LIST_BACKEND": "supabase", "SUPABASE_URL": "https://abc.supabase.co"}},
		{name: "supabase bad url", env: map[string]string{"ACCESS_LIST_BACKEND": "supabase", "SUPABASE_URL": "abc", "SUPABASE_ANON_KEY": "k"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := FromEnv(envOf(tt.env))
			assert.Error(t, err)
		})
	}
}

func TestFromEnv_Supabase(t *testing.T) {
	cfg, err := FromEnv(envOf(map[string]string{
		"ACCESS_LIST_BACKEND": "supabase",
		"SUPABASE_URL":        "https://abc.supabase.co",
		"SUPABASE_ANON_KEY":   "anon",
		"SUPABASE_SCHEMA":     "authz",
	}))
	require.NoError(t, err)
	assert.Equal(t, AccessListSupabase, cfg.AccessListBackend)
	assert.Equal(t, "https://abc.supabase.co", cfg.Supabase.URL)
	assert.Equal(t, "anon", cfg.Supabase.AnonKey)
	assert.Equal(t, "authz", cfg.Supabase.Schema)
	assert.False(t, cfg.NeedsPostgres())
}
