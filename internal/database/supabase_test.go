package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSupabaseConfig_Validate(t *testing.T) {
	assert.Error(t, SupabaseConfig{AnonKey: "k"}.Validate())
	assert.Error(t, SupabaseConfig{URL: "https://abc.supabase.co"}.Validate())
	assert.Error(t, SupabaseConfig{URL: "abc.supabase.co", AnonKey: "k"}.Validate())
	assert.NoError(t, SupabaseConfig{URL: "https://abc.supabase.co", AnonKey: "k"}.Validate())
}

func TestNewSupabaseClient(t *testing.T) {
	client, err := NewSupabaseClient(SupabaseConfig{URL: "https://abc.supabase.co", AnonKey: "k", Schema: "authz"}, zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, client.GetClient())
	assert.Equal(t, "abc.supabase.co", client.host)

	_, err = NewSupabaseClient(SupabaseConfig{}, nil)
	assert.Error(t, err)
}
