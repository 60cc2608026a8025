package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseChannels(t *testing.T) {
	assert.Nil(t, parseChannels(""))
	assert.Nil(t, parseChannels("  "))
	assert.Equal(t, []string{"@a", "-100123", "@b"}, parseChannels("@a, -100123 ,@b,"))
}

func TestParseAdminIDs(t *testing.T) {
	ids, err := parseAdminIDs("1, 2,3")
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids)

	ids, err = parseAdminIDs("")
	require.NoError(t, err)
	assert.Nil(t, ids)

	_, err = parseAdminIDs("1,abc")
	assert.Error(t, err)
}

func TestLoadConfigRequiresEssentialVars(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("MONGODB_URI", "mongodb://localhost")
	t.Setenv("MONGODB_DATABASE", "moviecode")

	_, err := LoadConfig()
	assert.ErrorContains(t, err, "TELEGRAM_BOT_TOKEN")
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("MONGODB_URI", "mongodb://localhost")
	t.Setenv("MONGODB_DATABASE", "moviecode")
	t.Setenv("REQUIRED_CHANNELS", "@chan")
	t.Setenv("ADMIN_IDS", "42")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.True(t, cfg.AdminsExempt)
	assert.Equal(t, "en", cfg.DefaultLanguage)
	assert.Equal(t, []string{"@chan"}, cfg.RequiredChannels)
	assert.Equal(t, []int64{42}, cfg.AdminIDs)
	assert.Equal(t, "dev", cfg.Version)
}
