// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyDefaultsCommentOnlyIsTrueWhenOmitted(t *testing.T) {
	var cfg BotConfig
	cfg.ApplyDefaults()

	require.NotNil(t, cfg.Market.CommentOnly)
	assert.True(t, *cfg.Market.CommentOnly, "trading must be opted into explicitly")
	assert.True(t, cfg.Market.IsCommentOnly())
}

func TestApplyDefaultsKeepsExplicitCommentOnlyFalse(t *testing.T) {
	var cfg BotConfig
	commentOnly := false
	cfg.Market.CommentOnly = &commentOnly
	cfg.ApplyDefaults()

	require.NotNil(t, cfg.Market.CommentOnly)
	assert.False(t, *cfg.Market.CommentOnly)
	assert.False(t, cfg.Market.IsCommentOnly())
}

func TestIsCommentOnlyTreatsUnsetAsTrue(t *testing.T) {
	var m MarketConfig
	assert.True(t, m.IsCommentOnly())
}

func TestValidateRequiresSlugAndKey(t *testing.T) {
	var cfg BotConfig
	cfg.ApplyDefaults()

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "market.slug")

	cfg.Market.Slug = "jianxiawo-2026"
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "market.api_key")

	cfg.Market.APIKey = "k"
	assert.NoError(t, cfg.Validate())
}
