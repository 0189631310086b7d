package gravatar

import (
	"testing"

	"github.com/jon4hz/humanorai/internal/config"
	"github.com/stretchr/testify/assert"
)

const exampleHash = "973dfe463ec85785f5f95af5ba3906eedb2d931c24e69824a89ea65dba4e813b"

func TestURL(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		config   *config.GravatarConfig
		expected string
	}{
		{
			name:     "nil config",
			email:    "test@example.com",
			expected: "",
		},
		{
			name:     "disabled",
			email:    "test@example.com",
			config:   &config.GravatarConfig{Enabled: false},
			expected: "",
		},
		{
			name:     "blank email",
			email:    "   ",
			config:   &config.GravatarConfig{Enabled: true},
			expected: "",
		},
		{
			name:     "no options",
			email:    "test@example.com",
			config:   &config.GravatarConfig{Enabled: true},
			expected: "https://www.gravatar.com/avatar/" + exampleHash,
		},
		{
			name:  "all options with normalization",
			email: "  TEST@Example.com ",
			config: &config.GravatarConfig{
				Enabled:      true,
				DefaultImage: "identicon",
				Rating:       "pg",
				Size:         120,
			},
			expected: "https://www.gravatar.com/avatar/" + exampleHash + "?d=identicon&r=pg&s=120",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, URL(tt.email, tt.config))
		})
	}
}

func TestHash(t *testing.T) {
	assert.Equal(t, exampleHash, Hash("test@example.com"))
	assert.Equal(t, Hash("test@example.com"), Hash(" Test@Example.COM"))
}
