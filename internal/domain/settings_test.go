package domain_test

import (
	"testing"

	"github.com/echotab/echotab-server/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestSettingsPatch_Apply_PartialMerge(t *testing.T) {
	s := domain.DefaultSettings()
	dark := domain.ThemeDark

	patch := domain.SettingsPatch{Theme: &dark}
	patch.Apply(&s)

	assert.Equal(t, domain.ThemeDark, s.Theme)
	// Untouched fields keep their defaults.
	assert.Equal(t, domain.ClipboardURLs, s.ClipboardFormat)
}

func TestSettingsPatch_Apply_ZeroValuesStick(t *testing.T) {
	s := domain.DefaultSettings()
	s.OnboardingDone = true

	off := false
	patch := domain.SettingsPatch{OnboardingDone: &off}
	patch.Apply(&s)

	assert.False(t, s.OnboardingDone)
}

func TestSettings_Valid(t *testing.T) {
	s := domain.DefaultSettings()
	assert.True(t, s.Valid())

	s.Theme = "neon"
	assert.False(t, s.Valid())

	s = domain.DefaultSettings()
	s.ClipboardFormat = "yaml"
	assert.False(t, s.Valid())
}
