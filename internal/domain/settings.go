package domain

// Theme selects the UI color scheme.
type Theme string

// Recognized themes.
const (
	ThemeSystem Theme = "system"
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
)

// ClipboardFormat selects how copied tabs are rendered.
type ClipboardFormat string

// Recognized clipboard formats.
const (
	ClipboardURLs     ClipboardFormat = "urls"
	ClipboardMarkdown ClipboardFormat = "markdown"
	ClipboardHTML     ClipboardFormat = "html"
)

// Settings is the flat per-installation configuration object.
type Settings struct {
	Theme           Theme           `json:"theme"`
	AIProvider      string          `json:"aiProvider,omitempty"`
	AIAPIKey        string          `json:"aiApiKey,omitempty"`
	AIBaseURL       string          `json:"aiBaseUrl,omitempty"`
	AIModel         string          `json:"aiModel,omitempty"`
	ClipboardFormat ClipboardFormat `json:"clipboardFormat"`
	OnboardingDone  bool            `json:"onboardingDone,omitempty"`
	DisableListSync bool            `json:"disableListSync,omitempty"`
}

// DefaultSettings returns the settings applied to a fresh installation and
// merged under any persisted partial state on load.
func DefaultSettings() Settings {
	return Settings{
		Theme:           ThemeSystem,
		ClipboardFormat: ClipboardURLs,
	}
}

// SettingsPatch is a partial settings update. Nil fields are left unchanged;
// patches merge shallowly per the settings contract.
type SettingsPatch struct {
	Theme           *Theme           `json:"theme,omitempty"`
	AIProvider      *string          `json:"aiProvider,omitempty"`
	AIAPIKey        *string          `json:"aiApiKey,omitempty"`
	AIBaseURL       *string          `json:"aiBaseUrl,omitempty"`
	AIModel         *string          `json:"aiModel,omitempty"`
	ClipboardFormat *ClipboardFormat `json:"clipboardFormat,omitempty"`
	OnboardingDone  *bool            `json:"onboardingDone,omitempty"`
	DisableListSync *bool            `json:"disableListSync,omitempty"`
}

// Apply merges the patch into s.
func (p *SettingsPatch) Apply(s *Settings) {
	if p.Theme != nil {
		s.Theme = *p.Theme
	}
	if p.AIProvider != nil {
		s.AIProvider = *p.AIProvider
	}
	if p.AIAPIKey != nil {
		s.AIAPIKey = *p.AIAPIKey
	}
	if p.AIBaseURL != nil {
		s.AIBaseURL = *p.AIBaseURL
	}
	if p.AIModel != nil {
		s.AIModel = *p.AIModel
	}
	if p.ClipboardFormat != nil {
		s.ClipboardFormat = *p.ClipboardFormat
	}
	if p.OnboardingDone != nil {
		s.OnboardingDone = *p.OnboardingDone
	}
	if p.DisableListSync != nil {
		s.DisableListSync = *p.DisableListSync
	}
}

// Valid reports whether enumerated options carry recognized values.
func (s *Settings) Valid() bool {
	switch s.Theme {
	case ThemeSystem, ThemeLight, ThemeDark:
	default:
		return false
	}
	switch s.ClipboardFormat {
	case ClipboardURLs, ClipboardMarkdown, ClipboardHTML:
	default:
		return false
	}
	return true
}
