package models

// Theme is the persisted UI theme.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// DefaultTheme applies until the user picks one.
const DefaultTheme = ThemeLight

// ParseTheme validates s. Anything other than "dark" or "light" is rejected.
func ParseTheme(s string) (Theme, bool) {
	switch Theme(s) {
	case ThemeLight, ThemeDark:
		return Theme(s), true
	}
	return "", false
}

// ThemeOrDefault returns the theme for s, falling back to ThemeLight.
func ThemeOrDefault(s string) Theme {
	if t, ok := ParseTheme(s); ok {
		return t
	}
	return DefaultTheme
}

// ThemeClass derives the CSS class applied to the dashboard root.
func ThemeClass(t Theme) string {
	if t == ThemeDark {
		return "theme-dark"
	}
	return "theme-light"
}

// ThemeTokens is a read-only snapshot of the colors the chart draws with.
type ThemeTokens struct {
	Text       string `json:"text"`
	Muted      string `json:"muted"`
	BorderDark string `json:"border_dark"`
	BorderMid  string `json:"border_mid"`
	PanelBg    string `json:"panel_bg"`
	ChartBg    string `json:"chart_bg"`
	GridColor  string `json:"grid_color"`
}

var (
	lightTokens = ThemeTokens{
		Text:       "#111827",
		Muted:      "#6b7280",
		BorderDark: "#9ca3af",
		BorderMid:  "#d1d5db",
		PanelBg:    "#f9fafb",
		ChartBg:    "#ffffff",
		GridColor:  "#e5e7eb",
	}
	darkTokens = ThemeTokens{
		Text:       "#f3f4f6",
		Muted:      "#9ca3af",
		BorderDark: "#4b5563",
		BorderMid:  "#374151",
		PanelBg:    "#1e1e1e",
		ChartBg:    "#121212",
		GridColor:  "#222222",
	}
)

// ThemeTokensFor resolves the palette for t.
func ThemeTokensFor(t Theme) ThemeTokens {
	if t == ThemeDark {
		return darkTokens
	}
	return lightTokens
}
