package theme

// Name identifies a color theme.
type Name string

const (
	Clinical    Name = "clinical"
	Healthcare  Name = "healthcare"
	Medical     Name = "medical"
	Wellness    Name = "wellness"
	Therapeutic Name = "therapeutic"

	Default = Clinical
)

// Palette is the set of colors a theme assigns to UI roles.
type Palette struct {
	Primary       string `json:"primary"`
	Secondary     string `json:"secondary"`
	Tertiary      string `json:"tertiary"`
	Accent        string `json:"accent"`
	Success       string `json:"success"`
	Warning       string `json:"warning"`
	Error         string `json:"error"`
	Info          string `json:"info"`
	Background    string `json:"background"`
	Surface       string `json:"surface"`
	CardBg        string `json:"cardBg"`
	Text          string `json:"text"`
	TextSecondary string `json:"textSecondary"`
	TextMuted     string `json:"textMuted"`
	Border        string `json:"border"`
	BorderLight   string `json:"borderLight"`
}

// roles pairs each CSS role key with its color, in declaration order.
func (p Palette) roles() [][2]string {
	return [][2]string{
		{"primary", p.Primary},
		{"secondary", p.Secondary},
		{"tertiary", p.Tertiary},
		{"accent", p.Accent},
		{"success", p.Success},
		{"warning", p.Warning},
		{"error", p.Error},
		{"info", p.Info},
		{"background", p.Background},
		{"surface", p.Surface},
		{"cardBg", p.CardBg},
		{"text", p.Text},
		{"textSecondary", p.TextSecondary},
		{"textMuted", p.TextMuted},
		{"border", p.Border},
		{"borderLight", p.BorderLight},
	}
}

// Theme is a named palette with display metadata.
type Theme struct {
	Key         Name    `json:"key"`
	Label       string  `json:"name"`
	Description string  `json:"description"`
	Colors      Palette `json:"colors"`
}

var themes = []Theme{
	{
		Key:         Clinical,
		Label:       "Clinical Blue",
		Description: "Professional medical interface",
		Colors: Palette{
			Primary: "#2563eb", Secondary: "#64748b", Tertiary: "#0ea5e9", Accent: "#7c3aed",
			Success: "#059669", Warning: "#d97706", Error: "#dc2626", Info: "#0284c7",
			Background: "#f8fafc", Surface: "#ffffff", CardBg: "#f1f5f9",
			Text: "#1e293b", TextSecondary: "#475569", TextMuted: "#64748b",
			Border: "#e2e8f0", BorderLight: "#f1f5f9",
		},
	},
	{
		Key:         Healthcare,
		Label:       "Healthcare Green",
		Description: "Natural and calming",
		Colors: Palette{
			Primary: "#16a34a", Secondary: "#475569", Tertiary: "#059669", Accent: "#0891b2",
			Success: "#22c55e", Warning: "#f59e0b", Error: "#ef4444", Info: "#06b6d4",
			Background: "#ffffff", Surface: "#f9fafb", CardBg: "#f0fdf4",
			Text: "#0f172a", TextSecondary: "#374151", TextMuted: "#6b7280",
			Border: "#d1d5db", BorderLight: "#e5e7eb",
		},
	},
	{
		Key:         Medical,
		Label:       "Medical Navy",
		Description: "Trust and reliability",
		Colors: Palette{
			Primary: "#1e40af", Secondary: "#6b7280", Tertiary: "#1d4ed8", Accent: "#06b6d4",
			Success: "#10b981", Warning: "#f97316", Error: "#f87171", Info: "#3b82f6",
			Background: "#f1f5f9", Surface: "#ffffff", CardBg: "#f8fafc",
			Text: "#334155", TextSecondary: "#475569", TextMuted: "#94a3b8",
			Border: "#cbd5e1", BorderLight: "#e2e8f0",
		},
	},
	{
		Key:         Wellness,
		Label:       "Wellness Purple",
		Description: "Modern and innovative",
		Colors: Palette{
			Primary: "#7c3aed", Secondary: "#6b7280", Tertiary: "#8b5cf6", Accent: "#06b6d4",
			Success: "#059669", Warning: "#ea580c", Error: "#dc2626", Info: "#0284c7",
			Background: "#fafafa", Surface: "#ffffff", CardBg: "#faf5ff",
			Text: "#374151", TextSecondary: "#4b5563", TextMuted: "#6b7280",
			Border: "#d1d5db", BorderLight: "#e5e7eb",
		},
	},
	{
		Key:         Therapeutic,
		Label:       "Therapeutic Teal",
		Description: "Calming and healing",
		Colors: Palette{
			Primary: "#0d9488", Secondary: "#64748b", Tertiary: "#14b8a6", Accent: "#7c3aed",
			Success: "#22c55e", Warning: "#f59e0b", Error: "#ef4444", Info: "#06b6d4",
			Background: "#f0fdfa", Surface: "#ffffff", CardBg: "#f0fdf4",
			Text: "#134e4a", TextSecondary: "#374151", TextMuted: "#6b7280",
			Border: "#a7f3d0", BorderLight: "#d1fae5",
		},
	},
}

// All returns every available theme in display order.
func All() []Theme {
	out := make([]Theme, len(themes))
	copy(out, themes)
	return out
}

// Lookup finds a theme by key.
func Lookup(name Name) (Theme, bool) {
	for _, t := range themes {
		if t.Key == name {
			return t, true
		}
	}
	return Theme{}, false
}
