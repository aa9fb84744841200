package models

// ShortcutSettings maps editor actions to key chords.
type ShortcutSettings struct {
	Save                 string `json:"save,omitempty" mapstructure:"save" jsonschema:"description=Save the current file"`
	NewFile              string `json:"newFile,omitempty" mapstructure:"newFile" jsonschema:"description=Create a new file"`
	OpenFile             string `json:"openFile,omitempty" mapstructure:"openFile" jsonschema:"description=Open a file"`
	ToggleSidebar        string `json:"toggleSidebar,omitempty" mapstructure:"toggleSidebar" jsonschema:"description=Show or hide the sidebar"`
	ToggleCommandPalette string `json:"toggleCommandPalette,omitempty" mapstructure:"toggleCommandPalette" jsonschema:"description=Open the command palette"`
}

// SettingsData is the typed view of the settings store. The store itself is
// schema-free; this shape is only applied when reading through Typed.
type SettingsData struct {
	Theme              string           `json:"theme,omitempty" mapstructure:"theme" jsonschema:"enum=light,enum=dark,enum=system,description=Color theme"`
	Locale             string           `json:"locale,omitempty" mapstructure:"locale" jsonschema:"description=UI language tag (e.g. en)"`
	FontSize           int              `json:"fontSize,omitempty" mapstructure:"fontSize" jsonschema:"minimum=6,maximum=72,description=Editor font size in pixels"`
	LineHeight         float64          `json:"lineHeight,omitempty" mapstructure:"lineHeight" jsonschema:"minimum=1,maximum=3,description=Editor line height multiplier"`
	TabWidth           int              `json:"tabWidth,omitempty" mapstructure:"tabWidth" jsonschema:"minimum=1,maximum=16,description=Spaces per tab"`
	ShowLineNumbers    bool             `json:"showLineNumbers" mapstructure:"showLineNumbers"`
	WordWrap           bool             `json:"wordWrap" mapstructure:"wordWrap"`
	SpellCheck         bool             `json:"spellCheck" mapstructure:"spellCheck"`
	AutosaveEnabled    bool             `json:"autosaveEnabled" mapstructure:"autosaveEnabled"`
	AutosaveInterval   int              `json:"autosaveInterval,omitempty" mapstructure:"autosaveInterval" jsonschema:"minimum=1,description=Seconds between autosaves"`
	Shortcuts          ShortcutSettings `json:"shortcuts" mapstructure:"shortcuts"`
	RememberWindowSize bool             `json:"rememberWindowSize" mapstructure:"rememberWindowSize"`
	ShowMinimap        bool             `json:"showMinimap" mapstructure:"showMinimap"`
}

// DefaultSettings returns the settings a fresh install starts with.
func DefaultSettings() SettingsData {
	return SettingsData{
		Theme:            "system",
		Locale:           "en",
		FontSize:         16,
		LineHeight:       1.6,
		TabWidth:         4,
		ShowLineNumbers:  false,
		WordWrap:         true,
		SpellCheck:       false,
		AutosaveEnabled:  true,
		AutosaveInterval: 5,
		Shortcuts: ShortcutSettings{
			Save:                 "mod+s",
			NewFile:              "mod+n",
			OpenFile:             "mod+o",
			ToggleSidebar:        "mod+b",
			ToggleCommandPalette: "mod+shift+p",
		},
		RememberWindowSize: true,
		ShowMinimap:        false,
	}
}
