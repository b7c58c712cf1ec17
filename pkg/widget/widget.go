// Package widget describes the known state types of a flow.
//
// The catalog maps a type tag to a category, a display colour and a display
// name. Types are open-ended: an unknown tag resolves to the default category
// and colour, with a display name derived from the tag itself.
package widget

import (
	"slices"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Category groups widget types by product area.
type Category string

const (
	CategoryFlowControl Category = "flow-control"
	CategoryVoice       Category = "voice"
	CategoryMessaging   Category = "messaging"
	CategoryTools       Category = "tools"
	CategoryConnect     Category = "connect"
	CategorySubflows    Category = "subflows"
	CategoryOther       Category = "other"
)

// Category colours.
const (
	ColorFlowControl = "#ff9800"
	ColorVoice       = "#2196f3"
	ColorMessaging   = "#4caf50"
	ColorTools       = "#e91e63"
	ColorConnect     = "#9c27b0"
	ColorSubflows    = "#3f51b5"
	ColorDefault     = "#78909c"
)

// Info is the presentation data for one widget type.
type Info struct {
	Type        string   `json:"type"`
	Category    Category `json:"category"`
	Color       string   `json:"color"`
	DisplayName string   `json:"display_name"`
	Known       bool     `json:"known"`
}

var categoryColors = map[Category]string{
	CategoryFlowControl: ColorFlowControl,
	CategoryVoice:       ColorVoice,
	CategoryMessaging:   ColorMessaging,
	CategoryTools:       ColorTools,
	CategoryConnect:     ColorConnect,
	CategorySubflows:    ColorSubflows,
	CategoryOther:       ColorDefault,
}

type entry struct {
	category Category
	name     string
}

var catalog = map[string]entry{
	"trigger":        {CategoryFlowControl, "Trigger"},
	"split-based-on": {CategoryFlowControl, "Split Based On..."},
	"set-variables":  {CategoryFlowControl, "Set Variables"},

	"say-play":              {CategoryVoice, "Say/Play"},
	"gather-input-on-call":  {CategoryVoice, "Gather Input On Call"},
	"connect-call-to":       {CategoryVoice, "Connect Call To"},
	"make-outgoing-call":    {CategoryVoice, "Make Outgoing Call"},
	"record-voicemail":      {CategoryVoice, "Record Voicemail"},
	"call-recording":        {CategoryVoice, "Call Recording"},
	"enqueue-call":          {CategoryVoice, "Enqueue Call"},
	"capture-payments":      {CategoryVoice, "Capture Payments"},
	"fork-stream":           {CategoryVoice, "Fork Stream"},
	"connect-virtual-agent": {CategoryVoice, "Connect Virtual Agent"},

	"send-message":            {CategoryMessaging, "Send Message"},
	"send-and-wait-for-reply": {CategoryMessaging, "Send & Wait For Reply"},

	"run-function":   {CategoryTools, "Run Function"},
	"http-request":   {CategoryTools, "Make HTTP Request"},
	"twiml-redirect": {CategoryTools, "TwiML Redirect"},

	"send-to-flex":         {CategoryConnect, "Send To Flex"},
	"search-for-a-profile": {CategoryConnect, "Search For A Profile"},

	"run-subflow": {CategorySubflows, "Run Subflow"},
}

// Lookup returns presentation data for typ. It never fails.
func Lookup(typ string) Info {
	if e, ok := catalog[typ]; ok {
		return Info{
			Type:        typ,
			Category:    e.category,
			Color:       categoryColors[e.category],
			DisplayName: e.name,
			Known:       true,
		}
	}
	return Info{
		Type:        typ,
		Category:    CategoryOther,
		Color:       ColorDefault,
		DisplayName: displayName(typ),
	}
}

// Color returns the display colour for typ.
func Color(typ string) string { return Lookup(typ).Color }

// Types returns all known type tags grouped by category, sorted within each group.
func Types() []string {
	order := []Category{
		CategoryFlowControl, CategoryVoice, CategoryMessaging,
		CategoryTools, CategoryConnect, CategorySubflows,
	}
	var out []string
	for _, c := range order {
		out = append(out, typesIn(c)...)
	}
	return out
}

func typesIn(c Category) []string {
	var out []string
	for typ, e := range catalog {
		if e.category == c {
			out = append(out, typ)
		}
	}
	slices.Sort(out)
	return out
}

func displayName(typ string) string {
	words := strings.FieldsFunc(typ, func(r rune) bool {
		return r == '-' || r == '_' || r == ' '
	})
	if len(words) == 0 {
		return "Widget"
	}
	return cases.Title(language.English).String(strings.Join(words, " "))
}
