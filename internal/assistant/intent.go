package assistant

import (
	"strings"

	"github.com/agnivade/levenshtein"
)

type IntentKind int

const (
	IntentUnknown IntentKind = iota
	IntentCustomApp
	IntentNotepad
	IntentLinkedIn
	IntentEmail
	IntentGreet
	IntentStop
)

func (k IntentKind) String() string {
	switch k {
	case IntentCustomApp:
		return "custom_app"
	case IntentNotepad:
		return "notepad"
	case IntentLinkedIn:
		return "linkedin"
	case IntentEmail:
		return "email"
	case IntentGreet:
		return "greet"
	case IntentStop:
		return "stop"
	default:
		return "unknown"
	}
}

type Intent struct {
	Kind IntentKind
	Path string // custom app path
}

// builtins are checked in order, by substring, after the exact registry
// match. Order matters: "send mail" must win over a later "stop" etc.
var builtins = []struct {
	kind     IntentKind
	keywords []string
}{
	{IntentNotepad, []string{"notepad"}},
	{IntentLinkedIn, []string{"linkedin"}},
	{IntentEmail, []string{"email", "send mail"}},
	{IntentGreet, []string{"hello", "stofix"}},
	{IntentStop, []string{"stop"}},
}

// Classify maps recognized text to an intent. A registered app name must
// match the whole text and beats every built-in keyword.
func Classify(text string, apps Registry) Intent {
	if apps != nil {
		if path, ok := apps.Lookup(text); ok {
			return Intent{Kind: IntentCustomApp, Path: path}
		}
	}

	for _, b := range builtins {
		for _, kw := range b.keywords {
			if strings.Contains(text, kw) {
				return Intent{Kind: b.kind}
			}
		}
	}
	return Intent{Kind: IntentUnknown}
}

// closestName suggests a registered name close to what was heard.
func closestName(text string, names []string) (string, bool) {
	best, bestDist := "", -1
	for _, n := range names {
		d := levenshtein.ComputeDistance(text, n)
		if bestDist < 0 || d < bestDist {
			best, bestDist = n, d
		}
	}
	if bestDist < 0 {
		return "", false
	}
	limit := max(1, len(best)/3)
	return best, bestDist <= limit
}
