package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

type knownAdministrator struct {
	pattern *regexp.Regexp
	name    string
}

// Administrators recognised by name even when "TPA" is absent from the text.
var knownAdministrators = []knownAdministrator{
	{regexp.MustCompile(`(?i)GOOD\s+HEALTH\s+INSURANCE\s+TPA`), "Good Health Insurance TPA Limited"},
	{regexp.MustCompile(`(?i)HEALTH\s*INDIA\s+INSURANCE\s+TPA`), "Health India Insurance TPA Services Pvt. Ltd."},
	{regexp.MustCompile(`(?i)MEDI\s*ASSIST`), "Medi Assist Insurance TPA Pvt. Ltd."},
	{regexp.MustCompile(`(?i)PARAMOUNT\s+HEALTH`), "Paramount Health Services & Insurance TPA Pvt. Ltd."},
	{regexp.MustCompile(`(?i)VIDAL\s+HEALTH`), "Vidal Health Insurance TPA Pvt. Ltd."},
	{regexp.MustCompile(`(?i)MD\s+INDIA`), "MDIndia Health Insurance TPA Pvt. Ltd."},
	{regexp.MustCompile(`(?i)HERITAGE\s+HEALTH`), "Heritage Health Insurance TPA Pvt. Ltd."},
	{regexp.MustCompile(`(?i)FAMILY\s+HEALTH\s+PLAN`), "Family Health Plan Insurance TPA Ltd."},
	{regexp.MustCompile(`(?i)RAKSHA\s+HEALTH`), "Raksha Health Insurance TPA Pvt. Ltd."},
	{regexp.MustCompile(`(?i)ERICSON\s+INSURANCE\s+TPA`), "Ericson Insurance TPA Pvt. Ltd."},
	{regexp.MustCompile(`(?i)UNITED\s+HEALTH\s+CARE`), "United Health Care Parekh Insurance TPA Pvt. Ltd."},
	{regexp.MustCompile(`(?i)VIPUL\s+MEDCORP`), "Vipul MedCorp Insurance TPA Pvt. Ltd."},
}

var (
	reAdministratorLabel   = regexp.MustCompile(`(?i)(?:TPA|Third Party Administrator)\s*[:\-]\s*([^\n\r]+)`)
	reAdministratorDynamic = regexp.MustCompile(`(?i)((?:[A-Za-z0-9.&]+\s+){1,6})(TPA|Third Party Administrator)(\s+(?:Limited|Services|Pvt|Ltd|Private|\.|&)+)?`)
	reAdministratorSubject = regexp.MustCompile(`(?i)Subject:.*?([A-Za-z .]{4,}\sTPA\b)`)
	reAdministratorBroad   = regexp.MustCompile(`(?i)([A-Za-z .]{4,50}\s?TPA\s+(?:Services|Pvt|Private|Limited|Ltd|\.|[ ])+)`)
	reAdministratorAny     = regexp.MustCompile(`([A-Z][A-Za-z\s.]+\bTPA\b(?:[A-Za-z\s.]*)?)`)
)

// Generic captures that are too vague to be an administrator name.
var vagueAdministrators = map[string]bool{
	"insurance tpa":        true,
	"health insurance tpa": true,
}

type administratorRule func(text string) string

// Resolution order: explicit label, known names, generic "<words> TPA",
// subject line, then the two broad patterns. The first hit wins.
var administratorRules = []administratorRule{
	func(text string) string {
		m := reAdministratorLabel.FindStringSubmatch(text)
		if m == nil {
			return ""
		}
		return boundedName(m[1], 2, 100)
	},
	func(text string) string {
		for _, k := range knownAdministrators {
			if k.pattern.MatchString(text) {
				return k.name
			}
		}
		return ""
	},
	func(text string) string {
		m := reAdministratorDynamic.FindStringSubmatch(text)
		if m == nil {
			return ""
		}
		name := boundedName(m[1]+m[2]+m[3], 6, 59)
		if vagueAdministrators[strings.ToLower(name)] {
			return ""
		}
		return name
	},
	func(text string) string {
		m := reAdministratorSubject.FindStringSubmatch(text)
		if m == nil {
			return ""
		}
		return boundedName(m[1], 4, 100)
	},
	func(text string) string {
		m := reAdministratorBroad.FindStringSubmatch(text)
		if m == nil {
			return ""
		}
		return boundedName(m[1], 4, 49)
	},
	func(text string) string {
		m := reAdministratorAny.FindStringSubmatch(text)
		if m == nil {
			return ""
		}
		name := boundedName(m[1], 4, 59)
		if strings.ContainsAny(name, "\r\n") {
			return ""
		}
		return name
	},
}

// ResolveAdministrator finds the third-party administrator named in text.
func ResolveAdministrator(text string) *string {
	for _, rule := range administratorRules {
		if name := rule(text); name != "" {
			return &name
		}
	}
	return nil
}

func boundedName(s string, minLen, maxLen int) string {
	s = strings.TrimSpace(s)
	n := utf8.RuneCountInString(s)
	if n < minLen || n > maxLen {
		return ""
	}
	return s
}
