package domain

import "maps"

const (
	ActionMain   = "android.intent.action.MAIN"
	ActionView   = "android.intent.action.VIEW"
	ActionDelete = "android.intent.action.DELETE"

	CategoryLauncher = "android.intent.category.LAUNCHER"

	MimePackageArchive = "application/vnd.android.package-archive"
)

// IntentFlag mirrors the subset of activity launch flags the gateway sets.
type IntentFlag int

const (
	FlagNewTask IntentFlag = 1 << iota
	FlagGrantReadURIPermission
)

// Intent describes an activity start request handed to the platform.
type Intent struct {
	Action     string
	Data       string
	Type       string
	Package    string
	Component  string
	Categories []string
	Extras     map[string]string
	Flags      IntentFlag
}

func (i Intent) Has(flag IntentFlag) bool {
	return i.Flags&flag != 0
}

// WithExtras returns a copy of the intent with extras merged in.
func (i Intent) WithExtras(extras map[string]string) Intent {
	if len(extras) == 0 {
		return i
	}
	merged := make(map[string]string, len(i.Extras)+len(extras))
	maps.Copy(merged, i.Extras)
	maps.Copy(merged, extras)
	i.Extras = merged
	return i
}
