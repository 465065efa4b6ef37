package hwmon

import "time"

// ResolvedPath is a sensor path template with all chip placeholders
// substituted by live hwmon directories. Valid only for the run that
// produced it: hwmon indices are reassigned across reboots.
type ResolvedPath struct {
	Path       string
	ResolvedAt time.Time
}

// PathResolver maps path templates with {chip-alias} placeholders onto
// concrete filesystem paths.
type PathResolver interface {
	Resolve(template string) (ResolvedPath, error)
}
