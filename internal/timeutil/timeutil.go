package timeutil

import (
	"regexp"
	"time"
)

// UploadIDLayout is the wall-clock layout of an upload ID.
const UploadIDLayout = "2006-01-02_15-04-05"

var uploadIDPattern = regexp.MustCompile(`^[0-9a-f_-]+$`)

func UploadID(value time.Time) string {
	return value.Format(UploadIDLayout)
}

// ValidUploadID reports whether id only uses characters an allocated ID can contain.
func ValidUploadID(id string) bool {
	return id != "" && len(id) <= 64 && uploadIDPattern.MatchString(id)
}
