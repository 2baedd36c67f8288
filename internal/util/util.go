package util

import (
	"crypto/sha1"
	"encoding/hex"
	"regexp"

	"github.com/google/uuid"
)

var (
	idRegexp   = regexp.MustCompile(`^[a-f\d]{40}$`)
	uuidRegexp = regexp.MustCompile(`^[a-f\d]{8}-[a-f\d]{4}-[a-f\d]{4}-[a-f\d]{4}-[a-f\d]{12}$`)
)

// GetIDFromString returns the stable file id for a path.
func GetIDFromString(str *string) string {
	hasher := sha1.New()
	hasher.Write([]byte(*str))

	return hex.EncodeToString(hasher.Sum(nil))
}

func IsFileID(id string) bool {
	return idRegexp.MatchString(id)
}

// NewID returns a random id used for sessions and work directories.
func NewID() string {
	return uuid.NewString()
}

func IsSessionID(id string) bool {
	return uuidRegexp.MatchString(id)
}
