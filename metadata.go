package smartsync

import (
	"encoding/json"
	"strings"

	"github.com/compbio-tools/s3smartsync/errors"
)

// Mode values attached to remote objects. Directory keys carry bare
// permission bits 0o775 (509); file objects carry the full st_mode
// 0o100664 (33204). Directory keys must not carry the file mode value,
// consumers refuse to treat them as directories otherwise.
const (
	// DirectoryMode is the mode attribute value for directory-class keys
	DirectoryMode = "509"

	// FileMode is the mode attribute value for file objects
	FileMode = "33204"
)

// modeKey is the reserved attribute name whose value the policy always owns.
const modeKey = "mode"

// Attributes is a user metadata set attached to remote objects, carrying
// ownership and permission bits alongside the object content.
type Attributes map[string]string

// ParseAttributes parses a JSON object of string values into an Attributes
// set, e.g. `{"uid":"6812","gid":"6812"}`. An empty or blank input yields an
// empty set.
//
// Returns ErrInvalidMetadata if the input is not a well-formed JSON object of
// string values.
func ParseAttributes(raw string) (Attributes, error) {
	if strings.TrimSpace(raw) == "" {
		return Attributes{}, nil
	}

	var attrs Attributes
	if err := json.Unmarshal([]byte(raw), &attrs); err != nil {
		return nil, errors.NewError("parseAttributes", errors.ErrInvalidMetadata).
			WithMessage(err.Error())
	}
	return attrs, nil
}

// ForDirectories returns a copy of the base set with the mode attribute
// forced to DirectoryMode. A user-supplied mode is always overridden.
func (a Attributes) ForDirectories() Attributes {
	return a.withMode(DirectoryMode)
}

// ForFiles returns a copy of the base set with the mode attribute forced to
// FileMode. A user-supplied mode is always overridden.
func (a Attributes) ForFiles() Attributes {
	return a.withMode(FileMode)
}

func (a Attributes) withMode(mode string) Attributes {
	derived := make(Attributes, len(a)+1)
	for k, v := range a {
		derived[k] = v
	}
	derived[modeKey] = mode
	return derived
}
