package pagelog

import "strings"

const (
	minTopicNameLen = 3
	maxTopicNameLen = 63
)

var reservedTopicNames = map[string]struct{}{
	"topics": {},
}

// ValidateTopicName checks that name is usable as a topic and as a blob
// name prefix in every supported store.
//
// A valid name has 3 to 63 characters from [a-z0-9-], does not start or
// end with '-', and contains no "--".
func ValidateTopicName(name string) error {
	if len(name) < minTopicNameLen || len(name) > maxTopicNameLen {
		return &InvalidTopicNameError{Name: name, Reason: "must be between 3 and 63 characters"}
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') && c != '-' {
			return &InvalidTopicNameError{Name: name, Reason: "may only contain lowercase letters, digits and '-'"}
		}
	}
	if name[0] == '-' || name[len(name)-1] == '-' {
		return &InvalidTopicNameError{Name: name, Reason: "must not start or end with '-'"}
	}
	if strings.Contains(name, "--") {
		return &InvalidTopicNameError{Name: name, Reason: "must not contain \"--\""}
	}
	if _, ok := reservedTopicNames[name]; ok {
		return ErrReservedTopicName
	}
	return nil
}
