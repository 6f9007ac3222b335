package badger

import (
	"fmt"
	"strings"
)

const (
	domainStatePrefix = "state"
)

// makeStateKey generates a key for a domain's state.
// Format: state:domainName
func makeStateKey(domainName string) []byte {
	return []byte(fmt.Sprintf("%s:%s", domainStatePrefix, domainName))
}

// stateKeyPrefix is the iteration prefix covering all state keys.
func stateKeyPrefix() []byte {
	return []byte(domainStatePrefix + ":")
}

// domainFromStateKey extracts the domain name from a state key.
func domainFromStateKey(key []byte) string {
	return strings.TrimPrefix(string(key), domainStatePrefix+":")
}
