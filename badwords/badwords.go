package badwords

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"unicode"

	"github.com/joy095/servicehub/logger"
	"github.com/joy095/servicehub/utils"
)

// badWordsMap is the active word set, stored lower-cased.
var (
	badWordsMap map[string]struct{}
	mu          sync.RWMutex
)

// LoadBadWords replaces the word set with the lines of filename.
func LoadBadWords(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read bad words file: %w", err)
	}

	next := make(map[string]struct{})
	for _, line := range strings.Split(string(data), "\n") {
		if w := strings.ToLower(strings.TrimSpace(line)); w != "" {
			next[w] = struct{}{}
		}
	}

	mu.Lock()
	badWordsMap = next
	mu.Unlock()

	logger.InfoLogger.Infof("Loaded %d bad words from %s", len(next), filename)
	return nil
}

// AddBadWord adds a single word to the set.
func AddBadWord(word string) {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	if badWordsMap == nil {
		badWordsMap = make(map[string]struct{})
	}
	badWordsMap[word] = struct{}{}
}

// Reset empties the set.
func Reset() {
	mu.Lock()
	badWordsMap = nil
	mu.Unlock()
}

// ContainsBadWords matches whole words, case-insensitively.
func ContainsBadWords(text string) bool {
	mu.RLock()
	defer mu.RUnlock()
	if len(badWordsMap) == 0 {
		return false
	}

	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	for _, w := range words {
		if _, found := badWordsMap[w]; found {
			return true
		}
	}
	return false
}

// Check returns a validation error naming the first field with disallowed words.
// Fields are given as name, text pairs.
func Check(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if ContainsBadWords(pairs[i+1]) {
			logger.WarnLogger.Warnf("Rejected %s containing disallowed language", pairs[i])
			return utils.Validation("%s contains disallowed language", pairs[i])
		}
	}
	return nil
}
