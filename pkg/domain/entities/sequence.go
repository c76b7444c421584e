package entities

import (
	"fmt"
	"strings"
)

var sequenceReplacer = strings.NewReplacer(
	" ", "", ";", "", ",", "", ":", "", "-", "",
	"y", "1", "t", "1",
	"n", "0", "f", "0",
)

// NormaliseSequence lower-cases s, strips separators and maps y/t to 1 and
// n/f to 0
func NormaliseSequence(s string) string {
	return sequenceReplacer.Replace(strings.ToLower(s))
}

// Sequence is a cycle of on/off flags indexed by an integer offset
type Sequence string

// NewSequence normalises and validates a configured sequence
func NewSequence(s string) (Sequence, error) {
	normalised := NormaliseSequence(s)
	if normalised == "" {
		return "", fmt.Errorf("sequence cannot be empty")
	}
	residual := strings.NewReplacer("0", "", "1", "").Replace(normalised)
	if residual != "" {
		return "", fmt.Errorf("invalid sequence %q: only 0/1, y/n or t/f are allowed, found %q", s, residual)
	}
	return Sequence(normalised), nil
}

// IsEnabled returns the flag at offset, wrapping around the sequence length
func (s Sequence) IsEnabled(offset int) bool {
	if len(s) == 0 {
		return true
	}
	n := len(s)
	index := offset - (offset/n)*n
	if index < 0 {
		index += n
	}
	return s[index] == '1'
}

// Len returns the cycle length
func (s Sequence) Len() int {
	return len(s)
}
