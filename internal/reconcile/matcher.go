// Package reconcile matches noisy recognized badge text against the set of
// known canonical identifiers.
package reconcile

import (
	_ "embed"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"facegate/internal/identity"
)

//go:embed confusables.yaml
var confusablesYAML []byte

// confusablesFile mirrors the embedded confusables.yaml layout.
type confusablesFile struct {
	Substitutions map[string][]string `yaml:"substitutions"`
}

// substitutions maps each confusable rune to the digit it stands for.
var substitutions = loadSubstitutions()

func loadSubstitutions() map[rune]rune {
	var f confusablesFile
	if err := yaml.Unmarshal(confusablesYAML, &f); err != nil {
		// Embedded file; a parse failure is a build defect.
		panic("failed to unmarshal embedded confusables.yaml: " + err.Error())
	}

	table := make(map[rune]rune)
	for digit, chars := range f.Substitutions {
		d := []rune(digit)[0]
		for _, c := range chars {
			for _, r := range c {
				table[r] = d
			}
		}
	}
	return table
}

// removeDiacritics strips combining marks so accented OCR output folds to
// plain ASCII before the confusable pass (e.g. "Ó" -> "O" -> "0").
func removeDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// Digits reduces raw recognized text to a digit-only string: diacritics
// stripped, confusable characters substituted, everything else dropped.
func Digits(raw string) string {
	var b strings.Builder
	for _, r := range removeDiacritics(raw) {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
			continue
		}
		if d, ok := substitutions[r]; ok {
			b.WriteRune(d)
		}
	}
	return b.String()
}

// Match reconciles raw recognized text against the known identifier set and
// returns the matched canonical identifier. Matching order trades precision
// for recall under OCR noise:
//
//  1. exact containment of a known identifier anywhere in the digit string,
//  2. every 7-digit window left to right,
//  3. the first 7 digits as a last resort.
//
// Garbage or empty input yields ("", false); Match never fails.
func Match(raw string, known []string) (string, bool) {
	digits := Digits(raw)
	if digits == "" {
		return "", false
	}

	for _, id := range known {
		if strings.Contains(digits, id) {
			return id, true
		}
	}

	if len(digits) < identity.CanonicalLength {
		return "", false
	}

	knownSet := make(map[string]struct{}, len(known))
	for _, id := range known {
		knownSet[id] = struct{}{}
	}

	for i := 0; i+identity.CanonicalLength <= len(digits); i++ {
		window := digits[i : i+identity.CanonicalLength]
		if _, ok := knownSet[window]; ok {
			return window, true
		}
	}

	head := digits[:identity.CanonicalLength]
	if _, ok := knownSet[head]; ok {
		return head, true
	}

	return "", false
}
