// Package sanitize masks secret-looking literals in learner code before a
// snapshot leaves the machine, either toward the analysis service or into
// the local journal.
package sanitize

import "regexp"

const mask = "[redacted]"

var (
	// key = "value" style assignments for credential-ish names.
	assignPattern = regexp.MustCompile(
		`(?i)((?:api[_-]?key|secret|token|passwd|password|credential)s?\s*[:=]\s*)(["'][^"']+["'])`)

	// Bearer tokens in string literals.
	bearerPattern = regexp.MustCompile(`(?i)(bearer\s+)[A-Za-z0-9._~+/-]{16,}=*`)

	// AWS access key IDs.
	awsPattern = regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`)
)

// Redact returns code with recognizable secrets masked. The shape of the
// code is preserved so edit-distance comparisons stay meaningful; only the
// secret values are replaced.
func Redact(code string) string {
	if code == "" {
		return code
	}
	code = assignPattern.ReplaceAllString(code, `${1}"`+mask+`"`)
	code = bearerPattern.ReplaceAllString(code, "${1}"+mask)
	code = awsPattern.ReplaceAllString(code, mask)
	return code
}
