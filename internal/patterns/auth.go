package patterns

import (
	"regexp"

	"github.com/basinlabs/codescan/internal/model"
)

// authExpectedEvidence: one evidence item per auth idiom this detector
// checks (token encode/decode, session middleware, API-key header, password
// hashing, OAuth client).
const authExpectedEvidence = 5

var (
	tokenCodecPattern        = regexp.MustCompile(`\b(jwt|jsonwebtoken)\.(encode|decode|sign|verify)\s*\(`)
	sessionMiddlewarePattern = regexp.MustCompile(`\b(express-session|session\s*\(|SessionMiddleware|flask_session)\b`)
	apiKeyHeaderPattern      = regexp.MustCompile(`(?i)(x-api-key|authorization)["']?\s*[:,]`)
	passwordHashPattern      = regexp.MustCompile(`\b(bcrypt|argon2|scrypt|pbkdf2)\b`)
	oauthClientPattern       = regexp.MustCompile(`\b(oauth2|OAuthClient|passport(-oauth)?|authlib)\b`)
)

// AuthDetector flags authentication/authorization idioms: token codecs,
// session middleware, API-key header extraction, password hashing, and
// OAuth client usage.
type AuthDetector struct{}

func (AuthDetector) Detect(symbols *model.SymbolTable, content []byte, filePath string) []model.DetectedPattern {
	var evidence []string

	if tokenCodecPattern.Match(content) {
		evidence = append(evidence, "token encode/decode call")
	}
	if sessionMiddlewarePattern.Match(content) {
		evidence = append(evidence, "session middleware marker")
	}
	if apiKeyHeaderPattern.Match(content) {
		evidence = append(evidence, "API-key/Authorization header extraction")
	}
	if passwordHashPattern.Match(content) {
		evidence = append(evidence, "password-hash library use")
	}
	if oauthClientPattern.Match(content) {
		evidence = append(evidence, "OAuth client import")
	}

	if len(evidence) == 0 {
		return nil
	}

	return []model.DetectedPattern{{
		PatternType: "auth",
		FilePath:    filePath,
		Confidence:  confidence(len(evidence), authExpectedEvidence),
		Evidence:    evidence,
	}}
}
