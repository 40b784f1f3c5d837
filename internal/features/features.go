// Package features extracts lexical features from a URL string for the
// phishing classifier. Extraction is a pure function of the string: the
// submitted URL is never dereferenced over the network.
package features

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"net"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// DefaultSuspiciousTokens are substrings commonly used in phishing URLs.
// The deployed list is configurable (SUSPICIOUS_TOKENS).
var DefaultSuspiciousTokens = []string{"login", "secure", "bank", "verify", "update", "account"}

var ipv4Regex = regexp.MustCompile(`^(?:\d{1,3}\.){3}\d{1,3}$`)

const specialChars = "!\"#$%&'()*+,-./:;<=>?@[\\]^_" + "`{|}~"

// Vector holds the lexical features extracted from a URL. The numeric
// fields, in the order reported by Names, are the classifier's input;
// TLD and Scheme are low-cardinality categoricals echoed for transparency.
type Vector struct {
	URLLength                 int     `json:"url_length"`
	HostnameLength            int     `json:"hostname_length"`
	CountDots                 int     `json:"count_dots"`
	CountHyphens              int     `json:"count_hyphens"`
	CountUnderscores          int     `json:"count_underscores"`
	CountDigits               int     `json:"count_digits"`
	CountSubdirs              int     `json:"count_subdirs"`
	CountQueryParams          int     `json:"count_query_params"`
	HasAtSymbol               int     `json:"has_at_symbol"`
	HasDoubleSlashInPath      int     `json:"has_double_slash_in_path"`
	SuspiciousTokenCount      int     `json:"suspicious_token_count"`
	TLD                       string  `json:"tld"`
	CharacterEntropy          float64 `json:"character_entropy"`
	RatioDigitsToLength       float64 `json:"ratio_digits_to_length"`
	RatioSpecialCharsToLength float64 `json:"ratio_special_chars_to_length"`
	HasIPInHost               int     `json:"has_ip_in_host"`
	DomainAgeDays             int     `json:"domain_age_days"`
	Scheme                    string  `json:"scheme"`
	SubdomainLength           int     `json:"subdomain_length"`
	SubdomainDepth            int     `json:"subdomain_depth"`
	DomainLength              int     `json:"domain_length"`
}

// Extractor computes feature vectors. The zero value is not usable;
// construct with NewExtractor.
type Extractor struct {
	suspiciousTokens []string
}

// NewExtractor creates an Extractor with the given suspicious-token list.
// An empty list falls back to DefaultSuspiciousTokens.
func NewExtractor(tokens []string) *Extractor {
	if len(tokens) == 0 {
		tokens = DefaultSuspiciousTokens
	}
	lowered := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t = strings.ToLower(strings.TrimSpace(t)); t != "" {
			lowered = append(lowered, t)
		}
	}
	return &Extractor{suspiciousTokens: lowered}
}

// Extract computes the feature vector for the given raw URL string.
func (e *Extractor) Extract(raw string) Vector {
	raw = strings.TrimSpace(raw)

	parsed, err := url.Parse(raw)
	if err != nil {
		parsed = &url.URL{}
	}
	scheme := strings.ToLower(parsed.Scheme)
	netloc := parsed.Host
	path := parsed.Path
	query := parsed.RawQuery
	if netloc == "" {
		// Schemeless input like "example.com/login" parses entirely as path.
		netloc = parsed.Path
	}
	host := netloc
	if i := strings.IndexByte(host, '/'); i >= 0 {
		host = host[:i]
	}
	host = stripPort(host)

	subdomain, domain, suffix := splitHost(strings.ToLower(strings.Trim(host, ".")))

	urlLength := len(raw)
	countDigits := 0
	countSpecial := 0
	for _, c := range raw {
		if c >= '0' && c <= '9' {
			countDigits++
		}
		if strings.ContainsRune(specialChars, c) {
			countSpecial++
		}
	}

	countQueryParams := 0
	if query != "" {
		countQueryParams = strings.Count(query, "&") + 1
	}

	hasDoubleSlashInPath := 0
	if strings.Contains(path, "//") && !strings.HasPrefix(raw, "//") {
		hasDoubleSlashInPath = 1
	}

	ratioDigits := 0.0
	ratioSpecial := 0.0
	if urlLength > 0 {
		ratioDigits = float64(countDigits) / float64(urlLength)
		ratioSpecial = float64(countSpecial) / float64(urlLength)
	}

	subdomainDepth := 0
	if subdomain != "" {
		for _, p := range strings.Split(subdomain, ".") {
			if p != "" {
				subdomainDepth++
			}
		}
	}

	return Vector{
		URLLength:                 urlLength,
		HostnameLength:            len(host),
		CountDots:                 strings.Count(raw, "."),
		CountHyphens:              strings.Count(raw, "-"),
		CountUnderscores:          strings.Count(raw, "_"),
		CountDigits:               countDigits,
		CountSubdirs:              strings.Count(path, "/"),
		CountQueryParams:          countQueryParams,
		HasAtSymbol:               boolToInt(strings.Contains(raw, "@")),
		HasDoubleSlashInPath:      hasDoubleSlashInPath,
		SuspiciousTokenCount:      e.countSuspiciousTokens(raw),
		TLD:                       suffix,
		CharacterEntropy:          shannonEntropy(raw),
		RatioDigitsToLength:       ratioDigits,
		RatioSpecialCharsToLength: ratioSpecial,
		HasIPInHost:               boolToInt(hasIPInHost(host)),
		DomainAgeDays:             -1, // unknown without a WHOIS collaborator
		Scheme:                    scheme,
		SubdomainLength:           len(subdomain),
		SubdomainDepth:            subdomainDepth,
		DomainLength:              len(domain),
	}
}

func (e *Extractor) countSuspiciousTokens(s string) int {
	if s == "" {
		return 0
	}
	low := strings.ToLower(s)
	count := 0
	for _, t := range e.suspiciousTokens {
		count += strings.Count(low, t)
	}
	return count
}

// Names returns the ordered names of the numeric features the classifier
// consumes. TLD and Scheme are excluded: they are echoed to callers but
// not fed to the model.
func Names() []string {
	return []string{
		"url_length",
		"hostname_length",
		"count_dots",
		"count_hyphens",
		"count_underscores",
		"count_digits",
		"count_subdirs",
		"count_query_params",
		"has_at_symbol",
		"has_double_slash_in_path",
		"suspicious_token_count",
		"character_entropy",
		"ratio_digits_to_length",
		"ratio_special_chars_to_length",
		"has_ip_in_host",
		"domain_age_days",
		"subdomain_length",
		"subdomain_depth",
		"domain_length",
	}
}

// Numeric returns the numeric feature values in the order of Names.
func (v Vector) Numeric() []float64 {
	return []float64{
		float64(v.URLLength),
		float64(v.HostnameLength),
		float64(v.CountDots),
		float64(v.CountHyphens),
		float64(v.CountUnderscores),
		float64(v.CountDigits),
		float64(v.CountSubdirs),
		float64(v.CountQueryParams),
		float64(v.HasAtSymbol),
		float64(v.HasDoubleSlashInPath),
		float64(v.SuspiciousTokenCount),
		v.CharacterEntropy,
		v.RatioDigitsToLength,
		v.RatioSpecialCharsToLength,
		float64(v.HasIPInHost),
		float64(v.DomainAgeDays),
		float64(v.SubdomainLength),
		float64(v.SubdomainDepth),
		float64(v.DomainLength),
	}
}

// Fingerprint identifies the set and order of numeric features. A model
// trained against one fingerprint must not score vectors from another.
func Fingerprint() string {
	sum := sha256.Sum256([]byte(strings.Join(Names(), ",")))
	return hex.EncodeToString(sum[:])
}

// Schema describes every reported feature, keyed by JSON name.
func Schema() map[string]string {
	return map[string]string{
		"url_length":                    "Total length of the URL string",
		"hostname_length":               "Length of the hostname (netloc)",
		"count_dots":                    "Number of '.' characters in the URL",
		"count_hyphens":                 "Number of '-' characters in the URL",
		"count_underscores":             "Number of '_' characters in the URL",
		"count_digits":                  "Total digit characters in the URL",
		"count_subdirs":                 "Number of '/' path segments",
		"count_query_params":            "Count of query parameters (heuristic)",
		"has_at_symbol":                 "Presence of '@' symbol (common in phishing obfuscation)",
		"has_double_slash_in_path":      "Presence of '//' later in path",
		"suspicious_token_count":        "Count of suspicious tokens like 'login','secure'",
		"tld":                           "Top-level domain (suffix)",
		"character_entropy":             "Shannon entropy of the URL string",
		"ratio_digits_to_length":        "Digits / URL length",
		"ratio_special_chars_to_length": "Special char count / URL length",
		"has_ip_in_host":                "Whether hostname is an IP address literal",
		"domain_age_days":               "Placeholder for domain age (days) if available; -1 = unknown",
		"scheme":                        "URL scheme (http/https)",
		"subdomain_length":              "Length of the subdomain string",
		"subdomain_depth":               "Number of labels in subdomain (e.g., a.b -> 2)",
		"domain_length":                 "Length of the registered domain name",
	}
}

// splitHost separates a hostname into subdomain, registered domain, and
// public suffix. IP literals and unrecognized hosts land entirely in domain.
func splitHost(host string) (subdomain, domain, suffix string) {
	if host == "" || hasIPInHost(host) {
		return "", host, ""
	}
	suffix, _ = publicsuffix.PublicSuffix(host)
	etld1, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		// Host is itself a public suffix (e.g. "com") or malformed.
		if host == suffix {
			return "", "", suffix
		}
		return "", host, suffix
	}
	domain = strings.TrimSuffix(etld1, "."+suffix)
	subdomain = strings.TrimSuffix(strings.TrimSuffix(host, etld1), ".")
	return subdomain, domain, suffix
}

// stripPort removes an optional :port from a host, keeping IPv6 literals
// intact. Bracketed literals lose their brackets.
func stripPort(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
}

func hasIPInHost(host string) bool {
	if host == "" {
		return false
	}
	if ipv4Regex.MatchString(host) {
		return true
	}
	// A colon can only survive port stripping inside an IPv6 literal.
	return strings.Contains(host, ":")
}

func shannonEntropy(s string) float64 {
	if s == "" {
		return 0
	}
	counts := make(map[rune]int)
	length := 0
	for _, c := range s {
		counts[c]++
		length++
	}
	entropy := 0.0
	for _, n := range counts {
		p := float64(n) / float64(length)
		entropy -= p * math.Log2(p)
	}
	return entropy
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
