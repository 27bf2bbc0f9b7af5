// Package privacy scrubs patient and credential data from messages before they
// leave the machine as telemetry or land in shared log files.
package privacy

import (
	"crypto/sha256"
	"fmt"
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
)

var (
	urlPattern = regexp.MustCompile(`\bhttps?://\S+`)

	ipv4Pattern = regexp.MustCompile(`^\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3}$`)

	emailPattern  = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	bearerPattern = regexp.MustCompile(`(?i)bearer\s+\S+`)
	tokenPattern  = regexp.MustCompile(`(?i)\b(token|password)\s*[=:]\s*\S+`)

	// archive identifiers are SHA-1 digests printed as five dash separated groups
	orthancIDPattern = regexp.MustCompile(`\b[0-9a-fA-F]{8}(?:-[0-9a-fA-F]{8}){4}\b`)
	uuidPattern      = regexp.MustCompile(`\b[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}\b`)

	// file names often carry the patient's name
	dicomPathPattern = regexp.MustCompile(`(?i)\S*\.dcm\b`)
)

// knownSegments are API path segments that are safe to keep verbatim
var knownSegments = map[string]bool{
	"api": true, "login": true, "register": true, "me": true,
	"patient": true, "upload": true, "studies": true,
	"diagnocat": true, "analyses": true, "send": true, "refresh": true,
	"app": true, "explorer.html": true,
}

// ScrubMessage removes or anonymizes sensitive information from a message.
// URLs keep their structure in hashed form so identical endpoints group together.
func ScrubMessage(message string) string {
	scrubbed := urlPattern.ReplaceAllStringFunc(message, anonymizeURL)
	scrubbed = bearerPattern.ReplaceAllString(scrubbed, "Bearer [TOKEN]")
	scrubbed = tokenPattern.ReplaceAllString(scrubbed, "$1=[TOKEN]")
	scrubbed = emailPattern.ReplaceAllString(scrubbed, "[EMAIL]")
	scrubbed = orthancIDPattern.ReplaceAllString(scrubbed, "[STUDY_ID]")
	scrubbed = uuidPattern.ReplaceAllString(scrubbed, "[UUID]")
	return dicomPathPattern.ReplaceAllStringFunc(scrubbed, anonymizeFileName)
}

// anonymizeURL converts a URL to a stable hash of its shape. Credentials, host
// names, query strings and identifying path segments never reach the hash input
// in clear form, but two requests to the same endpoint yield the same value.
func anonymizeURL(rawURL string) string {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		hash := sha256.Sum256([]byte(rawURL))
		return fmt.Sprintf("url-hash-%x", hash[:8])
	}

	var normalizedParts []string

	if parsedURL.Scheme != "" {
		normalizedParts = append(normalizedParts, parsedURL.Scheme)
	}

	if host := parsedURL.Hostname(); host != "" {
		normalizedParts = append(normalizedParts, categorizeHost(host))
	}

	if parsedURL.Port() != "" {
		normalizedParts = append(normalizedParts, "port-"+parsedURL.Port())
	}

	if parsedURL.Path != "" && parsedURL.Path != "/" {
		normalizedParts = append(normalizedParts, anonymizePath(parsedURL.Path))
	}

	hash := sha256.Sum256([]byte(strings.Join(normalizedParts, ":")))
	return fmt.Sprintf("url-%x", hash[:12])
}

// categorizeHost reduces a host name to a coarse category
func categorizeHost(host string) string {
	if host == "localhost" || host == "127.0.0.1" || host == "::1" {
		return "localhost"
	}

	if isPrivateIP(host) {
		return "private-ip"
	}

	if isIPAddress(host) {
		return "public-ip"
	}

	// keep only the TLD of domain names
	parts := strings.Split(host, ".")
	if len(parts) >= 2 {
		return "domain-" + parts[len(parts)-1]
	}

	return "unknown-host"
}

// anonymizePath keeps API segments and hashes everything else
func anonymizePath(path string) string {
	path = strings.Trim(path, "/")
	if path == "" {
		return "root"
	}

	var anonymizedSegments []string
	for segment := range strings.SplitSeq(path, "/") {
		if segment == "" {
			continue
		}

		switch {
		case knownSegments[strings.ToLower(segment)]:
			anonymizedSegments = append(anonymizedSegments, strings.ToLower(segment))
		case isNumeric(segment):
			anonymizedSegments = append(anonymizedSegments, "numeric")
		default:
			hash := sha256.Sum256([]byte(segment))
			anonymizedSegments = append(anonymizedSegments, fmt.Sprintf("seg-%x", hash[:4]))
		}
	}

	return strings.Join(anonymizedSegments, "/")
}

// anonymizeFileName replaces a DICOM path with a hash that keeps the extension
func anonymizeFileName(path string) string {
	hash := sha256.Sum256([]byte(filepath.Base(path)))
	return fmt.Sprintf("file-%x%s", hash[:4], strings.ToLower(filepath.Ext(path)))
}

// isPrivateIP checks if the host is a private IPv4 or IPv6 address
func isPrivateIP(host string) bool {
	privateRanges := []string{
		"10.", "172.16.", "172.17.", "172.18.", "172.19.", "172.20.", "172.21.", "172.22.", "172.23.",
		"172.24.", "172.25.", "172.26.", "172.27.", "172.28.", "172.29.", "172.30.", "172.31.",
		"192.168.", "169.254.",
		"fc00:", "fd00:", "fe80:",
	}

	lower := strings.ToLower(host)
	for _, prefix := range privateRanges {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// isIPAddress checks if the host looks like an IP address
func isIPAddress(host string) bool {
	if ipv4Pattern.MatchString(host) {
		return true
	}
	return strings.Contains(host, ":")
}

// isNumeric checks if a string is purely numeric
func isNumeric(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return s != ""
}
