package storage

import (
	"crypto/md5" //nolint:gosec // content addressing, not a security boundary
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
)

// Replace is one (pattern, replacement) pair from the wsdl_replaces
// configuration key, applied in order before hashing/storing a document.
type Replace struct {
	Pattern     *regexp.Regexp
	Replacement string
}

// Normalize applies replaces, in order, to doc. Both the dedup hash and
// the stored bytes are computed from the normalized form -- hashing raw
// bytes and normalizing only on write (or vice versa) would break the
// contract that the stored hash matches the stored bytes.
func Normalize(doc []byte, replaces []Replace) []byte {
	out := doc
	for _, r := range replaces {
		out = r.Pattern.ReplaceAll(out, []byte(r.Replacement))
	}
	return out
}

// HashHex returns the lowercase hex MD5 digest of doc.
func HashHex(doc []byte) string {
	sum := md5.Sum(doc) //nolint:gosec
	return hex.EncodeToString(sum[:])
}

var wsdlNamePattern = regexp.MustCompile(`^(\d+)\.wsdl$`)

func openapiNamePattern(serviceName string) *regexp.Regexp {
	return regexp.MustCompile(`^` + regexp.QuoteMeta(serviceName) + `_(\d+)\.(yaml|json)$`)
}

// ResolveDocName scans hashes (filename -> md5 hex) for an existing file
// whose name matches the fileExt's naming pattern and whose hash equals
// hash: if found, that file is reused (dedup fast path). Otherwise it
// assigns the next monotonic N for a new file.
//
// fileExt is "wsdl", "yaml", or "json". serviceName is required (and
// ignored for "wsdl") to build the "<serviceCode>_<N>.<ext>" pattern.
func ResolveDocName(hashes map[string]string, hash, fileExt, serviceName string) (name string, isNew bool, err error) {
	pattern, err := namePattern(fileExt, serviceName)
	if err != nil {
		return "", false, err
	}

	maxID := -1
	for existingName, existingHash := range hashes {
		m := pattern.FindStringSubmatch(existingName)
		if m == nil {
			continue
		}
		if existingHash == hash {
			return existingName, false, nil
		}
		if n, convErr := strconv.Atoi(m[1]); convErr == nil && n > maxID {
			maxID = n
		}
	}

	if fileExt == "wsdl" {
		return fmt.Sprintf("%d.wsdl", maxID+1), true, nil
	}
	return fmt.Sprintf("%s_%d.%s", serviceName, maxID+1, fileExt), true, nil
}

func namePattern(fileExt, serviceName string) (*regexp.Regexp, error) {
	switch fileExt {
	case "wsdl":
		return wsdlNamePattern, nil
	case "yaml", "json":
		return openapiNamePattern(serviceName), nil
	default:
		return nil, fmt.Errorf("storage: unknown file extension %q", fileExt)
	}
}

// HashDocs hashes every file in names whose filename matches docType's
// naming pattern, using get to fetch bytes. Used to rebuild a hash index
// sidecar by rescanning a directory when the sidecar itself is missing
// or unreadable.
func HashDocs(names []string, docType DocType, get func(name string) ([]byte, error)) (map[string]string, error) {
	hashes := map[string]string{}
	for _, name := range names {
		matches, err := nameMatchesDocType(name, docType)
		if err != nil {
			return nil, err
		}
		if !matches {
			continue
		}
		data, err := get(name)
		if err != nil {
			return nil, err
		}
		hashes[name] = HashHex(data)
	}
	return hashes, nil
}

func nameMatchesDocType(name string, docType DocType) (bool, error) {
	switch docType {
	case DocTypeWSDL:
		return wsdlNamePattern.MatchString(name), nil
	case DocTypeOpenAPI:
		return openapiAnyNamePattern.MatchString(name), nil
	default:
		return false, fmt.Errorf("storage: unknown document type %q", docType)
	}
}

var openapiAnyNamePattern = regexp.MustCompile(`^.+_(\d+)\.(yaml|json)$`)

// IsDocFile reports whether name (a bare filename) is a WSDL or OpenAPI
// document file, used when scanning a subsystem directory for retention.
func IsDocFile(name string) bool {
	return wsdlNamePattern.MatchString(name) || openapiAnyNamePattern.MatchString(name)
}
