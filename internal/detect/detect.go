// Package detect derives the report's format signature: which Oracle
// major version produced it and what topology the database ran. Detection
// is best effort; unknown is a valid answer and never blocks parsing.
package detect

import (
	"regexp"
	"strings"

	"github.com/dmitriimaksimovdevelop/awrlens/internal/model"
)

// versionPattern ties a compiled regex to the version it proves. Patterns
// are tried newest-first so a 19c report mentioning 11g compatibility
// settings still lands on 19c.
type versionPattern struct {
	re      *regexp.Regexp
	version model.OracleVersion
}

var versionPatterns = []versionPattern{
	{regexp.MustCompile(`(?i)release\s+21\.`), model.Oracle21c},
	{regexp.MustCompile(`(?i)version="?21\.`), model.Oracle21c},
	{regexp.MustCompile(`(?i)oracle\s+database\s+21c`), model.Oracle21c},
	{regexp.MustCompile(`(?i)release\s+19\.`), model.Oracle19c},
	{regexp.MustCompile(`(?i)version="?19\.`), model.Oracle19c},
	{regexp.MustCompile(`(?i)oracle\s+database\s+19c`), model.Oracle19c},
	{regexp.MustCompile(`(?i)release\s+12\.`), model.Oracle12c},
	{regexp.MustCompile(`(?i)version="?12\.`), model.Oracle12c},
	{regexp.MustCompile(`(?i)oracle\s+database\s+12c`), model.Oracle12c},
	{regexp.MustCompile(`(?i)release\s+11\.`), model.Oracle11g},
	{regexp.MustCompile(`(?i)version="?11\.`), model.Oracle11g},
	{regexp.MustCompile(`(?i)oracle\s+database\s+11g`), model.Oracle11g},
}

// Version detects the Oracle major version from the raw document text.
// Explicit release strings win; section names introduced in specific
// versions serve as a fallback.
func Version(text string) model.OracleVersion {
	for _, p := range versionPatterns {
		if p.re.MatchString(text) {
			return p.version
		}
	}

	lower := strings.ToLower(text)
	if strings.Contains(lower, "in-memory area") {
		return model.Oracle19c
	}
	if strings.Contains(lower, "addm findings") {
		return model.Oracle12c
	}
	return model.VersionUnknown
}

var cdbMarkers = []string{
	"pluggable database",
	"container name",
	"pdb name",
	"cdb root",
}

// cdbWord matches a bare "CDB" token, as in "CDB: YES", without firing
// on words that merely contain the letters.
var cdbWord = regexp.MustCompile(`(?i)\bcdb\b`)

var racMarkers = []string{
	"real application clusters",
	"global cache",
	"cluster interconnect",
	"gc cr block",
	"instances in report",
}

// Topology classifies the database topology. CDB markers are checked
// before RAC ones: a RAC-enabled CDB report is treated as cdb_pdb since
// container scoping changes which sections exist.
func Topology(text string) model.Topology {
	lower := strings.ToLower(text)
	for _, m := range cdbMarkers {
		if strings.Contains(lower, m) {
			return model.TopologyCDB
		}
	}
	if cdbWord.MatchString(text) {
		return model.TopologyCDB
	}
	for _, m := range racMarkers {
		if strings.Contains(lower, m) {
			return model.TopologyRAC
		}
	}
	return model.TopologySingle
}

// Signature runs both detections.
func Signature(text string) model.FormatSignature {
	return model.FormatSignature{
		OracleVersion: Version(text),
		Topology:      Topology(text),
	}
}
