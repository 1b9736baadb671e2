package sparql

import (
	"sort"
	"strings"

	"github.com/teranos/skosprobe/errors"
)

// RDFFormat identifies a graph serialization requested from CONSTRUCT/DESCRIBE.
type RDFFormat string

const (
	FormatTurtle   RDFFormat = "turtle"
	FormatNTriples RDFFormat = "ntriples"
	FormatRDFXML   RDFFormat = "rdfxml"
	FormatJSONLD   RDFFormat = "jsonld"
)

// FormatInfo describes a serialization.
type FormatInfo struct {
	Format      RDFFormat
	MIMEType    string
	Extension   string
	Description string
}

var formatRegistry = map[RDFFormat]FormatInfo{
	FormatTurtle: {
		Format:      FormatTurtle,
		MIMEType:    "text/turtle",
		Extension:   ".ttl",
		Description: "Turtle",
	},
	FormatNTriples: {
		Format:      FormatNTriples,
		MIMEType:    "application/n-triples",
		Extension:   ".nt",
		Description: "N-Triples, one triple per line",
	},
	FormatRDFXML: {
		Format:      FormatRDFXML,
		MIMEType:    "application/rdf+xml",
		Extension:   ".rdf",
		Description: "RDF/XML",
	},
	FormatJSONLD: {
		Format:      FormatJSONLD,
		MIMEType:    "application/ld+json",
		Extension:   ".jsonld",
		Description: "JSON-LD",
	},
}

// Info returns the registry entry for f.
func (f RDFFormat) Info() (FormatInfo, bool) {
	info, ok := formatRegistry[f]
	return info, ok
}

// MIMEType returns the Accept value for f, or "" when unknown.
func (f RDFFormat) MIMEType() string {
	return formatRegistry[f].MIMEType
}

// ParseRDFFormat resolves a format name, file extension or MIME type.
func ParseRDFFormat(s string) (RDFFormat, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, info := range formatRegistry {
		if key == string(info.Format) || key == info.MIMEType || key == info.Extension || "."+key == info.Extension {
			return info.Format, nil
		}
	}
	switch key {
	case "ttl":
		return FormatTurtle, nil
	case "nt", "n-triples":
		return FormatNTriples, nil
	case "rdf", "xml", "rdf/xml":
		return FormatRDFXML, nil
	case "json-ld":
		return FormatJSONLD, nil
	}
	return "", errors.Newf("unknown RDF format %q (supported: %s)", s, strings.Join(formatNames(), ", "))
}

// Formats lists the supported serializations in name order.
func Formats() []FormatInfo {
	infos := make([]FormatInfo, 0, len(formatRegistry))
	for _, info := range formatRegistry {
		infos = append(infos, info)
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Format < infos[j].Format })
	return infos
}

func formatNames() []string {
	names := make([]string, 0, len(formatRegistry))
	for _, info := range Formats() {
		names = append(names, string(info.Format))
	}
	return names
}
