// Package dump serializes a single parsed RPM package for the `rpm dump`
// command. JSON and YAML are a straight rendering of rpmpkg.Package; XML
// reuses internal/repomd's primary.xml element writer so the output is a
// valid fragment of what repository generate would actually emit for the
// same package.
package dump

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/rpmtool/rpm-tool/internal/repomd"
	"github.com/rpmtool/rpm-tool/internal/rpmpkg"
)

// Format selects the output encoding for Dump.
type Format int

const (
	FormatYAML Format = iota
	FormatJSON
	FormatXML
)

// ParseFormat maps the `-f` flag's value to a Format. The default, when s
// is empty, is YAML.
func ParseFormat(s string) (Format, error) {
	switch s {
	case "", "yaml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	case "xml":
		return FormatXML, nil
	default:
		return 0, fmt.Errorf("dump: unknown format %q (want json, yaml or xml)", s)
	}
}

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatXML:
		return "xml"
	default:
		return "yaml"
	}
}

// Dump renders pkg in the requested format, as a single record suitable
// for printing to stdout.
func Dump(pkg *rpmpkg.Package, format Format) (string, error) {
	switch format {
	case FormatJSON:
		b, err := json.MarshalIndent(pkg, "", "  ")
		if err != nil {
			return "", fmt.Errorf("dump: json: %w", err)
		}
		return string(b), nil
	case FormatXML:
		var buf bytes.Buffer
		bw := bufio.NewWriter(&buf)
		fmt.Fprint(bw, "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
		repomd.WritePackageXML(bw, pkg, pkg.UsefulFiles(nil), repomd.PrimaryNamespaceAttrs())
		if err := bw.Flush(); err != nil {
			return "", fmt.Errorf("dump: xml: %w", err)
		}
		return buf.String(), nil
	default:
		b, err := yaml.Marshal(pkg)
		if err != nil {
			return "", fmt.Errorf("dump: yaml: %w", err)
		}
		return string(b), nil
	}
}
