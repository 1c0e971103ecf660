package dump

import (
	"strings"
	"testing"

	"github.com/rpmtool/rpm-tool/internal/rpmpkg"
)

func samplePackage() *rpmpkg.Package {
	return &rpmpkg.Package{
		Name: "hello", Epoch: 0, Version: "2.10", Release: "3.el9", Arch: "x86_64",
		Checksum: strings.Repeat("a", 64),
		Provides: []rpmpkg.Entry{{Name: "hello", Flags: rpmpkg.FlagEQ, Version: "2.10"}},
		Files:    []rpmpkg.FileEntry{{Path: "/usr/bin/hello", Kind: rpmpkg.KindFile}},
	}
}

func TestParseFormatDefaultsToYAML(t *testing.T) {
	f, err := ParseFormat("")
	if err != nil || f != FormatYAML {
		t.Fatalf("ParseFormat(\"\") = %v, %v", f, err)
	}
}

func TestParseFormatRejectsUnknown(t *testing.T) {
	if _, err := ParseFormat("toml"); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}

func TestDumpJSONContainsNameAndFlagToken(t *testing.T) {
	s, err := Dump(samplePackage(), FormatJSON)
	if err != nil {
		t.Fatalf("Dump: %v", err)
	}
	if !strings.Contains(s, `"name": "hello"`) {
		t.Fatalf("missing name field: %s", s)
	}
	if !strings.Contains(s, `"EQ"`) {
		t.Fatalf("expected dep flags as token, not int: %s", s)
	}
}

func TestDumpYAMLContainsName(t *testing.T) {
	s, err := Dump(samplePackage(), FormatYAML)
	if err != nil {
		t.Fatalf("Dump: %v", err)
	}
	if !strings.Contains(s, "name: hello") {
		t.Fatalf("missing name field: %s", s)
	}
}

func TestDumpXMLContainsName(t *testing.T) {
	s, err := Dump(samplePackage(), FormatXML)
	if err != nil {
		t.Fatalf("Dump: %v", err)
	}
	if !strings.Contains(s, "<name>hello</name>") {
		t.Fatalf("missing name element: %s", s)
	}
}

func TestDumpXMLMatchesPrimaryElementShape(t *testing.T) {
	s, err := Dump(samplePackage(), FormatXML)
	if err != nil {
		t.Fatalf("Dump: %v", err)
	}
	if !strings.Contains(s, `<package type="rpm" xmlns="http://linux.duke.edu/metadata/common" xmlns:rpm="http://linux.duke.edu/metadata/rpm">`) {
		t.Fatalf("expected a namespaced <package type=\"rpm\"> root, got: %s", s)
	}
	if !strings.Contains(s, `<rpm:provides>`) || !strings.Contains(s, `<rpm:entry name="hello"`) {
		t.Fatalf("expected rpm:-namespaced <rpm:provides><rpm:entry .../></rpm:provides>, got: %s", s)
	}
	if strings.Contains(s, "<Package>") || strings.Contains(s, "<Provides>") || strings.Contains(s, "<Entry") {
		t.Fatalf("expected no Go-struct-field-named elements from a generic xml.Marshal, got: %s", s)
	}
}
