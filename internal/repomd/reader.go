package repomd

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"

	"github.com/rpmtool/rpm-tool/internal/rpmpkg"
)

// PrimaryReader is a streaming pull-parser over primary.xml: it yields one
// Package per <package type="rpm"> element and silently skips any other
// element type, per spec.md's "only type=\"rpm\" entries are kept" rule.
type PrimaryReader struct {
	dec *xml.Decoder
}

// NewPrimaryReader wraps r, which must already be decompressed.
func NewPrimaryReader(r io.Reader) *PrimaryReader {
	return &PrimaryReader{dec: xml.NewDecoder(r)}
}

// Next returns the next rpm package, or (nil, io.EOF) once the document
// is exhausted.
func (pr *PrimaryReader) Next() (*rpmpkg.Package, error) {
	for {
		tok, err := pr.dec.Token()
		if err != nil {
			return nil, err
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "package" {
			continue
		}

		var raw decodePrimaryPackage
		if err := pr.dec.DecodeElement(&raw, &start); err != nil {
			return nil, fmt.Errorf("decode package element: %w", err)
		}
		if raw.Type != "rpm" {
			continue
		}
		return primaryToPackage(&raw), nil
	}
}

// ReadPrimary decodes every rpm package in r into memory. Large
// repositories should prefer PrimaryReader.Next directly.
func ReadPrimary(r io.Reader) ([]*rpmpkg.Package, error) {
	pr := NewPrimaryReader(r)
	var out []*rpmpkg.Package
	for {
		pkg, err := pr.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		out = append(out, pkg)
	}
}

func primaryToPackage(raw *decodePrimaryPackage) *rpmpkg.Package {
	epoch, _ := strconv.ParseInt(orZero(raw.Version.Epoch), 10, 64)
	pkg := &rpmpkg.Package{
		Name:          raw.Name,
		Epoch:         epoch,
		Version:       raw.Version.Ver,
		Release:       raw.Version.Rel,
		Arch:          raw.Arch,
		LocationHref:  raw.Location.Href,
		Size:          raw.Size.Package,
		MTime:         raw.Time.File,
		Checksum:      raw.Checksum.Value,
		Summary:       raw.Summary,
		Description:   raw.Description,
		URL:           raw.URL,
		Packager:      raw.Packager,
		BuildTime:     raw.Time.Build,
		ArchiveSize:   raw.Size.Archive,
		InstalledSize: raw.Size.Installed,
		License:       raw.Format.License,
		Vendor:        raw.Format.Vendor,
		Group:         raw.Format.Group,
		BuildHost:     raw.Format.BuildHost,
		SourceRPM:     raw.Format.SourceRPM,
		HeaderRange: rpmpkg.HeaderRange{
			Start: raw.Format.HeaderRange.Start,
			End:   raw.Format.HeaderRange.End,
		},
		Provides:  decodeEntries(raw.Format.Provides),
		Requires:  decodeEntries(raw.Format.Requires),
		Conflicts: decodeEntries(raw.Format.Conflicts),
		Obsoletes: decodeEntries(raw.Format.Obsoletes),
		Files:     decodeFiles(raw.Format.Files),
	}
	return pkg
}

func decodeEntries(in []decodeEntry) []rpmpkg.Entry {
	if len(in) == 0 {
		return nil
	}
	out := make([]rpmpkg.Entry, len(in))
	for i, e := range in {
		out[i] = rpmpkg.Entry{
			Name:    e.Name,
			Flags:   rpmpkg.ParseDepFlags(e.Flags),
			Epoch:   e.Epoch,
			Version: e.Ver,
			Release: e.Rel,
			Pre:     e.Pre == "1",
		}
	}
	return out
}

func decodeFiles(in []decodeFile) []rpmpkg.FileEntry {
	if len(in) == 0 {
		return nil
	}
	out := make([]rpmpkg.FileEntry, len(in))
	for i, f := range in {
		kind := rpmpkg.KindFile
		switch f.Type {
		case "dir":
			kind = rpmpkg.KindDir
		case "ghost":
			kind = rpmpkg.KindGhost
		}
		out[i] = rpmpkg.FileEntry{Path: f.Path, Kind: kind}
	}
	return out
}

func orZero(s string) string {
	if s == "" {
		return "0"
	}
	return s
}

// ReadFilelists decodes filelists.xml into a map keyed by pkgid (the
// package's sha256 checksum), for joining onto primary.xml packages.
func ReadFilelists(r io.Reader) (map[string][]rpmpkg.FileEntry, error) {
	dec := xml.NewDecoder(r)
	out := make(map[string][]rpmpkg.FileEntry)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "package" {
			continue
		}
		var raw decodeFilelistsPackage
		if err := dec.DecodeElement(&raw, &start); err != nil {
			return nil, fmt.Errorf("decode filelists package: %w", err)
		}
		out[raw.Pkgid] = decodeFiles(raw.Files)
	}
}

// ReadRepoMd decodes repomd.xml.
func ReadRepoMd(r io.Reader) (*RepoMd, error) {
	var raw decodeRepomd
	if err := xml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode repomd.xml: %w", err)
	}
	out := &RepoMd{Revision: raw.Revision, Data: make(map[string]RepomdEntry, len(raw.Data))}
	for _, d := range raw.Data {
		out.Data[d.Type] = RepomdEntry{
			LocationHref: d.Location.Href,
			Checksum:     d.Checksum.Value,
			OpenChecksum: d.OpenChecksum.Value,
			Size:         d.Size,
			OpenSize:     d.OpenSize,
			Timestamp:    d.Timestamp,
		}
	}
	return out, nil
}
