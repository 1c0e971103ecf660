package rpmpkg

import (
	"os"
	"strings"
)

// ParsePackage reads path from disk and decodes its full metadata,
// including the file list and changelog. It stats the file for Size and
// MTime and fills LocationHref with path unchanged; callers that need a
// repository-relative href should rewrite it afterward.
func ParsePackage(path string) (*Package, error) {
	return parseFile(path, true)
}

// ParseHeaderOnly is ParsePackage without decoding the file list or
// changelog, for callers that only need NEVRA and dependency data.
func ParseHeaderOnly(path string) (*Package, error) {
	return parseFile(path, false)
}

func parseFile(path string, full bool) (*Package, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, ioErr(path, err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, ioErr(path, err)
	}

	pkg, err := parseBytes(raw, full)
	if err != nil {
		return nil, parseErr(path, err)
	}
	pkg.LocationHref = path
	pkg.Size = info.Size()
	pkg.MTime = info.ModTime().Unix()
	return pkg, nil
}

// ParsePackageBytes decodes an RPM already read into memory, for callers
// like the reconciler that read a file once to feed both the SHA-256
// engine and the parser rather than letting ParsePackage read it again.
func ParsePackageBytes(raw []byte, path string, full bool) (*Package, error) {
	pkg, err := parseBytes(raw, full)
	if err != nil {
		return nil, parseErr(path, err)
	}
	pkg.LocationHref = path
	return pkg, nil
}

// parseBytes decodes an RPM file already read into memory, returning the
// header-range byte offsets of the main header within raw.
func parseBytes(raw []byte, full bool) (*Package, error) {
	c := newCursor(raw)

	if err := checkLead(c); err != nil {
		return nil, err
	}

	if _, err := readHeader(c); err != nil { // signature header, discarded
		return nil, err
	}
	if err := padTo8(c); err != nil {
		return nil, err
	}

	headerStart := int64(c.pos)
	main, err := readHeader(c)
	if err != nil {
		return nil, err
	}
	headerEnd := int64(c.pos)

	pkg := &Package{HeaderRange: HeaderRange{Start: headerStart, End: headerEnd}}

	if pkg.Name, err = main.str(tagName); err != nil {
		return nil, err
	}
	if pkg.Version, err = main.str(tagVersion); err != nil {
		return nil, err
	}
	if pkg.Release, err = main.str(tagRelease); err != nil {
		return nil, err
	}
	if pkg.Arch, err = main.str(tagArch); err != nil {
		return nil, err
	}
	if pkg.Epoch, err = main.int32(tagEpoch, 0); err != nil {
		return nil, err
	}
	if pkg.Summary, err = main.str(tagSummary); err != nil {
		return nil, err
	}
	pkg.Summary = firstLine(pkg.Summary)
	if pkg.Description, err = main.str(tagDescription); err != nil {
		return nil, err
	}
	pkg.Description = strings.TrimRight(pkg.Description, " \t\n")
	if pkg.URL, err = main.str(tagURL); err != nil {
		return nil, err
	}
	if pkg.License, err = main.str(tagLicense); err != nil {
		return nil, err
	}
	if pkg.Vendor, err = main.str(tagVendor); err != nil {
		return nil, err
	}
	if pkg.Packager, err = main.str(tagPackager); err != nil {
		return nil, err
	}
	if pkg.Group, err = main.str(tagGroup); err != nil {
		return nil, err
	}
	if pkg.BuildHost, err = main.str(tagBuildHost); err != nil {
		return nil, err
	}
	if pkg.SourceRPM, err = main.str(tagSourceRPM); err != nil {
		return nil, err
	}
	if pkg.BuildTime, err = main.int32(tagBuildTime, 0); err != nil {
		return nil, err
	}
	if pkg.ArchiveSize, err = main.int32(tagArchiveSize, 0); err != nil {
		return nil, err
	}
	if pkg.InstalledSize, err = main.int32(tagInstalledSize, 0); err != nil {
		return nil, err
	}

	if pkg.Provides, err = zipEntries(main, tagProvideName, tagProvideFlags, tagProvideVersion, false); err != nil {
		return nil, err
	}
	if pkg.Requires, err = zipEntries(main, tagRequireName, tagRequireFlags, tagRequireVersion, true); err != nil {
		return nil, err
	}
	if pkg.Conflicts, err = zipEntries(main, tagConflictName, tagConflictFlags, tagConflictVersion, false); err != nil {
		return nil, err
	}
	if pkg.Obsoletes, err = zipEntries(main, tagObsoleteName, tagObsoleteFlags, tagObsoleteVersion, false); err != nil {
		return nil, err
	}
	if pkg.Recommends, err = zipEntries(main, tagRecommendName, tagRecommendFlags, tagRecommendVersion, false); err != nil {
		return nil, err
	}
	if pkg.Suggests, err = zipEntries(main, tagSuggestName, tagSuggestFlags, tagSuggestVersion, false); err != nil {
		return nil, err
	}
	if pkg.Supplements, err = zipEntries(main, tagSupplementName, tagSupplementFlags, tagSupplementVersion, false); err != nil {
		return nil, err
	}
	if pkg.Enhances, err = zipEntries(main, tagEnhanceName, tagEnhanceFlags, tagEnhanceVersion, false); err != nil {
		return nil, err
	}

	if full {
		if pkg.Files, err = buildFileList(main); err != nil {
			return nil, err
		}
		if pkg.Changelog, err = buildChangelog(main); err != nil {
			return nil, err
		}
	}

	return pkg, nil
}

// zipEntries zips a dependency vector's parallel Name/Flags/Version
// arrays into Entry values, splitting the RPM-native "EPOCH:VERSION"
// version string into separate Epoch/Version fields. prereqAware is true
// only for the requires vector: it both enables the Pre field and drops
// synthetic "rpmlib(...)" entries (RPMSENSE_RPMLIB), matching what
// createrepo_c writes to primary.xml.
func zipEntries(s *tagStore, nameTag, flagsTag, versionTag uint32, prereqAware bool) ([]Entry, error) {
	names, err := s.strArray(nameTag)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, nil
	}
	flags, err := s.int32s(flagsTag)
	if err != nil {
		return nil, err
	}
	versions, err := s.strArray(versionTag)
	if err != nil {
		return nil, err
	}

	out := make([]Entry, 0, len(names))
	for i, name := range names {
		var f DepFlags
		if i < len(flags) {
			f = DepFlags(flags[i])
		}
		if prereqAware && int64(f)&requireFlagRPMLib != 0 {
			continue
		}
		var epoch, version, release string
		if i < len(versions) {
			epoch, version, release = splitEVR(versions[i])
		}
		out = append(out, Entry{
			Name:    name,
			Flags:   f,
			Epoch:   epoch,
			Version: version,
			Release: release,
			Pre:     prereqAware && int64(f)&requireFlagPre != 0,
		})
	}
	return out, nil
}

// firstLine returns s's first line, trimmed of surrounding whitespace, per
// spec.md §4.B's Summary rule: RPM headers occasionally carry a multi-line
// or padded Summary tag even though only the first line is meaningful.
func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

// splitEVR splits an RPM dependency version string of the form
// "[EPOCH:]VERSION[-RELEASE]" into its three parts.
func splitEVR(v string) (epoch, version, release string) {
	rest := v
	for i := 0; i < len(rest); i++ {
		if rest[i] == ':' {
			epoch, rest = rest[:i], rest[i+1:]
			break
		}
	}
	for i := len(rest) - 1; i >= 0; i-- {
		if rest[i] == '-' {
			return epoch, rest[:i], rest[i+1:]
		}
	}
	return epoch, rest, ""
}

// buildFileList reconstructs the file list per spec.md §4.B: OldFilenames
// wins if present, otherwise DirNames[DirIndexes[i]] + BaseNames[i].
func buildFileList(s *tagStore) ([]FileEntry, error) {
	old, err := s.strArray(tagOldFilenames)
	if err != nil {
		return nil, err
	}

	var paths []string
	if len(old) > 0 {
		paths = old
	} else {
		base, err := s.strArray(tagBaseNames)
		if err != nil {
			return nil, err
		}
		if len(base) == 0 {
			return nil, nil
		}
		dirs, err := s.strArray(tagDirNames)
		if err != nil {
			return nil, err
		}
		idx, err := s.int32s(tagDirIndexes)
		if err != nil {
			return nil, err
		}
		paths = make([]string, len(base))
		for i, b := range base {
			var dir string
			if i < len(idx) && int(idx[i]) < len(dirs) {
				dir = dirs[idx[i]]
			}
			paths[i] = dir + b
		}
	}

	modes, err := s.int32s(tagFileModes)
	if err != nil {
		return nil, err
	}
	flags, err := s.int32s(tagFileFlags)
	if err != nil {
		return nil, err
	}

	out := make([]FileEntry, len(paths))
	for i, p := range paths {
		kind := KindFile
		if i < len(flags) && flags[i]&fileFlagGhost != 0 {
			kind = KindGhost
		} else if i < len(modes) && int(modes[i])&modeTypeMask == modeDir {
			kind = KindDir
		}
		out[i] = FileEntry{Path: p, Kind: kind}
	}
	return out, nil
}

// buildChangelog zips the parallel changelog tags into ChangeEntry values.
func buildChangelog(s *tagStore) ([]ChangeEntry, error) {
	times, err := s.int32s(tagChangelogTime)
	if err != nil {
		return nil, err
	}
	names, err := s.strArray(tagChangelogName)
	if err != nil {
		return nil, err
	}
	texts, err := s.strArray(tagChangelogText)
	if err != nil {
		return nil, err
	}

	n := len(times)
	if len(names) < n {
		n = len(names)
	}
	if len(texts) < n {
		n = len(texts)
	}

	out := make([]ChangeEntry, n)
	for i := 0; i < n; i++ {
		out[i] = ChangeEntry{Time: times[i], Author: names[i], Text: texts[i]}
	}
	return out, nil
}
