// Package rpmpkg decodes RPM package files into a typed metadata model.
package rpmpkg

import "strconv"

// DepFlags encodes the comparison operator on a dependency entry, using the
// same bit layout RPM headers store it in (low nibble of the *Flags tags).
type DepFlags int

const (
	FlagNone DepFlags = 0
	FlagLT   DepFlags = 0x02
	FlagGT   DepFlags = 0x04
	FlagEQ   DepFlags = 0x08
	FlagLE   DepFlags = FlagLT | FlagEQ
	FlagGE   DepFlags = FlagGT | FlagEQ
)

// requireFlagPre is the RPMSENSE_PREREQ bit, set on REQUIRE entries that
// must be satisfied before the package's own scripts run.
const requireFlagPre = 0x40

// requireFlagRPMLib is RPMSENSE_RPMLIB, set on synthetic "rpmlib(...)"
// require entries rpmbuild generates to record which payload/header
// features a package needs from the installing rpmlib itself. createrepo_c
// excludes these from primary.xml since they describe a property of the
// packaging tool, not a dependency a repository client needs to resolve.
const requireFlagRPMLib = 0x1000000

// ParseDepFlags inverts DepFlags.String, for codecs that read the XML
// flags attribute back into a dependency vector.
func ParseDepFlags(s string) DepFlags {
	switch s {
	case "LT":
		return FlagLT
	case "GT":
		return FlagGT
	case "EQ":
		return FlagEQ
	case "LE":
		return FlagLE
	case "GE":
		return FlagGE
	default:
		return FlagNone
	}
}

// MarshalJSON renders DepFlags as its RPM-familiar token ("LT", "EQ", ...)
// rather than a bare int, so rpm dump output reads the way an operator
// reading a spec file would expect.
func (f DepFlags) MarshalJSON() ([]byte, error) {
	return []byte(`"` + f.String() + `"`), nil
}

// MarshalYAML mirrors MarshalJSON's token form for the YAML dump path.
func (f DepFlags) MarshalYAML() (interface{}, error) {
	return f.String(), nil
}

func (f DepFlags) String() string {
	switch f & 0x0f {
	case FlagLT:
		return "LT"
	case FlagGT:
		return "GT"
	case FlagEQ:
		return "EQ"
	case FlagLE:
		return "LE"
	case FlagGE:
		return "GE"
	default:
		return ""
	}
}

// Entry is one dependency vector element: a name plus an optional
// version comparison.
type Entry struct {
	Name    string   `json:"name" yaml:"name" xml:"name"`
	Flags   DepFlags `json:"flags" yaml:"flags" xml:"flags"`
	Epoch   string   `json:"epoch,omitempty" yaml:"epoch,omitempty" xml:"epoch,omitempty"`
	Version string   `json:"version,omitempty" yaml:"version,omitempty" xml:"version,omitempty"`
	Release string   `json:"release,omitempty" yaml:"release,omitempty" xml:"release,omitempty"`
	Pre     bool     `json:"pre,omitempty" yaml:"pre,omitempty" xml:"pre,omitempty"`
}

// FileKind classifies a file list entry.
type FileKind int

const (
	KindFile FileKind = iota
	KindDir
	KindGhost
)

func (k FileKind) String() string {
	switch k {
	case KindDir:
		return "dir"
	case KindGhost:
		return "ghost"
	default:
		return "file"
	}
}

// FileEntry is one path from a package's file list.
type FileEntry struct {
	Path string   `json:"path" yaml:"path" xml:"path"`
	Kind FileKind `json:"kind" yaml:"kind" xml:"kind"`
}

// MarshalJSON renders FileKind as "file"/"dir"/"ghost".
func (k FileKind) MarshalJSON() ([]byte, error) {
	return []byte(`"` + k.String() + `"`), nil
}

// MarshalYAML mirrors MarshalJSON's string form.
func (k FileKind) MarshalYAML() (interface{}, error) {
	return k.String(), nil
}

// ChangeEntry is one RPM %changelog record.
type ChangeEntry struct {
	Time   int64  `json:"time" yaml:"time" xml:"time"`
	Author string `json:"author" yaml:"author" xml:"author"`
	Text   string `json:"text" yaml:"text" xml:"text"`
}

// HeaderRange is the byte offset of the main header within the RPM file,
// needed to emit <rpm:header-range> in primary.xml.
type HeaderRange struct {
	Start int64 `json:"start" yaml:"start" xml:"start"`
	End   int64 `json:"end" yaml:"end" xml:"end"`
}

// Package is the canonical in-memory record for one RPM file's metadata.
type Package struct {
	Name    string `json:"name" yaml:"name" xml:"name"`
	Epoch   int64  `json:"epoch" yaml:"epoch" xml:"epoch"`
	Version string `json:"version" yaml:"version" xml:"version"`
	Release string `json:"release" yaml:"release" xml:"release"`
	Arch    string `json:"arch" yaml:"arch" xml:"arch"`

	LocationHref string `json:"location_href,omitempty" yaml:"location_href,omitempty" xml:"location_href,omitempty"`
	Size         int64  `json:"size" yaml:"size" xml:"size"`
	MTime        int64  `json:"mtime" yaml:"mtime" xml:"mtime"`
	Checksum     string `json:"checksum" yaml:"checksum" xml:"checksum"`

	Summary       string `json:"summary,omitempty" yaml:"summary,omitempty" xml:"summary,omitempty"`
	Description   string `json:"description,omitempty" yaml:"description,omitempty" xml:"description,omitempty"`
	URL           string `json:"url,omitempty" yaml:"url,omitempty" xml:"url,omitempty"`
	License       string `json:"license,omitempty" yaml:"license,omitempty" xml:"license,omitempty"`
	Vendor        string `json:"vendor,omitempty" yaml:"vendor,omitempty" xml:"vendor,omitempty"`
	Packager      string `json:"packager,omitempty" yaml:"packager,omitempty" xml:"packager,omitempty"`
	Group         string `json:"group,omitempty" yaml:"group,omitempty" xml:"group,omitempty"`
	BuildHost     string `json:"build_host,omitempty" yaml:"build_host,omitempty" xml:"build_host,omitempty"`
	SourceRPM     string `json:"source_rpm,omitempty" yaml:"source_rpm,omitempty" xml:"source_rpm,omitempty"`
	BuildTime     int64  `json:"build_time" yaml:"build_time" xml:"build_time"`
	ArchiveSize   int64  `json:"archive_size" yaml:"archive_size" xml:"archive_size"`
	InstalledSize int64  `json:"installed_size" yaml:"installed_size" xml:"installed_size"`

	Provides    []Entry `json:"provides,omitempty" yaml:"provides,omitempty" xml:"provides>entry,omitempty"`
	Requires    []Entry `json:"requires,omitempty" yaml:"requires,omitempty" xml:"requires>entry,omitempty"`
	Conflicts   []Entry `json:"conflicts,omitempty" yaml:"conflicts,omitempty" xml:"conflicts>entry,omitempty"`
	Obsoletes   []Entry `json:"obsoletes,omitempty" yaml:"obsoletes,omitempty" xml:"obsoletes>entry,omitempty"`
	Recommends  []Entry `json:"recommends,omitempty" yaml:"recommends,omitempty" xml:"recommends>entry,omitempty"`
	Suggests    []Entry `json:"suggests,omitempty" yaml:"suggests,omitempty" xml:"suggests>entry,omitempty"`
	Supplements []Entry `json:"supplements,omitempty" yaml:"supplements,omitempty" xml:"supplements>entry,omitempty"`
	Enhances    []Entry `json:"enhances,omitempty" yaml:"enhances,omitempty" xml:"enhances>entry,omitempty"`

	Files []FileEntry `json:"files,omitempty" yaml:"files,omitempty" xml:"files>file,omitempty"`

	Changelog []ChangeEntry `json:"changelog,omitempty" yaml:"changelog,omitempty" xml:"changelog>entry,omitempty"`

	HeaderRange HeaderRange `json:"header_range" yaml:"header_range" xml:"header_range"`
}

// UsefulFiles returns the subset of Files that belongs in primary.xml:
// executables under the well-known bin/sbin/etc directories, plus anything
// matching the configured useful-files regex.
func (p *Package) UsefulFiles(useful Matcher) []FileEntry {
	var out []FileEntry
	for _, f := range p.Files {
		if isWellKnownPrimaryPath(f.Path) || (useful != nil && useful.MatchString(f.Path)) {
			out = append(out, f)
		}
	}
	return out
}

// Matcher is satisfied by *regexp.Regexp; kept as an interface so callers
// that have no configured pattern can pass nil.
type Matcher interface {
	MatchString(string) bool
}

func isWellKnownPrimaryPath(path string) bool {
	for _, prefix := range []string{"/usr/bin/", "/bin/", "/sbin/", "/usr/sbin/", "/etc/"} {
		if len(path) >= len(prefix) && path[:len(prefix)] == prefix {
			return true
		}
	}
	return false
}

// NEVRA returns the (name, epoch, version, release, arch) identity tuple
// used to detect duplicate packages across a repository, per spec.md §3.
func (p *Package) NEVRA() [5]string {
	return [5]string{p.Name, epochString(p.Epoch), p.Version, p.Release, p.Arch}
}

func epochString(e int64) string {
	return strconv.FormatInt(e, 10)
}
