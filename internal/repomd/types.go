// Package repomd implements the streaming XML codec for the three
// documents that make up a yum/dnf repository index: primary.xml,
// filelists.xml and repomd.xml.
package repomd

const (
	primaryXMLNS    = "http://linux.duke.edu/metadata/common"
	primaryRPMXMLNS = "http://linux.duke.edu/metadata/rpm"
	filelistsXMLNS  = "http://linux.duke.edu/metadata/filelists"
	repomdXMLNS     = "http://linux.duke.edu/metadata/repo"
	repomdRPMXMLNS  = "http://linux.duke.edu/metadata/rpm"
)

// decodeVersion mirrors the <version epoch="" ver="" rel=""/> element.
// Field tags deliberately carry no namespace prefix: Go's decoder matches
// struct tags against an element's local name regardless of which
// namespace prefix the document used, so this same shape reads both
// primary.xml and filelists.xml version elements.
type decodeVersion struct {
	Epoch string `xml:"epoch,attr"`
	Ver   string `xml:"ver,attr"`
	Rel   string `xml:"rel,attr"`
}

type decodeChecksum struct {
	Type  string `xml:"type,attr"`
	Pkgid string `xml:"pkgid,attr"`
	Value string `xml:",chardata"`
}

type decodeTime struct {
	File  int64 `xml:"file,attr"`
	Build int64 `xml:"build,attr"`
}

type decodeSize struct {
	Package   int64 `xml:"package,attr"`
	Installed int64 `xml:"installed,attr"`
	Archive   int64 `xml:"archive,attr"`
}

type decodeLocation struct {
	Href string `xml:"href,attr"`
}

type decodeHeaderRange struct {
	Start int64 `xml:"start,attr"`
	End   int64 `xml:"end,attr"`
}

type decodeEntry struct {
	Name  string `xml:"name,attr"`
	Flags string `xml:"flags,attr"`
	Epoch string `xml:"epoch,attr"`
	Ver   string `xml:"ver,attr"`
	Rel   string `xml:"rel,attr"`
	Pre   string `xml:"pre,attr"`
}

type decodeFile struct {
	Type string `xml:"type,attr"`
	Path string `xml:",chardata"`
}

type decodeFormat struct {
	License     string            `xml:"license"`
	Vendor      string            `xml:"vendor"`
	Group       string            `xml:"group"`
	BuildHost   string            `xml:"buildhost"`
	SourceRPM   string            `xml:"sourcerpm"`
	HeaderRange decodeHeaderRange `xml:"header-range"`
	Provides    []decodeEntry     `xml:"provides>entry"`
	Requires    []decodeEntry     `xml:"requires>entry"`
	Conflicts   []decodeEntry     `xml:"conflicts>entry"`
	Obsoletes   []decodeEntry     `xml:"obsoletes>entry"`
	Files       []decodeFile      `xml:"file"`
}

// decodePrimaryPackage mirrors one <package type="rpm"> element of
// primary.xml.
type decodePrimaryPackage struct {
	Type        string         `xml:"type,attr"`
	Name        string         `xml:"name"`
	Arch        string         `xml:"arch"`
	Version     decodeVersion  `xml:"version"`
	Checksum    decodeChecksum `xml:"checksum"`
	Summary     string         `xml:"summary"`
	Description string         `xml:"description"`
	Packager    string         `xml:"packager"`
	URL         string         `xml:"url"`
	Time        decodeTime     `xml:"time"`
	Size        decodeSize     `xml:"size"`
	Location    decodeLocation `xml:"location"`
	Format      decodeFormat   `xml:"format"`
}

// decodeFilelistsPackage mirrors one <package> element of filelists.xml.
type decodeFilelistsPackage struct {
	Pkgid   string        `xml:"pkgid,attr"`
	Name    string        `xml:"name,attr"`
	Arch    string        `xml:"arch,attr"`
	Version decodeVersion `xml:"version"`
	Files   []decodeFile  `xml:"file"`
}

// decodeRepomdData mirrors one <data type="..."> element of repomd.xml.
type decodeRepomdData struct {
	Type         string         `xml:"type,attr"`
	Checksum     decodeChecksum `xml:"checksum"`
	OpenChecksum decodeChecksum `xml:"open-checksum"`
	Location     decodeLocation `xml:"location"`
	Timestamp    int64          `xml:"timestamp"`
	Size         int64          `xml:"size"`
	OpenSize     int64          `xml:"open-size"`
}

// decodeRepomd mirrors the full repomd.xml document; it is small enough
// to decode in one shot rather than stream.
type decodeRepomd struct {
	Revision int64              `xml:"revision"`
	Data     []decodeRepomdData `xml:"data"`
}

// RepomdEntry is one <data> entry's information, keyed by data kind.
type RepomdEntry struct {
	LocationHref string
	Checksum     string
	OpenChecksum string
	Size         int64
	OpenSize     int64
	Timestamp    int64
}

// RepoMd is the decoded contents of repomd.xml.
type RepoMd struct {
	Revision int64
	Data     map[string]RepomdEntry
}
