package repomd

import (
	"bufio"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rpmtool/rpm-tool/internal/rpmpkg"
)

// PrimaryWriter streams <package type="rpm"> elements into a primary.xml
// document. The caller must know the final package count up front (the
// reconciler always does, since it diffs before writing) so the opening
// <metadata packages="N"> tag can be emitted without buffering.
type PrimaryWriter struct {
	w       *bufio.Writer
	written int
}

// NewPrimaryWriter opens the document and writes its root element.
func NewPrimaryWriter(w io.Writer, total int) (*PrimaryWriter, error) {
	bw := bufio.NewWriter(w)
	_, err := fmt.Fprintf(bw, "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<metadata xmlns=\"%s\" xmlns:rpm=\"%s\" packages=\"%d\">\n",
		primaryXMLNS, primaryRPMXMLNS, total)
	if err != nil {
		return nil, err
	}
	return &PrimaryWriter{w: bw}, nil
}

// WritePackage writes one <package> element. useful controls which of
// pkg's files are written into its <format>; callers pass the result of
// pkg.UsefulFiles.
func (pw *PrimaryWriter) WritePackage(pkg *rpmpkg.Package, useful []rpmpkg.FileEntry) error {
	WritePackageXML(pw.w, pkg, useful, "")
	pw.written++
	return pw.w.Flush()
}

// WritePackageXML writes one <package type="rpm"> element in exactly the
// shape PrimaryWriter emits it into primary.xml: same element order, same
// rpm:-namespaced dependency and file tags. rootAttrs is appended to the
// opening <package> tag verbatim, so a standalone caller (rpm dump -f xml)
// can declare the common/rpm namespaces there instead of relying on an
// enclosing <metadata> root.
func WritePackageXML(w io.Writer, pkg *rpmpkg.Package, useful []rpmpkg.FileEntry, rootAttrs string) {
	fmt.Fprintf(w, "<package type=\"rpm\"%s>\n", rootAttrs)
	writeElem(w, "name", pkg.Name)
	writeElem(w, "arch", pkg.Arch)
	fmt.Fprintf(w, "<version epoch=\"%s\" ver=\"%s\" rel=\"%s\"/>\n", escAttr(epochStr(pkg.Epoch)), escAttr(pkg.Version), escAttr(pkg.Release))
	fmt.Fprintf(w, "<checksum type=\"sha256\" pkgid=\"YES\">%s</checksum>\n", escText(pkg.Checksum))
	writeElem(w, "summary", pkg.Summary)
	writeElem(w, "description", pkg.Description)
	writeElem(w, "packager", pkg.Packager)
	writeElem(w, "url", pkg.URL)
	fmt.Fprintf(w, "<time file=\"%d\" build=\"%d\"/>\n", pkg.MTime, pkg.BuildTime)
	fmt.Fprintf(w, "<size package=\"%d\" installed=\"%d\" archive=\"%d\"/>\n", pkg.Size, pkg.InstalledSize, pkg.ArchiveSize)
	fmt.Fprintf(w, "<location href=\"%s\"/>\n", escAttr(pkg.LocationHref))

	fmt.Fprintf(w, "<format>\n")
	writeElem(w, "rpm:license", pkg.License)
	writeElem(w, "rpm:vendor", pkg.Vendor)
	writeElem(w, "rpm:group", pkg.Group)
	writeElem(w, "rpm:buildhost", pkg.BuildHost)
	writeElem(w, "rpm:sourcerpm", pkg.SourceRPM)
	fmt.Fprintf(w, "<rpm:header-range start=\"%d\" end=\"%d\"/>\n", pkg.HeaderRange.Start, pkg.HeaderRange.End)
	writeEntryList(w, "rpm:provides", pkg.Provides)
	writeEntryList(w, "rpm:requires", pkg.Requires)
	writeEntryList(w, "rpm:conflicts", pkg.Conflicts)
	writeEntryList(w, "rpm:obsoletes", pkg.Obsoletes)
	for _, f := range useful {
		writeFile(w, f)
	}
	fmt.Fprintf(w, "</format>\n")
	fmt.Fprintf(w, "</package>\n")
}

// PrimaryNamespaceAttrs is the xmlns/xmlns:rpm attribute text WritePackageXML
// needs when it has no enclosing <metadata> root to declare them, for
// standalone single-package XML fragments.
func PrimaryNamespaceAttrs() string {
	return fmt.Sprintf(" xmlns=\"%s\" xmlns:rpm=\"%s\"", primaryXMLNS, primaryRPMXMLNS)
}

// Close finishes the document.
func (pw *PrimaryWriter) Close() error {
	if _, err := pw.w.WriteString("</metadata>\n"); err != nil {
		return err
	}
	return pw.w.Flush()
}

// FilelistsWriter streams <package> elements into a filelists.xml
// document.
type FilelistsWriter struct {
	w *bufio.Writer
}

func NewFilelistsWriter(w io.Writer, total int) (*FilelistsWriter, error) {
	bw := bufio.NewWriter(w)
	_, err := fmt.Fprintf(bw, "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<filelists xmlns=\"%s\" packages=\"%d\">\n", filelistsXMLNS, total)
	if err != nil {
		return nil, err
	}
	return &FilelistsWriter{w: bw}, nil
}

func (fw *FilelistsWriter) WritePackage(pkg *rpmpkg.Package) error {
	w := fw.w
	fmt.Fprintf(w, "<package pkgid=\"%s\" name=\"%s\" arch=\"%s\">\n", escAttr(pkg.Checksum), escAttr(pkg.Name), escAttr(pkg.Arch))
	fmt.Fprintf(w, "<version epoch=\"%s\" ver=\"%s\" rel=\"%s\"/>\n", escAttr(epochStr(pkg.Epoch)), escAttr(pkg.Version), escAttr(pkg.Release))
	for _, f := range pkg.Files {
		writeFile(w, f)
	}
	fmt.Fprintf(w, "</package>\n")
	return w.Flush()
}

func (fw *FilelistsWriter) Close() error {
	if _, err := fw.w.WriteString("</filelists>\n"); err != nil {
		return err
	}
	return fw.w.Flush()
}

// WriteRepoMd renders a complete repomd.xml document.
func WriteRepoMd(w io.Writer, revision int64, entries map[string]RepomdEntry, order []string) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n<repomd xmlns=\"%s\" xmlns:rpm=\"%s\">\n", repomdXMLNS, repomdRPMXMLNS)
	fmt.Fprintf(bw, "<revision>%d</revision>\n", revision)
	for _, kind := range order {
		e, ok := entries[kind]
		if !ok {
			continue
		}
		fmt.Fprintf(bw, "<data type=\"%s\">\n", escAttr(kind))
		fmt.Fprintf(bw, "<checksum type=\"sha256\">%s</checksum>\n", escText(e.Checksum))
		fmt.Fprintf(bw, "<open-checksum type=\"sha256\">%s</open-checksum>\n", escText(e.OpenChecksum))
		fmt.Fprintf(bw, "<location href=\"%s\"/>\n", escAttr(e.LocationHref))
		fmt.Fprintf(bw, "<timestamp>%d</timestamp>\n", e.Timestamp)
		fmt.Fprintf(bw, "<size>%d</size>\n", e.Size)
		fmt.Fprintf(bw, "<open-size>%d</open-size>\n", e.OpenSize)
		fmt.Fprintf(bw, "</data>\n")
	}
	fmt.Fprintf(bw, "</repomd>\n")
	return bw.Flush()
}

func writeElem(w io.Writer, name, value string) {
	fmt.Fprintf(w, "<%s>%s</%s>\n", name, escText(value), name)
}

func writeEntryList(w io.Writer, tag string, entries []rpmpkg.Entry) {
	if len(entries) == 0 {
		return
	}
	fmt.Fprintf(w, "<%s>\n", tag)
	for _, e := range entries {
		fmt.Fprintf(w, "<rpm:entry name=\"%s\"", escAttr(e.Name))
		if flags := e.Flags.String(); flags != "" {
			fmt.Fprintf(w, " flags=\"%s\"", escAttr(flags))
		}
		if e.Epoch != "" {
			fmt.Fprintf(w, " epoch=\"%s\"", escAttr(e.Epoch))
		}
		if e.Version != "" {
			fmt.Fprintf(w, " ver=\"%s\"", escAttr(e.Version))
		}
		if e.Release != "" {
			fmt.Fprintf(w, " rel=\"%s\"", escAttr(e.Release))
		}
		if e.Pre {
			fmt.Fprintf(w, " pre=\"1\"")
		}
		fmt.Fprintf(w, "/>\n")
	}
	fmt.Fprintf(w, "</%s>\n", tag)
}

func writeFile(w io.Writer, f rpmpkg.FileEntry) {
	switch f.Kind {
	case rpmpkg.KindDir:
		fmt.Fprintf(w, "<file type=\"dir\">%s</file>\n", escText(f.Path))
	case rpmpkg.KindGhost:
		fmt.Fprintf(w, "<file type=\"ghost\">%s</file>\n", escText(f.Path))
	default:
		fmt.Fprintf(w, "<file>%s</file>\n", escText(f.Path))
	}
}

func epochStr(e int64) string {
	return strconv.FormatInt(e, 10)
}

func escText(s string) string {
	var buf bytes.Buffer
	if err := xml.EscapeText(&buf, []byte(s)); err != nil {
		return s
	}
	return buf.String()
}

var attrReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
)

func escAttr(s string) string {
	return attrReplacer.Replace(s)
}
