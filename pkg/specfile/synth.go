package specfile

import (
	"strings"
)

// VersionInfo carries the substitution values derived from the source tree's
// version-control metadata.
type VersionInfo struct {
	// Version is the numeric project version, e.g. "15.2.1".
	Version string
	// Release is the release qualifier, e.g. "433.g12ab34cd" or "0".
	Release string
}

// Scripts is the synthesizer's output: a build script, an install script
// executed against the output tree, and a deferred post-install script run
// inside the final image root.
type Scripts struct {
	Build       string
	Install     string
	PostInstall string
}

const scriptHeader = "#!/bin/sh\nset -e\n"

// Synthesize produces working scripts from a recipe document. Placeholder
// substitutions that find no target are silent no-ops; only a missing
// document is an error, and that is handled by Load.
func Synthesize(doc *Document, ver VersionInfo) *Scripts {
	working := prepare(doc, ver)

	build := working.Section("build")

	var install []string
	for _, line := range working.Section("install") {
		if isPackagedInstall(line) {
			continue
		}
		install = append(install, line)
	}

	return &Scripts{
		Build:       scriptHeader + strings.Join(build, "\n") + "\n",
		Install:     scriptHeader + strings.Join(install, "\n") + "\n",
		PostInstall: postInstall(working),
	}
}

// prepare applies placeholder substitution and the structural edits to a
// copy of the document, leaving the input untouched.
func prepare(doc *Document, ver VersionInfo) *Document {
	subs := [][2]string{
		{"@PROJECT_VERSION@", ver.Version},
		{"@RPM_RELEASE@", ver.Release},
		{"@TARBALL_BASENAME@", "ceph-" + ver.Version},
	}

	var out []string
	for _, line := range doc.lines {
		for _, s := range subs {
			line = strings.ReplaceAll(line, s[0], s[1])
		}
		if isFileListNoop(line) || isDedupInstruction(line) {
			continue
		}
		out = append(out, idempotentMkdir(line))
	}
	return New(out)
}

// idempotentMkdir rewrites plain mkdir invocations so re-running a script
// against a pre-existing tree does not fail on directories that already
// exist. Only flag tokens count when checking for an existing -p; a "-p"
// inside a target path must not suppress the rewrite.
func idempotentMkdir(line string) string {
	trimmed := strings.TrimLeft(line, " \t")
	fields := strings.Fields(trimmed)
	if len(fields) == 0 || fields[0] != "mkdir" {
		return line
	}
	for _, f := range fields[1:] {
		if strings.HasPrefix(f, "-") && strings.Contains(f, "p") {
			return line
		}
	}
	indent := line[:len(line)-len(trimmed)]
	return indent + "mkdir -p " + strings.TrimPrefix(trimmed, "mkdir ")
}

// isFileListNoop matches %find_lang invocations. They only generate file
// lists for the packaging tool and do nothing useful here.
func isFileListNoop(line string) bool {
	fields := strings.Fields(line)
	return len(fields) > 0 && fields[0] == "%find_lang"
}

// isDedupInstruction matches %fdupes invocations. Hardlink deduplication is
// not meaningful against a bind-mounted output tree.
func isDedupInstruction(line string) bool {
	fields := strings.Fields(line)
	return len(fields) > 0 && fields[0] == "%fdupes"
}

// isPackagedInstall reports whether the line is the packaging tool's own
// install invocation. The install step is driven separately, against the
// output tree, so these lines are dropped from the install script.
func isPackagedInstall(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	if fields[0] == "%make_install" {
		return true
	}
	var hasMake, hasInstall, hasDestdir bool
	for i, f := range fields {
		switch {
		case i == 0 && (f == "make" || strings.HasSuffix(f, "/make")):
			hasMake = true
		case f == "install":
			hasInstall = true
		case strings.HasPrefix(f, "DESTDIR="):
			hasDestdir = true
		}
	}
	return hasMake && hasInstall && hasDestdir
}

// postInstall assembles the deferred script: the %pre body minus trailing
// exit statements, followed by one chmod/[chown] pair per %attr directive.
func postInstall(doc *Document) string {
	body := stripTrailingExit(doc.Section("pre"))
	for _, dir := range doc.AttrDirectives() {
		body = append(body, dir.Commands()...)
	}
	return scriptHeader + strings.Join(body, "\n") + "\n"
}

// stripTrailingExit drops exit statements (and blank lines around them) from
// the tail of a section body. The %pre section conventionally ends with
// "exit 0", which would abort the combined script before the permission
// fixes run.
func stripTrailingExit(lines []string) []string {
	end := len(lines)
	for end > 0 {
		trimmed := strings.TrimSpace(lines[end-1])
		if trimmed == "" || trimmed == "exit" || strings.HasPrefix(trimmed, "exit ") {
			end--
			continue
		}
		break
	}
	return lines[:end]
}
