package specfile

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testVersion = VersionInfo{Version: "15.2.1", Release: "433.g12ab34cd"}

func TestSynthesizeSubstitutions(t *testing.T) {
	doc := Parse(`%build
echo version @PROJECT_VERSION@ release @RPM_RELEASE@
tar xf @TARBALL_BASENAME@.tar.bz2
`)

	scripts := Synthesize(doc, testVersion)
	assert.Contains(t, scripts.Build, "echo version 15.2.1 release 433.g12ab34cd")
	assert.Contains(t, scripts.Build, "tar xf ceph-15.2.1.tar.bz2")
}

func TestSynthesizeMissingPlaceholderIsNoop(t *testing.T) {
	doc := Parse("%build\nmake all\n")

	scripts := Synthesize(doc, testVersion)
	assert.Contains(t, scripts.Build, "make all")
}

func TestSynthesizeIdempotentMkdir(t *testing.T) {
	doc := Parse(`%install
mkdir %{buildroot}%{_sbindir}
  mkdir %{buildroot}%{_localstatedir}/lib/ceph
mkdir -p %{buildroot}%{_mandir}
mkdir %{buildroot}/var/lib/ceph-provisioner
mkdir -pm 0750 %{buildroot}/var/lib/ceph-mgr
`)

	scripts := Synthesize(doc, testVersion)
	assert.Contains(t, scripts.Install, "mkdir -p %{buildroot}%{_sbindir}")
	assert.Contains(t, scripts.Install, "  mkdir -p %{buildroot}%{_localstatedir}/lib/ceph")
	assert.NotContains(t, scripts.Install, "mkdir -p -p")
	// A "-p" inside the target path is not a flag.
	assert.Contains(t, scripts.Install, "mkdir -p %{buildroot}/var/lib/ceph-provisioner")
	// Combined flags like -pm already create parents.
	assert.Contains(t, scripts.Install, "mkdir -pm 0750 %{buildroot}/var/lib/ceph-mgr")
	assert.NotContains(t, scripts.Install, "mkdir -p -pm")
}

func TestSynthesizeDropsPackagingOnlyLines(t *testing.T) {
	doc := Parse(`%install
%find_lang ceph
%fdupes %{buildroot}%{_prefix}
install -m 0644 -D etc/sysctl.conf %{buildroot}/etc/sysctl.d/90-ceph.conf
`)

	scripts := Synthesize(doc, testVersion)
	assert.NotContains(t, scripts.Install, "%find_lang")
	assert.NotContains(t, scripts.Install, "%fdupes")
	assert.Contains(t, scripts.Install, "install -m 0644 -D etc/sysctl.conf")
}

func TestSynthesizeFiltersPackagedInstall(t *testing.T) {
	doc := Parse(`%install
%make_install
make DESTDIR=%{buildroot} install
make check
install -d %{buildroot}/etc/ceph
`)

	scripts := Synthesize(doc, testVersion)
	assert.NotContains(t, scripts.Install, "%make_install")
	assert.NotContains(t, scripts.Install, "DESTDIR=")
	assert.Contains(t, scripts.Install, "make check")
	assert.Contains(t, scripts.Install, "install -d %{buildroot}/etc/ceph")
}

func TestIsPackagedInstall(t *testing.T) {
	assert.True(t, isPackagedInstall("%make_install"))
	assert.True(t, isPackagedInstall("make DESTDIR=%{buildroot} install"))
	assert.True(t, isPackagedInstall("  make -j8 install DESTDIR=/out"))
	assert.False(t, isPackagedInstall("make install"))
	assert.False(t, isPackagedInstall("install -d /etc/ceph"))
	assert.False(t, isPackagedInstall(""))
}

func TestSynthesizePostInstall(t *testing.T) {
	doc := Parse(`%pre
getent group ceph >/dev/null || groupadd -r ceph

exit 0
%files
%attr(644,-,-) /a/b
%attr(750,alice,users) /c/d
`)

	scripts := Synthesize(doc, testVersion)
	lines := strings.Split(strings.TrimRight(scripts.PostInstall, "\n"), "\n")
	require.Equal(t, []string{
		"#!/bin/sh",
		"set -e",
		"getent group ceph >/dev/null || groupadd -r ceph",
		"chmod 644 /a/b",
		"chmod 750 /c/d",
		"chown alice:users /c/d",
	}, lines)
}

func TestSynthesizeBuildVerbatim(t *testing.T) {
	doc := Parse(`%build
%cmake -DWITH_SYSTEM_BOOST=ON
make %{?_smp_mflags}
%install
%make_install
`)

	scripts := Synthesize(doc, testVersion)
	assert.True(t, strings.HasPrefix(scripts.Build, scriptHeader))
	assert.Contains(t, scripts.Build, "%cmake -DWITH_SYSTEM_BOOST=ON\nmake %{?_smp_mflags}\n")
}

func TestStripTrailingExit(t *testing.T) {
	assert.Equal(t, []string{"a"}, stripTrailingExit([]string{"a", "", "exit 0"}))
	assert.Equal(t, []string{"a"}, stripTrailingExit([]string{"a", "exit"}))
	assert.Empty(t, stripTrailingExit([]string{"exit 0"}))
	// Only trailing exits are stripped.
	got := stripTrailingExit([]string{"exit 0", "a"})
	assert.Equal(t, []string{"exit 0", "a"}, got)
}

func TestSynthesizeDoesNotMutateInput(t *testing.T) {
	doc := Parse("%build\nmkdir /x\n")
	Synthesize(doc, testVersion)
	assert.Equal(t, []string{"%build", "mkdir /x", ""}, doc.Lines())
}
