package version

// GitVersion is set at link time with
// -ldflags "-X fob_apiserver/pkg/version.GitVersion=$(git describe --tags)".
var GitVersion = "dev"
