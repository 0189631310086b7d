package version

// Version is the version of humanorai, set at build time with -ldflags.
var Version = "dev"
