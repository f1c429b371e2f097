package main

import (
	"errors"
	"io"

	flag "github.com/spf13/pflag"
)

// commonFlags holds output and config flags.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// cliFlags holds every flag of the preview command.
type cliFlags struct {
	common  commonFlags
	host    string
	port    int
	noOpen  bool
	poll    bool
	version bool
	help    bool

	set *flag.FlagSet
}

// changed reports whether name was given on the command line.
func (f *cliFlags) changed(name string) bool {
	return f.set != nil && f.set.Changed(name)
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug logs")
}

// parseFlags parses the command line without the program name.
// Returns the flags and the positional arguments.
func parseFlags(args []string) (*cliFlags, []string, error) {
	fs := flag.NewFlagSet("mdpreview", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	f := &cliFlags{set: fs}

	fs.StringVar(&f.host, "host", "", "interface to listen on")
	fs.IntVarP(&f.port, "port", "p", 0, "port to listen on")
	fs.BoolVar(&f.noOpen, "no-open", false, "do not open a browser")
	fs.BoolVar(&f.poll, "poll", false, "poll the file instead of using OS notifications")
	fs.BoolVar(&f.version, "version", false, "print version")
	fs.BoolVarP(&f.help, "help", "h", false, "show help")
	addCommonFlags(fs, &f.common)

	if err := fs.Parse(args); err != nil {
		return nil, nil, errors.Join(ErrUsage, err)
	}
	if f.common.quiet && f.common.verbose {
		return nil, nil, errors.Join(ErrUsage, errors.New("--quiet and --verbose are mutually exclusive"))
	}
	return f, fs.Args(), nil
}
