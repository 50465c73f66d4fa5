// Package brew wraps the Homebrew command line.
//
// Every command goes through a runner.Runner so callers see the captured
// output and exit status, and tests can script responses. Both formula and
// cask subcommands are covered:
//
//	brew list                 brew cask list
//	brew install <name>       brew cask install <name>
//	brew uninstall <name>     brew cask uninstall <name>
//	                          brew cask install|reinstall <file>.rb
package brew
