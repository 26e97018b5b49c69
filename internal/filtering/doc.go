// Package filtering selects which packages a provider contributes to a
// repository.
//
// A provider may carry include and exclude rules on package names and on
// package types. Exclude rules take precedence over include rules:
//
//  1. If exclude rules are specified and match -> exclude
//  2. If include rules are specified and match -> include
//  3. If include rules are specified but none match -> exclude
//  4. If only exclude rules are specified and none match -> include
//  5. If no rules are specified -> include
//
// Name rules are glob patterns compiled with gobwas/glob, so '*' also
// matches across '/' in names such as "tools/jq". Type rules are exact,
// case-insensitive matches. A package must pass both to be included.
//
//	filter, err := NewPackageFilter(&config.FilterConfig{
//		Names: &config.RuleConfig{Include: []string{"python3-*"}, Exclude: []string{"*-debuginfo"}},
//		Types: &config.RuleConfig{Include: []string{"rpm"}},
//	})
//
// A package a provider stops contributing because of a filter is removed
// from the repository on the next run like any other package the provider
// no longer reports.
package filtering
