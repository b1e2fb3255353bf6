package copytree

import (
	"fmt"
	"regexp"
	"strings"
)

// patternSet is one compiled include or exclude list. All patterns in a
// set share one PatternMode. A nil *patternSet means "not configured".
type patternSet struct {
	mode     PatternMode
	literals []string
	regexps  []*regexp.Regexp
}

// compiledPatterns holds the four independent pattern lists for one run,
// compiled once before any traversal happens.
type compiledPatterns struct {
	includeFiles *patternSet
	excludeFiles *patternSet
	includeDirs  *patternSet
	excludeDirs  *patternSet
}

func compilePatterns(opts *Options) (*compiledPatterns, error) {
	var cp compiledPatterns
	var err error
	if cp.includeFiles, err = compilePatternSet(opts.IncludeFiles, opts.PatternMode); err != nil {
		return nil, err
	}
	if cp.excludeFiles, err = compilePatternSet(opts.ExcludeFiles, opts.PatternMode); err != nil {
		return nil, err
	}
	if cp.includeDirs, err = compilePatternSet(opts.IncludeDirs, opts.PatternMode); err != nil {
		return nil, err
	}
	if cp.excludeDirs, err = compilePatternSet(opts.ExcludeDirs, opts.PatternMode); err != nil {
		return nil, err
	}
	return &cp, nil
}

func compilePatternSet(patterns []string, mode PatternMode) (*patternSet, error) {
	if len(patterns) == 0 {
		return nil, nil
	}

	set := &patternSet{mode: mode}
	switch mode {
	case PatternLiteral:
		set.literals = patterns
	case PatternGlob:
		for _, p := range patterns {
			re, err := globToRegexp(p)
			if err != nil {
				return nil, &InvalidPatternError{Pattern: p, Err: err}
			}
			set.regexps = append(set.regexps, re)
		}
	case PatternRegex:
		for _, p := range patterns {
			re, err := regexp.Compile(p)
			if err != nil {
				return nil, &InvalidPatternError{Pattern: p, Err: err}
			}
			set.regexps = append(set.regexps, re)
		}
	default:
		return nil, &InvalidPatternError{Pattern: patterns[0], Err: fmt.Errorf("unknown pattern mode %d", mode)}
	}
	return set, nil
}

// matches reports whether name matches at least one pattern in the set.
func (s *patternSet) matches(name string) bool {
	if s == nil {
		return false
	}
	if s.mode == PatternLiteral {
		for _, p := range s.literals {
			if strings.Contains(name, p) {
				return true
			}
		}
		return false
	}
	for _, re := range s.regexps {
		if re.MatchString(name) {
			return true
		}
	}
	return false
}

// shouldExclude combines an include set and an exclude set: a name is
// excluded when it fails the include list (if one is configured) or hits
// the exclude list.
func shouldExclude(name string, include, exclude *patternSet) bool {
	if include != nil && !include.matches(name) {
		return true
	}
	return exclude.matches(name)
}

// globToRegexp converts a shell-style glob into an anchored regexp that
// matches whole base names. Supports *, ? and [class] with ! negation.
func globToRegexp(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("^")
	i := 0
	for i < len(pattern) {
		c := pattern[i]
		switch c {
		case '*':
			b.WriteString(".*")
			i++
		case '?':
			b.WriteString(".")
			i++
		case '[':
			j := i + 1
			if j < len(pattern) && pattern[j] == '!' {
				j++
			}
			if j < len(pattern) && pattern[j] == ']' {
				// Leading ] is a literal member of the class.
				j++
			}
			for j < len(pattern) && pattern[j] != ']' {
				j++
			}
			if j >= len(pattern) {
				return nil, fmt.Errorf("unterminated character class")
			}
			cls := pattern[i+1 : j]
			if strings.HasPrefix(cls, "!") {
				cls = "^" + cls[1:]
			}
			// A literal ] member must be escaped for the regexp engine.
			cls = strings.Replace(cls, "]", `\]`, 1)
			b.WriteString("[" + cls + "]")
			i = j + 1
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
			i++
		}
	}
	b.WriteString("$")
	return regexp.Compile(b.String())
}
