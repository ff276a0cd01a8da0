package gofetch

import (
	"net/http"
	"strings"
)

// Rule overrides or supplies caching headers for responses matching a
// request shape, for origins that send no Cache-Control (or the wrong
// one) and can't be fixed on their end. Adapted from the teacher's
// pkg/response-transformer (response-rewriting rules applied before a
// proxied response reaches the downstream client); here the same
// matching logic runs on the fetch side, ahead of the storability
// check, so a rule's Override/Default can make an otherwise
// uncacheable response cacheable (or vice versa) before rfc7234.Storable
// ever sees it.
type Rule struct {
	Prefix   string
	Path     string
	Method   string
	Override string // forces Cache-Control regardless of what the origin sent
	Default  string // applied only when the origin sent no Cache-Control
	Query    map[string]string
	Headers  map[string]string
}

// Rules is an ordered list of Rule; the first match wins.
type Rules []Rule

// apply mutates header in place per the first matching rule, if any.
func (rules Rules) apply(req *http.Request, statusCode int, header http.Header) {
	if statusCode != http.StatusOK {
		return
	}
	rule := rules.find(req)
	if rule == nil {
		return
	}
	if rule.Override != "" {
		header.Set("Cache-Control", rule.Override)
	} else if rule.Default != "" && header.Get("Cache-Control") == "" {
		header.Set("Cache-Control", rule.Default)
	}
	for name, value := range rule.Headers {
		header.Set(name, value)
	}
}

func (rules Rules) find(req *http.Request) *Rule {
rulesLoop:
	for _, rule := range rules {
		if rule.Method == "" && req.Method != http.MethodGet {
			continue
		}
		if rule.Method != "" && rule.Method != req.Method {
			continue
		}
		if rule.Path != "" && rule.Path != req.URL.Path {
			continue
		}
		if rule.Prefix != "" && !strings.HasPrefix(req.URL.Path, rule.Prefix) {
			continue
		}
		if len(rule.Query) > 0 {
			qry := req.URL.Query()
			for name, value := range rule.Query {
				if value == "" && !qry.Has(name) {
					continue rulesLoop
				} else if value != "" && qry.Get(name) != value {
					continue rulesLoop
				}
			}
		}
		r := rule
		return &r
	}
	return nil
}
