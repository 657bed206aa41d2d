package exif

import (
	"fmt"
	"sort"
	"strings"

	"github.com/On-Jun9/TagProbe/pkg/types"
)

// TagSet is an immutable set of tag names. It is safe to share one TagSet
// between any number of concurrent extraction calls.
type TagSet struct {
	tags map[string]struct{}
}

func NewTagSet(tags ...string) *TagSet {
	m := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		m[t] = struct{}{}
	}
	return &TagSet{tags: m}
}

func (s *TagSet) Contains(tag string) bool {
	if s == nil {
		return false
	}
	_, ok := s.tags[tag]
	return ok
}

func (s *TagSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.tags)
}

// Tags returns a sorted copy of the members.
func (s *TagSet) Tags() []string {
	if s == nil {
		return nil
	}
	out := make([]string, 0, len(s.tags))
	for t := range s.tags {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Policy decides which tags are retained and when scanning stops.
type Policy struct {
	mode types.FilterMode
	set  *TagSet
}

// All retains every non-empty tag.
func All() Policy {
	return Policy{mode: types.FilterModeAll}
}

// Whitelist retains members and stops at the first non-member.
func Whitelist(set *TagSet) Policy {
	return Policy{mode: types.FilterModeWhitelist, set: set}
}

// Blacklist skips members and stops right after retaining the first
// non-member.
func Blacklist(set *TagSet) Policy {
	return Policy{mode: types.FilterModeBlacklist, set: set}
}

func (p Policy) Mode() types.FilterMode {
	if p.mode == "" {
		return types.FilterModeAll
	}
	return p.mode
}

func (p Policy) Set() *TagSet {
	return p.set
}

// String renders the policy as "mode" or "mode:tag,tag" with tags sorted.
// Equal policies render identically, so the result can key stored output.
func (p Policy) String() string {
	if p.Mode() == types.FilterModeAll {
		return string(types.FilterModeAll)
	}
	return string(p.Mode()) + ":" + strings.Join(p.set.Tags(), ",")
}

// ParseMode accepts "all", "whitelist" or "blacklist" in any case.
// An empty string means all.
func ParseMode(s string) (types.FilterMode, error) {
	switch m := types.FilterMode(strings.ToLower(strings.TrimSpace(s))); m {
	case "", types.FilterModeAll:
		return types.FilterModeAll, nil
	case types.FilterModeWhitelist, types.FilterModeBlacklist:
		return m, nil
	default:
		return "", fmt.Errorf("unknown filter mode %q", s)
	}
}

// NewPolicy builds a policy from a configured mode and tag list.
func NewPolicy(mode types.FilterMode, tags []string) (Policy, error) {
	switch mode {
	case "", types.FilterModeAll:
		return All(), nil
	case types.FilterModeWhitelist:
		return Whitelist(NewTagSet(tags...)), nil
	case types.FilterModeBlacklist:
		return Blacklist(NewTagSet(tags...)), nil
	default:
		return Policy{}, fmt.Errorf("unknown filter mode %q", mode)
	}
}

// scanState is the per-call filter state machine. Once scanning is false
// no further lines are examined, even if later tags would have matched.
type scanState struct {
	policy   Policy
	scanning bool
}

func newScanState(p Policy) *scanState {
	return &scanState{policy: p, scanning: true}
}

// decide reports whether tag is retained and updates the scanning flag.
func (s *scanState) decide(tag string) bool {
	switch s.policy.Mode() {
	case types.FilterModeWhitelist:
		if s.policy.set.Contains(tag) {
			return true
		}
		s.scanning = false
		return false
	case types.FilterModeBlacklist:
		if s.policy.set.Contains(tag) {
			return false
		}
		s.scanning = false
		return true
	default:
		return true
	}
}
