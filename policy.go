package routemetrics

import (
	"strings"
)

// StaticResourceLabel 静态资源统一使用的标签
const StaticResourceLabel = "static_resource"

// Action 规则命中后的动作
type Action int

const (
	// Keep 使用路由模板本身作为标签
	Keep Action = iota
	// Exclude 不记录指标
	Exclude
	// Collapse 折叠为 Rule.Label
	Collapse
)

func (a Action) String() string {
	switch a {
	case Keep:
		return "keep"
	case Exclude:
		return "exclude"
	case Collapse:
		return "collapse"
	default:
		return "unknown"
	}
}

type matchKind int

const (
	matchExact matchKind = iota
	matchPrefix
)

// Matcher 路由模板匹配条件
type Matcher struct {
	kind  matchKind
	value string
}

// Exact 模板与 s 完全相等
func Exact(s string) Matcher {
	return Matcher{kind: matchExact, value: s}
}

// Prefix 模板以 s 开头
func Prefix(s string) Matcher {
	return Matcher{kind: matchPrefix, value: s}
}

// Match 判断模板是否满足条件
func (m Matcher) Match(pattern string) bool {
	if m.kind == matchPrefix {
		return strings.HasPrefix(pattern, m.value)
	}
	return pattern == m.value
}

func (m Matcher) String() string {
	if m.kind == matchPrefix {
		return "prefix:" + m.value
	}
	return "exact:" + m.value
}

// Rule 一条归一化规则，任一 Matcher 命中即视为命中
type Rule struct {
	Action   Action
	Matchers []Matcher
	// Label 仅 Collapse 使用
	Label string
}

// KeepRule 命中时保留模板
func KeepRule(matchers ...Matcher) Rule {
	return Rule{Action: Keep, Matchers: matchers}
}

// ExcludeRule 命中时不记录
func ExcludeRule(matchers ...Matcher) Rule {
	return Rule{Action: Exclude, Matchers: matchers}
}

// CollapseRule 命中时折叠为 label
func CollapseRule(label string, matchers ...Matcher) Rule {
	return Rule{Action: Collapse, Matchers: matchers, Label: label}
}

func (r Rule) match(pattern string) bool {
	for _, m := range r.Matchers {
		if m.Match(pattern) {
			return true
		}
	}
	return false
}

// Policy 有序规则表，从上到下第一条命中的规则生效，都不命中则保留模板
//
// Policy 创建后不可变，可在多个拦截器之间共享。
type Policy struct {
	rules []Rule
}

// NewPolicy 按给定顺序创建规则表
func NewPolicy(rules ...Rule) *Policy {
	copied := make([]Rule, len(rules))
	for i, r := range rules {
		r.Matchers = append([]Matcher(nil), r.Matchers...)
		copied[i] = r
	}
	return &Policy{rules: copied}
}

// DefaultPolicy 默认规则表
//
//	/tasks/{task_id}                               -> /tasks/{task_id}
//	/keys*                                         -> 不记录
//	/fonts/* /static/* /favicon* /manifest.json    -> static_resource
//	其他                                            -> 模板本身
func DefaultPolicy() *Policy {
	return NewPolicy(
		KeepRule(Exact("/tasks/{task_id}")),
		ExcludeRule(Prefix("/keys")),
		CollapseRule(StaticResourceLabel,
			Prefix("/fonts/"),
			Prefix("/static/"),
			Prefix("/favicon"),
			Exact("/manifest.json"),
		),
	)
}

// Rules 返回规则表的副本
func (p *Policy) Rules() []Rule {
	return NewPolicy(p.rules...).rules
}

// Label 将路由模板归一化为指标标签，返回 false 表示不记录
func (p *Policy) Label(pattern string) (string, bool) {
	if pattern == "" {
		return "", false
	}
	for _, r := range p.rules {
		if !r.match(pattern) {
			continue
		}
		switch r.Action {
		case Exclude:
			return "", false
		case Collapse:
			return r.Label, true
		default:
			return pattern, true
		}
	}
	return pattern, true
}
