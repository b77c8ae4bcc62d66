package i18n

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Args holds named format arguments. A message "Skill '{name}' not found"
// expanded with Args{"name": "x"} yields "Skill 'x' not found". Placeholders
// without a matching argument are left verbatim.
type Args map[string]any

// Catalog resolves dotted message keys per locale. When the catalog was
// created with a directory, a "<locale>.yaml" file there replaces the
// built-in catalog for that locale. Keys missing from a non-English locale
// fall back to English; keys missing everywhere resolve to the key itself
// so a broken catalog never hides which message was requested.
type Catalog struct {
	dir string

	mu       sync.Mutex
	catalogs map[string]map[string]any
}

// NewCatalog returns a catalog backed by dir. Pass an empty dir for the
// built-in messages only.
func NewCatalog(dir string) *Catalog {
	return &Catalog{
		dir:      dir,
		catalogs: make(map[string]map[string]any),
	}
}

// Get resolves key in the given locale and expands args into the message.
func (c *Catalog) Get(locale, key string, args Args) string {
	if msg, ok := lookup(c.load(locale), key); ok {
		return expand(msg, args)
	}
	if locale != DefaultLocale {
		return c.Get(DefaultLocale, key, args)
	}
	return key
}

// Section returns every message below the given top-level section, or nil
// when the section does not exist in the locale's catalog.
func (c *Catalog) Section(locale, section string) map[string]any {
	value, ok := c.load(locale)[section]
	if !ok {
		return nil
	}
	m, ok := value.(map[string]any)
	if !ok {
		return nil
	}
	return m
}

func (c *Catalog) load(locale string) map[string]any {
	c.mu.Lock()
	defer c.mu.Unlock()

	if catalog, ok := c.catalogs[locale]; ok {
		return catalog
	}

	var catalog map[string]any
	if c.dir != "" {
		if data, err := os.ReadFile(filepath.Join(c.dir, locale+".yaml")); err == nil {
			// An unreadable or malformed file falls through to the built-ins.
			_ = yaml.Unmarshal(data, &catalog)
		}
	}
	if len(catalog) == 0 {
		catalog = Builtin(locale)
	}

	c.catalogs[locale] = catalog
	return catalog
}

func lookup(catalog map[string]any, key string) (string, bool) {
	var value any = catalog
	for _, part := range strings.Split(key, ".") {
		m, ok := value.(map[string]any)
		if !ok {
			return "", false
		}
		if value, ok = m[part]; !ok {
			return "", false
		}
	}
	msg, ok := value.(string)
	return msg, ok
}

func expand(msg string, args Args) string {
	if len(args) == 0 {
		return msg
	}
	pairs := make([]string, 0, len(args)*2)
	for name, value := range args {
		pairs = append(pairs, "{"+name+"}", fmt.Sprintf("%v", value))
	}
	return strings.NewReplacer(pairs...).Replace(msg)
}

var defaultCatalog = NewCatalog("")

// T resolves key against the built-in catalogs. Callers with a messages
// directory should construct their own Catalog instead.
func T(locale, key string, args Args) string {
	return defaultCatalog.Get(locale, key, args)
}

// WriteFile writes the built-in catalog for a locale as YAML, creating
// parent directories as needed. Workspaces start from these files when
// customizing messages.
func WriteFile(locale, path string) error {
	data, err := yaml.Marshal(Builtin(locale))
	if err != nil {
		return errors.Wrapf(err, "failed to encode %s messages", locale)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "failed to create messages directory for %s", path)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrapf(err, "failed to write messages file %s", path)
	}
	return nil
}

// Builtin returns the built-in message catalog for a locale. Unknown
// locales get the English catalog.
func Builtin(locale string) map[string]any {
	if locale == LocaleChinese {
		return builtinChinese()
	}
	return builtinEnglish()
}

func builtinEnglish() map[string]any {
	return map[string]any{
		"report": map[string]any{
			"verdict": map[string]any{
				"pass":               "Validation PASSED",
				"fail":               "Validation FAILED",
				"pass_with_warnings": "Validation PASSED with warnings",
			},
			"layer": map[string]any{
				"schema":      "Schema Validation",
				"quality":     "Quality Analysis",
				"coverage":    "Coverage Analysis",
				"consistency": "Consistency Checks",
				"compliance":  "Policy Compliance",
			},
			"summary": map[string]any{
				"title":            "Summary",
				"errors":           "Errors: {count}",
				"warnings":         "Warnings: {count}",
				"rule_coverage":    "Rule Coverage: {pct}%",
				"failure_coverage": "Failure Coverage: {pct}%",
				"quality_score":    "Quality Score: {score}/100",
				"duration":         "Completed in {duration}",
			},
			"no_findings": "No findings",
			"suggestion":  "Suggestion: {fix}",
		},
		"diary": map[string]any{
			"title":    "Validation History",
			"no_runs":  "No recorded runs",
			"runs":     "Runs: {count}",
			"passes":   "Passed: {count}",
			"failures": "Failed: {count}",
		},
		"cli": map[string]any{
			"skill_not_found": "Skill '{name}' not found",
			"file_not_found":  "File not found: {path}",
			"created":         "Created: {path}",
			"published":       "Published: {name}",
			"archived":        "Archived: {name}",
			"migrated":        "Migrated: {path}",
		},
		"sections": map[string]any{
			"purpose":         "Purpose",
			"inputs":          "Inputs",
			"preconditions":   "Preconditions",
			"non_goals":       "Non-goals",
			"decision_rules":  "Decision Rules",
			"steps":           "Steps",
			"output_contract": "Output Contract",
			"failure_modes":   "Failure Modes",
			"edge_cases":      "Edge Cases",
			"context":         "Context",
		},
	}
}

func builtinChinese() map[string]any {
	return map[string]any{
		"report": map[string]any{
			"verdict": map[string]any{
				"pass":               "验证通过",
				"fail":               "验证失败",
				"pass_with_warnings": "验证通过（有警告）",
			},
			"layer": map[string]any{
				"schema":      "结构校验",
				"quality":     "质量分析",
				"coverage":    "覆盖率分析",
				"consistency": "一致性检查",
				"compliance":  "合规检查",
			},
			"summary": map[string]any{
				"title":            "摘要",
				"errors":           "错误总数: {count}",
				"warnings":         "警告总数: {count}",
				"rule_coverage":    "规则覆盖率: {pct}%",
				"failure_coverage": "失败模式覆盖率: {pct}%",
				"quality_score":    "质量评分: {score}/100",
				"duration":         "耗时 {duration}",
			},
			"no_findings": "无发现项",
			"suggestion":  "建议: {fix}",
		},
		"diary": map[string]any{
			"title":    "验证历史",
			"no_runs":  "无记录运行",
			"runs":     "运行次数: {count}",
			"passes":   "通过: {count}",
			"failures": "失败: {count}",
		},
		"cli": map[string]any{
			"skill_not_found": "未找到技能 '{name}'",
			"file_not_found":  "文件未找到: {path}",
			"created":         "已创建: {path}",
			"published":       "已发布: {name}",
			"archived":        "已归档: {name}",
			"migrated":        "已迁移: {path}",
		},
		"sections": map[string]any{
			"purpose":         "目的",
			"inputs":          "输入",
			"preconditions":   "前提条件",
			"non_goals":       "非目标",
			"decision_rules":  "决策规则",
			"steps":           "步骤",
			"output_contract": "输出契约",
			"failure_modes":   "失败模式",
			"edge_cases":      "边界案例",
			"context":         "上下文",
		},
	}
}
