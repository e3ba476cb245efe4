package config

import (
	"reflect"
	"testing"
)

func TestMergeDefaultScalarOverride(t *testing.T) {
	base := NewValue(map[string]any{"a": "1"})
	override := NewValue(map[string]any{"a": "2"})
	got := Merge(base, override, StrategyDefault)
	m, _ := got.Map()
	s, _ := m["a"].String()
	if s != "2" {
		t.Errorf("a = %q, want %q", s, "2")
	}
}

func TestMergeAppendSuffix(t *testing.T) {
	base := NewValue(map[string]any{"paths": []any{"a", "b"}})
	override := NewValue(map[string]any{"paths__toappend": []any{"c"}})
	got := Merge(base, override, StrategyDefault)
	m, _ := got.Map()
	slice, _ := m["paths"].Slice()
	var out []string
	for _, v := range slice {
		s, _ := v.String()
		out = append(out, s)
	}
	want := []string{"a", "b", "c"}
	if !reflect.DeepEqual(out, want) {
		t.Errorf("paths = %v, want %v", out, want)
	}
}

func TestMergePrependSuffix(t *testing.T) {
	base := NewValue(map[string]any{"paths": []any{"b"}})
	override := NewValue(map[string]any{"paths__toprepend": []any{"a"}})
	got := Merge(base, override, StrategyDefault)
	m, _ := got.Map()
	slice, _ := m["paths"].Slice()
	first, _ := slice[0].String()
	if first != "a" {
		t.Errorf("first = %q, want %q", first, "a")
	}
}

func TestMergeIfNoneKeepsExisting(t *testing.T) {
	base := NewValue(map[string]any{"shell": "zsh"})
	override := NewValue(map[string]any{"shell__ifnone": "bash"})
	got := Merge(base, override, StrategyDefault)
	m, _ := got.Map()
	s, _ := m["shell"].String()
	if s != "zsh" {
		t.Errorf("shell = %q, want %q (ifnone should not override)", s, "zsh")
	}
}

func TestMergeIfNoneFillsMissing(t *testing.T) {
	base := NewValue(map[string]any{})
	override := NewValue(map[string]any{"shell__ifnone": "bash"})
	got := Merge(base, override, StrategyDefault)
	m, _ := got.Map()
	s, _ := m["shell"].String()
	if s != "bash" {
		t.Errorf("shell = %q, want %q", s, "bash")
	}
}

func TestValueGetDottedPath(t *testing.T) {
	v := NewValue(map[string]any{
		"suggest_config": map[string]any{"shell": "fish"},
	})
	got := v.Get("suggest_config.shell")
	s, ok := got.String()
	if !ok || s != "fish" {
		t.Errorf("Get(suggest_config.shell) = %v, ok=%v", s, ok)
	}
}

func TestRenderPlaceholders(t *testing.T) {
	ctx := TemplateContext{
		ID:      "github.com:acme/widget",
		Root:    "/home/u/widget",
		Repo:    "widget",
		Env:     map[string]string{"STAGE": "prod"},
		Prompts: map[string]string{"org": "acme"},
	}
	out := Render("cd {root} && deploy {repo} --stage {env.STAGE} --org {prompts.org}", ctx)
	want := "cd /home/u/widget && deploy widget --stage prod --org acme"
	if out != want {
		t.Errorf("Render() = %q, want %q", out, want)
	}
}
