package complete

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestSuggestionsForKeepsVocabularyOrder(t *testing.T) {
	ix := New("key1", "Key2", "other", "keyboard")

	got := ix.SuggestionsFor("key")
	want := []string{"key1", "Key2", "keyboard"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SuggestionsFor(key) = %v, want %v", got, want)
	}
}

func TestSuggestionsForEmptyPrefix(t *testing.T) {
	ix := New("key1", "Key2")
	if got := ix.SuggestionsFor(""); len(got) != 0 {
		t.Errorf("SuggestionsFor(\"\") = %v, want empty", got)
	}
}

func TestSuggestionsForNoMatch(t *testing.T) {
	ix := New("key1", "Key2")
	if got := ix.SuggestionsFor("zz"); len(got) != 0 {
		t.Errorf("SuggestionsFor(zz) = %v, want empty", got)
	}
}

func TestSuggestionsForUpperCasePrefix(t *testing.T) {
	ix := New("vk_back", "VK_TAB", "include")
	got := ix.SuggestionsFor("VK_")
	want := []string{"vk_back", "VK_TAB"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SuggestionsFor(VK_) = %v, want %v", got, want)
	}
}

func TestDefaultVocabulary(t *testing.T) {
	ix := Default()
	if ix.Len() == 0 {
		t.Fatal("default vocabulary is empty")
	}
	got := ix.SuggestionsFor("vk_f1")
	want := []string{"VK_F1", "VK_F10", "VK_F11", "VK_F12"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SuggestionsFor(vk_f1) = %v, want %v", got, want)
	}
	if ix.Doc("include") == "" {
		t.Error("include should have a description")
	}
	if ix.Doc("VK_OEM_5") != `\ | on US layouts.` {
		t.Errorf("Doc(VK_OEM_5) = %q", ix.Doc("VK_OEM_5"))
	}
}

func TestNewDropsDuplicatesAndBlanks(t *testing.T) {
	ix := New("a", "", "b", "a", "  ")
	if ix.Len() != 2 {
		t.Errorf("Len = %d, want 2", ix.Len())
	}
}

func TestMergeAppendsNewWords(t *testing.T) {
	ix := New("alpha", "beta")
	ix.Merge(New("beta", "gamma"))

	var names []string
	for _, k := range ix.Keywords() {
		names = append(names, k.Name)
	}
	want := []string{"alpha", "beta", "gamma"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("after Merge: %v, want %v", names, want)
	}
	ix.Merge(nil)
	if ix.Len() != 3 {
		t.Errorf("Merge(nil) changed Len to %d", ix.Len())
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extra.yaml")
	data := "keywords:\n  - name: MY_MACRO\n    doc: project macro\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatalf("setup: %v", err)
	}
	ix, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if ix.Doc("MY_MACRO") != "project macro" {
		t.Errorf("Doc = %q", ix.Doc("MY_MACRO"))
	}

	if _, err := Parse([]byte("keywords: [unterminated")); err == nil {
		t.Error("Parse should fail on malformed YAML")
	}
}

func TestWordAt(t *testing.T) {
	tests := []struct {
		line      string
		caret     int
		wantWord  string
		wantStart int
	}{
		{"", 0, "", 0},
		{"VK_KEY_A", 8, "VK_KEY_A", 0},
		{"$x = VK_KE", 10, "VK_KE", 5},
		{"$x = VK_KE", 7, "VK", 5},
		{"a + ", 4, "", 4},
		{"(include", 8, "include", 1},
		{"@NA", 3, "@NA", 0},
		{"x@FONT", 6, "@FONT", 1},
		{"abc", 99, "abc", 0},
	}
	for _, tt := range tests {
		word, start := WordAt([]rune(tt.line), tt.caret)
		if word != tt.wantWord || start != tt.wantStart {
			t.Errorf("WordAt(%q, %d) = (%q, %d), want (%q, %d)",
				tt.line, tt.caret, word, start, tt.wantWord, tt.wantStart)
		}
	}
}

func TestTrigger(t *testing.T) {
	ix := New("key1", "Key2", "other", "keyboard")

	p := ix.Trigger([]rune("x = ke"), 6)
	if !p.Show {
		t.Fatal("popup should show for 'ke'")
	}
	if p.Anchor != 4 {
		t.Errorf("Anchor = %d, want 4", p.Anchor)
	}
	if len(p.Items) != 3 {
		t.Errorf("Items = %v, want 3 entries", p.Items)
	}

	if p := ix.Trigger([]rune("x = zz"), 6); p.Show {
		t.Error("popup should not show when nothing matches")
	}
	if p := ix.Trigger([]rune("x = "), 4); p.Show || p.Word != "" {
		t.Errorf("popup after space = %+v, want hidden", p)
	}
}
