package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/keymagic/kmsedit/internal/complete"
)

const script = "\ufeff$top = 'a'\n" +
	"// consonants in keyboard order\n" +
	"$consonants = U1000 + U1001\n" +
	"\n" +
	"  $vowels=U102B\n" +
	"$consonants[*] => $1\n"

func TestScanVariables(t *testing.T) {
	got, err := scanVariables(strings.NewReader(script), "my.kms")
	if err != nil {
		t.Fatal(err)
	}
	want := []complete.Keyword{
		{Name: "top", Doc: "Variable defined in my.kms:1."},
		{Name: "consonants", Doc: "consonants in keyboard order"},
		{Name: "vowels", Doc: "Variable defined in my.kms:5."},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d variables %+v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("variable %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestVocabularyLoadsInEditor(t *testing.T) {
	kws, err := scanVariables(strings.NewReader(script), "my.kms")
	if err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	if err := writeVocabulary(&buf, kws); err != nil {
		t.Fatal(err)
	}

	ix, err := complete.Parse(buf.Bytes())
	if err != nil {
		t.Fatalf("editor cannot read the output: %v\n%s", err, buf.String())
	}
	if got := ix.SuggestionsFor("con"); len(got) != 1 || got[0] != "consonants" {
		t.Errorf("SuggestionsFor(con) = %v", got)
	}
	if doc := ix.Doc("consonants"); doc != "consonants in keyboard order" {
		t.Errorf("Doc = %q", doc)
	}
}

func TestFindScripts(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"a.kms", "sub/b.KMS", "notes.txt"} {
		p := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, nil, 0644); err != nil {
			t.Fatal(err)
		}
	}

	files, err := findScripts(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Errorf("found %v, want the two scripts", files)
	}

	single := filepath.Join(dir, "notes.txt")
	if files, _ := findScripts(single); len(files) != 1 || files[0] != single {
		t.Errorf("a file argument should be taken as given: %v", files)
	}
	if _, err := findScripts(filepath.Join(dir, "missing")); err == nil {
		t.Error("missing path should fail")
	}
}
