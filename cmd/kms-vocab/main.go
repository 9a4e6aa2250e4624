// kms-vocab scans KeyMagic scripts for variable definitions and writes a
// vocabulary file the editor can load through the "keywords" config
// setting, so shared variables complete in every script.
//
//	go build ./cmd/kms-vocab
//	./kms-vocab -o ~/.config/kmsedit/vars.yaml scripts/
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/keymagic/kmsedit/internal/complete"
)

// vocabulary mirrors the file format complete.Parse reads.
type vocabulary struct {
	Keywords []complete.Keyword `yaml:"keywords"`
}

var definitionRe = regexp.MustCompile(`^\$([\p{L}\p{N}_]+)\s*=`)

func main() {
	output := flag.String("o", "", "output file (default: stdout)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: kms-vocab [-o file] script-or-dir...\n")
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	logger := log.New(os.Stderr)

	var scripts []string
	for _, root := range flag.Args() {
		found, err := findScripts(root)
		if err != nil {
			logger.Fatal("scan failed", "path", root, "err", err)
		}
		scripts = append(scripts, found...)
	}

	var words []complete.Keyword
	seen := make(map[string]bool)
	for _, path := range scripts {
		kws, err := scanFile(path)
		if err != nil {
			logger.Warn("skipping script", "path", path, "err", err)
			continue
		}
		for _, k := range kws {
			if !seen[k.Name] {
				seen[k.Name] = true
				words = append(words, k)
			}
		}
	}
	logger.Info("scanned", "scripts", len(scripts), "variables", len(words))

	var w io.Writer = os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			logger.Fatal("cannot create output", "err", err)
		}
		defer f.Close()
		w = f
	}
	if err := writeVocabulary(w, words); err != nil {
		logger.Fatal("write failed", "err", err)
	}
}

// findScripts returns root itself when it is a file, otherwise every .kms
// file below it.
func findScripts(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{root}, nil
	}
	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".kms") {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

func scanFile(path string) ([]complete.Keyword, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return scanVariables(f, filepath.Base(path))
}

// scanVariables returns the variables defined in a script, in order. A line
// comment directly above a definition becomes its doc; otherwise the doc
// says where the variable is defined.
func scanVariables(r io.Reader, name string) ([]complete.Keyword, error) {
	var out []complete.Keyword
	comment := ""
	scanner := bufio.NewScanner(r)
	for n := 1; scanner.Scan(); n++ {
		line := scanner.Text()
		if n == 1 {
			line = strings.TrimPrefix(line, "\ufeff")
		}
		line = strings.TrimSpace(line)

		if c, ok := strings.CutPrefix(line, "//"); ok {
			comment = strings.TrimSpace(c)
			continue
		}
		if m := definitionRe.FindStringSubmatch(line); m != nil {
			doc := comment
			if doc == "" {
				doc = fmt.Sprintf("Variable defined in %s:%d.", name, n)
			}
			out = append(out, complete.Keyword{Name: m[1], Doc: doc})
		}
		comment = ""
	}
	return out, scanner.Err()
}

func writeVocabulary(w io.Writer, words []complete.Keyword) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(vocabulary{Keywords: words}); err != nil {
		return err
	}
	return enc.Close()
}
