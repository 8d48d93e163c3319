// Package prompt loads system instructions for direct completion providers.
package prompt

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Prompt is a system prompt read from a Markdown file. An optional YAML
// frontmatter block names the prompt and may pin a model.
type Prompt struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Model       string `yaml:"model"`
	Text        string `yaml:"-"`
	Path        string `yaml:"-"`
}

// Load reads a prompt file. Frontmatter, when present, must open on the
// first line with "---" and close with another "---" line; everything after
// it is the prompt text.
func Load(path string) (Prompt, error) {
	f, err := os.Open(path)
	if err != nil {
		return Prompt{}, fmt.Errorf("opening prompt: %w", err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	var (
		p    Prompt
		body []string
	)
	p.Path = path

	if scanner.Scan() {
		first := scanner.Text()
		if strings.TrimSpace(first) == "---" {
			fm, err := readFrontmatter(scanner, path)
			if err != nil {
				return Prompt{}, err
			}
			p.Name, p.Description, p.Model = fm.Name, fm.Description, fm.Model
		} else {
			body = append(body, first)
		}
	}
	for scanner.Scan() {
		body = append(body, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return Prompt{}, fmt.Errorf("%s: reading prompt: %w", path, err)
	}

	p.Text = strings.TrimSpace(strings.Join(body, "\n"))
	if p.Text == "" {
		return Prompt{}, fmt.Errorf("%s: prompt text is empty", path)
	}
	return p, nil
}

// readFrontmatter collects lines up to the closing "---" and decodes them.
func readFrontmatter(scanner *bufio.Scanner, path string) (Prompt, error) {
	var lines []string
	closed := false
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "---" {
			closed = true
			break
		}
		lines = append(lines, line)
	}
	if !closed {
		return Prompt{}, fmt.Errorf("%s: missing closing frontmatter delimiter", path)
	}

	var fm Prompt
	if err := yaml.Unmarshal([]byte(strings.Join(lines, "\n")), &fm); err != nil {
		return Prompt{}, fmt.Errorf("%s: parsing frontmatter: %w", path, err)
	}
	return fm, nil
}
