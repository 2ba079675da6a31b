// Package journey loads Journey documents: YAML front matter followed by a
// markdown body describing one user flow. The loader produces plain
// structures; all interpretation of step prose happens in the normalizer.
package journey

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// FrontMatter is the YAML header of a journey file.
type FrontMatter struct {
	ID                 string            `yaml:"id"`
	Title              string            `yaml:"title"`
	Tier               string            `yaml:"tier"`
	Scope              string            `yaml:"scope"`
	Actor              string            `yaml:"actor"`
	Tags               []string          `yaml:"tags"`
	ModuleDependencies []string          `yaml:"moduleDependencies"`
	Data               map[string]string `yaml:"data"`
	Completion         []string          `yaml:"completion"`
}

// Criterion is one acceptance criterion: a title plus its bullet lines.
type Criterion struct {
	Title   string
	Bullets []string
}

// Parsed is the loader's output, consumed by the normalizer.
type Parsed struct {
	Front           FrontMatter
	Criteria        []Criterion
	ProceduralSteps []string
	SourcePath      string
}

// Load reads and parses one journey file.
func Load(path string) (*Parsed, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read journey: %w", err)
	}
	return Parse(raw, path)
}

var (
	criterionHeadRe = regexp.MustCompile(`^(?:###\s+|\d+\.\s+)(.+)$`)
	bulletRe        = regexp.MustCompile(`^[-*]\s+(?:\[[ xX]\]\s*)?(.+)$`)
	numberedRe      = regexp.MustCompile(`^\d+\.\s+(.+)$`)
	sectionRe       = regexp.MustCompile(`^##\s+(.+)$`)
)

// Parse splits front matter from the markdown body and extracts acceptance
// criteria and procedural steps. Bullets that appear in the acceptance
// section before any criterion heading each become their own criterion, so
// flat checklists still normalize step-per-bullet.
func Parse(raw []byte, sourcePath string) (*Parsed, error) {
	front, body, err := splitFrontMatter(string(raw))
	if err != nil {
		return nil, err
	}

	p := &Parsed{SourcePath: sourcePath}
	if front != "" {
		if err := yaml.Unmarshal([]byte(front), &p.Front); err != nil {
			return nil, fmt.Errorf("front matter: %w", err)
		}
	}

	section := ""
	var current *Criterion
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimRight(line, " \t")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if m := sectionRe.FindStringSubmatch(trimmed); m != nil {
			section = canonicalSection(m[1])
			current = nil
			continue
		}

		switch section {
		case "acceptance":
			if m := criterionHeadRe.FindStringSubmatch(trimmed); m != nil {
				p.Criteria = append(p.Criteria, Criterion{Title: strings.TrimSpace(m[1])})
				current = &p.Criteria[len(p.Criteria)-1]
				continue
			}
			if m := bulletRe.FindStringSubmatch(trimmed); m != nil {
				text := strings.TrimSpace(m[1])
				if current != nil {
					current.Bullets = append(current.Bullets, text)
				} else {
					p.Criteria = append(p.Criteria, Criterion{Title: text, Bullets: []string{text}})
				}
			}
		case "steps":
			if m := numberedRe.FindStringSubmatch(trimmed); m != nil {
				p.ProceduralSteps = append(p.ProceduralSteps, strings.TrimSpace(m[1]))
			} else if m := bulletRe.FindStringSubmatch(trimmed); m != nil {
				p.ProceduralSteps = append(p.ProceduralSteps, strings.TrimSpace(m[1]))
			}
		}
	}
	return p, nil
}

func canonicalSection(title string) string {
	t := strings.ToLower(strings.TrimSpace(title))
	switch {
	case strings.Contains(t, "acceptance"):
		return "acceptance"
	case strings.Contains(t, "steps"), strings.Contains(t, "procedure"):
		return "steps"
	default:
		return t
	}
}

// splitFrontMatter separates the leading --- delimited YAML block, if any.
func splitFrontMatter(content string) (front, body string, err error) {
	if !strings.HasPrefix(content, "---") {
		return "", content, nil
	}
	rest := strings.TrimPrefix(content, "---")
	rest = strings.TrimPrefix(rest, "\r\n")
	rest = strings.TrimPrefix(rest, "\n")
	idx := strings.Index(rest, "\n---")
	if idx < 0 {
		return "", "", fmt.Errorf("unterminated front matter")
	}
	front = rest[:idx]
	body = rest[idx+len("\n---"):]
	if i := strings.Index(body, "\n"); i >= 0 {
		body = body[i+1:]
	} else {
		body = ""
	}
	return front, body, nil
}
