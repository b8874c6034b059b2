package shader

import (
	"fmt"
	"strings"
)

// includePrefix marks a line that is replaced by the source of a shared struct asset.
//
// Syntax: //@hz:include <asset>
const includePrefix = "//@hz:include"

// preProcessor is the implementation of the PreProcessor interface.
type preProcessor struct {
	read     func(name string) ([]byte, error)
	included []string
}

// PreProcessor expands include annotations in WGSL source with the embedded struct assets.
// Each asset is included at most once per Process call.
type PreProcessor interface {
	// Process replaces every include annotation with the source of the named asset.
	// The list of included assets is reset at the start of each call.
	//
	// Parameters:
	//   - source: the raw WGSL source
	//
	// Returns:
	//   - string: the expanded source
	//   - error: malformed annotation or unknown asset
	Process(source string) (string, error)

	// Included returns the assets included by the most recent Process call, in source order.
	//
	// Returns:
	//   - []string: the asset names
	Included() []string
}

var _ PreProcessor = &preProcessor{}

// NewPreProcessor creates a PreProcessor reading includes from the embedded assets.
//
// Returns:
//   - PreProcessor: a ready-to-use pre-processor
func NewPreProcessor() PreProcessor {
	return &preProcessor{
		read: func(name string) ([]byte, error) {
			return assets.ReadFile("assets/" + name + ".wgsl")
		},
	}
}

func (p *preProcessor) Process(source string) (string, error) {
	p.included = p.included[:0]

	lines := strings.Split(source, "\n")
	out := make([]string, 0, len(lines))

	for i, line := range lines {
		rest, ok := strings.CutPrefix(strings.TrimSpace(line), includePrefix)
		if !ok {
			out = append(out, line)
			continue
		}

		args := strings.Fields(rest)
		if len(args) != 1 {
			return "", fmt.Errorf("line %d: include takes exactly one asset name, got %d", i+1, len(args))
		}
		name := args[0]
		if p.has(name) {
			continue
		}
		data, err := p.read(name)
		if err != nil {
			return "", fmt.Errorf("line %d: unknown include %q", i+1, name)
		}
		out = append(out, strings.TrimRight(string(data), "\n"))
		p.included = append(p.included, name)
	}
	return strings.Join(out, "\n"), nil
}

func (p *preProcessor) has(name string) bool {
	for _, n := range p.included {
		if n == name {
			return true
		}
	}
	return false
}

func (p *preProcessor) Included() []string {
	return p.included
}
