package shader

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// reflection is what the render core reads back from a pre-processed WGSL module.
type reflection struct {
	entryPoints map[ShaderType]string

	// groups holds the declared bindings sorted by binding index, keyed by group index
	groups map[int]wgpu.BindGroupLayoutDescriptor

	// names holds the declared variable names keyed by group then binding index
	names map[int]map[int]string

	// vertexBuffers holds one layout per struct parameter of the vertex entry point that carries
	// only @location fields, in parameter order
	vertexBuffers []wgpu.VertexBufferLayout
}

// wgslField is one member of a WGSL struct or one parameter of an entry point.
type wgslField struct {
	name     string
	typeName string
	location int // -1 without @location
	builtin  bool
}

var (
	entryRegex = map[ShaderType]*regexp.Regexp{
		ShaderTypeVertex:   regexp.MustCompile(`(?s)@vertex\b.*?\bfn\s+(\w+)`),
		ShaderTypeFragment: regexp.MustCompile(`(?s)@fragment\b.*?\bfn\s+(\w+)`),
	}

	// matches: @group(1) @binding(0) var<storage, read> name: Type;
	bindingRegex = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([^>]*)>)?\s+(\w+)\s*:\s*([^;]+?)\s*;`)

	structRegex    = regexp.MustCompile(`struct\s+(\w+)\s*\{([^}]*)\}`)
	attributeRegex = regexp.MustCompile(`^@(\w+)(?:\(\s*([^)]*?)\s*\))?\s*`)
)

// vectorFormats maps a vertex scalar type to its formats for 1 to 4 components.
var vectorFormats = map[string][4]wgpu.VertexFormat{
	"f32": {wgpu.VertexFormatFloat32, wgpu.VertexFormatFloat32x2, wgpu.VertexFormatFloat32x3, wgpu.VertexFormatFloat32x4},
	"i32": {wgpu.VertexFormatSint32, wgpu.VertexFormatSint32x2, wgpu.VertexFormatSint32x3, wgpu.VertexFormatSint32x4},
	"u32": {wgpu.VertexFormatUint32, wgpu.VertexFormatUint32x2, wgpu.VertexFormatUint32x3, wgpu.VertexFormatUint32x4},
}

// shorthandScalars resolves the suffix of the vecNf style aliases.
var shorthandScalars = map[byte]string{'f': "f32", 'i': "i32", 'u': "u32"}

var textureDimensions = map[string]wgpu.TextureViewDimension{
	"1d":         wgpu.TextureViewDimension1D,
	"2d":         wgpu.TextureViewDimension2D,
	"2d_array":   wgpu.TextureViewDimension2DArray,
	"3d":         wgpu.TextureViewDimension3D,
	"cube":       wgpu.TextureViewDimensionCube,
	"cube_array": wgpu.TextureViewDimensionCubeArray,
}

var textureSampleTypes = map[string]wgpu.TextureSampleType{
	"f32": wgpu.TextureSampleTypeFloat,
	"i32": wgpu.TextureSampleTypeSint,
	"u32": wgpu.TextureSampleTypeUint,
}

// reflectModule extracts the entry points, bind group declarations and vertex inputs of a WGSL module.
// Every declared binding gets the given visibility.
//
// Parameters:
//   - source: WGSL source with includes already expanded
//   - visibility: the stage visibility applied to every binding
//
// Returns:
//   - reflection: the reflected module
func reflectModule(source string, visibility wgpu.ShaderStage) reflection {
	src := stripComments(source)

	r := reflection{entryPoints: make(map[ShaderType]string, len(entryRegex))}
	for stage, re := range entryRegex {
		if m := re.FindStringSubmatch(src); m != nil {
			r.entryPoints[stage] = m[1]
		}
	}
	r.groups, r.names = reflectBindings(src, visibility)
	if vs, ok := r.entryPoints[ShaderTypeVertex]; ok {
		r.vertexBuffers = reflectVertexBuffers(src, vs)
	}
	return r
}

func reflectBindings(src string, visibility wgpu.ShaderStage) (map[int]wgpu.BindGroupLayoutDescriptor, map[int]map[int]string) {
	entries := make(map[int][]wgpu.BindGroupLayoutEntry)
	names := make(map[int]map[int]string)

	for _, m := range bindingRegex.FindAllStringSubmatch(src, -1) {
		group, _ := strconv.Atoi(m[1])
		binding, _ := strconv.Atoi(m[2])

		entry := bindingEntry(strings.TrimSpace(m[3]), m[5])
		entry.Binding = uint32(binding)
		entry.Visibility = visibility
		entries[group] = append(entries[group], entry)

		if names[group] == nil {
			names[group] = make(map[int]string)
		}
		names[group][binding] = m[4]
	}

	groups := make(map[int]wgpu.BindGroupLayoutDescriptor, len(entries))
	for g, list := range entries {
		sort.Slice(list, func(i, j int) bool { return list[i].Binding < list[j].Binding })
		groups[g] = wgpu.BindGroupLayoutDescriptor{Entries: list}
	}
	return groups, names
}

// bindingEntry classifies one declaration by its address space, or by its type for handle
// declarations that have none. Unrecognised types yield an entry with no resource set, which
// no layout entry is compatible with.
func bindingEntry(addressSpace, typeName string) wgpu.BindGroupLayoutEntry {
	var e wgpu.BindGroupLayoutEntry

	switch {
	case addressSpace == "uniform":
		e.Buffer.Type = wgpu.BufferBindingTypeUniform
		return e
	case strings.HasPrefix(addressSpace, "storage"):
		e.Buffer.Type = wgpu.BufferBindingTypeReadOnlyStorage
		if strings.Contains(addressSpace, "read_write") {
			e.Buffer.Type = wgpu.BufferBindingTypeStorage
		}
		return e
	case addressSpace != "":
		return e
	}

	switch typeName {
	case "sampler":
		e.Sampler.Type = wgpu.SamplerBindingTypeFiltering
		return e
	case "sampler_comparison":
		e.Sampler.Type = wgpu.SamplerBindingTypeComparison
		return e
	}

	kind, ok := strings.CutPrefix(typeName, "texture_")
	if !ok {
		return e
	}
	kind, param, _ := strings.Cut(kind, "<")
	param = strings.TrimSpace(strings.TrimSuffix(param, ">"))

	if rest, depth := strings.CutPrefix(kind, "depth_"); depth {
		kind = rest
		e.Texture.SampleType = wgpu.TextureSampleTypeDepth
	} else {
		e.Texture.SampleType = textureSampleTypes[param]
	}
	if rest, ms := strings.CutPrefix(kind, "multisampled_"); ms {
		kind = rest
		e.Texture.Multisampled = true
	}
	e.Texture.ViewDimension = textureDimensions[kind]
	return e
}

func reflectVertexBuffers(src, entryPoint string) []wgpu.VertexBufferLayout {
	structs := make(map[string][]wgslField)
	for _, m := range structRegex.FindAllStringSubmatch(src, -1) {
		structs[m[1]] = parseFields(m[2])
	}

	var layouts []wgpu.VertexBufferLayout
	for _, param := range parseFields(paramList(src, entryPoint)) {
		// attributed parameters are builtins or loose locations, not buffers
		if param.builtin || param.location >= 0 {
			continue
		}
		fields, ok := structs[param.typeName]
		if !ok {
			continue
		}
		if layout, ok := vertexBuffer(fields); ok {
			layouts = append(layouts, layout)
		}
	}
	return layouts
}

// vertexBuffer lays the fields of a vertex input struct out tightly packed in declaration order.
// A struct with a builtin field is a stage output, not a vertex input.
func vertexBuffer(fields []wgslField) (wgpu.VertexBufferLayout, bool) {
	layout := wgpu.VertexBufferLayout{StepMode: wgpu.VertexStepModeVertex}
	for _, f := range fields {
		if f.builtin || f.location < 0 {
			return wgpu.VertexBufferLayout{}, false
		}
		format, size, ok := vertexFormat(f.typeName)
		if !ok {
			return wgpu.VertexBufferLayout{}, false
		}
		layout.Attributes = append(layout.Attributes, wgpu.VertexAttribute{
			Format:         format,
			Offset:         layout.ArrayStride,
			ShaderLocation: uint32(f.location),
		})
		layout.ArrayStride += size
	}
	return layout, len(layout.Attributes) > 0
}

// vertexFormat resolves a 32-bit scalar or vector type, in either the vec3<f32> or the vec3f
// spelling, to its vertex format and byte size.
func vertexFormat(typeName string) (wgpu.VertexFormat, uint64, bool) {
	scalar, n := typeName, 1
	if rest, ok := strings.CutPrefix(typeName, "vec"); ok && len(rest) >= 2 && rest[0] >= '2' && rest[0] <= '4' {
		n = int(rest[0] - '0')
		switch suffix := rest[1:]; {
		case len(suffix) == 1:
			scalar = shorthandScalars[suffix[0]]
		case suffix[0] == '<' && suffix[len(suffix)-1] == '>':
			scalar = strings.TrimSpace(suffix[1 : len(suffix)-1])
		default:
			return 0, 0, false
		}
	}
	formats, ok := vectorFormats[scalar]
	if !ok {
		return 0, 0, false
	}
	return formats[n-1], uint64(4 * n), true
}

// parseFields reads a comma separated list of struct members or function parameters.
func parseFields(list string) []wgslField {
	var fields []wgslField
	for _, part := range splitTopLevel(list) {
		f := wgslField{location: -1}
		part = strings.TrimSpace(part)
		for {
			m := attributeRegex.FindStringSubmatch(part)
			if m == nil {
				break
			}
			switch m[1] {
			case "builtin":
				f.builtin = true
			case "location":
				if loc, err := strconv.Atoi(m[2]); err == nil {
					f.location = loc
				}
			}
			part = part[len(m[0]):]
		}

		name, typeName, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		f.name = strings.TrimSpace(name)
		f.typeName = strings.TrimSpace(typeName)
		fields = append(fields, f)
	}
	return fields
}

// paramList returns the text between the parentheses of the named function's signature.
func paramList(src, fn string) string {
	loc := regexp.MustCompile(`\bfn\s+` + regexp.QuoteMeta(fn) + `\s*\(`).FindStringIndex(src)
	if loc == nil {
		return ""
	}
	open := 1
	for i := loc[1]; i < len(src); i++ {
		switch src[i] {
		case '(':
			open++
		case ')':
			if open--; open == 0 {
				return src[loc[1]:i]
			}
		}
	}
	return ""
}

// splitTopLevel splits at commas outside any <> or () nesting, so array<Light, 8> and
// @builtin(position) stay whole.
func splitTopLevel(s string) []string {
	var parts []string
	nesting, start := 0, 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '<', '(':
			nesting++
		case '>', ')':
			nesting = max(nesting-1, 0)
		case ',':
			if nesting == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}

// stripComments removes line comments and block comments. Block comments nest in WGSL.
func stripComments(src string) string {
	var sb strings.Builder
	sb.Grow(len(src))

	depth := 0
	for i := 0; i < len(src); i++ {
		rest := src[i:]
		switch {
		case strings.HasPrefix(rest, "/*"):
			depth++
			i++
		case depth > 0 && strings.HasPrefix(rest, "*/"):
			depth--
			i++
		case depth > 0:
		case strings.HasPrefix(rest, "//"):
			nl := strings.IndexByte(rest, '\n')
			if nl < 0 {
				return sb.String()
			}
			// resume on the newline so it is kept
			i += nl - 1
		default:
			sb.WriteByte(src[i])
		}
	}
	return sb.String()
}
