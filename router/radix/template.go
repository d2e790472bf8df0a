package radix

import (
	"errors"
	"strings"
)

var (
	ErrEmptyWildcard     = errors.New("dynamic segment must have a name")
	ErrDuplicateWildcard = errors.New("dynamic segment names must be unique within a template")
)

// Segment is a single template path component. A static segment matches only an equal
// request segment, a dynamic one matches any non-empty segment and captures it.
type Segment struct {
	IsWildcard bool
	// Value is the literal for static segments and the parameter name for dynamic ones.
	Value string
}

func Static(value string) Segment {
	return Segment{Value: value}
}

func Dynamic(name string) Segment {
	return Segment{IsWildcard: true, Value: name}
}

// Template is a parsed path template. Root is represented by an empty template.
type Template []Segment

// Parse splits the template by slashes, discarding empty segments, so leading, trailing
// and duplicate slashes don't matter. A colon-prefixed segment is dynamic.
func Parse(tmpl string) (Template, error) {
	var (
		template Template
		names    []string
	)

	for len(tmpl) > 0 {
		var segment string
		segment, tmpl = next(tmpl)
		if len(segment) == 0 {
			break
		}

		if segment[0] != ':' {
			template = append(template, Static(segment))
			continue
		}

		name := segment[1:]
		switch {
		case len(name) == 0:
			return nil, ErrEmptyWildcard
		case contains(names, name):
			return nil, ErrDuplicateWildcard
		}

		names = append(names, name)
		template = append(template, Dynamic(name))
	}

	return template, nil
}

func MustParse(tmpl string) Template {
	template, err := Parse(tmpl)
	if err != nil {
		panic(err.Error())
	}

	return template
}

// IsStatic reports whether the template has no dynamic segments.
func (t Template) IsStatic() bool {
	for _, segment := range t {
		if segment.IsWildcard {
			return false
		}
	}

	return true
}

// String renders the template back in its normalized form.
func (t Template) String() string {
	if len(t) == 0 {
		return "/"
	}

	var b strings.Builder
	for _, segment := range t {
		b.WriteByte('/')
		if segment.IsWildcard {
			b.WriteByte(':')
		}

		b.WriteString(segment.Value)
	}

	return b.String()
}

// next returns the first non-empty segment of the path and the rest after it. An empty
// segment means the path is over.
func next(path string) (segment, rest string) {
	for len(path) > 0 && path[0] == '/' {
		path = path[1:]
	}

	if boundary := strings.IndexByte(path, '/'); boundary != -1 {
		return path[:boundary], path[boundary:]
	}

	return path, ""
}

func contains(collection []string, key string) bool {
	for _, element := range collection {
		if element == key {
			return true
		}
	}

	return false
}
