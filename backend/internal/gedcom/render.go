package gedcom

import (
	"fmt"
	"strconv"
	"strings"
)

// Line is one leveled output line.
type Line struct {
	Level int
	Code  string
	Tag   string
	Data  string
}

// String formats the line as "<level> [<code>] <TAG> [<data>]".
func (l Line) String() string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(l.Level))
	if l.Code != "" {
		b.WriteByte(' ')
		b.WriteString(l.Code)
	}
	b.WriteByte(' ')
	b.WriteString(l.Tag)
	if l.Data != "" {
		b.WriteByte(' ')
		b.WriteString(l.Data)
	}
	return b.String()
}

// Render expands tmpl for src as a level 0 record tagged tag.
func Render(src Source, tag string, tmpl Composite) ([]Line, error) {
	return renderNode(src, tag, tmpl, 0)
}

func renderNode(src Source, tag string, n Node, level int) ([]Line, error) {
	switch node := n.(type) {
	case Literal:
		return []Line{{Level: level, Tag: tag, Data: string(node)}}, nil
	case Field:
		values, err := node.resolve(src)
		if err != nil {
			return nil, err
		}
		lines := make([]Line, 0, len(values))
		for _, v := range values {
			lines = append(lines, Line{Level: level, Tag: tag, Data: v})
		}
		return lines, nil
	case Composite:
		return renderComposite(src, tag, node, level)
	case nil:
		return nil, nil
	}
	return nil, fmt.Errorf("unknown template node %T", n)
}

func renderComposite(src Source, tag string, c Composite, level int) ([]Line, error) {
	head := Line{Level: level, Tag: tag}
	if c.Code != nil && level == 0 {
		code, err := single(src, c.Code)
		if err != nil {
			return nil, err
		}
		head.Code = code
	}
	if c.Data != nil {
		data, err := single(src, c.Data)
		if err != nil {
			return nil, err
		}
		head.Data = data
	}

	var children []Line
	for _, e := range c.Children {
		lines, err := renderNode(src, e.Tag, e.Node, level+1)
		if err != nil {
			return nil, err
		}
		children = append(children, lines...)
	}

	if head.Code == "" && head.Data == "" && len(children) == 0 {
		return nil, nil
	}
	return append([]Line{head}, children...), nil
}

// single resolves a code or data node to its first value.
func single(src Source, n Node) (string, error) {
	switch node := n.(type) {
	case Literal:
		return string(node), nil
	case Field:
		values, err := node.resolve(src)
		if err != nil || len(values) == 0 {
			return "", err
		}
		return values[0], nil
	}
	return "", fmt.Errorf("template node %T cannot be used as code or data", n)
}
