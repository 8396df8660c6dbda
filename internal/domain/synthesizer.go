package domain

import (
	"strings"

	m "scadtest.dev/pkg/scadtest/internal/model"
)

// ModuleString renders the definition of mod:
//
//	module name(arg,arg) {
//	<content line>
//	}
func ModuleString(mod *m.Module) string {
	var b strings.Builder

	b.WriteString("module ")
	b.WriteString(mod.Name)
	b.WriteString("(")
	b.WriteString(strings.Join(mod.Arguments, ","))
	b.WriteString(") {\n")

	for _, line := range mod.Content {
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("}")

	return b.String()
}

// CallString renders the invocation recorded in mod.Call, children included.
func CallString(mod *m.Module) string {
	values := make([]string, 0, len(mod.Call.Args)+mod.Call.Kwargs.Len())

	for _, arg := range mod.Call.Args {
		values = append(values, m.FormatValue(arg))
	}

	mod.Call.Kwargs.Range(func(name string, value any) {
		values = append(values, name+"="+m.FormatValue(value))
	})

	var b strings.Builder

	b.WriteString(mod.Name)
	b.WriteString("(")
	b.WriteString(strings.Join(values, ","))
	b.WriteString(")")

	if len(mod.Call.Children) > 0 {
		b.WriteString("{\n")

		for _, child := range mod.Call.Children {
			b.WriteString(CallString(child))
			b.WriteString("\n")
		}

		b.WriteString("}")
	}

	b.WriteString(";")

	return b.String()
}

// TestFileString renders the standalone file that exercises a module test:
// includes, special variables, the call, the module and its dependencies.
func TestFileString(test *m.ModuleTest) string {
	var b strings.Builder

	for _, file := range test.ConstantFiles {
		b.WriteString("include <")
		b.WriteString(string(file))
		b.WriteString(">\n")
	}

	test.Globals.Range(func(name string, value any) {
		b.WriteString("$")
		b.WriteString(name)
		b.WriteString("=")
		b.WriteString(m.FormatValue(value))
		b.WriteString(";\n")
	})

	b.WriteString(CallString(test.Module))
	b.WriteString("\n")
	b.WriteString(ModuleString(test.Module))
	b.WriteString("\n")

	for _, dependency := range test.Dependencies {
		b.WriteString(ModuleString(dependency))
		b.WriteString("\n")
	}

	return b.String()
}
