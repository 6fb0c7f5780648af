package command

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"compdb/internal/compdb"
)

func TestSynthesize_MainCpp(t *testing.T) {
	res := Synthesize(Input{
		File:                     "/work/App/main.cpp",
		ContentType:              "ClCompile",
		Directory:                "/work/App",
		CompatibilityVersionFlag: "-fms-compatibility-version=19.29",
		Standard:                 "-std=c++17",
	})

	want := compdb.CompileCommand{
		Directory: "/work/App",
		Command:   `clang-tool -fms-extensions -fms-compatibility -fms-compatibility-version=19.29 -std=c++17 "/work/App/main.cpp"`,
		File:      "/work/App/main.cpp",
	}
	if !res.HasCommand {
		t.Fatal("Synthesize() produced no command for a source file")
	}
	if diff := cmp.Diff(want, res.Command); diff != "" {
		t.Errorf("Synthesize() mismatch (-want +got):\n%s", diff)
	}
	if res.HeaderDir != "" {
		t.Errorf("HeaderDir = %q, want empty", res.HeaderDir)
	}
}

func TestSynthesize_FlagOrder(t *testing.T) {
	res := Synthesize(Input{
		File:                     `C:\src\Engine\render.cpp`,
		Directory:                `C:\src\Engine\`,
		ToolToken:                "clang-cl",
		CompatibilityVersionFlag: "-fms-compatibility-version=19.16",
		IncludeDirs:              []string{`C:\src\Engine\include`, "/opt/sdk/include dir"},
		Definitions:              []string{"WIN32", `MSG="hello world"`},
		Standard:                 "-std=c++17",
		AdditionalOptions:        " /W4 ",
	})

	want := `clang-cl -fms-extensions -fms-compatibility -fms-compatibility-version=19.16` +
		` -isystem "C:/src/Engine/include" -isystem "/opt/sdk/include dir"` +
		` -DWIN32 -D"MSG=\"hello world\""` +
		` -std=c++17 /W4 "C:/src/Engine/render.cpp"`
	if res.Command.Command != want {
		t.Errorf("Command =\n%s\nwant\n%s", res.Command.Command, want)
	}
	if res.Command.Directory != "C:/src/Engine" {
		t.Errorf("Directory = %q, want C:/src/Engine", res.Command.Directory)
	}
	if res.Command.File != "C:/src/Engine/render.cpp" {
		t.Errorf("File = %q, want C:/src/Engine/render.cpp", res.Command.File)
	}
}

func TestSynthesize_StandardSuppressed(t *testing.T) {
	tests := []struct {
		name    string
		options string
	}{
		{"dash equals", "-std=c++20"},
		{"slash colon", "/std:c++latest /permissive-"},
		{"dash colon", "-O2 -std:c++14"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Synthesize(Input{
				File:              "/src/a.cpp",
				Standard:          "-std=c++17",
				AdditionalOptions: tt.options,
			})
			want := `clang-tool -fms-extensions -fms-compatibility ` + tt.options + ` "/src/a.cpp"`
			if res.Command.Command != want {
				t.Errorf("Command = %q, want %q", res.Command.Command, want)
			}
		})
	}
}

func TestSynthesize_Headers(t *testing.T) {
	res := Synthesize(Input{File: "/src/include/engine.h", Directory: "/src"})
	if res.HasCommand {
		t.Errorf("Synthesize() emitted a command for a header: %+v", res.Command)
	}
	if res.Kind != KindHeader {
		t.Errorf("Kind = %v, want header", res.Kind)
	}
	if res.HeaderDir != "/src/include" {
		t.Errorf("HeaderDir = %q, want /src/include", res.HeaderDir)
	}

	// Content type overrides the extension.
	res = Synthesize(Input{File: "/src/gen/table.inc", ContentType: "ClInclude"})
	if res.HasCommand || res.HeaderDir != "/src/gen" {
		t.Errorf("Synthesize(ClInclude) = %+v, want header dir /src/gen", res)
	}
}

func TestSynthesize_Other(t *testing.T) {
	res := Synthesize(Input{File: "/src/app.rc", ContentType: "ResourceCompile"})
	if res.HasCommand || res.HeaderDir != "" || res.Kind != KindOther {
		t.Errorf("Synthesize(.rc) = %+v, want nothing", res)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		path        string
		contentType string
		want        Kind
	}{
		{"a.cpp", "", KindSource},
		{"a.CXX", "", KindSource},
		{"a.c", "", KindSource},
		{"a.cc", "None", KindSource},
		{"a.h", "", KindHeader},
		{"a.hpp", "", KindHeader},
		{"a.inl", "", KindHeader},
		{"a.txt", "", KindOther},
		{"a.asm", "", KindOther},
		{"a.txt", "ClCompile", KindSource},
		{"a.cpp", "clinclude", KindHeader},
		{"Makefile", "", KindOther},
	}

	for _, tt := range tests {
		if got := Classify(tt.path, tt.contentType); got != tt.want {
			t.Errorf("Classify(%q, %q) = %v, want %v", tt.path, tt.contentType, got, tt.want)
		}
	}
}

func TestNormalizeDefinitions(t *testing.T) {
	got := NormalizeDefinitions([]string{
		"WIN32",
		" _DEBUG ",
		`VERSION=\"1.0\"`,
		"WIN32",
		"",
		"%(PreprocessorDefinitions)",
		`VERSION="1.0"`,
	})
	want := []string{"WIN32", "_DEBUG", `VERSION="1.0"`}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("NormalizeDefinitions() mismatch (-want +got):\n%s", diff)
	}
}

func TestDefinitionFlag(t *testing.T) {
	tests := map[string]string{
		"NDEBUG":          "-DNDEBUG",
		"LEVEL=3":         "-DLEVEL=3",
		`NAME="x"`:        `-D"NAME=\"x\""`,
		"SPACED=a b":      `-D"SPACED=a b"`,
		`PATH=C:\dir`:     `-D"PATH=C:\\dir"`,
		"FUNC(x)=((x)+1)": `-D"FUNC(x)=((x)+1)"`,
	}
	for in, want := range tests {
		if got := DefinitionFlag(in); got != want {
			t.Errorf("DefinitionFlag(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestHasStandardFlag(t *testing.T) {
	if HasStandardFlag("/W4 /EHsc") {
		t.Error("HasStandardFlag() = true for options without a standard")
	}
	if !HasStandardFlag(`"/std:c17"`) {
		t.Error("HasStandardFlag() = false for quoted /std:")
	}
	if HasStandardFlag("") {
		t.Error("HasStandardFlag(\"\") = true")
	}
}
