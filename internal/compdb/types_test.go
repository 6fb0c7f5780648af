package compdb

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestEqual(t *testing.T) {
	a := CompileCommand{File: "/src/a.cpp", Directory: "/src", Command: "clang-tool a"}
	b := CompileCommand{File: "/src/b.cpp", Directory: "/src", Command: "clang-tool b"}
	bChanged := CompileCommand{File: "/src/b.cpp", Directory: "/src", Command: "clang-tool b -DX"}

	tests := []struct {
		name string
		x, y *CompilationDatabase
		want bool
	}{
		{
			name: "same commands different order",
			x:    &CompilationDatabase{Commands: []CompileCommand{a, b}},
			y:    &CompilationDatabase{Commands: []CompileCommand{b, a}},
			want: true,
		},
		{
			name: "different count",
			x:    &CompilationDatabase{Commands: []CompileCommand{a, b}},
			y:    &CompilationDatabase{Commands: []CompileCommand{a}},
			want: false,
		},
		{
			name: "same file different command",
			x:    &CompilationDatabase{Commands: []CompileCommand{a, b}},
			y:    &CompilationDatabase{Commands: []CompileCommand{a, bChanged}},
			want: false,
		},
		{
			name: "metadata ignored",
			x:    &CompilationDatabase{Name: "one", Commands: []CompileCommand{a}},
			y:    &CompilationDatabase{Name: "two", SourceBuild: "other.sln", Commands: []CompileCommand{a}},
			want: true,
		},
		{
			name: "both empty",
			x:    &CompilationDatabase{},
			y:    &CompilationDatabase{},
			want: true,
		},
		{
			name: "nil and non-nil",
			x:    nil,
			y:    &CompilationDatabase{},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.x, tt.y); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"/a/b/../c", "/a/c"},
		{"/a/b/", "/a/b"},
		{`C:\work\src\`, "C:/work/src"},
		{"/", "/"},
		{"rel/./dir", "rel/dir"},
	}
	for _, tt := range tests {
		if got := NormalizePath(tt.in); got != tt.want {
			t.Errorf("NormalizePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestOutputPath(t *testing.T) {
	if got, want := OutputPath("/out", "compile_commands"), filepath.Join("/out", "compile_commands.json"); got != want {
		t.Errorf("OutputPath() = %q, want %q", got, want)
	}
	if got, want := OutputPath("/out", "db.JSON"), filepath.Join("/out", "db.JSON"); got != want {
		t.Errorf("OutputPath() = %q, want %q", got, want)
	}
}

func TestDuplicateFiles(t *testing.T) {
	cmds := []CompileCommand{{File: "/a"}, {File: "/b"}, {File: "/a"}, {File: "/a"}}
	if diff := cmp.Diff([]string{"/a"}, DuplicateFiles(cmds)); diff != "" {
		t.Errorf("DuplicateFiles() mismatch (-want +got):\n%s", diff)
	}
}

func TestParse(t *testing.T) {
	want := []CompileCommand{
		{Directory: "/src", Command: "clang-tool \"/src/a.cpp\"", File: "/src/a.cpp"},
		{Directory: "/src", Command: "clang-tool \"/src/b.cpp\"", File: "/src/b.cpp"},
	}

	tests := []struct {
		name    string
		data    string
		want    []CompileCommand
		wantErr bool
	}{
		{
			name: "valid array",
			data: "[\n" +
				`{"directory":"/src","command":"clang-tool \"/src/a.cpp\"","file":"/src/a.cpp"}` + ",\n" +
				`{"directory":"/src","command":"clang-tool \"/src/b.cpp\"","file":"/src/b.cpp"}` +
				"\n]",
			want: want,
		},
		{
			name: "trailing comma",
			data: "[\n" +
				`{"directory":"/src","command":"clang-tool \"/src/a.cpp\"","file":"/src/a.cpp"}` + ",\n" +
				`{"directory":"/src","command":"clang-tool \"/src/b.cpp\"","file":"/src/b.cpp"}` + ",\n" +
				"\n]",
			want: want,
		},
		{
			name: "empty database",
			data: "[\n\n]",
			want: []CompileCommand{},
		},
		{
			name:    "truncated",
			data:    "[\n{\"directory\":",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse([]byte(tt.data))
			if tt.wantErr {
				if err == nil {
					t.Error("Parse() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestCompilationDatabase_Load(t *testing.T) {
	dir := t.TempDir()
	db := New("compile_commands", dir, "app.sln", "Release", "x64")

	content := "[\n" +
		`{"directory":"/src","command":"c","file":"/src/a.cpp"}` + ",\n" +
		`{"directory":"/src","command":"c","file":"/src/a.cpp"}` +
		"\n]"
	if err := os.WriteFile(db.OutputPath(), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := db.Load(); err == nil {
		t.Error("Load() expected duplicate file error, got nil")
	}

	content = "[\n" + `{"directory":"/src","command":"c","file":"/src/a.cpp"}` + "\n]"
	if err := os.WriteFile(db.OutputPath(), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := db.Load(); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(db.Commands) != 1 {
		t.Errorf("Load() commands = %d, want 1", len(db.Commands))
	}
}
