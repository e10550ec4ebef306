package batch

import (
	"path/filepath"
	"reflect"
	"testing"

	"codeberg.org/snonux/quicktrans/internal/testutil"
)

func TestReadBatchFile(t *testing.T) {
	tests := []struct {
		name        string
		fileContent string
		want        []Item
	}{
		{
			name:        "empty file",
			fileContent: "",
			want:        nil,
		},
		{
			name:        "only whitespace",
			fileContent: "   \n\t\r\n   ",
			want:        nil,
		},
		{
			name:        "plain texts",
			fileContent: "Good morning\nHow are you?",
			want: []Item{
				{Text: "Good morning"},
				{Text: "How are you?"},
			},
		},
		{
			name: "comments and blank lines",
			fileContent: `# greetings

  Hello  

# farewells
Goodbye
`,
			want: []Item{
				{Text: "Hello"},
				{Text: "Goodbye"},
			},
		},
		{
			name:        "language pairs",
			fileContent: "en>ja = Good morning\nAuto>de = Bonjour",
			want: []Item{
				{Text: "Good morning", Source: "en", Target: "ja"},
				{Text: "Bonjour", Source: "Auto", Target: "de"},
			},
		},
		{
			name:        "equals inside text",
			fileContent: "x = y + 1\nen>de = a = b",
			want: []Item{
				{Text: "x = y + 1"},
				{Text: "a = b", Source: "en", Target: "de"},
			},
		},
		{
			name:        "invalid pair keeps line",
			fileContent: "en>Auto = text\nxx>de = text",
			want: []Item{
				{Text: "en>Auto = text"},
				{Text: "xx>de = text"},
			},
		},
		{
			name:        "windows line endings",
			fileContent: "one\r\ntwo\r\n",
			want: []Item{
				{Text: "one"},
				{Text: "two"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "batch.txt")
			testutil.CreateTestFile(t, path, []byte(tt.fileContent))

			got, err := ReadBatchFile(path)
			if err != nil {
				t.Fatalf("ReadBatchFile() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ReadBatchFile() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestReadBatchFile_Missing(t *testing.T) {
	if _, err := ReadBatchFile(filepath.Join(t.TempDir(), "missing.txt")); err == nil {
		t.Error("Expected error for missing file")
	}
}
