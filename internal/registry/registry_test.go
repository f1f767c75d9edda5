package registry

import (
	"reflect"
	"testing"
)

func TestFind(t *testing.T) {
	r := New()

	tests := []struct {
		name     string
		file     string
		header   string
		wantName string
		wantErr  bool
	}{
		{"csv by extension", "statement.csv", "Date,Amount\n", "csv", false},
		{"ofx with sgml header", "statement.ofx", "OFXHEADER:100\n", "ofx", false},
		{"qfx with xml header", "export.qfx", "<?OFX OFXHEADER=\"200\"?>", "ofx", false},
		{"ofx extension without markers", "statement.ofx", "random bytes", "", true},
		{"markers without ofx extension", "download.dat", "OFXHEADER:100\n", "", true},
		{"unsupported file", "notes.txt", "hello", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := r.Find(tt.file, []byte(tt.header))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Find() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if p.Name() != tt.wantName {
				t.Errorf("Find() = %s, want %s", p.Name(), tt.wantName)
			}
		})
	}
}

func TestListParsers(t *testing.T) {
	r := New()
	got := r.ListParsers()
	want := []string{"csv", "ofx"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ListParsers() = %v, want %v", got, want)
	}
}
