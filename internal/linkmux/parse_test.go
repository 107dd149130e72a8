package linkmux

import "testing"

func TestParseFrame(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    RawFrame
		wantErr bool
	}{
		{
			name: "all idle",
			line: "IO,0,0,0,0,0,0,0",
			want: RawFrame{},
		},
		{
			name: "front occupied, gate A moving",
			line: "IO,1,0,0,0,0,1,0",
			want: RawFrame{Front: true, MovingA: true},
		},
		{
			name: "everything asserted",
			line: "IO,1,1,1,1,1,1,1",
			want: RawFrame{Front: true, Middle: true, Back: true, SafetyA: true, SafetyB: true, MovingA: true, MovingB: true},
		},
		{
			name: "trailing whitespace tolerated",
			line: "IO,0,1,0,0,0,0,0\r",
			want: RawFrame{Middle: true},
		},
		{name: "too few fields", line: "IO,1,0,0", wantErr: true},
		{name: "too many fields", line: "IO,1,0,0,0,0,0,0,0", wantErr: true},
		{name: "wrong prefix", line: "XX,1,0,0,0,0,0,0", wantErr: true},
		{name: "non-binary field", line: "IO,1,0,2,0,0,0,0", wantErr: true},
		{name: "empty line", line: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFrame(tt.line)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseFrame(%q) succeeded, want error", tt.line)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFrame(%q) failed: %v", tt.line, err)
			}
			if got != tt.want {
				t.Fatalf("ParseFrame(%q) = %+v, want %+v", tt.line, got, tt.want)
			}
		})
	}
}

func TestIsFrame(t *testing.T) {
	if !IsFrame("IO,0,0,0,0,0,0,0") {
		t.Fatal("sensor frame not recognized")
	}
	if IsFrame("BOOT airlock-io v2.1") {
		t.Fatal("boot banner recognized as frame")
	}
}

func TestCommandLines(t *testing.T) {
	if got := GateCommandLine("A", true); got != "G,A,1" {
		t.Fatalf("GateCommandLine = %q", got)
	}
	if got := GateCommandLine("B", false); got != "G,B,0" {
		t.Fatalf("GateCommandLine = %q", got)
	}
	if got := ColorCommandLine("amber"); got != "C,amber" {
		t.Fatalf("ColorCommandLine = %q", got)
	}
}
