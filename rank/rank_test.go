package rank

import (
	"errors"
	"testing"
)

func TestASCIIStringRank(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		// A=11 B=12 a=43 padding=10
		{"A", 111010101},
		{"AB", 111210101},
		{"a", 431010101},
		{"", 101010101},
		{"A-B", 111012101},
	}
	for _, tt := range tests {
		if got := ASCIIStringRank(tt.in, DefaultDigits); got != tt.want {
			t.Errorf("ASCIIStringRank(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestASCIIStringRank_Order(t *testing.T) {
	words := []string{"Apple", "Banana", "Cherry", "apple", "banana"}
	for i := 1; i < len(words); i++ {
		prev := ASCIIStringRank(words[i-1], DefaultDigits)
		cur := ASCIIStringRank(words[i], DefaultDigits)
		if prev >= cur {
			t.Errorf("rank(%q)=%d not below rank(%q)=%d", words[i-1], prev, words[i], cur)
		}
	}
	if ASCIIStringRank("Python", DefaultDigits) != ASCIIStringRank("Pythonic", DefaultDigits) {
		t.Error("ranks past the digit limit should tie")
	}
	if ASCIIStringRank("Éclair", DefaultDigits) != ASCIIStringRank("Eclair", DefaultDigits) {
		t.Error("accented letters should fold to ASCII")
	}
}

func TestASCIIStringRank_Digits(t *testing.T) {
	if got := ASCIIStringRank("AB", 3); got != 111 {
		t.Errorf("3 digits = %d", got)
	}
	if got := ASCIIStringRank("AB", 0); got != ASCIIStringRank("AB", DefaultDigits) {
		t.Errorf("0 digits = %d", got)
	}
	if got := ASCIIStringRank("ABCDEFGHIJ", 40); got != 111213141516171819 {
		t.Errorf("capped digits = %d", got)
	}
}

func TestOf(t *testing.T) {
	tests := []struct {
		name string
		v    any
		desc bool
		want int64
	}{
		{"int descending", 42, true, 42},
		{"int ascending", 42, false, MaxRank - 42},
		{"uint8", uint8(7), true, 7},
		{"string", "A", true, 111010101},
		{"string ascending", "A", false, MaxRank - 111010101},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Of(tt.v, tt.desc)
			if err != nil {
				t.Fatalf("Of: %v", err)
			}
			if got != tt.want {
				t.Errorf("Of(%v, %v) = %d, want %d", tt.v, tt.desc, got, tt.want)
			}
		})
	}

	if _, err := Of(1.5, true); !errors.Is(err, ErrUnsupported) {
		t.Errorf("float: %v", err)
	}
}

func TestField(t *testing.T) {
	if name, desc := Field("-created"); name != "created" || !desc {
		t.Errorf("Field(-created) = %q, %v", name, desc)
	}
	if name, desc := Field("title"); name != "title" || desc {
		t.Errorf("Field(title) = %q, %v", name, desc)
	}
}
