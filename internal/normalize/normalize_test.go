package normalize

import (
	"errors"
	"testing"

	"github.com/amecontrol/sigtapload/internal/model"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"150,50", "150.5"},
		{"150.50", "150.5"},
		{" 150,00 ", "150"},
		{"0", "0"},
		{"1234.567", "1234.57"},
		{"-10,5", "-10.5"},
		{"9999999999.99", "9999999999.99"},
	}
	for _, tt := range tests {
		got, err := ParsePrice(tt.in)
		if err != nil {
			t.Errorf("ParsePrice(%q): unexpected error: %v", tt.in, err)
			continue
		}
		if got.String() != tt.want {
			t.Errorf("ParsePrice(%q) = %s, want %s", tt.in, got.String(), tt.want)
		}
	}
}

func TestParsePrice_CommaAndPeriodAgree(t *testing.T) {
	a, err := ParsePrice("150,50")
	if err != nil {
		t.Fatal(err)
	}
	b, err := ParsePrice("150.50")
	if err != nil {
		t.Fatal(err)
	}
	if !a.Equal(b) {
		t.Errorf("comma and period forms differ: %s vs %s", a, b)
	}
}

func TestParsePrice_Invalid(t *testing.T) {
	for _, in := range []string{"", "   ", "abc", "1.234,56", "R$ 10", "10000000000", "NaN"} {
		if _, err := ParsePrice(in); !errors.Is(err, ErrInvalidPrice) {
			t.Errorf("ParsePrice(%q): expected ErrInvalidPrice, got %v", in, err)
		}
	}
}

func TestPriceToCents(t *testing.T) {
	d, _ := ParsePrice("150,05")
	if got := PriceToCents(d); got != 15005 {
		t.Errorf("PriceToCents = %d, want 15005", got)
	}
}

func TestNormalizeClass(t *testing.T) {
	tests := []struct {
		in   string
		want model.ProcedureClass
	}{
		{"ELETIVA", model.ClassElective},
		{"eletiva", model.ClassElective},
		{"URGENCIA", model.ClassUrgent},
		{"Urgência", model.ClassUrgent},
		{"URGE\u0302NCIA", model.ClassUrgent}, // decomposed circumflex
		{"emergencia", model.ClassEmergency},
		{"EMERGÊNCIA", model.ClassEmergency},
		{" ambulatorial ", model.ClassOutpatient},
		{"", model.ClassElective},
		{"URGENT", model.ClassElective},
		{"cirurgia", model.ClassElective},
	}
	for _, tt := range tests {
		if got := NormalizeClass(tt.in); got != tt.want {
			t.Errorf("NormalizeClass(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestFoldHeader(t *testing.T) {
	tests := map[string]string{
		"  Código SIGTAP ": "codigo sigtap",
		"Descrição":        "descricao",
		"PREÇO":            "preco",
		"Tipo   Cirurgia":  "tipo cirurgia",
		"":                 "",
	}
	for in, want := range tests {
		if got := FoldHeader(in); got != want {
			t.Errorf("FoldHeader(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBytesHash(t *testing.T) {
	got := BytesHash([]byte("abc"))
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got != want {
		t.Errorf("BytesHash = %s, want %s", got, want)
	}
}
