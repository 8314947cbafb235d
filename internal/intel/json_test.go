package intel

import (
	"testing"
)

func TestDecodeLooseJSONPlain(t *testing.T) {
	t.Parallel()

	var decoded struct {
		EsLista bool `json:"esLista"`
	}
	if err := decodeLooseJSON(`{ "esLista": true }`, &decoded); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !decoded.EsLista {
		t.Fatalf("expected esLista to be true")
	}
}

func TestDecodeLooseJSONStripsFences(t *testing.T) {
	t.Parallel()

	input := "```json\n{ \"esMismo\": true }\n```"

	var decoded struct {
		EsMismo bool `json:"esMismo"`
	}
	if err := decodeLooseJSON(input, &decoded); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !decoded.EsMismo {
		t.Fatalf("expected esMismo to be true")
	}
}

func TestDecodeLooseJSONFallsBackToBraceSpan(t *testing.T) {
	t.Parallel()

	input := `Claro, acá está el resultado: { "categoria": "iPhone" } espero que sirva`

	var decoded struct {
		Categoria string `json:"categoria"`
	}
	if err := decodeLooseJSON(input, &decoded); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decoded.Categoria != "iPhone" {
		t.Fatalf("unexpected categoria: %q", decoded.Categoria)
	}
}

func TestDecodeLooseJSONRejectsNonJSON(t *testing.T) {
	t.Parallel()

	var decoded struct{}
	if err := decodeLooseJSON("no hay json acá", &decoded); err == nil {
		t.Fatalf("expected error for non-JSON input")
	}
}

func TestDecodePrice(t *testing.T) {
	t.Parallel()

	cases := []struct {
		raw  string
		want float64
	}{
		{`325`, 325},
		{`325.5`, 325.5},
		{`"1.500,50"`, 1500.50},
		{`"u$s 250"`, 250},
		{`"sin precio"`, 0},
		{`null`, 0},
	}

	for _, tc := range cases {
		if got := decodePrice([]byte(tc.raw)); got != tc.want {
			t.Fatalf("decodePrice(%s) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}
