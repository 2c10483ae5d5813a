package modeljson

import "testing"

type payload struct {
	Intent   string   `json:"intent"`
	Keywords []string `json:"keywords"`
}

func TestDecodeFencedBlock(t *testing.T) {
	raw := "```json\n{\"intent\":\"simple_summary\",\"keywords\":[\"Esketamine\"]}\n```"
	got, err := Decode[payload](raw)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if got.Intent != "simple_summary" || len(got.Keywords) != 1 {
		t.Fatalf("unexpected payload: %#v", got)
	}
}

func TestDecodeRawJSON(t *testing.T) {
	got, err := Decode[payload](`  {"intent":"general_qa","keywords":[]}  `)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if got.Intent != "general_qa" {
		t.Fatalf("unexpected intent: %q", got.Intent)
	}
}

func TestDecodeEmbeddedObject(t *testing.T) {
	raw := "Sure, here is the classification you asked for:\n{\"intent\":\"comparative_analysis\",\"keywords\":[\"Drug A\",\"Drug B\"]}\nLet me know if you need more."
	got, err := Decode[payload](raw)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if got.Intent != "comparative_analysis" {
		t.Fatalf("unexpected intent: %q", got.Intent)
	}
}

func TestDecodeArray(t *testing.T) {
	got, err := Decode[[]int]("```json\n[2, 0, 1]\n```")
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if len(*got) != 3 || (*got)[0] != 2 {
		t.Fatalf("unexpected slice: %v", *got)
	}
}

func TestDecodeMalformed(t *testing.T) {
	if _, err := Decode[payload]("I could not produce JSON for that."); err == nil {
		t.Fatal("expected error for malformed input")
	}
	if _, err := Decode[payload]("{\"intent\": unterminated"); err == nil {
		t.Fatal("expected error for broken JSON")
	}
}

func TestSanitizeSkipsQuotedBraces(t *testing.T) {
	raw := `The token "{" is special. {"intent":"unknown","keywords":[]}`
	got, err := Decode[payload](raw)
	if err != nil {
		t.Fatalf("Decode error: %v", err)
	}
	if got.Intent != "unknown" {
		t.Fatalf("unexpected intent: %q", got.Intent)
	}
}
